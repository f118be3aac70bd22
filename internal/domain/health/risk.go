package health

// Risk describes how stale a relationship is becoming. It is a total order:
// None < Low < Moderate < High < Critical.
type Risk int

const (
	RiskNone Risk = iota
	RiskLow
	RiskModerate
	RiskHigh
	RiskCritical
)

var riskNames = map[Risk]string{
	RiskNone:     "none",
	RiskLow:      "low",
	RiskModerate: "moderate",
	RiskHigh:     "high",
	RiskCritical: "critical",
}

func (r Risk) String() string {
	if name, ok := riskNames[r]; ok {
		return name
	}
	return "none"
}

// AtLeast reports whether r is at or above the given level. Views use this to
// filter and sort people for display.
func (r Risk) AtLeast(other Risk) bool { return r >= other }

// ParseRisk maps a name back to a level, defaulting to None on unknown input.
func ParseRisk(s string) Risk {
	for level, name := range riskNames {
		if name == s {
			return level
		}
	}
	return RiskNone
}
