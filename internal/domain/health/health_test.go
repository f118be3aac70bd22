package health_test

import (
	"testing"
	"time"

	"github.com/rapporthq/rapport/internal/domain/health"
	. "github.com/smartystreets/goconvey/convey"
)

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// occurrences turns day offsets into timestamps relative to base.
func occurrences(daysAgo ...float64) []time.Time {
	out := make([]time.Time, 0, len(daysAgo))
	for _, d := range daysAgo {
		out = append(out, base.Add(-time.Duration(d*24)*time.Hour))
	}
	return out
}

func TestEstimator_Assess(t *testing.T) {
	Convey("Given a default estimator", t, func() {
		e := health.NewEstimator()

		Convey("When a person has fewer than three contacts", func() {
			_, err := e.Assess(occurrences(10, 5), base)

			Convey("Then the assessment is refused", func() {
				So(err, ShouldEqual, health.ErrInsufficientData)
			})
		})

		Convey("When a person has no contacts at all", func() {
			_, err := e.Assess(nil, base)

			Convey("Then the assessment is refused", func() {
				So(err, ShouldEqual, health.ErrInsufficientData)
			})
		})

		Convey("When contacts arrive minutes apart", func() {
			now := base
			occ := []time.Time{
				now.Add(-30 * time.Minute),
				now.Add(-20 * time.Minute),
				now.Add(-10 * time.Minute),
			}
			_, err := e.Assess(occ, now)

			Convey("Then the cadence is too short to be meaningful", func() {
				So(err, ShouldEqual, health.ErrCadenceTooShort)
			})
		})

		Convey("When gaps are 1, 3 and 5 days", func() {
			a, err := e.Assess(occurrences(9, 8, 5, 0), base)

			Convey("Then the cadence is the median gap", func() {
				So(err, ShouldBeNil)
				So(a.CadenceDays, ShouldAlmostEqual, 3.0, 0.001)
			})
		})

		Convey("When there is an even number of gaps", func() {
			// Gaps of 1, 2, 3 and 4 days; median is 2.5.
			a, err := e.Assess(occurrences(10, 9, 7, 4, 0), base)

			Convey("Then the cadence averages the two middle gaps", func() {
				So(err, ShouldBeNil)
				So(a.CadenceDays, ShouldAlmostEqual, 2.5, 0.001)
			})
		})

		Convey("When the order of occurrences is shuffled", func() {
			a1, err1 := e.Assess(occurrences(9, 8, 5, 0), base)
			a2, err2 := e.Assess(occurrences(0, 9, 5, 8), base)

			Convey("Then the result is identical", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(a1, ShouldResemble, a2)
			})
		})

		Convey("When the gap crosses the overdue threshold", func() {
			// Cadence 10 days, last contact 20 days ago: ratio 2.0.
			a, err := e.Assess(occurrences(40, 30, 20), base)

			Convey("Then the person is overdue with no prediction", func() {
				So(err, ShouldBeNil)
				So(a.OverdueRatio, ShouldAlmostEqual, 2.0, 0.001)
				So(a.Overdue, ShouldBeTrue)
				So(a.HasPrediction, ShouldBeFalse)
			})
		})

		Convey("When the gap is still under the threshold", func() {
			// Cadence 10 days, last contact 5 days ago: ratio 0.5.
			a, err := e.Assess(occurrences(25, 15, 5), base)

			Convey("Then the crossing point is predicted", func() {
				So(err, ShouldBeNil)
				So(a.Overdue, ShouldBeFalse)
				So(a.HasPrediction, ShouldBeTrue)
				// Overdue at 1.5 * 10 = 15 days of silence; 10 to go.
				So(a.PredictedDaysToOverdue, ShouldAlmostEqual, 10.0, 0.001)
			})
		})

		Convey("When the most recent contact is in the future", func() {
			occ := occurrences(20, 10)
			occ = append(occ, base.Add(time.Hour))
			a, err := e.Assess(occ, base)

			Convey("Then the current gap clamps to zero", func() {
				So(err, ShouldBeNil)
				So(a.CurrentGapDays, ShouldEqual, 0)
				So(a.OverdueRatio, ShouldEqual, 0)
			})
		})
	})

	Convey("Given a custom estimator", t, func() {
		Convey("When the evidence minimum is raised", func() {
			e := health.NewEstimator(health.WithMinEvidence(5))
			_, err := e.Assess(occurrences(30, 20, 10, 0), base)

			Convey("Then four contacts are no longer enough", func() {
				So(err, ShouldEqual, health.ErrInsufficientData)
			})
		})

		Convey("When the overdue threshold is raised", func() {
			e := health.NewEstimator(health.WithOverdueThreshold(2.5))
			a, err := e.Assess(occurrences(40, 30, 20), base)

			Convey("Then a ratio of 2.0 is not yet overdue", func() {
				So(err, ShouldBeNil)
				So(a.Overdue, ShouldBeFalse)
				So(a.HasPrediction, ShouldBeTrue)
			})
		})
	})
}

func TestEstimator_RiskClassification(t *testing.T) {
	Convey("Given a default estimator with a 10-day cadence", t, func() {
		e := health.NewEstimator()

		// assess builds a person whose median gap is 10 days and whose last
		// contact was gapDays ago.
		assess := func(gapDays float64) health.Assessment {
			occ := occurrences(gapDays+20, gapDays+10, gapDays)
			a, err := e.Assess(occ, base)
			So(err, ShouldBeNil)
			return a
		}

		Convey("Then a ratio of 3.0 is critical", func() {
			So(assess(30).Risk, ShouldEqual, health.RiskCritical)
		})

		Convey("Then a ratio of 2.5 is high", func() {
			So(assess(25).Risk, ShouldEqual, health.RiskHigh)
		})

		Convey("Then a ratio just past the threshold is moderate", func() {
			So(assess(16).Risk, ShouldEqual, health.RiskModerate)
		})

		Convey("Then a ratio of 1.3 is moderate even before overdue", func() {
			a := assess(13)
			So(a.Overdue, ShouldBeFalse)
			So(a.Risk, ShouldEqual, health.RiskModerate)
			So(a.AtRisk(), ShouldBeTrue)
		})

		Convey("Then crossing within two days is moderate", func() {
			// Cadence 7 days, gap 8.6: ratio under 1.25 but only 1.9 days
			// from the threshold.
			occ := occurrences(22.6, 15.6, 8.6)
			a, err := e.Assess(occ, base)
			So(err, ShouldBeNil)
			So(a.OverdueRatio, ShouldBeLessThan, 1.25)
			So(a.PredictedDaysToOverdue, ShouldBeLessThanOrEqualTo, 2)
			So(a.Risk, ShouldEqual, health.RiskModerate)
		})

		Convey("Then a ratio just past 1.0 is low", func() {
			So(assess(11).Risk, ShouldEqual, health.RiskLow)
		})

		Convey("Then crossing within five days is low", func() {
			// Cadence 8 days, gap 7.5: ratio under 1.0 with 4.5 days to
			// the threshold.
			occ := occurrences(23.5, 15.5, 7.5)
			a, err := e.Assess(occ, base)
			So(err, ShouldBeNil)
			So(a.OverdueRatio, ShouldBeLessThan, 1.0)
			So(a.PredictedDaysToOverdue, ShouldBeLessThanOrEqualTo, 5)
			So(a.Risk, ShouldEqual, health.RiskLow)
		})

		Convey("Then a comfortable gap carries no risk", func() {
			a := assess(3)
			So(a.Risk, ShouldEqual, health.RiskNone)
			So(a.AtRisk(), ShouldBeFalse)
		})
	})
}

func TestRisk(t *testing.T) {
	Convey("Given the risk scale", t, func() {
		Convey("Then levels order correctly", func() {
			So(health.RiskCritical.AtLeast(health.RiskModerate), ShouldBeTrue)
			So(health.RiskLow.AtLeast(health.RiskModerate), ShouldBeFalse)
			So(health.RiskNone.AtLeast(health.RiskNone), ShouldBeTrue)
		})

		Convey("Then names round-trip", func() {
			for _, r := range []health.Risk{
				health.RiskNone, health.RiskLow, health.RiskModerate,
				health.RiskHigh, health.RiskCritical,
			} {
				So(health.ParseRisk(r.String()), ShouldEqual, r)
			}
		})

		Convey("Then unknown names default to none", func() {
			So(health.ParseRisk("sideways"), ShouldEqual, health.RiskNone)
		})
	})
}
