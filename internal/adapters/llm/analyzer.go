// Package llm extracts structured insights from evidence using the
// Anthropic messages API.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/google/uuid"

	"github.com/rapporthq/rapport/internal/domain/model"
	"github.com/rapporthq/rapport/pkg/logger"
	"github.com/rapporthq/rapport/pkg/metrics"
)

const (
	defaultModel     = "claude-sonnet-4-5-20250929"
	defaultMaxTokens = 4096
	defaultMaxNotes  = 10
	maxNoteChars     = 4000
)

// NoteReader loads the notes attached to evidence.
type NoteReader interface {
	ListNotesForEvidence(ctx context.Context, evidenceIDs []string) (map[string][]model.Note, error)
}

// Usage accumulates token accounting across calls.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
}

func (u Usage) TotalTokens() int64 {
	return u.InputTokens + u.OutputTokens
}

func (u *Usage) Add(other Usage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
}

// extractedInsight is the shape the model is asked to respond with.
type extractedInsight struct {
	PersonID   string  `json:"person_id"`
	Kind       string  `json:"kind"`
	Body       string  `json:"body"`
	Confidence float64 `json:"confidence"`
}

// Extractor turns one evidence item plus its notes into insights.
type Extractor struct {
	client   anthropic.Client
	model    string
	notes    NoteReader
	maxNotes int
	now      func() time.Time
	logger   logger.Logger
}

// NewExtractor creates an extractor with configuration options.
func NewExtractor(apiKey string, notes NoteReader, opts ...Option) *Extractor {
	e := &Extractor{
		client:   anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:    defaultModel,
		notes:    notes,
		maxNotes: defaultMaxNotes,
		now:      time.Now,
		logger:   logger.Get().Named("llm"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Analyze extracts insights from a single evidence item. Evidence without
// any linked people yields no insights.
func (e *Extractor) Analyze(ctx context.Context, ev model.Evidence) ([]model.Insight, error) {
	if len(ev.PersonIDs) == 0 {
		return nil, nil
	}

	start := time.Now()
	defer func() {
		metrics.RecordAnalysisLatency(float64(time.Since(start).Milliseconds()))
	}()

	noteMap, err := e.notes.ListNotesForEvidence(ctx, []string{ev.ID})
	if err != nil {
		metrics.RecordAnalysisError()
		return nil, fmt.Errorf("loading notes for evidence %s: %w", ev.ID, err)
	}

	systemPrompt, userPrompt := e.buildPrompts(ev, noteMap[ev.ID])

	responseText, usage, err := e.call(ctx, systemPrompt, userPrompt)
	metrics.RecordLLMTokens("input", usage.InputTokens)
	metrics.RecordLLMTokens("output", usage.OutputTokens)
	if err != nil {
		metrics.RecordAnalysisError()
		return nil, err
	}

	extracted, err := parseInsightResponse(responseText)
	if err != nil {
		metrics.RecordAnalysisError()
		return nil, err
	}

	valid := make(map[string]bool, len(ev.PersonIDs))
	for _, pid := range ev.PersonIDs {
		valid[pid] = true
	}

	now := e.now()
	var out []model.Insight
	for _, x := range extracted {
		kind := model.InsightKind(strings.TrimSpace(x.Kind))
		if kind != model.InsightFact && kind != model.InsightActionItem {
			continue
		}
		pid := strings.TrimSpace(x.PersonID)
		if !valid[pid] {
			continue
		}
		body := strings.TrimSpace(x.Body)
		if body == "" {
			continue
		}
		conf := x.Confidence
		if conf < 0 {
			conf = 0
		}
		if conf > 1 {
			conf = 1
		}
		out = append(out, model.Insight{
			ID:         uuid.NewString(),
			PersonID:   pid,
			EvidenceID: ev.ID,
			Kind:       kind,
			Body:       body,
			Confidence: conf,
			Model:      e.model,
			CreatedAt:  now,
		})
	}

	e.logger.Debug(ctx, "analysis complete",
		logger.String("evidence_id", ev.ID),
		logger.Int("insights", len(out)),
		logger.Int("tokens_in", int(usage.InputTokens)),
		logger.Int("tokens_out", int(usage.OutputTokens)),
	)

	return out, nil
}

func (e *Extractor) buildPrompts(ev model.Evidence, notes []model.Note) (string, string) {
	var people strings.Builder
	for _, pid := range ev.PersonIDs {
		fmt.Fprintf(&people, "- %s\n", pid)
	}

	systemPrompt := fmt.Sprintf(`You extract relationship insights from interaction records.
Each insight belongs to exactly one person, chosen from:
%s
Choose "kind" from:
- "fact": a durable fact about the person (job change, preference, life event)
- "action_item": something the user committed to do or should follow up on

Set confidence between 0 and 1. Skip small talk; only extract what is worth remembering.

Respond with JSON only (no markdown):
[{"person_id": "...", "kind": "fact", "body": "...", "confidence": 0.9}, ...]`, people.String())

	var b strings.Builder
	fmt.Fprintf(&b, "Interaction (%s) on %s:\n%s\n", ev.Kind, ev.OccurredAt.Format("2006-01-02"), strings.TrimSpace(ev.Summary))
	if len(notes) > 0 {
		b.WriteString("\nNotes:\n")
		for i, n := range notes {
			if i >= e.maxNotes {
				break
			}
			body := strings.TrimSpace(n.Body)
			if len(body) > maxNoteChars {
				body = body[:maxNoteChars] + "..."
			}
			fmt.Fprintf(&b, "- %s\n", body)
		}
	}
	return systemPrompt, b.String()
}

func (e *Extractor) call(ctx context.Context, systemPrompt, userPrompt string) (string, Usage, error) {
	message, err := e.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(e.model),
		MaxTokens: defaultMaxTokens,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt, CacheControl: anthropic.NewCacheControlEphemeralParam()},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})
	if err != nil {
		return "", Usage{}, fmt.Errorf("anthropic API error: %w", err)
	}

	usage := Usage{
		InputTokens:  message.Usage.InputTokens,
		OutputTokens: message.Usage.OutputTokens,
	}
	for _, block := range message.Content {
		if block.Type == "text" {
			return block.Text, usage, nil
		}
	}
	return "", usage, fmt.Errorf("no text content in anthropic response")
}

func parseInsightResponse(responseText string) ([]extractedInsight, error) {
	responseText = strings.TrimSpace(responseText)
	responseText = strings.TrimPrefix(responseText, "```json")
	responseText = strings.TrimPrefix(responseText, "```")
	responseText = strings.TrimSuffix(responseText, "```")
	responseText = strings.TrimSpace(responseText)

	var extracted []extractedInsight
	if err := json.Unmarshal([]byte(responseText), &extracted); err != nil {
		truncated := responseText
		if len(truncated) > 512 {
			truncated = truncated[:512] + "..."
		}
		return nil, fmt.Errorf("parsing insight response: %w (response: %s)", err, truncated)
	}
	return extracted, nil
}
