// Package intent turns a conversation and the latest user message into a
// structured retrieval intent via the completion provider. The provider's
// output is advisory: every field that comes back missing or malformed is
// defaulted rather than treated as an error.
package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/phantomdelux3/ai-product-reccomendation/plugin/ai"
)

// Turn is one prior exchange supplied as extraction context.
type Turn struct {
	User      string
	Assistant string
}

// Intent is the structured outcome of a single extraction. PriceMin and
// PriceMax are nil when the user gave no budget.
type Intent struct {
	RefinedQuery       string   `json:"refined_query"`
	TargetCollection   string   `json:"target_collection"`
	PriceMin           *float64 `json:"price_min"`
	PriceMax           *float64 `json:"price_max"`
	MissingInfo        []string `json:"missing_info"`
	NeedsClarification bool     `json:"needs_clarification"`
}

// Extractor drives intent extraction against a completion provider.
type Extractor struct {
	completion        ai.CompletionService
	genericCollection string
}

func NewExtractor(completion ai.CompletionService, genericCollection string) *Extractor {
	return &Extractor{
		completion:        completion,
		genericCollection: genericCollection,
	}
}

// Extract produces an intent for the current message. A provider failure is
// not fatal: the raw message becomes the query and the generic catalog the
// target.
func (e *Extractor) Extract(ctx context.Context, history []Turn, message string) Intent {
	messages := []ai.Message{ai.SystemPrompt(extractionPrompt(e.genericCollection))}
	for _, turn := range history {
		messages = append(messages, ai.UserMessage(turn.User))
		if turn.Assistant != "" {
			messages = append(messages, ai.AssistantMessage(turn.Assistant))
		}
	}
	messages = append(messages, ai.UserMessage(message))

	raw, err := e.completion.Complete(ctx, messages)
	if err != nil {
		slog.Warn("intent extraction failed, using defaults", slog.String("error", err.Error()))
		return e.defaultIntent(message)
	}

	return e.parse(raw, message)
}

// parse coerces whatever the model returned into a usable intent,
// field by field.
func (e *Extractor) parse(raw string, message string) Intent {
	result := e.defaultIntent(message)

	payload := extractJSONObject(raw)
	if payload == "" {
		slog.Warn("intent response carried no JSON object", slog.String("raw", truncate(raw, 200)))
		return result
	}

	var parsed struct {
		RefinedQuery       *string     `json:"refined_query"`
		TargetCollection   *string     `json:"target_collection"`
		PriceMin           json.Number `json:"price_min"`
		PriceMax           json.Number `json:"price_max"`
		MissingInfo        []string    `json:"missing_info"`
		NeedsClarification *bool       `json:"needs_clarification"`
	}
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		slog.Warn("intent response is not valid JSON", slog.String("error", err.Error()))
		return result
	}

	if parsed.RefinedQuery != nil && strings.TrimSpace(*parsed.RefinedQuery) != "" {
		result.RefinedQuery = strings.TrimSpace(*parsed.RefinedQuery)
	}
	if parsed.TargetCollection != nil && strings.TrimSpace(*parsed.TargetCollection) != "" {
		result.TargetCollection = strings.ToLower(strings.TrimSpace(*parsed.TargetCollection))
	}
	if min, err := parsed.PriceMin.Float64(); err == nil && min >= 0 {
		result.PriceMin = &min
	}
	if max, err := parsed.PriceMax.Float64(); err == nil && max > 0 {
		result.PriceMax = &max
	}
	if parsed.MissingInfo != nil {
		result.MissingInfo = parsed.MissingInfo
	}
	if parsed.NeedsClarification != nil {
		result.NeedsClarification = *parsed.NeedsClarification
	}

	return result
}

func (e *Extractor) defaultIntent(message string) Intent {
	return Intent{
		RefinedQuery:     message,
		TargetCollection: e.genericCollection,
		MissingInfo:      []string{},
	}
}

// extractJSONObject pulls the first balanced {...} span from text, tolerating
// markdown code fences around it.
func extractJSONObject(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}

	start := strings.Index(text, "{")
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return fmt.Sprintf("%s...", s[:n])
}
