package answer

import (
	"encoding/json"
	"fmt"
)

// Confidence levels the model is allowed to report.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// StructuredAnswer is the contract every grounded reply satisfies.
// List fields are never nil after parsing, so callers and the JSON
// encoder can treat them uniformly.
type StructuredAnswer struct {
	Answer                string   `json:"answer"`
	Confidence            string   `json:"confidence"`
	MissingInfo           []string `json:"missing_info"`
	EnrichmentSuggestions []string `json:"enrichment_suggestions"`
	Sources               []string `json:"sources"`
}

// ParseError indicates the model returned something that could not be
// decoded as a JSON object at all. Field-level problems are repaired
// silently instead.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("answer: decoding model response: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ParseStructuredAnswer decodes a model completion into a
// StructuredAnswer. Missing or mistyped fields are coerced to safe
// defaults; only a response that is not a JSON object fails, with a
// *ParseError carrying the raw text.
func ParseStructuredAnswer(raw string) (*StructuredAnswer, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, &ParseError{Raw: raw, Err: err}
	}

	ans := &StructuredAnswer{
		Answer:                stringField(fields["answer"], "No answer provided"),
		Confidence:            stringField(fields["confidence"], ConfidenceLow),
		MissingInfo:           listField(fields["missing_info"]),
		EnrichmentSuggestions: listField(fields["enrichment_suggestions"]),
		Sources:               listField(fields["sources"]),
	}

	switch ans.Confidence {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
	default:
		ans.Confidence = ConfidenceLow
	}
	return ans, nil
}

func stringField(raw json.RawMessage, fallback string) string {
	if raw == nil {
		return fallback
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return fallback
	}
	return s
}

// listField accepts a JSON array and keeps its string elements. A bare
// string is promoted to a one-element list; anything else becomes an
// empty list.
func listField(raw json.RawMessage) []string {
	if raw == nil {
		return []string{}
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && s != "" {
			return []string{s}
		}
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			out = append(out, s)
		}
	}
	return out
}
