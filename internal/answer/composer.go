package answer

import (
	"context"
	"fmt"
	"strings"

	"github.com/ziadkadry99/knowbase/internal/kb"
	"github.com/ziadkadry99/knowbase/internal/llm"
	"github.com/ziadkadry99/knowbase/internal/retrieval"
)

// previewLength bounds the ledger excerpt appended to a ledger source
// entry so users can see which fact the answer leaned on.
const previewLength = 150

// Composer turns retrieved chunks plus conversation history into a
// structured, confidence-annotated answer. It never returns an error
// to callers: provider and parse failures degrade into a low-confidence
// StructuredAnswer so the conversation keeps its shape.
type Composer struct {
	provider llm.Provider
	model    string
}

func NewComposer(provider llm.Provider, model string) *Composer {
	return &Composer{provider: provider, model: model}
}

// Compose answers query against the given chunks. history carries
// prior turns already bounded by the caller.
func (c *Composer) Compose(ctx context.Context, query string, chunks []retrieval.ScoredChunk, history []llm.Message) *StructuredAnswer {
	prompt := fmt.Sprintf(answerTemplate, buildContext(chunks), query)

	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: systemPrompt})
	messages = append(messages, history...)
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: prompt})

	resp, err := c.provider.Complete(ctx, llm.CompletionRequest{
		Model:    c.model,
		Messages: messages,
		JSONMode: true,
	})
	if err != nil {
		return &StructuredAnswer{
			Answer:                fmt.Sprintf("Error generating answer: %v", err),
			Confidence:            ConfidenceLow,
			MissingInfo:           []string{"System error occurred"},
			EnrichmentSuggestions: []string{},
			Sources:               []string{},
		}
	}

	ans, err := ParseStructuredAnswer(resp.Content)
	if err != nil {
		return &StructuredAnswer{
			Answer:                "Error parsing model response.",
			Confidence:            ConfidenceLow,
			MissingInfo:           []string{"Unable to process response"},
			EnrichmentSuggestions: []string{},
			Sources:               []string{},
		}
	}

	ans.Sources = enhanceSources(ans.Sources, chunks)
	return ans
}

// buildContext groups chunks by filename in order of first appearance,
// so the model sees one header per document rather than one per chunk.
func buildContext(chunks []retrieval.ScoredChunk) string {
	if len(chunks) == 0 {
		return "No relevant documents found."
	}

	byFile := make(map[string][]string)
	var order []string
	for _, c := range chunks {
		name := c.Filename
		if name == "" {
			name = "Unknown"
		}
		if _, seen := byFile[name]; !seen {
			order = append(order, name)
		}
		byFile[name] = append(byFile[name], c.Text)
	}

	parts := make([]string, 0, len(order))
	for i, name := range order {
		parts = append(parts, fmt.Sprintf("[Document %d: %s]\n%s\n", i+1, name, strings.Join(byFile[name], "\n\n")))
	}
	return strings.Join(parts, "\n")
}

// enhanceSources appends a short content preview to sources that point
// at the manual ledger. A filename alone tells the user nothing about
// which recorded fact was used; the excerpt does.
func enhanceSources(sources []string, chunks []retrieval.ScoredChunk) []string {
	ledgerText := make(map[string]string)
	for _, c := range chunks {
		if c.Filename != kb.LedgerFilename && !strings.HasPrefix(c.Filename, "manual_input_") {
			continue
		}
		text := strings.TrimSpace(c.Text)
		if prev, ok := ledgerText[c.Filename]; ok {
			ledgerText[c.Filename] = prev + " " + text
		} else {
			ledgerText[c.Filename] = text
		}
	}

	enhanced := make([]string, 0, len(sources))
	for _, source := range sources {
		content, ok := ledgerText[source]
		if !ok {
			enhanced = append(enhanced, source)
			continue
		}
		if runes := []rune(content); len(runes) > previewLength {
			content = string(runes[:previewLength]) + "..."
		}
		enhanced = append(enhanced, source+" - "+content)
	}
	return enhanced
}
