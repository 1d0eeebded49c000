package router

import (
	"context"
	"strings"

	"github.com/ziadkadry99/knowbase/internal/llm"
)

const conversationalSystemPrompt = "You are a helpful knowledge base assistant. " +
	"The user just sent a conversational message " +
	"(not a question or new information). " +
	"Respond naturally and briefly. " +
	"Keep your response friendly and concise (1-2 sentences)."

const conversationalMaxTokens = 100

// conversationalReply produces a short social response. Provider
// failures use a deterministic fallback so small talk never surfaces
// an error to the user.
func conversationalReply(ctx context.Context, provider llm.Provider, model, message string) string {
	resp, err := provider.Complete(ctx, llm.CompletionRequest{
		Model: model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: conversationalSystemPrompt},
			{Role: llm.RoleUser, Content: message},
		},
		MaxTokens:   conversationalMaxTokens,
		Temperature: 0.7,
	})
	if err != nil {
		return conversationalFallback(message)
	}
	return strings.TrimSpace(resp.Content)
}

func conversationalFallback(message string) string {
	lower := strings.ToLower(strings.TrimSpace(message))

	if strings.Contains(lower, "thank") {
		return "You're welcome! Let me know if you need anything else."
	}
	for _, word := range []string{"okay", "ok", "got it", "sure"} {
		if strings.Contains(lower, word) {
			return "Great! Feel free to ask if you have any questions."
		}
	}
	if strings.Contains(lower, "later") {
		return "Sounds good! I'm here whenever you're ready."
	}
	return "I'm here to help! You can ask me questions or provide information to add to my knowledge base."
}
