package router

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ziadkadry99/knowbase/internal/llm"
)

// Intent is the routing decision for an incoming chat message.
type Intent string

const (
	IntentInformationRequest   Intent = "information_request"
	IntentInformationProvision Intent = "information_provision"
	IntentConversational       Intent = "conversational"

	// IntentFileEnrichment is assigned locally when a message carries
	// attachments; the classifier never returns it.
	IntentFileEnrichment Intent = "file_enrichment"
)

const classifierSystemPrompt = "You are an intent classification system. " +
	"Analyze messages and classify their intent."

const classifierTemplate = `Analyze the following user message and classify its intent:

Message: "%s"

Classification criteria:

1. information_request: User is asking a question or requesting information
   - Contains questions (what, when, where, who, how, why, ?)
   - Request verbs (tell, show, explain, describe, list, find)
   - Seeking knowledge from existing data
   - Examples: "What universities did Yash attend?", "Tell me about Aks", "Show me revenue data"

2. information_provision: User is stating facts to be stored
   - Declarative statements with concrete facts
   - Contains entities, relationships, dates, numbers, descriptions
   - NOT asking questions
   - Providing new information to be remembered
   - Examples: "Yash graduated from UCLA in 2023", "Aks and Yash are brothers", "The Q4 revenue was $5M"

3. conversational: Casual conversation, acknowledgments, no actionable content
   - Gratitude expressions (thanks, thank you)
   - Acknowledgments (okay, got it, sure, alright)
   - Dismissals or delays (maybe later, I'll do that later)
   - No concrete information or questions
   - Examples: "Thanks!", "Okay, I'll do that later", "Got it"

Respond with JSON in this exact format:
{
    "intent": "information_request|information_provision|conversational",
    "confidence": "high|medium|low",
    "reasoning": "Brief explanation of why this classification was chosen"
}`

// classifyIntent asks the model to label a message. Any failure, from
// transport to an unrecognized label, falls back to treating the
// message as a question; answering is the safe default because it
// never writes to the knowledge base.
func classifyIntent(ctx context.Context, provider llm.Provider, model, message string) Intent {
	resp, err := provider.Complete(ctx, llm.CompletionRequest{
		Model: model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: classifierSystemPrompt},
			{Role: llm.RoleUser, Content: fmt.Sprintf(classifierTemplate, message)},
		},
		JSONMode: true,
	})
	if err != nil {
		return IntentInformationRequest
	}

	var decoded struct {
		Intent string `json:"intent"`
	}
	if err := json.Unmarshal([]byte(resp.Content), &decoded); err != nil {
		return IntentInformationRequest
	}

	switch Intent(decoded.Intent) {
	case IntentInformationProvision, IntentConversational:
		return Intent(decoded.Intent)
	default:
		return IntentInformationRequest
	}
}
