package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ziadkadry99/knowbase/internal/answer"
	"github.com/ziadkadry99/knowbase/internal/chat"
	"github.com/ziadkadry99/knowbase/internal/enrich"
	"github.com/ziadkadry99/knowbase/internal/ingest"
	"github.com/ziadkadry99/knowbase/internal/llm"
	"github.com/ziadkadry99/knowbase/internal/retrieval"
)

var (
	ErrEmptyMessage       = errors.New("empty message")
	ErrTooManyAttachments = errors.New("too many attached files")
)

// Retriever runs the two-stage search over the knowledge base.
type Retriever interface {
	Retrieve(ctx context.Context, query string) (*retrieval.Result, error)
}

// Answerer composes a structured answer from retrieved chunks.
type Answerer interface {
	Compose(ctx context.Context, query string, chunks []retrieval.ScoredChunk, history []llm.Message) *answer.StructuredAnswer
}

// FactRecorder appends a stated fact to the manual ledger.
type FactRecorder interface {
	Record(ctx context.Context, statement, sourceQuery string) (*enrich.Result, error)
}

// Ingestor adds files to the knowledge base with per-file isolation.
type Ingestor interface {
	IngestFiles(ctx context.Context, paths []string) []ingest.FileOutcome
}

// Config wires a Router. Zero limits fall back to the defaults used
// across the application.
type Config struct {
	Chats    *chat.Store
	Provider llm.Provider
	Model    string

	Retriever Retriever
	Answerer  Answerer
	Recorder  FactRecorder
	Ingestor  Ingestor

	HistoryWindow  int
	MaxAttachments int
}

// Router dispatches an incoming chat message on its intent: questions
// are answered from the knowledge base, stated facts are recorded,
// attachments are ingested and small talk gets a short reply. Every
// handled message and its response are persisted to the chat store.
type Router struct {
	cfg Config
}

func New(cfg Config) *Router {
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = 10
	}
	if cfg.MaxAttachments <= 0 {
		cfg.MaxAttachments = 3
	}
	return &Router{cfg: cfg}
}

// AnswerRecord is the assistant-message metadata stored for answered
// questions: the structured answer plus the retrieval outcome it was
// grounded on.
type AnswerRecord struct {
	answer.StructuredAnswer

	Query            string  `json:"query"`
	MaxSimilarity    float64 `json:"max_similarity"`
	NumChunks        int     `json:"num_chunks"`
	TopDocuments     []int64 `json:"top_documents"`
	RetrievalQuality string  `json:"retrieval_quality,omitempty"`
}

// Reply is the handled outcome returned to the transport layer.
type Reply struct {
	Intent  Intent
	Content string

	// Answer and Metadata are set for information requests only.
	Answer   *answer.StructuredAnswer
	Metadata json.RawMessage

	// IngestedFiles lists filenames added for attachment messages.
	IngestedFiles []string

	UserMessageID      int64
	AssistantMessageID int64
}

// Handle routes one user message. Attachments take precedence over
// text: a question sent together with files is treated as an upload
// and the files are ingested.
func (r *Router) Handle(ctx context.Context, chatID, message string, files []string) (*Reply, error) {
	message = strings.TrimSpace(message)

	if len(files) > 0 {
		return r.handleAttachments(ctx, chatID, message, files)
	}
	if message == "" {
		return nil, ErrEmptyMessage
	}

	switch classifyIntent(ctx, r.cfg.Provider, r.cfg.Model, message) {
	case IntentInformationProvision:
		return r.handleProvision(ctx, chatID, message)
	case IntentConversational:
		return r.handleConversational(ctx, chatID, message)
	default:
		return r.handleQuestion(ctx, chatID, message)
	}
}

func (r *Router) handleAttachments(ctx context.Context, chatID, message string, files []string) (*Reply, error) {
	if len(files) > r.cfg.MaxAttachments {
		return nil, fmt.Errorf("%w: %d files, limit %d", ErrTooManyAttachments, len(files), r.cfg.MaxAttachments)
	}

	outcomes := r.cfg.Ingestor.IngestFiles(ctx, files)

	var ingested []string
	var failures []string
	var firstErr error
	for _, o := range outcomes {
		if o.Err != nil {
			failures = append(failures, fmt.Sprintf("%s (%v)", filepath.Base(o.Path), o.Err))
			if firstErr == nil {
				firstErr = o.Err
			}
			continue
		}
		ingested = append(ingested, filepath.Base(o.Path))
	}
	if len(ingested) == 0 {
		return nil, fmt.Errorf("processing attachments: %w", firstErr)
	}

	userContent := message
	if userContent == "" {
		userContent = "Uploaded files"
	}
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = filepath.Base(f)
	}
	userID, err := r.cfg.Chats.AddMessage(ctx, chatID, string(llm.RoleUser), userContent, names, nil)
	if err != nil {
		return nil, err
	}

	confirmation := fmt.Sprintf("Processed %d file(s) and added to knowledge base.", len(ingested))
	if len(failures) > 0 {
		confirmation += "\n\nCould not process: " + strings.Join(failures, ", ")
	}
	assistantID, err := r.cfg.Chats.AddMessage(ctx, chatID, string(llm.RoleAssistant), confirmation, nil, nil)
	if err != nil {
		return nil, err
	}

	return &Reply{
		Intent:             IntentFileEnrichment,
		Content:            confirmation,
		IngestedFiles:      ingested,
		UserMessageID:      userID,
		AssistantMessageID: assistantID,
	}, nil
}

func (r *Router) handleProvision(ctx context.Context, chatID, message string) (*Reply, error) {
	userID, err := r.cfg.Chats.AddMessage(ctx, chatID, string(llm.RoleUser), message, nil, nil)
	if err != nil {
		return nil, err
	}

	var content string
	if _, err := r.cfg.Recorder.Record(ctx, message, ""); err != nil {
		content = fmt.Sprintf("Sorry, I couldn't process that information. %v", err)
	} else {
		content = fmt.Sprintf(
			"Thank you! I've added this information to my knowledge base:\n\n_%s_\n\nThis information is now available for future questions.",
			message,
		)
	}

	assistantID, err := r.cfg.Chats.AddMessage(ctx, chatID, string(llm.RoleAssistant), content, nil, nil)
	if err != nil {
		return nil, err
	}

	return &Reply{
		Intent:             IntentInformationProvision,
		Content:            content,
		UserMessageID:      userID,
		AssistantMessageID: assistantID,
	}, nil
}

func (r *Router) handleConversational(ctx context.Context, chatID, message string) (*Reply, error) {
	userID, err := r.cfg.Chats.AddMessage(ctx, chatID, string(llm.RoleUser), message, nil, nil)
	if err != nil {
		return nil, err
	}

	content := conversationalReply(ctx, r.cfg.Provider, r.cfg.Model, message)

	assistantID, err := r.cfg.Chats.AddMessage(ctx, chatID, string(llm.RoleAssistant), content, nil, nil)
	if err != nil {
		return nil, err
	}

	return &Reply{
		Intent:             IntentConversational,
		Content:            content,
		UserMessageID:      userID,
		AssistantMessageID: assistantID,
	}, nil
}

func (r *Router) handleQuestion(ctx context.Context, chatID, message string) (*Reply, error) {
	// History is read before the new message is stored so the model
	// does not see the question twice.
	history, err := r.cfg.Chats.HistoryForModel(ctx, chatID, r.cfg.HistoryWindow)
	if err != nil {
		return nil, err
	}

	userID, err := r.cfg.Chats.AddMessage(ctx, chatID, string(llm.RoleUser), message, nil, nil)
	if err != nil {
		return nil, err
	}

	result, err := r.cfg.Retriever.Retrieve(ctx, message)
	if err != nil {
		return nil, fmt.Errorf("retrieving context: %w", err)
	}

	ans := r.cfg.Answerer.Compose(ctx, message, result.Chunks, history)

	record := AnswerRecord{
		StructuredAnswer: *ans,
		Query:            message,
		MaxSimilarity:    result.MaxSimilarity,
		NumChunks:        result.NumChunks,
		TopDocuments:     result.TopDocuments,
		RetrievalQuality: result.Quality,
	}
	metadata, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}

	assistantID, err := r.cfg.Chats.AddMessage(ctx, chatID, string(llm.RoleAssistant), ans.Answer, nil, metadata)
	if err != nil {
		return nil, err
	}

	return &Reply{
		Intent:             IntentInformationRequest,
		Content:            ans.Answer,
		Answer:             ans,
		Metadata:           metadata,
		UserMessageID:      userID,
		AssistantMessageID: assistantID,
	}, nil
}
