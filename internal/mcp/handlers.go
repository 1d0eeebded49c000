package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/knowbase/internal/answer"
	"github.com/ziadkadry99/knowbase/internal/retrieval"
)

// handleSearchKnowledgeBase runs retrieval and returns the raw passages.
func (s *Server) handleSearchKnowledgeBase(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	result, err := s.retriever.Retrieve(ctx, query)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	if result.NumChunks == 0 {
		return mcp.NewToolResultText("No relevant passages found. The knowledge base may be empty; add documents with `knowbase ingest`."), nil
	}

	return mcp.NewToolResultText(formatChunks(result)), nil
}

// handleAskKnowledgeBase answers a question end to end.
func (s *Server) handleAskKnowledgeBase(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := request.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: question"), nil
	}

	result, err := s.retriever.Retrieve(ctx, question)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("retrieval failed: %v", err)), nil
	}

	ans := s.answerer.Compose(ctx, question, result.Chunks, nil)
	return mcp.NewToolResultText(formatAnswer(ans)), nil
}

// handleAddFact records a statement in the manual ledger.
func (s *Server) handleAddFact(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	statement, err := request.RequireString("statement")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: statement"), nil
	}

	res, err := s.recorder.Record(ctx, statement, "")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("recording fact failed: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"Recorded in %s. The fact is now available for future questions.", res.Filename,
	)), nil
}

// handleListDocuments returns the stored documents.
func (s *Server) handleListDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	docs, err := s.kbStore.ListDocuments(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing documents failed: %v", err)), nil
	}
	if len(docs) == 0 {
		return mcp.NewToolResultText("The knowledge base contains no documents."), nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d document(s):\n", len(docs)))
	for _, d := range docs {
		sb.WriteString(fmt.Sprintf("\n- %s (type %s, id %d, uploaded %s)",
			d.Filename, d.FileType, d.ID, d.UploadTimestamp.Format("2006-01-02 15:04")))
		if d.IsManualInput {
			sb.WriteString(" [manual ledger]")
		}
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func formatChunks(result *retrieval.Result) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d passage(s):\n", result.NumChunks))

	for i, c := range result.Chunks {
		sb.WriteString(fmt.Sprintf("\n--- Passage %d ---\n", i+1))
		sb.WriteString(fmt.Sprintf("Source: %s\n", c.Filename))
		sb.WriteString(fmt.Sprintf("Document score: %.3f\n", c.DocumentScore))
		if c.RerankScore > 0 {
			sb.WriteString(fmt.Sprintf("Relevance: %.3f\n", c.RerankScore))
		}
		sb.WriteString("\n")
		sb.WriteString(c.Text)
		sb.WriteString("\n")
	}
	return sb.String()
}

func formatAnswer(ans *answer.StructuredAnswer) string {
	var sb strings.Builder
	sb.WriteString(ans.Answer)
	sb.WriteString(fmt.Sprintf("\n\nConfidence: %s\n", ans.Confidence))

	if len(ans.MissingInfo) > 0 {
		sb.WriteString("\nMissing information:\n")
		for _, m := range ans.MissingInfo {
			sb.WriteString("- " + m + "\n")
		}
	}
	if len(ans.EnrichmentSuggestions) > 0 {
		sb.WriteString("\nWhere to find it:\n")
		for _, e := range ans.EnrichmentSuggestions {
			sb.WriteString("- " + e + "\n")
		}
	}
	if len(ans.Sources) > 0 {
		sb.WriteString("\nSources:\n")
		for _, src := range ans.Sources {
			sb.WriteString("- " + src + "\n")
		}
	}
	return sb.String()
}
