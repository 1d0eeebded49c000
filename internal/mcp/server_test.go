package mcp

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/knowbase/internal/answer"
	"github.com/ziadkadry99/knowbase/internal/db"
	"github.com/ziadkadry99/knowbase/internal/enrich"
	"github.com/ziadkadry99/knowbase/internal/kb"
	"github.com/ziadkadry99/knowbase/internal/llm"
	"github.com/ziadkadry99/knowbase/internal/retrieval"
)

type mockRetriever struct {
	result *retrieval.Result
	err    error
}

func (m *mockRetriever) Retrieve(_ context.Context, _ string) (*retrieval.Result, error) {
	return m.result, m.err
}

type mockAnswerer struct {
	ans *answer.StructuredAnswer
}

func (m *mockAnswerer) Compose(_ context.Context, _ string, _ []retrieval.ScoredChunk, _ []llm.Message) *answer.StructuredAnswer {
	return m.ans
}

type mockRecorder struct {
	statement string
	err       error
}

func (m *mockRecorder) Record(_ context.Context, statement, _ string) (*enrich.Result, error) {
	m.statement = statement
	if m.err != nil {
		return nil, m.err
	}
	return &enrich.Result{Filename: kb.LedgerFilename}, nil
}

func testKBStore(t *testing.T) *kb.Store {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return kb.NewStore(database)
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func TestToolDefinitions(t *testing.T) {
	tests := []struct {
		name     string
		tool     mcp.Tool
		wantName string
	}{
		{"search_knowledge_base", searchKnowledgeBaseTool, "search_knowledge_base"},
		{"ask_knowledge_base", askKnowledgeBaseTool, "ask_knowledge_base"},
		{"add_fact", addFactTool, "add_fact"},
		{"list_documents", listDocumentsTool, "list_documents"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.tool.Name != tt.wantName {
				t.Errorf("tool name = %q, want %q", tt.tool.Name, tt.wantName)
			}
			if tt.tool.Description == "" {
				t.Error("tool description should not be empty")
			}
		})
	}
}

func TestNewServer(t *testing.T) {
	srv := NewServer(&mockRetriever{}, &mockAnswerer{}, &mockRecorder{}, testKBStore(t))
	if srv == nil {
		t.Fatal("NewServer returned nil")
	}
	if srv.mcp == nil {
		t.Fatal("MCP server not initialized")
	}
}

func TestHandleSearchKnowledgeBase(t *testing.T) {
	ctx := context.Background()

	t.Run("with results", func(t *testing.T) {
		retr := &mockRetriever{result: &retrieval.Result{
			Chunks: []retrieval.ScoredChunk{
				{Chunk: kb.Chunk{Filename: "resume.pdf", Text: "UCLA, class of 2023."}, DocumentScore: 0.81, RerankScore: 0.4},
			},
			NumChunks: 1,
		}}
		srv := NewServer(retr, &mockAnswerer{}, &mockRecorder{}, testKBStore(t))

		result, err := srv.handleSearchKnowledgeBase(ctx, callRequest(map[string]any{"query": "education"}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.IsError {
			t.Fatalf("unexpected tool error: %v", result.Content)
		}
		text := resultText(t, result)
		if !strings.Contains(text, "resume.pdf") || !strings.Contains(text, "UCLA") {
			t.Errorf("result text = %q", text)
		}
	})

	t.Run("empty knowledge base", func(t *testing.T) {
		retr := &mockRetriever{result: &retrieval.Result{Chunks: []retrieval.ScoredChunk{}, Quality: retrieval.QualityNone}}
		srv := NewServer(retr, &mockAnswerer{}, &mockRecorder{}, testKBStore(t))

		result, err := srv.handleSearchKnowledgeBase(ctx, callRequest(map[string]any{"query": "anything"}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.IsError {
			t.Fatalf("unexpected tool error: %v", result.Content)
		}
		if !strings.Contains(resultText(t, result), "No relevant passages") {
			t.Errorf("result text = %q", resultText(t, result))
		}
	})

	t.Run("missing query", func(t *testing.T) {
		srv := NewServer(&mockRetriever{}, &mockAnswerer{}, &mockRecorder{}, testKBStore(t))
		result, err := srv.handleSearchKnowledgeBase(ctx, callRequest(map[string]any{}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Error("expected error for missing query")
		}
	})

	t.Run("retrieval failure", func(t *testing.T) {
		srv := NewServer(&mockRetriever{err: errors.New("embedder offline")}, &mockAnswerer{}, &mockRecorder{}, testKBStore(t))
		result, err := srv.handleSearchKnowledgeBase(ctx, callRequest(map[string]any{"query": "q"}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Error("expected tool error on retrieval failure")
		}
	})
}

func TestHandleAskKnowledgeBase(t *testing.T) {
	ctx := context.Background()
	retr := &mockRetriever{result: &retrieval.Result{Chunks: []retrieval.ScoredChunk{}}}
	answerer := &mockAnswerer{ans: &answer.StructuredAnswer{
		Answer:                "The documents do not contain this information.",
		Confidence:            answer.ConfidenceLow,
		MissingInfo:           []string{"Person B's marital status"},
		EnrichmentSuggestions: []string{"Check public social media profiles"},
		Sources:               []string{},
	}}
	srv := NewServer(retr, answerer, &mockRecorder{}, testKBStore(t))

	result, err := srv.handleAskKnowledgeBase(ctx, callRequest(map[string]any{"question": "Is Person B married?"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %v", result.Content)
	}

	text := resultText(t, result)
	for _, want := range []string{"Confidence: low", "Missing information:", "Person B's marital status", "Where to find it:"} {
		if !strings.Contains(text, want) {
			t.Errorf("result text missing %q:\n%s", want, text)
		}
	}
}

func TestHandleAddFact(t *testing.T) {
	ctx := context.Background()
	recorder := &mockRecorder{}
	srv := NewServer(&mockRetriever{}, &mockAnswerer{}, recorder, testKBStore(t))

	result, err := srv.handleAddFact(ctx, callRequest(map[string]any{"statement": "The Q4 revenue was $5M"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %v", result.Content)
	}
	if recorder.statement != "The Q4 revenue was $5M" {
		t.Errorf("recorded statement = %q", recorder.statement)
	}
	if !strings.Contains(resultText(t, result), kb.LedgerFilename) {
		t.Errorf("result text = %q", resultText(t, result))
	}

	result, err = srv.handleAddFact(ctx, callRequest(map[string]any{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Error("expected error for missing statement")
	}
}

func TestHandleListDocuments(t *testing.T) {
	ctx := context.Background()
	store := testKBStore(t)
	srv := NewServer(&mockRetriever{}, &mockAnswerer{}, &mockRecorder{}, store)

	result, err := srv.handleListDocuments(ctx, callRequest(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(resultText(t, result), "no documents") {
		t.Errorf("result text = %q", resultText(t, result))
	}

	if _, err := store.AddDocument(ctx, "notes.md", "/tmp/notes.md", "md", false); err != nil {
		t.Fatalf("AddDocument: %v", err)
	}

	result, err = srv.handleListDocuments(ctx, callRequest(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text := resultText(t, result)
	if !strings.Contains(text, "notes.md") || !strings.Contains(text, "1 document(s)") {
		t.Errorf("result text = %q", text)
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("empty tool result")
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("unexpected content type %T", result.Content[0])
	}
	return tc.Text
}
