package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/server"

	"github.com/ziadkadry99/knowbase/internal/answer"
	"github.com/ziadkadry99/knowbase/internal/enrich"
	"github.com/ziadkadry99/knowbase/internal/kb"
	"github.com/ziadkadry99/knowbase/internal/llm"
	"github.com/ziadkadry99/knowbase/internal/retrieval"
)

// Version is set via ldflags at build time.
var Version = "dev"

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

// Server wraps an MCP server that exposes the knowledge base to AI
// agents over stdio.
type Server struct {
	retriever Retriever
	answerer  Answerer
	recorder  FactRecorder
	kbStore   *kb.Store
	mcp       *server.MCPServer
}

// NewServer creates an MCP server with the given dependencies.
func NewServer(retriever Retriever, answerer Answerer, recorder FactRecorder, kbStore *kb.Store) *Server {
	s := &Server{
		retriever: retriever,
		answerer:  answerer,
		recorder:  recorder,
		kbStore:   kbStore,
	}

	s.mcp = server.NewMCPServer(
		"knowbase",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

func (s *Server) registerTools() {
	s.mcp.AddTool(searchKnowledgeBaseTool, s.handleSearchKnowledgeBase)
	s.mcp.AddTool(askKnowledgeBaseTool, s.handleAskKnowledgeBase)
	s.mcp.AddTool(addFactTool, s.handleAddFact)
	s.mcp.AddTool(listDocumentsTool, s.handleListDocuments)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
