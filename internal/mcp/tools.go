package mcp

import "github.com/mark3labs/mcp-go/mcp"

// searchKnowledgeBaseTool defines the search_knowledge_base MCP tool.
var searchKnowledgeBaseTool = mcp.NewTool("search_knowledge_base",
	mcp.WithDescription("Search the personal knowledge base semantically. Returns the most relevant passages with their source documents and scores."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Natural language search query"),
	),
)

// askKnowledgeBaseTool defines the ask_knowledge_base MCP tool.
var askKnowledgeBaseTool = mcp.NewTool("ask_knowledge_base",
	mcp.WithDescription("Ask a question and get a grounded answer with confidence, identified information gaps and source documents. The answer never goes beyond what the stored documents state."),
	mcp.WithString("question",
		mcp.Required(),
		mcp.Description("The question to answer from the knowledge base"),
	),
)

// addFactTool defines the add_fact MCP tool.
var addFactTool = mcp.NewTool("add_fact",
	mcp.WithDescription("Record a new fact in the knowledge base. The fact becomes retrievable for future questions."),
	mcp.WithString("statement",
		mcp.Required(),
		mcp.Description("The fact to record, stated as a declarative sentence"),
	),
)

// listDocumentsTool defines the list_documents MCP tool.
var listDocumentsTool = mcp.NewTool("list_documents",
	mcp.WithDescription("List all documents currently stored in the knowledge base."),
)
