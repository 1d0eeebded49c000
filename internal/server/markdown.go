package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

var markdown = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		highlighting.NewHighlighting(
			highlighting.WithStyle("github"),
		),
	),
	goldmark.WithParserOptions(
		parser.WithAutoHeadingID(),
	),
	goldmark.WithRendererOptions(
		html.WithUnsafe(),
	),
)

// handleRenderMarkdown converts a markdown answer to HTML so clients
// can display formatted responses without a renderer of their own.
func (s *Server) handleRenderMarkdown(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Markdown string `json:"markdown"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	var buf bytes.Buffer
	if err := markdown.Convert([]byte(body.Markdown), &buf); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("rendering markdown: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"html": buf.String()})
}
