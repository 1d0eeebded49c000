package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ziadkadry99/knowbase/internal/chat"
	"github.com/ziadkadry99/knowbase/internal/ingest"
	"github.com/ziadkadry99/knowbase/internal/kb"
	"github.com/ziadkadry99/knowbase/internal/router"
)

// Config holds server configuration.
type Config struct {
	Port       int
	UploadsDir string // directory where uploaded files are stored
	AllowAll   bool   // allow all CORS origins (dev mode)
	MaxChats   int    // maximum number of chats, 0 for unlimited
}

// MessageRouter handles one chat message end to end.
type MessageRouter interface {
	Handle(ctx context.Context, chatID, message string, files []string) (*router.Reply, error)
}

// DocumentManager ingests and removes knowledge base documents.
type DocumentManager interface {
	IngestFiles(ctx context.Context, paths []string) []ingest.FileOutcome
	DeleteDocument(ctx context.Context, documentID int64) error
}

// Server exposes the knowledge base over HTTP: chat routing, document
// management, feedback and a markdown render endpoint.
type Server struct {
	cfg        Config
	chats      *chat.Store
	kbStore    *kb.Store
	messages   MessageRouter
	documents  DocumentManager
	mux        chi.Router
	httpServer *http.Server
}

// New creates a server with all dependencies wired.
func New(cfg Config, chats *chat.Store, kbStore *kb.Store, messages MessageRouter, documents DocumentManager) *Server {
	s := &Server{
		cfg:       cfg,
		chats:     chats,
		kbStore:   kbStore,
		messages:  messages,
		documents: documents,
	}
	s.mux = s.buildRouter()
	return s
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/chats", s.handleListChats)
		r.Post("/chats", s.handleCreateChat)
		r.Delete("/chats/{chatID}", s.handleDeleteChat)
		r.Get("/chats/{chatID}/messages", s.handleListMessages)
		r.Post("/chats/{chatID}/messages", s.handlePostMessage)
		r.Delete("/chats/{chatID}/messages", s.handleClearHistory)

		r.Get("/documents", s.handleListDocuments)
		r.Post("/documents", s.handleUploadDocuments)
		r.Delete("/documents/{documentID}", s.handleDeleteDocument)

		r.Post("/messages/{messageID}/feedback", s.handleAddFeedback)
		r.Get("/messages/{messageID}/feedback", s.handleGetFeedback)

		r.Post("/render", s.handleRenderMarkdown)
	})

	r.Get("/ws/chat", s.handleWebSocket)

	return r
}

// Router returns the chi router, mainly for tests.
func (s *Server) Router() chi.Router { return s.mux }

// Start begins listening on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("knowbase server listening on %s", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
