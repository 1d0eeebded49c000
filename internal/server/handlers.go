package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/knowbase/internal/chat"
	"github.com/ziadkadry99/knowbase/internal/kb"
	"github.com/ziadkadry99/knowbase/internal/router"
)

const maxUploadMemory = 32 << 20

func (s *Server) handleListChats(w http.ResponseWriter, r *http.Request) {
	chats, err := s.chats.ListChats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if chats == nil {
		chats = []chat.Chat{}
	}
	writeJSON(w, http.StatusOK, chats)
}

func (s *Server) handleCreateChat(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
			return
		}
	}

	if s.cfg.MaxChats > 0 {
		count, err := s.chats.Count(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		if count >= s.cfg.MaxChats {
			writeError(w, http.StatusConflict, fmt.Errorf("chat limit of %d reached, delete a chat first", s.cfg.MaxChats))
			return
		}
	}

	c, err := s.chats.CreateChat(r.Context(), body.Name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleDeleteChat(w http.ResponseWriter, r *http.Request) {
	err := s.chats.DeleteChat(r.Context(), chi.URLParam(r, "chatID"))
	if errors.Is(err, chat.ErrNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := s.chats.Messages(r.Context(), chi.URLParam(r, "chatID"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if msgs == nil {
		msgs = []chat.Message{}
	}
	writeJSON(w, http.StatusOK, msgs)
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	if err := s.chats.ClearHistory(r.Context(), chi.URLParam(r, "chatID")); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// messageResponse is the reply to a posted chat message.
type messageResponse struct {
	Intent        string          `json:"intent"`
	Content       string          `json:"content"`
	Metadata      json.RawMessage `json:"metadata,omitempty"`
	IngestedFiles []string        `json:"ingested_files,omitempty"`
	MessageID     int64           `json:"message_id"`
}

// handlePostMessage accepts a plain JSON body with a message, or a
// multipart form with a message field plus attached files.
func (s *Server) handlePostMessage(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")

	var message string
	var files []string

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid multipart form: %w", err))
			return
		}
		message = r.FormValue("message")
		for _, fh := range r.MultipartForm.File["files"] {
			path, err := s.saveUpload(fh)
			if err != nil {
				writeError(w, http.StatusInternalServerError, err)
				return
			}
			files = append(files, path)
		}
	} else {
		var body struct {
			Message string `json:"message"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
			return
		}
		message = body.Message
	}

	reply, err := s.messages.Handle(r.Context(), chatID, message, files)
	if errors.Is(err, router.ErrEmptyMessage) || errors.Is(err, router.ErrTooManyAttachments) {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{
		Intent:        string(reply.Intent),
		Content:       reply.Content,
		Metadata:      reply.Metadata,
		IngestedFiles: reply.IngestedFiles,
		MessageID:     reply.AssistantMessageID,
	})
}

// documentResponse is the JSON shape of a knowledge base document.
type documentResponse struct {
	ID              int64     `json:"id"`
	Filename        string    `json:"filename"`
	FileType        string    `json:"file_type"`
	UploadTimestamp time.Time `json:"upload_timestamp"`
	IsManualInput   bool      `json:"is_manual_input"`
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.kbStore.ListDocuments(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	out := make([]documentResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, documentResponse{
			ID:              d.ID,
			Filename:        d.Filename,
			FileType:        d.FileType,
			UploadTimestamp: d.UploadTimestamp,
			IsManualInput:   d.IsManualInput,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// uploadResult reports the outcome of one uploaded file.
type uploadResult struct {
	Filename   string `json:"filename"`
	ChunkCount int    `json:"chunk_count,omitempty"`
	Error      string `json:"error,omitempty"`
}

func (s *Server) handleUploadDocuments(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid multipart form: %w", err))
		return
	}
	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		writeError(w, http.StatusBadRequest, errors.New("no files provided"))
		return
	}

	paths := make([]string, 0, len(headers))
	for _, fh := range headers {
		path, err := s.saveUpload(fh)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		paths = append(paths, path)
	}

	outcomes := s.documents.IngestFiles(r.Context(), paths)
	results := make([]uploadResult, 0, len(outcomes))
	for _, o := range outcomes {
		res := uploadResult{Filename: filepath.Base(o.Path), ChunkCount: o.ChunkCount}
		if o.Err != nil {
			res.Error = o.Err.Error()
		}
		results = append(results, res)
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "documentID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid document id"))
		return
	}

	err = s.documents.DeleteDocument(r.Context(), id)
	if errors.Is(err, kb.ErrNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddFeedback(w http.ResponseWriter, r *http.Request) {
	messageID, err := strconv.ParseInt(chi.URLParam(r, "messageID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid message id"))
		return
	}

	var body struct {
		Rating  int    `json:"rating"`
		Comment string `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if body.Rating != 1 && body.Rating != -1 {
		writeError(w, http.StatusBadRequest, errors.New("rating must be 1 or -1"))
		return
	}

	id, err := s.chats.AddFeedback(r.Context(), messageID, body.Rating, body.Comment)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleGetFeedback(w http.ResponseWriter, r *http.Request) {
	messageID, err := strconv.ParseInt(chi.URLParam(r, "messageID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid message id"))
		return
	}

	fb, err := s.chats.MessageFeedback(r.Context(), messageID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if fb == nil {
		writeError(w, http.StatusNotFound, errors.New("no feedback for message"))
		return
	}
	writeJSON(w, http.StatusOK, fb)
}

// saveUpload writes one uploaded file into the uploads directory,
// keeping only the base name so a crafted filename cannot escape it.
func (s *Server) saveUpload(fh *multipart.FileHeader) (string, error) {
	if err := os.MkdirAll(s.cfg.UploadsDir, 0o755); err != nil {
		return "", fmt.Errorf("creating uploads directory: %w", err)
	}

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("opening upload %s: %w", fh.Filename, err)
	}
	defer src.Close()

	path := filepath.Join(s.cfg.UploadsDir, filepath.Base(fh.Filename))
	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("saving upload %s: %w", fh.Filename, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("writing upload %s: %w", fh.Filename, err)
	}
	return path, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
