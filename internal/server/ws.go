package server

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsRequest is the incoming WebSocket message format.
type wsRequest struct {
	ChatID  string `json:"chat_id"` // empty for a new chat
	Content string `json:"content"`
}

// wsResponse is the outgoing WebSocket message format.
type wsResponse struct {
	Type     string          `json:"type"` // "response" or "error"
	ChatID   string          `json:"chat_id"`
	Intent   string          `json:"intent,omitempty"`
	Content  string          `json:"content"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("server: websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("server: websocket read: %v", err)
			}
			return
		}

		var req wsRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			s.sendWSError(conn, "", "invalid message format")
			continue
		}
		if req.Content == "" {
			s.sendWSError(conn, req.ChatID, "content is required")
			continue
		}

		chatID := req.ChatID
		if chatID == "" {
			c, err := s.chats.CreateChat(r.Context(), "")
			if err != nil {
				s.sendWSError(conn, "", "failed to create chat: "+err.Error())
				continue
			}
			chatID = c.ID
		}

		reply, err := s.messages.Handle(r.Context(), chatID, req.Content, nil)
		if err != nil {
			s.sendWSError(conn, chatID, "processing failed: "+err.Error())
			continue
		}

		s.sendWS(conn, wsResponse{
			Type:     "response",
			ChatID:   chatID,
			Intent:   string(reply.Intent),
			Content:  reply.Content,
			Metadata: reply.Metadata,
		})
	}
}

func (s *Server) sendWS(conn *websocket.Conn, resp wsResponse) {
	if err := conn.WriteJSON(resp); err != nil {
		log.Printf("server: websocket write: %v", err)
	}
}

func (s *Server) sendWSError(conn *websocket.Conn, chatID, message string) {
	s.sendWS(conn, wsResponse{Type: "error", ChatID: chatID, Content: message})
}
