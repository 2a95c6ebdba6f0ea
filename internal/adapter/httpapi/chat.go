package httpapi

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"

	"webchat-bridge/internal/application/service"
	"webchat-bridge/internal/domain/entity"
)

// Messages of the /ws/chat protocol. The client sends "chat" and "reset";
// the server answers with "token" then "final", or with "alert"/"error".
const (
	msgChat  = "chat"
	msgReset = "reset"
	msgToken = "token"
	msgFinal = "final"
	msgAlert = "alert"
	msgError = "error"
)

type ChatMessage struct {
	Type    string `json:"type"`
	Prompt  string `json:"prompt,omitempty"`
	Content string `json:"content,omitempty"`
	Text    string `json:"text,omitempty"`
	Message string `json:"message,omitempty"`
}

// chatBacklog bounds the messages a client may queue while a turn runs.
const chatBacklog = 8

// handleChat runs one conversation per connection. The history lives and
// dies with the connection and is sent along with every prompt.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("WebSocket upgrade failed", "error", err.Error())
		return
	}
	defer conn.Close()

	// net/http does not cancel the request context of a hijacked
	// connection; the reader cancels it when the peer goes away.
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	incoming := s.readChat(ctx, cancel, conn)

	history := service.NewHistory(s.opts.HistoryCapacity)
	for in := range incoming {
		var out []ChatMessage
		switch in.Type {
		case msgChat:
			out = s.chatTurn(ctx, history, in.Prompt)
		case msgReset:
			history.Clear()
			out = []ChatMessage{{Type: msgAlert, Message: "history cleared"}}
		default:
			out = []ChatMessage{{Type: msgAlert, Message: "unknown message"}}
		}

		if ctx.Err() != nil {
			return
		}
		for _, msg := range out {
			if err := conn.WriteJSON(msg); err != nil {
				s.logger.Warn("WebSocket write failed", "error", err.Error())
				return
			}
		}
	}
}

// readChat pumps client messages into the returned channel until the
// connection fails, then cancels the turn in flight.
func (s *Server) readChat(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn) <-chan ChatMessage {
	incoming := make(chan ChatMessage, chatBacklog)
	go func() {
		defer close(incoming)
		defer cancel()
		for {
			var in ChatMessage
			if err := conn.ReadJSON(&in); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					s.logger.Warn("WebSocket read failed", "error", err.Error())
				}
				return
			}
			select {
			case incoming <- in:
			case <-ctx.Done():
				return
			}
		}
	}()
	return incoming
}

func (s *Server) chatTurn(ctx context.Context, history *service.History, prompt string) []ChatMessage {
	if prompt == "" {
		return []ChatMessage{{Type: msgAlert, Message: "empty prompt"}}
	}

	answer, err := s.bridge.Invoke(ctx, entity.ToolContinueConversation, entity.Params{
		"message": prompt,
		"history": history.Snapshot(),
	})
	if err != nil {
		return []ChatMessage{{Type: msgError, Message: err.Error()}}
	}

	history.Append(entity.RoleUser, prompt)
	history.Append(entity.RoleAssistant, answer)
	return []ChatMessage{
		{Type: msgToken, Content: answer},
		{Type: msgFinal, Text: "[done]"},
	}
}
