// Package v1 provides the JSON endpoints of the chatbot.
package v1

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/aar-healthcare/medbot/domain/chat"
	"github.com/aar-healthcare/medbot/infrastructure/api/middleware"
	"github.com/aar-healthcare/medbot/infrastructure/api/v1/dto"
	"github.com/go-chi/chi/v5"
)

// Replier produces the chat response for a message.
type Replier interface {
	Reply(ctx context.Context, message string) string
}

// ChatRouter handles chat endpoints.
type ChatRouter struct {
	replier Replier
	logger  *slog.Logger
}

// NewChatRouter creates a new ChatRouter.
func NewChatRouter(replier Replier, logger *slog.Logger) *ChatRouter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatRouter{replier: replier, logger: logger}
}

// Routes returns the chi router for chat endpoints.
func (r *ChatRouter) Routes() chi.Router {
	router := chi.NewRouter()
	router.Post("/", r.Chat)
	return router
}

// Chat handles POST /chat. It always answers 200: failures become the
// apology text rather than an HTTP error.
func (r *ChatRouter) Chat(w http.ResponseWriter, req *http.Request) {
	var body dto.ChatRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		r.logger.WarnContext(req.Context(), "invalid chat request", slog.Any("error", err))
		middleware.WriteJSON(w, http.StatusOK, dto.ChatResponse{Response: chat.ErrorApology})
		return
	}

	response := r.replier.Reply(req.Context(), body.Message)
	middleware.WriteJSON(w, http.StatusOK, dto.ChatResponse{Response: response})
}
