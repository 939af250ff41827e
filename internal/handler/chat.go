package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/storepilot/storepilot/internal/agent"
	"github.com/storepilot/storepilot/internal/middleware"
	"github.com/storepilot/storepilot/internal/models"
	"github.com/storepilot/storepilot/internal/provider"
	"github.com/storepilot/storepilot/internal/security"
)

// ChatService is the part of the agent the HTTP layer needs.
type ChatService interface {
	Chat(ctx context.Context, message string, history ...provider.Message) (*agent.Reply, error)
}

// ChatHandler handles POST /api/v1/chat
type ChatHandler struct {
	agent     ChatService
	validator *security.MessageValidator
	audit     *security.AuditLogger
}

func NewChatHandler(a ChatService, v *security.MessageValidator, audit *security.AuditLogger) *ChatHandler {
	return &ChatHandler{agent: a, validator: v, audit: audit}
}

// Chat handles POST /api/v1/chat
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		models.WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	req.SetDefaults()

	if req.Message == "" {
		models.WriteError(w, http.StatusBadRequest, "message is required")
		return
	}

	if result := h.validator.Validate(req.Message); !result.Valid {
		h.audit.LogRejectedMessage(req.Message, result.Message)
		models.WriteError(w, http.StatusBadRequest, result.Message)
		return
	}

	history, err := convertHistory(req.History)
	if err != nil {
		models.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	apiKey := r.Header.Get("X-API-Key")

	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(req.Timeout)*time.Second)
	defer cancel()

	start := time.Now()
	reply, err := h.agent.Chat(ctx, req.Message, history...)
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		h.audit.LogChatTurn(req.Message, apiKey, 0, 0, elapsed, false, err.Error())
		log.Error().Err(err).
			Str("request_id", middleware.GetRequestID(r.Context())).
			Msg("chat turn failed")

		var sessErr *agent.SessionError
		if errors.As(err, &sessErr) && errors.Is(err, agent.ErrMaxIterations) {
			models.WriteError(w, http.StatusBadGateway, "assistant did not finish within the iteration bound")
			return
		}
		if errors.Is(err, context.DeadlineExceeded) {
			models.WriteError(w, http.StatusGatewayTimeout, "chat timed out")
			return
		}
		models.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.audit.LogChatTurn(req.Message, apiKey, reply.Iterations, len(reply.InvocationsMade), elapsed, true, "")
	models.WriteJSON(w, http.StatusOK, models.ChatResponse{
		Status:          "success",
		Content:         reply.Content,
		Iterations:      reply.Iterations,
		InvocationsMade: reply.InvocationsMade,
	})
}

// convertHistory maps caller-supplied turns onto provider messages.
func convertHistory(turns []models.ChatTurn) ([]provider.Message, error) {
	if len(turns) == 0 {
		return nil, nil
	}
	out := make([]provider.Message, 0, len(turns))
	for i, turn := range turns {
		switch turn.Role {
		case "user":
			out = append(out, provider.UserMessage(turn.Content))
		case "assistant":
			out = append(out, provider.AssistantMessage(turn.Content, nil, nil))
		default:
			return nil, fmt.Errorf("history[%d]: unknown role %q, want user or assistant", i, turn.Role)
		}
	}
	return out, nil
}
