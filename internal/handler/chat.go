package handler

import (
	"net/http"
	"time"

	"github.com/dspybridge/dspybridge/internal/middleware"
	"github.com/dspybridge/dspybridge/internal/models"
	"github.com/dspybridge/dspybridge/internal/modules"
	"github.com/dspybridge/dspybridge/internal/security"
	"github.com/dspybridge/dspybridge/internal/service"
	"github.com/rs/zerolog/log"
)

// Defaults are the generation settings applied when a request leaves them out.
type Defaults struct {
	MaxTokens   int
	Temperature float64
}

func (d Defaults) options(maxTokens int, temperature *float64) []modules.CallOption {
	var opts []modules.CallOption
	if maxTokens > 0 {
		opts = append(opts, modules.WithMaxTokens(maxTokens))
	} else if d.MaxTokens > 0 {
		opts = append(opts, modules.WithMaxTokens(d.MaxTokens))
	}
	if temperature != nil {
		opts = append(opts, modules.WithTemperature(*temperature))
	} else {
		opts = append(opts, modules.WithTemperature(d.Temperature))
	}
	return opts
}

// ChatHandler handles POST /chat
type ChatHandler struct {
	bridge   *service.Bridge
	audit    *security.AuditLogger
	defaults Defaults
	keyHdr   string
}

func NewChatHandler(bridge *service.Bridge, audit *security.AuditLogger, defaults Defaults, apiKeyHeader string) *ChatHandler {
	return &ChatHandler{bridge: bridge, audit: audit, defaults: defaults, keyHdr: apiKeyHeader}
}

func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := models.Decode(r, &req); err != nil {
		models.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	opts := h.defaults.options(req.MaxTokens, req.Temperature)
	if req.SystemPrompt != nil && *req.SystemPrompt != "" {
		opts = append(opts, modules.WithInstructions(*req.SystemPrompt))
	}

	start := time.Now()
	reply, err := h.bridge.Chat(r.Context(), req.Message, opts...)
	if h.bridge.Configured() {
		h.audit.LogLLMRequest(security.LLMRequest{
			Endpoint:         "/chat",
			Prompt:           req.Message,
			APIKey:           r.Header.Get(h.keyHdr),
			RequestID:        middleware.GetRequestID(r.Context()),
			ValidationPassed: true,
			Success:          err == nil,
			Duration:         time.Since(start),
			Err:              err,
		})
	}
	if err != nil {
		log.Error().Err(err).Msg("chat failed")
		models.WriteError(w, http.StatusInternalServerError, "chat processing failed")
		return
	}

	models.WriteJSON(w, http.StatusOK, models.ChatResponse{
		Response:  reply,
		Message:   req.Message,
		Timestamp: time.Now().UTC(),
		ModelUsed: h.bridge.ModelUsed(),
	})
}
