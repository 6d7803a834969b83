package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dspybridge/dspybridge/internal/middleware"
	"github.com/dspybridge/dspybridge/internal/models"
	"github.com/dspybridge/dspybridge/internal/security"
	"github.com/dspybridge/dspybridge/internal/service"
	"github.com/dspybridge/dspybridge/internal/tools"
	"github.com/rs/zerolog/log"
)

// AgentHandler handles POST /agent
type AgentHandler struct {
	bridge    *service.Bridge
	promptVal *security.PromptValidator // nil when prompt validation is disabled
	audit     *security.AuditLogger
	defaults  Defaults
	timeout   time.Duration
	keyHdr    string
}

func NewAgentHandler(
	bridge *service.Bridge,
	promptVal *security.PromptValidator,
	audit *security.AuditLogger,
	defaults Defaults,
	timeout time.Duration,
	apiKeyHeader string,
) *AgentHandler {
	return &AgentHandler{
		bridge:    bridge,
		promptVal: promptVal,
		audit:     audit,
		defaults:  defaults,
		timeout:   timeout,
		keyHdr:    apiKeyHeader,
	}
}

func (h *AgentHandler) Agent(w http.ResponseWriter, r *http.Request) {
	var req models.AgentRequest
	if err := models.Decode(r, &req); err != nil {
		models.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	apiKey := r.Header.Get(h.keyHdr)
	requestID := middleware.GetRequestID(r.Context())

	if h.promptVal != nil {
		if res := h.promptVal.Validate(req.Message); !res.Valid {
			h.audit.LogRejectedPrompt("/agent", req.Message, apiKey, res.Message)
			models.WriteError(w, http.StatusBadRequest, "prompt validation failed: "+res.Message)
			return
		}
	}

	selected, err := h.bridge.SelectTools(req.ToolsEnabled(), req.Tools, req.Category)
	if err != nil {
		if errors.Is(err, tools.ErrToolNotFound) || errors.Is(err, service.ErrUnknownCategory) {
			models.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Error().Err(err).Msg("tool selection failed")
		models.WriteError(w, http.StatusInternalServerError, "agent processing failed")
		return
	}

	ctx := r.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	start := time.Now()
	res, err := h.bridge.RunAgent(ctx, req.Message, selected, h.defaults.options(req.MaxTokens, req.Temperature)...)
	if h.bridge.Configured() {
		entry := security.LLMRequest{
			Endpoint:         "/agent",
			Prompt:           req.Message,
			APIKey:           apiKey,
			RequestID:        requestID,
			ValidationPassed: true,
			Success:          err == nil,
			Duration:         time.Since(start),
			Err:              err,
		}
		if res != nil {
			entry.ToolsUsed = res.ToolsUsed
		}
		h.audit.LogLLMRequest(entry)
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			log.Warn().Err(err).Dur("timeout", h.timeout).Msg("agent timed out")
			models.WriteError(w, http.StatusGatewayTimeout, "agent timed out")
			return
		}
		log.Error().Err(err).Msg("agent failed")
		models.WriteError(w, http.StatusInternalServerError, "agent processing failed")
		return
	}

	available := make([]string, 0, len(selected))
	for _, t := range selected {
		available = append(available, t.Name)
	}

	models.WriteJSON(w, http.StatusOK, models.AgentResponse{
		Response:  res.Response,
		Message:   req.Message,
		ToolsUsed: res.ToolsUsed,
		Timestamp: time.Now().UTC(),
		ModelUsed: h.bridge.ModelUsed(),
		Metadata: map[string]interface{}{
			"tools_enabled":     req.ToolsEnabled(),
			"tools_available":   available,
			"intent":            res.Intent.Intent,
			"intent_confidence": res.Intent.Confidence,
			"fallback":          res.Fallback,
			"execution_time_ms": time.Since(start).Milliseconds(),
		},
	})
}
