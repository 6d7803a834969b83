package handler

import (
	"net/http"
	"time"

	"github.com/dspybridge/dspybridge/internal/models"
	"github.com/dspybridge/dspybridge/internal/service"
	"github.com/rs/zerolog/log"
)

// QuestionHandler handles POST /question and POST /reasoning
type QuestionHandler struct {
	bridge *service.Bridge
}

func NewQuestionHandler(bridge *service.Bridge) *QuestionHandler {
	return &QuestionHandler{bridge: bridge}
}

func (h *QuestionHandler) Question(w http.ResponseWriter, r *http.Request) {
	var req models.QuestionRequest
	if err := models.Decode(r, &req); err != nil {
		models.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	answer, err := h.bridge.Answer(r.Context(), req.Question, req.ContextOrEmpty())
	if err != nil {
		log.Error().Err(err).Msg("question failed")
		models.WriteError(w, http.StatusInternalServerError, "question processing failed")
		return
	}

	models.WriteJSON(w, http.StatusOK, models.QuestionResponse{
		Question:  req.Question,
		Answer:    answer,
		Timestamp: time.Now().UTC(),
	})
}

func (h *QuestionHandler) Reasoning(w http.ResponseWriter, r *http.Request) {
	var req models.QuestionRequest
	if err := models.Decode(r, &req); err != nil {
		models.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	reasoning, answer, err := h.bridge.Reason(r.Context(), req.Question, req.ContextOrEmpty())
	if err != nil {
		log.Error().Err(err).Msg("reasoning failed")
		models.WriteError(w, http.StatusInternalServerError, "reasoning processing failed")
		return
	}

	models.WriteJSON(w, http.StatusOK, models.QuestionResponse{
		Question:  req.Question,
		Answer:    answer,
		Reasoning: &reasoning,
		Timestamp: time.Now().UTC(),
	})
}
