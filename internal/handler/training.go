package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/dspybridge/dspybridge/internal/llm"
	"github.com/dspybridge/dspybridge/internal/models"
	"github.com/dspybridge/dspybridge/internal/service"
	"github.com/dspybridge/dspybridge/internal/training"
	"github.com/rs/zerolog/log"
)

// maxMultipartMemory is the in-memory part of a multipart upload; the rest spills to disk.
const maxMultipartMemory = 1 << 20

// TrainingHandler handles the few-shot training routes
type TrainingHandler struct {
	store   *training.Store
	trainer *service.Trainer
}

func NewTrainingHandler(store *training.Store, trainer *service.Trainer) *TrainingHandler {
	return &TrainingHandler{store: store, trainer: trainer}
}

// Upload handles POST /upload-train-data (multipart field "file").
func (h *TrainingHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		models.WriteError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		models.WriteError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	name, err := h.store.Save(header.Filename, file)
	switch {
	case errors.Is(err, training.ErrInvalidFilename):
		models.WriteError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, training.ErrFileTooLarge):
		models.WriteError(w, http.StatusRequestEntityTooLarge, err.Error())
		return
	case err != nil:
		log.Error().Err(err).Msg("saving training data failed")
		models.WriteError(w, http.StatusInternalServerError, "failed to store training data")
		return
	}

	log.Info().Str("file", name).Msg("training data uploaded")
	models.WriteJSON(w, http.StatusOK, models.UploadResponse{
		Filename: name,
		Message:  "File uploaded successfully",
	})
}

// Train handles POST /train
func (h *TrainingHandler) Train(w http.ResponseWriter, r *http.Request) {
	res, err := h.trainer.Train(r.Context())
	switch {
	case errors.Is(err, service.ErrNoTrainingData):
		models.WriteError(w, http.StatusNotFound, "no training data found, upload a CSV file first")
		return
	case errors.Is(err, llm.ErrNotConfigured):
		models.WriteError(w, http.StatusServiceUnavailable, "LLM provider not configured")
		return
	case err != nil:
		log.Error().Err(err).Msg("training failed")
		models.WriteError(w, http.StatusInternalServerError, "training failed")
		return
	}

	models.WriteJSON(w, http.StatusOK, models.TrainingResponse{
		FilesProcessed: res.Files,
		ExamplesCount:  res.Examples,
		Status:         "Model trained successfully",
		Timestamp:      time.Now().UTC(),
	})
}

// Predict handles POST /predict
func (h *TrainingHandler) Predict(w http.ResponseWriter, r *http.Request) {
	var req models.PredictionRequest
	if err := models.Decode(r, &req); err != nil {
		models.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	answer, err := h.trainer.Predict(r.Context(), req.Question)
	switch {
	case errors.Is(err, service.ErrNotTrained):
		models.WriteError(w, http.StatusBadRequest, "model not trained, call /train first")
		return
	case err != nil:
		log.Error().Err(err).Msg("prediction failed")
		models.WriteError(w, http.StatusInternalServerError, "prediction failed")
		return
	}

	models.WriteJSON(w, http.StatusOK, models.PredictionResponse{
		Question:  req.Question,
		Answer:    answer,
		Timestamp: time.Now().UTC(),
	})
}
