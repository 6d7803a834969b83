package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/dspybridge/dspybridge/internal/config"
	"github.com/dspybridge/dspybridge/internal/models"
	"github.com/dspybridge/dspybridge/internal/retrieval"
	"github.com/dspybridge/dspybridge/internal/service"
)

// HealthHandler handles GET /health and GET /endpoints
type HealthHandler struct {
	bridge    *service.Bridge
	retriever *retrieval.Retriever
}

func NewHealthHandler(bridge *service.Bridge, retriever *retrieval.Retriever) *HealthHandler {
	return &HealthHandler{bridge: bridge, retriever: retriever}
}

// Health reports liveness plus the state of the LLM provider and the
// document source. A down document source only degrades the status; the
// service keeps answering from the last loaded corpus.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{"server": "ok"}
	status := "healthy"

	if h.bridge.Configured() {
		checks["llm"] = "ok"
	} else {
		checks["llm"] = "not configured"
	}

	if h.retriever != nil {
		checks["documents"] = h.retriever.SourceName()
		if p, ok := h.retriever.Source().(retrieval.Pinger); ok {
			// short timeout so health checks don't block
			ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
			defer cancel()
			if err := p.TestConnection(ctx); err != nil {
				checks["document_source"] = "unavailable: " + err.Error()
				status = "degraded"
			} else {
				checks["document_source"] = "ok"
			}
		}
	}

	models.WriteJSON(w, http.StatusOK, models.HealthResponse{
		Status:        status,
		Service:       config.AppName,
		Version:       config.Version,
		LLMConfigured: h.bridge.Configured(),
		ModelProvider: h.bridge.ModelProvider(),
		Checks:        checks,
		Timestamp:     time.Now().UTC(),
	})
}

var endpointCatalogue = []models.EndpointInfo{
	{Method: "GET", Path: "/health", Description: "Service health and LLM configuration"},
	{Method: "GET", Path: "/endpoints", Description: "This endpoint catalogue"},
	{Method: "GET", Path: "/tools", Description: "Registered agent tools, optionally filtered by ?category="},
	{Method: "POST", Path: "/chat", Description: "Single-turn chat"},
	{Method: "POST", Path: "/question", Description: "Question answering with optional context"},
	{Method: "POST", Path: "/reasoning", Description: "Question answering with step-by-step reasoning"},
	{Method: "POST", Path: "/agent", Description: "Tool-using agent (weather, joke, dad_joke, time, date)"},
	{Method: "POST", Path: "/rag", Description: "Retrieval-augmented generation over the document corpus"},
	{Method: "GET", Path: "/rag/status", Description: "Document corpus status"},
	{Method: "GET", Path: "/rag/documents", Description: "Loaded documents"},
	{Method: "POST", Path: "/rag/reload", Description: "Reload documents from the configured source"},
	{Method: "POST", Path: "/upload-train-data", Description: "Upload a question,answer CSV file"},
	{Method: "POST", Path: "/train", Description: "Build the few-shot QA module from uploaded data"},
	{Method: "POST", Path: "/predict", Description: "Answer with the trained QA module"},
}

// Endpoints handles GET /endpoints
func (h *HealthHandler) Endpoints(w http.ResponseWriter, r *http.Request) {
	models.WriteJSON(w, http.StatusOK, models.EndpointsResponse{
		Service:   config.AppName,
		Version:   config.Version,
		Endpoints: endpointCatalogue,
	})
}
