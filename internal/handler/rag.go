package handler

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dspybridge/dspybridge/internal/models"
	"github.com/dspybridge/dspybridge/internal/retrieval"
	"github.com/dspybridge/dspybridge/internal/service"
	"github.com/rs/zerolog/log"
)

const noDocumentsAnswer = "No relevant documents found for your query."

// RAGHandler handles the /rag routes
type RAGHandler struct {
	bridge      *service.Bridge
	retriever   *retrieval.Retriever
	defaultTopK int
}

func NewRAGHandler(bridge *service.Bridge, retriever *retrieval.Retriever, defaultTopK int) *RAGHandler {
	return &RAGHandler{bridge: bridge, retriever: retriever, defaultTopK: defaultTopK}
}

// RAG handles POST /rag. Inline documents, when given, are ranked instead
// of the loaded corpus.
func (h *RAGHandler) RAG(w http.ResponseWriter, r *http.Request) {
	var req models.RAGRequest
	if err := models.Decode(r, &req); err != nil {
		models.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.SetDefaults(h.defaultTopK)

	var matches []retrieval.Match
	if len(req.Documents) > 0 {
		docs := make([]retrieval.Document, 0, len(req.Documents))
		for i, content := range req.Documents {
			docs = append(docs, retrieval.Document{Name: fmt.Sprintf("doc_%d", i+1), Content: content})
		}
		matches = retrieval.Rank(docs, req.Query, req.TopK)
	} else {
		matches = h.retriever.Retrieve(req.Query, req.TopK)
	}

	resp := models.RAGResponse{
		Query:         req.Query,
		RetrievedDocs: make([]string, 0, len(matches)),
		Scores:        make([]float64, 0, len(matches)),
	}
	if len(matches) == 0 {
		resp.Answer = noDocumentsAnswer
		resp.Timestamp = time.Now().UTC()
		models.WriteJSON(w, http.StatusOK, resp)
		return
	}

	for _, m := range matches {
		resp.RetrievedDocs = append(resp.RetrievedDocs, m.Document.Text())
		resp.Scores = append(resp.Scores, m.Score)
	}
	resp.ContextUsed = strings.Join(resp.RetrievedDocs, "\n\n")

	answer, err := h.bridge.Generate(r.Context(), req.Query, resp.ContextUsed)
	if err != nil {
		log.Error().Err(err).Msg("rag failed")
		models.WriteError(w, http.StatusInternalServerError, "rag processing failed")
		return
	}
	resp.Answer = answer
	resp.Timestamp = time.Now().UTC()
	models.WriteJSON(w, http.StatusOK, resp)
}

// Status handles GET /rag/status
func (h *RAGHandler) Status(w http.ResponseWriter, r *http.Request) {
	resp := models.RAGStatusResponse{
		Configured:     h.bridge.Configured(),
		RAGModuleReady: h.bridge.Configured(),
		DocumentCount:  h.retriever.Count(),
		Source:         h.retriever.SourceName(),
		UsingSamples:   h.retriever.UsingSamples(),
		Timestamp:      time.Now().UTC(),
	}
	if at := h.retriever.LoadedAt(); !at.IsZero() {
		at = at.UTC()
		resp.LoadedAt = &at
	}
	models.WriteJSON(w, http.StatusOK, resp)
}

// Documents handles GET /rag/documents
func (h *RAGHandler) Documents(w http.ResponseWriter, r *http.Request) {
	docs := h.retriever.Documents()
	out := make([]models.DocumentInfo, 0, len(docs))
	for _, d := range docs {
		out = append(out, models.DocumentInfo{Name: d.Name, Content: d.Content})
	}
	models.WriteJSON(w, http.StatusOK, models.DocumentsResponse{Documents: out, Count: len(out)})
}

// Reload handles POST /rag/reload
func (h *RAGHandler) Reload(w http.ResponseWriter, r *http.Request) {
	n, err := h.retriever.Reload(r.Context())
	if err != nil {
		log.Error().Err(err).Str("source", h.retriever.SourceName()).Msg("document reload failed")
		models.WriteError(w, http.StatusInternalServerError, "document reload failed")
		return
	}
	models.WriteJSON(w, http.StatusOK, models.ReloadResponse{
		Message:   fmt.Sprintf("Reloaded %d documents from %s", n, h.retriever.SourceName()),
		Count:     n,
		Timestamp: time.Now().UTC(),
	})
}
