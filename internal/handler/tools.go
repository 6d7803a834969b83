package handler

import (
	"net/http"
	"slices"

	"github.com/dspybridge/dspybridge/internal/models"
	"github.com/dspybridge/dspybridge/internal/tools"
)

// ToolsHandler handles GET /tools
type ToolsHandler struct {
	registry *tools.Registry
}

func NewToolsHandler(registry *tools.Registry) *ToolsHandler {
	return &ToolsHandler{registry: registry}
}

// List returns every registered tool, or those tagged ?category=.
func (h *ToolsHandler) List(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")

	infos := make([]models.ToolInfo, 0)
	for _, info := range h.registry.Info() {
		if category != "" && !slices.Contains(info.Categories, category) {
			continue
		}
		infos = append(infos, models.ToolInfo{
			Name:        info.Name,
			Description: info.Description,
			Categories:  info.Categories,
		})
	}

	models.WriteJSON(w, http.StatusOK, models.ToolsResponse{
		Tools:      infos,
		Categories: h.registry.Categories(),
		Count:      len(infos),
	})
}
