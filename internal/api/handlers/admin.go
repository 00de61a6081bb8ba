package handlers

import (
	"context"
	"net/http"

	"github.com/fyreone/firekb/internal/api"
	"github.com/fyreone/firekb/internal/service"
)

type StatsService interface {
	Snapshot(ctx context.Context) (*service.Stats, error)
}

type AdminHandler struct {
	stats StatsService
}

func NewAdminHandler(stats StatsService) *AdminHandler {
	return &AdminHandler{stats: stats}
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.Snapshot(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, stats)
}
