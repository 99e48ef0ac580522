package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ariefcatur/findme-orders/internal/alert"
	"github.com/ariefcatur/findme-orders/internal/logger"
	"github.com/ariefcatur/findme-orders/internal/watcher"
)

// BannerBoard is the part of the in-app board the UI talks to.
type BannerBoard interface {
	Active() []alert.Banner
	Dismiss(ctx context.Context, id string) bool
}

type Scanner interface {
	Scan(ctx context.Context) (watcher.Report, error)
}

type AlertsHandler struct {
	Board   BannerBoard
	Watcher Scanner
	Log     logger.Logger
}

func (h *AlertsHandler) Register(r chi.Router) {
	r.Get("/alerts", h.listAlerts)
	r.Delete("/alerts/{id}", h.dismissAlert)
	r.Post("/watcher/scan", h.scan)
}

func (h *AlertsHandler) listAlerts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"alerts": h.Board.Active()})
}

func (h *AlertsHandler) dismissAlert(w http.ResponseWriter, r *http.Request) {
	if !h.Board.Dismiss(r.Context(), chi.URLParam(r, "id")) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AlertsHandler) scan(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	rep, err := h.Watcher.Scan(ctx)
	if err != nil {
		h.Log.Errorf(ctx, "[HTTP] manual scan: %v", err)
		writeError(w, http.StatusBadGateway, "scan failed")
		return
	}
	writeJSON(w, http.StatusOK, rep)
}
