package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ariefcatur/findme-orders/internal/clock"
	"github.com/ariefcatur/findme-orders/internal/countdown"
	"github.com/ariefcatur/findme-orders/internal/logger"
	"github.com/ariefcatur/findme-orders/internal/orders"
)

type OrdersHandler struct {
	Repo  orders.Reader
	Clock clock.Clock
	Tick  time.Duration
	Log   logger.Logger
}

type countdownResp struct {
	Kind             string `json:"kind"`
	Text             string `json:"text,omitempty"`
	IsExpiring       bool   `json:"is_expiring"`
	RemainingSeconds int64  `json:"remaining_seconds,omitempty"`
}

type orderResp struct {
	orders.Order
	Countdown   countdownResp  `json:"countdown"`
	PayDeadline *countdownResp `json:"pay_deadline,omitempty"`
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Get("/orders", h.listOrders)
	r.Get("/orders/{id}", h.getOrder)
	r.Get("/orders/{id}/countdown", h.getCountdown)
	r.Get("/orders/{id}/countdown/stream", h.streamCountdown)
}

func toCountdown(v countdown.View) countdownResp {
	c := countdownResp{Kind: v.Kind.String(), Text: v.Text(), IsExpiring: v.IsExpiring}
	if v.Kind == countdown.Urgent || v.Kind == countdown.Normal {
		c.RemainingSeconds = int64(v.Remaining / time.Second)
	}
	return c
}

func (h *OrdersHandler) present(o orders.Order, now time.Time) orderResp {
	resp := orderResp{Order: o, Countdown: toCountdown(countdown.Compute(o, now))}
	if o.Status == orders.StatusPending {
		// pending orders show expireTime as the payment deadline
		if exp, err := o.ExpiresAt(); err == nil {
			pd := toCountdown(countdown.Remaining(exp, now))
			resp.PayDeadline = &pd
		}
	}
	if !o.HasCredentials() {
		resp.VerifyCode, resp.QRCodeURL = "", ""
	}
	return resp
}

func (h *OrdersHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	var f orders.Filter
	if s := r.URL.Query().Get("status"); s != "" {
		st, err := orders.ParseStatus(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		f.Status = st
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	list, err := h.Repo.ListOrders(ctx, f)
	if err != nil {
		h.Log.Errorf(ctx, "[HTTP] list orders: %v", err)
		writeError(w, http.StatusInternalServerError, "list failed")
		return
	}
	now := h.Clock.Now()
	out := make([]orderResp, 0, len(list))
	for _, o := range list {
		out = append(out, h.present(o, now))
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": out})
}

func (h *OrdersHandler) lookup(w http.ResponseWriter, r *http.Request) (orders.Order, bool) {
	orderID := chi.URLParam(r, "id")
	if orderID == "" {
		writeError(w, http.StatusBadRequest, "missing id")
		return orders.Order{}, false
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.Repo.GetOrder(ctx, orderID)
	if errors.Is(err, orders.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not found")
		return orders.Order{}, false
	}
	if err != nil {
		h.Log.Errorf(logger.WithOrderID(ctx, orderID), "[HTTP] get order: %v", err)
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return orders.Order{}, false
	}
	return o, true
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	o, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.present(o, h.Clock.Now()))
}

func (h *OrdersHandler) getCountdown(w http.ResponseWriter, r *http.Request) {
	o, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toCountdown(countdown.Compute(o, h.Clock.Now())))
}

// streamCountdown pushes the view as server-sent events until the client
// leaves or the countdown can no longer change.
func (h *OrdersHandler) streamCountdown(w http.ResponseWriter, r *http.Request) {
	o, ok := h.lookup(w, r)
	if !ok {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	countdown.Watch(r.Context(), h.Clock, o, h.Tick, func(v countdown.View) {
		b, _ := json.Marshal(toCountdown(v))
		_, _ = fmt.Fprintf(w, "event: countdown\ndata: %s\n\n", b)
		flusher.Flush()
	})
}
