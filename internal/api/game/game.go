// Package game exposes the read-only HTTP surface: health, the current
// round blob, and the RTP counters. All gameplay goes over the socket.
package game

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"plinko_backend/internal/config"
	"plinko_backend/internal/repository"
	"plinko_backend/internal/service"
	"plinko_backend/pkg/resp"
)

type HandlerDeps struct {
	Cfg       config.GameConfig
	StateRepo repository.RoundStateRepository
	Tracker   service.RTPTracker
	Logger    zerolog.Logger
}

type Handler struct {
	cfg       config.GameConfig
	stateRepo repository.RoundStateRepository
	tracker   service.RTPTracker
	logger    zerolog.Logger
}

func NewHandler(deps HandlerDeps) *Handler {
	return &Handler{
		cfg:       deps.Cfg,
		stateRepo: deps.StateRepo,
		tracker:   deps.Tracker,
		logger:    deps.Logger,
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	resp.WriteJSONResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) MarketState(w http.ResponseWriter, r *http.Request) {
	market := chi.URLParam(r, "market")
	if !lo.Contains(h.cfg.Markets(), market) {
		http.Error(w, "unknown market", http.StatusNotFound)
		return
	}

	state, err := h.stateRepo.GetRoundState(r.Context(), market)
	if err != nil {
		h.logger.Error().Err(err).Str("market", market).Msg("state read failed")
		http.Error(w, "state unavailable", http.StatusInternalServerError)
		return
	}
	if state == nil {
		http.Error(w, "no active round", http.StatusNotFound)
		return
	}

	resp.WriteJSONResponse(w, http.StatusOK, state)
}

func (h *Handler) MarketRTP(w http.ResponseWriter, r *http.Request) {
	market := chi.URLParam(r, "market")
	if !lo.Contains(h.cfg.Markets(), market) {
		http.Error(w, "unknown market", http.StatusNotFound)
		return
	}

	metrics := h.tracker.GetMetrics(r.Context(), market)
	resp.WriteJSONResponse(w, http.StatusOK, metrics)
}
