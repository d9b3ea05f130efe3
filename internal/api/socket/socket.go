// Package socket upgrades authenticated players onto the realtime hub.
package socket

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"plinko_backend/internal/config"
	"plinko_backend/internal/gameerr"
	"plinko_backend/internal/repository"
	"plinko_backend/internal/service"
	"plinko_backend/internal/ws"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The platform fronts this service; origin filtering happens there.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type HandlerDeps struct {
	Cfg       config.GameConfig
	Hub       *ws.Hub
	Sessions  repository.SessionRepository
	StateRepo repository.RoundStateRepository
	Ledger    service.WagerLedger
	Logger    zerolog.Logger
}

type Handler struct {
	cfg       config.GameConfig
	hub       *ws.Hub
	sessions  repository.SessionRepository
	stateRepo repository.RoundStateRepository
	ledger    service.WagerLedger
	logger    zerolog.Logger
}

func NewHandler(deps HandlerDeps) *Handler {
	return &Handler{
		cfg:       deps.Cfg,
		hub:       deps.Hub,
		sessions:  deps.Sessions,
		stateRepo: deps.StateRepo,
		ledger:    deps.Ledger,
		logger:    deps.Logger,
	}
}

// Connect validates token and market before the upgrade, then hands the
// socket to the hub. The current round state is queued first so the
// client renders immediately instead of waiting out the phase.
func (h *Handler) Connect(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, gameerr.ErrAuthRequired.Message, http.StatusUnauthorized)
		return
	}

	market := r.URL.Query().Get("market")
	if !lo.Contains(h.cfg.Markets(), market) {
		http.Error(w, gameerr.ErrMarketClosed.Message, http.StatusNotFound)
		return
	}

	session, err := h.sessions.GetSession(r.Context(), token)
	if err != nil {
		h.logger.Error().Err(err).Msg("session lookup failed")
		http.Error(w, "session lookup failed", http.StatusInternalServerError)
		return
	}
	if session == nil {
		http.Error(w, gameerr.ErrInvalidSession.Message, http.StatusUnauthorized)
		return
	}

	var initial *ws.Message
	if state, err := h.stateRepo.GetRoundState(r.Context(), market); err == nil && state != nil {
		initial = &ws.Message{Event: service.EventGameState, Data: state}
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := ws.NewClient(h.hub, conn, market, session, h.ledger, h.logger)
	client.Start(initial)

	h.logger.Info().
		Str("market", market).
		Str("playerId", session.PlayerID).
		Msg("player connected")
}
