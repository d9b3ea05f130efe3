// Package ws is the realtime surface: one socket per player per market,
// grouped into a market room for round broadcasts and a player room for
// private payout and balance events.
package ws

import (
	"sync"

	"github.com/rs/zerolog"
)

// Message is the wire envelope for every outbound frame.
type Message struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type envelope struct {
	market   string
	playerID string
	msg      Message
}

// Hub owns the client registry. It satisfies service.Broadcaster, so the
// scheduler and payout pipeline emit through it without knowing about
// sockets.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	broadcast  chan envelope

	mu       sync.Mutex
	byMarket map[string]map[*Client]bool
	byPlayer map[string]map[*Client]bool

	logger zerolog.Logger
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan envelope, 256),
		byMarket:   make(map[string]map[*Client]bool),
		byPlayer:   make(map[string]map[*Client]bool),
		logger:     logger,
	}
}

// Run is the hub's main loop. Start it once, before the HTTP server.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.add(client)
		case client := <-h.unregister:
			h.remove(client)
		case env := <-h.broadcast:
			h.deliver(env)
		}
	}
}

// EmitToMarket fans an event out to every socket joined to the market.
func (h *Hub) EmitToMarket(market, event string, payload any) {
	h.broadcast <- envelope{market: market, msg: Message{Event: event, Data: payload}}
}

// EmitToPlayer sends an event to every socket the player has open.
func (h *Hub) EmitToPlayer(playerID, event string, payload any) {
	h.broadcast <- envelope{playerID: playerID, msg: Message{Event: event, Data: payload}}
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.byMarket[c.market] == nil {
		h.byMarket[c.market] = make(map[*Client]bool)
	}
	h.byMarket[c.market][c] = true
	if h.byPlayer[c.session.PlayerID] == nil {
		h.byPlayer[c.session.PlayerID] = make(map[*Client]bool)
	}
	h.byPlayer[c.session.PlayerID][c] = true

	h.logger.Debug().
		Str("market", c.market).
		Str("playerId", c.session.PlayerID).
		Msg("client joined")
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.detachLocked(c) {
		return
	}

	h.logger.Debug().
		Str("market", c.market).
		Str("playerId", c.session.PlayerID).
		Msg("client left")
}

// detachLocked takes the client out of both rooms and closes its done
// channel. Returns false when the client was already detached, so a drop
// followed by an unregister closes done exactly once. The send channel is
// never closed; the client side keeps writing into its buffer safely.
func (h *Hub) detachLocked(c *Client) bool {
	room, ok := h.byMarket[c.market]
	if !ok || !room[c] {
		return false
	}
	delete(room, c)
	if len(room) == 0 {
		delete(h.byMarket, c.market)
	}
	if room, ok := h.byPlayer[c.session.PlayerID]; ok {
		delete(room, c)
		if len(room) == 0 {
			delete(h.byPlayer, c.session.PlayerID)
		}
	}
	close(c.done)
	return true
}

func (h *Hub) deliver(env envelope) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var room map[*Client]bool
	if env.market != "" {
		room = h.byMarket[env.market]
	} else {
		room = h.byPlayer[env.playerID]
	}

	for client := range room {
		select {
		case client.send <- env.msg:
		default:
			// Slow consumer; drop the socket rather than the round loop.
			h.dropLocked(client)
		}
	}
}

func (h *Hub) dropLocked(c *Client) {
	if h.detachLocked(c) {
		h.logger.Warn().
			Str("market", c.market).
			Str("playerId", c.session.PlayerID).
			Msg("slow consumer dropped")
	}
}
