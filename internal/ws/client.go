package ws

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"plinko_backend/internal/gameerr"
	"plinko_backend/internal/model"
	"plinko_backend/internal/service"
)

const (
	commandTimeout = 10 * time.Second
	writeTimeout   = 10 * time.Second

	cmdPlaceBet  = "place_bet"
	cmdCancelBet = "cancel_bet"

	eventBetResult    = "bet_result"
	eventBetError     = "bet_error"
	eventCancelResult = "cancel_result"
	eventCancelError  = "cancel_error"
)

// command is the inbound frame shape. Type selects the action; the other
// fields are filled per action.
type command struct {
	Type          string   `json:"type"`
	Amount        float64  `json:"amount,omitempty"`
	Stocks        []string `json:"stocks,omitempty"`
	TransactionID string   `json:"transactionId,omitempty"`
}

type errorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Client is one authenticated socket, pinned to a market for its
// lifetime.
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	send    chan Message
	done    chan struct{}
	market  string
	session *model.Session
	ledger  service.WagerLedger
	logger  zerolog.Logger
}

func NewClient(hub *Hub, conn *websocket.Conn, market string, session *model.Session, ledger service.WagerLedger, logger zerolog.Logger) *Client {
	return &Client{
		hub:     hub,
		conn:    conn,
		send:    make(chan Message, 64),
		done:    make(chan struct{}),
		market:  market,
		session: session,
		ledger:  ledger,
		logger:  logger,
	}
}

// Start joins the hub and launches both pumps.
func (c *Client) Start(initial *Message) {
	c.join(initial)
	go c.writePump()
	go c.readPump()
}

// join queues the initial state frame, then enters the hub rooms.
// Broadcasts only reach the client once it is registered, so the initial
// frame is always first on the wire.
func (c *Client) join(initial *Message) {
	if initial != nil {
		c.send <- *initial
	}
	c.hub.register <- c
}

// readPump consumes player commands until the socket dies, then
// unregisters.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug().Err(err).Str("playerId", c.session.PlayerID).Msg("socket closed")
			}
			return
		}

		var cmd command
		if err := json.Unmarshal(raw, &cmd); err != nil {
			c.reply(eventBetError, errorData{Code: "BAD_REQUEST", Message: "malformed command"})
			continue
		}
		c.dispatch(cmd)
	}
}

func (c *Client) dispatch(cmd command) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	switch cmd.Type {
	case cmdPlaceBet:
		result, err := c.ledger.PlaceBet(ctx, c.session, c.market, cmd.Amount, cmd.Stocks)
		if err != nil {
			c.replyError(eventBetError, err)
			return
		}
		c.reply(eventBetResult, result)
	case cmdCancelBet:
		result, err := c.ledger.CancelBet(ctx, c.session, c.market, cmd.TransactionID)
		if err != nil {
			c.replyError(eventCancelError, err)
			return
		}
		c.reply(eventCancelResult, result)
	default:
		c.reply(eventBetError, errorData{Code: "BAD_REQUEST", Message: "unknown command type"})
	}
}

// replyError maps domain errors to their wire code; anything else reads
// as an internal error so store details never leak to the socket.
func (c *Client) replyError(event string, err error) {
	var gerr *gameerr.Error
	if errors.As(err, &gerr) {
		c.reply(event, errorData{Code: gerr.Code, Message: gerr.Message})
		return
	}
	c.logger.Error().Err(err).
		Str("market", c.market).
		Str("playerId", c.session.PlayerID).
		Msg("command failed")
	c.reply(event, errorData{Code: "INTERNAL_ERROR", Message: "something went wrong"})
}

// reply queues a frame for this socket only. The send channel is never
// closed, so this is safe even after the hub has dropped the client; a
// full buffer means the consumer is stuck and the frame is shed.
func (c *Client) reply(event string, data any) {
	select {
	case <-c.done:
	case c.send <- Message{Event: event, Data: data}:
	default:
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()
	for {
		select {
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-c.done:
			// Hub detached us; say goodbye properly.
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}
