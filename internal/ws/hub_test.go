package ws

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plinko_backend/internal/model"
)

func joinedClient(t *testing.T, hub *Hub, market, playerID string) *Client {
	t.Helper()
	c := NewClient(hub, nil, market, &model.Session{PlayerID: playerID}, nil, zerolog.Nop())
	hub.register <- c
	return c
}

func recv(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case msg := <-c.send:
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message delivered")
		return Message{}
	}
}

func assertSilent(t *testing.T, c *Client) {
	t.Helper()
	select {
	case msg := <-c.send:
		t.Fatalf("unexpected message: %+v", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_EmitToMarketReachesOnlyThatRoom(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	go hub.Run()

	nasdaq1 := joinedClient(t, hub, "NASDAQ", "p-1")
	nasdaq2 := joinedClient(t, hub, "NASDAQ", "p-2")
	crypto := joinedClient(t, hub, "CRYPTO", "p-3")

	hub.EmitToMarket("NASDAQ", "game:state", map[string]string{"phase": "BETTING"})

	for _, c := range []*Client{nasdaq1, nasdaq2} {
		msg := recv(t, c)
		assert.Equal(t, "game:state", msg.Event)
	}
	assertSilent(t, crypto)
}

func TestHub_EmitToPlayerIsPrivate(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	go hub.Run()

	target := joinedClient(t, hub, "NASDAQ", "p-1")
	other := joinedClient(t, hub, "NASDAQ", "p-2")

	hub.EmitToPlayer("p-1", "game:payout", map[string]float64{"totalPayout": 200})

	msg := recv(t, target)
	assert.Equal(t, "game:payout", msg.Event)
	assertSilent(t, other)
}

func detached(t *testing.T, c *Client) {
	t.Helper()
	require.Eventually(t, func() bool {
		select {
		case <-c.done:
			return true
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
}

func TestHub_UnregisterStopsDelivery(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	go hub.Run()

	c := joinedClient(t, hub, "NASDAQ", "p-1")
	hub.unregister <- c

	detached(t, c)

	// Emits after removal reach nobody and do not panic.
	hub.EmitToMarket("NASDAQ", "game:state", nil)
	hub.EmitToPlayer("p-1", "game:payout", nil)
}

func TestHub_SlowConsumerDropKeepsReplySafe(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	go hub.Run()

	c := joinedClient(t, hub, "NASDAQ", "p-1")
	for i := 0; i < cap(c.send); i++ {
		c.send <- Message{Event: "game:state"}
	}

	// The full buffer makes the next broadcast drop the client.
	hub.EmitToMarket("NASDAQ", "game:state", nil)
	detached(t, c)

	// A command reply from the still-running read side must not panic.
	assert.NotPanics(t, func() {
		c.reply(eventBetResult, &model.BetResult{Status: "ACCEPTED"})
	})

	// A later unregister from the read pump is a no-op, not a re-close.
	assert.NotPanics(t, func() {
		hub.unregister <- c
		hub.EmitToMarket("NASDAQ", "game:state", nil)
	})
}

func TestClient_InitialFramePrecedesBroadcasts(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	go hub.Run()

	c := NewClient(hub, nil, "NASDAQ", &model.Session{PlayerID: "p-1"}, nil, zerolog.Nop())
	initial := Message{Event: "game:state", Data: "snapshot"}
	c.join(&initial)

	hub.EmitToMarket("NASDAQ", "game:state", "fresher")

	assert.Equal(t, initial, recv(t, c))
}
