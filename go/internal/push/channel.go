package push

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// ChannelConfig holds the live-subscription configuration.
type ChannelConfig struct {
	// URL is the websocket endpoint of the platform, e.g. wss://host/ws.
	URL string
	// EscapeRoomID identifies the room to subscribe to.
	EscapeRoomID string

	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	ReadTimeout      time.Duration
	PingInterval     time.Duration
	MaxMessageSize   int64
}

// DefaultChannelConfig returns default websocket configuration.
func DefaultChannelConfig() ChannelConfig {
	return ChannelConfig{
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     10 * time.Second,
		ReadTimeout:      60 * time.Second,
		PingInterval:     30 * time.Second,
		MaxMessageSize:   64 * 1024,
	}
}

// Channel maintains the live subscription to room events. Inbound events are
// delivered to the dispatcher strictly in arrival order; the channel never
// reorders or batches.
type Channel struct {
	cfg        ChannelConfig
	dispatcher *Dispatcher
	conn       *websocket.Conn
}

// Connect dials the platform and subscribes to the room's events using the
// given credentials. Passwords never appear in the query; only email and
// token do.
func Connect(ctx context.Context, cfg ChannelConfig, email, token string, dispatcher *Dispatcher) (*Channel, error) {
	if cfg.HandshakeTimeout == 0 {
		def := DefaultChannelConfig()
		def.URL = cfg.URL
		def.EscapeRoomID = cfg.EscapeRoomID
		cfg = def
	}

	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse push endpoint: %w", err)
	}
	q := u.Query()
	q.Set("escapeRoom", cfg.EscapeRoomID)
	q.Set("email", email)
	q.Set("token", token)
	u.RawQuery = q.Encode()

	dialer := websocket.Dialer{HandshakeTimeout: cfg.HandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial push channel: %w", err)
	}

	log.Info().
		Str("escape_room", cfg.EscapeRoomID).
		Str("email", email).
		Msg("push channel connected")

	return &Channel{cfg: cfg, dispatcher: dispatcher, conn: conn}, nil
}

// Run reads events until the connection drops or the context ends.
// Events are dispatched inline from the read loop, preserving arrival order.
func (c *Channel) Run(ctx context.Context) error {
	defer c.conn.Close()

	c.conn.SetReadLimit(c.cfg.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
		return nil
	})

	go c.pingLoop(ctx)

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error().Err(err).Msg("push channel closed unexpectedly")
			}
			return fmt.Errorf("read push event: %w", err)
		}

		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			log.Warn().Err(err).Msg("dropping malformed push event")
			continue
		}
		c.dispatcher.Dispatch(ctx, ev)
		c.conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
	}
}

func (c *Channel) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(c.cfg.WriteTimeout))
			c.conn.Close()
			return
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.cfg.WriteTimeout)); err != nil {
				log.Error().Err(err).Msg("push channel ping failed")
				return
			}
		}
	}
}

// Close terminates the subscription.
func (c *Channel) Close() error {
	return c.conn.Close()
}
