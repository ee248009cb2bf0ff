// Package events publishes dashboard events to NATS.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/sloppy/threatone/internal/logger"
)

const (
	ActionSettled  = "action.settled"
	AssetVerified  = "asset.verified"
	AssetCreated   = "asset.created"
	AssetDeleted   = "asset.deleted"
	LeaksUploaded  = "leaks.uploaded"
	ConnectTimeout = 10 * time.Second
)

// Event is the JSON envelope of every published message.
type Event struct {
	Type string    `json:"type"`
	At   time.Time `json:"at"`
	Data any       `json:"data"`
}

// Publisher sends events. Implementations never block the caller on a
// broken connection for longer than a single write.
type Publisher interface {
	Publish(ctx context.Context, event string, data any) error
	Close()
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, string, any) error { return nil }

func (Nop) Close() {}

// Subject joins the configured prefix and the event name.
func Subject(prefix, event string) string {
	prefix = strings.Trim(prefix, ".")
	if prefix == "" {
		return event
	}
	return prefix + "." + event
}

func encode(event string, at time.Time, data any) ([]byte, error) {
	payload, err := json.Marshal(Event{Type: event, At: at.UTC(), Data: data})
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return payload, nil
}

// NATS publishes events to <prefix>.<event>.
type NATS struct {
	conn   *nats.Conn
	prefix string
	now    func() time.Time
}

// Connect dials the NATS server. Reconnects are handled by the client.
func Connect(url, prefix string) (*NATS, error) {
	conn, err := nats.Connect(url,
		nats.Name("threatone"),
		nats.Timeout(ConnectTimeout),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(5*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("NATS reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS at %s: %w", url, err)
	}
	logger.Info("NATS publisher initialized", "url", url, "prefix", prefix)
	return &NATS{conn: conn, prefix: prefix, now: time.Now}, nil
}

func (p *NATS) Publish(ctx context.Context, event string, data any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := encode(event, p.now(), data)
	if err != nil {
		return err
	}
	if err := p.conn.Publish(Subject(p.prefix, event), payload); err != nil {
		return fmt.Errorf("publish %s: %w", event, err)
	}
	return nil
}

func (p *NATS) Close() {
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
	}
}
