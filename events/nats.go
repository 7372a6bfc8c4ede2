// Package events fans reel lifecycle events out over NATS so dashboards
// can subscribe instead of polling.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"papermill_reel_tracker/reel"
)

// SubjectPrefix is prepended to the event type, e.g. reels.ruled.
const SubjectPrefix = "reels."

// Conn is the part of *nats.Conn the publisher uses.
type Conn interface {
	Publish(subj string, data []byte) error
}

type NATSPublisher struct {
	conn Conn
}

func NewPublisher(conn Conn) *NATSPublisher { return &NATSPublisher{conn: conn} }

func Subject(t reel.EventType) string { return SubjectPrefix + string(t) }

func (p *NATSPublisher) Publish(ctx context.Context, ev reel.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", ev.Type, err)
	}
	if err := p.conn.Publish(Subject(ev.Type), data); err != nil {
		return fmt.Errorf("publish %s: %w", Subject(ev.Type), err)
	}
	return nil
}

// Connect dials NATS and keeps reconnecting in the background.
func Connect(url string, log *slog.Logger) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("reeltrack"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn("nats disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", url, err)
	}
	return nc, nil
}

var _ reel.Publisher = (*NATSPublisher)(nil)
