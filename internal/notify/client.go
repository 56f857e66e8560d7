package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Client publishes and consumes catalog lifecycle events.
type Client interface {
	Publish(subject string, data interface{}) error
	Subscribe(subject string, handler func(subject string, data []byte)) error
	Close()
}

// Bus is the NATS-backed Client. Events also land in a JetStream stream so
// late-joining consumers can replay catalog rebuilds.
type Bus struct {
	conn   *nats.Conn
	js     jetstream.JetStream
	subs   []*nats.Subscription
	logger *slog.Logger
}

func Connect(ctx context.Context, url string, logger *slog.Logger) (*Bus, error) {
	nc, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	b := &Bus{conn: nc, js: js, logger: logger}
	if err := b.ensureStream(ctx); err != nil {
		logger.Warn("failed to ensure stream", "error", err)
	}
	return b, nil
}

func (b *Bus) ensureStream(ctx context.Context) error {
	maxAge, _ := time.ParseDuration(StreamMaxAge)
	_, err := b.js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     StreamName,
		Subjects: []string{"ecolabel.catalog.>", "ecolabel.recipe.>"},
		MaxAge:   maxAge,
	})
	return err
}

func (b *Bus) Publish(subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return b.conn.Publish(subject, payload)
}

func (b *Bus) Subscribe(subject string, handler func(string, []byte)) error {
	sub, err := b.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Subject, msg.Data)
	})
	if err != nil {
		return err
	}
	b.subs = append(b.subs, sub)
	return nil
}

func (b *Bus) Close() {
	for _, sub := range b.subs {
		_ = sub.Unsubscribe()
	}
	b.conn.Close()
}
