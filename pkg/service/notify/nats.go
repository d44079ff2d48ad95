package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/nats-io/nats.go"
	"github.com/secmon-lab/stackscout/pkg/domain/interfaces"
	"github.com/secmon-lab/stackscout/pkg/utils/logging"
)

const (
	SubjectIngestCompleted  = "stackscout.ingest.completed"
	SubjectExtractCompleted = "stackscout.extract.completed"
)

// NATS publishes pipeline events as JSON messages
type NATS struct {
	conn *nats.Conn
}

var _ interfaces.EventPublisher = &NATS{}

func NewNATS(ctx context.Context, url, token string) (*NATS, error) {
	logger := logging.From(ctx)
	opts := []nats.Option{
		nats.Name("stackscout"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to connect to nats", goerr.V("url", url))
	}

	return &NATS{conn: nc}, nil
}

func (n *NATS) Publish(ctx context.Context, subject string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal event", goerr.V("subject", subject))
	}
	if err := n.conn.Publish(subject, payload); err != nil {
		return goerr.Wrap(err, "failed to publish event", goerr.V("subject", subject))
	}
	if err := n.conn.FlushWithContext(ctx); err != nil {
		return goerr.Wrap(err, "failed to flush event", goerr.V("subject", subject))
	}
	return nil
}

func (n *NATS) Close() error {
	if err := n.conn.Drain(); err != nil {
		return goerr.Wrap(err, "failed to drain nats connection")
	}
	return nil
}

// Nop drops every event. It is used when no broker is configured.
type Nop struct{}

var _ interfaces.EventPublisher = Nop{}

func (Nop) Publish(ctx context.Context, subject string, event any) error {
	logging.From(ctx).Debug("event publishing disabled", "subject", subject)
	return nil
}
