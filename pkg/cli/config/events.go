package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/stackscout/pkg/domain/interfaces"
	"github.com/secmon-lab/stackscout/pkg/service/notify"
	"github.com/secmon-lab/stackscout/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Events holds CLI flags for the event broker
type Events struct {
	natsURL   string
	natsToken string
}

// Flags returns CLI flags for event publishing
func (e *Events) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "nats-url",
			Category:    "Events",
			Usage:       "NATS server URL. Events are dropped when empty",
			Sources:     cli.EnvVars("STACKSCOUT_NATS_URL"),
			Destination: &e.natsURL,
		},
		&cli.StringFlag{
			Name:        "nats-token",
			Category:    "Events",
			Usage:       "NATS authentication token",
			Sources:     cli.EnvVars("STACKSCOUT_NATS_TOKEN"),
			Destination: &e.natsToken,
		},
	}
}

func (e Events) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("nats_url", e.natsURL),
		slog.Bool("nats_token_set", e.natsToken != ""),
	)
}

// Configure connects to NATS when a URL is set, otherwise events are dropped.
// The returned function drains the connection.
func (e *Events) Configure(ctx context.Context) (interfaces.EventPublisher, func(), error) {
	if e.natsURL == "" {
		return notify.Nop{}, func() {}, nil
	}

	pub, err := notify.NewNATS(ctx, e.natsURL, e.natsToken)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to initialize nats publisher")
	}
	logging.From(ctx).Info("Publishing events to NATS", "url", e.natsURL)

	return pub, func() {
		if err := pub.Close(); err != nil {
			logging.Default().Error("failed to close nats publisher", "error", err.Error())
		}
	}, nil
}
