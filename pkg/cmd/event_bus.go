// Package cmd holds the constructors shared by the binaries: event
// bus, persistence and handler registry wiring.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/tasklab/automation/pkg/channels/gochannel"
	"github.com/tasklab/automation/pkg/channels/kafka"
	"github.com/tasklab/automation/pkg/eventbus"
)

// NewEventBus builds the event bus for the chosen provider. "memory"
// serves single-process deployments; "kafka" fans events out across
// processes.
func NewEventBus(provider, kafkaBrokers string, logger *slog.Logger) (eventbus.EventBus, error) {
	wmLogger := watermill.NewSlogLogger(logger)

	switch provider {
	case "", "memory":
		pub, sub := gochannel.CreateChannel(wmLogger)

		return eventbus.NewWatermillEventBus(pub, sub), nil
	case "kafka":
		pub, sub, err := kafka.CreateChannel(wmLogger, kafkaBrokers, "automation")
		if err != nil {
			return nil, fmt.Errorf("failed to create Kafka pub/sub: %w", err)
		}

		return eventbus.NewWatermillEventBus(pub, sub), nil
	default:
		return nil, fmt.Errorf("unsupported event bus provider: %s", provider)
	}
}
