package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/klytics/sheetsense/internal/logging"
)

const natsLogPrefix = "events:nats_publisher"

// Connect opens a NATS connection for event publishing. Dropped connections are
// not re-established; events are best-effort.
func Connect(url, name string, log *slog.Logger) (*nats.Conn, error) {
	if log == nil {
		log = logging.Nop()
	}
	log.Info(fmt.Sprintf("%s - Connecting to NATS at %s as %s", natsLogPrefix, url, name))

	nc, err := nats.Connect(url,
		nats.Name(name),
		nats.Timeout(10*time.Second),
		nats.NoReconnect(),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn(fmt.Sprintf("%s - NATS disconnected: %v", natsLogPrefix, err))
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			log.Info(fmt.Sprintf("%s - NATS connection closed", natsLogPrefix))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to connect to NATS: %w", natsLogPrefix, err)
	}

	log.Info(fmt.Sprintf("%s - Connected to NATS at %s", natsLogPrefix, nc.ConnectedUrl()))
	return nc, nil
}

// NATSPublisher publishes events as JSON to a NATS subject.
type NATSPublisher struct {
	nc      *nats.Conn
	subject string
	log     *slog.Logger
}

// NewNATSPublisher creates a NATSPublisher. An empty subject uses SubjectCommandExecuted.
func NewNATSPublisher(nc *nats.Conn, subject string, log *slog.Logger) *NATSPublisher {
	if subject == "" {
		subject = SubjectCommandExecuted
	}
	if log == nil {
		log = logging.Nop()
	}
	return &NATSPublisher{nc: nc, subject: subject, log: log}
}

// Subject returns the subject events are published to.
func (p *NATSPublisher) Subject() string {
	return p.subject
}

// PublishExecuted publishes event to the configured subject.
func (p *NATSPublisher) PublishExecuted(_ context.Context, event *CommandExecutedEvent) error {
	data, err := Encode(event)
	if err != nil {
		return fmt.Errorf("%s - failed to encode event: %w", natsLogPrefix, err)
	}
	if err := p.nc.Publish(p.subject, data); err != nil {
		p.log.Error(fmt.Sprintf("%s - failed to publish to %s: %v", natsLogPrefix, p.subject, err))
		return err
	}
	p.log.Debug(fmt.Sprintf("%s - Published %s event", natsLogPrefix, p.subject), "operation", event.Operation)
	return nil
}

// Close drains and closes the underlying connection.
func (p *NATSPublisher) Close() error {
	return p.nc.Drain()
}

// Encode serializes an event as JSON.
func Encode(event *CommandExecutedEvent) ([]byte, error) {
	if event == nil {
		return nil, fmt.Errorf("nil event")
	}
	return json.Marshal(event)
}
