package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/brood-labs/broodd/internal/core/domain"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Topic carries every lifecycle event; the kind is in message metadata.
const Topic = "units"

const kindMetadataKey = "kind"

// PubSub is an in-process event bus built on watermill's gochannel
// transport. It implements ports.EventPublisher and additionally exposes the
// subscriber side for consumers in the same process.
type PubSub struct {
	bus *gochannel.GoChannel
}

func NewPubSub() *PubSub {
	bus := gochannel.NewGoChannel(gochannel.Config{}, newLogAdapter())
	return &PubSub{bus}
}

func (p *PubSub) Publish(_ context.Context, events ...domain.Event) error {
	for _, event := range events {
		payload, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("failed to serialize %s event: %w", event.Kind(), err)
		}
		msg := message.NewMessage(uuid.NewString(), payload)
		msg.Metadata.Set(kindMetadataKey, event.Kind())
		if err := p.bus.Publish(Topic, msg); err != nil {
			return fmt.Errorf("failed to publish %s event: %w", event.Kind(), err)
		}
	}
	return nil
}

func (p *PubSub) Subscribe(ctx context.Context) (<-chan *message.Message, error) {
	return p.bus.Subscribe(ctx, Topic)
}

func (p *PubSub) Close() error {
	return p.bus.Close()
}

// EventKind returns the domain event kind a message was published with.
func EventKind(msg *message.Message) string {
	return msg.Metadata.Get(kindMetadataKey)
}

type logAdapter struct {
	fields watermill.LogFields
}

func newLogAdapter() watermill.LoggerAdapter {
	return logAdapter{}
}

func (a logAdapter) Error(msg string, err error, fields watermill.LogFields) {
	a.entry(fields).WithError(err).Error(msg)
}

func (a logAdapter) Info(msg string, fields watermill.LogFields) {
	a.entry(fields).Debug(msg)
}

func (a logAdapter) Debug(msg string, fields watermill.LogFields) {
	a.entry(fields).Debug(msg)
}

func (a logAdapter) Trace(msg string, fields watermill.LogFields) {
	a.entry(fields).Trace(msg)
}

func (a logAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return logAdapter{fields: a.fields.Add(fields)}
}

func (a logAdapter) entry(fields watermill.LogFields) *log.Entry {
	return log.WithFields(log.Fields(a.fields.Add(fields)))
}
