package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/rs/zerolog"

	"github.com/danieljhkim/pkglink/internal/logging"
)

// Topic is the watermill topic lifecycle events are published on.
const Topic = "package.lifecycle"

// ErrBusClosed is returned when publishing to a closed bus.
var ErrBusClosed = errors.New("event bus is closed")

// Handler processes one event. A returned error is logged and the event is
// still acknowledged, so one failure never stalls the stream.
type Handler func(ctx context.Context, ev Event) error

// Bus delivers lifecycle events to subscribers over a watermill gochannel.
//
// Publish returns only after every subscriber has acknowledged the event.
type Bus struct {
	mu     sync.Mutex
	pubsub *gochannel.GoChannel
	logger zerolog.Logger
	wg     sync.WaitGroup
	closed bool
}

// NewBus creates a new event bus.
func NewBus(logger zerolog.Logger) *Bus {
	return &Bus{
		pubsub: gochannel.NewGoChannel(
			gochannel.Config{
				OutputChannelBuffer:            0,
				Persistent:                     false,
				BlockPublishUntilSubscriberAck: true,
			},
			logging.NewWatermillAdapter(logger),
		),
		logger: logger,
	}
}

// Subscribe registers handler and starts delivering events to it. Delivery
// stops when ctx is cancelled or the bus is closed. Events published before
// Subscribe is called are not delivered.
func (b *Bus) Subscribe(ctx context.Context, handler Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrBusClosed
	}

	messages, err := b.pubsub.Subscribe(ctx, Topic)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", Topic, err)
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for msg := range messages {
			b.handle(ctx, msg, handler)
		}
	}()
	return nil
}

func (b *Bus) handle(ctx context.Context, msg *message.Message, handler Handler) {
	defer msg.Ack()

	var ev Event
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		b.logger.Error().Err(err).Str("message_id", msg.UUID).Msg("Dropping undecodable event")
		return
	}

	log := b.logger.With().
		Str("event", ev.ID).
		Str("operation", string(ev.Operation)).
		Str("package", ev.Package.Name).
		Logger()

	log.Debug().Msg("Handling event")
	if err := handler(ctx, ev); err != nil {
		log.Error().Err(err).Msg("Event handler failed")
	}
}

// Publish sends events in order, waiting for each to be acknowledged.
func (b *Bus) Publish(events ...Event) error {
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return ErrBusClosed
	}

	for _, ev := range events {
		payload, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("failed to encode event %s: %w", ev.ID, err)
		}
		msg := message.NewMessage(ev.ID, payload)
		msg.Metadata.Set("operation", string(ev.Operation))
		msg.Metadata.Set("package", ev.Package.Name)

		if err := b.pubsub.Publish(Topic, msg); err != nil {
			return fmt.Errorf("failed to publish event %s: %w", ev.ID, err)
		}
	}
	return nil
}

// Close shuts the bus down and waits for in-flight handlers to finish.
func (b *Bus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	err := b.pubsub.Close()
	b.wg.Wait()
	return err
}
