package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Bus publishes messages to whoever listens on their channel.
// Publish must be safe for concurrent use.
type Bus interface {
	Publish(ctx context.Context, m Message) error
}

// Envelope is the wire form of a message: channel plus JSON payload.
type Envelope struct {
	Channel string          `json:"channel"`
	Data    json.RawMessage `json:"data"`
}

func Encode(m Message) (Envelope, error) {
	if m == nil {
		return Envelope{}, errors.New("events: nil message")
	}
	ch := m.Channel()
	if ch == "" || strings.HasSuffix(ch, "-") {
		return Envelope{}, fmt.Errorf("events: invalid channel %q", ch)
	}
	data, err := json.Marshal(m)
	if err != nil {
		return Envelope{}, fmt.Errorf("events: encode %s: %w", ch, err)
	}
	return Envelope{Channel: ch, Data: data}, nil
}

// MemoryBus records published messages. Err, when set, fails every publish.
type MemoryBus struct {
	mu        sync.Mutex
	Err       error
	published []Message
}

func NewMemoryBus() *MemoryBus { return &MemoryBus{} }

func (b *MemoryBus) Publish(ctx context.Context, m Message) error {
	if _, err := Encode(m); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.Err != nil {
		return b.Err
	}
	b.published = append(b.published, m)
	return nil
}

// Published returns a copy of everything published so far.
func (b *MemoryBus) Published() []Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Message(nil), b.published...)
}

// MultiBus fans one publish out to several buses; all are attempted.
type MultiBus []Bus

func (mb MultiBus) Publish(ctx context.Context, m Message) error {
	var errs []error
	for _, b := range mb {
		if err := b.Publish(ctx, m); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
