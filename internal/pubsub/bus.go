// Package pubsub is an in-process topic bus. Each subscriber owns a bounded
// buffer so a slow listener cannot stall publishers or other listeners.
package pubsub

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/oklog/ulid/v2"
)

var (
	ErrClosed   = errors.New("bus closed")
	ErrOverflow = errors.New("subscriber buffer overflow")
)

// Overflow selects what happens when a subscriber's buffer is full.
type Overflow int

const (
	// DropOldest discards the oldest buffered message to make room.
	DropOldest Overflow = iota
	// Disconnect closes the subscription.
	Disconnect
)

func ParseOverflow(s string) (Overflow, error) {
	switch s {
	case "", "drop-oldest":
		return DropOldest, nil
	case "disconnect":
		return Disconnect, nil
	default:
		return DropOldest, fmt.Errorf("unknown overflow policy %q", s)
	}
}

func (o Overflow) String() string {
	if o == Disconnect {
		return "disconnect"
	}
	return "drop-oldest"
}

const DefaultBuffer = 64

type Message[T any] struct {
	ID      ulid.ULID
	Topic   string
	Payload T
}

// Recorder observes subscriber lifecycle and delivery. metrics.Metrics
// implements it.
type Recorder interface {
	SubscriberAdded(topic string)
	SubscriberRemoved(topic string)
	Published(topic string, delivered int)
	Dropped(topic string)
}

type Options struct {
	Buffer   int
	Overflow Overflow
	Recorder Recorder
	Logger   *slog.Logger
}

type Bus[T any] struct {
	mu       sync.Mutex
	buffer   int
	overflow Overflow
	rec      Recorder
	logger   *slog.Logger
	topics   map[string]map[*Subscription[T]]struct{}
	closed   bool
}

func New[T any](opts Options) *Bus[T] {
	b := &Bus[T]{
		buffer:   opts.Buffer,
		overflow: opts.Overflow,
		rec:      opts.Recorder,
		logger:   opts.Logger,
		topics:   make(map[string]map[*Subscription[T]]struct{}),
	}
	if b.buffer <= 0 {
		b.buffer = DefaultBuffer
	}
	if b.rec == nil {
		b.rec = nopRecorder{}
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	return b
}

// Subscribe registers a listener on topic. The subscription ends when ctx is
// done, when Close is called, or when the bus shuts down; its channel is then
// closed.
func (b *Bus[T]) Subscribe(ctx context.Context, topic string) (*Subscription[T], error) {
	s := &Subscription[T]{
		bus:   b,
		topic: topic,
		ch:    make(chan Message[T], b.buffer),
		done:  make(chan struct{}),
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, ErrClosed
	}
	subs := b.topics[topic]
	if subs == nil {
		subs = make(map[*Subscription[T]]struct{})
		b.topics[topic] = subs
	}
	subs[s] = struct{}{}
	b.mu.Unlock()
	b.rec.SubscriberAdded(topic)

	go func() {
		select {
		case <-ctx.Done():
			s.Close()
		case <-s.done:
		}
	}()
	return s, nil
}

// Publish delivers payload to every current subscriber of topic and returns
// how many received it. Publishes are serialized, so each subscriber sees
// messages in publish order. Publishing after Close is a no-op.
func (b *Bus[T]) Publish(topic string, payload T) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return 0
	}

	msg := Message[T]{ID: ulid.Make(), Topic: topic, Payload: payload}
	delivered := 0
	for s := range b.topics[topic] {
		select {
		case s.ch <- msg:
			delivered++
			continue
		default:
		}

		b.rec.Dropped(topic)
		if b.overflow == Disconnect {
			b.logger.Warn("disconnecting slow subscriber", "topic", topic)
			s.err = ErrOverflow
			b.removeLocked(s)
			continue
		}
		select {
		case <-s.ch:
		default:
		}
		select {
		case s.ch <- msg:
			delivered++
		default:
		}
	}
	b.rec.Published(topic, delivered)
	return delivered
}

func (b *Bus[T]) Subscribers(topic string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.topics[topic])
}

// Close ends every subscription. Later Subscribe calls return ErrClosed.
func (b *Bus[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, subs := range b.topics {
		for s := range subs {
			s.err = ErrClosed
			b.removeLocked(s)
		}
	}
}

func (b *Bus[T]) remove(s *Subscription[T]) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.removeLocked(s)
}

func (b *Bus[T]) removeLocked(s *Subscription[T]) {
	subs := b.topics[s.topic]
	if _, ok := subs[s]; !ok {
		return
	}
	delete(subs, s)
	if len(subs) == 0 {
		delete(b.topics, s.topic)
	}
	close(s.ch)
	s.stop()
	b.rec.SubscriberRemoved(s.topic)
}

type Subscription[T any] struct {
	bus   *Bus[T]
	topic string
	ch    chan Message[T]
	done  chan struct{}
	once  sync.Once
	// err is written under bus.mu before ch is closed.
	err error
}

// C returns the delivery channel. It is closed when the subscription ends.
func (s *Subscription[T]) C() <-chan Message[T] { return s.ch }

func (s *Subscription[T]) Topic() string { return s.topic }

// Err explains why the channel was closed: ErrOverflow, ErrClosed, or nil
// when the subscriber left on its own.
func (s *Subscription[T]) Err() error {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	return s.err
}

func (s *Subscription[T]) Close() {
	s.bus.remove(s)
}

func (s *Subscription[T]) stop() {
	s.once.Do(func() { close(s.done) })
}

type nopRecorder struct{}

func (nopRecorder) SubscriberAdded(string)   {}
func (nopRecorder) SubscriberRemoved(string) {}
func (nopRecorder) Published(string, int)    {}
func (nopRecorder) Dropped(string)           {}
