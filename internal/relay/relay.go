// Package relay tails the event store and fans every event out to the
// registered subscribers.
package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/kdudkov/scanrelay/internal/store"
	"github.com/kdudkov/scanrelay/pkg/model"
	"github.com/kdudkov/scanrelay/pkg/util"
)

const EventName = "radioEvent"

type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"event"`
}

// Subscriber receives messages from the relay. Send must not block; returning
// false means the subscriber is gone and will be unregistered. After Close
// returns, Send must not deliver anything.
type Subscriber interface {
	Name() string
	Send(msg *Message) bool
	Close()
}

type Registry interface {
	Register(s Subscriber)
	Unregister(name string)
}

type Enricher interface {
	Enrich(ev *model.RadioEvent) *model.RadioEvent
}

type Relay struct {
	logger   *slog.Logger
	source   store.Tailer
	enricher Enricher
	subs     *util.Holder[Subscriber]

	backoffInitial time.Duration
	backoffMax     time.Duration

	interval atomic.Int64
	total    atomic.Int64
	nsubs    atomic.Int64
}

func New(source store.Tailer, enricher Enricher) *Relay {
	return &Relay{
		logger:         slog.Default().With("logger", "relay"),
		source:         source,
		enricher:       enricher,
		subs:           util.NewHolder[Subscriber](),
		backoffInitial: time.Second,
		backoffMax:     time.Second * 30,
	}
}

func (r *Relay) SetBackoff(initial, max time.Duration) *Relay {
	r.backoffInitial = initial
	r.backoffMax = max

	return r
}

func (r *Relay) Register(s Subscriber) {
	if s == nil {
		return
	}

	if old, replaced := r.subs.Add(s); replaced {
		old.Close()
	} else {
		r.nsubs.Add(1)
	}

	subscribersMetric.Set(float64(r.nsubs.Load()))
	r.logger.Debug("subscriber registered", slog.String("name", s.Name()))
}

func (r *Relay) Unregister(name string) {
	r.remove(name, "")
}

func (r *Relay) remove(name string, reason string) {
	removed := r.subs.RemoveExec(name, func(s Subscriber) {
		s.Close()
	})

	if removed {
		r.removed(name, reason)
	}
}

// drop removes s itself. If s was already replaced by a subscriber with the
// same name, the replacement stays registered.
func (r *Relay) drop(s Subscriber, reason string) {
	removed := r.subs.RemoveIf(s.Name(), s)
	s.Close()

	if removed {
		r.removed(s.Name(), reason)
	}
}

func (r *Relay) removed(name string, reason string) {
	r.nsubs.Add(-1)
	subscribersMetric.Set(float64(r.nsubs.Load()))

	if reason != "" {
		dropMetric.WithLabelValues(reason).Inc()
		r.logger.Info("subscriber dropped", slog.String("name", name), slog.String("reason", reason))
	} else {
		r.logger.Debug("subscriber unregistered", slog.String("name", name))
	}
}

func (r *Relay) Subscribers() int {
	return int(r.nsubs.Load())
}

// OnEvent must be called from a single goroutine, per-subscriber order relies on it.
func (r *Relay) OnEvent(ev *model.RadioEvent) {
	if ev == nil {
		return
	}

	if r.enricher != nil {
		ev = r.enricher.Enrich(ev)
	}

	r.interval.Add(1)
	r.total.Add(1)
	eventsMetric.WithLabelValues(kindLabel(ev.EventType)).Inc()

	r.Broadcast(EventName, ev)
}

// Broadcast is fire-and-forget, subscribers that fail to accept the message are dropped.
func (r *Relay) Broadcast(name string, payload any) {
	msg := &Message{Type: name, Payload: payload}

	r.subs.All(func(s Subscriber) bool {
		if !s.Send(msg) {
			r.drop(s, dropReason(s))
		}

		return true
	})
}

func dropReason(s Subscriber) string {
	if o, ok := s.(interface{ Overflowed() bool }); ok && o.Overflowed() {
		return "overflow"
	}

	return "send_failed"
}

// Swap returns the number of events since the previous call.
func (r *Relay) Swap() int64 {
	return r.interval.Swap(0)
}

func (r *Relay) Total() int64 {
	return r.total.Load()
}

// Run follows the change feed until ctx is done, resubscribing with backoff
// whenever the feed fails or closes.
func (r *Relay) Run(ctx context.Context) {
	b := NewBackoff(r.backoffInitial, r.backoffMax)

	for ctx.Err() == nil {
		started := time.Now()
		n, err := r.follow(ctx)

		if ctx.Err() != nil {
			break
		}

		if err == nil || errors.Is(err, io.EOF) {
			r.logger.Warn("change feed closed", slog.Int("events", n))
		} else {
			r.logger.Error("change feed error", slog.Any("error", err), slog.Int("events", n))
		}

		if n > 0 || time.Since(started) > b.Max {
			b.Reset()
		}

		reconnectMetric.Inc()

		d := b.Next()
		r.logger.Info(fmt.Sprintf("resubscribe in %s", d))

		select {
		case <-ctx.Done():
		case <-time.After(d):
		}
	}

	r.logger.Info("relay stopped")
}

func (r *Relay) follow(ctx context.Context) (int, error) {
	feed, err := r.source.Tail(ctx)
	if err != nil {
		return 0, err
	}

	defer feed.Close()

	r.logger.Info("change feed subscribed")

	var n int

	for {
		ev, err := feed.Next(ctx)
		if err != nil {
			return n, err
		}

		n++
		r.OnEvent(ev)
	}
}

// Close unregisters all subscribers.
func (r *Relay) Close() {
	r.subs.All(func(s Subscriber) bool {
		r.remove(s.Name(), "")
		return true
	})
}
