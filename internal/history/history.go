// Package history answers bounded queries over past events.
package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/kdudkov/scanrelay/internal/store"
	"github.com/kdudkov/scanrelay/pkg/model"
	"github.com/kdudkov/scanrelay/pkg/util"
)

const (
	// RecentLimit caps talkgroup history for busy talkgroups.
	RecentLimit     = 200
	TalkgroupWindow = time.Hour * 24

	DefaultTimeout         = time.Second * 5
	DefaultMaxWindowEvents = 50000
)

var ErrInvalidArgument = errors.New("invalid argument")

var durations = map[string]int{
	"30m": 30,
	"2h":  120,
	"6h":  360,
	"12h": 720,
}

var talkgroupRe = regexp.MustCompile(`^[0-9A-Za-z_-]{1,32}$`)

// ExcludedTypes are never returned by duration queries.
var ExcludedTypes = []string{model.EventLocation}

type Enricher interface {
	EnrichAll(events []*model.RadioEvent) []*model.RadioEvent
}

type TalkgroupHistory struct {
	TalkgroupID  string              `json:"talkgroupId"`
	TotalEvents  int                 `json:"totalEvents"`
	UniqueRadios []string            `json:"uniqueRadios"`
	Events       []*model.RadioEvent `json:"events"`
}

type DurationHistory struct {
	Duration    int                 `json:"duration"`
	TotalEvents int                 `json:"totalEvents"`
	Events      []*model.RadioEvent `json:"events"`
	// set when the window held more events than the engine returns
	Truncated     bool  `json:"truncated,omitempty"`
	MatchedEvents int64 `json:"matchedEvents,omitempty"`
}

type Engine struct {
	logger          *slog.Logger
	store           store.Querier
	enricher        Enricher
	timeout         time.Duration
	maxWindowEvents int
	now             func() time.Time
}

type Option func(e *Engine)

func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

func WithMaxWindowEvents(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxWindowEvents = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

func New(st store.Querier, enricher Enricher, opts ...Option) *Engine {
	e := &Engine{
		logger:          slog.Default().With("logger", "history"),
		store:           st,
		enricher:        enricher,
		timeout:         DefaultTimeout,
		maxWindowEvents: DefaultMaxWindowEvents,
		now:             time.Now,
	}

	for _, o := range opts {
		o(e)
	}

	return e
}

// ParseDuration maps a duration token to minutes.
func ParseDuration(token string) (int, error) {
	if m, ok := durations[token]; ok {
		return m, nil
	}

	return 0, fmt.Errorf("%w: unsupported duration %q", ErrInvalidArgument, token)
}

func Durations() []string {
	res := make([]string, 0, len(durations))
	for k := range durations {
		res = append(res, k)
	}

	slices.SortFunc(res, func(a, b string) int { return durations[a] - durations[b] })

	return res
}

// ByTalkgroup returns the smaller of two candidates: the newest RecentLimit
// events, or every event of the last TalkgroupWindow. Both are newest-first.
// On a tie the capped candidate wins.
func (e *Engine) ByTalkgroup(ctx context.Context, id string) (*TalkgroupHistory, error) {
	id = strings.TrimSpace(id)

	if !talkgroupRe.MatchString(id) {
		return nil, fmt.Errorf("%w: bad talkgroup id %q", ErrInvalidArgument, id)
	}

	defer observe("talkgroup", time.Now())

	since := model.FormatTime(e.now().Add(-TalkgroupWindow))

	recent, err := e.find(ctx, store.Filter{Talkgroup: id}, store.NewestFirst, RecentLimit)
	if err != nil {
		return nil, err
	}

	// recent is sorted by timestamp, so the events of the window are its
	// prefix whenever the window is the smaller candidate
	window := 0
	for window < len(recent) && recent[window].Timestamp >= since {
		window++
	}

	events := recent
	if window < len(recent) {
		events = recent[:window]
	}

	events = e.enricher.EnrichAll(events)

	radios := util.NewOrderedSet()
	for _, ev := range events {
		if ev.RadioID != "" {
			radios.Add(ev.RadioID)
		}
	}

	return &TalkgroupHistory{
		TalkgroupID:  id,
		TotalEvents:  len(events),
		UniqueRadios: radios.List(),
		Events:       events,
	}, nil
}

// ByDuration returns non-location events of the last 30m, 2h, 6h or 12h,
// oldest-first. At most maxWindowEvents newest events are returned.
func (e *Engine) ByDuration(ctx context.Context, token string) (*DurationHistory, error) {
	minutes, err := ParseDuration(token)
	if err != nil {
		return nil, err
	}

	defer observe("duration", time.Now())

	f := store.Filter{
		Since:        model.FormatTime(e.now().Add(-time.Duration(minutes) * time.Minute)),
		ExcludeTypes: ExcludedTypes,
	}

	events, err := e.find(ctx, f, store.NewestFirst, e.maxWindowEvents+1)
	if err != nil {
		return nil, err
	}

	res := &DurationHistory{Duration: minutes}

	if len(events) > e.maxWindowEvents {
		events = events[:e.maxWindowEvents]
		res.Truncated = true

		if n, err := e.count(ctx, f); err == nil {
			res.MatchedEvents = n
		} else {
			e.logger.Warn("count failed", slog.Any("error", err))
		}

		e.logger.Warn(fmt.Sprintf("duration %s truncated to %d events", token, e.maxWindowEvents))
	}

	slices.Reverse(events)

	res.Events = e.enricher.EnrichAll(events)
	res.TotalEvents = len(res.Events)

	return res, nil
}

func (e *Engine) find(ctx context.Context, f store.Filter, sort store.Sort, limit int) ([]*model.RadioEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	res, err := e.store.Find(ctx, f, sort, limit)
	if err != nil {
		return nil, store.Unavailable("find", err)
	}

	return res, nil
}

func (e *Engine) count(ctx context.Context, f store.Filter) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	n, err := e.store.Count(ctx, f)
	if err != nil {
		return 0, store.Unavailable("count", err)
	}

	return n, nil
}
