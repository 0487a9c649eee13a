// Package store is the boundary to the durable event log. Every call may fail
// with ErrUnavailable, callers decide how to surface it.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/kdudkov/scanrelay/pkg/model"
)

var ErrUnavailable = errors.New("event store unavailable")

type Sort int

const (
	Unsorted Sort = iota
	NewestFirst
	OldestFirst
)

type Filter struct {
	// Talkgroup matches talkgroupOrSource, whether it was stored as a string or a number.
	Talkgroup string
	// Since is an inclusive lower bound in model.TimeLayout.
	Since        string
	ExcludeTypes []string
}

// Feed is a live sequence of inserted events. Next returns io.EOF when the
// feed was closed by the source.
type Feed interface {
	Next(ctx context.Context) (*model.RadioEvent, error)
	Close() error
}

type Tailer interface {
	Tail(ctx context.Context) (Feed, error)
}

type Querier interface {
	Count(ctx context.Context, f Filter) (int64, error)
	Find(ctx context.Context, f Filter, sort Sort, limit int) ([]*model.RadioEvent, error)
}

type EventStore interface {
	Querier
	Tailer
	Close() error
}

func Unavailable(op string, err error) error {
	if err == nil || errors.Is(err, ErrUnavailable) {
		return err
	}

	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}
