package database

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/kdudkov/scanrelay/internal/store"
	"github.com/kdudkov/scanrelay/pkg/model"
)

// Tail starts after the newest existing row, like a change stream does.
func (mm *DatabaseManager) Tail(ctx context.Context) (store.Feed, error) {
	last, err := mm.lastID(ctx)
	if err != nil {
		return nil, store.Unavailable("tail", err)
	}

	return &pollFeed{
		mm:       mm,
		lastID:   last,
		interval: mm.pollInterval,
		done:     make(chan struct{}),
	}, nil
}

type pollFeed struct {
	mm       *DatabaseManager
	lastID   uint
	interval time.Duration
	buf      []*model.EventRecord

	done      chan struct{}
	closeOnce sync.Once
}

func (f *pollFeed) Next(ctx context.Context) (*model.RadioEvent, error) {
	for {
		select {
		case <-f.done:
			return nil, io.EOF
		default:
		}

		if len(f.buf) > 0 {
			r := f.buf[0]
			f.buf[0] = nil
			f.buf = f.buf[1:]

			return r.ToEvent(), nil
		}

		recs, err := f.mm.EventQuery(ctx).AfterID(f.lastID).Order(orderID).Limit(f.mm.batch).Get()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}

			return nil, store.Unavailable("poll", err)
		}

		if len(recs) > 0 {
			f.lastID = recs[len(recs)-1].ID
			f.buf = recs

			continue
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-f.done:
			return nil, io.EOF
		case <-time.After(f.interval):
		}
	}
}

func (f *pollFeed) Close() error {
	f.closeOnce.Do(func() { close(f.done) })

	return nil
}
