package status

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals
var intervalMetric = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "scanrelay",
	Name:      "events_last_interval",
	Help:      "Events relayed during the last status interval",
})

// Counter is read and reset once per interval.
type Counter interface {
	Swap() int64
}

type Reporter struct {
	logger   *slog.Logger
	counter  Counter
	interval time.Duration
	last     atomic.Int64
	ts       atomic.Int64
}

func New(counter Counter, interval time.Duration) *Reporter {
	if interval <= 0 {
		interval = time.Second * 30
	}

	return &Reporter{
		logger:   slog.Default().With("logger", "status"),
		counter:  counter,
		interval: interval,
	}
}

func (r *Reporter) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Report()
		}
	}
}

func (r *Reporter) Report() int64 {
	n := r.counter.Swap()

	r.last.Store(n)
	r.ts.Store(time.Now().Unix())
	intervalMetric.Set(float64(n))

	r.logger.Info(fmt.Sprintf("processed %d messages in the last %s", n, r.interval))

	return n
}

// Last returns the count of the last finished interval.
func (r *Reporter) Last() int64 {
	return r.last.Load()
}

func (r *Reporter) LastReport() time.Time {
	if ts := r.ts.Load(); ts != 0 {
		return time.Unix(ts, 0)
	}

	return time.Time{}
}

func (r *Reporter) Interval() time.Duration {
	return r.interval
}
