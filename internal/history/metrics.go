//nolint:gochecknoglobals
package history

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var queryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "scanrelay",
	Subsystem: "history",
	Name:      "query_duration_seconds",
	Help:      "The latency of history queries.",
	Buckets:   prometheus.DefBuckets,
}, []string{"query"})

func observe(query string, start time.Time) {
	queryDuration.WithLabelValues(query).Observe(time.Since(start).Seconds())
}
