//nolint:gochecknoglobals
package relay

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/kdudkov/scanrelay/pkg/model"
)

const otherKind = "other"

var (
	eventsMetric = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "scanrelay",
		Name:      "events_relayed",
		Help:      "The total number of events observed on the change feed",
	}, []string{"event_type"})

	dropMetric = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "scanrelay",
		Name:      "subscribers_dropped",
		Help:      "Subscribers removed by the relay",
	}, []string{"reason"})

	subscribersMetric = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "scanrelay",
		Name:      "subscribers",
		Help:      "Currently registered subscribers",
	})

	reconnectMetric = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "scanrelay",
		Name:      "feed_reconnects",
		Help:      "Change feed resubscriptions",
	})
)

// kindLabel keeps the event_type label set bounded, eventType is free text in the store.
func kindLabel(t string) string {
	if model.IsKnownEventType(t) {
		return t
	}

	return otherKind
}
