package enricher

import (
	"github.com/kdudkov/scanrelay/pkg/model"
)

type Catalog interface {
	Lookup(id string) (*model.TalkgroupInfo, bool)
}

// Enricher attaches talkgroup metadata to events. It never mutates its input
// and never fails: events without a catalog entry pass through as is.
type Enricher struct {
	catalog Catalog
}

func New(c Catalog) *Enricher {
	return &Enricher{catalog: c}
}

func (e *Enricher) Enrich(ev *model.RadioEvent) *model.RadioEvent {
	if ev == nil || e == nil || e.catalog == nil {
		return ev
	}

	info, ok := e.catalog.Lookup(model.NormalizeID(ev.TalkgroupOrSource))
	if !ok {
		return ev
	}

	if ev.TalkgroupInfo == info {
		return ev
	}

	res := ev.Copy()
	res.TalkgroupInfo = info

	return res
}

func (e *Enricher) EnrichAll(events []*model.RadioEvent) []*model.RadioEvent {
	res := make([]*model.RadioEvent, len(events))

	for i, ev := range events {
		res[i] = e.Enrich(ev)
	}

	return res
}
