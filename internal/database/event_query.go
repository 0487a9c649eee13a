package database

import (
	"gorm.io/gorm"

	"github.com/kdudkov/scanrelay/pkg/model"
)

const (
	orderNewest = "timestamp DESC, id DESC"
	orderOldest = "timestamp ASC, id ASC"
	orderID     = "id ASC"
)

type EventQuery struct {
	Query[model.EventRecord]
	talkgroup string
	since     string
	exclude   []string
	afterID   uint
}

func NewEventQuery(db *gorm.DB) *EventQuery {
	return &EventQuery{
		Query: Query[model.EventRecord]{
			db:    db,
			order: orderNewest,
		},
	}
}

func (q *EventQuery) Order(s string) *EventQuery {
	q.order = s
	return q
}

func (q *EventQuery) Limit(n int) *EventQuery {
	q.limit = n
	return q
}

func (q *EventQuery) Talkgroup(id string) *EventQuery {
	q.talkgroup = id
	return q
}

// Since keeps events with timestamp >= ts. Comparison is lexical, ts must be in model.TimeLayout.
func (q *EventQuery) Since(ts string) *EventQuery {
	q.since = ts
	return q
}

func (q *EventQuery) ExcludeTypes(types ...string) *EventQuery {
	q.exclude = append(q.exclude, types...)
	return q
}

func (q *EventQuery) AfterID(id uint) *EventQuery {
	q.afterID = id
	return q
}

func (q *EventQuery) where() *gorm.DB {
	tx := q.db.Model(&model.EventRecord{})

	if q.talkgroup != "" {
		tx = tx.Where("talkgroup_or_source = ?", q.talkgroup)
	}

	if q.since != "" {
		tx = tx.Where("timestamp >= ?", q.since)
	}

	if len(q.exclude) > 0 {
		tx = tx.Where("event_type NOT IN ?", q.exclude)
	}

	if q.afterID > 0 {
		tx = tx.Where("id > ?", q.afterID)
	}

	return tx
}

func (q *EventQuery) Get() ([]*model.EventRecord, error) {
	return q.get(q.where())
}

func (q *EventQuery) Count() (int64, error) {
	return q.count(q.where())
}
