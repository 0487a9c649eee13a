package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/kdudkov/scanrelay/internal/store"
	"github.com/kdudkov/scanrelay/pkg/model"
)

var _ store.EventStore = &DatabaseManager{}

// DatabaseManager is the SQL event store. There is no change feed in SQL, so
// Tail polls for rows with growing ids.
type DatabaseManager struct {
	db           *gorm.DB
	logger       *slog.Logger
	pollInterval time.Duration
	batch        int
}

func New(db *gorm.DB) *DatabaseManager {
	m := &DatabaseManager{
		db:           db,
		logger:       slog.With("logger", "dbm"),
		pollInterval: time.Second,
		batch:        500,
	}

	return m
}

func (mm *DatabaseManager) SetPollInterval(d time.Duration) *DatabaseManager {
	if d > 0 {
		mm.pollInterval = d
	}

	return mm
}

func (mm *DatabaseManager) Migrate() error {
	if mm == nil || mm.db == nil {
		return fmt.Errorf("no database")
	}

	return mm.db.AutoMigrate(&model.EventRecord{})
}

func (mm *DatabaseManager) Close() error {
	if mm == nil || mm.db == nil {
		return nil
	}

	sqlDB, err := mm.db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

func (mm *DatabaseManager) String() string {
	return "sql:" + mm.db.Dialector.Name()
}

func (mm *DatabaseManager) EventQuery(ctx context.Context) *EventQuery {
	return NewEventQuery(mm.db.WithContext(ctx))
}

// Insert stores events in the given order. Any talkgroupInfo is dropped.
func (mm *DatabaseManager) Insert(ctx context.Context, events ...*model.RadioEvent) error {
	if len(events) == 0 {
		return nil
	}

	recs := make([]*model.EventRecord, len(events))
	for i, ev := range events {
		recs[i] = model.RecordFromEvent(ev)
	}

	if err := mm.db.WithContext(ctx).Create(recs).Error; err != nil {
		mm.logger.Error("error insert events", slog.Any("error", err))

		return store.Unavailable("insert", err)
	}

	return nil
}

func (mm *DatabaseManager) Count(ctx context.Context, f store.Filter) (int64, error) {
	n, err := mm.filtered(ctx, f).Count()
	if err != nil {
		return 0, store.Unavailable("count", err)
	}

	return n, nil
}

func (mm *DatabaseManager) Find(ctx context.Context, f store.Filter, sort store.Sort, limit int) ([]*model.RadioEvent, error) {
	q := mm.filtered(ctx, f).Limit(limit)

	switch sort {
	case store.NewestFirst:
		q.Order(orderNewest)
	case store.OldestFirst:
		q.Order(orderOldest)
	default:
		q.Order("")
	}

	recs, err := q.Get()
	if err != nil {
		return nil, store.Unavailable("find", err)
	}

	res := make([]*model.RadioEvent, len(recs))
	for i, r := range recs {
		res[i] = r.ToEvent()
	}

	return res, nil
}

func (mm *DatabaseManager) filtered(ctx context.Context, f store.Filter) *EventQuery {
	return mm.EventQuery(ctx).
		Talkgroup(f.Talkgroup).
		Since(f.Since).
		ExcludeTypes(f.ExcludeTypes...)
}

func (mm *DatabaseManager) lastID(ctx context.Context) (uint, error) {
	var id uint

	err := mm.db.WithContext(ctx).Model(&model.EventRecord{}).Select("COALESCE(MAX(id), 0)").Scan(&id).Error

	return id, err
}
