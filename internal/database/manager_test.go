package database

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/kdudkov/scanrelay/internal/store"
	"github.com/kdudkov/scanrelay/pkg/model"
)

func getTestManager(t *testing.T) *DatabaseManager {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	// every new connection would get its own empty in-memory database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	mm := New(db).SetPollInterval(time.Millisecond * 10)
	require.NoError(t, mm.Migrate())

	t.Cleanup(func() { _ = mm.Close() })

	return mm
}

func ev(typ, ts, tg, radio string) *model.RadioEvent {
	return &model.RadioEvent{EventType: typ, Timestamp: ts, TalkgroupOrSource: tg, RadioID: radio}
}

func TestFindAndCount(t *testing.T) {
	mm := getTestManager(t)
	ctx := context.Background()

	require.NoError(t, mm.Insert(ctx,
		ev("call_start", "2024-01-01T10:00:00Z", "1001", "1"),
		ev("location", "2024-01-01T10:00:01Z", "1001", "2"),
		ev("call_end", "2024-01-01T10:00:02Z", "1002", "3"),
		ev("call_start", "2024-01-01T09:00:00Z", "1001", "4"),
	))

	n, err := mm.Count(ctx, store.Filter{Talkgroup: "1001"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	res, err := mm.Find(ctx, store.Filter{Talkgroup: "1001"}, store.NewestFirst, 2)
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, "2", res[0].RadioID)
	assert.Equal(t, "1", res[1].RadioID)

	res, err = mm.Find(ctx, store.Filter{Since: "2024-01-01T10:00:00Z", ExcludeTypes: []string{"location"}}, store.OldestFirst, 0)
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, "1", res[0].RadioID)
	assert.Equal(t, "3", res[1].RadioID)

	n, err = mm.Count(ctx, store.Filter{Since: "2024-01-01T10:00:01Z"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestSinceBoundPrecision(t *testing.T) {
	mm := getTestManager(t)
	ctx := context.Background()

	require.NoError(t, mm.Insert(ctx,
		ev("call_start", "2024-01-01T10:00:04Z", "1001", "1"),
		ev("call_start", "2024-01-01T10:00:05Z", "1001", "2"),
		ev("call_start", "2024-01-01T10:00:06Z", "1001", "3"),
	))

	ids := func(since string) []string {
		res, err := mm.Find(ctx, store.Filter{Since: since}, store.OldestFirst, 0)
		require.NoError(t, err)

		var r []string
		for _, e := range res {
			r = append(r, e.RadioID)
		}

		return r
	}

	bound := model.FormatTime(time.Date(2024, 1, 1, 10, 0, 5, 500_000_000, time.UTC))
	require.Equal(t, "2024-01-01T10:00:05.500Z", bound)

	assert.Equal(t, []string{"2", "3"}, ids("2024-01-01T10:00:05Z"))
	assert.Equal(t, ids("2024-01-01T10:00:05Z"), ids(bound))
}

func TestExtraFieldsKept(t *testing.T) {
	mm := getTestManager(t)
	ctx := context.Background()

	e := ev("call_start", "2024-01-01T10:00:00Z", "1001", "1")
	e.Extra = map[string]any{"freq": "851.0125"}
	e.TalkgroupInfo = &model.TalkgroupInfo{AlphaTag: "never stored"}

	require.NoError(t, mm.Insert(ctx, e))

	res, err := mm.Find(ctx, store.Filter{}, store.Unsorted, 0)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "851.0125", res[0].Extra["freq"])
	assert.Nil(t, res[0].TalkgroupInfo)
	assert.NotEmpty(t, res[0].ID)
}

func TestTail(t *testing.T) {
	mm := getTestManager(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	require.NoError(t, mm.Insert(ctx, ev("call_start", "2024-01-01T10:00:00Z", "1001", "old")))

	feed, err := mm.Tail(ctx)
	require.NoError(t, err)

	go func() {
		for i := 0; i < 5; i++ {
			_ = mm.Insert(ctx, ev("call_start", "2024-01-01T10:00:00Z", "1001", fmt.Sprintf("r%d", i)))
			time.Sleep(time.Millisecond * 5)
		}
	}()

	for i := 0; i < 5; i++ {
		e, err := feed.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("r%d", i), e.RadioID)
	}

	require.NoError(t, feed.Close())

	_, err = feed.Next(ctx)
	require.ErrorIs(t, err, io.EOF)
}

func TestTailCancel(t *testing.T) {
	mm := getTestManager(t)
	ctx, cancel := context.WithCancel(context.Background())

	feed, err := mm.Tail(ctx)
	require.NoError(t, err)

	go func() {
		time.Sleep(time.Millisecond * 50)
		cancel()
	}()

	_, err = feed.Next(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestClosedDatabase(t *testing.T) {
	mm := getTestManager(t)
	require.NoError(t, mm.Close())

	_, err := mm.Find(context.Background(), store.Filter{}, store.NewestFirst, 10)
	require.ErrorIs(t, err, store.ErrUnavailable)

	_, err = mm.Tail(context.Background())
	require.ErrorIs(t, err, store.ErrUnavailable)
}
