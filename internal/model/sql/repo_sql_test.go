package sql

import (
	"context"
	"fmt"
	"imagestudio/internal/entity"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestStore(t *testing.T, limit int) *GormHistoryStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history.db")
	gdb, err := gorm.Open(sqlite.Open(path+"?_busy_timeout=5000"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	store := NewGormHistoryStore(gdb, limit)
	require.NoError(t, store.Migrate())
	return store
}

func TestGormHistoryStoreAppendLoad(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, 0)

	records, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	first := entity.NewHistoryRecord("a red fox in snow", "https://cdn.example/img123.png", at)
	second := entity.NewHistoryRecord("a blue whale", "https://cdn.example/img124.png", at)
	require.NoError(t, store.Append(ctx, first))
	require.NoError(t, store.Append(ctx, second))

	records, err = store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, second.ID, records[0].ID)
	assert.Equal(t, first.ID, records[1].ID)
	assert.Equal(t, "https://cdn.example/img123.png", records[1].ImageURL)
	assert.True(t, records[1].Timestamp.Equal(at))
}

func TestGormHistoryStoreTrimsOldest(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, 3)

	for i := 0; i < 5; i++ {
		rec := entity.NewHistoryRecord(fmt.Sprintf("prompt %d", i), fmt.Sprintf("https://cdn.example/%d.png", i), time.Now())
		require.NoError(t, store.Append(ctx, rec))
	}

	records, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"prompt 4", "prompt 3", "prompt 2"},
		[]string{records[0].Prompt, records[1].Prompt, records[2].Prompt})
}

func TestGormHistoryStoreConcurrentAppend(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, 0)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec := entity.NewHistoryRecord(fmt.Sprintf("p%d", i), "https://cdn.example/x.png", time.Now())
			assert.NoError(t, store.Append(ctx, rec))
		}(i)
	}
	wg.Wait()

	records, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 10)
}
