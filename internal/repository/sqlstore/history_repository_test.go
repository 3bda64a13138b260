package sqlstore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryRecordVisitSequential(t *testing.T) {
	eachStore(t, func(t *testing.T, db *DB) {
		ctx := context.Background()
		repo := NewHistoryRepository(db)
		userID := createUser(t, db)

		const visits = 5
		base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		for i := 0; i < visits; i++ {
			item, err := repo.RecordVisit(ctx, userID, "https://example.com", strPtr("Example"), base.Add(time.Duration(i)*time.Minute))
			require.NoError(t, err)
			assert.Equal(t, i+1, item.VisitCount)
		}

		items, err := repo.ListByUser(ctx, userID)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, visits, items[0].VisitCount)
		assert.True(t, items[0].LastVisitTime.Equal(base.Add((visits-1)*time.Minute)))
		require.NotNil(t, items[0].Title)
		assert.Equal(t, "Example", *items[0].Title)
	})
}

func TestHistoryRecordVisitConcurrent(t *testing.T) {
	eachStore(t, func(t *testing.T, db *DB) {
		ctx := context.Background()
		repo := NewHistoryRepository(db)
		userID := createUser(t, db)

		const callers = 8
		start := make(chan struct{})
		errs := make(chan error, callers)
		var wg sync.WaitGroup
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				_, err := repo.RecordVisit(ctx, userID, "https://race.example", nil, time.Now())
				errs <- err
			}()
		}
		close(start)
		wg.Wait()
		close(errs)

		for err := range errs {
			require.NoError(t, err)
		}

		items, err := repo.ListByUser(ctx, userID)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, callers, items[0].VisitCount)
	})
}

func TestHistoryLastVisitTimeNeverMovesBack(t *testing.T) {
	eachStore(t, func(t *testing.T, db *DB) {
		ctx := context.Background()
		repo := NewHistoryRepository(db)
		userID := createUser(t, db)

		later := time.Date(2024, 3, 1, 12, 30, 0, 500000000, time.UTC)
		earlier := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

		_, err := repo.RecordVisit(ctx, userID, "https://example.com", nil, later)
		require.NoError(t, err)

		item, err := repo.RecordVisit(ctx, userID, "https://example.com", nil, earlier)
		require.NoError(t, err)
		assert.Equal(t, 2, item.VisitCount)
		assert.True(t, item.LastVisitTime.Equal(later), "got %s", item.LastVisitTime)
	})
}

func TestHistoryTitleKeptWhenOmitted(t *testing.T) {
	eachStore(t, func(t *testing.T, db *DB) {
		ctx := context.Background()
		repo := NewHistoryRepository(db)
		userID := createUser(t, db)
		now := time.Now()

		_, err := repo.RecordVisit(ctx, userID, "https://example.com", strPtr("First"), now)
		require.NoError(t, err)

		item, err := repo.RecordVisit(ctx, userID, "https://example.com", nil, now)
		require.NoError(t, err)
		require.NotNil(t, item.Title)
		assert.Equal(t, "First", *item.Title)

		item, err = repo.RecordVisit(ctx, userID, "https://example.com", strPtr("Second"), now)
		require.NoError(t, err)
		require.NotNil(t, item.Title)
		assert.Equal(t, "Second", *item.Title)
	})
}

func TestHistoryIsolatedPerUser(t *testing.T) {
	eachStore(t, func(t *testing.T, db *DB) {
		ctx := context.Background()
		repo := NewHistoryRepository(db)
		alice := createUser(t, db)
		bob := createUser(t, db)

		_, err := repo.RecordVisit(ctx, alice, "https://shared.example", nil, time.Now())
		require.NoError(t, err)
		_, err = repo.RecordVisit(ctx, alice, "https://alice.example", nil, time.Now())
		require.NoError(t, err)

		items, err := repo.ListByUser(ctx, bob)
		require.NoError(t, err)
		assert.Empty(t, items)
		assert.NotNil(t, items)

		item, err := repo.RecordVisit(ctx, bob, "https://shared.example", nil, time.Now())
		require.NoError(t, err)
		assert.Equal(t, 1, item.VisitCount)

		items, err = repo.ListByUser(ctx, alice)
		require.NoError(t, err)
		require.Len(t, items, 2)
		for _, it := range items {
			assert.Equal(t, alice, it.UserID)
			assert.Equal(t, 1, it.VisitCount)
		}
	})
}

func TestHistoryListOrderedByLastVisit(t *testing.T) {
	eachStore(t, func(t *testing.T, db *DB) {
		ctx := context.Background()
		repo := NewHistoryRepository(db)
		userID := createUser(t, db)
		base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

		_, err := repo.RecordVisit(ctx, userID, "https://old.example", nil, base)
		require.NoError(t, err)
		_, err = repo.RecordVisit(ctx, userID, "https://new.example", nil, base.Add(time.Hour))
		require.NoError(t, err)

		items, err := repo.ListByUser(ctx, userID)
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, "https://new.example", items[0].URL)
		assert.Equal(t, "https://old.example", items[1].URL)
	})
}
