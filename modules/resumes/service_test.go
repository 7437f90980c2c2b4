package resumes_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/resumekit/modules/resumes"
	"github.com/dmitrymomot/resumekit/pkg/subscription"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeCache is an in-memory CountCache tracking hits and invalidations.
type fakeCache struct {
	mu      sync.Mutex
	entries map[string]int64
	gets    int
	dels    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]int64)}
}

func (c *fakeCache) Get(_ context.Context, key string) (int64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	v, ok := c.entries[key]
	return v, ok, nil
}

func (c *fakeCache) Set(_ context.Context, key string, value int64, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	return nil
}

func (c *fakeCache) Del(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dels++
	delete(c.entries, key)
	return nil
}

// staticLevels resolves every user to a fixed level.
type staticLevels struct {
	level subscription.SubscriptionLevel
}

func (s staticLevels) Level(context.Context, string) subscription.SubscriptionLevel {
	return s.level
}

func newTestService(level subscription.SubscriptionLevel) (*resumes.Service, *fakeCache) {
	store := resumes.NewMemoryStore()
	cache := newFakeCache()
	counter := resumes.NewCounter(store, cache, testLogger())
	svc := resumes.NewService(store, counter, staticLevels{level: level}, testLogger())
	return svc, cache
}

func TestServiceCreateEnforcesLimit(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	tests := []struct {
		level subscription.SubscriptionLevel
		limit int
	}{
		{subscription.LevelFree, 1},
		{subscription.LevelOneTime, 1},
		{subscription.LevelPro, 3},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(string(tt.level), func(t *testing.T) {
			t.Parallel()

			svc, _ := newTestService(tt.level)
			for i := 0; i < tt.limit; i++ {
				_, err := svc.Create(ctx, "user_1", "Resume")
				require.NoError(t, err, "create %d within limit", i+1)
			}

			_, err := svc.Create(ctx, "user_1", "One too many")
			assert.ErrorIs(t, err, resumes.ErrResumeLimitReached)
		})
	}

	t.Run("pro_plus has no limit", func(t *testing.T) {
		t.Parallel()

		svc, _ := newTestService(subscription.LevelProPlus)
		for i := 0; i < 20; i++ {
			_, err := svc.Create(ctx, "user_1", "Resume")
			require.NoError(t, err)
		}
	})

	t.Run("deleting frees up a slot", func(t *testing.T) {
		t.Parallel()

		svc, _ := newTestService(subscription.LevelFree)
		created, err := svc.Create(ctx, "user_1", "Resume")
		require.NoError(t, err)

		_, err = svc.Create(ctx, "user_1", "Blocked")
		require.ErrorIs(t, err, resumes.ErrResumeLimitReached)

		require.NoError(t, svc.Delete(ctx, "user_1", created.ID))

		_, err = svc.Create(ctx, "user_1", "Allowed again")
		assert.NoError(t, err)
	})

	t.Run("other users do not count against the limit", func(t *testing.T) {
		t.Parallel()

		svc, _ := newTestService(subscription.LevelFree)
		_, err := svc.Create(ctx, "user_1", "Resume")
		require.NoError(t, err)

		_, err = svc.Create(ctx, "user_2", "Resume")
		assert.NoError(t, err)
	})
}

func TestServiceCreateValidation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _ := newTestService(subscription.LevelPro)

	_, err := svc.Create(ctx, "", "Resume")
	assert.ErrorIs(t, err, resumes.ErrUnauthorized)

	_, err = svc.Create(ctx, "user_1", "   ")
	assert.ErrorIs(t, err, resumes.ErrMissingTitle)
}

func TestServiceListAndDelete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _ := newTestService(subscription.LevelProPlus)

	first, err := svc.Create(ctx, "user_1", "First")
	require.NoError(t, err)
	_, err = svc.Create(ctx, "user_1", "Second")
	require.NoError(t, err)

	list, err := svc.List(ctx, "user_1")
	require.NoError(t, err)
	assert.Len(t, list, 2)

	require.NoError(t, svc.Delete(ctx, "user_1", first.ID))

	list, err = svc.List(ctx, "user_1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Second", list[0].Title)

	// Deleting someone else's resume is not found.
	err = svc.Delete(ctx, "user_2", list[0].ID)
	assert.ErrorIs(t, err, resumes.ErrResumeNotFound)
}

func TestServiceQuota(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("free user", func(t *testing.T) {
		t.Parallel()

		svc, _ := newTestService(subscription.LevelFree)
		quota, err := svc.Quota(ctx, "user_1")
		require.NoError(t, err)
		assert.Equal(t, subscription.LevelFree, quota.Level)
		assert.EqualValues(t, 0, quota.Count)
		assert.EqualValues(t, 1, quota.MaxResumes)
		assert.True(t, quota.CanCreateResume)
		assert.False(t, quota.CanUseAITools)
		assert.False(t, quota.CanUseCustomizations)
	})

	t.Run("pro plus user", func(t *testing.T) {
		t.Parallel()

		svc, _ := newTestService(subscription.LevelProPlus)
		_, err := svc.Create(ctx, "user_1", "Resume")
		require.NoError(t, err)

		quota, err := svc.Quota(ctx, "user_1")
		require.NoError(t, err)
		assert.EqualValues(t, 1, quota.Count)
		assert.Equal(t, subscription.Unlimited, quota.MaxResumes)
		assert.True(t, quota.CanCreateResume)
		assert.True(t, quota.CanUseAITools)
		assert.True(t, quota.CanUseCustomizations)
	})
}

func TestCounterCaching(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("second read is served from cache", func(t *testing.T) {
		t.Parallel()

		store := resumes.NewMemoryStore()
		cache := newFakeCache()
		counter := resumes.NewCounter(store, cache, testLogger())

		count, err := counter.Count(ctx, "user_1")
		require.NoError(t, err)
		assert.EqualValues(t, 0, count)

		// The first read populated the cache.
		cache.mu.Lock()
		_, cached := cache.entries["resumes:count:user_1"]
		cache.mu.Unlock()
		assert.True(t, cached)
	})

	t.Run("create invalidates the cached count", func(t *testing.T) {
		t.Parallel()

		svc, cache := newTestService(subscription.LevelPro)

		_, err := svc.Create(ctx, "user_1", "Resume")
		require.NoError(t, err)
		assert.GreaterOrEqual(t, cache.dels, 1)

		count, err := svc.Quota(ctx, "user_1")
		require.NoError(t, err)
		assert.EqualValues(t, 1, count.Count)
	})
}
