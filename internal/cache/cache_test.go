package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func newTestCache(t *testing.T, opts ...Option) (*Cache, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	opts = append([]Option{WithClock(clock.Now), WithCleanupInterval(0)}, opts...)
	c := New(opts...)
	t.Cleanup(c.Close)
	return c, clock
}

func counter(calls *atomic.Int64, value string) func(context.Context) (string, error) {
	return func(context.Context) (string, error) {
		calls.Add(1)
		return value, nil
	}
}

func TestKey_IgnoresFilterOrder(t *testing.T) {
	a := Key("jobs", map[string]string{"skills": "go", "page": "1"})
	b := Key("jobs", map[string]string{"page": "1", "skills": "go"})
	assert.Equal(t, a, b)
	assert.Contains(t, a, "jobs:")

	c := Key("jobs", map[string]string{"page": "2", "skills": "go"})
	assert.NotEqual(t, a, c)

	assert.NotEqual(t, Key("filters", nil), Key("stats", nil))
}

func TestGetOrCompute_HitWithinTTL(t *testing.T) {
	c, clock := newTestCache(t)
	ctx := context.Background()
	var calls atomic.Int64

	v, err := GetOrCompute(ctx, c, "filters", nil, time.Minute, counter(&calls, "first"))
	require.NoError(t, err)
	assert.Equal(t, "first", v)

	clock.Advance(59 * time.Second)
	v, err = GetOrCompute(ctx, c, "filters", nil, time.Minute, counter(&calls, "second"))
	require.NoError(t, err)
	assert.Equal(t, "first", v)
	assert.Equal(t, int64(1), calls.Load())

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 1, stats.Entries)
}

func TestGetOrCompute_RecomputesAfterTTL(t *testing.T) {
	c, clock := newTestCache(t)
	ctx := context.Background()
	var calls atomic.Int64

	_, err := GetOrCompute(ctx, c, "stats", nil, time.Minute, counter(&calls, "old"))
	require.NoError(t, err)

	clock.Advance(time.Minute)
	v, err := GetOrCompute(ctx, c, "stats", nil, time.Minute, counter(&calls, "new"))
	require.NoError(t, err)
	assert.Equal(t, "new", v)
	assert.Equal(t, int64(2), calls.Load())
}

func TestGetOrCompute_ErrorsAreNotCached(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	boom := errors.New("database unavailable")

	_, err := GetOrCompute(ctx, c, "stats", nil, time.Minute, func(context.Context) (int, error) {
		return 0, boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Stats().Entries)

	v, err := GetOrCompute(ctx, c, "stats", nil, time.Minute, func(context.Context) (int, error) {
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestGetOrCompute_DistinctFiltersDoNotCollide(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	a, err := GetOrCompute(ctx, c, "posting", map[string]string{"id": "a"}, time.Minute, func(context.Context) (string, error) {
		return "posting a", nil
	})
	require.NoError(t, err)
	b, err := GetOrCompute(ctx, c, "posting", map[string]string{"id": "b"}, time.Minute, func(context.Context) (string, error) {
		return "posting b", nil
	})
	require.NoError(t, err)

	assert.Equal(t, "posting a", a)
	assert.Equal(t, "posting b", b)
}

func TestGetOrCompute_ReturnsStructValues(t *testing.T) {
	type counts struct {
		Total  int `json:"total"`
		Remote int `json:"remote"`
	}
	c, _ := newTestCache(t)
	ctx := context.Background()

	compute := func(context.Context) (counts, error) { return counts{Total: 4, Remote: 1}, nil }
	first, err := GetOrCompute(ctx, c, "stats", nil, time.Minute, compute)
	require.NoError(t, err)
	second, err := GetOrCompute(ctx, c, "stats", nil, time.Minute, compute)
	require.NoError(t, err)

	assert.Equal(t, counts{Total: 4, Remote: 1}, first)
	assert.Equal(t, first, second)
}

func TestGetOrCompute_SharesConcurrentMisses(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	var calls atomic.Int64
	release := make(chan struct{})

	compute := func(context.Context) (string, error) {
		calls.Add(1)
		<-release
		return "shared", nil
	}

	const workers = 8
	var wg sync.WaitGroup
	results := make([]string, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := GetOrCompute(ctx, c, "filters", nil, time.Minute, compute)
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int64(1), calls.Load())
	for _, v := range results {
		assert.Equal(t, "shared", v)
	}
}

func TestGetOrCompute_NilCacheAlwaysComputes(t *testing.T) {
	var calls atomic.Int64
	for i := 0; i < 3; i++ {
		_, err := GetOrCompute(context.Background(), nil, "filters", nil, time.Minute, counter(&calls, "x"))
		require.NoError(t, err)
	}
	assert.Equal(t, int64(3), calls.Load())
}

func TestInvalidatePrefix(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	var calls atomic.Int64

	for _, endpoint := range []string{"filters", "stats", "posting"} {
		_, err := GetOrCompute(ctx, c, endpoint, nil, time.Minute, counter(&calls, endpoint))
		require.NoError(t, err)
	}

	removed, err := c.InvalidatePrefix(ctx, "stats")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 2, c.Stats().Entries)

	_, err = GetOrCompute(ctx, c, "filters", nil, time.Minute, counter(&calls, "again"))
	require.NoError(t, err)
	assert.Equal(t, int64(3), calls.Load(), "filters entry should survive")

	_, err = GetOrCompute(ctx, c, "stats", nil, time.Minute, counter(&calls, "again"))
	require.NoError(t, err)
	assert.Equal(t, int64(4), calls.Load(), "stats entry should be recomputed")
}

func TestWipe(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	var calls atomic.Int64

	_, err := GetOrCompute(ctx, c, "filters", nil, time.Minute, counter(&calls, "v"))
	require.NoError(t, err)
	require.NoError(t, c.Wipe(ctx))
	assert.Equal(t, 0, c.Stats().Entries)

	_, err = GetOrCompute(ctx, c, "filters", nil, time.Minute, counter(&calls, "v"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), calls.Load())
}

func TestMaxEntries_EvictsOldest(t *testing.T) {
	c, clock := newTestCache(t, WithMaxEntries(2))
	ctx := context.Background()
	var calls atomic.Int64

	for _, id := range []string{"a", "b", "c"} {
		_, err := GetOrCompute(ctx, c, "posting", map[string]string{"id": id}, time.Hour, counter(&calls, id))
		require.NoError(t, err)
		clock.Advance(time.Second)
	}
	assert.Equal(t, 2, c.Stats().Entries)

	// "a" was oldest and must have been evicted.
	_, err := GetOrCompute(ctx, c, "posting", map[string]string{"id": "a"}, time.Hour, counter(&calls, "a"))
	require.NoError(t, err)
	assert.Equal(t, int64(4), calls.Load())
}

func TestGetOrCompute_WaiterSurvivesLeaderCancellation(t *testing.T) {
	c, _ := newTestCache(t)
	var calls atomic.Int64
	started := make(chan struct{})
	release := make(chan struct{})

	compute := func(ctx context.Context) (string, error) {
		calls.Add(1)
		close(started)
		select {
		case <-release:
			return "fresh", nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	leaderCtx, cancel := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := GetOrCompute(leaderCtx, c, "filters", nil, time.Minute, compute)
		leaderErr <- err
	}()

	<-started
	type result struct {
		value string
		err   error
	}
	waiter := make(chan result, 1)
	go func() {
		v, err := GetOrCompute(context.Background(), c, "filters", nil, time.Minute, compute)
		waiter <- result{v, err}
	}()

	cancel()
	assert.ErrorIs(t, <-leaderErr, context.Canceled)

	time.Sleep(20 * time.Millisecond)
	close(release)

	got := <-waiter
	require.NoError(t, got.err)
	assert.Equal(t, "fresh", got.value)
	assert.Equal(t, int64(1), calls.Load())
	assert.Equal(t, 1, c.Stats().Entries, "the shared result is cached even though the leader left")
}

func TestGetOrCompute_CallerStopsWaitingOnOwnCancellation(t *testing.T) {
	c, _ := newTestCache(t)
	release := make(chan struct{})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := GetOrCompute(ctx, c, "stats", nil, time.Minute, func(context.Context) (int, error) {
		<-release
		return 1, nil
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
