package redis

import (
	"CraveQuest/internal/model"
	"CraveQuest/internal/pkg/cache"
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := Wrap(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func entryAt(payload string, version time.Time, ttl time.Duration) *cache.Entry {
	return &cache.Entry{
		Payload:    []byte(payload),
		Version:    version.UnixNano(),
		ComputedAt: version,
		ExpiresAt:  version.Add(ttl),
	}
}

func TestCacheBackend_SetGet(t *testing.T) {
	c, mr := newTestClient(t)
	b := NewCacheBackend(c)
	ctx := context.Background()

	missing, err := b.Get(ctx, "ranking:today:overall")
	require.NoError(t, err)
	assert.Nil(t, missing)

	now := time.Unix(1_700_000_000, 123)
	stored, err := b.Set(ctx, "ranking:today:overall", entryAt("v1", now, time.Minute), time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "v1", string(stored.Payload))

	got, err := b.Get(ctx, "ranking:today:overall")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "v1", string(got.Payload))
	assert.Equal(t, now.UnixNano(), got.Version)
	assert.True(t, got.ComputedAt.Equal(now))
	assert.True(t, got.ExpiresAt.Equal(now.Add(time.Minute)))

	assert.Equal(t, time.Hour, mr.TTL(entryNamespace+"ranking:today:overall"))
}

func TestCacheBackend_RejectsOlderVersion(t *testing.T) {
	c, _ := newTestClient(t)
	b := NewCacheBackend(c)
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)

	_, err := b.Set(ctx, "value:1:simple", entryAt("newer", now.Add(time.Second), time.Minute), time.Hour)
	require.NoError(t, err)

	stored, err := b.Set(ctx, "value:1:simple", entryAt("older", now, time.Minute), time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "newer", string(stored.Payload))

	got, err := b.Get(ctx, "value:1:simple")
	require.NoError(t, err)
	assert.Equal(t, "newer", string(got.Payload))
}

func TestCacheBackend_MarkStale(t *testing.T) {
	c, _ := newTestClient(t)
	b := NewCacheBackend(c)
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)

	for _, key := range []string{"ranking:today:overall", "ranking:week:value:1:20", "value:4:taste"} {
		_, err := b.Set(ctx, key, entryAt(key, now, time.Hour), time.Hour)
		require.NoError(t, err)
	}

	invalidatedAt := now.Add(time.Minute).UnixNano()
	require.NoError(t, b.MarkStale(ctx, "ranking:", invalidatedAt))

	for _, key := range []string{"ranking:today:overall", "ranking:week:value:1:20"} {
		got, err := b.Get(ctx, key)
		require.NoError(t, err)
		require.NotNil(t, got, key)
		assert.False(t, got.Fresh(now), key)
		assert.Equal(t, key, string(got.Payload))
		assert.Equal(t, invalidatedAt, got.Version)
	}

	untouched, err := b.Get(ctx, "value:4:taste")
	require.NoError(t, err)
	assert.True(t, untouched.Fresh(now))

	// 失效前开始的计算不能覆盖
	stored, err := b.Set(ctx, "ranking:today:overall", entryAt("late", now.Add(time.Second), time.Hour), time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "ranking:today:overall", string(stored.Payload))
}

func TestCacheBackend_WithCoordinator(t *testing.T) {
	c, _ := newTestClient(t)
	coord := cache.NewCoordinator(testCacheConfig(), NewCacheBackend(c), cache.WithLocker(c))
	ctx := context.Background()

	calls := 0
	fn := func(ctx context.Context) ([]byte, error) {
		calls++
		return []byte("snapshot"), nil
	}
	res, err := coord.GetOrCompute(ctx, "ranking:month:taste", time.Minute, fn)
	require.NoError(t, err)
	assert.Equal(t, "snapshot", string(res.Payload))

	res, err = coord.GetOrCompute(ctx, "ranking:month:taste", time.Minute, fn)
	require.NoError(t, err)
	assert.Equal(t, "snapshot", string(res.Payload))
	assert.Equal(t, 1, calls)
}

func TestClient_Lock(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()

	ok, err := c.TryLock(ctx, "lock:a", "token-1", time.Minute, 0)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.TryLock(ctx, "lock:a", "token-2", time.Minute, 0)
	require.NoError(t, err)
	assert.False(t, ok)

	c.UnLock(ctx, "lock:a", "token-2")
	assert.True(t, mr.Exists("lock:a"))

	c.UnLock(ctx, "lock:a", "token-1")
	assert.False(t, mr.Exists("lock:a"))
}

func TestClient_LockHonoursContext(t *testing.T) {
	c, _ := newTestClient(t)
	ok, err := c.TryLock(context.Background(), "lock:b", "x", time.Minute, 0)
	require.NoError(t, err)
	require.True(t, ok)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	ok, err = c.TryLock(ctx, "lock:b", "y", time.Minute, -1)
	assert.False(t, ok)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestTrendCounters(t *testing.T) {
	c, mr := newTestClient(t)
	tc := NewTrendCounters(c)
	ctx := context.Background()

	for _, key := range []string{"pasta", "pasta", "soup"} {
		require.NoError(t, tc.Incr(ctx, "category", 42, key, time.Hour))
	}

	counts, total, err := tc.Counts(ctx, "category", 42)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"pasta": 2, "soup": 1}, counts)
	assert.Equal(t, int64(3), total)
	assert.Equal(t, time.Hour, mr.TTL(bucketKey("category", 42)))

	empty, total, err := tc.Counts(ctx, "category", 41)
	require.NoError(t, err)
	assert.Empty(t, empty)
	assert.Zero(t, total)
}

func TestBaselineStore(t *testing.T) {
	c, _ := newTestClient(t)
	s := NewBaselineStore(c)
	ctx := context.Background()
	key := model.RankingKey{Period: model.PeriodWeek, Type: model.RankingOverall}

	none, err := s.Load(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, none)

	snap := &model.RankingSnapshot{
		Key:        key,
		ComputedAt: time.Unix(1_700_000_000, 0).UTC(),
		Entries: []*model.RankingEntry{
			{RecipeID: 7, Score: 91.5, Rank: 1, Delta: model.DeltaNew},
			{RecipeID: 3, Score: 80, Rank: 2, PreviousRank: 1, Delta: model.DeltaDown, Movement: 1},
		},
	}
	require.NoError(t, s.Save(ctx, snap))

	got, err := s.Load(ctx, key)
	require.NoError(t, err)
	require.Len(t, got.Entries, 2)
	assert.Equal(t, 2, got.RankOf(3))
	assert.True(t, got.ComputedAt.Equal(snap.ComputedAt))
}

func TestDirtySet(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()
	d := NewDirtySet(c, "dirty:test", "dirty:test:processing")

	ids, err := d.Drain(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	require.NoError(t, d.Mark(ctx, 1, 2, 2))
	ids, err = d.Drain(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint64{1, 2}, ids)

	// 未 Ack 的批次再次返回，期间新标记的 id 留到下一批
	require.NoError(t, d.Mark(ctx, 3))
	ids, err = d.Drain(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint64{1, 2}, ids)

	require.NoError(t, d.Ack(ctx))
	ids, err = d.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint64{3}, ids)
	require.NoError(t, d.Ack(ctx))

	ids, err = d.Drain(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}
