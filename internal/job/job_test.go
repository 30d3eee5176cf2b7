package job

import (
	"CraveQuest/internal/api/config"
	"CraveQuest/internal/model"
	"CraveQuest/internal/pkg/cache"
	"CraveQuest/internal/pkg/redis"
	"CraveQuest/internal/pkg/taskqueue"
	"CraveQuest/internal/service"
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRankingService struct {
	mu            sync.Mutex
	refreshed     []string
	failures      map[string]int
	invalidations int
	invalidateErr error
}

func (f *fakeRankingService) GetRanking(context.Context, model.Period, model.RankingType, int, int) (*service.RankingPage, error) {
	return nil, nil
}

func (f *fakeRankingService) GetSnapshot(context.Context, model.RankingKey) (*model.RankingSnapshot, bool, error) {
	return nil, false, nil
}

func (f *fakeRankingService) RefreshSnapshot(_ context.Context, key model.RankingKey) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures[key.String()] > 0 {
		f.failures[key.String()]--
		return errors.New("store unavailable")
	}
	f.refreshed = append(f.refreshed, key.String())
	return nil
}

func (f *fakeRankingService) InvalidateRankings(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.invalidateErr != nil {
		return f.invalidateErr
	}
	f.invalidations++
	return nil
}

type fakeDirtyQueue struct {
	pending []uint64
	acked   int
	err     error
}

func (f *fakeDirtyQueue) Drain(context.Context) ([]uint64, error) {
	return f.pending, f.err
}

func (f *fakeDirtyQueue) Ack(context.Context) error {
	f.acked++
	f.pending = nil
	return nil
}

func testQueue() *taskqueue.Queue {
	return taskqueue.New(2, 2, taskqueue.WithBackoff(time.Millisecond, 5*time.Millisecond))
}

func TestNewHotSnapshotRefreshJob_InvalidKey(t *testing.T) {
	_, err := NewHotSnapshotRefreshJob(&fakeRankingService{}, testQueue(), []string{"today:overall", "decade:overall"}, nil)
	assert.ErrorContains(t, err, "decade:overall")
}

func TestHotSnapshotRefreshJob(t *testing.T) {
	svc := &fakeRankingService{failures: map[string]int{"week:overall": 1}}
	j, err := NewHotSnapshotRefreshJob(svc, testQueue(), []string{"today:overall", "today:value", "week:overall"}, nil)
	require.NoError(t, err)

	require.NoError(t, j.run(context.Background()))
	assert.ElementsMatch(t, []string{"today:overall", "today:value", "week:overall"}, svc.refreshed)

	// 重试耗尽的榜单单独报错，其他榜单照常刷新
	svc.refreshed = nil
	svc.failures["today:value"] = 10
	err = j.run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), fmt.Sprintf("task %s", "today:value"))
	assert.ElementsMatch(t, []string{"today:overall", "week:overall"}, svc.refreshed)

	j.Run()
}

// flakyEngine 前 failures 次计算失败
type flakyEngine struct {
	calls    atomic.Int32
	failures atomic.Int32
}

func (e *flakyEngine) Compute(_ context.Context, key model.RankingKey) (*model.RankingSnapshot, error) {
	e.calls.Add(1)
	if e.failures.Add(-1) >= 0 {
		return nil, errors.New("engine unavailable")
	}
	return &model.RankingSnapshot{Key: key, ComputedAt: time.Now()}, nil
}

func TestHotSnapshotRefreshJob_RetriesFailedCompute(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.Wrap(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = client.Close() })

	cfg := config.Default()
	engine := &flakyEngine{}
	coord := cache.NewCoordinator(cfg.Cache, redis.NewCacheBackend(client), cache.WithPassthrough(service.IsInputError))
	rankingSvc := service.NewRankingService(engine, coord, cfg.Ranking)
	j, err := NewHotSnapshotRefreshJob(rankingSvc, testQueue(), []string{"today:overall"}, nil)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, j.run(ctx))
	assert.Equal(t, int32(1), engine.calls.Load())

	// 已有旧快照时计算失败仍要报错，交给队列重试
	engine.failures.Store(1)
	require.NoError(t, j.run(ctx))
	assert.Equal(t, int32(3), engine.calls.Load())

	engine.failures.Store(10)
	err = j.run(ctx)
	assert.ErrorIs(t, err, service.ErrRefreshStale)
	assert.Equal(t, int32(6), engine.calls.Load())
}

func TestRankingDirtyJob(t *testing.T) {
	svc := &fakeRankingService{}
	dirty := &fakeDirtyQueue{}
	j := NewRankingDirtyJob(svc, dirty, nil)
	ctx := context.Background()

	require.NoError(t, j.run(ctx))
	assert.Zero(t, svc.invalidations)
	assert.Zero(t, dirty.acked)

	dirty.pending = []uint64{1, 2}
	svc.invalidateErr = errors.New("redis down")
	assert.Error(t, j.run(ctx))
	assert.Zero(t, dirty.acked)
	assert.Len(t, dirty.pending, 2)

	svc.invalidateErr = nil
	require.NoError(t, j.run(ctx))
	assert.Equal(t, 1, svc.invalidations)
	assert.Equal(t, 1, dirty.acked)

	dirty.err = errors.New("drain failed")
	assert.Error(t, j.run(ctx))
	j.Run()
}
