package cache

import (
	"CraveQuest/internal/api/config"
	"CraveQuest/internal/pkg/metrics"
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/singleflight"
)

const lockPrefix = "lock:"

// Result 读取结果，Stale 表示重新计算失败后返回的旧数据
type Result struct {
	Payload    []byte
	Version    int64
	ComputedAt time.Time
	ExpiresAt  time.Time
	Stale      bool
}

type ComputeFunc func(ctx context.Context) ([]byte, error)

type Option func(*Coordinator)

// WithLocker 启用跨实例锁，多个副本同一时刻只有一个在重新计算
func WithLocker(l Locker) Option {
	return func(c *Coordinator) { c.locker = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Coordinator) { c.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// WithPassthrough 命中的错误直接返回给调用方：不降级为旧数据，也不计入熔断
func WithPassthrough(fn func(error) bool) Option {
	return func(c *Coordinator) { c.passthrough = fn }
}

// Coordinator 缓存协调器
// 每个 key 同一时刻最多一个计算在进行，其余读者等待其结果
type Coordinator struct {
	backend     Backend
	locker      Locker
	metrics     *metrics.Metrics
	breaker     *gobreaker.CircuitBreaker[[]byte]
	group       singleflight.Group
	cfg         config.CacheConfig
	now         func() time.Time
	passthrough func(error) bool
}

func NewCoordinator(cfg config.CacheConfig, backend Backend, opts ...Option) *Coordinator {
	c := &Coordinator{
		backend:     backend,
		cfg:         cfg,
		now:         time.Now,
		passthrough: func(error) bool { return false },
	}
	for _, opt := range opts {
		opt(c)
	}
	if cfg.Breaker.Enable {
		c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
			Name:    "cache-compute",
			Timeout: cfg.Breaker.Timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= cfg.Breaker.FailureThreshold
			},
			IsSuccessful: func(err error) bool {
				return err == nil || c.passthrough(err)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn("Circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
			},
		})
	}
	return c
}

// Get 只返回未过期的条目
func (c *Coordinator) Get(ctx context.Context, key string) (Result, bool) {
	e, err := c.backend.Get(ctx, key)
	if err != nil {
		log.WarnContext(ctx, "Cache get failed", "key", key, "err", err)
		return Result{}, false
	}
	if !e.Fresh(c.now()) {
		return Result{}, false
	}
	return resultOf(e, false), true
}

// GetOrCompute 命中直接返回；未命中或已过期时通过 single-flight 重新计算
func (c *Coordinator) GetOrCompute(ctx context.Context, key string, ttl time.Duration, fn ComputeFunc) (Result, error) {
	cached, err := c.backend.Get(ctx, key)
	if err != nil {
		log.WarnContext(ctx, "Cache get failed, recomputing", "key", key, "err", err)
		cached = nil
	}
	if cached.Fresh(c.now()) {
		c.metrics.IncCacheRequest(key, metrics.ResultHit)
		return resultOf(cached, false), nil
	}
	c.metrics.IncCacheRequest(key, metrics.ResultMiss)
	return c.await(ctx, key, ttl, fn, cached, false)
}

// Refresh 不论是否过期都重新计算，供后台刷新热点 key
func (c *Coordinator) Refresh(ctx context.Context, key string, ttl time.Duration, fn ComputeFunc) (Result, error) {
	cached, err := c.backend.Get(ctx, key)
	if err != nil {
		cached = nil
	}
	return c.await(ctx, key, ttl, fn, cached, true)
}

// Put 写入由 source 派生的数据，不经过熔断和 single-flight
// 版本与过期时间沿用 source：source 之后的失效会拒绝这次写入，派生条目也不会比 source 更晚过期
func (c *Coordinator) Put(ctx context.Context, key string, payload []byte, source Result) error {
	now := c.now()
	if source.Stale || !now.Before(source.ExpiresAt) {
		return nil
	}
	entry := &Entry{Payload: payload, Version: source.Version, ComputedAt: source.ComputedAt, ExpiresAt: source.ExpiresAt}
	if _, err := c.backend.Set(ctx, key, entry, c.retention(source.ExpiresAt.Sub(now))); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

// Invalidate 将前缀下的条目标记为过期，旧数据保留用于降级
func (c *Coordinator) Invalidate(ctx context.Context, prefix string) error {
	if err := c.backend.MarkStale(ctx, prefix, c.now().UnixNano()); err != nil {
		return fmt.Errorf("invalidate %s: %w", prefix, err)
	}
	log.DebugContext(ctx, "Cache invalidated", "prefix", prefix)
	return nil
}

func (c *Coordinator) await(ctx context.Context, key string, ttl time.Duration, fn ComputeFunc, stale *Entry, force bool) (Result, error) {
	// 计算不随首个调用者取消，仅受 compute_timeout 约束
	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		return c.compute(detached, key, ttl, fn, force)
	})

	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case res := <-ch:
		if res.Err == nil {
			return res.Val.(Result), nil
		}
		return c.fallback(ctx, key, stale, res.Err)
	}
}

func (c *Coordinator) compute(ctx context.Context, key string, ttl time.Duration, fn ComputeFunc, force bool) (Result, error) {
	tctx, cancel := context.WithTimeout(ctx, c.cfg.ComputeTimeout)
	defer cancel()

	if c.locker != nil {
		lockKey := lockPrefix + key
		token := uuid.NewString()
		ok, err := c.locker.TryLock(tctx, lockKey, token, c.cfg.LockTTL, c.cfg.LockRetry)
		if err != nil {
			log.WarnContext(ctx, "Cache lock failed, computing without lock", "key", key, "err", err)
		}
		if ok {
			defer c.locker.UnLock(ctx, lockKey, token)
		}
		// 等锁期间其他实例可能已经写入；强制刷新不复用
		if !force {
			if e, err := c.backend.Get(ctx, key); err == nil && e.Fresh(c.now()) {
				return resultOf(e, false), nil
			}
		}
	}

	version := c.now().UnixNano()
	start := time.Now()
	payload, err := c.run(tctx, fn)
	elapsed := time.Since(start).Seconds()
	if err != nil {
		status := metrics.StatusFailure
		if errors.Is(err, ErrRecomputeTimeout) {
			status = metrics.StatusTimeout
		}
		c.metrics.ObserveComputation(key, status, elapsed)
		log.WarnContext(ctx, "Cache compute failed", "key", key, "err", err)
		return Result{}, err
	}
	c.metrics.ObserveComputation(key, metrics.StatusSuccess, elapsed)

	now := c.now()
	entry := &Entry{Payload: payload, Version: version, ComputedAt: now, ExpiresAt: now.Add(ttl)}
	stored, err := c.backend.Set(ctx, key, entry, c.retention(ttl))
	if err != nil {
		log.WarnContext(ctx, "Cache set failed", "key", key, "err", err)
		return resultOf(entry, false), nil
	}
	if stored != nil && stored.Version > entry.Version && stored.Fresh(now) {
		return resultOf(stored, false), nil
	}
	return resultOf(entry, false), nil
}

// run 在截止时间到达时立即返回，计算协程收到取消信号后自行退出
func (c *Coordinator) run(ctx context.Context, fn ComputeFunc) ([]byte, error) {
	type outcome struct {
		payload []byte
		err     error
	}
	done := make(chan outcome, 1)
	go func() {
		payload, err := c.execute(ctx, fn)
		done <- outcome{payload, err}
	}()

	select {
	case o := <-done:
		if o.err != nil && errors.Is(o.err, context.DeadlineExceeded) {
			return nil, ErrRecomputeTimeout
		}
		return o.payload, o.err
	case <-ctx.Done():
		return nil, ErrRecomputeTimeout
	}
}

func (c *Coordinator) execute(ctx context.Context, fn ComputeFunc) ([]byte, error) {
	if c.breaker == nil {
		return fn(ctx)
	}
	return c.breaker.Execute(func() ([]byte, error) {
		return fn(ctx)
	})
}

func (c *Coordinator) fallback(ctx context.Context, key string, stale *Entry, err error) (Result, error) {
	if c.passthrough(err) {
		return Result{}, err
	}
	if stale != nil {
		log.WarnContext(ctx, "Serving stale cache entry", "key", key, "computed_at", stale.ComputedAt, "err", err)
		c.metrics.IncCacheRequest(key, metrics.ResultStale)
		return resultOf(stale, true), nil
	}
	if errors.Is(err, ErrRecomputeTimeout) {
		return Result{}, err
	}
	return Result{}, fmt.Errorf("%w: %w", ErrBackingStoreUnavailable, err)
}

func (c *Coordinator) retention(ttl time.Duration) time.Duration {
	if c.cfg.StaleRetention > ttl {
		return c.cfg.StaleRetention
	}
	return ttl
}

func resultOf(e *Entry, stale bool) Result {
	return Result{Payload: e.Payload, Version: e.Version, ComputedAt: e.ComputedAt, ExpiresAt: e.ExpiresAt, Stale: stale}
}
