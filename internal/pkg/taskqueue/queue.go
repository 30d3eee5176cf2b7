package taskqueue

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"
)

// Task 一个后台任务，Name 用于日志与错误信息
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

type Option func(*Queue)

// WithBackoff 设置重试的初始间隔与最大间隔
func WithBackoff(initial, maxInterval time.Duration) Option {
	return func(q *Queue) {
		q.initialInterval = initial
		q.maxInterval = maxInterval
	}
}

// Queue 有界并发的任务队列，失败的任务按指数退避重试
type Queue struct {
	concurrency     int
	retries         int
	initialInterval time.Duration
	maxInterval     time.Duration
}

func New(concurrency, retries int, opts ...Option) *Queue {
	q := &Queue{
		concurrency:     max(concurrency, 1),
		retries:         max(retries, 0),
		initialInterval: 200 * time.Millisecond,
		maxInterval:     5 * time.Second,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// RunAll 执行全部任务，单个任务失败不影响其他任务，返回所有失败任务的错误
func (q *Queue) RunAll(ctx context.Context, tasks []Task) error {
	var (
		mu   sync.Mutex
		errs []error
	)
	g := new(errgroup.Group)
	g.SetLimit(q.concurrency)

	for _, task := range tasks {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := q.runWithRetry(ctx, task); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("task %s: %w", task.Name, err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (q *Queue) runWithRetry(ctx context.Context, task Task) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = q.initialInterval
	b.MaxInterval = q.maxInterval
	b.MaxElapsedTime = 0

	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		err := task.Run(ctx)
		if err != nil && attempt <= q.retries {
			log.WarnContext(ctx, "Task failed, retrying", "task", task.Name, "attempt", attempt, "err", err)
		}
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(b, uint64(q.retries)), ctx))
}

// Permanent 标记不需要重试的错误
func Permanent(err error) error {
	return backoff.Permanent(err)
}
