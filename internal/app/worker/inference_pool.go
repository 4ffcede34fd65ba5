package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"guardx/internal/common"
)

// InferencePool runs inference jobs on a fixed number of goroutines with a
// bounded queue in front of them. Callers block until their job finishes
// or their context is done.
type InferencePool struct {
	workers int
	jobs    chan *job
	quit    chan struct{}
	wg      sync.WaitGroup

	startOnce sync.Once
	stopOnce  sync.Once
}

type job struct {
	ctx  context.Context
	fn   func(ctx context.Context) error
	done chan error
}

func NewInferencePool(workers, queueSize int) *InferencePool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	return &InferencePool{
		workers: workers,
		jobs:    make(chan *job, queueSize),
		quit:    make(chan struct{}),
	}
}

// Start launches the workers. They exit when ctx is cancelled or Stop is
// called.
func (p *InferencePool) Start(ctx context.Context) {
	p.startOnce.Do(func() {
		slog.Info("Inference pool started", "workers", p.workers, "queue_size", cap(p.jobs))
		for i := 0; i < p.workers; i++ {
			p.wg.Add(1)
			go p.run(ctx, i)
		}
	})
}

func (p *InferencePool) run(ctx context.Context, id int) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			slog.Debug("Inference worker stopping", "worker", id, "reason", ctx.Err())
			return
		case <-p.quit:
			slog.Debug("Inference worker stopping", "worker", id)
			return
		case j := <-p.jobs:
			// Skip work whose caller already gave up.
			if err := j.ctx.Err(); err != nil {
				j.done <- err
				continue
			}
			j.done <- p.execute(j)
		}
	}
}

func (p *InferencePool) execute(j *job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Inference job panicked", "panic", r)
			err = fmt.Errorf("inference job panicked: %v: %w", r, common.ErrInternalServer)
		}
	}()
	return j.fn(j.ctx)
}

// Do queues fn and waits for it. A full queue or a stopped pool is reported
// as common.ErrServiceUnavailable without running fn.
func (p *InferencePool) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	select {
	case <-p.quit:
		return fmt.Errorf("inference pool stopped: %w", common.ErrServiceUnavailable)
	default:
	}

	j := &job{ctx: ctx, fn: fn, done: make(chan error, 1)}
	select {
	case p.jobs <- j:
	default:
		return fmt.Errorf("inference queue is full: %w", common.ErrServiceUnavailable)
	}

	select {
	case err := <-j.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop signals the workers and waits for in-flight jobs to finish.
func (p *InferencePool) Stop() {
	p.stopOnce.Do(func() {
		close(p.quit)
		p.wg.Wait()
		slog.Info("Inference pool stopped")
	})
}
