package enrich

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Pool is a bounded worker pool draining enrichment jobs. Submission never
// blocks: a full queue rejects the job and the caller records the miss.
type Pool struct {
	runner  *Runner
	jobs    chan Job
	workers int

	group errgroup.Group
	stop  sync.Once
	done  chan struct{}
}

// NewPool creates a pool with the given worker count and queue depth.
func NewPool(runner *Runner, workers, queueDepth int) *Pool {
	if workers <= 0 {
		workers = 2
	}
	if queueDepth <= 0 {
		queueDepth = 32
	}
	return &Pool{
		runner:  runner,
		jobs:    make(chan Job, queueDepth),
		workers: workers,
		done:    make(chan struct{}),
	}
}

// Start launches the workers. Jobs run with a background-derived context so
// an HTTP request finishing does not cancel its enrichment.
func (p *Pool) Start(ctx context.Context) {
	p.group.SetLimit(p.workers)
	for i := 0; i < p.workers; i++ {
		p.group.Go(func() error {
			for {
				select {
				case <-p.done:
					// Drain whatever was queued before shutdown.
					for {
						select {
						case job := <-p.jobs:
							p.runner.Run(ctx, job)
						default:
							return nil
						}
					}
				case job := <-p.jobs:
					p.runner.Run(ctx, job)
				}
			}
		})
	}
	zap.L().Info("enrichment pool started", zap.Int("workers", p.workers))
}

// Schedule queues a job without blocking. Reports false when the queue is
// full or the pool is shut down.
func (p *Pool) Schedule(auditID, tenantID string, reviewCount int) bool {
	select {
	case <-p.done:
		return false
	default:
	}

	select {
	case p.jobs <- Job{AuditID: auditID, TenantID: tenantID, ReviewCount: reviewCount}:
		return true
	default:
		return false
	}
}

// Shutdown stops accepting jobs and waits for in-flight work, up to the
// given grace period.
func (p *Pool) Shutdown(grace time.Duration) {
	p.stop.Do(func() { close(p.done) })

	waited := make(chan struct{})
	go func() {
		_ = p.group.Wait()
		close(waited)
	}()
	select {
	case <-waited:
	case <-time.After(grace):
		zap.L().Warn("enrichment pool shutdown timed out", zap.Duration("grace", grace))
	}
}
