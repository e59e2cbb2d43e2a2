package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ErlanBelekov/blog-newsletter/internal/metrics"
	"github.com/robfig/cron/v3"
)

const pruneBatchSize = 500

type pendingDeleter interface {
	DeleteExpiredPending(ctx context.Context, createdBefore time.Time, limit int) (int64, error)
}

// Pruner deletes subscribers that never followed their confirmation link.
type Pruner struct {
	repo   pendingDeleter
	logger *slog.Logger
	spec   string
	ttl    time.Duration
	now    func() time.Time
}

// NewPruner validates spec (standard cron syntax or a descriptor such as
// "@hourly") and returns a pruner removing pending rows older than ttl.
func NewPruner(repo pendingDeleter, logger *slog.Logger, spec string, ttl time.Duration) (*Pruner, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("parse prune schedule %q: %w", spec, err)
	}
	return &Pruner{
		repo:   repo,
		logger: logger.With("component", "pruner"),
		spec:   spec,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// Start runs prune cycles on the schedule until ctx is cancelled, then waits
// for a running cycle to finish.
func (p *Pruner) Start(ctx context.Context) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(p.spec, func() { p.prune(ctx) }); err != nil {
		p.logger.Error("schedule pruner", "spec", p.spec, "error", err)
		return
	}
	c.Start()
	p.logger.Info("pruner started", "schedule", p.spec, "ttl", p.ttl)

	<-ctx.Done()
	<-c.Stop().Done()
	p.logger.Info("pruner shut down")
}

func (p *Pruner) prune(ctx context.Context) {
	start := time.Now()
	defer func() { metrics.PruneCycleDuration.Observe(time.Since(start).Seconds()) }()

	cutoff := p.now().Add(-p.ttl)
	var total int64
	for {
		n, err := p.repo.DeleteExpiredPending(ctx, cutoff, pruneBatchSize)
		if err != nil {
			p.logger.Error("delete expired pending", "error", err)
			break
		}
		total += n
		if n < pruneBatchSize || ctx.Err() != nil {
			break
		}
	}

	if total > 0 {
		metrics.PrunedTotal.Add(float64(total))
		p.logger.Info("pruned unconfirmed subscribers", "count", total, "cutoff", cutoff)
	}
}
