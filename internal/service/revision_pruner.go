package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/stewardhq/steward/internal/admin"
	"github.com/stewardhq/steward/internal/observability"
	"github.com/stewardhq/steward/internal/repository"
)

// RevisionPruner deletes revisions past the retention window on a cron
// schedule, one pass per admin with revisions enabled.
type RevisionPruner struct {
	repo      repository.RevisionRepository
	registry  *admin.Registry
	logger    *slog.Logger
	schedule  string
	retention time.Duration
	runner    *cron.Cron
}

func NewRevisionPruner(repo repository.RevisionRepository, registry *admin.Registry, logger *slog.Logger, schedule string, retention time.Duration) *RevisionPruner {
	return &RevisionPruner{
		repo:      repo,
		registry:  registry,
		logger:    logger,
		schedule:  schedule,
		retention: retention,
		runner: cron.New(
			cron.WithChain(
				cron.SkipIfStillRunning(cron.DiscardLogger),
				cron.Recover(cron.DiscardLogger),
			),
		),
	}
}

// Start registers the prune job and starts the runner. A zero retention
// disables pruning entirely.
func (p *RevisionPruner) Start() error {
	if p.retention <= 0 {
		p.logger.Info("revision pruning disabled")
		return nil
	}
	if _, err := p.runner.AddFunc(p.schedule, p.PruneOnce); err != nil {
		return err
	}
	p.runner.Start()
	p.logger.Info("revision pruner started", "schedule", p.schedule, "retention", p.retention.String())
	return nil
}

func (p *RevisionPruner) Stop() {
	ctx := p.runner.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		p.logger.Warn("revision pruner stop timed out")
	}
}

func (p *RevisionPruner) PruneOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cutoff := time.Now().UTC().Add(-p.retention)
	for _, d := range p.registry.All() {
		if !d.RevisionsEnabled() {
			continue
		}
		pruned, err := p.repo.PruneOlderThan(ctx, d.Code(), cutoff)
		if err != nil {
			p.logger.Error("revision prune failed", "admin", d.Code(), "error", err)
			continue
		}
		observability.RecordRevisionsPruned(ctx, d.Code(), pruned)
		if pruned > 0 {
			p.logger.Info("pruned revisions", "admin", d.Code(), "count", pruned, "cutoff", cutoff.Format(time.RFC3339))
		}
	}
}
