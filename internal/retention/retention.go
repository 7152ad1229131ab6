// Package retention prunes old entries from the durable chat log on a cron
// schedule. It only trims the persisted copy across restarts; messages are
// never destroyed within a running session.
package retention

import (
	"context"
	"fmt"
	"time"

	"github.com/adhocore/gronx"

	"vagentd/pkg/config"
	"vagentd/pkg/logger"
	"vagentd/pkg/store"
)

// Start launches the janitor if enabled. Returns a cancel func; a no-op
// cancel when retention is disabled.
func Start(ctx context.Context, cfg config.RetentionConfig) (context.CancelFunc, error) {
	if !cfg.Enabled {
		logger.Info("retention_disabled")
		return func() {}, nil
	}

	cronExpr := cfg.Cron
	if cronExpr == "" {
		cronExpr = "0 2 * * *"
	}
	if !gronx.IsValid(cronExpr) {
		logger.Error("retention_invalid_cron", "cron", cfg.Cron)
		return nil, fmt.Errorf("invalid retention cron expression: %s", cfg.Cron)
	}
	period, err := time.ParseDuration(cfg.Period)
	if err != nil || period <= 0 {
		return nil, fmt.Errorf("invalid retention period: %q", cfg.Period)
	}

	logger.Info("retention_enabled", "cron", cronExpr, "period", period.String())
	ctx2, cancel := context.WithCancel(ctx)
	go runScheduler(ctx2, cronExpr, period)
	return cancel, nil
}

// runScheduler sleeps until the next cron tick and runs a prune pass.
func runScheduler(ctx context.Context, cronExpr string, period time.Duration) {
	for {
		next, err := gronx.NextTick(cronExpr, false)
		if err != nil {
			logger.Error("retention_next_tick_failed", "error", err)
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Until(next)):
		}
		if err := RunOnce(period); err != nil {
			logger.Error("retention_run_failed", "error", err)
		}
	}
}

// RunOnce prunes chat-log entries older than period across all projects.
// Exposed so admin tooling and tests can trigger a pass on demand.
func RunOnce(period time.Duration) error {
	cutoff := time.Now().UTC().Add(-period).UnixNano()
	projects, err := store.ListProjects()
	if err != nil {
		return err
	}
	total := 0
	for _, p := range projects {
		n, err := store.PruneMessagesBefore(p.ID, cutoff)
		if err != nil {
			return fmt.Errorf("prune %s: %w", p.ID, err)
		}
		total += n
	}
	logger.Info("retention_run_complete", "projects", len(projects), "pruned", total)
	return nil
}
