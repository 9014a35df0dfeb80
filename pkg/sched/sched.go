// Package sched runs periodic maintenance against a cron schedule.
package sched

import (
	"context"
	"fmt"
	"time"

	"github.com/adhocore/gronx"

	"github.com/bookwormlabs/jarvisbot/pkg/logger"
)

const componentSched = "sched"

// Scheduler evaluates a cron expression once a minute and runs the
// task whenever the expression is due.
type Scheduler struct {
	expr string
	task func(context.Context) error
	gron *gronx.Gronx
}

func New(expr string, task func(context.Context) error) (*Scheduler, error) {
	gron := gronx.New()
	if !gron.IsValid(expr) {
		return nil, fmt.Errorf("invalid cron expression %q", expr)
	}
	return &Scheduler{expr: expr, task: task, gron: gron}, nil
}

// Run blocks until ctx is cancelled. Task failures are logged and the
// schedule keeps ticking.
func (s *Scheduler) Run(ctx context.Context) {
	logger.InfoCF(componentSched, "scheduler started", map[string]interface{}{
		"schedule": s.expr,
	})
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.InfoC(componentSched, "scheduler stopped")
			return
		case now := <-ticker.C:
			due, err := s.gron.IsDue(s.expr, now)
			if err != nil {
				logger.WarnCF(componentSched, "schedule evaluation failed", map[string]interface{}{
					"error": err.Error(),
				})
				continue
			}
			if !due {
				continue
			}
			if err := s.task(ctx); err != nil {
				logger.ErrorCF(componentSched, "maintenance task failed", map[string]interface{}{
					"error": err.Error(),
				})
			}
		}
	}
}
