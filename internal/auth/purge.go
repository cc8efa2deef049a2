package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateSchedule reports whether expr is a 5-field cron expression.
func ValidateSchedule(expr string) error {
	if _, err := cronParser.Parse(expr); err != nil {
		return fmt.Errorf("auth: purge schedule %q: %w", expr, err)
	}
	return nil
}

// nextCronDuration returns the duration from now until expr next fires.
// Returns 0 on parse error.
func nextCronDuration(expr string, now time.Time) time.Duration {
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return 0
	}
	d := sched.Next(now).Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// RunPurge deletes expired token revocations on schedule until ctx is
// cancelled.
func RunPurge(ctx context.Context, r *DBRevoker, schedule string, log *zap.Logger) error {
	if err := ValidateSchedule(schedule); err != nil {
		return err
	}
	if log == nil {
		log = zap.NewNop()
	}
	for {
		timer := time.NewTimer(nextCronDuration(schedule, time.Now()))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
		n, err := r.Purge(ctx, time.Now())
		if err != nil {
			log.Error("purge revoked tokens", zap.Error(err))
			continue
		}
		if n > 0 {
			log.Info("purged revoked tokens", zap.Int64("count", n))
		}
	}
}
