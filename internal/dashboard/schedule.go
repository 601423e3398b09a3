package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// ScheduleReloads reloads every view of d on the cron schedule spec until
// ctx is cancelled or the returned stop function is called. Runs never
// overlap; a run still in progress when the next one is due causes that one
// to be skipped. stop waits for a running reload to finish and may be called
// more than once.
func ScheduleReloads(ctx context.Context, d *Dashboard, spec string, logger *slog.Logger) (func(), error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	_, err := c.AddFunc(spec, func() {
		logger.Info("scheduled reload started")
		if err := d.ReloadAll(ctx); err != nil {
			logger.Warn("scheduled reload finished with errors", "error", err)
			return
		}
		logger.Info("scheduled reload finished")
	})
	if err != nil {
		return nil, fmt.Errorf("invalid reload schedule %q: %w", spec, err)
	}
	c.Start()
	logger.Info("reload schedule started", "schedule", spec)

	stopped := make(chan struct{})
	var once sync.Once
	stop := func() {
		once.Do(func() { close(stopped) })
		<-c.Stop().Done()
	}
	go func() {
		select {
		case <-ctx.Done():
			c.Stop()
		case <-stopped:
		}
	}()
	return stop, nil
}
