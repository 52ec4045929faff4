package booking

import (
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// StartSweeper runs m.Sweep every interval.  Only the in-memory store
// needs it; Redis expires drafts itself.  Callers shut the scheduler down.
func StartSweeper(m *MemoryStore, every time.Duration) (gocron.Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	_, err = s.NewJob(
		gocron.DurationJob(every),
		gocron.NewTask(func() {
			if n := m.Sweep(); n > 0 {
				slog.Info("expired booking drafts swept", "count", n)
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, err
	}
	s.Start()
	return s, nil
}
