package cache

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// DefaultSweepSchedule is the cron schedule used when none is configured.
const DefaultSweepSchedule = "@every 5m"

// Sweeper periodically removes expired entries from a Cache.
type Sweeper struct {
	cron    *cron.Cron
	cache   *Cache
	entryID cron.EntryID
	logger  zerolog.Logger
}

// NewSweeper schedules Cleanup on c using a standard cron expression or a
// descriptor such as "@every 5m".
func NewSweeper(c *Cache, schedule string, logger zerolog.Logger) (*Sweeper, error) {
	if schedule == "" {
		schedule = DefaultSweepSchedule
	}

	s := &Sweeper{
		cron:   cron.New(),
		cache:  c,
		logger: logger.With().Str("component", "cache_sweeper").Logger(),
	}

	id, err := s.cron.AddFunc(schedule, s.sweep)
	if err != nil {
		return nil, fmt.Errorf("schedule cache sweep %q: %w", schedule, err)
	}
	s.entryID = id
	return s, nil
}

// Start begins running the schedule in the background.
func (s *Sweeper) Start() {
	s.cron.Start()
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Sweeper) sweep() {
	removed := s.cache.Cleanup()
	if removed > 0 {
		s.logger.Debug().Int("removed", removed).Msg("swept expired cache entries")
	}
}
