package pricing

import (
	"context"
	"sync"
	"time"

	"sjsage522/pspricebot/logger"
	apperrors "sjsage522/pspricebot/pkg/errors"

	"github.com/robfig/cron/v3"
)

// Refresher warms a RateCache on a cron schedule
type Refresher struct {
	cron  *cron.Cron
	cache *RateCache
	warm  sync.WaitGroup
}

// NewRefresher schedules cache refreshes on schedule, a six-field cron expression with seconds
func NewRefresher(cache *RateCache, schedule string) (*Refresher, error) {
	r := &Refresher{
		cron:  cron.New(cron.WithSeconds()),
		cache: cache,
	}
	if _, err := r.cron.AddFunc(schedule, r.run); err != nil {
		return nil, apperrors.NewConfiguration("invalid RATE_REFRESH_CRON", err)
	}
	return r, nil
}

func (r *Refresher) run() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := r.cache.Refresh(ctx); err != nil {
		logger.ForRates().Warn().Err(err).Msg("Scheduled rate refresh failed")
	}
}

// Start warms the cache once and starts the schedule
func (r *Refresher) Start() {
	r.warm.Add(1)
	go func() {
		defer r.warm.Done()
		r.run()
	}()
	r.cron.Start()
	logger.ForRates().Info().Int("jobs", len(r.cron.Entries())).Msg("Rate refresher started")
}

// Stop stops the schedule and waits for running refreshes, the warm-up
// included
func (r *Refresher) Stop() {
	<-r.cron.Stop().Done()
	r.warm.Wait()
}
