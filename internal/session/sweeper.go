package session

import (
	"context"
	"fmt"
	"time"

	"github.com/bobmcallan/genvest-portal/internal/common"
	"github.com/robfig/cron/v3"
)

// Sweeper periodically drops expired sessions from a Store.
type Sweeper struct {
	cron   *cron.Cron
	store  Store
	logger *common.Logger
}

// NewSweeper schedules Sweep on store. schedule accepts cron expressions
// and descriptors such as "@every 5m".
func NewSweeper(store Store, schedule string, logger *common.Logger) (*Sweeper, error) {
	s := &Sweeper{cron: cron.New(), store: store, logger: logger}
	if _, err := s.cron.AddFunc(schedule, s.run); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	return s, nil
}

func (s *Sweeper) Start() {
	s.cron.Start()
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Sweeper) run() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	removed, err := s.store.Sweep(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Session sweep failed")
		return
	}
	if removed > 0 {
		s.logger.Debug().Int("removed", removed).Msg("Expired sessions swept")
	}
}
