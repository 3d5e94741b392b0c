// Package session keeps per-browser page state: the current report, the
// loading flag and the ticker form.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bobmcallan/genvest-portal/internal/common"
	"github.com/bobmcallan/genvest-portal/internal/config"
	"github.com/bobmcallan/genvest-portal/internal/form"
	"github.com/bobmcallan/genvest-portal/internal/models"
)

// ErrConflict is returned when an update keeps losing to concurrent writers.
var ErrConflict = errors.New("session update conflict")

// State is everything the page renders for one session. API keys are never
// stored here.
type State struct {
	Report         *models.Report `json:"report,omitempty"`
	Loading        bool           `json:"loading"`
	LoadingMessage string         `json:"loading_message,omitempty"`
	LoadingSince   time.Time      `json:"loading_since"`
	Form           form.State     `json:"form"`
}

// Store persists State by session ID. Unknown IDs read as the zero State.
type Store interface {
	Get(ctx context.Context, id string) (State, error)
	// Update applies fn atomically and returns the stored result. fn may run
	// more than once and must not block. When fn returns an error nothing
	// is written and the error is returned as-is.
	Update(ctx context.Context, id string, fn func(*State) error) (State, error)
	// Sweep drops expired sessions and returns how many were removed.
	Sweep(ctx context.Context) (int, error)
	Close() error
}

// New creates the store selected by cfg.Backend.
func New(ctx context.Context, cfg config.SessionConfig, logger *common.Logger) (Store, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", "memory":
		logger.Info().Int("max_entries", cfg.MaxEntries).Dur("ttl", cfg.GetTTL()).Msg("Using in-memory session store")
		return NewMemoryStore(cfg.GetTTL(), cfg.MaxEntries), nil
	case "redis":
		store, err := NewRedisStore(ctx, cfg.Redis, cfg.GetTTL())
		if err != nil {
			return nil, err
		}
		logger.Info().Str("addr", cfg.Redis.Addr).Dur("ttl", cfg.GetTTL()).Msg("Using redis session store")
		return store, nil
	}
	return nil, fmt.Errorf("unknown session backend %q", cfg.Backend)
}
