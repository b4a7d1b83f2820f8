// Package sync periodically replaces the externally owned subset of the
// route registry from a remote route-definition source.
package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/waroute/waroute/internal/registry"
)

// Syncer fetches route candidates from a remote source and installs them
// through the registry's SyncFromExternal. At most one pass runs at a time;
// a trigger that arrives while a pass is in flight is a no-op.
type Syncer struct {
	store     registry.Store
	client    *http.Client
	sourceURL string
	interval  time.Duration
	logger    *slog.Logger
	inFlight  atomic.Bool
}

// New creates a syncer. An empty sourceURL disables it.
func New(store registry.Store, sourceURL string, interval time.Duration, logger *slog.Logger) *Syncer {
	return &Syncer{
		store:     store,
		client:    &http.Client{Timeout: 30 * time.Second},
		sourceURL: sourceURL,
		interval:  interval,
		logger:    logger,
	}
}

// Enabled reports whether a source URL is configured.
func (s *Syncer) Enabled() bool {
	return s.sourceURL != ""
}

// Run executes an initial pass and then one pass per interval until ctx is
// cancelled. It is independent of request handling; routing never waits on
// a sync pass.
func (s *Syncer) Run(ctx context.Context) {
	if !s.Enabled() {
		return
	}

	s.TriggerNow(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.TriggerNow(ctx)
		}
	}
}

// TriggerNow runs one synchronization pass unless one is already in flight,
// in which case it returns false without queueing.
func (s *Syncer) TriggerNow(ctx context.Context) bool {
	if !s.Enabled() {
		return false
	}
	if !s.inFlight.CompareAndSwap(false, true) {
		return false
	}
	defer s.inFlight.Store(false)

	if err := s.syncOnce(ctx); err != nil {
		s.logger.Error("route sync failed", slog.String("error", err.Error()))
	}
	return true
}

func (s *Syncer) syncOnce(ctx context.Context) error {
	candidates, err := s.fetch(ctx)
	if err != nil {
		return err
	}

	installed, err := s.store.SyncFromExternal(ctx, candidates)
	if err != nil {
		return fmt.Errorf("failed to install synced routes: %w", err)
	}

	s.logger.Info("route sync completed",
		slog.Int("candidates", len(candidates)),
		slog.Int("installed", installed),
	)
	return nil
}

func (s *Syncer) fetch(ctx context.Context) ([]registry.Candidate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.sourceURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build sync request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach sync source: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sync source returned status %d", resp.StatusCode)
	}

	var candidates []registry.Candidate
	if err := json.NewDecoder(resp.Body).Decode(&candidates); err != nil {
		return nil, fmt.Errorf("failed to decode sync payload: %w", err)
	}
	return candidates, nil
}
