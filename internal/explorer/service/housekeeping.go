package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aussiebroadwan/explorer/internal/explorer/store"
)

// housekeepingPassTimeout bounds a single sweep so a locked database cannot
// wedge shutdown.
const housekeepingPassTimeout = 30 * time.Second

// HousekeepingService sweeps expired password reset tokens out of the users
// table on a fixed interval. Verification tokens have no expiry and stay.
type HousekeepingService struct {
	Store    store.Store
	Logger   *slog.Logger
	Interval time.Duration
	Now      func() time.Time

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewHousekeepingService returns a stopped service. A non-positive interval
// means hourly.
func NewHousekeepingService(st store.Store, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HousekeepingService{Store: st, Logger: logger, Interval: interval, Now: time.Now}
}

// Start sweeps once immediately and then every Interval until Stop.
func (s *HousekeepingService) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop(ctx)
	}()
	s.Logger.Info("housekeeping started", "interval", s.Interval)
}

// Stop cancels the loop and waits for a running sweep to return. Stop on a
// service that was never started is a no-op.
func (s *HousekeepingService) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	s.wg.Wait()
	s.Logger.Info("housekeeping stopped")
}

func (s *HousekeepingService) loop(ctx context.Context) {
	t := time.NewTicker(s.Interval)
	defer t.Stop()

	for {
		s.Cleanup(ctx)
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

// Cleanup runs one sweep and returns the number of reset tokens cleared.
func (s *HousekeepingService) Cleanup(ctx context.Context) int64 {
	ctx, cancel := context.WithTimeout(ctx, housekeepingPassTimeout)
	defer cancel()

	n, err := s.Store.Users().ClearExpiredResetTokens(ctx, s.Now().UTC())
	if err != nil {
		if ctx.Err() == nil {
			s.Logger.Error("clear expired reset tokens", "error", err)
		}
		return 0
	}
	if n > 0 {
		s.Logger.Info("expired reset tokens cleared", "count", n)
	}
	return n
}
