package service

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	DefaultSweepInterval = time.Hour
	DefaultStaleAfter    = time.Hour
	sweepTimeout         = 30 * time.Second
)

// SweeperConfig controls how often the sweeper runs and how old a
// non-terminal attempt must be before it is failed.
type SweeperConfig struct {
	Interval   time.Duration
	StaleAfter time.Duration
}

// SweepResult reports what one sweep changed.
type SweepResult struct {
	Attempts int64 `json:"attempts_failed"`
	OTPs     int64 `json:"otps_deleted"`
}

// Sweeper periodically fails stale pending attempts and deletes expired OTP
// records.
type Sweeper struct {
	attempts   AttemptRepo
	otps       OTPRepo
	interval   time.Duration
	staleAfter time.Duration
	logger     *slog.Logger
	now        func() time.Time

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewSweeper(attempts AttemptRepo, otps OTPRepo, cfg SweeperConfig, logger *slog.Logger) *Sweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultSweepInterval
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = DefaultStaleAfter
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		attempts:   attempts,
		otps:       otps,
		interval:   cfg.Interval,
		staleAfter: cfg.StaleAfter,
		logger:     logger,
		now:        time.Now,
	}
}

// Start runs a sweep immediately and then once per interval. Non-blocking.
func (s *Sweeper) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		s.tick(ctx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.tick(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Shutdown stops the background loop and waits for an in-flight sweep.
func (s *Sweeper) Shutdown() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Sweeper) tick(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, sweepTimeout)
	defer cancel()

	res, err := s.RunOnce(ctx)
	if err != nil {
		s.logger.Error("sweep failed", "error", err)
		return
	}
	if res.Attempts > 0 || res.OTPs > 0 {
		s.logger.Info("sweep completed", "attempts_failed", res.Attempts, "otps_deleted", res.OTPs)
	}
}

// RunOnce performs a single sweep. Running it twice in a row changes nothing
// the second time.
func (s *Sweeper) RunOnce(ctx context.Context) (SweepResult, error) {
	var res SweepResult
	now := s.now()

	n, err := s.attempts.SweepStaleAttempts(ctx, now.Add(-s.staleAfter))
	if err != nil {
		return res, err
	}
	res.Attempts = n

	n, err = s.otps.DeleteExpiredOTPs(ctx, now)
	if err != nil {
		return res, err
	}
	res.OTPs = n
	return res, nil
}
