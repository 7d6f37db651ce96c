package service

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/hemolink/hemolink/internal/domain"
	"github.com/hemolink/hemolink/internal/lock"
	"github.com/hemolink/hemolink/internal/metrics"
	"github.com/hemolink/hemolink/internal/realtime"
	"github.com/hemolink/hemolink/internal/repository"
)

// ExpirySweeper marks lapsed emergency requests as Expired.
// Requests carry a deadline but nothing flips them over it on its own;
// the sweeper closes that gap on a schedule.
type ExpirySweeper struct {
	requestRepo repository.EmergencyRequestRepository
	store       realtime.Store
	locker      lock.Locker
	metrics     *metrics.Metrics
	logger      zerolog.Logger
	config      SweepConfig

	// Control
	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	doneChan chan struct{}
}

// SweepConfig contains expiry sweep configuration.
type SweepConfig struct {
	// Enabled determines if the sweep runs automatically.
	Enabled bool

	// Interval is how often to sweep.
	Interval time.Duration

	// BatchSize is the maximum number of requests to expire per run.
	BatchSize int

	// DryRun logs what would expire without changing anything.
	DryRun bool
}

// DefaultSweepConfig returns sensible defaults.
func DefaultSweepConfig() SweepConfig {
	return SweepConfig{
		Enabled:   true,
		Interval:  1 * time.Minute,
		BatchSize: 100,
		DryRun:    false,
	}
}

// NewExpirySweeper creates a new expiry sweeper.
func NewExpirySweeper(
	requestRepo repository.EmergencyRequestRepository,
	store realtime.Store,
	locker lock.Locker,
	m *metrics.Metrics,
	logger zerolog.Logger,
	config SweepConfig,
) *ExpirySweeper {
	return &ExpirySweeper{
		requestRepo: requestRepo,
		store:       store,
		locker:      locker,
		metrics:     m,
		logger:      logger.With().Str("service", "sweep").Logger(),
		config:      config,
		stopChan:    make(chan struct{}),
		doneChan:    make(chan struct{}),
	}
}

// Start begins the sweep scheduler.
func (sw *ExpirySweeper) Start() {
	sw.mu.Lock()
	if sw.running {
		sw.mu.Unlock()
		return
	}
	sw.running = true
	sw.mu.Unlock()

	sw.logger.Info().
		Dur("interval", sw.config.Interval).
		Int("batch_size", sw.config.BatchSize).
		Bool("dry_run", sw.config.DryRun).
		Msg("Starting expiry sweeper")

	go sw.runLoop()
}

// Stop stops the sweep scheduler.
func (sw *ExpirySweeper) Stop() {
	sw.mu.Lock()
	if !sw.running {
		sw.mu.Unlock()
		return
	}
	sw.running = false
	sw.mu.Unlock()

	close(sw.stopChan)
	<-sw.doneChan

	sw.logger.Info().Msg("Expiry sweeper stopped")
}

// runLoop is the main sweep loop.
func (sw *ExpirySweeper) runLoop() {
	defer close(sw.doneChan)

	// Run immediately on start
	sw.runOnce()

	ticker := time.NewTicker(sw.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			sw.runOnce()
		case <-sw.stopChan:
			return
		}
	}
}

// runOnce is called by the scheduler loop.
func (sw *ExpirySweeper) runOnce() {
	sw.RunOnce(context.Background())
}

// SweepResult contains the result of a sweep run.
type SweepResult struct {
	// Expired is the number of requests marked Expired.
	Expired int

	// Errors is the number of errors encountered.
	Errors int

	// Duration is how long the run took.
	Duration time.Duration

	// Remaining is the approximate number of lapsed requests left for
	// the next run.
	Remaining int
}

// RunOnce executes a single sweep run. This can be called manually from
// the admin CLI or by the scheduler.
func (sw *ExpirySweeper) RunOnce(ctx context.Context) SweepResult {
	start := time.Now()
	result := SweepResult{}

	sw.logger.Debug().Msg("Starting expiry sweep run")

	// Acquire distributed lock to prevent concurrent sweeps
	lockKey := lock.Keys.ExpirySweep()
	lockTTL := sw.config.Interval / 2
	if lockTTL < 30*time.Second {
		lockTTL = 30 * time.Second
	}

	acquired, err := sw.locker.Acquire(ctx, lockKey, lockTTL)
	if err != nil {
		sw.logger.Error().Err(err).Msg("Failed to acquire sweep lock")
		result.Errors++
		result.Duration = time.Since(start)
		return result
	}
	if !acquired {
		sw.logger.Debug().Msg("Sweep lock held by another process, skipping run")
		result.Duration = time.Since(start)
		return result
	}
	defer func() {
		if _, err := sw.locker.Release(ctx, lockKey); err != nil {
			sw.logger.Error().Err(err).Msg("Failed to release sweep lock")
		}
	}()

	now := time.Now().UTC()
	lapsed, err := sw.requestRepo.ListExpired(ctx, now, sw.config.BatchSize)
	if err != nil {
		sw.logger.Error().Err(err).Msg("Failed to list lapsed requests")
		result.Errors++
		result.Duration = time.Since(start)
		return result
	}

	if len(lapsed) == 0 {
		sw.logger.Debug().Msg("No lapsed requests found")
		result.Duration = time.Since(start)
		if sw.metrics != nil {
			sw.metrics.SweepLastRunTime.SetToCurrentTime()
			sw.metrics.SweepBacklog.Set(0)
		}
		return result
	}

	sw.logger.Info().Int("count", len(lapsed)).Msg("Found lapsed requests")

	for _, req := range lapsed {
		if sw.config.DryRun {
			sw.logger.Info().
				Int64("request_id", req.ID).
				Time("expires_at", req.ExpiresAt).
				Msg("[DRY RUN] Would expire request")
			result.Expired++
			continue
		}

		// Lapsed terminal requests never come back from ListExpired,
		// but guard the transition anyway
		if req.Status.IsTerminal() {
			continue
		}

		req.Status = domain.RequestStatusExpired
		if err := sw.requestRepo.Update(ctx, req); err != nil {
			sw.logger.Error().Err(err).Int64("request_id", req.ID).Msg("Failed to expire request")
			result.Errors++
			continue
		}

		if sw.store != nil {
			key := strconv.FormatInt(req.ID, 10)
			if err := sw.store.Set(ctx, realtime.PathRequests, key, req); err != nil {
				sw.logger.Warn().Err(err).Int64("request_id", req.ID).Msg("Failed to publish expiry")
			}
		}

		sw.logger.Debug().
			Int64("request_id", req.ID).
			Time("expires_at", req.ExpiresAt).
			Msg("Request expired")

		result.Expired++
	}

	result.Duration = time.Since(start)

	// Check if there might be more lapsed requests
	if len(lapsed) == sw.config.BatchSize {
		remaining, _ := sw.requestRepo.ListExpired(ctx, now, 1)
		result.Remaining = len(remaining)
		if len(remaining) > 0 {
			sw.logger.Info().Msg("More lapsed requests remain for next run")
		}
	}

	if sw.metrics != nil {
		sw.metrics.RecordSweepRun(result.Duration, result.Expired)
		sw.metrics.SweepBacklog.Set(float64(result.Remaining))
	}

	sw.logger.Info().
		Int("expired", result.Expired).
		Int("errors", result.Errors).
		Dur("duration", result.Duration).
		Msg("Expiry sweep run completed")

	return result
}
