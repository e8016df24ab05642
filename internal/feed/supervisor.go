package feed

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"solana-sniper-core/internal/observability"
)

// Runner is a single-shot feed run, such as *Adapter.
type Runner interface {
	Run(ctx context.Context, sink Sink) error
}

// SupervisorOptions configures restart timing.
type SupervisorOptions struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	// MaxElapsedTime stops retrying after this long without a healthy run.
	// Zero retries until ctx is cancelled.
	MaxElapsedTime time.Duration
	// HealthyAfter is how long a run must last for the delay to reset.
	HealthyAfter time.Duration
	Logger       *zap.Logger
}

// Supervisor relaunches a Runner with exponential backoff.
type Supervisor struct {
	runner Runner
	opts   SupervisorOptions
	logger *zap.Logger
}

var errFeedClosed = errors.New("feed closed by remote")

// NewSupervisor wraps runner.
func NewSupervisor(runner Runner, opts SupervisorOptions) *Supervisor {
	if opts.InitialInterval <= 0 {
		opts.InitialInterval = time.Second
	}
	if opts.MaxInterval <= 0 {
		opts.MaxInterval = 30 * time.Second
	}
	if opts.HealthyAfter <= 0 {
		opts.HealthyAfter = time.Minute
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Supervisor{
		runner: runner,
		opts:   opts,
		logger: logger.Named("feed-supervisor"),
	}
}

// Run keeps the runner going until ctx is cancelled or retries run out.
func (s *Supervisor) Run(ctx context.Context, sink Sink) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.opts.InitialInterval
	b.MaxInterval = s.opts.MaxInterval
	b.MaxElapsedTime = s.opts.MaxElapsedTime

	attempt := 0
	operation := func() error {
		if attempt > 0 {
			observability.RecordFeedRestart()
		}
		attempt++

		started := time.Now()
		err := s.runner.Run(ctx, sink)
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		if time.Since(started) >= s.opts.HealthyAfter {
			b.Reset()
		}
		if err == nil {
			err = errFeedClosed
		}
		return err
	}

	notify := func(err error, wait time.Duration) {
		s.logger.Warn("feed run ended, restarting",
			zap.Error(err),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait))
	}

	err := backoff.RetryNotify(operation, backoff.WithContext(b, ctx), notify)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}
