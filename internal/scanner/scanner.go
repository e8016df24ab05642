// Package scanner owns the opportunity store and the lifecycle of the feed
// that fills it.
package scanner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"solana-sniper-core/internal/domain"
	"solana-sniper-core/internal/feed"
	"solana-sniper-core/internal/observability"
)

// Feed delivers opportunities into sink until ctx ends or the feed fails.
type Feed interface {
	Run(ctx context.Context, sink feed.Sink) error
}

// BatchFetcher performs a one-shot listings fetch.
type BatchFetcher interface {
	Fetch(ctx context.Context) (json.RawMessage, error)
}

// Scorer computes a score for an opportunity under the active policy.
type Scorer interface {
	CalculateScore(op domain.TokenOpportunity) uint8
}

// Listing source values.
const (
	ListingSourceStore = "store"
	ListingSourceBatch = "batch"
)

// Listing is the result of Opportunities. When Source is ListingSourceBatch,
// Raw holds the unvalidated batch payload and Opportunities is empty.
type Listing struct {
	Source        string                    `json:"source"`
	Opportunities []domain.TokenOpportunity `json:"opportunities"`
	Raw           json.RawMessage           `json:"raw,omitempty"`
	BestEffort    bool                      `json:"best_effort"`
}

// Options configures a Scanner.
type Options struct {
	Feed   Feed
	Batch  BatchFetcher
	Scorer Scorer
	Logger *zap.Logger
}

// Scanner runs the feed into its Store and periodically rescores stored entries.
type Scanner struct {
	store  *Store
	feed   Feed
	batch  BatchFetcher
	scorer Scorer
	logger *zap.Logger

	mu       sync.Mutex
	settings Settings
	cancel   context.CancelFunc
	done     chan struct{}
}

// New creates a scanner over store with DefaultSettings.
func New(store *Store, opts Options) *Scanner {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scanner{
		store:    store,
		feed:     opts.Feed,
		batch:    opts.Batch,
		scorer:   opts.Scorer,
		logger:   logger.Named("scanner"),
		settings: DefaultSettings(),
	}
}

// Store returns the underlying opportunity store.
func (s *Scanner) Store() *Store {
	return s.store
}

// Settings returns a copy of the current configuration.
func (s *Scanner) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings.Clone()
}

// Configure applies a partial update. The merged result is validated as a
// whole; on error nothing changes.
func (s *Scanner) Configure(cfg ScannerConfig) error {
	s.mu.Lock()
	next := cfg.Apply(s.settings)
	if err := next.Validate(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.settings = next
	s.mu.Unlock()

	s.logger.Info("scanner configuration updated",
		zap.Strings("sources", next.Sources),
		zap.Float64("min_liquidity", next.MinLiquidity),
		zap.Uint32("scan_interval_ms", next.ScanIntervalMs))
	return nil
}

// Active reports whether the scanner is running.
func (s *Scanner) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// Start launches the feed and the rescore loop. Calling Start on a running
// scanner is a no-op. The scanner stops when ctx is cancelled, Stop is
// called, or the feed fails.
func (s *Scanner) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done
	s.mu.Unlock()

	s.logger.Info("starting token scanner")
	observability.SetScannerActive(true)
	go s.run(runCtx, cancel, done)
	return nil
}

// Stop halts a running scanner and waits for its goroutines to exit.
// Calling Stop on a stopped scanner is a no-op.
func (s *Scanner) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel = nil
	s.done = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	s.logger.Info("stopping token scanner")
	cancel()
	<-done
}

func (s *Scanner) run(ctx context.Context, cancel context.CancelFunc, done chan struct{}) {
	defer close(done)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	if s.feed != nil {
		g.Go(func() error {
			if err := s.feed.Run(gctx, s.store); err != nil {
				return fmt.Errorf("feed: %w", err)
			}
			return nil
		})
	}
	if s.scorer != nil {
		g.Go(func() error {
			return s.rescoreLoop(gctx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Error("scanner stopped", zap.Error(err))
	}

	s.mu.Lock()
	if s.done == done {
		s.cancel = nil
		s.done = nil
	}
	s.mu.Unlock()
	observability.SetScannerActive(false)
}

// rescoreLoop rescores every stored entry each scan interval.
// The interval is re-read after each pass so Configure takes effect live.
func (s *Scanner) rescoreLoop(ctx context.Context) error {
	for {
		s.Rescore()

		timer := time.NewTimer(s.Settings().ScanInterval())
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Rescore recomputes the score of every stored entry and writes back changes.
// Returns the number of entries updated.
func (s *Scanner) Rescore() int {
	if s.scorer == nil {
		return 0
	}
	updated := 0
	for _, op := range s.store.Snapshot() {
		score := s.scorer.CalculateScore(op)
		if score == op.Score {
			continue
		}
		if s.store.Update(op.Address, func(o *domain.TokenOpportunity) { o.Score = score }) {
			updated++
		}
	}
	if updated > 0 {
		s.logger.Debug("rescored opportunities", zap.Int("updated", updated))
	}
	return updated
}

// Filtered applies the hard filter using base with the scanner thresholds
// written over it.
func (s *Scanner) Filtered(base domain.FilterSettings) []domain.TokenOpportunity {
	return s.store.ApplyFilters(s.Settings().Overlay(base))
}

// Opportunities returns the store snapshot. When the store is empty and a
// batch fetcher is configured, the batch payload is returned instead,
// unscored and not merged into the store.
func (s *Scanner) Opportunities(ctx context.Context) (Listing, error) {
	snapshot := s.store.Snapshot()
	if len(snapshot) > 0 || s.batch == nil {
		return Listing{Source: ListingSourceStore, Opportunities: snapshot}, nil
	}

	raw, err := s.batch.Fetch(ctx)
	if err != nil {
		return Listing{Source: ListingSourceStore, Opportunities: snapshot}, fmt.Errorf("batch fallback: %w", err)
	}
	return Listing{
		Source:        ListingSourceBatch,
		Opportunities: []domain.TokenOpportunity{},
		Raw:           raw,
		BestEffort:    true,
	}, nil
}
