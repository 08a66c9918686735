package scan

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/wonny/pocscan/internal/contracts"
	"github.com/wonny/pocscan/internal/profile"
	"github.com/wonny/pocscan/internal/signal"
	"github.com/wonny/pocscan/internal/universe"
	"github.com/wonny/pocscan/pkg/logger"
)

// DefaultLookbackDays is the history window used when none is configured
const DefaultLookbackDays = 30

var errPanic = errors.New("recovered panic")

// Options controls pacing and history depth
type Options struct {
	RequestDelay time.Duration // 종목 간 최소 간격
	LookbackDays int
}

// Orchestrator runs one scan over the universe against a single data source
// ⭐ SSOT: 스캔 파이프라인 조율은 여기서만 (fetch → profile → signal → rank)
type Orchestrator struct {
	registry     *universe.Registry
	source       contracts.Source
	limiter      *rate.Limiter
	lookbackDays int
	logger       *logger.Logger
	now          func() time.Time
}

// NewOrchestrator creates an orchestrator.
// The limiter is shared by every scan run through this orchestrator.
func NewOrchestrator(registry *universe.Registry, source contracts.Source, opts Options, log *logger.Logger) *Orchestrator {
	if opts.LookbackDays <= 0 {
		opts.LookbackDays = DefaultLookbackDays
	}

	return &Orchestrator{
		registry:     registry,
		source:       source,
		limiter:      newPacer(opts.RequestDelay),
		lookbackDays: opts.LookbackDays,
		logger:       log.Component("scan"),
		now:          time.Now,
	}
}

// newPacer allows one instrument per delay; the first instrument waits too
func newPacer(delay time.Duration) *rate.Limiter {
	if delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	limiter := rate.NewLimiter(rate.Every(delay), 1)
	limiter.Allow()
	return limiter
}

// Source returns the data source bound to this orchestrator
func (o *Orchestrator) Source() contracts.Source {
	return o.source
}

// Registry returns the scanned universe
func (o *Orchestrator) Registry() *universe.Registry {
	return o.registry
}

// Scan evaluates every instrument in registry order and returns the
// recommendations sorted by signal strength (descending).
// Only invalid conditions, a failed preflight or a cancelled context fail the scan.
func (o *Orchestrator) Scan(ctx context.Context, cond contracts.ScanConditions) (*contracts.ScanResult, error) {
	if err := cond.Validate(); err != nil {
		return nil, err
	}

	if pf, ok := o.source.(contracts.Preflighter); ok {
		if err := pf.Preflight(ctx); err != nil {
			return nil, fmt.Errorf("%s preflight: %w", o.source.Name(), err)
		}
	}

	startTime := time.Now()
	instruments := o.registry.Instruments()

	o.logger.WithFields(map[string]interface{}{
		"source":      o.source.Name(),
		"instruments": len(instruments),
		"lookback":    o.lookbackDays,
	}).Info("Scan started")

	result := &contracts.ScanResult{
		Success:         true,
		TotalScanned:    len(instruments),
		Recommendations: make([]contracts.SignalResult, 0),
		DataSource:      o.source.Name(),
		Conditions:      cond,
	}

	for _, inst := range instruments {
		if err := o.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("scan interrupted at %s: %w", inst.Symbol, err)
		}

		res, err := o.processInstrument(ctx, inst, cond)
		switch {
		case errors.Is(err, errPanic):
			result.Stats.Failed++
			o.logger.WithError(err).WithField("symbol", inst.Symbol).Error("Instrument evaluation failed")
		case err != nil:
			result.Stats.Skipped++
			o.logger.WithError(err).WithField("symbol", inst.Symbol).Debug("Instrument skipped")
		default:
			result.Stats.Evaluated++
			if res != nil {
				result.Recommendations = append(result.Recommendations, *res)
			}
		}
	}

	sort.SliceStable(result.Recommendations, func(i, j int) bool {
		return result.Recommendations[i].SignalStrength > result.Recommendations[j].SignalStrength
	})
	result.Timestamp = o.now()

	buy, sell := result.Count()
	o.logger.WithFields(map[string]interface{}{
		"source":    result.DataSource,
		"buy":       buy,
		"sell":      sell,
		"evaluated": result.Stats.Evaluated,
		"skipped":   result.Stats.Skipped,
		"failed":    result.Stats.Failed,
		"duration":  time.Since(startTime).String(),
	}).Info("Scan completed")

	return result, nil
}

// processInstrument fetches quote and history concurrently and evaluates them.
// A nil result with nil error means the instrument did not qualify.
func (o *Orchestrator) processInstrument(ctx context.Context, inst contracts.Instrument, cond contracts.ScanConditions) (res *contracts.SignalResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, fmt.Errorf("%w: %v", errPanic, r)
		}
	}()

	var (
		quote *contracts.Quote
		bars  []contracts.DailyBar
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return guard(func() (err error) {
			quote, err = o.source.GetQuote(gctx, inst.Symbol)
			if err != nil {
				return fmt.Errorf("quote: %w", err)
			}
			return nil
		})
	})
	g.Go(func() error {
		return guard(func() (err error) {
			bars, err = o.source.GetDailyBars(gctx, inst.Symbol, o.lookbackDays)
			if err != nil {
				return fmt.Errorf("daily bars: %w", err)
			}
			return nil
		})
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if quote == nil {
		return nil, fmt.Errorf("quote: %w", contracts.ErrNoData)
	}

	vp := profile.Build(bars)
	if vp == nil {
		return nil, fmt.Errorf("daily bars: %w", contracts.ErrNoData)
	}

	return signal.Evaluate(inst, quote, vp, cond), nil
}

// guard turns a panic inside a provider goroutine into an error
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errPanic, r)
		}
	}()
	return fn()
}
