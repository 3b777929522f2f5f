// Package simulation orchestrates simulation and pricing runs: it validates
// requests, fetches history, picks random streams, runs the numerical core
// and records logs and metrics for every run.
package simulation

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bcdannyboy/stochsim/metrics"
	"github.com/bcdannyboy/stochsim/models"
	"github.com/bcdannyboy/stochsim/positions"
	"github.com/bcdannyboy/stochsim/probability"
	"github.com/bcdannyboy/stochsim/rng"
)

const (
	KindStock        = "stock"
	KindBrownian     = "brownian"
	KindMonteCarlo   = "monte_carlo"
	KindBlackScholes = "black_scholes"
)

// TailConfidence is the level at which stock runs report tail risk.
const TailConfidence = 0.95

// HistorySource supplies daily closing prices in chronological order.
type HistorySource interface {
	ClosingPrices(ctx context.Context, symbol string, start, end time.Time) ([]float64, error)
}

// BarSource is implemented by history sources that also supply the daily
// range. Stock runs against one report range-based volatility.
type BarSource interface {
	DailyBars(ctx context.Context, symbol string, start, end time.Time) ([]models.Bar, error)
}

// ProgressFunc is called once before a run with the number of paths it will
// generate. The returned function is called once per finished path.
type ProgressFunc func(kind string, total int) func()

type Options struct {
	// Workers > 1 enables parallel path generation.
	Workers int
	// Seed seeds every run that does not carry its own seed. Zero draws a
	// fresh seed per run.
	Seed          uint64
	DefaultPaths  int
	DefaultSteps  int
	LookbackYears int
	Progress      ProgressFunc
	// Now overrides the clock used for default history windows.
	Now func() time.Time
}

type Service struct {
	history HistorySource
	logger  *slog.Logger
	opts    Options
}

func NewService(history HistorySource, logger *slog.Logger, opts Options) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.DefaultPaths < 1 {
		opts.DefaultPaths = probability.DefaultSimulations
	}
	if opts.DefaultSteps < 1 {
		opts.DefaultSteps = probability.DefaultTimeSteps
	}
	if opts.LookbackYears < 1 {
		opts.LookbackYears = 1
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{history: history, logger: logger, opts: opts}
}

// run wraps a unit of work with a run id, logging and metrics.
func (s *Service) run(ctx context.Context, kind string, attrs []any, fn func(runID string, log *slog.Logger) (int, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	runID := uuid.NewString()
	log := s.logger.With("run_id", runID, "kind", kind)
	log.Info("run started", attrs...)

	start := time.Now()
	paths, err := fn(runID, log)
	metrics.ObserveRun(kind, start, paths, err)

	if err != nil {
		log.Warn("run failed", "error", err, "duration", time.Since(start))
		return err
	}
	log.Info("run finished", "paths", paths, "duration", time.Since(start))
	return nil
}

// source picks the stream for a run: request seed, then configured seed,
// then a fresh random one.
func (s *Service) source(seed *uint64) *rng.Source {
	switch {
	case seed != nil:
		return rng.New(*seed)
	case s.opts.Seed != 0:
		return rng.New(s.opts.Seed)
	default:
		return rng.NewRandom()
	}
}

func (s *Service) ensemble(kind string, total int) models.EnsembleOptions {
	opts := models.EnsembleOptions{Workers: s.opts.Workers}
	if s.opts.Progress != nil {
		opts.Progress = s.opts.Progress(kind, total)
	}
	return opts
}

type StockRequest struct {
	Symbol string
	// Start and End bound the history window. Zero values mean
	// LookbackYears before End and today.
	Start time.Time
	End   time.Time
	// PathCount defaults to DefaultPaths.
	PathCount int
	// StepCount defaults to the number of historical observations.
	StepCount int
	Seed      *uint64
	KeepPaths bool
}

type StockResult struct {
	RunID     string
	Symbol    string
	Seed      uint64
	Estimate  models.HistoricalEstimate
	StepCount int
	PathCount int
	// FinalPrices summarizes the terminal price of every path.
	FinalPrices models.AggregateStatistics
	// PathPrices summarizes every simulated price of every path.
	PathPrices models.AggregateStatistics
	TailRisk   probability.TailRiskResult
	// RangeVolatility is keyed by trailing window and is empty when the
	// history source has no OHLC data.
	RangeVolatility map[string]models.RangeVolatility
	// GARCH is nil when the history is too short or the fit fails.
	GARCH *models.GARCHEstimate
	Paths []models.PricePath
}

func (r *StockRequest) normalize(s *Service) error {
	r.Symbol = strings.ToUpper(strings.TrimSpace(r.Symbol))
	if r.Symbol == "" {
		return fmt.Errorf("%w: symbol is required", models.ErrInvalidParameter)
	}
	if r.End.IsZero() {
		r.End = s.opts.Now()
	}
	if r.Start.IsZero() {
		r.Start = r.End.AddDate(-s.opts.LookbackYears, 0, 0)
	}
	if !r.Start.Before(r.End) {
		return fmt.Errorf("%w: start %s must be before end %s", models.ErrInvalidParameter,
			r.Start.Format(time.DateOnly), r.End.Format(time.DateOnly))
	}
	if r.PathCount == 0 {
		r.PathCount = s.opts.DefaultPaths
	}
	if r.PathCount < 1 {
		return fmt.Errorf("%w: path count must be >= 1, got %d", models.ErrInvalidParameter, r.PathCount)
	}
	if r.StepCount < 0 {
		return fmt.Errorf("%w: step count must be >= 1, got %d", models.ErrInvalidParameter, r.StepCount)
	}
	return nil
}

// SimulateStock fits the historical model to req.Symbol and simulates an
// ensemble of future price paths.
func (s *Service) SimulateStock(ctx context.Context, req StockRequest) (*StockResult, error) {
	if err := req.normalize(s); err != nil {
		return nil, err
	}
	if s.history == nil {
		return nil, fmt.Errorf("simulate stock: no history source configured")
	}

	var res *StockResult
	attrs := []any{"symbol", req.Symbol, "start", req.Start.Format(time.DateOnly), "end", req.End.Format(time.DateOnly), "paths", req.PathCount}
	err := s.run(ctx, KindStock, attrs, func(runID string, log *slog.Logger) (int, error) {
		closes, ranges, err := s.fetchHistory(ctx, req)
		if err != nil {
			return 0, fmt.Errorf("fetch history for %s: %w", req.Symbol, err)
		}

		est, err := models.EstimateFromCloses(closes)
		if err != nil {
			return 0, fmt.Errorf("estimate %s: %w", req.Symbol, err)
		}
		log.Debug("history estimated", "observations", est.Observations,
			"mean_log_return", est.MeanLogReturn, "volatility", est.Volatility)

		var garch *models.GARCHEstimate
		if fit, err := models.FitGARCH11(models.LogReturns(closes)); err == nil {
			garch = &fit
		} else {
			log.Debug("garch fit skipped", "error", err)
		}

		steps := req.StepCount
		if steps == 0 {
			steps = est.Observations
		}

		g := s.source(req.Seed)
		paths, err := models.NewHistoricalGBM(est, steps).SimulatePaths(g, req.PathCount, s.ensemble(KindStock, req.PathCount))
		if err != nil {
			return 0, err
		}

		final, err := probability.Summarize(probability.TerminalValues(paths))
		if err != nil {
			return 0, err
		}
		all, err := probability.Summarize(probability.AllValues(paths))
		if err != nil {
			return 0, err
		}

		terminals := make([]float64, len(paths))
		for i, p := range paths {
			terminals[i] = p.Terminal()
		}
		tail, err := probability.TailRisk(est.InitialPrice, terminals, TailConfidence)
		if err != nil {
			return 0, err
		}

		res = &StockResult{
			RunID:       runID,
			Symbol:      req.Symbol,
			Seed:        g.Seed(),
			Estimate:    est,
			StepCount:   steps,
			PathCount:   req.PathCount,
			FinalPrices: final,
			PathPrices:  all,
			TailRisk:    tail,

			RangeVolatility: ranges,
			GARCH:           garch,
		}
		if req.KeepPaths {
			res.Paths = paths
		}
		return len(paths), nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *Service) fetchHistory(ctx context.Context, req StockRequest) ([]float64, map[string]models.RangeVolatility, error) {
	bs, ok := s.history.(BarSource)
	if !ok {
		closes, err := s.history.ClosingPrices(ctx, req.Symbol, req.Start, req.End)
		return closes, map[string]models.RangeVolatility{}, err
	}
	bars, err := bs.DailyBars(ctx, req.Symbol, req.Start, req.End)
	if err != nil {
		return nil, nil, err
	}
	return models.Closes(bars), models.TrailingRangeVolatility(bars), nil
}

type BrownianRequest struct {
	Horizon   float64
	StepCount int
	Dimension int
	PathCount int
	Seed      *uint64
	KeepPaths bool
}

type BrownianResult struct {
	RunID     string
	Seed      uint64
	Horizon   float64
	StepCount int
	Dimension int
	PathCount int
	// Terminal holds per-axis statistics of the final position.
	Terminal []models.AggregateStatistics
	Paths    []models.BrownianPath
}

// SimulateBrownian draws an ensemble of d-dimensional Wiener paths.
func (s *Service) SimulateBrownian(ctx context.Context, req BrownianRequest) (*BrownianResult, error) {
	if req.PathCount == 0 {
		req.PathCount = 1
	}
	bm := &models.BrownianMotion{Horizon: req.Horizon, StepCount: req.StepCount, Dimension: req.Dimension}
	if err := bm.Validate(); err != nil {
		return nil, err
	}
	if req.PathCount < 1 {
		return nil, fmt.Errorf("%w: path count must be >= 1, got %d", models.ErrInvalidParameter, req.PathCount)
	}

	var res *BrownianResult
	attrs := []any{"horizon", req.Horizon, "steps", req.StepCount, "dimension", req.Dimension, "paths", req.PathCount}
	err := s.run(ctx, KindBrownian, attrs, func(runID string, _ *slog.Logger) (int, error) {
		g := s.source(req.Seed)
		paths, err := bm.SimulatePaths(g, req.PathCount, s.ensemble(KindBrownian, req.PathCount))
		if err != nil {
			return 0, err
		}

		terminal := make([]models.AggregateStatistics, req.Dimension)
		for axis := range terminal {
			stats, err := probability.Summarize(probability.BrownianTerminalValues(paths, axis))
			if err != nil {
				return 0, err
			}
			terminal[axis] = stats
		}

		res = &BrownianResult{
			RunID:     runID,
			Seed:      g.Seed(),
			Horizon:   req.Horizon,
			StepCount: req.StepCount,
			Dimension: req.Dimension,
			PathCount: req.PathCount,
			Terminal:  terminal,
		}
		if req.KeepPaths {
			res.Paths = paths
		}
		return len(paths), nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

type OptionRequest struct {
	Spot       float64
	Strike     float64
	Horizon    float64
	Rate       float64
	Volatility float64
	Kind       models.OptionKind
	// PathCount and StepCount default to DefaultPaths and DefaultSteps.
	PathCount int
	StepCount int
	Seed      *uint64
	KeepPaths bool
}

func (r OptionRequest) parameters(s *Service) models.SimulationParameters {
	p := models.SimulationParameters{
		InitialPrice: r.Spot,
		Drift:        r.Rate,
		Volatility:   r.Volatility,
		Horizon:      r.Horizon,
		RiskFreeRate: r.Rate,
		Strike:       r.Strike,
		StepCount:    r.StepCount,
		PathCount:    r.PathCount,
		Kind:         r.Kind,
	}
	if p.PathCount == 0 {
		p.PathCount = s.opts.DefaultPaths
	}
	if p.StepCount == 0 {
		p.StepCount = s.opts.DefaultSteps
	}
	return p
}

type OptionResult struct {
	RunID    string
	Seed     uint64
	Params   models.SimulationParameters
	Estimate models.OptionPriceEstimate
	// Reference is the closed-form result; nil when volatility is zero.
	Reference *models.BSMResult
	// Difference is Estimate.Price - Reference.Price, and StdErrors the
	// same difference in units of the standard error.
	Difference float64
	StdErrors  float64
	Paths      []models.PricePath
}

// PriceOption prices a European option by Monte Carlo and compares the
// estimate with the closed-form value.
func (s *Service) PriceOption(ctx context.Context, req OptionRequest) (*OptionResult, error) {
	params := req.parameters(s)
	if err := params.Validate(); err != nil {
		return nil, err
	}

	var res *OptionResult
	attrs := []any{"option_kind", params.Kind.String(), "spot", params.InitialPrice, "strike", params.Strike,
		"horizon", params.Horizon, "paths", params.PathCount, "steps", params.StepCount}
	err := s.run(ctx, KindMonteCarlo, attrs, func(runID string, _ *slog.Logger) (int, error) {
		g := s.source(req.Seed)
		ens := s.ensemble(KindMonteCarlo, params.PathCount)
		pricer := probability.MonteCarloPricer{Workers: ens.Workers, KeepPaths: req.KeepPaths, Progress: ens.Progress}

		est, paths, err := pricer.Price(params, g)
		if err != nil {
			return 0, err
		}

		res = &OptionResult{RunID: runID, Seed: g.Seed(), Params: params, Estimate: est, Paths: paths}
		if params.Volatility > 0 {
			ref, err := positions.Calculate(params.InitialPrice, params.Strike, params.Horizon,
				params.RiskFreeRate, params.Volatility, params.Kind)
			if err != nil {
				return 0, err
			}
			res.Reference = &ref
			res.Difference = est.Price - ref.Price
			if est.StandardError > 0 {
				res.StdErrors = math.Abs(res.Difference) / est.StandardError
			}
		}
		return params.PathCount, nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// PriceClosedForm returns the Black-Scholes-Merton price and greeks.
func (s *Service) PriceClosedForm(ctx context.Context, req OptionRequest) (*models.BSMResult, error) {
	var res models.BSMResult
	attrs := []any{"option_kind", req.Kind.String(), "spot", req.Spot, "strike", req.Strike, "horizon", req.Horizon}
	err := s.run(ctx, KindBlackScholes, attrs, func(string, *slog.Logger) (int, error) {
		var err error
		res, err = positions.Calculate(req.Spot, req.Strike, req.Horizon, req.Rate, req.Volatility, req.Kind)
		return 0, err
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}
