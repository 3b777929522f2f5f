package simulation

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bcdannyboy/stochsim/logging"
	"github.com/bcdannyboy/stochsim/models"
	"github.com/bcdannyboy/stochsim/positions"
	"github.com/bcdannyboy/stochsim/tradier"
)

type fakeHistory struct {
	closes []float64
	err    error

	symbol     string
	start, end time.Time
}

func (f *fakeHistory) ClosingPrices(_ context.Context, symbol string, start, end time.Time) ([]float64, error) {
	f.symbol, f.start, f.end = symbol, start, end
	return f.closes, f.err
}

// barHistory supplies OHLC bars. Its ClosingPrices fails so tests notice
// when the service ignores the bars.
type barHistory struct {
	bars []models.Bar
}

func (barHistory) ClosingPrices(context.Context, string, time.Time, time.Time) ([]float64, error) {
	return nil, errors.New("closing prices should not be called")
}

func (b barHistory) DailyBars(context.Context, string, time.Time, time.Time) ([]models.Bar, error) {
	return b.bars, nil
}

var fixedNow = time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)

func newTestService(h HistorySource, opts Options) *Service {
	opts.Now = func() time.Time { return fixedNow }
	return NewService(h, logging.Discard(), opts)
}

func seed(v uint64) *uint64 { return &v }

func TestSimulateStock(t *testing.T) {
	t.Parallel()

	h := &fakeHistory{closes: []float64{100, 101, 99.5, 102, 103.1, 101.7, 104}}
	svc := newTestService(h, Options{})

	res, err := svc.SimulateStock(context.Background(), StockRequest{Symbol: " googl ", PathCount: 50, Seed: seed(1)})
	require.NoError(t, err)

	require.Equal(t, "GOOGL", h.symbol)
	require.Equal(t, fixedNow, h.end)
	require.Equal(t, fixedNow.AddDate(-1, 0, 0), h.start)

	require.NotEmpty(t, res.RunID)
	require.Equal(t, uint64(1), res.Seed)
	require.Equal(t, 104.0, res.Estimate.InitialPrice)
	require.Equal(t, 7, res.StepCount)
	require.Equal(t, 50, res.FinalPrices.Count)
	require.Equal(t, 50*8, res.PathPrices.Count)
	require.LessOrEqual(t, res.PathPrices.Min, res.FinalPrices.Min)
	require.GreaterOrEqual(t, res.PathPrices.Max, res.FinalPrices.Max)
	require.Nil(t, res.Paths)

	again, err := svc.SimulateStock(context.Background(), StockRequest{Symbol: "GOOGL", PathCount: 50, Seed: seed(1)})
	require.NoError(t, err)
	require.Equal(t, res.FinalPrices, again.FinalPrices)
	require.NotEqual(t, res.RunID, again.RunID)
}

func TestSimulateStockRangeVolatility(t *testing.T) {
	t.Parallel()

	bars := make([]models.Bar, 25)
	for i := range bars {
		c := 100 + float64(i%4)
		bars[i] = models.Bar{Open: c - 0.5, High: c + 1, Low: c - 1, Close: c}
	}
	svc := newTestService(barHistory{bars: bars}, Options{})

	res, err := svc.SimulateStock(context.Background(), StockRequest{Symbol: "SPY", PathCount: 10, Seed: seed(3)})
	require.NoError(t, err)
	require.Equal(t, 25, res.Estimate.Observations)
	require.Equal(t, bars[24].Close, res.Estimate.InitialPrice)
	require.Contains(t, res.RangeVolatility, "1w")
	require.Contains(t, res.RangeVolatility, "1m")
	require.Contains(t, res.RangeVolatility, "all")
	require.Greater(t, res.RangeVolatility["all"].Parkinson, 0.0)
	require.Nil(t, res.GARCH)

	closesOnly := newTestService(&fakeHistory{closes: []float64{100, 101, 102}}, Options{})
	res, err = closesOnly.SimulateStock(context.Background(), StockRequest{Symbol: "SPY", PathCount: 10, Seed: seed(3)})
	require.NoError(t, err)
	require.Empty(t, res.RangeVolatility)
}

func TestSimulateStockGARCH(t *testing.T) {
	t.Parallel()

	closes := make([]float64, 120)
	closes[0] = 100
	for i := 1; i < len(closes); i++ {
		closes[i] = closes[i-1] * math.Exp(0.01*math.Sin(float64(i)*1.7)+0.004*math.Cos(float64(i*i)))
	}
	svc := newTestService(&fakeHistory{closes: closes}, Options{})

	res, err := svc.SimulateStock(context.Background(), StockRequest{Symbol: "SPY", PathCount: 10, StepCount: 5, Seed: seed(2)})
	require.NoError(t, err)
	require.NotNil(t, res.GARCH)
	require.Less(t, res.GARCH.Params.Alpha+res.GARCH.Params.Beta, 1.0)
	require.Greater(t, res.GARCH.Volatility, 0.0)
}

func TestSimulateStockErrors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	short := newTestService(&fakeHistory{closes: []float64{100, 101}}, Options{})
	_, err := short.SimulateStock(ctx, StockRequest{Symbol: "X"})
	require.ErrorIs(t, err, models.ErrInvalidParameter)

	empty := newTestService(&fakeHistory{}, Options{})
	_, err = empty.SimulateStock(ctx, StockRequest{Symbol: "X"})
	require.ErrorIs(t, err, models.ErrInvalidParameter)

	down := newTestService(&fakeHistory{err: tradier.ErrUpstreamUnavailable}, Options{})
	_, err = down.SimulateStock(ctx, StockRequest{Symbol: "X"})
	require.ErrorIs(t, err, tradier.ErrUpstreamUnavailable)

	ok := newTestService(&fakeHistory{closes: []float64{1, 2, 3}}, Options{})
	_, err = ok.SimulateStock(ctx, StockRequest{Symbol: ""})
	require.ErrorIs(t, err, models.ErrInvalidParameter)
	_, err = ok.SimulateStock(ctx, StockRequest{Symbol: "X", PathCount: -1})
	require.ErrorIs(t, err, models.ErrInvalidParameter)
	_, err = ok.SimulateStock(ctx, StockRequest{Symbol: "X", Start: fixedNow, End: fixedNow.AddDate(0, 0, -1)})
	require.ErrorIs(t, err, models.ErrInvalidParameter)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = ok.SimulateStock(cancelled, StockRequest{Symbol: "X"})
	require.True(t, errors.Is(err, context.Canceled))
}

func TestSimulateBrownian(t *testing.T) {
	t.Parallel()

	var ticks atomic.Int64
	svc := newTestService(nil, Options{
		Workers: 2,
		Progress: func(kind string, total int) func() {
			return func() { ticks.Add(1) }
		},
	})

	res, err := svc.SimulateBrownian(context.Background(), BrownianRequest{
		Horizon: 1, StepCount: 100, Dimension: 3, PathCount: 4000, Seed: seed(8),
	})
	require.NoError(t, err)
	require.Equal(t, int64(4000), ticks.Load())
	require.Len(t, res.Terminal, 3)
	for _, axis := range res.Terminal {
		require.Equal(t, 4000, axis.Count)
		require.InDelta(t, 1.0, axis.StdDev*axis.StdDev, 5*math.Sqrt(2.0/3999))
	}

	single, err := svc.SimulateBrownian(context.Background(), BrownianRequest{
		Horizon: 1, StepCount: 100, Dimension: 1, KeepPaths: true,
	})
	require.NoError(t, err)
	require.Len(t, single.Paths, 1)
	require.Equal(t, 100, single.Paths[0].Len())
	require.Equal(t, []float64{0}, single.Paths[0].At(0))

	_, err = svc.SimulateBrownian(context.Background(), BrownianRequest{Horizon: 1, StepCount: 1, Dimension: 1})
	require.ErrorIs(t, err, models.ErrInvalidParameter)
}

func TestPriceOption(t *testing.T) {
	t.Parallel()

	svc := newTestService(nil, Options{DefaultSteps: 1})
	req := OptionRequest{
		Spot: 100, Strike: 100, Horizon: 1, Rate: 0.05, Volatility: 0.2,
		Kind: models.Call, PathCount: 100000, Seed: seed(2024),
	}

	res, err := svc.PriceOption(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, res.Reference)
	require.InDelta(t, 10.450583572185565, res.Reference.Price, 1e-9)
	require.Equal(t, 1, res.Params.StepCount)
	require.Less(t, res.StdErrors, 3.0)
	require.InDelta(t, res.Estimate.Price-res.Reference.Price, res.Difference, 1e-12)

	req.Volatility = 0
	req.PathCount = 10
	flat, err := svc.PriceOption(context.Background(), req)
	require.NoError(t, err)
	require.Nil(t, flat.Reference)

	req.Kind = models.OptionKind(0)
	_, err = svc.PriceOption(context.Background(), req)
	require.ErrorIs(t, err, models.ErrInvalidOptionKind)
}

func TestPriceClosedForm(t *testing.T) {
	t.Parallel()

	svc := newTestService(nil, Options{})
	req := OptionRequest{Spot: 100, Strike: 100, Horizon: 1, Rate: 0.05, Volatility: 0.2, Kind: models.Put}

	res, err := svc.PriceClosedForm(context.Background(), req)
	require.NoError(t, err)
	want, err := positions.Price(100, 100, 1, 0.05, 0.2, models.Put)
	require.NoError(t, err)
	require.Equal(t, want, res.Price)

	req.Volatility = 0
	_, err = svc.PriceClosedForm(context.Background(), req)
	require.ErrorIs(t, err, models.ErrInvalidParameter)
}

func TestConfiguredSeedIsUsed(t *testing.T) {
	t.Parallel()

	svc := newTestService(nil, Options{Seed: 99})
	req := BrownianRequest{Horizon: 1, StepCount: 10, Dimension: 1, PathCount: 5}

	a, err := svc.SimulateBrownian(context.Background(), req)
	require.NoError(t, err)
	b, err := svc.SimulateBrownian(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, uint64(99), a.Seed)
	require.Equal(t, a.Terminal, b.Terminal)
}

func TestPriceOptionRejectsNonFiniteEstimate(t *testing.T) {
	t.Parallel()

	svc := newTestService(nil, Options{DefaultSteps: 5})
	res, err := svc.PriceOption(context.Background(), OptionRequest{
		Spot: 100, Strike: 100, Horizon: 1, Rate: 800, Volatility: 0.2,
		Kind: models.Call, PathCount: 20, Seed: seed(1),
	})
	require.ErrorIs(t, err, models.ErrInvalidParameter)
	require.Nil(t, res)
}
