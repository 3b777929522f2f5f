package server

import (
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bcdannyboy/stochsim/models"
	"github.com/bcdannyboy/stochsim/simulation"
)

// Monetary and statistical outputs are rounded to this many places.
const places = 4

// round renders v at fixed precision. Non-finite values render as zero
// since decimal cannot hold them.
func round(v float64) decimal.Decimal {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(v).Round(places)
}

type StatsResponse struct {
	Count  int             `json:"count"`
	Mean   decimal.Decimal `json:"mean"`
	Min    decimal.Decimal `json:"min"`
	Max    decimal.Decimal `json:"max"`
	StdDev decimal.Decimal `json:"std_dev"`
}

func newStatsResponse(s models.AggregateStatistics) StatsResponse {
	return StatsResponse{
		Count:  s.Count,
		Mean:   round(s.Mean),
		Min:    round(s.Min),
		Max:    round(s.Max),
		StdDev: round(s.StdDev),
	}
}

type StockRequest struct {
	Symbol string  `json:"symbol"`
	Start  string  `json:"start,omitempty"` // YYYY-MM-DD
	End    string  `json:"end,omitempty"`
	Paths  int     `json:"paths,omitempty"`
	Steps  int     `json:"steps,omitempty"`
	Seed   *uint64 `json:"seed,omitempty"`
	// IncludePaths returns every simulated price path.
	IncludePaths bool `json:"include_paths,omitempty"`
}

type StockResponse struct {
	RunID         string          `json:"run_id"`
	Symbol        string          `json:"symbol"`
	Seed          uint64          `json:"seed"`
	InitialPrice  decimal.Decimal `json:"initial_price"`
	MeanLogReturn float64         `json:"mean_log_return"`
	Volatility    float64         `json:"volatility"`
	Observations  int             `json:"observations"`
	Steps         int             `json:"steps"`
	Paths         int             `json:"paths"`
	FinalPrices   StatsResponse   `json:"final_prices"`
	PathPrices    StatsResponse   `json:"path_prices"`
	ValueAtRisk95 decimal.Decimal `json:"value_at_risk_95"`
	Shortfall95   decimal.Decimal `json:"expected_shortfall_95"`

	RangeVolatility map[string]RangeVolatilityResponse `json:"range_volatility,omitempty"`
	GARCH           *GARCHResponse                     `json:"garch,omitempty"`

	Times  []float64   `json:"times,omitempty"`
	Prices [][]float64 `json:"prices,omitempty"` // [path][time]
}

type GARCHResponse struct {
	Omega         float64 `json:"omega"`
	Alpha         float64 `json:"alpha"`
	Beta          float64 `json:"beta"`
	LogLikelihood float64 `json:"log_likelihood"`
	Volatility    float64 `json:"volatility"`
}

// RangeVolatilityResponse holds annualized range-based estimates for one
// trailing window.
type RangeVolatilityResponse struct {
	Days           int     `json:"days"`
	Parkinson      float64 `json:"parkinson"`
	GarmanKlass    float64 `json:"garman_klass"`
	RogersSatchell float64 `json:"rogers_satchell"`
	YangZhang      float64 `json:"yang_zhang"`
}

func parseDate(field, v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be YYYY-MM-DD, got %q", models.ErrInvalidParameter, field, v)
	}
	return t, nil
}

func (s *Server) simulateStock(w http.ResponseWriter, r *http.Request) {
	var req StockRequest
	if err := decode(r, &req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	start, err := parseDate("start", req.Start)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	end, err := parseDate("end", req.End)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	res, err := s.sim.SimulateStock(r.Context(), simulation.StockRequest{
		Symbol:    req.Symbol,
		Start:     start,
		End:       end,
		PathCount: req.Paths,
		StepCount: req.Steps,
		Seed:      req.Seed,
		KeepPaths: req.IncludePaths,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, NewStockResponse(res))
}

// NewStockResponse renders a stock run.
func NewStockResponse(res *simulation.StockResult) StockResponse {
	out := StockResponse{
		RunID:         res.RunID,
		Symbol:        res.Symbol,
		Seed:          res.Seed,
		InitialPrice:  round(res.Estimate.InitialPrice),
		MeanLogReturn: res.Estimate.MeanLogReturn,
		Volatility:    res.Estimate.Volatility,
		Observations:  res.Estimate.Observations,
		Steps:         res.StepCount,
		Paths:         res.PathCount,
		FinalPrices:   newStatsResponse(res.FinalPrices),
		PathPrices:    newStatsResponse(res.PathPrices),
		ValueAtRisk95: round(res.TailRisk.ValueAtRisk),
		Shortfall95:   round(res.TailRisk.ExpectedShortfall),
	}
	if len(res.RangeVolatility) > 0 {
		out.RangeVolatility = make(map[string]RangeVolatilityResponse, len(res.RangeVolatility))
		for window, rv := range res.RangeVolatility {
			out.RangeVolatility[window] = RangeVolatilityResponse(rv)
		}
	}
	if g := res.GARCH; g != nil {
		out.GARCH = &GARCHResponse{
			Omega:         g.Params.Omega,
			Alpha:         g.Params.Alpha,
			Beta:          g.Params.Beta,
			LogLikelihood: g.LogLikelihood,
			Volatility:    g.Volatility,
		}
	}
	out.Times, out.Prices = pricePaths(res.Paths)
	return out
}

// pricePaths flattens an ensemble that shares one time grid.
func pricePaths(paths []models.PricePath) ([]float64, [][]float64) {
	if len(paths) == 0 {
		return nil, nil
	}
	prices := make([][]float64, len(paths))
	for i, p := range paths {
		prices[i] = p.Prices
	}
	return paths[0].Times, prices
}

type BrownianRequest struct {
	Horizon   float64 `json:"horizon"`
	Steps     int     `json:"steps"`
	Dimension int     `json:"dimension"`
	Paths     int     `json:"paths,omitempty"`
	Seed      *uint64 `json:"seed,omitempty"`
	// IncludePaths returns every path; only sensible for small ensembles.
	IncludePaths bool `json:"include_paths,omitempty"`
}

type BrownianResponse struct {
	RunID     string          `json:"run_id"`
	Seed      uint64          `json:"seed"`
	Horizon   float64         `json:"horizon"`
	Steps     int             `json:"steps"`
	Dimension int             `json:"dimension"`
	Paths     int             `json:"paths"`
	Terminal  []StatsResponse `json:"terminal"`
	Times     []float64       `json:"times,omitempty"`
	Values    [][][]float64   `json:"values,omitempty"` // [path][time][axis]
}

func (s *Server) simulateBrownian(w http.ResponseWriter, r *http.Request) {
	var req BrownianRequest
	if err := decode(r, &req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	res, err := s.sim.SimulateBrownian(r.Context(), simulation.BrownianRequest{
		Horizon:   req.Horizon,
		StepCount: req.Steps,
		Dimension: req.Dimension,
		PathCount: req.Paths,
		Seed:      req.Seed,
		KeepPaths: req.IncludePaths,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, NewBrownianResponse(res))
}

// NewBrownianResponse renders a Brownian run, including its paths when the
// run kept them.
func NewBrownianResponse(res *simulation.BrownianResult) BrownianResponse {
	resp := BrownianResponse{
		RunID:     res.RunID,
		Seed:      res.Seed,
		Horizon:   res.Horizon,
		Steps:     res.StepCount,
		Dimension: res.Dimension,
		Paths:     res.PathCount,
		Terminal:  make([]StatsResponse, len(res.Terminal)),
	}
	for i, t := range res.Terminal {
		resp.Terminal[i] = newStatsResponse(t)
	}
	if len(res.Paths) > 0 {
		resp.Times = res.Paths[0].Times
		resp.Values = make([][][]float64, len(res.Paths))
		for i, p := range res.Paths {
			rows := make([][]float64, p.Len())
			for j := range rows {
				rows[j] = p.At(j)
			}
			resp.Values[i] = rows
		}
	}
	return resp
}

type OptionRequest struct {
	Spot       float64 `json:"spot"`
	Strike     float64 `json:"strike"`
	Horizon    float64 `json:"horizon"`
	Rate       float64 `json:"rate"`
	Volatility float64 `json:"volatility"`
	Kind       string  `json:"kind"`
	Paths      int     `json:"paths,omitempty"`
	Steps      int     `json:"steps,omitempty"`
	Seed       *uint64 `json:"seed,omitempty"`
	// IncludePaths returns every simulated path of a Monte Carlo run.
	IncludePaths bool `json:"include_paths,omitempty"`
}

func (req OptionRequest) toSimulation() (simulation.OptionRequest, error) {
	kind, err := models.ParseOptionKind(req.Kind)
	if err != nil {
		return simulation.OptionRequest{}, err
	}
	return simulation.OptionRequest{
		Spot:       req.Spot,
		Strike:     req.Strike,
		Horizon:    req.Horizon,
		Rate:       req.Rate,
		Volatility: req.Volatility,
		Kind:       kind,
		PathCount:  req.Paths,
		StepCount:  req.Steps,
		Seed:       req.Seed,
		KeepPaths:  req.IncludePaths,
	}, nil
}

type GreeksResponse struct {
	Price decimal.Decimal `json:"price"`
	Delta decimal.Decimal `json:"delta"`
	Gamma decimal.Decimal `json:"gamma"`
	Vega  decimal.Decimal `json:"vega"`
	Theta decimal.Decimal `json:"theta"`
	Rho   decimal.Decimal `json:"rho"`
	D1    float64         `json:"d1"`
	D2    float64         `json:"d2"`
}

// NewGreeksResponse renders a closed-form result.
func NewGreeksResponse(r models.BSMResult) GreeksResponse {
	return GreeksResponse{
		Price: round(r.Price),
		Delta: round(r.Delta),
		Gamma: round(r.Gamma),
		Vega:  round(r.Vega),
		Theta: round(r.Theta),
		Rho:   round(r.Rho),
		D1:    r.D1,
		D2:    r.D2,
	}
}

type MonteCarloResponse struct {
	RunID          string          `json:"run_id"`
	Seed           uint64          `json:"seed"`
	Kind           string          `json:"kind"`
	Paths          int             `json:"paths"`
	Steps          int             `json:"steps"`
	Price          decimal.Decimal `json:"price"`
	StandardError  decimal.Decimal `json:"standard_error"`
	DiscountFactor float64         `json:"discount_factor"`
	BlackScholes   *GreeksResponse `json:"black_scholes,omitempty"`
	Difference     decimal.Decimal `json:"difference"`
	StdErrors      float64         `json:"std_errors"`

	Times  []float64   `json:"times,omitempty"` // years
	Prices [][]float64 `json:"prices,omitempty"`
}

func (s *Server) priceMonteCarlo(w http.ResponseWriter, r *http.Request) {
	var body OptionRequest
	if err := decode(r, &body); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	req, err := body.toSimulation()
	if err != nil {
		s.fail(w, r, err)
		return
	}

	res, err := s.sim.PriceOption(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, NewMonteCarloResponse(res))
}

// NewMonteCarloResponse renders a Monte Carlo run with its closed-form
// reference.
func NewMonteCarloResponse(res *simulation.OptionResult) MonteCarloResponse {
	resp := MonteCarloResponse{
		RunID:          res.RunID,
		Seed:           res.Seed,
		Kind:           res.Params.Kind.String(),
		Paths:          res.Params.PathCount,
		Steps:          res.Params.StepCount,
		Price:          round(res.Estimate.Price),
		StandardError:  round(res.Estimate.StandardError),
		DiscountFactor: res.Estimate.DiscountFactor,
		Difference:     round(res.Difference),
		StdErrors:      res.StdErrors,
	}
	if res.Reference != nil {
		g := NewGreeksResponse(*res.Reference)
		resp.BlackScholes = &g
	}
	resp.Times, resp.Prices = pricePaths(res.Paths)
	return resp
}

func (s *Server) priceBlackScholes(w http.ResponseWriter, r *http.Request) {
	var body OptionRequest
	if err := decode(r, &body); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	req, err := body.toSimulation()
	if err != nil {
		s.fail(w, r, err)
		return
	}

	res, err := s.sim.PriceClosedForm(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, NewGreeksResponse(*res))
}
