package cli

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bcdannyboy/stochsim/models"
	"github.com/bcdannyboy/stochsim/positions"
	"github.com/bcdannyboy/stochsim/server"
	"github.com/bcdannyboy/stochsim/simulation"
	slackbot "github.com/bcdannyboy/stochsim/slack"
)

// seedFlag returns the --seed value only when it was given.
func seedFlag(cmd *cobra.Command, v uint64) *uint64 {
	if !cmd.Flags().Changed("seed") {
		return nil
	}
	return &v
}

// withProgress runs fn against a service whose runs draw progress bars,
// unless --quiet is set.
func (a *app) withProgress(cmd *cobra.Command, fn func(svc *simulation.Service) error) error {
	if a.quiet {
		return fn(a.service(nil))
	}
	pr := newProgress(cmd.ErrOrStderr())
	err := fn(a.service(pr.Func()))
	pr.Wait()
	return err
}

func parseDateFlag(name, v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s must be YYYY-MM-DD: %w", name, err)
	}
	return t, nil
}

func (a *app) gbmCommand() *cobra.Command {
	var (
		symbol     string
		start, end string
		paths      int
		steps      int
		seed       uint64
		keepPaths  bool
	)

	cmd := &cobra.Command{
		Use:   "gbm",
		Short: "Simulate future prices of a symbol from its daily history",
		RunE: func(cmd *cobra.Command, _ []string) error {
			from, err := parseDateFlag("start", start)
			if err != nil {
				return err
			}
			to, err := parseDateFlag("end", end)
			if err != nil {
				return err
			}

			req := simulation.StockRequest{
				Symbol:    symbol,
				Start:     from,
				End:       to,
				PathCount: paths,
				StepCount: steps,
				Seed:      seedFlag(cmd, seed),
				KeepPaths: keepPaths,
			}

			var res *simulation.StockResult
			err = a.withProgress(cmd, func(svc *simulation.Service) error {
				res, err = svc.SimulateStock(cmd.Context(), req)
				return err
			})
			if err != nil {
				return err
			}
			return a.writeOutput(cmd.OutOrStdout(), server.NewStockResponse(res))
		},
	}

	f := cmd.Flags()
	f.StringVar(&symbol, "symbol", "", "ticker symbol")
	f.StringVar(&start, "start", "", "history start date (YYYY-MM-DD, default: lookback before end)")
	f.StringVar(&end, "end", "", "history end date (YYYY-MM-DD, default: today)")
	f.IntVar(&paths, "paths", 0, "number of simulated paths (default from config)")
	f.IntVar(&steps, "steps", 0, "days per path (default: number of historical observations)")
	f.Uint64Var(&seed, "seed", 0, "random seed")
	f.BoolVar(&keepPaths, "keep-paths", false, "include every simulated path in the output")
	_ = cmd.MarkFlagRequired("symbol")
	return cmd
}

func (a *app) brownianCommand() *cobra.Command {
	var (
		horizon   float64
		steps     int
		dimension int
		paths     int
		seed      uint64
		keepPaths bool
	)

	cmd := &cobra.Command{
		Use:   "brownian",
		Short: "Simulate standard Brownian motion in one or more dimensions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			req := simulation.BrownianRequest{
				Horizon:   horizon,
				StepCount: steps,
				Dimension: dimension,
				PathCount: paths,
				Seed:      seedFlag(cmd, seed),
				KeepPaths: keepPaths,
			}

			var res *simulation.BrownianResult
			err := a.withProgress(cmd, func(svc *simulation.Service) error {
				var err error
				res, err = svc.SimulateBrownian(cmd.Context(), req)
				return err
			})
			if err != nil {
				return err
			}
			return a.writeOutput(cmd.OutOrStdout(), server.NewBrownianResponse(res))
		},
	}

	f := cmd.Flags()
	f.Float64Var(&horizon, "horizon", 1, "time horizon T")
	f.IntVar(&steps, "steps", 100, "number of time points")
	f.IntVar(&dimension, "dimension", 1, "number of independent axes")
	f.IntVar(&paths, "paths", 1, "number of paths")
	f.Uint64Var(&seed, "seed", 0, "random seed")
	f.BoolVar(&keepPaths, "keep-paths", false, "include every path in the output")
	return cmd
}

type priceOutput struct {
	MonteCarlo server.MonteCarloResponse `json:"monte_carlo"`
	ShadowUp   float64                   `json:"shadow_up_gamma,omitempty"`
	ShadowDown float64                   `json:"shadow_down_gamma,omitempty"`
	Vomma      float64                   `json:"vomma,omitempty"`
}

func (a *app) priceCommand() *cobra.Command {
	var (
		spot, strike, horizon float64
		rate, vol             float64
		kind                  string
		paths, steps          int
		seed                  uint64
		keepPaths             bool
	)

	cmd := &cobra.Command{
		Use:   "price",
		Short: "Price a European option by Monte Carlo and Black-Scholes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			k, err := models.ParseOptionKind(kind)
			if err != nil {
				return err
			}
			req := simulation.OptionRequest{
				Spot:       spot,
				Strike:     strike,
				Horizon:    horizon,
				Rate:       rate,
				Volatility: vol,
				Kind:       k,
				PathCount:  paths,
				StepCount:  steps,
				Seed:       seedFlag(cmd, seed),
				KeepPaths:  keepPaths,
			}

			var res *simulation.OptionResult
			err = a.withProgress(cmd, func(svc *simulation.Service) error {
				res, err = svc.PriceOption(cmd.Context(), req)
				return err
			})
			if err != nil {
				return err
			}

			out := priceOutput{MonteCarlo: server.NewMonteCarloResponse(res)}
			if res.Reference != nil {
				out.ShadowUp, out.ShadowDown, err = positions.ShadowGamma(spot, strike, horizon, rate, vol, k, 0.01, 0.05)
				if err != nil {
					return err
				}
				out.Vomma, err = positions.SkewGamma(spot, strike, horizon, rate, vol, k, 0.01)
				if err != nil {
					return err
				}
			}
			return a.writeOutput(cmd.OutOrStdout(), out)
		},
	}

	f := cmd.Flags()
	f.Float64Var(&spot, "spot", 100, "current price of the underlying")
	f.Float64Var(&strike, "strike", 100, "strike price")
	f.Float64Var(&horizon, "horizon", 1, "time to expiry in years")
	f.Float64Var(&rate, "rate", 0.05, "continuously compounded risk-free rate")
	f.Float64Var(&vol, "vol", 0.2, "annualized volatility")
	f.StringVar(&kind, "kind", "call", "call or put")
	f.IntVar(&paths, "paths", 0, "Monte Carlo paths (default from config)")
	f.IntVar(&steps, "steps", 0, "time steps per path (default from config)")
	f.Uint64Var(&seed, "seed", 0, "random seed")
	f.BoolVar(&keepPaths, "keep-paths", false, "include every simulated path in the output")
	return cmd
}

func (a *app) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return server.New(a.service(nil), a.logger).ListenAndServe(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}

func (a *app) slackCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "slack",
		Short: "Run the Slack socket-mode bot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.cfg.Slack.AppToken == "" || a.cfg.Slack.BotToken == "" {
				return fmt.Errorf("slack.app_token and slack.bot_token must be set")
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			bot := slackbot.NewSlackBot(a.cfg.Slack.AppToken, a.cfg.Slack.BotToken, a.service(nil), a.logger)
			err := bot.Start(ctx)
			if err != nil && ctx.Err() != nil {
				return nil
			}
			return err
		},
	}
}
