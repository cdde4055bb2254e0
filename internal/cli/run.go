package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"dip-trader/internal/broker"
	"dip-trader/internal/models"
	"dip-trader/internal/notify"
	"dip-trader/internal/report"
	"dip-trader/internal/screenshot"
	"dip-trader/internal/trading"
)

const defaultTargetSymbol = "SPY"

func newRunCmd(app *App) *cobra.Command {
	var (
		paperMode bool
		liveMode  bool
		autoMode  bool
		simulate  bool
		noCapture bool
		symbol    string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start a monitoring session",
		Long: `Connects to the trading venue, establishes the session baseline from the
benchmark's first resolvable price, then polls for declines. When the
decline crosses a configured tier, one unit of the target symbol is bought
and the session ends.

Reports, the trade screenshot and an optional summary email are produced
at session end regardless of how the session terminated.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			mode := models.ModePaper
			if liveMode {
				if cmd.Flags().Changed("paper") && paperMode {
					return fmt.Errorf("--paper and --live are mutually exclusive")
				}
				if simulate {
					return fmt.Errorf("--simulate cannot be combined with --live")
				}
				mode = models.ModeLive
			}

			return runSession(cmd.Context(), app, output, sessionOptions{
				mode:     mode,
				symbol:   symbol,
				auto:     autoMode,
				simulate: simulate,
				capture:  !noCapture,
			})
		},
	}

	cmd.Flags().BoolVar(&paperMode, "paper", true, "trade against the paper port (7497)")
	cmd.Flags().BoolVar(&liveMode, "live", false, "trade against the live port (7496)")
	cmd.Flags().BoolVar(&autoMode, "auto", false, "never prompt; wait out closed markets")
	cmd.Flags().BoolVar(&simulate, "simulate", false, "use the in-process paper broker, no gateway needed")
	cmd.Flags().BoolVar(&noCapture, "no-screenshot", false, "skip trade screenshot capture")
	cmd.Flags().StringVar(&symbol, "symbol", defaultTargetSymbol, "target symbol to buy on a triggered tier")

	return cmd
}

type sessionOptions struct {
	mode     models.TradingMode
	symbol   string
	auto     bool
	simulate bool
	capture  bool
}

func runSession(parent context.Context, app *App, output *Output, opts sessionOptions) error {
	cfg := app.Config

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var b broker.Broker
	switch {
	case opts.simulate:
		b = broker.NewPaperBroker(broker.PaperBrokerConfig{
			StartingCash: cfg.Paper.StartingCash,
			Prices:       cfg.Paper.Prices,
		})
		output.Info("Using in-process paper broker (no gateway)")
	default:
		b = broker.NewIBKRBroker(broker.IBKRConfig{
			BenchmarkSymbol: cfg.Strategy.BenchmarkSymbol,
		})
	}

	port := cfg.PortFor(opts.mode)
	session := models.NewSession(opts.symbol, cfg.Strategy.BenchmarkSymbol, opts.mode)

	if opts.mode == models.ModeLive {
		output.Warn("LIVE trading on %s:%d", cfg.Connection.Host, port)
	} else {
		output.Info("Paper trading on %s:%d", cfg.Connection.Host, port)
	}
	output.Dim("Session %s: watching %s for tiers %v, buying %s",
		session.ID, cfg.Strategy.BenchmarkSymbol, cfg.Strategy.Tiers, opts.symbol)

	engine, err := trading.NewThresholdEngine(cfg.Strategy.Tiers)
	if err != nil {
		return err
	}

	reporter, err := report.NewReporter(cfg.Reports.Dir, app.Logger)
	if err != nil {
		return err
	}

	var capture trading.Screenshotter = screenshot.NoopCapture{}
	if opts.capture {
		chrome, err := screenshot.NewChromeCapture(filepath.Join(cfg.Reports.Dir, "screenshots"), app.Logger)
		if err != nil {
			app.Logger.Warn().Err(err).Msg("Screenshot capture disabled")
		} else {
			capture = chrome
		}
	}

	var notifier trading.Notifier = notify.NewNoOpNotifier()
	if cfg.Email.Enabled {
		notifier = notify.NewEmailNotifier(cfg.Email, app.Logger)
	}

	oracle := trading.NewPriceOracle(b, cfg.Strategy.PriceWait, cfg.Strategy.SampleInterval)

	executor := trading.NewTradeExecutor(trading.ExecutorConfig{
		Broker:      b,
		Oracle:      oracle,
		Screenshots: capture,
		Reporter:    reporter,
		Store:       app.Store,
		Logger:      app.Logger,
	})

	var decider trading.Decider = trading.AutoDecider{}
	if !opts.auto {
		decider = newPromptDecider(output)
	}

	loop := trading.NewSessionLoop(trading.LoopConfig{
		Connection:         trading.NewConnectionManager(b, cfg.Connection, port, app.Logger),
		Oracle:             oracle,
		Engine:             engine,
		Executor:           executor,
		Reporter:           reporter,
		Notifier:           notifier,
		Store:              app.Store,
		Decider:            decider,
		Logger:             app.Logger,
		PollInterval:       cfg.Strategy.PollInterval,
		HaltOnTradeFailure: cfg.Strategy.HaltOnTradeFailure,
	})

	summary, err := loop.Run(ctx, session)
	printSummary(output, summary)
	return err
}

func printSummary(output *Output, sum models.TradingSummary) {
	output.Println()
	output.Bold("Session summary")
	if sum.BaselinePrice > 0 {
		output.Printf("  baseline %.2f -> final %.2f (%.2f%% decline)\n",
			sum.BaselinePrice, sum.FinalPrice, sum.TotalDeclinePct)
	}
	if sum.TotalTrades > 0 {
		output.Success("  %d trade(s), entry $%.2f", sum.TotalTrades, sum.EntryPrice)
	} else {
		output.Dim("  no trades this session")
	}
}

