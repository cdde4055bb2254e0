package cli

import (
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"dip-trader/internal/config"
	"dip-trader/internal/logging"
	"dip-trader/internal/store"
)

// Version information
const (
	Version = "0.1.0"
)

// App holds the application dependencies shared across commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
	Store  store.DataStore
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	dbPath := filepath.Join(config.DefaultConfigDir(), "dip-trader.db")
	dataStore, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize store, history will be unavailable")
	} else {
		app.Store = dataStore
		logger.Debug().Str("path", dbPath).Msg("SQLite store initialized")
	}

	rootCmd := &cobra.Command{
		Use:   "dip-trader",
		Short: "Benchmark-drop dip buying bot for Interactive Brokers",
		Long: `dip-trader monitors a benchmark index against its session baseline and
buys one unit of a target symbol when the decline crosses a configured tier.

It connects to TWS or IB Gateway for live trading (port 7496) or paper
trading (port 7497), and ships a fully in-process paper simulator for runs
without a gateway.

Use 'dip-trader run --paper' to start a simulated monitoring session.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/dip-trader)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
	rootCmd.AddCommand(newRunCmd(app))
	rootCmd.AddCommand(newHistoryCmd(app))
	rootCmd.AddCommand(newReportCmd(app))

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"version": Version})
			} else {
				output.Printf("dip-trader v%s\n", Version)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View, validate and initialize application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write template configuration files",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			dir, _ := cmd.Flags().GetString("config")
			if dir == "" {
				dir = config.DefaultConfigDir()
			}
			if err := config.WriteTemplate(dir); err != nil {
				return err
			}
			output.Success("Template configuration written to %s", dir)
			output.Dim("Edit config.toml before running live.")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"path": config.DefaultConfigDir()})
			} else {
				output.Println(config.DefaultConfigDir())
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration files",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]bool{"valid": true})
			}
			output.Success("Configuration is valid")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			c := app.Config
			output.Bold("Connection")
			output.Printf("  host: %s  live: %d  paper: %d  client_id: %d\n",
				c.Connection.Host, c.Connection.LivePort, c.Connection.PaperPort, c.Connection.ClientID)
			output.Printf("  max_attempts: %d  retry_delay: %s  connect_timeout: %s\n",
				c.Connection.MaxAttempts, c.Connection.RetryDelay, c.Connection.ConnectTimeout)
			output.Bold("Strategy")
			output.Printf("  benchmark: %s  tiers: %v\n", c.Strategy.BenchmarkSymbol, c.Strategy.Tiers)
			output.Printf("  poll: %s  price_wait: %s  sample: %s  halt_on_trade_failure: %v\n",
				c.Strategy.PollInterval, c.Strategy.PriceWait, c.Strategy.SampleInterval,
				c.Strategy.HaltOnTradeFailure)
			output.Bold("Reports")
			output.Printf("  dir: %s\n", c.Reports.Dir)
			output.Bold("Email")
			if c.Email.Enabled {
				output.Printf("  %s -> %s via %s:%d\n", c.Email.From, c.Email.To, c.Email.SMTPHost, c.Email.SMTPPort)
			} else {
				output.Dim("  disabled")
			}
			return nil
		},
	})

	return cmd
}
