package cli

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/getlagd/lagd/pkg/config"
	"github.com/getlagd/lagd/pkg/endpoint"
	"github.com/getlagd/lagd/pkg/engine"
	"github.com/getlagd/lagd/pkg/logging"
	"github.com/getlagd/lagd/pkg/persist"
	"github.com/getlagd/lagd/pkg/stats"
)

// serveFlags holds the flag values for the serve command.
type serveFlags struct {
	configFile string

	host string
	port int

	minDelayMs int
	maxDelayMs int
	errorRate  float64

	maxEndpoints int

	persistEnabled bool
	persistFile    string

	statsInterval time.Duration

	logLevel  string
	logFormat string
	lokiURL   string
}

// serveFlagVals is the package-level instance bound to cobra flags.
var serveFlagVals serveFlags

// serveCmd starts the mock server in the foreground.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the mock server (foreground)",
	Long: `Start the mock server. Endpoint behaviors are managed at runtime via
the admin API; the defaults apply to any path without an explicit
configuration.`,
	Example: `  # Start with defaults (port 8080)
  lagd serve

  # Start on a custom port with slower defaults
  lagd serve --port 3000 --min-delay 50 --max-delay 500

  # Start with persistence so configurations survive restarts
  lagd serve --persist --persist-file /var/lib/lagd/endpoints.json

  # Start from a config file
  lagd serve --config lagd.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd, &serveFlagVals)
	},
}

func initServeCmd() {
	rootCmd.AddCommand(serveCmd)

	f := &serveFlagVals
	def := config.Default()

	serveCmd.Flags().StringVarP(&f.configFile, "config", "c", "", "Path to YAML configuration file")
	serveCmd.Flags().StringVar(&f.host, "host", def.Server.Host, "Listen address")
	serveCmd.Flags().IntVarP(&f.port, "port", "p", def.Server.Port, "HTTP server port")
	serveCmd.Flags().IntVar(&f.minDelayMs, "min-delay", def.Defaults.MinDelayMs, "Default minimum delay in milliseconds")
	serveCmd.Flags().IntVar(&f.maxDelayMs, "max-delay", def.Defaults.MaxDelayMs, "Default maximum delay in milliseconds")
	serveCmd.Flags().Float64Var(&f.errorRate, "error-rate", def.Defaults.ErrorRate, "Default error rate (0.0-1.0)")
	serveCmd.Flags().IntVar(&f.maxEndpoints, "max-endpoints", def.Registry.MaxEndpoints, "Maximum configured endpoints before LRU eviction")
	serveCmd.Flags().BoolVar(&f.persistEnabled, "persist", def.Persistence.Enabled, "Persist endpoint configurations across restarts")
	serveCmd.Flags().StringVar(&f.persistFile, "persist-file", def.Persistence.FilePath, "Path to the persistence snapshot file")
	serveCmd.Flags().DurationVar(&f.statsInterval, "stats-interval", def.Stats.LogInterval.Std(), "Interval between statistics log lines (0 = disabled)")
	serveCmd.Flags().StringVar(&f.logLevel, "log-level", def.Logging.Level, "Log level (debug, info, warn, error)")
	serveCmd.Flags().StringVar(&f.logFormat, "log-format", def.Logging.Format, "Log format (text, json)")
	serveCmd.Flags().StringVar(&f.lokiURL, "loki-url", "", "Loki push endpoint for log shipping (optional)")
}

// runServe builds the config from file and flags, wires the components,
// and blocks until a shutdown signal.
func runServe(cmd *cobra.Command, f *serveFlags) error {
	cfg, err := buildConfig(cmd, f)
	if err != nil {
		return err
	}

	log, loki := buildLogger(cfg)
	if loki != nil {
		defer func() { _ = loki.Close() }()
	}

	reg, err := endpoint.NewRegistry(cfg.Registry.MaxEndpoints, cfg.Defaults, log)
	if err != nil {
		return err
	}
	collector := stats.NewCollector(log)
	gateway := persist.New(cfg.Persistence.Enabled, cfg.Persistence.FilePath, reg, log)

	srv := engine.NewServer(cfg, reg, collector, gateway, engine.WithLogger(log))
	if err := srv.Start(); err != nil {
		return err
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Info("shutting down", "signal", sig.String())

	return srv.Stop()
}

// buildConfig loads the config file when given and lays explicitly set
// flags over it. Without a file, flags apply over the stock defaults.
func buildConfig(cmd *cobra.Command, f *serveFlags) (*config.Config, error) {
	cfg := config.Default()
	if f.configFile != "" {
		var err error
		cfg, err = config.Load(f.configFile)
		if err != nil {
			return nil, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Server.Host = f.host
	}
	if flags.Changed("port") {
		cfg.Server.Port = f.port
	}
	if flags.Changed("min-delay") {
		cfg.Defaults.MinDelayMs = f.minDelayMs
	}
	if flags.Changed("max-delay") {
		cfg.Defaults.MaxDelayMs = f.maxDelayMs
	}
	if flags.Changed("error-rate") {
		cfg.Defaults.ErrorRate = f.errorRate
	}
	if flags.Changed("max-endpoints") {
		cfg.Registry.MaxEndpoints = f.maxEndpoints
	}
	if flags.Changed("persist") {
		cfg.Persistence.Enabled = f.persistEnabled
	}
	if flags.Changed("persist-file") {
		cfg.Persistence.FilePath = f.persistFile
	}
	if flags.Changed("stats-interval") {
		cfg.Stats.LogInterval = config.Duration(f.statsInterval)
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = f.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Logging.Format = f.logFormat
	}
	if flags.Changed("loki-url") {
		cfg.Logging.LokiURL = f.lokiURL
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildLogger creates the operational logger, fanning out to Loki when
// a push endpoint is configured.
func buildLogger(cfg *config.Config) (*slog.Logger, *logging.LokiHandler) {
	lcfg := logging.Config{
		Level:  logging.ParseLevel(cfg.Logging.Level),
		Format: logging.ParseFormat(cfg.Logging.Format),
	}

	local := logging.NewHandler(lcfg)
	if cfg.Logging.LokiURL == "" {
		return slog.New(local), nil
	}

	loki := logging.NewLokiHandler(cfg.Logging.LokiURL, logging.WithLokiLevel(lcfg.Level))
	return slog.New(logging.NewMultiHandler(local, loki)), loki
}
