package main

import (
	"fmt"
	"net/http"
	_ "net/http/pprof" // profiling endpoints, enabled with --enable-pprof
	"os"
	"os/signal"
	"syscall"

	"github.com/cuemby/coldb/pkg/api"
	"github.com/cuemby/coldb/pkg/config"
	"github.com/cuemby/coldb/pkg/log"
	"github.com/cuemby/coldb/pkg/manager"
	"github.com/spf13/cobra"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "coldb",
	Short: "coldb - a single-node column-oriented analytical database engine",
	Long: `coldb is a single-node, column-oriented analytical database engine:
memory-mapped columnar storage, sorted and B+-tree indexing, a
histogram-driven planner, and a batched shared-scan select scheduler,
served over a Unix-domain socket DSL.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"coldb version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(loadCmd)
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")

	log.Init(log.Config{
		Level:      log.Level(logLevel),
		JSONOutput: logJSON,
	})
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the coldb server",
	Long: `Run the coldb server: open (or create) the catalog under
--data-dir, listen for DSL statements on --socket, and serve /health,
/ready, and /metrics on --health-addr.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("config", "", "YAML config file (flags override it)")
	serveCmd.Flags().String("data-dir", "", "Data directory (default ./data)")
	serveCmd.Flags().String("socket", "", "DSL socket path (default ./data/coldb.sock)")
	serveCmd.Flags().String("health-addr", "", "Health/metrics HTTP address (default 127.0.0.1:8089)")
	serveCmd.Flags().Int("worker-pool-size", 0, "Batched-select worker pool size")
	serveCmd.Flags().Int("max-connections", 0, "Maximum concurrent client connections")
	serveCmd.Flags().Int("snapshot-interval", -1, "Periodic snapshot interval in seconds (0 disables)")
	serveCmd.Flags().Bool("enable-pprof", false, "Enable pprof profiling endpoints on 127.0.0.1:6060")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadServeConfig(cmd)
	if err != nil {
		return err
	}

	logger := log.WithComponent("cmd")
	logger.Info().Str("data_dir", cfg.DataDir).Str("socket", cfg.SocketPath).Msg("opening database")

	mgr, err := manager.New(cfg)
	if err != nil {
		return fmt.Errorf("open manager: %w", err)
	}
	defer mgr.Close()

	srv := api.NewServer(mgr, cfg)
	health := api.NewHealthServer(mgr)

	if enabled, _ := cmd.Flags().GetBool("enable-pprof"); enabled {
		go func() {
			if err := http.ListenAndServe("127.0.0.1:6060", nil); err != nil {
				logger.Warn().Err(err).Msg("pprof server stopped")
			}
		}()
		logger.Info().Str("addr", "127.0.0.1:6060").Msg("pprof endpoints enabled")
	}

	go func() {
		if err := health.Start(cfg.HealthAddr); err != nil {
			logger.Warn().Err(err).Msg("health server stopped")
		}
	}()
	logger.Info().Str("addr", cfg.HealthAddr).Msg("health server listening")

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
		if err := srv.Stop(); err != nil {
			logger.Warn().Err(err).Msg("stop listener")
		}
		<-serveErr
	}

	logger.Info().Msg("snapshotting before exit")
	return mgr.Snapshot()
}

// loadServeConfig layers serve's flags over a YAML file over config.Default,
// matching the precedence pkg/config's package doc describes: flag > file >
// default.
func loadServeConfig(cmd *cobra.Command) (config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, err
	}

	if v, _ := cmd.Flags().GetString("data-dir"); v != "" {
		cfg.DataDir = v
	}
	if v, _ := cmd.Flags().GetString("socket"); v != "" {
		cfg.SocketPath = v
	}
	if v, _ := cmd.Flags().GetString("health-addr"); v != "" {
		cfg.HealthAddr = v
	}
	if v, _ := cmd.Flags().GetInt("worker-pool-size"); v > 0 {
		cfg.WorkerPoolSize = v
	}
	if v, _ := cmd.Flags().GetInt("max-connections"); v > 0 {
		cfg.MaxConnections = v
	}
	if v, _ := cmd.Flags().GetInt("snapshot-interval"); v >= 0 {
		cfg.SnapshotIntervalSeconds = v
	}
	return cfg, nil
}
