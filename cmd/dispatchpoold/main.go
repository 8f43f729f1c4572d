// Command dispatchpoold runs the worker pool behind the fixed HTTP
// acceptor, wiring together config, logging, metrics and the pool
// itself. The command structure (a root command with flags overriding a
// TOML config file, graceful shutdown on SIGINT/SIGTERM) follows a
// cobra + signal-handling pattern common for small daemons.
package main

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/openpoolhq/dispatchpool/config"
	"github.com/openpoolhq/dispatchpool/httpserver"
	"github.com/openpoolhq/dispatchpool/logging"
	"github.com/openpoolhq/dispatchpool/metrics"
	"github.com/openpoolhq/dispatchpool/pool"
)

func main() {
	if err := buildRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildRootCommand() *cobra.Command {
	var (
		configFile  string
		listenAddr  string
		poolSize    int
		metricsAddr string
		logLevel    string
	)

	cmd := &cobra.Command{
		Use:     "dispatchpoold",
		Short:   "dispatchpoold serves a fixed HTTP acceptor over a worker pool",
		Version: "0.1.0",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("listen") {
				cfg.ListenAddr = listenAddr
			}
			if cmd.Flags().Changed("pool-size") {
				cfg.PoolSize = poolSize
			}
			if cmd.Flags().Changed("metrics-addr") {
				cfg.MetricsAddr = metricsAddr
			}
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = logLevel
			}
			return run(cfg)
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "", "path to a TOML config file")
	cmd.Flags().StringVar(&listenAddr, "listen", "", "override listen_addr")
	cmd.Flags().IntVar(&poolSize, "pool-size", 0, "override pool_size")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "override metrics_addr")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "override log_level")

	return cmd
}

func run(cfg config.Config) error {
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("dispatchpoold: building logger: %w", err)
	}
	defer logger.Sync()

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	p := pool.MustNew(cfg.PoolSize,
		pool.WithLogger(logger),
		pool.WithSubmitHook(collector.ObserveQueueDepth),
		pool.WithJobDoneHook(collector.RecordJobDone),
		pool.WithPanicHook(collector.RecordJobPanicked),
		pool.WithJobStartHook(collector.WorkerStarted),
		pool.WithJobEndHook(collector.WorkerStopped),
	)
	defer p.Close()

	metricsServer := &http.Server{Addr: cfg.MetricsAddr, Handler: metrics.Handler(registry)}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("dispatchpoold: metrics server: %v", err)
		}
	}()
	defer metricsServer.Close()

	ln, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("dispatchpoold: listening on %s: %w", cfg.ListenAddr, err)
	}

	srv := httpserver.New(ln, p,
		httpserver.WithIndexFile(cfg.IndexFile),
		httpserver.WithNotFoundFile(cfg.NotFoundFile),
		httpserver.WithLogger(logger),
	)

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve() }()

	logger.Infof("dispatchpoold: listening on %s with %d workers", cfg.ListenAddr, cfg.PoolSize)

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	dumpCh := make(chan os.Signal, 1)
	signal.Notify(dumpCh, syscall.SIGUSR1, syscall.SIGHUP)

	for {
		select {
		case <-dumpCh:
			dumpSnapshot(logger, p)
		case <-shutdownCh:
			logger.Infof("dispatchpoold: shutdown signal received")
			ln.Close()
			return nil
		case err := <-serveErr:
			return fmt.Errorf("dispatchpoold: serve: %w", err)
		}
	}
}

// dumpSnapshot logs the pool's shared message log, the out-of-band
// introspection path SIGUSR1/SIGHUP trigger as an alternative to adding
// a second route to the fixed HTTP acceptor.
func dumpSnapshot(logger *logging.Logger, p *pool.Pool) {
	for _, msg := range p.Snapshot() {
		logger.Infof("dispatchpoold: %s", msg)
	}
}
