// Command benchdeck-server runs the benchmark control panel: the embedded
// dashboard, the JSON and GraphQL APIs, metrics and health endpoints, the
// run supervisor, and the optional history, archive and fanout subsystems.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/benchdeck/benchdeck/pkg/api"
	"github.com/benchdeck/benchdeck/pkg/archive"
	"github.com/benchdeck/benchdeck/pkg/auth"
	"github.com/benchdeck/benchdeck/pkg/config"
	"github.com/benchdeck/benchdeck/pkg/fanout"
	"github.com/benchdeck/benchdeck/pkg/history"
	"github.com/benchdeck/benchdeck/pkg/logging"
	"github.com/benchdeck/benchdeck/pkg/logring"
	"github.com/benchdeck/benchdeck/pkg/results"
	"github.com/benchdeck/benchdeck/pkg/runner"
	"github.com/benchdeck/benchdeck/pkg/server"
	"github.com/benchdeck/benchdeck/pkg/watcher"
)

func main() {
	configPath := flag.String("config", "", "Path to server config YAML (optional)")
	hashPassword := flag.String("hash-password", "", "Print the bcrypt hash for a password and exit")
	flag.Parse()

	if *hashPassword != "" {
		hash, err := auth.HashPassword(*hashPassword)
		if err != nil {
			fmt.Fprintf(os.Stderr, "benchdeck-server: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(hash)
		return
	}

	cfg, err := config.LoadServerConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "benchdeck-server: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewJSONLogger(os.Stdout, logging.ParseLevel(cfg.LogLevel))
	logger.Info("benchdeck server starting",
		logging.String("addr", cfg.Addr()),
		logging.String("data_dir", cfg.DataDir),
		logging.String("history_driver", cfg.History.Driver))

	ctx := context.Background()

	ring := logring.NewRing(cfg.LogBufferSize)

	store, err := history.Open(ctx, cfg.History, cfg.DataDir)
	if err != nil {
		logger.Error("failed to open history store", logging.Error(err))
		os.Exit(1)
	}

	resultsDir, err := results.NewDir(cfg.ResultsPath())
	if err != nil {
		logger.Error("failed to create results directory", logging.Error(err))
		os.Exit(1)
	}

	// Every finished run is recorded; archiving is added when configured.
	hooks := []runner.Hook{history.NewRecorder(store, ring, logger)}
	if cfg.Archive.Enabled {
		uploader, err := archive.New(ctx, cfg.Archive, logger,
			os.Getenv("BENCHDECK_ARCHIVE_ACCESS_KEY"),
			os.Getenv("BENCHDECK_ARCHIVE_SECRET_KEY"))
		if err != nil {
			// Continue running, just without archiving.
			logger.Warn("archive setup failed, runs will not be archived",
				logging.Error(err))
		} else {
			hooks = append(hooks, archive.NewHook(uploader, ring, cfg.ResultsPath(), logger))
			logger.Info("run archiving enabled",
				logging.String("bucket", cfg.Archive.Bucket))
		}
	}

	supervisor := runner.NewSupervisor(cfg.Benchmark, ring, logger, hooks...)

	// Optional live log fanout over NNG or ZeroMQ.
	var publisher *fanout.Publisher
	bridgeCtx, stopBridge := context.WithCancel(ctx)
	defer stopBridge()
	if cfg.Fanout.Enabled {
		factory, err := fanout.NewFactory(cfg.Fanout.Transport)
		if err != nil {
			logger.Error("failed to create fanout transport", logging.Error(err))
			os.Exit(1)
		}
		publisher, err = fanout.NewPublisher(factory,
			fanout.PublisherConfig{Address: cfg.Fanout.Addr}, logger)
		if err != nil {
			logger.Error("failed to create fanout publisher", logging.Error(err))
			os.Exit(1)
		}
		if err := publisher.Start(); err != nil {
			logger.Error("failed to start fanout publisher", logging.Error(err))
			os.Exit(1)
		}
		if err := fanout.NewBridge(ring, publisher).Start(bridgeCtx); err != nil {
			logger.Error("failed to bridge log ring to fanout", logging.Error(err))
			os.Exit(1)
		}
		logger.Info("log fanout enabled",
			logging.String("transport", cfg.Fanout.Transport),
			logging.String("addr", cfg.Fanout.Addr))
	}

	// Watch the results and configs directories so arrivals from outside
	// the panel (runs writing CSVs, operators dropping configs) show up in
	// the server log.
	dirWatcher, err := watcher.New(
		[]string{cfg.ResultsPath(), cfg.ConfigsPath()},
		watcher.WithOnChange(func(dir string) {
			logger.Info("directory changed", logging.Path(dir))
		}),
		watcher.WithOnError(func(err error) {
			logger.Warn("directory watcher", logging.Error(err))
		}),
	)
	if err != nil {
		logger.Error("failed to create directory watcher", logging.Error(err))
		os.Exit(1)
	}
	if err := dirWatcher.Start(); err != nil {
		logger.Error("failed to start directory watcher", logging.Error(err))
		os.Exit(1)
	}
	if dirWatcher.IsPolling() {
		logger.Warn("directory watcher running in polling mode")
	}

	var authService *auth.Service
	if cfg.Auth.Enabled {
		authService, err = auth.NewService(cfg.Auth)
		if err != nil {
			logger.Error("failed to initialize authentication", logging.Error(err))
			os.Exit(1)
		}
		logger.Info("authentication enabled")
	}

	apiServer := api.NewServer(cfg, api.Deps{
		Ring:       ring,
		Supervisor: supervisor,
		History:    store,
		Results:    resultsDir,
		Auth:       authService,
		Logger:     logger,
	})

	gs := server.NewGracefulServer(apiServer, logger)
	gs.AddComponent("supervisor", supervisor.Shutdown)
	gs.AddComponent("watcher", func(context.Context) error {
		dirWatcher.Stop()
		return nil
	})
	if publisher != nil {
		gs.AddComponent("fanout", func(context.Context) error {
			stopBridge()
			return publisher.Stop()
		})
	}
	gs.AddComponent("history", func(context.Context) error {
		return store.Close()
	})
	gs.AddComponent("ring", func(context.Context) error {
		ring.Shutdown()
		return nil
	})

	// SIGHUP re-reads and validates the config file. Live values still
	// need a restart; the reload catches bad edits before one.
	gs.SetConfigReloadFunc(func() error {
		_, err := config.LoadServerConfig(*configPath)
		return err
	})

	if err := gs.Run(); err != nil {
		logger.Error("server error", logging.Error(err))
		os.Exit(1)
	}
}
