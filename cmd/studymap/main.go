package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/alexanderramin/studymap/internal/api"
	"github.com/alexanderramin/studymap/internal/cli"
	"github.com/alexanderramin/studymap/internal/config"
	"github.com/alexanderramin/studymap/internal/db"
	"github.com/alexanderramin/studymap/internal/generator"
	"github.com/alexanderramin/studymap/internal/layout"
	"github.com/alexanderramin/studymap/internal/llm"
	"github.com/alexanderramin/studymap/internal/logging"
	"github.com/alexanderramin/studymap/internal/server"
	"github.com/alexanderramin/studymap/internal/service"
	"github.com/alexanderramin/studymap/internal/store"
	"github.com/alexanderramin/studymap/internal/viewmodel"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

func main() {
	app := &cli.App{
		IsInteractive: func() bool {
			return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
		},
	}
	var closers []io.Closer
	app.Setup = func(cmd *cobra.Command) error {
		c, err := wire(app, cmd)
		closers = c
		return err
	}
	app.Teardown = func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i].Close()
		}
		closers = nil
	}

	err := cli.NewRootCmd(app).Execute()
	app.Teardown()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type closerFunc func()

func (f closerFunc) Close() error {
	f()
	return nil
}

// wire loads the configuration and builds every dependency of app. The
// returned closers release storage and background listeners.
func wire(app *cli.App, cmd *cobra.Command) ([]io.Closer, error) {
	var closers []io.Closer

	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, err
	}
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	logger := logging.New(level, logging.Format(cfg.Log.Format))
	if cfg.File != "" {
		logger.Debug("config loaded", "file", cfg.File)
	}

	// Storage
	var kv store.KV
	switch cfg.Store {
	case config.StoreRedis:
		rkv := store.NewRedisKV(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, store.WithPrefix(cfg.Redis.Prefix))
		closers = append(closers, rkv)
		kv = rkv
	default:
		database, err := db.OpenDB(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		closers = append(closers, database)
		kv = store.NewSQLiteKV(database, store.WithUnitOfWork(db.NewSQLiteUnitOfWork(database)))
	}
	bus := store.NewBus()
	st := store.NewProgressStore(kv,
		store.WithBus(bus),
		store.WithLogger(logger),
		store.WithUserScoping(cfg.UserScope),
	)

	metrics := server.NewMetrics()
	closers = append(closers, closerFunc(metrics.WatchBus(bus)))

	client := api.New(cfg.API.BaseURL,
		api.WithTokenSource(st),
		api.WithLogger(logger),
		api.WithTimeout(time.Duration(cfg.API.TimeoutMs)*time.Millisecond),
	)

	gen := offlineGenerator(cfg.LLM, logger, metrics)
	observer := service.MultiUseCaseObserver{service.NewLogUseCaseObserver(logger), metrics}

	plans := service.NewPlanService(client, st, gen, logger, observer)
	layouts := layout.NewCache(layout.DefaultCacheSize)
	metrics.WatchLayoutCache(layouts)

	models := server.NewModels(plans, st, bus, viewmodel.Options{Cache: layouts, Logger: logger}, logger)
	closers = append(closers, closerFunc(models.Close))

	app.Plans = plans
	app.Progress = service.NewProgressService(plans, st)
	app.Auth = service.NewAuthService(client, st, logger, observer)
	app.Statuses = st
	app.Layouts = layouts
	app.Logger = logger
	app.ServeAddr = cfg.Server.Addr
	app.Server = &server.Server{
		Plans:    plans,
		Progress: app.Progress,
		Models:   models,
		Metrics:  metrics,
		Logger:   logger,
	}
	return closers, nil
}

// offlineGenerator builds roadmaps when the backend is unreachable: the
// local model when enabled, the built-in template otherwise or on failure.
func offlineGenerator(cfg llm.LLMConfig, logger *slog.Logger, metrics *server.Metrics) generator.Generator {
	tmpl := generator.NewTemplateGenerator()
	if !cfg.Enabled {
		return tmpl
	}
	observers := llm.MultiObserver{metrics}
	if cfg.LogCalls {
		observers = append(observers, llm.NewLogObserver(logger))
	}
	client := llm.NewOllamaClient(cfg, observers)
	return generator.NewFallback(generator.NewLLMGenerator(client, logger), tmpl, logger)
}
