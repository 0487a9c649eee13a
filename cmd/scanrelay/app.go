package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/kdudkov/scanrelay/internal/catalog"
	"github.com/kdudkov/scanrelay/internal/config"
	"github.com/kdudkov/scanrelay/internal/enricher"
	"github.com/kdudkov/scanrelay/internal/history"
	"github.com/kdudkov/scanrelay/internal/mqttsink"
	"github.com/kdudkov/scanrelay/internal/relay"
	"github.com/kdudkov/scanrelay/internal/status"
	"github.com/kdudkov/scanrelay/internal/store"
)

const shutdownTimeout = time.Second * 10

type App struct {
	logger *slog.Logger
	config *config.AppConfig

	catalog  *catalog.Catalog
	store    store.EventStore
	enricher *enricher.Enricher
	relay    *relay.Relay
	history  *history.Engine
	reporter *status.Reporter
	mqtt     *mqttsink.Publisher

	started time.Time
}

// Open loads the talkgroup table and connects to the event store.
func Open(ctx context.Context, cfg *config.AppConfig) (*App, error) {
	cat, err := catalog.LoadFile(cfg.TalkgroupFile())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrConfigurationMissing, err)
	}

	st, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return NewApp(cfg, cat, st), nil
}

func NewApp(cfg *config.AppConfig, cat *catalog.Catalog, st store.EventStore) *App {
	enr := enricher.New(cat)

	app := &App{
		logger:   slog.Default().With("logger", "app"),
		config:   cfg,
		catalog:  cat,
		store:    st,
		enricher: enr,
		relay:    relay.New(st, enr).SetBackoff(cfg.BackoffInitial(), cfg.BackoffMax()),
		history: history.New(st, enr,
			history.WithTimeout(cfg.StoreTimeout()),
			history.WithMaxWindowEvents(cfg.MaxWindowEvents()),
		),
		started: time.Now(),
	}

	app.reporter = status.New(app.relay, cfg.StatusInterval())

	return app
}

func (app *App) Run(ctx context.Context) error {
	app.logger.Info(fmt.Sprintf("%d talkgroups loaded, store %s", app.catalog.Len(), app.store))

	if broker := app.config.MQTTBroker(); broker != "" {
		p, err := mqttsink.New(mqttsink.Config{
			Broker:    broker,
			ClientID:  app.config.MQTTClientID(),
			Topic:     app.config.MQTTTopic(),
			QueueSize: app.config.MQTTQueueSize(),
			Timeout:   app.config.StoreTimeout(),
		})

		if err != nil {
			app.logger.Error("mqtt publisher disabled", slog.Any("error", err))
		} else {
			app.mqtt = p
		}
	}

	api := NewHttpAPI(app, app.config.Addr())

	wg := &sync.WaitGroup{}
	runCtx, cancel := context.WithCancel(ctx)

	start := func(f func(context.Context)) {
		wg.Add(1)

		go func() {
			defer wg.Done()
			f(runCtx)
		}()
	}

	start(app.relay.Run)
	start(app.reporter.Run)

	if app.mqtt != nil {
		start(func(ctx context.Context) { app.mqtt.Run(ctx, app.relay) })
	}

	errCh := make(chan error, 1)

	go func() {
		app.logger.Info("listening http at " + api.Address())
		errCh <- api.Listen()
	}()

	var err error

	select {
	case <-ctx.Done():
		app.logger.Info("exiting...")
	case err = <-errCh:
		app.logger.Error("http server error", slog.Any("error", err))
	}

	cancel()
	wg.Wait()
	app.relay.Close()

	if serr := api.Shutdown(shutdownTimeout); serr != nil {
		app.logger.Warn("http shutdown", slog.Any("error", serr))
	}

	if cerr := app.store.Close(); cerr != nil {
		app.logger.Warn("store close", slog.Any("error", cerr))
	}

	if errors.Is(err, context.Canceled) {
		return nil
	}

	return err
}
