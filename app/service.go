package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/kilianp07/rota/api/board"
	"github.com/kilianp07/rota/config"
	coremetrics "github.com/kilianp07/rota/core/metrics"
	coremon "github.com/kilianp07/rota/core/monitoring"
	"github.com/kilianp07/rota/core/workspace"
	"github.com/kilianp07/rota/infra/logger"
	"github.com/kilianp07/rota/infra/metrics"
	"github.com/kilianp07/rota/infra/monitoring"
	"github.com/kilianp07/rota/infra/mqtt"
	"github.com/kilianp07/rota/infra/store"
	"github.com/kilianp07/rota/internal/eventbus"
)

// Service wires the workspace manager to persistence, metrics, MQTT and
// the HTTP API.
type Service struct {
	Manager *workspace.Manager
	cfg     *config.Config
	bus     *eventbus.Bus[workspace.Event]
	sink    coremetrics.MetricsSink
	mqtt    *mqtt.PahoClient
	closers []func() error
	log     logger.Logger
}

// New creates a Service from the configuration. Whatever was opened is
// released again when an error is returned.
func New(cfg *config.Config) (_ *Service, err error) {
	if err := logger.SetLevel(cfg.Logging.Level); err != nil {
		return nil, err
	}
	var closers []func() error
	defer func() {
		if err != nil {
			_ = closeAll(closers)
		}
	}()
	if cfg.Logging.File != "" {
		closers = append(closers, logger.UseFile(logger.FileConfig{
			Path:       cfg.Logging.File,
			MaxSizeMB:  cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
			MaxAgeDays: cfg.Logging.MaxAgeDays,
		}))
	}
	logg := logger.New("service")

	mon, err := monitoring.NewSentryMonitor(cfg.Monitoring)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(mon)
	closers = append(closers, func() error {
		coremon.Flush(2 * time.Second)
		coremon.Init(nil)
		return nil
	})

	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	closers = append(closers, func() error {
		if c, ok := sink.(interface{ Close() }); ok {
			c.Close()
		}
		return nil
	})
	st, closeStore, err := store.Open(cfg.Store)
	if err != nil {
		return nil, err
	}
	closers = append(closers, closeStore)

	bus := eventbus.New[workspace.Event]()
	opts := workspace.Options{
		Solver: cfg.Solver,
		Log:    logger.New("workspace"),
		Sink:   sink,
		Bus:    bus,
	}
	if rec, ok := sink.(coremetrics.EditRecorder); ok {
		opts.Edits = rec
	}
	svc := &Service{
		Manager: workspace.NewManager(st, opts),
		cfg:     cfg,
		bus:     bus,
		sink:    sink,
		closers: closers,
		log:     logg,
	}
	if cfg.MQTT.Enabled {
		client, err := mqtt.NewPahoClient(cfg.MQTT)
		if err != nil {
			bus.Close()
			return nil, fmt.Errorf("mqtt client: %w", err)
		}
		svc.mqtt = client
	}
	return svc, nil
}

// Handler returns the HTTP API of the service.
func (s *Service) Handler() http.Handler {
	return board.NewRouter(s.Manager, s.cfg.Ingest, logger.New("http"))
}

// Run starts the listeners and the HTTP server and blocks until the
// context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wait := func(done <-chan struct{}) {
		wg.Add(1)
		go func() { defer wg.Done(); <-done }()
	}
	wait(s.Manager.AutoSave(ctx))
	wait(metrics.StartEventCollector(ctx, s.bus, s.sink))
	if s.mqtt != nil {
		n := mqtt.NewNotifier(s.mqtt, s.cfg.MQTT.TopicPrefix, logger.New("mqtt_notifier"))
		wait(n.Start(ctx, s.bus))
	}
	if port := s.cfg.Metrics.PrometheusPort; port != "" {
		go func() {
			defer coremon.Recover()
			if err := metrics.StartPromServer(ctx, ":"+port); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	srv := &http.Server{Addr: s.cfg.HTTP.Addr, Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Errorf("http shutdown: %v", err)
		}
	}()
	s.log.Infof("board API listening on %s", s.cfg.HTTP.Addr)
	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		err = nil
	}
	cancel()
	wg.Wait()
	return err
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.bus.Close()
	if s.mqtt != nil {
		s.mqtt.Disconnect()
	}
	return closeAll(s.closers)
}

// closeAll runs closers in reverse order of acquisition.
func closeAll(closers []func() error) error {
	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		errs = append(errs, closers[i]())
	}
	return errors.Join(errs...)
}
