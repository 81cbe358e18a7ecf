package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sunnyysetia/patrolsim/api/dispatchlog"
	"github.com/sunnyysetia/patrolsim/api/incidents"
	"github.com/sunnyysetia/patrolsim/api/units"
	"github.com/sunnyysetia/patrolsim/config"
	"github.com/sunnyysetia/patrolsim/core/dispatch"
	"github.com/sunnyysetia/patrolsim/core/incident"
	coremetrics "github.com/sunnyysetia/patrolsim/core/metrics"
	"github.com/sunnyysetia/patrolsim/infra/logger"
	"github.com/sunnyysetia/patrolsim/infra/metrics"
	"github.com/sunnyysetia/patrolsim/infra/mqtt"
	"github.com/sunnyysetia/patrolsim/internal/eventbus"
)

// Service orchestrates the simulator, dispatch coordinator and connectors.
type Service struct {
	Coordinator *dispatch.Coordinator
	store       incident.Store
	bus         *eventbus.Bus[dispatch.Decision]
	decisions   *dispatch.DecisionLog
	source      *mqtt.Source
	httpAddr    string
	log         logger.Logger
	promEnabled bool
	promAddr    string
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	sim, err := cfg.Fleet.Build()
	if err != nil {
		return nil, fmt.Errorf("fleet: %w", err)
	}
	store, err := cfg.Store.Open()
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}

	var sinks []coremetrics.Sink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink()
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxEnabled {
		sinks = append(sinks, metrics.NewInfluxSinkWithFallback(
			cfg.Metrics.InfluxURL, cfg.Metrics.InfluxToken, cfg.Metrics.InfluxOrg, cfg.Metrics.InfluxBucket))
	}
	var sink coremetrics.Sink
	switch len(sinks) {
	case 0:
		sink = coremetrics.NopSink{}
	case 1:
		sink = sinks[0]
	default:
		sink = metrics.NewMultiSink(sinks...)
	}

	bus := eventbus.New[dispatch.Decision]()
	coord := dispatch.NewCoordinator(sim, store, sink, bus, logg)

	svc := &Service{
		Coordinator: coord,
		store:       store,
		bus:         bus,
		decisions:   dispatch.NewDecisionLog(0),
		httpAddr:    cfg.HTTP.Addr,
		log:         logg,
		promEnabled: cfg.Metrics.PrometheusEnabled,
		promAddr:    cfg.Metrics.PrometheusAddr,
	}
	if cfg.MQTT.Enabled {
		svc.source = mqtt.NewSource(cfg.MQTT, coord)
	}
	return svc, nil
}

// Handler builds the HTTP API routes.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/units/status", units.NewStatusHandler(s.Coordinator))
	mux.Handle("/api/incidents", incidents.NewHandler(s.Coordinator))
	mux.Handle("/api/incidents/", incidents.NewItemHandler(s.Coordinator))
	mux.Handle("/api/dispatch/log", dispatchlog.NewHandler(s.decisions))
	return mux
}

// Run starts the service and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	sub := s.bus.Subscribe()
	g.Go(func() error {
		s.decisions.Consume(ctx, sub)
		return nil
	})

	srv := &http.Server{Addr: s.httpAddr, Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	g.Go(func() error {
		s.log.Infof("http api listening on %s", s.httpAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if s.source != nil {
		g.Go(func() error {
			if err := s.source.Start(ctx); err != nil {
				s.log.Errorf("mqtt source: %v", err)
			}
			return nil
		})
	}
	if s.promEnabled {
		g.Go(func() error {
			if err := metrics.StartPromServer(ctx, s.promAddr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
			return nil
		})
	}

	return g.Wait()
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.bus.Close()
	return s.store.Close()
}
