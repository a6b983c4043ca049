package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"storefront-client/internal/audit"
	"storefront-client/internal/authapi"
	"storefront-client/internal/config"
	"storefront-client/internal/httpclient"
	"storefront-client/internal/metrics"
	"storefront-client/internal/session"
	"storefront-client/internal/storefront"
	"storefront-client/internal/tokenstore"
	"storefront-client/pkg/utils"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// app is the wired object graph for one session.
type app struct {
	cfg config.Config
	log *slog.Logger

	tokens   *tokenstore.Store
	registry *prometheus.Registry
	metrics  *metrics.Collectors
	audit    *audit.Service
	session  *session.Controller
	services *storefront.Services

	closers []func() error
	// probes report backend reachability on /healthz.
	probes map[string]func(context.Context) error
}

func newApp(ctx context.Context, cfg config.Config, log *slog.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log, probes: map[string]func(context.Context) error{}}

	tokens, err := a.openStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.tokens = tokens

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.metrics = metrics.New(a.registry)
	a.audit = audit.NewService(audit.NewMemoryRepo(audit.DefaultCapacity), cfg.Store.Namespace, log)

	// Refresh goes over a bare client: the expired bearer must not ride along.
	bare := &http.Client{Timeout: cfg.Services.HTTPTimeout}
	refreshHTTP, err := httpclient.New(cfg.Services.AuthURL, bare)
	if err != nil {
		a.Close()
		return nil, err
	}
	refresher := session.NewRefresher(authapi.New(refreshHTTP), tokens, a.metrics, a.audit, log)

	transport := &httpclient.Transport{
		Tokens:    tokens,
		Refresher: refresher,
		Observer:  a.metrics,
		Log:       log,
	}
	authorized := &http.Client{Transport: transport, Timeout: cfg.Services.HTTPTimeout}

	authHTTP, err := httpclient.New(cfg.Services.AuthURL, authorized)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.session = session.NewController(authapi.New(authHTTP), tokens, refresher, session.Options{
		CheckInterval: cfg.Session.CheckInterval,
		Lookahead:     cfg.Session.RefreshLookahead,
		Log:           log,
		Metrics:       a.metrics,
		Audit:         a.audit,
	})
	transport.OnSessionExpired = a.session.Expire

	// Orders carry their own timeout; the shared client timeout must not cut them short.
	services, err := storefront.NewServices(cfg.Services, &http.Client{Transport: transport}, log)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.services = services
	return a, nil
}

func (a *app) openStore(ctx context.Context) (*tokenstore.Store, error) {
	var backend tokenstore.Backend
	switch a.cfg.Store.Backend {
	case config.StoreMemory:
		backend = tokenstore.NewMemoryBackend()
	case config.StoreFile:
		fb, err := tokenstore.NewFileBackend(a.cfg.Store.Path)
		if err != nil {
			return nil, err
		}
		backend = fb
	case config.StoreRedis:
		rdb, err := utils.OpenRedis(ctx, utils.RedisConfig{
			Addr:     a.cfg.RedisAddr(),
			Password: a.cfg.Redis.Password,
			DB:       a.cfg.Redis.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("redis init: %w", err)
		}
		a.closers = append(a.closers, rdb.Close)
		a.probes["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		backend = tokenstore.NewRedisBackend(rdb, a.cfg.Store.Namespace)
	case config.StorePostgres:
		db, err := utils.OpenPostgres(ctx, utils.DefaultPostgresDriver, a.cfg.PostgresDSN(), utils.PostgresPoolConfig{})
		if err != nil {
			return nil, fmt.Errorf("postgres init: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		a.probes["postgres"] = func(ctx context.Context) error { return utils.HealthCheck(ctx, db, 2*time.Second) }
		pb := tokenstore.NewPostgresBackend(db, a.cfg.Store.Namespace)
		if err := pb.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("postgres schema: %w", err)
		}
		backend = pb
	default:
		return nil, fmt.Errorf("unknown token store %q", a.cfg.Store.Backend)
	}
	return tokenstore.New(backend, a.log), nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn("close failed", "err", err)
		}
	}
	a.closers = nil
}
