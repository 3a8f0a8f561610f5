// Package app wires the connector plane together: config, telemetry,
// infrastructure clients, vault, registry, rate limiter, classifier,
// trust ledger, proxy, governed proxy, and the HTTP surface, brought up
// in stages so a failure names the stage that broke.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/wisbric/connectorplane/internal/config"
	"github.com/wisbric/connectorplane/internal/httpserver"
	"github.com/wisbric/connectorplane/internal/platform"
	"github.com/wisbric/connectorplane/internal/telemetry"
	"github.com/wisbric/connectorplane/pkg/classifier"
	"github.com/wisbric/connectorplane/pkg/connectors"
	"github.com/wisbric/connectorplane/pkg/governedproxy"
	"github.com/wisbric/connectorplane/pkg/policyengine"
	"github.com/wisbric/connectorplane/pkg/protocoladapter"
	"github.com/wisbric/connectorplane/pkg/proxy"
	"github.com/wisbric/connectorplane/pkg/ratelimit"
	"github.com/wisbric/connectorplane/pkg/registry"
	"github.com/wisbric/connectorplane/pkg/trustledger"
	"github.com/wisbric/connectorplane/pkg/vault"
)

// Run brings the whole plane up and blocks until ctx is cancelled.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := telemetry.NewLogger(cfg.LogFormat, cfg.LogLevel)
	logger.Info("starting connector plane", "addr", cfg.ListenAddr())

	metricsReg := prometheus.NewRegistry()
	metricsReg.MustRegister(collectors.NewGoCollector())
	metricsReg.MustRegister(telemetry.All()...)

	// Infrastructure clients are optional: without Postgres the T1+
	// receipts stay in memory, without Redis the T0 batch buffer does.
	var pool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		pool, err = platform.NewPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		defer pool.Close()
	}
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb, err = platform.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer rdb.Close()
	}

	vaultCfg, err := vault.LoadYAMLConfig(cfg.VaultConfigPath)
	if err != nil {
		return fmt.Errorf("vault config: %w", err)
	}
	vlt, err := vault.Open(vaultCfg, logger, false)
	if err != nil {
		return fmt.Errorf("vault: %w", err)
	}

	catalog, err := registry.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		return fmt.Errorf("connector catalog: %w", err)
	}
	reg := registry.New(catalog, cfg.ConnectorsEnabled)

	limiter := ratelimit.NewRegistry(catalog.RateLimits)
	metricsReg.MustRegister(limiter.Collectors()...)

	adapter := protocoladapter.New(protocoladapter.Config{
		SMTPHost:     cfg.SMTPHost,
		SMTPPort:     cfg.SMTPPort,
		SMTPUseTLS:   cfg.SMTPUseTLS,
		SMTPUsername: cfg.SMTPUsername,
		SMTPPassword: cfg.SMTPPassword,
		IMAPHost:     cfg.IMAPHost,
		IMAPPort:     cfg.IMAPPort,
		IMAPUseTLS:   cfg.IMAPUseTLS,
		IMAPUsername: cfg.IMAPUsername,
		IMAPPassword: cfg.IMAPPassword,
	})
	defer adapter.Close()

	outbound := proxy.New(proxy.RegistryAdapter{Registry: reg}, proxy.VaultAdapter{Vault: vlt}, limiter, adapter)

	ledger := trustledger.New(0)
	clf := classifier.New(nil, nil, ledger, cfg.TrustLedgerEnabled)

	var store governedproxy.ReceiptSink = governedproxy.NewInMemorySink()
	if pool != nil {
		store, err = governedproxy.NewReceiptStore(ctx, pool)
		if err != nil {
			return fmt.Errorf("receipt store: %w", err)
		}
	}
	var batch governedproxy.ReceiptSink = governedproxy.NewInMemorySink()
	var batchSink *governedproxy.BatchBufferSink
	if rdb != nil {
		batchSink = governedproxy.NewBatchBufferSink(rdb, "connectorplane:receipts:t0", logger)
		batchSink.Start(ctx)
		batch = batchSink
	}

	governed := governedproxy.New(reg, clf, policyengine.AllowAll{}, outbound, ledger, batch, store)

	for _, c := range connectors.BuiltIn() {
		if err := reg.Register(c); err != nil {
			return fmt.Errorf("registering %s: %w", c.Manifest().ID, err)
		}
		if err := governed.RegisterConnectorTiers(c.Manifest().ID); err != nil {
			return fmt.Errorf("registering tiers for %s: %w", c.Manifest().ID, err)
		}
	}
	logger.Info("registered connectors", "count", len(reg.ListConnectors()))

	server := httpserver.NewServer(logger, metricsReg, reg, vlt, httpserver.Options{
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		MetricsPath:        cfg.MetricsPath,
		DB:                 pool,
		Redis:              rdb,
	})

	httpSrv := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           server,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown", "error", err)
		}
		if batchSink != nil {
			batchSink.Close()
		}
		return nil
	})

	return g.Wait()
}
