package main

import (
	"context"
	"database/sql"
	"os"
	"strconv"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"RetroStore/internal/auth"
	"RetroStore/internal/cart"
	"RetroStore/internal/catalog"
	"RetroStore/internal/storefront"
	"RetroStore/pkg/kit"
)

func main() {
	_ = godotenv.Load()

	service := "storefront"
	log := kit.NewLogger(service)
	defer func() { _ = log.Sync() }()

	cfg := loadConfig()

	registry := prometheus.NewRegistry()
	notifier := kit.NewNotifier()

	go drainEvents(notifier, log)

	replica, err := buildReplica(cfg, notifier, log)
	if err != nil {
		log.Fatal("replica store init failed", zap.Error(err))
	}

	gw := catalog.NewGateway(catalog.GatewayDeps{
		Remote:  catalog.NewRemoteClient(cfg.RemoteURL, cfg.RemoteToken),
		Cache:   catalog.NewTTLCache(),
		Replica: replica,
		Log:     log,
		Metrics: catalog.NewMetrics(registry),
	})

	cartStore, err := cart.NewFileStore(cfg.DataDir, notifier)
	if err != nil {
		log.Fatal("cart store init failed", zap.Error(err))
	}
	ledger := cart.NewLedger(cartStore, gw, cart.DefaultPricing(), log)

	s := &storefront.Server{
		Gateway: gw,
		Ledger:  ledger,
		Replica: replica,
		JWT:     auth.NewTokenMaker(cfg.JWTSecret),
		Log:     log,
	}

	h := storefront.NewHandler(s, storefront.HTTPDeps{
		Log:            log,
		Service:        service,
		Registry:       registry,
		MetricsEnabled: cfg.MetricsEnabled,
		MetricsToken:   cfg.MetricsToken,
		RateLimit:      kit.NewIPRateLimiter(cfg.RateLimit, cfg.RateWindowSec),
	})

	if err := kit.RunHTTPServer(":"+cfg.Port, h, log); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}

type config struct {
	Port        string
	RemoteURL   string
	RemoteToken string
	DataDir     string
	ReplicaDSN  string
	JWTSecret   string

	MetricsEnabled bool
	MetricsToken   string

	RateLimit     int
	RateWindowSec int
}

func loadConfig() config {
	return config{
		Port:           getenv("PORT", "8080"),
		RemoteURL:      getenv("REMOTE_URL", "http://localhost:5000/api"),
		RemoteToken:    getenv("REMOTE_TOKEN", ""),
		DataDir:        getenv("DATA_DIR", "./data"),
		ReplicaDSN:     getenv("REPLICA_DSN", ""),
		JWTSecret:      getenv("JWT_SECRET", "dev-secret"),
		MetricsEnabled: getenv("METRICS_ENABLED", "") == "true",
		MetricsToken:   getenv("METRICS_TOKEN", ""),
		RateLimit:      getenvInt("RATE_LIMIT", 120),
		RateWindowSec:  getenvInt("RATE_WINDOW_SECONDS", 60),
	}
}

func buildReplica(cfg config, notifier *kit.Notifier, log *zap.Logger) (catalog.ReplicaStore, error) {
	if cfg.ReplicaDSN == "" {
		return catalog.NewFileReplicaStore(cfg.DataDir, notifier)
	}

	db, err := sql.Open("pgx", cfg.ReplicaDSN)
	if err != nil {
		return nil, err
	}

	store := catalog.NewPostgresReplicaStore(db, notifier)
	if err := store.EnsureSchema(context.Background()); err != nil {
		return nil, err
	}

	log.Info("replica store: postgres")
	return store, nil
}

func drainEvents(notifier *kit.Notifier, log *zap.Logger) {
	for e := range notifier.Subscribe() {
		log.Debug("store event", zap.String("event", string(e)))
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
