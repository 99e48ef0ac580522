package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/ariefcatur/findme-orders/internal/alert"
	"github.com/ariefcatur/findme-orders/internal/clock"
	"github.com/ariefcatur/findme-orders/internal/config"
	"github.com/ariefcatur/findme-orders/internal/httpx"
	kafkax "github.com/ariefcatur/findme-orders/internal/kafka"
	"github.com/ariefcatur/findme-orders/internal/logger"
	"github.com/ariefcatur/findme-orders/internal/orders"
	"github.com/ariefcatur/findme-orders/internal/postgres"
	"github.com/ariefcatur/findme-orders/internal/redisx"
	"github.com/ariefcatur/findme-orders/internal/watcher"
	"github.com/ariefcatur/findme-orders/migrations"
)

type orderStore interface {
	orders.Source
	orders.Reader
}

func main() {
	configPath := flag.String("config", "", "optional YAML config file")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	lg, err := logger.NewZapLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer lg.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	clk := clock.NewSystem()

	// Orders
	var store orderStore
	switch cfg.OrderSource {
	case config.SourcePostgres:
		db, err := postgres.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Fatalf("db connect: %v", err)
		}
		defer db.Close()
		if err := migrations.Apply(ctx, db); err != nil {
			log.Fatalf("migrate: %v", err)
		}
		store = &orders.Repo{DB: db}
	default:
		ms, err := orders.LoadFile(cfg.OrdersFile)
		if err != nil {
			log.Fatalf("orders file: %v", err)
		}
		store = ms
	}

	// Redis (optional)
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb, err = redisx.Connect(ctx, cfg.RedisAddr)
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		defer rdb.Close()
	}

	// Kafka producer (optional)
	var prod *kafkax.Producer
	if brokers := cfg.KafkaBrokers(); len(brokers) > 0 {
		prod = kafkax.NewProducer(brokers, orders.TopicOrderExpiring, 1024, lg)
		prod.Start(ctx)
	}

	// Asked once; never re-prompted.
	perm, err := alert.ResolvePermission(ctx, alert.StaticPermission(cfg.NotificationPermission), cfg.PermissionTimeout)
	if err != nil {
		lg.Warnf(ctx, "[Main] system notifications disabled: %v", err)
	}
	var notifier alert.PlatformNotifier
	if prod != nil {
		notifier = alert.NewPushNotifier(prod, cfg.ServiceName)
	}

	var boardOpts []alert.BoardOption
	if rdb != nil {
		boardOpts = append(boardOpts, alert.WithBroadcaster(alert.NewRedisBroadcaster(rdb, cfg.AlertPubSubChannel)))
	}
	board := alert.NewBoard(clk, lg, boardOpts...)
	sink := alert.NewSink(clk, lg, cfg.BannerDuration,
		alert.NewSystemChannel(perm, notifier, lg),
		board,
	)

	watchOpts := []watcher.Option{
		watcher.WithInterval(cfg.ScanInterval),
		watcher.WithThreshold(cfg.AlertThreshold),
	}
	if cfg.NotifiedStore == config.StoreRedis {
		ttl := redisx.TTLExpiryNotified
		if floor := 2 * cfg.AlertThreshold; ttl < floor {
			ttl = floor
		}
		watchOpts = append(watchOpts, watcher.WithNotifiedSet(watcher.NewRedisNotifiedSet(rdb, cfg.ServiceName, ttl)))
	}
	w := watcher.New(store, sink, clk, lg, watchOpts...)
	if err := w.Start(ctx); err != nil {
		log.Fatalf("watcher: %v", err)
	}

	router := httpx.NewRouter()
	(&httpx.OrdersHandler{Repo: store, Clock: clk, Tick: cfg.CountdownTick, Log: lg}).Register(router)
	(&httpx.AlertsHandler{Board: board, Watcher: w, Log: lg}).Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}
	go func() {
		lg.Infof(ctx, "[Main] HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	lg.Infof(ctx, "[Main] shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	w.Stop()
	board.Close()
	if prod != nil {
		prod.Close() // no publisher left once the watcher stopped
		prod.WaitClosed()
	}
	cancel()
}
