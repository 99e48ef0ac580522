package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/ariefcatur/findme-orders/internal/alertlog"
	"github.com/ariefcatur/findme-orders/internal/config"
	kafkax "github.com/ariefcatur/findme-orders/internal/kafka"
	"github.com/ariefcatur/findme-orders/internal/logger"
	"github.com/ariefcatur/findme-orders/internal/orders"
	"github.com/ariefcatur/findme-orders/internal/postgres"
	"github.com/ariefcatur/findme-orders/internal/redisx"
	"github.com/ariefcatur/findme-orders/migrations"
)

func main() {
	configPath := flag.String("config", "", "optional YAML config file")
	flag.Parse()

	_ = godotenv.Load()
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	brokers := cfg.KafkaBrokers()
	if len(brokers) == 0 {
		log.Fatalf("config: kafka_brokers is required")
	}

	lg, err := logger.NewZapLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer lg.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()
	if err := migrations.Apply(ctx, db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	svc := &alertlog.Service{Repo: &orders.AlertRepo{DB: db}, Log: lg}

	// Redis dedup is optional: the insert is idempotent on its own.
	if cfg.RedisAddr != "" {
		rdb, err := redisx.Connect(ctx, cfg.RedisAddr)
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		defer rdb.Close()
		svc.Dedup = alertlog.NewRedisDeduper(rdb, cfg.ServiceName+"-alertlog")
	}

	cons := kafkax.NewConsumer(brokers, cfg.AlertLogGroup, orders.TopicOrderExpiring, cfg.AlertLogWorkers, lg)
	done := make(chan struct{})
	go func() {
		defer close(done)
		lg.Infof(ctx, "[Main] alertlog consumer started: group=%s topic=%s workers=%d",
			cfg.AlertLogGroup, orders.TopicOrderExpiring, cfg.AlertLogWorkers)
		if err := cons.Start(ctx, svc.HandleOrderExpiring); err != nil {
			lg.Errorf(ctx, "[Main] consumer exit: %v", err)
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}
	lg.Infof(context.Background(), "[Main] shutting down consumer...")
	cancel()
	<-done
}
