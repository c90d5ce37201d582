package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/radieske/wager-ledger/internal/shared/config"
	"github.com/radieske/wager-ledger/internal/shared/kafka"
	"github.com/radieske/wager-ledger/internal/shared/logger"
	"github.com/radieske/wager-ledger/internal/wager/bootstrap"
	"github.com/radieske/wager-ledger/internal/wager/producer"
	"github.com/radieske/wager-ledger/internal/wager/seeder"
	"github.com/radieske/wager-ledger/internal/wager/service"
)

// uso: wager-seeder [prefixo]
func main() {
	cfg := config.Load()
	if cfg.ServiceName == "wager-service" {
		cfg.ServiceName = "wager-seeder"
	}

	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	prefix := cfg.SeedPrefix
	if len(os.Args) > 1 {
		prefix = os.Args[1]
	}

	store, closeStore, err := bootstrap.OpenStore(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to open store", zap.Error(err))
	}
	defer closeStore()

	// com SEED_PUBLISH=true os eventos semeados também vão para o tópico
	var publisher service.Publisher
	if cfg.SeedPublish {
		writer := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicWagerEvents)
		defer writer.Close()
		publisher = producer.NewKafkaPublisher(writer, nil, cfg.TopicWagerEvents)
		log.Info("publishing seeded events", zap.String("topic", cfg.TopicWagerEvents))
	}

	policy := service.DefaultPolicy()
	policy.MaxRetries = cfg.MaxRetries
	svc := service.New(log, store, publisher, nil, policy, service.Hooks{})

	rep, err := seeder.New(log, svc, prefix).Run(ctx, cfg.SeedCount)
	if err != nil {
		log.Error("seed interrupted", zap.Error(err))
	}
	log.Info("seed finished",
		zap.Int("confirmed", rep.Confirmed),
		zap.Int("canceled", rep.Canceled),
		zap.Int("pending", rep.Pending),
	)
	if err != nil {
		os.Exit(1)
	}
}
