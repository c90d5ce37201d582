package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/wager-ledger/internal/shared/cache"
	"github.com/radieske/wager-ledger/internal/shared/config"
	"github.com/radieske/wager-ledger/internal/shared/kafka"
	"github.com/radieske/wager-ledger/internal/shared/logger"
	"github.com/radieske/wager-ledger/internal/shared/metrics"
	"github.com/radieske/wager-ledger/internal/wager/bootstrap"
	wcache "github.com/radieske/wager-ledger/internal/wager/cache"
	httpapi "github.com/radieske/wager-ledger/internal/wager/http"
	"github.com/radieske/wager-ledger/internal/wager/producer"
	"github.com/radieske/wager-ledger/internal/wager/service"
	"github.com/radieske/wager-ledger/internal/wager/ws"
)

func main() {
	// carrega config
	cfg := config.Load()

	// inicia logger
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("starting service", zap.String("store", cfg.StoreDriver))

	// Store do log de eventos
	store, closeStore, err := bootstrap.OpenStore(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to open store", zap.Error(err))
	}
	defer closeStore()

	// Redis: snapshot atual + broadcast
	rdb, err := cache.ConnectRedis(ctx, cfg.RedisAddr)
	if err != nil {
		log.Fatal("failed to connect redis", zap.Error(err))
	}
	defer rdb.Close()
	log.Info("redis connected")
	snapshots := wcache.NewRedisCache(rdb, cfg.CacheTTL, cfg.RedisPubSubChannel)

	// Kafka writers (topic wager_events + DLQ)
	writer := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicWagerEvents)
	defer writer.Close()
	dlq := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicWagerEventsDLQ)
	defer dlq.Close()
	publisher := producer.NewKafkaPublisher(writer, dlq, cfg.TopicWagerEvents)
	log.Info("kafka writer ready", zap.String("topic", cfg.TopicWagerEvents))

	// serviço de apostas com métricas
	m := metrics.NewWagerMetrics(prometheus.DefaultRegisterer)
	svc := service.New(log, store, publisher, snapshots, service.Policy{
		MaxRetries:        cfg.MaxRetries,
		StrictTerminal:    cfg.StrictTerminal,
		DedupTransactions: cfg.DedupTransactions,
	}, service.MetricsHooks(m))

	// WebSocket de atualizações ao vivo
	hub := ws.NewHub(log, func(*http.Request) bool { return true })
	if err := ws.StartRedisSubscriber(ctx, log, rdb, cfg.RedisPubSubChannel, hub); err != nil {
		log.Fatal("failed to subscribe redis channel", zap.Error(err))
	}

	// metrics/health
	metricsSrv := metrics.StartMetricsServer(log, cfg.MetricsPort, func(ctx context.Context) error {
		if err := store.Ping(ctx); err != nil {
			return fmt.Errorf("store: %w", err)
		}
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		return nil
	})

	// HTTP público
	api := &httpapi.API{Log: log, Wagers: svc, LiveUpdates: hub.HandleWS}
	apiSrv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = apiSrv.Shutdown(sctx)
		_ = metricsSrv.Shutdown(sctx)
	}()

	log.Info("wager-service listening", zap.String("addr", apiSrv.Addr))
	if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("api", zap.Error(err))
	}
	log.Info("wager-service stopped")
}
