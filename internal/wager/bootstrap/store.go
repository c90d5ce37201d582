package bootstrap

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/wager-ledger/internal/shared/config"
	"github.com/radieske/wager-ledger/internal/shared/db"
	"github.com/radieske/wager-ledger/internal/wager/repo"
)

// OpenStore escolhe o Store pelo STORE_DRIVER e devolve a função de fechamento
func OpenStore(ctx context.Context, cfg config.Config, log *zap.Logger) (repo.Store, func(), error) {
	switch cfg.StoreDriver {
	case "postgres":
		pg, err := db.ConnectPostgres(cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		s := repo.NewPostgres(pg)
		if err := s.Migrate(ctx); err != nil {
			_ = pg.Close()
			return nil, nil, err
		}
		log.Info("postgres connected")
		return s, func() { _ = pg.Close() }, nil

	case "sqlite":
		lite, err := db.ConnectSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		s := repo.NewSQLite(lite)
		if err := s.Migrate(ctx); err != nil {
			_ = lite.Close()
			return nil, nil, err
		}
		log.Info("sqlite opened", zap.String("path", cfg.SQLitePath))
		return s, func() { _ = lite.Close() }, nil

	case "mongo":
		cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		client, err := db.ConnectMongo(cctx, cfg.MongoURI)
		if err != nil {
			return nil, nil, err
		}
		coll := client.Database(cfg.MongoDatabase).Collection(cfg.MongoCollection)
		log.Info("mongo connected", zap.String("db", cfg.MongoDatabase), zap.String("collection", cfg.MongoCollection))
		return repo.NewMongoStore(coll), func() { _ = client.Disconnect(context.Background()) }, nil

	case "memory":
		log.Warn("using in-memory store, data is lost on exit")
		return repo.NewMemoryStore(), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
}
