package bootstrap

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/wager-ledger/internal/shared/config"
	"github.com/radieske/wager-ledger/internal/wager/repo"
)

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		s, closeFn, err := OpenStore(ctx, config.Config{StoreDriver: "memory"}, zap.NewNop())
		require.NoError(t, err)
		defer closeFn()
		require.IsType(t, &repo.MemoryStore{}, s)
	})

	t.Run("sqlite migrates", func(t *testing.T) {
		cfg := config.Config{StoreDriver: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "w.db")}
		s, closeFn, err := OpenStore(ctx, cfg, zap.NewNop())
		require.NoError(t, err)
		defer closeFn()
		require.NoError(t, s.Ping(ctx))

		_, err = s.Load(ctx, "missing")
		require.ErrorIs(t, err, repo.ErrNotFound)
	})

	t.Run("unknown driver", func(t *testing.T) {
		_, _, err := OpenStore(ctx, config.Config{StoreDriver: "cassandra"}, zap.NewNop())
		require.ErrorContains(t, err, "cassandra")
	})
}
