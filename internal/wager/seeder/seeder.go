package seeder

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/wager-ledger/internal/wager/domain"
	"github.com/radieske/wager-ledger/internal/wager/service"
)

// Lifecycle são os comandos usados para levar uma aposta do início ao fim
type Lifecycle interface {
	Open(ctx context.Context, cmd service.OpenCommand) (*domain.Wager, error)
	Bet(ctx context.Context, id, txID string, at time.Time, amount decimal.Decimal) (*domain.Wager, error)
	Win(ctx context.Context, id, txID string, at time.Time, amount decimal.Decimal) (*domain.Wager, error)
	Lose(ctx context.Context, id, txID string, at time.Time, amount decimal.Decimal) (*domain.Wager, error)
	Confirm(ctx context.Context, id, txID string, at time.Time) (*domain.Wager, error)
	Cancel(ctx context.Context, id, txID string, at time.Time) (*domain.Wager, error)
}

// Seeder gera apostas de demonstração com desfechos aleatórios
type Seeder struct {
	Log    *zap.Logger
	Wagers Lifecycle
	Rand   *rand.Rand
	Now    func() time.Time
	Prefix string
}

// Report conta os desfechos da rodada
type Report struct {
	Confirmed int
	Canceled  int
	Pending   int
	WagerIDs  []string
}

func New(log *zap.Logger, wagers Lifecycle, prefix string) *Seeder {
	return &Seeder{
		Log:    log,
		Wagers: wagers,
		Rand:   rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x5eed)),
		Now:    func() time.Time { return time.Now().UTC() },
		Prefix: prefix,
	}
}

func txID() string { return "txn-" + strings.ReplaceAll(uuid.NewString(), "-", "") }

// Run cria count apostas: Created, Bet em +5s, Win ou Lose em +20s e,
// em 70% dos casos, Confirm ou Cancel em +1m
func (s *Seeder) Run(ctx context.Context, count int) (Report, error) {
	var rep Report
	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		now := s.Now()
		id := fmt.Sprintf("%s-%s-%d", s.Prefix, now.Format("20060102150405"), 1000+s.Rand.IntN(9000))

		w, err := s.Wagers.Open(ctx, service.OpenCommand{
			WagerID:       id,
			GameID:        fmt.Sprintf("GAME-%d", 1+s.Rand.IntN(99)),
			SessionID:     "SESSION-" + strings.ReplaceAll(uuid.NewString(), "-", ""),
			UserID:        fmt.Sprintf("USER-%04d", 1+s.Rand.IntN(4999)),
			TransactionID: txID(),
			OccurredAt:    now,
		})
		if err != nil {
			return rep, fmt.Errorf("seed #%d open: %w", i+1, err)
		}

		bet := decimal.NewFromFloat(s.Rand.Float64() * 100).Round(2)
		if w, err = s.Wagers.Bet(ctx, id, txID(), now.Add(5*time.Second), bet); err != nil {
			return rep, fmt.Errorf("seed #%d bet: %w", i+1, err)
		}

		outcomeAt := now.Add(20 * time.Second)
		if s.Rand.IntN(2) == 0 {
			win := bet.Mul(decimal.NewFromFloat(1 + s.Rand.Float64())).Round(2)
			w, err = s.Wagers.Win(ctx, id, txID(), outcomeAt, win)
		} else {
			w, err = s.Wagers.Lose(ctx, id, txID(), outcomeAt, bet)
		}
		if err != nil {
			return rep, fmt.Errorf("seed #%d outcome: %w", i+1, err)
		}

		if s.Rand.IntN(10) >= 3 {
			finalAt := now.Add(time.Minute)
			confirm := s.Rand.IntN(2) == 0
			if confirm {
				w, err = s.Wagers.Confirm(ctx, id, txID(), finalAt)
			} else {
				w, err = s.Wagers.Cancel(ctx, id, txID(), finalAt)
			}
			if err != nil {
				return rep, fmt.Errorf("seed #%d finalize: %w", i+1, err)
			}
			if confirm {
				rep.Confirmed++
			} else {
				rep.Canceled++
			}
		} else {
			rep.Pending++
		}

		rep.WagerIDs = append(rep.WagerIDs, id)
		s.Log.Info("seeded wager",
			zap.Int("n", i+1),
			zap.String("wagerId", id),
			zap.String("status", string(w.Status())),
			zap.Bool("completed", w.IsCompleted()),
			zap.Int64("version", w.Version()),
		)
	}
	return rep, nil
}
