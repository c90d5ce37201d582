package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/wager-ledger/internal/shared/logger"
	"github.com/radieske/wager-ledger/internal/wager/domain"
	"github.com/radieske/wager-ledger/internal/wager/repo"
)

// Publisher recebe os eventos recém anexados (change capture)
type Publisher interface {
	PublishEvents(ctx context.Context, w *domain.Wager, from int64, evts []domain.Event) error
}

// Snapshots é o cache do estado atual mais o broadcast para os clientes ao vivo
type Snapshots interface {
	SetCurrent(ctx context.Context, w *domain.Wager) error
	GetCurrent(ctx context.Context, wagerID string) (*domain.Wager, bool, error)
	Invalidate(ctx context.Context, wagerID string) error
	Publish(ctx context.Context, w *domain.Wager) error
}

// Policy controla as regras de escrita aplicadas acima do agregado
type Policy struct {
	MaxRetries        int
	StrictTerminal    bool // comando em aposta finalizada vira ErrInvalidOperation
	DedupTransactions bool // transaction id já presente no log vira no-op
	Backoff           func(attempt int) time.Duration
}

func DefaultPolicy() Policy {
	return Policy{MaxRetries: 3, StrictTerminal: true, DedupTransactions: true}
}

func (p Policy) backoff(attempt int) time.Duration {
	if p.Backoff != nil {
		return p.Backoff(attempt)
	}
	return time.Duration(attempt) * 300 * time.Millisecond
}

// Hooks são callbacks de métricas, todos opcionais
type Hooks struct {
	OnAppended        func(kind domain.Kind)
	OnCommand         func(op, result string)
	OnConflict        func()
	OnRetry           func()
	OnSideEffectError func(stage string)
}

// Service executa os comandos da aposta sobre o Store com controle otimista de versão
type Service struct {
	log       *zap.Logger
	store     repo.Store
	publisher Publisher
	snapshots Snapshots
	policy    Policy
	hooks     Hooks
}

// New monta o serviço; publisher e snapshots podem ser nil
func New(log *zap.Logger, store repo.Store, pub Publisher, snaps Snapshots, policy Policy, hooks Hooks) *Service {
	return &Service{
		log:       log,
		store:     store,
		publisher: pub,
		snapshots: snaps,
		policy:    policy,
		hooks:     hooks,
	}
}

// OpenCommand abre uma aposta registrando o evento Created; OccurredAt é obrigatório
type OpenCommand struct {
	WagerID       string
	GameID        string
	SessionID     string
	UserID        string
	TransactionID string
	OccurredAt    time.Time
}

func (s *Service) Open(ctx context.Context, cmd OpenCommand) (*domain.Wager, error) {
	const op = "open"
	log := logger.ForWager(s.log, cmd.WagerID, op)

	w, err := domain.New(cmd.WagerID, cmd.GameID, cmd.SessionID, cmd.UserID)
	if err != nil {
		s.command(op, "rejected")
		return nil, err
	}
	if err := w.RecordCreation(cmd.TransactionID, cmd.OccurredAt); err != nil {
		s.command(op, "rejected")
		return nil, err
	}

	err = s.store.Save(ctx, w)
	if errors.Is(err, repo.ErrAlreadyExists) && s.policy.DedupTransactions {
		// reenvio do mesmo Open devolve a aposta existente
		existing, lerr := s.store.Load(ctx, cmd.WagerID)
		if lerr == nil && sameIdentity(existing, w) && existing.HasTransaction(cmd.TransactionID) {
			s.command(op, "duplicate")
			return existing, nil
		}
	}
	if err != nil {
		s.command(op, result(err))
		return nil, err
	}

	log.Info("wager opened", zap.String("userId", w.UserID()), zap.String("gameId", w.GameID()))
	s.afterWrite(ctx, log, w, 0)
	s.command(op, "ok")
	return w, nil
}

func sameIdentity(a, b *domain.Wager) bool {
	return a.GameID() == b.GameID() && a.SessionID() == b.SessionID() && a.UserID() == b.UserID()
}

func (s *Service) Bet(ctx context.Context, id, txID string, at time.Time, amount decimal.Decimal) (*domain.Wager, error) {
	return s.execute(ctx, "bet", id, txID, func(w *domain.Wager) error {
		return w.Bet(txID, at, amount)
	})
}

func (s *Service) Win(ctx context.Context, id, txID string, at time.Time, amount decimal.Decimal) (*domain.Wager, error) {
	return s.execute(ctx, "win", id, txID, func(w *domain.Wager) error {
		return w.Win(txID, at, amount)
	})
}

func (s *Service) Lose(ctx context.Context, id, txID string, at time.Time, amount decimal.Decimal) (*domain.Wager, error) {
	return s.execute(ctx, "lose", id, txID, func(w *domain.Wager) error {
		return w.Lose(txID, at, amount)
	})
}

func (s *Service) Confirm(ctx context.Context, id, txID string, at time.Time) (*domain.Wager, error) {
	return s.execute(ctx, "confirm", id, txID, func(w *domain.Wager) error {
		return w.Confirm(txID, at)
	})
}

func (s *Service) Cancel(ctx context.Context, id, txID string, at time.Time) (*domain.Wager, error) {
	return s.execute(ctx, "cancel", id, txID, func(w *domain.Wager) error {
		return w.Cancel(txID, at)
	})
}

// Get lê do cache e cai no Store em caso de miss ou erro do cache
func (s *Service) Get(ctx context.Context, id string) (*domain.Wager, error) {
	if s.snapshots != nil {
		w, ok, err := s.snapshots.GetCurrent(ctx, id)
		if err != nil {
			s.sideEffectError(logger.ForWager(s.log, id, "get"), "cache_read", err)
		} else if ok {
			return w, nil
		}
	}

	w, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.snapshots != nil {
		if err := s.snapshots.SetCurrent(ctx, w); err != nil {
			s.sideEffectError(logger.ForWager(s.log, id, "get"), "cache", err)
		}
	}
	return w, nil
}

// execute relê a aposta e tenta de novo quando outro escritor avançou a versão
func (s *Service) execute(ctx context.Context, op, id, txID string, apply func(*domain.Wager) error) (*domain.Wager, error) {
	log := logger.ForWager(s.log, id, op)

	for attempt := 0; ; attempt++ {
		w, err := s.store.Load(ctx, id)
		if err != nil {
			s.command(op, result(err))
			return nil, err
		}

		if s.policy.DedupTransactions && txID != "" && w.HasTransaction(txID) {
			log.Debug("duplicate transaction ignored", zap.String("transactionId", txID))
			s.command(op, "duplicate")
			return w, nil
		}
		if s.policy.StrictTerminal && w.IsCompleted() {
			s.command(op, "rejected")
			return nil, &domain.OpError{Op: op, WagerID: id, Err: fmt.Errorf("%w: wager already %s", domain.ErrInvalidOperation, w.Status())}
		}

		expected := w.Version()
		if err := apply(w); err != nil {
			s.command(op, "rejected")
			return nil, err
		}

		err = s.store.Append(ctx, w, expected)
		if err == nil {
			s.afterWrite(ctx, log, w, expected)
			s.command(op, "ok")
			return w, nil
		}
		if !errors.Is(err, repo.ErrConcurrencyConflict) {
			s.command(op, "error")
			return nil, err
		}

		if s.hooks.OnConflict != nil {
			s.hooks.OnConflict()
		}
		if s.snapshots != nil {
			_ = s.snapshots.Invalidate(ctx, id)
		}
		if attempt >= s.policy.MaxRetries {
			log.Warn("giving up after version conflicts", zap.Int("attempts", attempt+1))
			s.command(op, "conflict")
			return nil, err
		}
		if s.hooks.OnRetry != nil {
			s.hooks.OnRetry()
		}
		log.Debug("version conflict, retrying", zap.Int("attempt", attempt+1), zap.Int64("expected", expected))

		select {
		case <-ctx.Done():
			s.command(op, "error")
			return nil, ctx.Err()
		case <-time.After(s.policy.backoff(attempt + 1)):
		}
	}
}

// afterWrite dispara os efeitos colaterais; o log já está gravado, então falhas só são logadas
func (s *Service) afterWrite(ctx context.Context, log *zap.Logger, w *domain.Wager, from int64) {
	newEvents := w.EventsSince(from)
	if s.hooks.OnAppended != nil {
		for _, evt := range newEvents {
			s.hooks.OnAppended(evt.Kind())
		}
	}

	if s.publisher != nil {
		if err := s.publisher.PublishEvents(ctx, w, from, newEvents); err != nil {
			s.sideEffectError(log, "publish", err)
		}
	}
	if s.snapshots != nil {
		if err := s.snapshots.SetCurrent(ctx, w); err != nil {
			s.sideEffectError(log, "cache", err)
		}
		if err := s.snapshots.Publish(ctx, w); err != nil {
			s.sideEffectError(log, "broadcast", err)
		}
	}

	if w.IsCompleted() {
		log.Info("wager completed",
			zap.String("status", string(w.Status())),
			zap.String("totalBet", w.TotalBet().String()),
			zap.String("totalWin", w.TotalWin().String()),
			zap.String("totalLose", w.TotalLose().String()),
		)
	}
}

func (s *Service) sideEffectError(log *zap.Logger, stage string, err error) {
	log.Warn("post-write step failed", zap.String("stage", stage), zap.Error(err))
	if s.hooks.OnSideEffectError != nil {
		s.hooks.OnSideEffectError(stage)
	}
}

func (s *Service) command(op, res string) {
	if s.hooks.OnCommand != nil {
		s.hooks.OnCommand(op, res)
	}
}

// result classifica o erro para o label de métrica
func result(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrInvalidEvent),
		errors.Is(err, domain.ErrInvalidOperation):
		return "rejected"
	case errors.Is(err, repo.ErrNotFound):
		return "not_found"
	case errors.Is(err, repo.ErrAlreadyExists):
		return "exists"
	case errors.Is(err, repo.ErrConcurrencyConflict):
		return "conflict"
	default:
		return "error"
	}
}
