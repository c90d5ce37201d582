package repo

import (
	"context"
	"errors"

	"github.com/radieske/wager-ledger/internal/wager/domain"
)

var (
	ErrNotFound      = errors.New("wager not found")
	ErrAlreadyExists = errors.New("wager already exists")
	// ErrConcurrencyConflict: a versão gravada não é mais a versão lida.
	// Quem chamou deve reler a aposta e tentar de novo; não é corrupção de dados.
	ErrConcurrencyConflict = errors.New("concurrency conflict")
)

// Store é o contrato de persistência das apostas.
//
// Load reconstrói a aposta fazendo o fold do log gravado, a partir do estado vazio.
// Save grava uma aposta nova com o log completo.
// Append grava os eventos com versão maior que expected, somente se a versão
// gravada ainda for expected, avançando-a atomicamente (concorrência otimista).
type Store interface {
	Load(ctx context.Context, id string) (*domain.Wager, error)
	Save(ctx context.Context, w *domain.Wager) error
	Append(ctx context.Context, w *domain.Wager, expected int64) error
	Ping(ctx context.Context) error
}
