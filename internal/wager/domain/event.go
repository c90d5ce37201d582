package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Kind identifica a variante do evento. O conjunto é fechado.
type Kind string

const (
	KindCreated   Kind = "Created"
	KindBet       Kind = "Bet"
	KindWin       Kind = "Win"
	KindLose      Kind = "Lose"
	KindConfirmed Kind = "Confirmed"
	KindCanceled  Kind = "Canceled"
)

// Kinds retorna todas as variantes na ordem do ciclo de vida.
func Kinds() []Kind {
	return []Kind{KindCreated, KindBet, KindWin, KindLose, KindConfirmed, KindCanceled}
}

func (k Kind) Valid() bool {
	switch k {
	case KindCreated, KindBet, KindWin, KindLose, KindConfirmed, KindCanceled:
		return true
	}
	return false
}

// HasAmount indica se a variante carrega valor monetário (Bet/Win/Lose).
func (k Kind) HasAmount() bool {
	return k == KindBet || k == KindWin || k == KindLose
}

// Terminal indica se a variante encerra o ciclo de vida (Confirmed/Canceled).
func (k Kind) Terminal() bool {
	return k == KindConfirmed || k == KindCanceled
}

// Event é um fato imutável sobre uma aposta.
// Os campos são privados: depois de construído, nada altera o evento.
type Event struct {
	kind          Kind
	transactionID string
	occurredAt    time.Time
	amount        decimal.Decimal
}

// NewEvent constrói qualquer variante. amount é obrigatório para Bet/Win/Lose
// e proibido nas demais; sinal e magnitude não são validados aqui.
func NewEvent(kind Kind, transactionID string, occurredAt time.Time, amount *decimal.Decimal) (Event, error) {
	if !kind.Valid() {
		return Event{}, fmt.Errorf("%w: unknown kind %q", ErrInvalidEvent, kind)
	}
	if strings.TrimSpace(transactionID) == "" {
		return Event{}, fmt.Errorf("%w: %s without transaction id", ErrInvalidEvent, kind)
	}
	if occurredAt.IsZero() {
		return Event{}, fmt.Errorf("%w: %s without occurred_at", ErrInvalidEvent, kind)
	}

	evt := Event{kind: kind, transactionID: transactionID, occurredAt: occurredAt.UTC()}
	switch {
	case kind.HasAmount() && amount == nil:
		return Event{}, fmt.Errorf("%w: %s without amount", ErrInvalidEvent, kind)
	case !kind.HasAmount() && amount != nil:
		return Event{}, fmt.Errorf("%w: %s does not carry an amount", ErrInvalidEvent, kind)
	case amount != nil:
		evt.amount = *amount
	}
	return evt, nil
}

func NewCreated(transactionID string, at time.Time) (Event, error) {
	return NewEvent(KindCreated, transactionID, at, nil)
}

func NewBet(transactionID string, at time.Time, amount decimal.Decimal) (Event, error) {
	return NewEvent(KindBet, transactionID, at, &amount)
}

func NewWin(transactionID string, at time.Time, amount decimal.Decimal) (Event, error) {
	return NewEvent(KindWin, transactionID, at, &amount)
}

func NewLose(transactionID string, at time.Time, amount decimal.Decimal) (Event, error) {
	return NewEvent(KindLose, transactionID, at, &amount)
}

func NewConfirmed(transactionID string, at time.Time) (Event, error) {
	return NewEvent(KindConfirmed, transactionID, at, nil)
}

func NewCanceled(transactionID string, at time.Time) (Event, error) {
	return NewEvent(KindCanceled, transactionID, at, nil)
}

func (e Event) Kind() Kind              { return e.kind }
func (e Event) TransactionID() string   { return e.transactionID }
func (e Event) OccurredAt() time.Time   { return e.occurredAt }
func (e Event) HasAmount() bool         { return e.kind.HasAmount() }
func (e Event) Amount() decimal.Decimal { return e.amount }

// Equal compara por valor: dois eventos com os mesmos campos são intercambiáveis.
func (e Event) Equal(o Event) bool {
	return e.kind == o.kind &&
		e.transactionID == o.transactionID &&
		e.occurredAt.Equal(o.occurredAt) &&
		e.amount.Equal(o.amount)
}

func (e Event) String() string {
	if e.HasAmount() {
		return fmt.Sprintf("%s(%s, %s, %s)", e.kind, e.transactionID, e.occurredAt.Format(time.RFC3339), e.amount)
	}
	return fmt.Sprintf("%s(%s, %s)", e.kind, e.transactionID, e.occurredAt.Format(time.RFC3339))
}
