package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Status é a condição observável da aposta, derivada do último evento do log.
type Status string

const (
	StatusUninitialized Status = "UNINITIALIZED"
	StatusOpen          Status = "OPEN"
	StatusCompleted     Status = "COMPLETED"
)

// Wager é o agregado da aposta. O estado nunca é escrito diretamente:
// toda mudança passa por apply, que faz o fold do evento no estado.
type Wager struct {
	id        string
	gameID    string
	sessionID string
	userID    string

	state  State
	events []Event
}

// New cria a aposta com identidade definida, versão 0 e log vazio.
func New(id, gameID, sessionID, userID string) (*Wager, error) {
	if err := validateIdentity(id, gameID, sessionID, userID); err != nil {
		return nil, opErr("create", id, err)
	}
	return &Wager{id: id, gameID: gameID, sessionID: sessionID, userID: userID}, nil
}

// Rehydrate reconstrói a aposta a partir de um log ordenado, pelo mesmo fold
// usado nas operações. Usado pelos repositórios.
func Rehydrate(id, gameID, sessionID, userID string, events []Event) (*Wager, error) {
	w, err := New(id, gameID, sessionID, userID)
	if err != nil {
		return nil, err
	}
	for i, evt := range events {
		if !evt.kind.Valid() {
			return nil, opErr("rehydrate", id, fmt.Errorf("%w: event #%d has no kind", ErrInvalidEvent, i+1))
		}
		w.apply(evt)
	}
	return w, nil
}

func validateIdentity(id, gameID, sessionID, userID string) error {
	for _, f := range []struct{ name, value string }{
		{"id", id},
		{"game_id", gameID},
		{"session_id", sessionID},
		{"user_id", userID},
	} {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("%w: empty %s", ErrInvalidArgument, f.name)
		}
	}
	return nil
}

func (w *Wager) ID() string        { return w.id }
func (w *Wager) GameID() string    { return w.gameID }
func (w *Wager) SessionID() string { return w.sessionID }
func (w *Wager) UserID() string    { return w.userID }

func (w *Wager) Version() int64             { return w.state.Version }
func (w *Wager) TotalBet() decimal.Decimal  { return w.state.TotalBet }
func (w *Wager) TotalWin() decimal.Decimal  { return w.state.TotalWin }
func (w *Wager) TotalLose() decimal.Decimal { return w.state.TotalLose }
func (w *Wager) State() State               { return w.state }

// Events retorna uma cópia do log; o log interno só cresce via apply.
func (w *Wager) Events() []Event { return slices.Clone(w.events) }

// EventsSince retorna os eventos com versão maior que version (versão do evento = posição 1-based).
func (w *Wager) EventsSince(version int64) []Event {
	if version < 0 {
		version = 0
	}
	if version >= int64(len(w.events)) {
		return nil
	}
	return slices.Clone(w.events[version:])
}

func (w *Wager) BeginTime() (time.Time, bool) {
	return w.state.BeginTime, !w.state.BeginTime.IsZero()
}

func (w *Wager) EndTime() (time.Time, bool) {
	return w.state.EndTime, !w.state.EndTime.IsZero()
}

func (w *Wager) LastUpdateTime() (time.Time, bool) {
	return w.state.LastUpdateTime, !w.state.LastUpdateTime.IsZero()
}

// LastEvent retorna o último evento do log, se houver.
func (w *Wager) LastEvent() (Event, bool) {
	if len(w.events) == 0 {
		return Event{}, false
	}
	return w.events[len(w.events)-1], true
}

// IsCompleted olha só a cauda do log: Confirmed ou Canceled.
func (w *Wager) IsCompleted() bool {
	last, ok := w.LastEvent()
	return ok && last.kind.Terminal()
}

func (w *Wager) Status() Status {
	switch {
	case len(w.events) == 0:
		return StatusUninitialized
	case w.IsCompleted():
		return StatusCompleted
	default:
		return StatusOpen
	}
}

// HasTransaction indica se algum evento do log já usa o transaction id.
func (w *Wager) HasTransaction(transactionID string) bool {
	return slices.ContainsFunc(w.events, func(e Event) bool { return e.transactionID == transactionID })
}

// RecordCreation registra o evento Created. Só é aceito com o log vazio.
func (w *Wager) RecordCreation(transactionID string, at time.Time) error {
	const op = "record_creation"
	if err := checkEntry(transactionID, at); err != nil {
		return opErr(op, w.id, err)
	}
	if len(w.events) > 0 {
		return opErr(op, w.id, fmt.Errorf("%w: wager already has %d events", ErrInvalidOperation, len(w.events)))
	}
	evt, err := NewCreated(transactionID, at)
	return w.record(op, evt, err)
}

func (w *Wager) Bet(transactionID string, at time.Time, amount decimal.Decimal) error {
	const op = "bet"
	if err := checkEntry(transactionID, at); err != nil {
		return opErr(op, w.id, err)
	}
	evt, err := NewBet(transactionID, at, amount)
	return w.record(op, evt, err)
}

func (w *Wager) Win(transactionID string, at time.Time, amount decimal.Decimal) error {
	const op = "win"
	if err := checkEntry(transactionID, at); err != nil {
		return opErr(op, w.id, err)
	}
	evt, err := NewWin(transactionID, at, amount)
	return w.record(op, evt, err)
}

func (w *Wager) Lose(transactionID string, at time.Time, amount decimal.Decimal) error {
	const op = "lose"
	if err := checkEntry(transactionID, at); err != nil {
		return opErr(op, w.id, err)
	}
	evt, err := NewLose(transactionID, at, amount)
	return w.record(op, evt, err)
}

func (w *Wager) Confirm(transactionID string, at time.Time) error {
	const op = "confirm"
	if err := checkEntry(transactionID, at); err != nil {
		return opErr(op, w.id, err)
	}
	evt, err := NewConfirmed(transactionID, at)
	return w.record(op, evt, err)
}

func (w *Wager) Cancel(transactionID string, at time.Time) error {
	const op = "cancel"
	if err := checkEntry(transactionID, at); err != nil {
		return opErr(op, w.id, err)
	}
	evt, err := NewCanceled(transactionID, at)
	return w.record(op, evt, err)
}

func checkEntry(transactionID string, at time.Time) error {
	if strings.TrimSpace(transactionID) == "" {
		return fmt.Errorf("%w: empty transaction id", ErrInvalidArgument)
	}
	if at.IsZero() {
		return fmt.Errorf("%w: missing timestamp", ErrInvalidArgument)
	}
	return nil
}

func (w *Wager) record(op string, evt Event, err error) error {
	if err != nil {
		return opErr(op, w.id, err)
	}
	w.apply(evt)
	return nil
}

// apply é o único caminho que altera versão, last_update_time e o log.
func (w *Wager) apply(evt Event) {
	w.events = append(w.events, evt)
	w.state = Fold(w.state, evt)
}
