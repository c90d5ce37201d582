package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// State é o estado derivado de uma aposta. Sempre reproduzível a partir do log.
// Tempos zerados significam "ausente".
type State struct {
	Version        int64
	TotalBet       decimal.Decimal
	TotalWin       decimal.Decimal
	TotalLose      decimal.Decimal
	BeginTime      time.Time
	EndTime        time.Time
	LastUpdateTime time.Time
	LastKind       Kind
}

// Completed é verdadeiro quando o último evento é Confirmed ou Canceled.
func (s State) Completed() bool { return s.LastKind.Terminal() }

// Fold aplica um evento ao estado e devolve o novo estado.
// É o único lugar que define como um evento altera o estado derivado,
// usado tanto pelas operações da aposta quanto pela reconstrução do storage.
func Fold(s State, evt Event) State {
	switch evt.kind {
	case KindCreated:
		s.BeginTime = evt.occurredAt
	case KindBet:
		s.TotalBet = s.TotalBet.Add(evt.amount)
	case KindWin:
		s.TotalWin = s.TotalWin.Add(evt.amount)
	case KindLose:
		s.TotalLose = s.TotalLose.Add(evt.amount)
	case KindConfirmed, KindCanceled:
		s.EndTime = evt.occurredAt
	}
	s.Version++
	s.LastUpdateTime = evt.occurredAt
	s.LastKind = evt.kind
	return s
}

// Replay faz o left-fold do log a partir do estado vazio.
func Replay(events []Event) State {
	var s State
	for _, evt := range events {
		s = Fold(s, evt)
	}
	return s
}

// Equal compara estados por valor: decimais pelo valor numérico e tempos pelo instante.
// A serialização pode mudar o expoente do decimal (10.00 -> 10) sem mudar o valor.
func (s State) Equal(o State) bool {
	return s.Version == o.Version &&
		s.TotalBet.Equal(o.TotalBet) &&
		s.TotalWin.Equal(o.TotalWin) &&
		s.TotalLose.Equal(o.TotalLose) &&
		s.BeginTime.Equal(o.BeginTime) &&
		s.EndTime.Equal(o.EndTime) &&
		s.LastUpdateTime.Equal(o.LastUpdateTime) &&
		s.LastKind == o.LastKind
}
