package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Document é o formato serializado da aposta (JSON, cache, mensagens).
// Decimais trafegam como string para não perder precisão.
type Document struct {
	ID             string          `json:"id"`
	GameID         string          `json:"game_id"`
	SessionID      string          `json:"session_id"`
	UserID         string          `json:"user_id"`
	Version        int64           `json:"version"`
	TotalBet       decimal.Decimal `json:"total_bet"`
	TotalWin       decimal.Decimal `json:"total_win"`
	TotalLose      decimal.Decimal `json:"total_lose"`
	Events         []EventRecord   `json:"events"`
	BeginTime      *time.Time      `json:"begin_time"`
	EndTime        *time.Time      `json:"end_time"`
	LastUpdateTime *time.Time      `json:"last_update_time"`
}

// EventRecord é o registro tagueado de um evento; amount só existe em Bet/Win/Lose.
type EventRecord struct {
	Type          Kind             `json:"type"`
	TransactionID string           `json:"transaction_id"`
	OccurredAt    time.Time        `json:"occurred_at"`
	Amount        *decimal.Decimal `json:"amount,omitempty"`
}

// Record converte o evento no registro serializável.
func (e Event) Record() EventRecord {
	r := EventRecord{Type: e.kind, TransactionID: e.transactionID, OccurredAt: e.occurredAt}
	if e.HasAmount() {
		amt := e.amount
		r.Amount = &amt
	}
	return r
}

// Event reconstrói o evento a partir do registro, com as mesmas validações da construção.
func (r EventRecord) Event() (Event, error) {
	return NewEvent(r.Type, r.TransactionID, r.OccurredAt, r.Amount)
}

func optionalTime(t time.Time, ok bool) *time.Time {
	if !ok {
		return nil
	}
	return &t
}

// Document monta o formato serializado a partir do estado atual.
func (w *Wager) Document() Document {
	records := make([]EventRecord, 0, len(w.events))
	for _, evt := range w.events {
		records = append(records, evt.Record())
	}
	return Document{
		ID:             w.id,
		GameID:         w.gameID,
		SessionID:      w.sessionID,
		UserID:         w.userID,
		Version:        w.state.Version,
		TotalBet:       w.state.TotalBet,
		TotalWin:       w.state.TotalWin,
		TotalLose:      w.state.TotalLose,
		Events:         records,
		BeginTime:      optionalTime(w.BeginTime()),
		EndTime:        optionalTime(w.EndTime()),
		LastUpdateTime: optionalTime(w.LastUpdateTime()),
	}
}

// FromDocument reconstrói a aposta fazendo o fold dos eventos do documento.
// Os campos derivados do documento precisam bater com o fold.
func FromDocument(doc Document) (*Wager, error) {
	events := make([]Event, 0, len(doc.Events))
	for i, r := range doc.Events {
		evt, err := r.Event()
		if err != nil {
			return nil, opErr("decode", doc.ID, fmt.Errorf("event #%d: %w", i+1, err))
		}
		events = append(events, evt)
	}
	w, err := Rehydrate(doc.ID, doc.GameID, doc.SessionID, doc.UserID, events)
	if err != nil {
		return nil, err
	}
	if err := verifyDocument(doc, w); err != nil {
		return nil, opErr("decode", doc.ID, err)
	}
	return w, nil
}

func verifyDocument(doc Document, w *Wager) error {
	s := w.state
	switch {
	case doc.Version != s.Version:
		return fmt.Errorf("%w: version %d, folded %d", ErrCorruptDocument, doc.Version, s.Version)
	case !doc.TotalBet.Equal(s.TotalBet):
		return fmt.Errorf("%w: total_bet %s, folded %s", ErrCorruptDocument, doc.TotalBet, s.TotalBet)
	case !doc.TotalWin.Equal(s.TotalWin):
		return fmt.Errorf("%w: total_win %s, folded %s", ErrCorruptDocument, doc.TotalWin, s.TotalWin)
	case !doc.TotalLose.Equal(s.TotalLose):
		return fmt.Errorf("%w: total_lose %s, folded %s", ErrCorruptDocument, doc.TotalLose, s.TotalLose)
	case !sameTime(doc.BeginTime, s.BeginTime):
		return fmt.Errorf("%w: begin_time", ErrCorruptDocument)
	case !sameTime(doc.EndTime, s.EndTime):
		return fmt.Errorf("%w: end_time", ErrCorruptDocument)
	case !sameTime(doc.LastUpdateTime, s.LastUpdateTime):
		return fmt.Errorf("%w: last_update_time", ErrCorruptDocument)
	}
	return nil
}

func sameTime(p *time.Time, t time.Time) bool {
	if p == nil {
		return t.IsZero()
	}
	return p.Equal(t)
}

func (w *Wager) MarshalJSON() ([]byte, error) {
	return json.Marshal(w.Document())
}

func (w *Wager) UnmarshalJSON(b []byte) error {
	var doc Document
	if err := json.Unmarshal(b, &doc); err != nil {
		return err
	}
	rebuilt, err := FromDocument(doc)
	if err != nil {
		return err
	}
	*w = *rebuilt
	return nil
}
