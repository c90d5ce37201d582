package events

import "time"

// Evento publicado no tópico "wager_events" a cada evento anexado ao log de uma aposta.
// Key da mensagem = wager_id, para manter a ordem por aposta dentro da partição.
type WagerEvent struct {
	WagerID       string    `json:"wager_id"`
	GameID        string    `json:"game_id"`
	SessionID     string    `json:"session_id"`
	UserID        string    `json:"user_id"`
	Version       int64     `json:"version"` // posição do evento no log (1-based)
	Type          string    `json:"type"`    // Created | Bet | Win | Lose | Confirmed | Canceled
	TransactionID string    `json:"transaction_id"`
	OccurredAt    time.Time `json:"occurred_at"`
	Amount        *string   `json:"amount,omitempty"` // decimal exato como string
	Completed     bool      `json:"completed"`        // aposta finalizada após este evento
	TsUnixMs      int64     `json:"ts_unix_ms"`
}
