package httpapi

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/radieske/wager-ledger/internal/wager/domain"
)

// occurredAt é obrigatório em todos os comandos; ausente vira 400
type OpenWagerRequest struct {
	WagerID       string     `json:"wagerId"`
	GameID        string     `json:"gameId"`
	SessionID     string     `json:"sessionId"`
	UserID        string     `json:"userId"`
	TransactionID string     `json:"transactionId"`
	OccurredAt    *time.Time `json:"occurredAt"`
}

// AmountRequest serve para bet/win/lose; amount aceita string ou número JSON
type AmountRequest struct {
	TransactionID string           `json:"transactionId"`
	Amount        *decimal.Decimal `json:"amount"`
	OccurredAt    *time.Time       `json:"occurredAt"`
}

// FinalizeRequest serve para confirm/cancel
type FinalizeRequest struct {
	TransactionID string     `json:"transactionId"`
	OccurredAt    *time.Time `json:"occurredAt"`
}

type WagerResponse struct {
	domain.Document
	Status    domain.Status `json:"status"`
	Completed bool          `json:"completed"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	WagerID string `json:"wagerId,omitempty"`
	Op      string `json:"op,omitempty"`
	Retry   bool   `json:"retry,omitempty"`
}

func toResponse(w *domain.Wager) WagerResponse {
	return WagerResponse{Document: w.Document(), Status: w.Status(), Completed: w.IsCompleted()}
}

// deref devolve o instante zero para campo ausente; o domínio rejeita
func deref(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
