package ws

import "encoding/json"

// ClientMsg representa uma mensagem recebida do cliente WebSocket
type ClientMsg struct {
	Type    string `json:"type"`    // subscribe | unsubscribe | ping
	WagerID string `json:"wagerId"` // requerido em subscribe/unsubscribe
}

// WagerUpdate é o snapshot repassado aos inscritos; payload segue como veio do canal
type WagerUpdate struct {
	WagerID   string          `json:"wagerId"`
	Version   int64           `json:"version"`
	Status    string          `json:"status"`
	Completed bool            `json:"completed"`
	Payload   json.RawMessage `json:"payload"`
}
