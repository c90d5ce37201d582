package ws

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// client serializa as escritas numa conexão; gorilla aceita um único escritor por vez
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

func (c *client) writeRaw(b []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, b)
}

// Hub gerencia conexões WebSocket e assinaturas por aposta
// subs: wagerID -> conjunto de clientes inscritos
type Hub struct {
	log      *zap.Logger
	upgrader websocket.Upgrader
	mu       sync.RWMutex
	subs     map[string]map[*client]struct{}
}

// NewHub cria o Hub com política de origem customizada
func NewHub(log *zap.Logger, allowOrigin func(r *http.Request) bool) *Hub {
	return &Hub{
		log:      log,
		upgrader: websocket.Upgrader{CheckOrigin: allowOrigin},
		subs:     make(map[string]map[*client]struct{}),
	}
}

// HandleWS atende uma conexão até o cliente desconectar
// Cada cliente pode se inscrever em várias apostas
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()
	c := &client{conn: conn}

	for {
		var msg ClientMsg
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		switch msg.Type {
		case "subscribe":
			if msg.WagerID == "" {
				_ = c.writeJSON(map[string]string{"type": "error", "error": "wagerId required"})
				continue
			}
			h.mu.Lock()
			if _, ok := h.subs[msg.WagerID]; !ok {
				h.subs[msg.WagerID] = make(map[*client]struct{})
			}
			h.subs[msg.WagerID][c] = struct{}{}
			h.mu.Unlock()
			_ = c.writeJSON(map[string]string{"type": "subscribed", "wagerId": msg.WagerID})
		case "unsubscribe":
			h.remove(msg.WagerID, c)
			_ = c.writeJSON(map[string]string{"type": "unsubscribed", "wagerId": msg.WagerID})
		case "ping":
			_ = c.writeJSON(map[string]string{"type": "pong"})
		}
	}

	// remove a conexão de todas as assinaturas ao desconectar
	h.mu.Lock()
	for id, set := range h.subs {
		delete(set, c)
		if len(set) == 0 {
			delete(h.subs, id)
		}
	}
	h.mu.Unlock()
}

func (h *Hub) remove(wagerID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if m, ok := h.subs[wagerID]; ok {
		delete(m, c)
		if len(m) == 0 {
			delete(h.subs, wagerID)
		}
	}
}

// Subscribers retorna quantos clientes acompanham a aposta
func (h *Hub) Subscribers(wagerID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[wagerID])
}

// Broadcast envia o snapshot aos clientes inscritos na aposta
func (h *Hub) Broadcast(update WagerUpdate) {
	h.mu.RLock()
	conns := make([]*client, 0, len(h.subs[update.WagerID]))
	for c := range h.subs[update.WagerID] {
		conns = append(conns, c)
	}
	h.mu.RUnlock()
	if len(conns) == 0 {
		return
	}

	b, err := json.Marshal(update)
	if err != nil {
		h.log.Warn("ws marshal failed", zap.String("wagerId", update.WagerID), zap.Error(err))
		return
	}
	for _, c := range conns {
		if err := c.writeRaw(b); err != nil {
			h.log.Debug("ws write failed", zap.String("wagerId", update.WagerID), zap.Error(err))
		}
	}
}
