package repo

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/radieske/wager-ledger/internal/wager/domain"
)

type memoryRecord struct {
	gameID, sessionID, userID string
	events                    []domain.Event
}

// MemoryStore guarda os logs em memória. Usado em testes e no modo local.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]*memoryRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*memoryRecord)}
}

func (m *MemoryStore) Load(_ context.Context, id string) (*domain.Wager, error) {
	m.mu.Lock()
	rec, ok := m.records[id]
	if !ok {
		m.mu.Unlock()
		return nil, fmt.Errorf("load %s: %w", id, ErrNotFound)
	}
	events := slices.Clone(rec.events)
	m.mu.Unlock()

	return domain.Rehydrate(id, rec.gameID, rec.sessionID, rec.userID, events)
}

func (m *MemoryStore) Save(_ context.Context, w *domain.Wager) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[w.ID()]; ok {
		return fmt.Errorf("save %s: %w", w.ID(), ErrAlreadyExists)
	}
	m.records[w.ID()] = &memoryRecord{
		gameID:    w.GameID(),
		sessionID: w.SessionID(),
		userID:    w.UserID(),
		events:    w.Events(),
	}
	return nil
}

func (m *MemoryStore) Append(_ context.Context, w *domain.Wager, expected int64) error {
	newEvents := w.EventsSince(expected)
	if len(newEvents) == 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[w.ID()]
	if !ok {
		return fmt.Errorf("append %s: %w", w.ID(), ErrNotFound)
	}
	if stored := int64(len(rec.events)); stored != expected {
		return fmt.Errorf("append %s: stored version %d, expected %d: %w", w.ID(), stored, expected, ErrConcurrencyConflict)
	}
	rec.events = append(rec.events, newEvents...)
	return nil
}

func (m *MemoryStore) Ping(context.Context) error { return nil }
