package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/radieske/wager-ledger/internal/wager/domain"
)

// Dialect isola as diferenças entre os bancos SQL suportados:
// placeholders, DDL e detecção de violação de chave única.
type Dialect struct {
	Name              string
	Schema            []string
	Rebind            func(query string) string
	IsUniqueViolation func(err error) bool
}

// SQLStore implementa Store sobre database/sql.
// wagers guarda a identidade e o snapshot (versão e totais), wager_events guarda o log.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
}

func NewSQLStore(db *sql.DB, d Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: d}
}

// Migrate cria as tabelas se ainda não existirem
func (s *SQLStore) Migrate(ctx context.Context) error {
	for _, stmt := range s.dialect.Schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate %s: %w", s.dialect.Name, err)
		}
	}
	return nil
}

func (s *SQLStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *SQLStore) q(query string) string {
	if s.dialect.Rebind == nil {
		return query
	}
	return s.dialect.Rebind(query)
}

// Load lê a identidade e faz o fold do log ordenado por versão
func (s *SQLStore) Load(ctx context.Context, id string) (*domain.Wager, error) {
	var gameID, sessionID, userID string
	err := s.db.QueryRowContext(ctx,
		s.q(`SELECT game_id, session_id, user_id FROM wagers WHERE id=?`), id,
	).Scan(&gameID, &sessionID, &userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", id, err)
	}

	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT version, kind, transaction_id, occurred_at_ns, amount
		FROM wager_events WHERE wager_id=? ORDER BY version ASC`), id)
	if err != nil {
		return nil, fmt.Errorf("load events %s: %w", id, err)
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		var (
			version    int64
			kind, txID string
			atNs       int64
			amount     decimal.NullDecimal
		)
		if err := rows.Scan(&version, &kind, &txID, &atNs, &amount); err != nil {
			return nil, fmt.Errorf("scan event %s: %w", id, err)
		}
		if want := int64(len(events) + 1); version != want {
			return nil, fmt.Errorf("load %s: event version %d, want %d: %w", id, version, want, domain.ErrCorruptDocument)
		}

		var amt *decimal.Decimal
		if amount.Valid {
			amt = &amount.Decimal
		}
		evt, err := domain.NewEvent(domain.Kind(kind), txID, time.Unix(0, atNs).UTC(), amt)
		if err != nil {
			return nil, fmt.Errorf("load %s event %d: %w", id, version, err)
		}
		events = append(events, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load events %s: %w", id, err)
	}

	return domain.Rehydrate(id, gameID, sessionID, userID, events)
}

// Save insere a aposta e o log completo numa transação
func (s *SQLStore) Save(ctx context.Context, w *domain.Wager) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	st := w.State()
	_, err = tx.ExecContext(ctx, s.q(`
		INSERT INTO wagers
		  (id, game_id, session_id, user_id, version, total_bet, total_win, total_lose,
		   begin_time, end_time, last_update_time, completed)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`),
		w.ID(), w.GameID(), w.SessionID(), w.UserID(), st.Version,
		st.TotalBet, st.TotalWin, st.TotalLose,
		nullTime(st.BeginTime), nullTime(st.EndTime), nullTime(st.LastUpdateTime), st.Completed(),
	)
	if err != nil {
		if s.dialect.IsUniqueViolation != nil && s.dialect.IsUniqueViolation(err) {
			return fmt.Errorf("save %s: %w", w.ID(), ErrAlreadyExists)
		}
		return fmt.Errorf("save %s: %w", w.ID(), err)
	}

	if err := s.insertEvents(ctx, tx, w.ID(), 0, w.Events()); err != nil {
		return err
	}
	return tx.Commit()
}

// Append avança a versão com compare-and-swap no UPDATE e grava os eventos novos.
// A PK (wager_id, version) em wager_events é a segunda barreira contra escrita concorrente.
func (s *SQLStore) Append(ctx context.Context, w *domain.Wager, expected int64) error {
	newEvents := w.EventsSince(expected)
	if len(newEvents) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	st := w.State()
	res, err := tx.ExecContext(ctx, s.q(`
		UPDATE wagers SET
		  version=?, total_bet=?, total_win=?, total_lose=?,
		  begin_time=?, end_time=?, last_update_time=?, completed=?
		WHERE id=? AND version=?`),
		st.Version, st.TotalBet, st.TotalWin, st.TotalLose,
		nullTime(st.BeginTime), nullTime(st.EndTime), nullTime(st.LastUpdateTime), st.Completed(),
		w.ID(), expected,
	)
	if err != nil {
		return fmt.Errorf("append %s: %w", w.ID(), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("append %s: %w", w.ID(), err)
	}
	if n == 0 {
		var one int
		err := tx.QueryRowContext(ctx, s.q(`SELECT 1 FROM wagers WHERE id=?`), w.ID()).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("append %s: %w", w.ID(), ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("append %s: %w", w.ID(), err)
		}
		return fmt.Errorf("append %s: expected version %d: %w", w.ID(), expected, ErrConcurrencyConflict)
	}

	if err := s.insertEvents(ctx, tx, w.ID(), expected, newEvents); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLStore) insertEvents(ctx context.Context, tx *sql.Tx, wagerID string, from int64, events []domain.Event) error {
	if len(events) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, s.q(`
		INSERT INTO wager_events (wager_id, version, kind, transaction_id, occurred_at_ns, amount)
		VALUES (?,?,?,?,?,?)`))
	if err != nil {
		return fmt.Errorf("prepare events %s: %w", wagerID, err)
	}
	defer stmt.Close()

	for i, evt := range events {
		amount := decimal.NullDecimal{Decimal: evt.Amount(), Valid: evt.HasAmount()}
		version := from + int64(i) + 1
		if _, err := stmt.ExecContext(ctx,
			wagerID, version, string(evt.Kind()), evt.TransactionID(), evt.OccurredAt().UnixNano(), amount,
		); err != nil {
			if s.dialect.IsUniqueViolation != nil && s.dialect.IsUniqueViolation(err) {
				return fmt.Errorf("insert event %s v%d: %w", wagerID, version, ErrConcurrencyConflict)
			}
			return fmt.Errorf("insert event %s v%d: %w", wagerID, version, err)
		}
	}
	return nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

// rebindDollar troca ? por $1, $2, ... (estilo Postgres)
func rebindDollar(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 16)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
