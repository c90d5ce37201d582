package repo

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

// PostgresDialect: NUMERIC para valores exatos, BIGINT (ns) para o instante dos eventos
var PostgresDialect = Dialect{
	Name: "postgres",
	Schema: []string{
		`CREATE TABLE IF NOT EXISTS wagers (
		  id               TEXT PRIMARY KEY,
		  game_id          TEXT NOT NULL,
		  session_id       TEXT NOT NULL,
		  user_id          TEXT NOT NULL,
		  version          BIGINT NOT NULL,
		  total_bet        NUMERIC NOT NULL DEFAULT 0,
		  total_win        NUMERIC NOT NULL DEFAULT 0,
		  total_lose       NUMERIC NOT NULL DEFAULT 0,
		  begin_time       TIMESTAMPTZ NULL,
		  end_time         TIMESTAMPTZ NULL,
		  last_update_time TIMESTAMPTZ NULL,
		  completed        BOOLEAN NOT NULL DEFAULT FALSE
		)`,
		`CREATE TABLE IF NOT EXISTS wager_events (
		  wager_id       TEXT NOT NULL REFERENCES wagers(id) ON DELETE CASCADE,
		  version        BIGINT NOT NULL,
		  kind           TEXT NOT NULL,
		  transaction_id TEXT NOT NULL,
		  occurred_at_ns BIGINT NOT NULL,
		  amount         NUMERIC NULL,
		  PRIMARY KEY (wager_id, version)
		)`,
		`CREATE INDEX IF NOT EXISTS wagers_user_idx ON wagers (user_id)`,
	},
	Rebind: rebindDollar,
	IsUniqueViolation: func(err error) bool {
		var pqErr *pq.Error
		return errors.As(err, &pqErr) && pqErr.Code == "23505"
	},
}

// NewPostgres retorna o store de apostas sobre Postgres (lib/pq)
func NewPostgres(db *sql.DB) *SQLStore { return NewSQLStore(db, PostgresDialect) }
