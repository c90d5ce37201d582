package repo

import (
	"database/sql"
	"errors"

	"modernc.org/sqlite"
)

// sqliteConstraint é o código primário SQLITE_CONSTRAINT; os códigos estendidos
// (PRIMARYKEY, UNIQUE) carregam ele no byte baixo.
const sqliteConstraint = 19

// SQLiteDialect: valores exatos como TEXT, sem perda de precisão
var SQLiteDialect = Dialect{
	Name: "sqlite",
	Schema: []string{
		`CREATE TABLE IF NOT EXISTS wagers (
		  id               TEXT PRIMARY KEY,
		  game_id          TEXT NOT NULL,
		  session_id       TEXT NOT NULL,
		  user_id          TEXT NOT NULL,
		  version          INTEGER NOT NULL,
		  total_bet        TEXT NOT NULL DEFAULT '0',
		  total_win        TEXT NOT NULL DEFAULT '0',
		  total_lose       TEXT NOT NULL DEFAULT '0',
		  begin_time       TEXT NULL,
		  end_time         TEXT NULL,
		  last_update_time TEXT NULL,
		  completed        INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS wager_events (
		  wager_id       TEXT NOT NULL REFERENCES wagers(id) ON DELETE CASCADE,
		  version        INTEGER NOT NULL,
		  kind           TEXT NOT NULL,
		  transaction_id TEXT NOT NULL,
		  occurred_at_ns INTEGER NOT NULL,
		  amount         TEXT NULL,
		  PRIMARY KEY (wager_id, version)
		)`,
		`CREATE INDEX IF NOT EXISTS wagers_user_idx ON wagers (user_id)`,
	},
	IsUniqueViolation: func(err error) bool {
		var sqlErr *sqlite.Error
		return errors.As(err, &sqlErr) && sqlErr.Code()&0xff == sqliteConstraint
	},
}

// NewSQLite retorna o store de apostas sobre SQLite (modernc.org/sqlite, sem cgo)
func NewSQLite(db *sql.DB) *SQLStore { return NewSQLStore(db, SQLiteDialect) }
