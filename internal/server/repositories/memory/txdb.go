package memory

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// TxDB supplies real *sql.Tx values to code written against dbx.DB while
// the data lives in a RepositoryManager. It is backed by an empty in-memory
// SQLite database and ignores isolation options.
type TxDB struct {
	*sql.DB
}

// OpenTxDB opens a TxDB. Close it when done.
func OpenTxDB() (*TxDB, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return &TxDB{DB: db}, nil
}

func (d *TxDB) BeginTx(ctx context.Context, _ *sql.TxOptions) (*sql.Tx, error) {
	return d.DB.BeginTx(ctx, nil)
}
