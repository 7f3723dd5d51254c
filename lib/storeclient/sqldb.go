package storeclient

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

// SQL backs the store contract with a plain database/sql connection.
// Supported drivers: pgx (postgres), sqlite, libsql.
type SQL struct {
	db     *sql.DB
	driver string
}

type SQLOptions struct {
	Driver string `json:"driver"`
	Dsn    string `json:"dsn"`
}

func OpenSQL(opts SQLOptions) (*SQL, error) {
	if opts.Driver == "" || opts.Dsn == "" {
		return nil, fmt.Errorf("a database driver and dsn must be specified")
	}
	db, err := sql.Open(opts.Driver, opts.Dsn)
	if err != nil {
		return nil, err
	}
	return NewSQL(db, opts.Driver), nil
}

func NewSQL(db *sql.DB, driver string) *SQL {
	return &SQL{db: db, driver: driver}
}

func (s *SQL) Close() error {
	return s.db.Close()
}

func (s *SQL) ExecStatement(ctx context.Context, statement string) error {
	_, err := s.db.ExecContext(ctx, statement)
	return err
}

func (s *SQL) placeholder(n int) string {
	if s.driver == "pgx" {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

func (s *SQL) InsertRows(ctx context.Context, table string, columns []string, rows []map[string]*string) error {
	if len(rows) == 0 {
		return nil
	}

	quoted := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	for i, column := range columns {
		quoted[i] = fmt.Sprintf("%q", column)
		placeholders[i] = s.placeholder(i + 1)
	}
	statement := fmt.Sprintf(
		"INSERT INTO %q (%s) VALUES (%s)",
		table,
		strings.Join(quoted, ", "),
		strings.Join(placeholders, ", "),
	)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, statement)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, row := range rows {
		args := make([]any, len(columns))
		for i, column := range columns {
			if value := row[column]; value != nil {
				args[i] = *value
			}
		}
		_, err = stmt.ExecContext(ctx, args...)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQL) SupportsPolicies() bool {
	return s.driver == "pgx"
}
