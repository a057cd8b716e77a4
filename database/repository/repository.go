package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/positionledger/positionledger/database"
	"github.com/thrasher-corp/sqlboiler/boil"
)

// Execer is satisfied by *sql.DB and *sql.Tx
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// GetSQLDialect returns current SQL Dialect based on enabled driver
func GetSQLDialect() string {
	return database.DB.Dialect()
}

// Rebind rewrites ? placeholders into the positional form used by dialect
func Rebind(dialect, query string) string {
	if dialect != database.DBPostgreSQL {
		return query
	}
	var (
		b strings.Builder
		n int
	)
	b.Grow(len(query) + 8)
	for i := range len(query) {
		if query[i] != '?' {
			b.WriteByte(query[i])
			continue
		}
		n++
		b.WriteByte('$')
		b.WriteString(strconv.Itoa(n))
	}
	return b.String()
}

// Exec runs a statement in the supplied dialect, echoing it to the sqlboiler
// debug writer when verbose output is enabled
func Exec(ctx context.Context, exec Execer, dialect, query string, args ...any) (sql.Result, error) {
	query = Rebind(dialect, query)
	if boil.DebugMode {
		fmt.Fprintln(boil.DebugWriter, query)
		fmt.Fprintln(boil.DebugWriter, args...)
	}
	return exec.ExecContext(ctx, query, args...)
}

// Rollback rolls back tx if err is set and reports a failing rollback
// alongside the original error
func Rollback(tx *sql.Tx, err error) error {
	if err == nil {
		return nil
	}
	if errRB := tx.Rollback(); errRB != nil {
		return fmt.Errorf("%w rollback: %w", err, errRB)
	}
	return err
}
