package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/kiranshivaraju/backoffice/pkg/models"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")

// Store is the data access interface used outside the resource tables:
// health checks and application-key authentication.
type Store interface {
	Ping(ctx context.Context) error

	GetApplicationsByKeyPrefix(ctx context.Context, prefix string) ([]*models.Application, error)
	UpdateApplicationLastUsed(ctx context.Context, id int64) error
}

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Value is one column assignment of an insert or update.
type Value struct {
	Column string
	Arg    any
}

// Values keeps assignment order stable so generated SQL is deterministic.
type Values []Value

func (v Values) Set(column string, arg any) Values {
	return append(v, Value{Column: column, Arg: arg})
}

// Get returns the last assignment for column.
func (v Values) Get(column string) (any, bool) {
	for i := len(v) - 1; i >= 0; i-- {
		if v[i].Column == column {
			return v[i].Arg, true
		}
	}
	return nil, false
}
