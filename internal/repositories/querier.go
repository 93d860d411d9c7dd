package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// querier - общее у *pgxpool.Pool и pgx.Tx. Методы, которые можно вызвать
// и внутри транзакции, и без неё, принимают его.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// pick возвращает tx, если он передан, иначе пул.
func pick(tx pgx.Tx, pool querier) querier {
	if tx != nil {
		return tx
	}
	return pool
}
