package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// OrderLocker — advisory lock на уровне заказа.
//
// Ключом служит id заказа. Лок транзакционный
// (pg_try_advisory_xact_lock): освобождается автоматически при
// завершении владеющей транзакции, явного unlock нет. Две конкурентные
// оценки одного заказа не могут выполняться одновременно — вторая
// получает busy и уходит без ожидания.
type OrderLocker struct {
	pool *pgxpool.Pool
}

// NewOrderLocker создаёт новый OrderLocker.
func NewOrderLocker(pool *pgxpool.Pool) *OrderLocker {
	return &OrderLocker{pool: pool}
}

// WithOrderLock выполняет fn под advisory lock'ом заказа.
//
// Возвращает (false, nil), если лок занят другим вызовом — без ожидания
// и без повтора: владелец сам доведёт заказ до согласованного состояния,
// а следующее завершение задачи запустит оценку заново.
//
// Транзакция держится открытой на время fn и коммитится после его
// завершения; записи внутри fn идут через пул и видны сразу, транзакция
// нужна только как область жизни лока.
func (l *OrderLocker) WithOrderLock(ctx context.Context, orderID int64, fn func(ctx context.Context) error) (bool, error) {
	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin lock tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var acquired bool
	if err := tx.QueryRow(ctx, `SELECT pg_try_advisory_xact_lock($1)`, orderID).Scan(&acquired); err != nil {
		return false, fmt.Errorf("try advisory lock: %w", err)
	}
	if !acquired {
		return false, nil
	}

	if err := fn(ctx); err != nil {
		return true, err
	}

	if err := tx.Commit(ctx); err != nil {
		return true, fmt.Errorf("commit lock tx: %w", err)
	}
	return true, nil
}
