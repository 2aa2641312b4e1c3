package database

import (
	"context"
	"database/sql"
	"fmt"
	"hash/fnv"
	"log/slog"

	"github.com/google/uuid"
)

// AccountLocker guards a whole sync pass for one account with a session-level
// advisory lock held on a dedicated connection.
type AccountLocker struct {
	db *sql.DB
}

func NewAccountLocker(db *sql.DB) *AccountLocker {
	return &AccountLocker{db: db}
}

// LockKey hashes a namespace and an account id into an advisory lock key.
// Distinct namespaces keep the sync lock and the import lock from colliding.
func LockKey(namespace string, accountID uuid.UUID) int64 {
	h := fnv.New64a()
	h.Write([]byte(namespace))
	h.Write([]byte{0})
	h.Write(accountID[:])

	return int64(h.Sum64())
}

// TryLock returns ok=false without blocking when another session holds the lock.
// The returned unlock func must be called when ok is true.
func (l *AccountLocker) TryLock(ctx context.Context, accountID uuid.UUID) (func(), bool, error) {
	conn, err := l.db.Conn(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("acquiring connection: %w", err)
	}

	key := LockKey("sync", accountID)

	var acquired bool
	if err := conn.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", key).Scan(&acquired); err != nil {
		conn.Close()
		return nil, false, fmt.Errorf("trying sync lock: %w", err)
	}

	if !acquired {
		conn.Close()
		return nil, false, nil
	}

	unlock := func() {
		// The caller's context may already be done; the unlock must still run.
		if _, err := conn.ExecContext(context.Background(), "SELECT pg_advisory_unlock($1)", key); err != nil {
			slog.Error("failed to release sync lock", "account_id", accountID, "error", err)
		}

		conn.Close()
	}

	return unlock, true, nil
}
