package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/MrJamesThe3rd/ledgersync/internal/database"
	"github.com/MrJamesThe3rd/ledgersync/internal/transaction"
)

const uniqueViolation = "23505"

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Expected column order matches selectTransactionColumns.
func scanTransaction(s scanner) (*transaction.Transaction, error) {
	var tx transaction.Transaction

	var typeStr string

	if err := s.Scan(
		&tx.ID, &tx.OwnerID, &typeStr,
		&tx.SourceAccountID, &tx.DestinationAccountID, &tx.SourceAmount, &tx.DestinationAmount,
		&tx.Date, &tx.Description, &tx.CategoryID, &tx.ExternalID,
		&tx.CreatedAt, &tx.DeletedAt,
	); err != nil {
		return nil, err
	}

	tx.Type = transaction.Type(typeStr)

	return &tx, nil
}

const selectTransactionColumns = `
	t.id, t.owner_id, t.type,
	t.source_account_id, t.destination_account_id, t.source_amount, t.destination_amount,
	t.date, t.description, t.category_id, t.external_id,
	t.created_at, t.deleted_at
`

// insertTransaction is the single write path for ledger rows: manual entry and
// statement import both go through it so balances stay in step with rows.
func insertTransaction(ctx context.Context, q querier, tx *transaction.Transaction) error {
	query := `
		INSERT INTO transactions (
			owner_id, type, source_account_id, destination_account_id,
			source_amount, destination_amount, date, description, category_id, external_id, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
		RETURNING id, created_at
	`

	err := q.QueryRowContext(ctx, query,
		tx.OwnerID,
		tx.Type,
		tx.SourceAccountID,
		tx.DestinationAccountID,
		tx.SourceAmount,
		tx.DestinationAmount,
		tx.Date,
		tx.Description,
		tx.CategoryID,
		tx.ExternalID,
	).Scan(&tx.ID, &tx.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return transaction.ErrDuplicate
		}

		return fmt.Errorf("inserting transaction: %w", err)
	}

	return applyBalance(ctx, q, tx, 1)
}

// applyBalance adds sign * the transaction's effect to every account it touches.
func applyBalance(ctx context.Context, q querier, tx *transaction.Transaction, sign int64) error {
	for _, id := range []*uuid.UUID{tx.SourceAccountID, tx.DestinationAccountID} {
		if id == nil {
			continue
		}

		delta := sign * tx.BalanceDelta(*id)
		if delta == 0 {
			continue
		}

		res, err := q.ExecContext(ctx,
			`UPDATE accounts SET balance = balance + $1, updated_at = NOW() WHERE id = $2 AND owner_id = $3`,
			delta, *id, tx.OwnerID,
		)
		if err != nil {
			return fmt.Errorf("adjusting balance: %w", err)
		}

		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("%w: account %s not found for owner", transaction.ErrInvalid, *id)
		}

		// A transfer to the same account would be applied twice otherwise.
		if tx.SourceAccountID != nil && tx.DestinationAccountID != nil && *tx.SourceAccountID == *tx.DestinationAccountID {
			break
		}
	}

	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func (s *Store) CreateTransaction(ctx context.Context, tx *transaction.Transaction) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer dbTx.Rollback()

	if err := insertTransaction(ctx, dbTx, tx); err != nil {
		return err
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

func (s *Store) GetTransaction(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	query := `SELECT ` + selectTransactionColumns + `
		FROM transactions t
		WHERE t.id = $1 AND t.deleted_at IS NULL`

	tx, err := scanTransaction(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, transaction.ErrNotFound
		}

		return nil, fmt.Errorf("getting transaction: %w", err)
	}

	return tx, nil
}

func (s *Store) ListTransactions(ctx context.Context, filter transaction.ListFilter) ([]*transaction.Transaction, error) {
	query := `SELECT ` + selectTransactionColumns + `
		FROM transactions t
		WHERE t.deleted_at IS NULL AND t.owner_id = $1`

	args := []any{filter.OwnerID}

	argIdx := 2

	if filter.AccountID != nil {
		query += fmt.Sprintf(" AND (t.source_account_id = $%d OR t.destination_account_id = $%d)", argIdx, argIdx)

		args = append(args, *filter.AccountID)
		argIdx++
	}

	if filter.StartDate != nil {
		query += fmt.Sprintf(" AND t.date >= $%d", argIdx)

		args = append(args, *filter.StartDate)
		argIdx++
	}

	if filter.EndDate != nil {
		query += fmt.Sprintf(" AND t.date <= $%d", argIdx)

		args = append(args, *filter.EndDate)
		argIdx++
	}

	query += " ORDER BY t.date ASC, t.created_at ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	defer rows.Close()

	var txs []*transaction.Transaction

	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}

		txs = append(txs, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating transaction rows: %w", err)
	}

	return txs, nil
}

func (s *Store) UpdateCategory(ctx context.Context, id uuid.UUID, categoryID *uuid.UUID) error {
	query := `
		UPDATE transactions
		SET category_id = $1
		WHERE id = $2 AND deleted_at IS NULL
	`

	res, err := s.db.ExecContext(ctx, query, categoryID, id)
	if err != nil {
		return fmt.Errorf("updating category: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return transaction.ErrNotFound
	}

	return nil
}

func (s *Store) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer dbTx.Rollback()

	query := `
		UPDATE transactions
		SET deleted_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING owner_id, source_account_id, destination_account_id, source_amount, destination_amount
	`

	var tx transaction.Transaction

	err = dbTx.QueryRowContext(ctx, query, id).Scan(
		&tx.OwnerID, &tx.SourceAccountID, &tx.DestinationAccountID, &tx.SourceAmount, &tx.DestinationAmount,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return transaction.ErrNotFound
		}

		return fmt.Errorf("deleting transaction: %w", err)
	}

	if err := applyBalance(ctx, dbTx, &tx, -1); err != nil {
		return err
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

func (s *Store) LatestCategoryByDescription(ctx context.Context, ownerID uuid.UUID, description, excludeExternalID string) (*uuid.UUID, error) {
	query := `
		SELECT t.category_id
		FROM transactions t
		WHERE t.owner_id = $1
			AND t.description = $2
			AND t.category_id IS NOT NULL
			AND t.deleted_at IS NULL
			AND (t.external_id IS NULL OR t.external_id <> $3)
		ORDER BY t.date DESC, t.created_at DESC
		LIMIT 1
	`

	var categoryID uuid.UUID

	err := s.db.QueryRowContext(ctx, query, ownerID, description, excludeExternalID).Scan(&categoryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("finding category by description: %w", err)
	}

	return &categoryID, nil
}

type importTx struct {
	tx *sql.Tx
}

// BeginImport opens the account's import unit of work. The transaction-scoped
// advisory lock serializes imports of the same account.
func (s *Store) BeginImport(ctx context.Context, accountID uuid.UUID) (transaction.ImportTx, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning import tx: %w", err)
	}

	lockKey := database.LockKey("import", accountID)
	if _, err := dbTx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", lockKey); err != nil {
		dbTx.Rollback()
		return nil, fmt.Errorf("acquiring import lock: %w", err)
	}

	return &importTx{tx: dbTx}, nil
}

func (itx *importTx) Commit() error   { return itx.tx.Commit() }
func (itx *importTx) Rollback() error { return itx.tx.Rollback() }

// ExistingExternalIDs includes soft-deleted rows so a deleted import is not re-imported.
func (itx *importTx) ExistingExternalIDs(ctx context.Context, ids []string) (map[string]struct{}, error) {
	found := make(map[string]struct{}, len(ids))
	if len(ids) == 0 {
		return found, nil
	}

	rows, err := itx.tx.QueryContext(ctx,
		`SELECT external_id FROM transactions WHERE external_id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("finding existing external ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning external id: %w", err)
		}

		found[id] = struct{}{}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating external id rows: %w", err)
	}

	return found, nil
}

// CreateTransaction isolates each insert in a savepoint so a unique violation
// only discards that row, not the account's whole batch.
func (itx *importTx) CreateTransaction(ctx context.Context, tx *transaction.Transaction) error {
	if _, err := itx.tx.ExecContext(ctx, "SAVEPOINT import_item"); err != nil {
		return fmt.Errorf("creating savepoint: %w", err)
	}

	if err := insertTransaction(ctx, itx.tx, tx); err != nil {
		if _, rbErr := itx.tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT import_item"); rbErr != nil {
			return fmt.Errorf("rolling back savepoint: %w", rbErr)
		}

		return err
	}

	if _, err := itx.tx.ExecContext(ctx, "RELEASE SAVEPOINT import_item"); err != nil {
		return fmt.Errorf("releasing savepoint: %w", err)
	}

	return nil
}

// AdvanceCursor never moves the cursor backwards.
func (itx *importTx) AdvanceCursor(ctx context.Context, accountID uuid.UUID, at time.Time) error {
	query := `
		UPDATE accounts
		SET sync_cursor = $1
		WHERE id = $2 AND (sync_cursor IS NULL OR sync_cursor < $1)
	`

	if _, err := itx.tx.ExecContext(ctx, query, at, accountID); err != nil {
		return fmt.Errorf("advancing sync cursor: %w", err)
	}

	return nil
}
