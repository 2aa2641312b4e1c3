//go:build integration

package store_test

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	accountStore "github.com/MrJamesThe3rd/ledgersync/internal/account/store"
	"github.com/MrJamesThe3rd/ledgersync/internal/database"
	"github.com/MrJamesThe3rd/ledgersync/internal/transaction"
	"github.com/MrJamesThe3rd/ledgersync/internal/transaction/store"
)

// Run with: LEDGERSYNC_TEST_DATABASE_URL=postgres://... go test -tags integration ./internal/transaction/store/
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	connStr := os.Getenv("LEDGERSYNC_TEST_DATABASE_URL")
	if connStr == "" {
		t.Skip("LEDGERSYNC_TEST_DATABASE_URL not set")
	}

	require.NoError(t, database.MigrateUp(connStr))

	db, err := database.New(context.Background(), connStr, database.Pool{MaxOpen: 4})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return db
}

func createAccount(t *testing.T, db *sql.DB, ownerID uuid.UUID, balance int64) uuid.UUID {
	t.Helper()

	var id uuid.UUID

	err := db.QueryRowContext(context.Background(),
		`INSERT INTO accounts (owner_id, name, kind, currency, balance, external_id)
		VALUES ($1, 'Black card', 'card', 'UAH', $2, $3) RETURNING id`,
		ownerID, balance, "ext-"+uuid.NewString(),
	).Scan(&id)
	require.NoError(t, err)

	return id
}

func importRow(ownerID, accountID uuid.UUID, externalID string, amount int64) *transaction.Transaction {
	tx := &transaction.Transaction{
		OwnerID:     ownerID,
		Date:        time.Now().UTC(),
		Description: "Coffee",
		ExternalID:  &externalID,
	}

	if amount < 0 {
		tx.Type = transaction.TypeExpense
		tx.SourceAccountID = &accountID
		tx.SourceAmount = -amount
	} else {
		tx.Type = transaction.TypeIncome
		tx.DestinationAccountID = &accountID
		tx.DestinationAmount = amount
	}

	return tx
}

func TestImport_UnitOfWork(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	txs := store.New(db)
	accounts := accountStore.New(db)

	ownerID := uuid.New()
	accountID := createAccount(t, db, ownerID, 1_000)

	prefix := uuid.NewString() + "-"
	first, second, third := prefix+"a", prefix+"b", prefix+"c"
	synced := time.Now().UTC().Truncate(time.Microsecond)

	t.Run("DuplicateKeepsBatchAlive", func(t *testing.T) {
		itx, err := txs.BeginImport(ctx, accountID)
		require.NoError(t, err)
		defer itx.Rollback()

		existing, err := itx.ExistingExternalIDs(ctx, []string{first, second})
		require.NoError(t, err)
		assert.Empty(t, existing)

		require.NoError(t, itx.CreateTransaction(ctx, importRow(ownerID, accountID, first, -100)))
		assert.ErrorIs(t, itx.CreateTransaction(ctx, importRow(ownerID, accountID, first, -100)), transaction.ErrDuplicate)
		require.NoError(t, itx.CreateTransaction(ctx, importRow(ownerID, accountID, second, 300)))

		require.NoError(t, itx.AdvanceCursor(ctx, accountID, synced))
		require.NoError(t, itx.Commit())

		acc, err := accounts.GetAccount(ctx, accountID)
		require.NoError(t, err)
		assert.Equal(t, int64(1_200), acc.Balance)
		require.NotNil(t, acc.SyncCursor)
		assert.True(t, synced.Equal(*acc.SyncCursor))
	})

	t.Run("ExistingAndCursorNeverMovesBack", func(t *testing.T) {
		itx, err := txs.BeginImport(ctx, accountID)
		require.NoError(t, err)
		defer itx.Rollback()

		existing, err := itx.ExistingExternalIDs(ctx, []string{first, second, third})
		require.NoError(t, err)
		assert.Len(t, existing, 2)
		assert.Contains(t, existing, first)
		assert.Contains(t, existing, second)

		require.NoError(t, itx.AdvanceCursor(ctx, accountID, synced.Add(-time.Hour)))
		require.NoError(t, itx.Commit())

		acc, err := accounts.GetAccount(ctx, accountID)
		require.NoError(t, err)
		require.NotNil(t, acc.SyncCursor)
		assert.True(t, synced.Equal(*acc.SyncCursor))
	})

	t.Run("RollbackDiscardsRowsAndBalance", func(t *testing.T) {
		itx, err := txs.BeginImport(ctx, accountID)
		require.NoError(t, err)

		require.NoError(t, itx.CreateTransaction(ctx, importRow(ownerID, accountID, third, -500)))
		require.NoError(t, itx.Rollback())

		acc, err := accounts.GetAccount(ctx, accountID)
		require.NoError(t, err)
		assert.Equal(t, int64(1_200), acc.Balance)

		itx, err = txs.BeginImport(ctx, accountID)
		require.NoError(t, err)
		defer itx.Rollback()

		existing, err := itx.ExistingExternalIDs(ctx, []string{third})
		require.NoError(t, err)
		assert.Empty(t, existing)
	})
}
