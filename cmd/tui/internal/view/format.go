package view

import (
	"context"
	"time"

	"github.com/MrJamesThe3rd/ledgersync/internal/money"
	"github.com/MrJamesThe3rd/ledgersync/internal/transaction"
)

const dbTimeout = 5 * time.Second

// FormatDate formats a time.Time into YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// FormatAmount shows income as positive and expenses as negative.
// Transfers show the amount that left the source account.
func FormatAmount(tx *transaction.Transaction) string {
	switch tx.Type {
	case transaction.TypeIncome:
		return money.FormatSigned(tx.DestinationAmount, "")
	case transaction.TypeExpense:
		return money.FormatSigned(-tx.SourceAmount, "")
	}

	return money.Format(tx.SourceAmount, "")
}

// DbCtx returns a context with a standard timeout for database operations.
func DbCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), dbTimeout)
}
