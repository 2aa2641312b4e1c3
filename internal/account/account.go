package account

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("account not found")

// Kind is the user-facing classification of an account.
type Kind string

const (
	KindChecking Kind = "checking"
	KindSavings  Kind = "savings"
	KindCard     Kind = "card"
	KindCash     Kind = "cash"
)

// Account is a local ledger account. Balance is kept in minor units and is
// maintained incrementally by the transaction store.
type Account struct {
	ID         uuid.UUID
	OwnerID    uuid.UUID
	Name       string
	Kind       Kind
	Currency   string
	Balance    int64
	ExternalID *string // nil for manually managed accounts
	SyncCursor *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Linked reports whether the account is attached to a bank account.
func (a *Account) Linked() bool {
	return a.ExternalID != nil && *a.ExternalID != ""
}

// FirstSync reports whether the account has never completed a sync.
func (a *Account) FirstSync() bool {
	return a.SyncCursor == nil
}
