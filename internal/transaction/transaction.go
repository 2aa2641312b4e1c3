package transaction

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("transaction not found")
	// ErrDuplicate is returned when the external id is already stored.
	ErrDuplicate = errors.New("duplicate external transaction id")
	ErrInvalid   = errors.New("invalid transaction")
)

// Type represents the type of transaction.
type Type string

const (
	TypeIncome   Type = "income"
	TypeExpense  Type = "expense"
	TypeTransfer Type = "transfer"
)

// Transaction is a ledger entry. Amounts are non-negative minor units; the
// direction comes from Type and the account references.
type Transaction struct {
	ID                   uuid.UUID
	OwnerID              uuid.UUID
	Type                 Type
	SourceAccountID      *uuid.UUID // expense, transfer
	DestinationAccountID *uuid.UUID // income, transfer
	SourceAmount         int64
	DestinationAmount    int64
	Date                 time.Time
	Description          string
	CategoryID           *uuid.UUID
	ExternalID           *string // dedup key for imported rows
	CreatedAt            time.Time
	DeletedAt            *time.Time
}

// BalanceDelta returns the signed change the transaction applies to accountID.
func (t *Transaction) BalanceDelta(accountID uuid.UUID) int64 {
	var delta int64

	if t.SourceAccountID != nil && *t.SourceAccountID == accountID {
		delta -= t.SourceAmount
	}

	if t.DestinationAccountID != nil && *t.DestinationAccountID == accountID {
		delta += t.DestinationAmount
	}

	return delta
}

// Validate checks that the account references and amounts match the type.
func (t *Transaction) Validate() error {
	if t.SourceAmount < 0 || t.DestinationAmount < 0 {
		return errors.Join(ErrInvalid, errors.New("amounts must not be negative"))
	}

	switch t.Type {
	case TypeIncome:
		if t.DestinationAccountID == nil || t.SourceAccountID != nil {
			return errors.Join(ErrInvalid, errors.New("income needs only a destination account"))
		}
	case TypeExpense:
		if t.SourceAccountID == nil || t.DestinationAccountID != nil {
			return errors.Join(ErrInvalid, errors.New("expense needs only a source account"))
		}
	case TypeTransfer:
		if t.SourceAccountID == nil || t.DestinationAccountID == nil {
			return errors.Join(ErrInvalid, errors.New("transfer needs both accounts"))
		}

		if *t.SourceAccountID == *t.DestinationAccountID {
			return errors.Join(ErrInvalid, errors.New("transfer accounts must differ"))
		}
	default:
		return errors.Join(ErrInvalid, errors.New("unknown type "+string(t.Type)))
	}

	return nil
}
