package transaction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=transaction
type Repository interface {
	// CreateTransaction inserts the row and applies its balance effect atomically.
	CreateTransaction(ctx context.Context, tx *Transaction) error
	GetTransaction(ctx context.Context, id uuid.UUID) (*Transaction, error)
	ListTransactions(ctx context.Context, filter ListFilter) ([]*Transaction, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, categoryID *uuid.UUID) error
	// DeleteTransaction soft-deletes the row and reverses its balance effect.
	DeleteTransaction(ctx context.Context, id uuid.UUID) error
	LatestCategoryByDescription(ctx context.Context, ownerID uuid.UUID, description, excludeExternalID string) (*uuid.UUID, error)

	BeginImport(ctx context.Context, accountID uuid.UUID) (ImportTx, error)
}

// ImportTx is one account's import unit of work. Nothing is visible to other
// sessions until Commit.
type ImportTx interface {
	ExistingExternalIDs(ctx context.Context, ids []string) (map[string]struct{}, error)
	// CreateTransaction returns ErrDuplicate when the external id already exists.
	// A duplicate does not abort the unit of work.
	CreateTransaction(ctx context.Context, tx *Transaction) error
	AdvanceCursor(ctx context.Context, accountID uuid.UUID, at time.Time) error
	Commit() error
	Rollback() error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type CreateParams struct {
	OwnerID              uuid.UUID
	Type                 Type
	SourceAccountID      *uuid.UUID
	DestinationAccountID *uuid.UUID
	SourceAmount         int64
	DestinationAmount    int64
	Date                 time.Time
	Description          string
	CategoryID           *uuid.UUID
}

type ListFilter struct {
	OwnerID   uuid.UUID
	AccountID *uuid.UUID
	StartDate *time.Time
	EndDate   *time.Time
}

func (s *Service) Create(ctx context.Context, params CreateParams) (*Transaction, error) {
	tx := &Transaction{
		OwnerID:              params.OwnerID,
		Type:                 params.Type,
		SourceAccountID:      params.SourceAccountID,
		DestinationAccountID: params.DestinationAccountID,
		SourceAmount:         params.SourceAmount,
		DestinationAmount:    params.DestinationAmount,
		Date:                 params.Date,
		Description:          strings.TrimSpace(params.Description),
		CategoryID:           params.CategoryID,
	}

	// Income and expense rows carry a single amount on their only side.
	switch tx.Type {
	case TypeIncome:
		tx.SourceAmount = 0
	case TypeExpense:
		tx.DestinationAmount = 0
	}

	if err := tx.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.CreateTransaction(ctx, tx); err != nil {
		return nil, err
	}

	return tx, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Transaction, error) {
	return s.repo.GetTransaction(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Transaction, error) {
	return s.repo.ListTransactions(ctx, filter)
}

func (s *Service) Recategorize(ctx context.Context, id uuid.UUID, categoryID *uuid.UUID) error {
	return s.repo.UpdateCategory(ctx, id, categoryID)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteTransaction(ctx, id)
}

// LatestCategory returns the category of the owner's most recent transaction
// with exactly this description, or nil.
func (s *Service) LatestCategory(ctx context.Context, ownerID uuid.UUID, description, excludeExternalID string) (*uuid.UUID, error) {
	return s.repo.LatestCategoryByDescription(ctx, ownerID, strings.TrimSpace(description), excludeExternalID)
}

// ImportItem is one statement line ready to be written. Amount is signed:
// negative debits the account, positive credits it.
type ImportItem struct {
	ExternalID  string
	Amount      int64
	Date        time.Time
	Description string
	CategoryID  *uuid.UUID
}

type ImportParams struct {
	AccountID uuid.UUID
	OwnerID   uuid.UUID
	FirstSync bool
	// SyncedAt becomes the account's cursor when the import commits.
	SyncedAt time.Time
	Items    []ImportItem
}

type ImportResult struct {
	Added          []*Transaction
	Skipped        int
	Net            int64 // signed balance change of the added rows
	CursorAdvanced bool
}

// ImportStatement writes the items that are not yet in the ledger and advances
// the account's cursor, all inside one unit of work.
func (s *Service) ImportStatement(ctx context.Context, params ImportParams) (*ImportResult, error) {
	// An empty first fetch keeps the cursor unset so the next run looks back again.
	if len(params.Items) == 0 && params.FirstSync {
		return &ImportResult{}, nil
	}

	itx, err := s.repo.BeginImport(ctx, params.AccountID)
	if err != nil {
		return nil, fmt.Errorf("begin import: %w", err)
	}
	defer itx.Rollback()

	existing := map[string]struct{}{}

	if ids := externalIDs(params.Items); len(ids) > 0 {
		existing, err = itx.ExistingExternalIDs(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("find existing: %w", err)
		}
	}

	result := &ImportResult{}
	seen := make(map[string]struct{}, len(params.Items))

	for _, item := range params.Items {
		if item.ExternalID == "" {
			slog.Warn("skipping statement item without id", "account_id", params.AccountID, "date", item.Date)

			result.Skipped++

			continue
		}

		_, stored := existing[item.ExternalID]
		_, repeated := seen[item.ExternalID]

		if stored || repeated {
			result.Skipped++
			continue
		}

		seen[item.ExternalID] = struct{}{}

		tx := item.toTransaction(params.OwnerID, params.AccountID)

		err := itx.CreateTransaction(ctx, tx)
		if errors.Is(err, ErrDuplicate) {
			// Lost the race with a concurrent import of the same item.
			result.Skipped++
			continue
		}

		if err != nil {
			return nil, fmt.Errorf("create transaction %s: %w", item.ExternalID, err)
		}

		result.Added = append(result.Added, tx)
		result.Net += tx.BalanceDelta(params.AccountID)
	}

	if err := itx.AdvanceCursor(ctx, params.AccountID, params.SyncedAt); err != nil {
		return nil, fmt.Errorf("advance cursor: %w", err)
	}

	if err := itx.Commit(); err != nil {
		return nil, fmt.Errorf("commit import: %w", err)
	}

	result.CursorAdvanced = true

	return result, nil
}

func (item ImportItem) toTransaction(ownerID, accountID uuid.UUID) *Transaction {
	externalID := item.ExternalID

	tx := &Transaction{
		OwnerID:     ownerID,
		Date:        item.Date,
		Description: strings.TrimSpace(item.Description),
		CategoryID:  item.CategoryID,
		ExternalID:  &externalID,
	}

	if item.Amount < 0 {
		tx.Type = TypeExpense
		tx.SourceAccountID = &accountID
		tx.SourceAmount = -item.Amount

		return tx
	}

	tx.Type = TypeIncome
	tx.DestinationAccountID = &accountID
	tx.DestinationAmount = item.Amount

	return tx
}

func externalIDs(items []ImportItem) []string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		if item.ExternalID != "" {
			ids = append(ids, item.ExternalID)
		}
	}

	return ids
}
