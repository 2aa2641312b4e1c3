package banksync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/MrJamesThe3rd/ledgersync/internal/account"
	"github.com/MrJamesThe3rd/ledgersync/internal/credential"
	"github.com/MrJamesThe3rd/ledgersync/internal/statement"
	"github.com/MrJamesThe3rd/ledgersync/internal/transaction"
)

type AccountLister interface {
	ListLinked(ctx context.Context, ownerID uuid.UUID) ([]*account.Account, error)
}

type CredentialStore interface {
	GetAccessToken(ctx context.Context, ownerID uuid.UUID) (string, error)
}

type StatementSource interface {
	Fetch(ctx context.Context, token, accountID string, from time.Time) (*statement.Statement, error)
}

type CategoryResolver interface {
	Resolve(ctx context.Context, ownerID uuid.UUID, description string, mcc int, externalID string) (*uuid.UUID, error)
}

type LedgerWriter interface {
	ImportStatement(ctx context.Context, params transaction.ImportParams) (*transaction.ImportResult, error)
}

type AccountLocker interface {
	TryLock(ctx context.Context, accountID uuid.UUID) (unlock func(), ok bool, err error)
}

type Options struct {
	// AccountDelay spaces consecutive accounts of one batch.
	AccountDelay time.Duration
	// BatchTimeout bounds a whole SyncAll call. Zero means no bound.
	BatchTimeout time.Duration
	// InitialLookback is how far back the first sync of an account reaches.
	InitialLookback time.Duration
	Now             func() time.Time
}

type Service struct {
	accounts    AccountLister
	credentials CredentialStore
	source      StatementSource
	resolver    CategoryResolver
	ledger      LedgerWriter
	locker      AccountLocker
	opts        Options
}

func NewService(
	accounts AccountLister,
	credentials CredentialStore,
	source StatementSource,
	resolver CategoryResolver,
	ledger LedgerWriter,
	locker AccountLocker,
	opts Options,
) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}

	if opts.InitialLookback <= 0 {
		opts.InitialLookback = 30 * 24 * time.Hour
	}

	return &Service{
		accounts:    accounts,
		credentials: credentials,
		source:      source,
		resolver:    resolver,
		ledger:      ledger,
		locker:      locker,
		opts:        opts,
	}
}

// SyncAll syncs every linked account of the owner, one after another. Only a
// missing credential or a failed account lookup is returned as an error; every
// per-account outcome is recorded in the result instead.
func (s *Service) SyncAll(ctx context.Context, ownerID uuid.UUID) (*Result, error) {
	token, err := s.credentials.GetAccessToken(ctx, ownerID)
	if errors.Is(err, credential.ErrNotFound) || (err == nil && token == "") {
		return nil, ErrNoCredential
	}

	if err != nil {
		return nil, fmt.Errorf("loading credential: %w", err)
	}

	accounts, err := s.accounts.ListLinked(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing linked accounts: %w", err)
	}

	result := &Result{Success: true, Accounts: make(map[string]AccountResult, len(accounts))}

	if len(accounts) == 0 {
		result.Message = "No linked accounts to sync."
		return result, nil
	}

	if s.opts.BatchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.BatchTimeout)

		defer cancel()
	}

	var gap *rate.Limiter

	for _, acc := range accounts {
		var res AccountResult

		if err := pause(ctx, gap); err != nil {
			slog.Warn("sync batch deadline reached", "owner_id", ownerID, "account_id", acc.ID, "error", err)
			res = failed(newResult(acc), ErrDeadline)
		} else {
			res = s.SyncAccount(ctx, acc, token)
		}

		result.record(acc, res)

		gap = s.nextGap()
	}

	result.Message = summarize(result, len(accounts))

	return result, nil
}

// nextGap starts the inter-account delay from the moment the previous account
// finished. A limiter with its only token spent makes Wait block for one full
// interval.
func (s *Service) nextGap() *rate.Limiter {
	if s.opts.AccountDelay <= 0 {
		return nil
	}

	l := rate.NewLimiter(rate.Every(s.opts.AccountDelay), 1)
	l.Allow()

	return l
}

func pause(ctx context.Context, gap *rate.Limiter) error {
	if gap == nil {
		return ctx.Err()
	}

	return gap.Wait(ctx)
}

func (r *Result) record(acc *account.Account, res AccountResult) {
	key := acc.Name
	if _, taken := r.Accounts[key]; taken || key == "" {
		key = fmt.Sprintf("%s (%s)", acc.Name, acc.ID.String()[:8])
	}

	r.Accounts[key] = res
	r.TotalAdded += res.Added
	r.TotalSkipped += res.Skipped
}

func summarize(r *Result, total int) string {
	var b strings.Builder

	updated := r.count(StatusUpdated)
	fmt.Fprintf(&b, "Synced %d of %d accounts: %d added, %d skipped.", updated, total, r.TotalAdded, r.TotalSkipped)

	if n := r.count(StatusRateLimited); n > 0 {
		fmt.Fprintf(&b, " %d rate limited by the bank, try again in a minute.", n)
	}

	if n := r.count(StatusFailed); n > 0 {
		fmt.Fprintf(&b, " %d failed.", n)
	}

	return b.String()
}

// SyncAccount runs one fetch-and-write pass for one account. The cursor only
// moves when the pass ends updated.
func (s *Service) SyncAccount(ctx context.Context, acc *account.Account, token string) AccountResult {
	res := newResult(acc)

	if !acc.Linked() {
		return failed(res, ErrNotLinked)
	}

	if token == "" {
		return failed(res, ErrNoCredential)
	}

	unlock, ok, err := s.locker.TryLock(ctx, acc.ID)
	if err != nil {
		return failed(res, fmt.Errorf("acquiring sync lock: %w", err))
	}

	if !ok {
		return failed(res, ErrSyncInProgress)
	}
	defer unlock()

	from := s.opts.Now().Add(-s.opts.InitialLookback)
	if acc.SyncCursor != nil {
		from = *acc.SyncCursor
	}

	stmt, err := s.source.Fetch(ctx, token, *acc.ExternalID, from)
	if errors.Is(err, statement.ErrRateLimited) {
		slog.Warn("statement source rate limited", "account_id", acc.ID)

		res.Status = StatusRateLimited
		res.Err = err

		return res
	}

	if err != nil {
		return failed(res, fmt.Errorf("fetching statement: %w", err))
	}

	if stmt.Truncated {
		slog.Warn("statement page full, older items may be missing",
			"account_id", acc.ID, "from", stmt.From, "to", stmt.To, "items", len(stmt.Items))
	}

	items := make([]transaction.ImportItem, 0, len(stmt.Items))

	for _, it := range stmt.Items {
		categoryID, err := s.resolver.Resolve(ctx, acc.OwnerID, it.Description, it.MCC, it.ID)
		if err != nil {
			slog.Warn("category resolution failed", "account_id", acc.ID, "external_id", it.ID, "error", err)

			categoryID = nil
		}

		items = append(items, transaction.ImportItem{
			ExternalID:  it.ID,
			Amount:      it.Amount,
			Date:        it.Date(),
			Description: it.Description,
			CategoryID:  categoryID,
		})
	}

	out, err := s.ledger.ImportStatement(ctx, transaction.ImportParams{
		AccountID: acc.ID,
		OwnerID:   acc.OwnerID,
		FirstSync: acc.FirstSync(),
		SyncedAt:  stmt.To,
		Items:     items,
	})
	if err != nil {
		return failed(res, fmt.Errorf("writing statement: %w", err))
	}

	res.Status = StatusUpdated
	res.Added = len(out.Added)
	res.Skipped = out.Skipped
	res.Net = out.Net
	res.Truncated = stmt.Truncated

	slog.Info("account synced",
		"account_id", acc.ID, "added", res.Added, "skipped", res.Skipped, "cursor_advanced", out.CursorAdvanced)

	return res
}

func newResult(acc *account.Account) AccountResult {
	return AccountResult{AccountID: acc.ID, Name: acc.Name, Currency: acc.Currency}
}

func failed(res AccountResult, err error) AccountResult {
	slog.Error("account sync failed", "account_id", res.AccountID, "error", err)

	res.Status = StatusFailed
	res.Err = err

	return res
}
