package banksync_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/ledgersync/internal/account"
	"github.com/MrJamesThe3rd/ledgersync/internal/credential"
	"github.com/MrJamesThe3rd/ledgersync/internal/statement"
	"github.com/MrJamesThe3rd/ledgersync/internal/transaction"
)

var errNotImplemented = errors.New("not implemented")

// memLedger is an in-memory transaction.Repository. Imports are buffered and
// applied on Commit, like the database unit of work.
type memLedger struct {
	mu         sync.Mutex
	accounts   []*account.Account
	byExternal map[string]*transaction.Transaction
	balances   map[uuid.UUID]int64
	cursors    map[uuid.UUID]time.Time
	failImport map[uuid.UUID]error
}

func newMemLedger(accounts ...*account.Account) *memLedger {
	l := &memLedger{
		accounts:   accounts,
		byExternal: map[string]*transaction.Transaction{},
		balances:   map[uuid.UUID]int64{},
		cursors:    map[uuid.UUID]time.Time{},
		failImport: map[uuid.UUID]error{},
	}

	for _, a := range accounts {
		l.balances[a.ID] = a.Balance
		if a.SyncCursor != nil {
			l.cursors[a.ID] = *a.SyncCursor
		}
	}

	return l
}

func (l *memLedger) ListLinked(_ context.Context, ownerID uuid.UUID) ([]*account.Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []*account.Account

	for _, a := range l.accounts {
		if a.OwnerID != ownerID || !a.Linked() {
			continue
		}

		cp := *a
		cp.Balance = l.balances[a.ID]

		if c, ok := l.cursors[a.ID]; ok {
			cp.SyncCursor = &c
		}

		out = append(out, &cp)
	}

	return out, nil
}

func (l *memLedger) balance(id uuid.UUID) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.balances[id]
}

func (l *memLedger) cursor(id uuid.UUID) (time.Time, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.cursors[id]

	return c, ok
}

func (l *memLedger) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.byExternal)
}

func (l *memLedger) CreateTransaction(context.Context, *transaction.Transaction) error {
	return errNotImplemented
}

func (l *memLedger) GetTransaction(context.Context, uuid.UUID) (*transaction.Transaction, error) {
	return nil, errNotImplemented
}

func (l *memLedger) ListTransactions(context.Context, transaction.ListFilter) ([]*transaction.Transaction, error) {
	return nil, errNotImplemented
}

func (l *memLedger) UpdateCategory(context.Context, uuid.UUID, *uuid.UUID) error {
	return errNotImplemented
}

func (l *memLedger) DeleteTransaction(context.Context, uuid.UUID) error {
	return errNotImplemented
}

func (l *memLedger) LatestCategoryByDescription(context.Context, uuid.UUID, string, string) (*uuid.UUID, error) {
	return nil, nil
}

func (l *memLedger) BeginImport(_ context.Context, accountID uuid.UUID) (transaction.ImportTx, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.failImport[accountID]; err != nil {
		return nil, err
	}

	return &memImport{ledger: l, accountID: accountID}, nil
}

type memImport struct {
	ledger    *memLedger
	accountID uuid.UUID
	pending   []*transaction.Transaction
	cursor    *time.Time
	done      bool
}

func (m *memImport) ExistingExternalIDs(_ context.Context, ids []string) (map[string]struct{}, error) {
	m.ledger.mu.Lock()
	defer m.ledger.mu.Unlock()

	out := map[string]struct{}{}

	for _, id := range ids {
		if _, ok := m.ledger.byExternal[id]; ok {
			out[id] = struct{}{}
		}
	}

	return out, nil
}

func (m *memImport) CreateTransaction(_ context.Context, tx *transaction.Transaction) error {
	m.ledger.mu.Lock()
	defer m.ledger.mu.Unlock()

	if _, ok := m.ledger.byExternal[*tx.ExternalID]; ok {
		return transaction.ErrDuplicate
	}

	tx.ID = uuid.New()
	m.pending = append(m.pending, tx)

	return nil
}

func (m *memImport) AdvanceCursor(_ context.Context, _ uuid.UUID, at time.Time) error {
	m.cursor = &at
	return nil
}

func (m *memImport) Commit() error {
	m.ledger.mu.Lock()
	defer m.ledger.mu.Unlock()

	for _, tx := range m.pending {
		m.ledger.byExternal[*tx.ExternalID] = tx
		m.ledger.balances[m.accountID] += tx.BalanceDelta(m.accountID)
	}

	if m.cursor != nil {
		if prev, ok := m.ledger.cursors[m.accountID]; !ok || m.cursor.After(prev) {
			m.ledger.cursors[m.accountID] = *m.cursor
		}
	}

	m.done = true

	return nil
}

func (m *memImport) Rollback() error {
	if m.done {
		return nil
	}

	m.pending = nil

	return nil
}

type staticCredentials struct {
	token string
	err   error
}

func (c staticCredentials) GetAccessToken(context.Context, uuid.UUID) (string, error) {
	if c.err != nil {
		return "", c.err
	}

	if c.token == "" {
		return "", credential.ErrNotFound
	}

	return c.token, nil
}

type resolverFunc func(ctx context.Context, ownerID uuid.UUID, description string, mcc int, externalID string) (*uuid.UUID, error)

func (f resolverFunc) Resolve(ctx context.Context, ownerID uuid.UUID, description string, mcc int, externalID string) (*uuid.UUID, error) {
	return f(ctx, ownerID, description, mcc, externalID)
}

func noCategory() resolverFunc {
	return func(context.Context, uuid.UUID, string, int, string) (*uuid.UUID, error) { return nil, nil }
}

type memLocker struct {
	mu   sync.Mutex
	held map[uuid.UUID]bool
}

func newMemLocker() *memLocker {
	return &memLocker{held: map[uuid.UUID]bool{}}
}

func (l *memLocker) TryLock(_ context.Context, id uuid.UUID) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.held[id] {
		return nil, false, nil
	}

	l.held[id] = true

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, id)
	}, true, nil
}

// fakeBank serves the statement endpoint. Each external account either has a
// list of items or a fixed error status.
type fakeBank struct {
	mu       sync.Mutex
	items    map[string][]statement.Item
	statuses map[string]int
	calls    map[string]int
	froms    map[string]time.Time
	spans    map[string][2]time.Time
	latency  time.Duration
}

func newFakeBank() *fakeBank {
	return &fakeBank{
		items:    map[string][]statement.Item{},
		statuses: map[string]int{},
		calls:    map[string]int{},
		froms:    map[string]time.Time{},
		spans:    map[string][2]time.Time{},
	}
}

func (b *fakeBank) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// /personal/statement/{account}/{from}/{to}
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/personal/statement/"), "/")
	if len(parts) != 3 || r.Header.Get("X-Token") == "" {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	acc := parts[0]
	from, _ := strconv.ParseInt(parts[1], 10, 64)
	started := time.Now()

	b.mu.Lock()
	b.calls[acc]++
	b.froms[acc] = time.Unix(from, 0).UTC()
	status, hasStatus := b.statuses[acc]
	items := slices.Clone(b.items[acc])
	latency := b.latency
	b.mu.Unlock()

	time.Sleep(latency)

	b.mu.Lock()
	b.spans[acc] = [2]time.Time{started, time.Now()}
	b.mu.Unlock()

	if hasStatus {
		http.Error(w, `{"errorDescription":"nope"}`, status)
		return
	}

	// Newest first.
	slices.SortFunc(items, func(a, b statement.Item) int { return int(b.Time - a.Time) })

	_ = json.NewEncoder(w).Encode(items)
}

func (b *fakeBank) setItems(acc string, items ...statement.Item) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.items[acc] = items
}

func (b *fakeBank) setStatus(acc string, status int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.statuses[acc] = status
}

func (b *fakeBank) from(acc string) time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.froms[acc]
}

func (b *fakeBank) setLatency(d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.latency = d
}

// span returns when the request for acc arrived and when its handler finished.
func (b *fakeBank) span(acc string) (start, end time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := b.spans[acc]

	return s[0], s[1]
}

func (b *fakeBank) callCount(acc string) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.calls[acc]
}

func (b *fakeBank) client(t *testing.T, now time.Time) *statement.Client {
	t.Helper()

	ts := httptest.NewServer(b)
	t.Cleanup(ts.Close)

	return statement.NewClient(ts.URL, 5*time.Second, statement.WithClock(func() time.Time { return now }))
}
