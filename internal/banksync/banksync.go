package banksync

import (
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNoCredential   = errors.New("no bank access credential stored")
	ErrNotLinked      = errors.New("account is not linked to a bank account")
	ErrSyncInProgress = errors.New("another sync of this account is in progress")
	ErrDeadline       = errors.New("sync batch ran out of time before this account")
)

// Status is the terminal state of one account's sync pass.
type Status string

const (
	StatusUpdated     Status = "updated"
	StatusRateLimited Status = "rate_limited"
	StatusFailed      Status = "failed"
)

type AccountResult struct {
	AccountID uuid.UUID
	Name      string
	Currency  string
	Status    Status
	Added     int
	Skipped   int
	// Net is the signed balance change of the added transactions, in minor units.
	Net       int64
	Truncated bool
	Err       error
}

type Result struct {
	Success      bool
	TotalAdded   int
	TotalSkipped int
	Accounts     map[string]AccountResult
	Message      string
}

func (r *Result) count(status Status) int {
	n := 0

	for _, a := range r.Accounts {
		if a.Status == status {
			n++
		}
	}

	return n
}
