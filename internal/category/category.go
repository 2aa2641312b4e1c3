package category

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeIncome  Type = "income"
	TypeExpense Type = "expense"
)

// Category is owner-scoped. It is the target of both manual and automatic categorization.
type Category struct {
	ID        uuid.UUID
	OwnerID   uuid.UUID
	Name      string
	Type      Type
	Color     string
	Icon      string
	CreatedAt time.Time
}
