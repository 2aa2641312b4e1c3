package transaction

import (
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/ledgersync/internal/transaction"
)

type transactionResponse struct {
	ID                   uuid.UUID        `json:"id"`
	Type                 transaction.Type `json:"type"`
	SourceAccountID      *uuid.UUID       `json:"source_account_id,omitempty"`
	DestinationAccountID *uuid.UUID       `json:"destination_account_id,omitempty"`
	SourceAmount         int64            `json:"source_amount"`
	DestinationAmount    int64            `json:"destination_amount"`
	Description          string           `json:"description"`
	Date                 time.Time        `json:"date"`
	CategoryID           *uuid.UUID       `json:"category_id,omitempty"`
	ExternalID           *string          `json:"external_id,omitempty"`
	CreatedAt            time.Time        `json:"created_at"`
}

func toResponse(tx *transaction.Transaction) transactionResponse {
	return transactionResponse{
		ID:                   tx.ID,
		Type:                 tx.Type,
		SourceAccountID:      tx.SourceAccountID,
		DestinationAccountID: tx.DestinationAccountID,
		SourceAmount:         tx.SourceAmount,
		DestinationAmount:    tx.DestinationAmount,
		Description:          tx.Description,
		Date:                 tx.Date,
		CategoryID:           tx.CategoryID,
		ExternalID:           tx.ExternalID,
		CreatedAt:            tx.CreatedAt,
	}
}

func toResponseList(txs []*transaction.Transaction) []transactionResponse {
	resp := make([]transactionResponse, len(txs))
	for i, tx := range txs {
		resp[i] = toResponse(tx)
	}

	return resp
}
