package transaction

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/ledgersync/internal/account"
	"github.com/MrJamesThe3rd/ledgersync/internal/http/auth"
	"github.com/MrJamesThe3rd/ledgersync/internal/transaction"
)

//go:generate mockgen -source=handler.go -destination=handler_mock.go -package=transaction
type AccountGetter interface {
	GetAccount(ctx context.Context, id uuid.UUID) (*account.Account, error)
}

type Handler struct {
	svc      *transaction.Service
	accounts AccountGetter
}

func NewHandler(svc *transaction.Service, accounts AccountGetter) *Handler {
	return &Handler{svc: svc, accounts: accounts}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Delete("/{id}", h.delete)
	r.Patch("/{id}/category", h.updateCategory)
}

type createTransactionRequest struct {
	Type                 transaction.Type `json:"type"`
	SourceAccountID      *uuid.UUID       `json:"source_account_id,omitempty"`
	DestinationAccountID *uuid.UUID       `json:"destination_account_id,omitempty"`
	SourceAmount         int64            `json:"source_amount"`
	DestinationAmount    int64            `json:"destination_amount"`
	Description          string           `json:"description"`
	Date                 time.Time        `json:"date"`
	CategoryID           *uuid.UUID       `json:"category_id,omitempty"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := auth.OwnerID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	tx, err := h.svc.Create(r.Context(), transaction.CreateParams{
		OwnerID:              ownerID,
		Type:                 req.Type,
		SourceAccountID:      req.SourceAccountID,
		DestinationAccountID: req.DestinationAccountID,
		SourceAmount:         req.SourceAmount,
		DestinationAmount:    req.DestinationAmount,
		Date:                 req.Date,
		Description:          req.Description,
		CategoryID:           req.CategoryID,
	})
	if err != nil {
		if errors.Is(err, transaction.ErrInvalid) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		slog.Error("failed to create transaction", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)

	if err := json.NewEncoder(w).Encode(toResponse(tx)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := auth.OwnerID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	filter := transaction.ListFilter{OwnerID: ownerID}

	if s := r.URL.Query().Get("account_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			http.Error(w, "invalid account_id", http.StatusBadRequest)
			return
		}

		acc, err := h.accounts.GetAccount(r.Context(), id)
		if errors.Is(err, account.ErrNotFound) || (err == nil && acc.OwnerID != ownerID) {
			http.Error(w, "account not found", http.StatusNotFound)
			return
		}

		if err != nil {
			slog.Error("failed to get account", "id", id, "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)

			return
		}

		filter.AccountID = &acc.ID
	}

	if s := r.URL.Query().Get("start_date"); s != "" {
		if t, err := time.Parse(time.DateOnly, s); err == nil {
			filter.StartDate = new(t)
		}
	}

	if s := r.URL.Query().Get("end_date"); s != "" {
		if t, err := time.Parse(time.DateOnly, s); err == nil {
			filter.EndDate = new(t)
		}
	}

	txs, err := h.svc.List(r.Context(), filter)
	if err != nil {
		slog.Error("failed to list transactions", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toResponseList(txs)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// owned loads the transaction named in the path and checks it belongs to the caller.
// It writes the error response itself and returns nil in that case.
func (h *Handler) owned(w http.ResponseWriter, r *http.Request) *transaction.Transaction {
	ownerID, ok := auth.OwnerID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return nil
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return nil
	}

	tx, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, transaction.ErrNotFound) {
			http.Error(w, "transaction not found", http.StatusNotFound)
			return nil
		}

		http.Error(w, "internal error", http.StatusInternalServerError)

		return nil
	}

	if tx.OwnerID != ownerID {
		http.Error(w, "transaction not found", http.StatusNotFound)
		return nil
	}

	return tx
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	tx := h.owned(w, r)
	if tx == nil {
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toResponse(tx)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	tx := h.owned(w, r)
	if tx == nil {
		return
	}

	if err := h.svc.Delete(r.Context(), tx.ID); err != nil {
		if errors.Is(err, transaction.ErrNotFound) {
			http.Error(w, "transaction not found", http.StatusNotFound)
			return
		}

		slog.Error("failed to delete transaction", "id", tx.ID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type updateCategoryRequest struct {
	CategoryID *uuid.UUID `json:"category_id"`
}

func (h *Handler) updateCategory(w http.ResponseWriter, r *http.Request) {
	var req updateCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	tx := h.owned(w, r)
	if tx == nil {
		return
	}

	if err := h.svc.Recategorize(r.Context(), tx.ID, req.CategoryID); err != nil {
		slog.Error("failed to update category", "id", tx.ID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}
