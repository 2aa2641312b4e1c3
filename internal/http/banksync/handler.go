package banksync

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/ledgersync/internal/banksync"
	"github.com/MrJamesThe3rd/ledgersync/internal/http/auth"
	"github.com/MrJamesThe3rd/ledgersync/internal/money"
)

//go:generate mockgen -source=handler.go -destination=handler_mock.go -package=banksync
type Syncer interface {
	SyncAll(ctx context.Context, ownerID uuid.UUID) (*banksync.Result, error)
}

type CacheInvalidator interface {
	Invalidate(ownerID uuid.UUID)
}

type Handler struct {
	syncer Syncer
	cache  CacheInvalidator
}

func NewHandler(syncer Syncer, cache CacheInvalidator) *Handler {
	return &Handler{syncer: syncer, cache: cache}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.sync)
	r.Delete("/cache", h.invalidateCache)
}

type accountResponse struct {
	AccountID    uuid.UUID       `json:"account_id"`
	Status       banksync.Status `json:"status"`
	Added        int             `json:"added"`
	Skipped      int             `json:"skipped"`
	Net          int64           `json:"net"`
	NetFormatted string          `json:"net_formatted"`
	Truncated    bool            `json:"truncated,omitempty"`
	Error        string          `json:"error,omitempty"`
}

type syncResponse struct {
	Success      bool                       `json:"success"`
	TotalAdded   int                        `json:"total_added"`
	TotalSkipped int                        `json:"total_skipped"`
	Accounts     map[string]accountResponse `json:"accounts,omitempty"`
	Message      string                     `json:"message"`
}

func toResponse(res *banksync.Result) syncResponse {
	resp := syncResponse{
		Success:      res.Success,
		TotalAdded:   res.TotalAdded,
		TotalSkipped: res.TotalSkipped,
		Accounts:     make(map[string]accountResponse, len(res.Accounts)),
		Message:      res.Message,
	}

	for name, a := range res.Accounts {
		ar := accountResponse{
			AccountID:    a.AccountID,
			Status:       a.Status,
			Added:        a.Added,
			Skipped:      a.Skipped,
			Net:          a.Net,
			NetFormatted: money.FormatSigned(a.Net, a.Currency),
			Truncated:    a.Truncated,
		}

		if a.Err != nil {
			ar.Error = a.Err.Error()
		}

		resp.Accounts[name] = ar
	}

	return resp
}

func (h *Handler) sync(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := auth.OwnerID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	res, err := h.syncer.SyncAll(r.Context(), ownerID)
	if errors.Is(err, banksync.ErrNoCredential) {
		writeJSON(w, http.StatusUnprocessableEntity, syncResponse{
			Message: "Connect your bank before syncing.",
		})

		return
	}

	if err != nil {
		slog.Error("sync failed", "owner_id", ownerID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	writeJSON(w, http.StatusOK, toResponse(res))
}

func (h *Handler) invalidateCache(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := auth.OwnerID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	h.cache.Invalidate(ownerID)

	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
