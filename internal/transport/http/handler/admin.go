package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-market-triggers/internal/application/escrow"
	"github.com/go-market-triggers/internal/domain"
	"github.com/go-market-triggers/internal/pkg/validate"
)

type listingDocuments interface {
	GetDocument(ctx context.Context, listingID string) (domain.Document, error)
}

type indexSyncer interface {
	Sync(ctx context.Context, id string, doc domain.Document) error
}

// AdminHandler holds operator-only maintenance endpoints.
type AdminHandler struct {
	listings listingDocuments
	index    indexSyncer
	escrow   escrow.Service
}

func NewAdminHandler(listings listingDocuments, index indexSyncer, escrowSvc escrow.Service) *AdminHandler {
	return &AdminHandler{listings: listings, index: index, escrow: escrowSvc}
}

// ReindexListing re-reads a listing and mirrors it into the search index,
// removing the index object when the listing no longer exists.
func (h *AdminHandler) ReindexListing(w http.ResponseWriter, r *http.Request) {
	listingID := chi.URLParam(r, "id")
	doc, err := h.listings.GetDocument(r.Context(), listingID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		doc = nil
	case err != nil:
		httpError(w, err)
		return
	}
	if err := h.index.Sync(r.Context(), listingID, doc); err != nil {
		httpError(w, err)
		return
	}
	msg := "reindexed"
	if doc == nil {
		msg = "removed from index"
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: msg})
}

// SettleTransaction moves a trade on an operator's authority, typically to
// refunded or released after a dispute. The transition table still applies.
func (h *AdminHandler) SettleTransaction(w http.ResponseWriter, r *http.Request) {
	var req domain.StatusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		httpError(w, err)
		return
	}
	t, err := h.escrow.Advance(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		httpError(w, err)
		return
	}
	slog.Info("transaction settled by operator", "transaction_id", t.TransactionID, "operator", claimsUser(r), "status", t.Status)
	writeJSON(w, http.StatusOK, t)
}
