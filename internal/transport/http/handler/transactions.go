package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-market-triggers/internal/application/escrow"
	"github.com/go-market-triggers/internal/domain"
	"github.com/go-market-triggers/internal/pkg/validate"
)

type verifyResult struct {
	Valid bool `json:"valid"`
}

// TransactionHandler exposes escrow trades to their participants.
type TransactionHandler struct {
	svc escrow.Service
}

func NewTransactionHandler(svc escrow.Service) *TransactionHandler {
	return &TransactionHandler{svc: svc}
}

// Create opens a trade with the caller as buyer.
func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req domain.CreateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.BuyerID = userID
	t, err := h.svc.Create(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	txs, err := h.svc.ListForUser(r.Context(), userID)
	if err != nil {
		httpError(w, err)
		return
	}
	if txs == nil {
		txs = []domain.Transaction{}
	}
	writeJSON(w, http.StatusOK, TransactionsEnvelope[domain.Transaction]{Data: txs})
}

func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	t, ok := h.participant(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// Hold records the buyer's payment into escrow.
func (h *TransactionHandler) Hold(w http.ResponseWriter, r *http.Request) {
	t, ok := h.participant(w, r)
	if !ok {
		return
	}
	if claimsUser(r) != t.BuyerID {
		writeError(w, http.StatusForbidden, "only the buyer can pay")
		return
	}
	held, err := h.svc.HoldPayment(r.Context(), t.TransactionID)
	if err != nil {
		httpError(w, err)
		return
	}
	// The safety code is shown to the buyer once, at payment time.
	writeJSON(w, http.StatusOK, struct {
		*domain.Transaction
		SafetyCode string `json:"safety_code"`
	}{held, held.SafetyCode})
}

// Advance requests the next lifecycle step on behalf of the party allowed to take it.
func (h *TransactionHandler) Advance(w http.ResponseWriter, r *http.Request) {
	t, ok := h.participant(w, r)
	if !ok {
		return
	}
	var req domain.StatusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		httpError(w, err)
		return
	}
	if !escrow.MayRequest(t, claimsUser(r), req.Status) {
		writeError(w, http.StatusForbidden, "not permitted to move this trade to "+string(req.Status))
		return
	}
	next, err := h.svc.Advance(r.Context(), t.TransactionID, req.Status)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, next)
}

func (h *TransactionHandler) Dispute(w http.ResponseWriter, r *http.Request) {
	t, ok := h.participant(w, r)
	if !ok {
		return
	}
	var req domain.DisputeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		httpError(w, err)
		return
	}
	disputed, err := h.svc.OpenDispute(r.Context(), t.TransactionID, claimsUser(r), req.Reason)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, disputed)
}

// VerifyCode checks the code the buyer shows the seller at handoff.
func (h *TransactionHandler) VerifyCode(w http.ResponseWriter, r *http.Request) {
	t, ok := h.participant(w, r)
	if !ok {
		return
	}
	if claimsUser(r) != t.SellerID {
		writeError(w, http.StatusForbidden, "only the seller can verify the code")
		return
	}
	var req domain.VerifyCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		httpError(w, err)
		return
	}
	valid, err := h.svc.VerifySafetyCode(r.Context(), t.TransactionID, req.Code)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, verifyResult{Valid: valid})
}

// participant loads the path transaction and checks the caller is on it.
func (h *TransactionHandler) participant(w http.ResponseWriter, r *http.Request) (*domain.Transaction, bool) {
	userID, ok := requireUser(w, r)
	if !ok {
		return nil, false
	}
	t, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return nil, false
	}
	if !t.IsParticipant(userID) {
		writeError(w, http.StatusForbidden, "not a participant")
		return nil, false
	}
	return t, true
}
