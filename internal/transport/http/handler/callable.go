package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-market-triggers/internal/application/translation"
	"github.com/go-market-triggers/internal/domain"
	"github.com/go-market-triggers/internal/transport/http/middleware"
)

type translator interface {
	Detect(ctx context.Context, caller *translation.Caller, text string) (*string, error)
	Translate(ctx context.Context, caller *translation.Caller, text, from, to string) (*string, error)
}

type detectArgs struct {
	Text string `json:"text"`
}

type detectResult struct {
	Language *string `json:"language"`
}

type translateArgs struct {
	Text     string `json:"text"`
	FromLang string `json:"fromLang"`
	ToLang   string `json:"toLang"`
}

type translateResult struct {
	Text *string `json:"text"`
}

// CallableHandler serves the translation callables. Identity checks happen
// in the gateway so an anonymous call gets a callable-shaped error.
type CallableHandler struct {
	gw translator
}

func NewCallableHandler(gw translator) *CallableHandler { return &CallableHandler{gw: gw} }

func (h *CallableHandler) DetectLanguage(w http.ResponseWriter, r *http.Request) {
	var req CallableRequest[detectArgs]
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		callableError(w, fmt.Errorf("malformed request body: %w", domain.ErrInvalidArgument))
		return
	}
	lang, err := h.gw.Detect(r.Context(), caller(r), req.Data.Text)
	if err != nil {
		callableError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CallableResponse[detectResult]{Result: detectResult{Language: lang}})
}

func (h *CallableHandler) TranslateText(w http.ResponseWriter, r *http.Request) {
	var req CallableRequest[translateArgs]
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		callableError(w, fmt.Errorf("malformed request body: %w", domain.ErrInvalidArgument))
		return
	}
	text, err := h.gw.Translate(r.Context(), caller(r), req.Data.Text, req.Data.FromLang, req.Data.ToLang)
	if err != nil {
		callableError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CallableResponse[translateResult]{Result: translateResult{Text: text}})
}

func caller(r *http.Request) *translation.Caller {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		return nil
	}
	return &translation.Caller{UserID: claims.UserID}
}
