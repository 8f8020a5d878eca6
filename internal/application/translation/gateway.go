// Package translation fronts the external translation provider for
// authenticated app users.
package translation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/go-market-triggers/internal/config"
	"github.com/go-market-triggers/internal/domain"
)

// minDetectLength is the shortest trimmed input sent for detection.
const minDetectLength = 3

// Credentials authenticate calls to the provider.
type Credentials struct {
	Key    string
	Region string
}

// Provider is the external translation service.
type Provider interface {
	// Detect returns the provider's top language code, or "" if it has none.
	Detect(ctx context.Context, creds Credentials, text string) (string, error)
	// Translate returns the first translation, or "" if the provider returned none.
	Translate(ctx context.Context, creds Credentials, text, from, to string) (string, error)
}

// Caller is the authenticated identity behind a request. A nil *Caller is
// an anonymous request.
type Caller struct {
	UserID string
}

// Gateway validates input and identity, then proxies to the provider.
type Gateway struct {
	provider Provider
	secrets  config.SecretSource
	logger   *slog.Logger
}

func NewGateway(provider Provider, secrets config.SecretSource, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{provider: provider, secrets: secrets, logger: logger}
}

// Detect returns the detected language when it is one the app supports and
// nil otherwise. Inputs shorter than three characters are not sent.
func (g *Gateway) Detect(ctx context.Context, caller *Caller, text string) (*string, error) {
	if err := authenticate(caller); err != nil {
		return nil, err
	}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, fmt.Errorf("text is required: %w", domain.ErrInvalidArgument)
	}
	if utf8.RuneCountInString(trimmed) < minDetectLength {
		return nil, nil
	}
	creds, err := g.credentials(ctx)
	if err != nil {
		return nil, err
	}

	code, err := g.provider.Detect(ctx, creds, trimmed)
	if err != nil {
		g.logger.Warn("language detection failed", "user_id", caller.UserID, "err", err)
		return nil, fmt.Errorf("detect language: %w", err)
	}
	lang, ok := domain.ParseLanguage(code)
	if !ok {
		g.logger.Debug("detected language not supported", "code", code)
		return nil, nil
	}
	out := string(lang)
	return &out, nil
}

// Translate translates text from one language into a supported language.
// Identical languages return the input untouched without a provider call.
func (g *Gateway) Translate(ctx context.Context, caller *Caller, text, from, to string) (*string, error) {
	if err := authenticate(caller); err != nil {
		return nil, err
	}
	from, to = strings.TrimSpace(from), strings.TrimSpace(to)
	switch {
	case strings.TrimSpace(text) == "":
		return nil, fmt.Errorf("text is required: %w", domain.ErrInvalidArgument)
	case from == "":
		return nil, fmt.Errorf("fromLang is required: %w", domain.ErrInvalidArgument)
	case to == "":
		return nil, fmt.Errorf("toLang is required: %w", domain.ErrInvalidArgument)
	}
	if _, ok := domain.ParseLanguage(to); !ok {
		return nil, fmt.Errorf("toLang %q is not supported: %w", to, domain.ErrInvalidArgument)
	}
	if from == to {
		return &text, nil
	}
	creds, err := g.credentials(ctx)
	if err != nil {
		return nil, err
	}

	translated, err := g.provider.Translate(ctx, creds, text, from, to)
	if err != nil {
		g.logger.Warn("translation failed", "user_id", caller.UserID, "from", from, "to", to, "err", err)
		return nil, fmt.Errorf("translate %s->%s: %w", from, to, err)
	}
	if translated == "" {
		return nil, nil
	}
	return &translated, nil
}

func authenticate(caller *Caller) error {
	if caller == nil || caller.UserID == "" {
		return fmt.Errorf("sign-in required: %w", domain.ErrUnauthenticated)
	}
	return nil
}

func (g *Gateway) credentials(ctx context.Context) (Credentials, error) {
	s, err := g.secrets.Secrets(ctx)
	if err != nil {
		return Credentials{}, fmt.Errorf("translator credentials: %w", err)
	}
	if s.TranslatorKey == "" || s.TranslatorRegion == "" {
		return Credentials{}, fmt.Errorf("translator credentials are not configured: %w", domain.ErrFailedPrecondition)
	}
	return Credentials{Key: s.TranslatorKey, Region: s.TranslatorRegion}, nil
}
