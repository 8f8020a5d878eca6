package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-market-triggers/internal/application/locale"
	"github.com/go-market-triggers/internal/application/preference"
	"github.com/go-market-triggers/internal/domain"
	"github.com/go-market-triggers/internal/metrics"
	"golang.org/x/sync/errgroup"
)

// PushSender delivers one message to one device token.
type PushSender interface {
	Send(ctx context.Context, token string, msg domain.PushMessage) error
}

type userReader interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
}

// Dispatcher reads the recipient profile, applies the preference gate,
// localizes and hands the message to the push provider.
type Dispatcher struct {
	users  userReader
	push   PushSender
	limit  int
	logger *slog.Logger
}

// NewDispatcher builds a Dispatcher. fanOutLimit bounds concurrent sends in
// DispatchAll; values below 1 mean unbounded.
func NewDispatcher(users userReader, push PushSender, fanOutLimit int, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{users: users, push: push, limit: fanOutLimit, logger: logger}
}

// Dispatch sends payload to recipientID. A missing profile, a missing device
// token or a blocking preference is a logged no-op, not an error.
func (d *Dispatcher) Dispatch(ctx context.Context, recipientID string, payload domain.NotificationPayload) error {
	kind := string(payload.Kind())
	log := d.logger.With("recipient", recipientID, "kind", kind)

	u, err := d.users.Get(ctx, recipientID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			log.Info("push skipped: no recipient profile")
			metrics.Dispatches.WithLabelValues(kind, metrics.OutcomeSkipped).Inc()
			return nil
		}
		metrics.Dispatches.WithLabelValues(kind, metrics.OutcomeFailed).Inc()
		return fmt.Errorf("read recipient %s: %w", recipientID, err)
	}
	if !u.HasPushToken() {
		log.Info("push skipped: recipient has no device token")
		metrics.Dispatches.WithLabelValues(kind, metrics.OutcomeSkipped).Inc()
		return nil
	}
	if !preference.Permits(u.NotificationSettings, payload.Kind()) {
		log.Info("push skipped: blocked by notification settings")
		metrics.Dispatches.WithLabelValues(kind, metrics.OutcomeBlocked).Inc()
		return nil
	}

	text := locale.Resolve(u.PreferredLanguage(), payload)
	msg := domain.PushMessage{Title: text.Title, Body: text.Body, Data: payload.Data()}
	if err := d.push.Send(ctx, *u.PushToken, msg); err != nil {
		metrics.Dispatches.WithLabelValues(kind, metrics.OutcomeFailed).Inc()
		return fmt.Errorf("push to %s: %w", recipientID, err)
	}
	metrics.Dispatches.WithLabelValues(kind, metrics.OutcomeSent).Inc()
	log.Info("push sent")
	return nil
}

// DispatchAll sends payload to every recipient concurrently and waits for
// all of them. A failure for one recipient is logged and never affects the
// others. It returns the number of failed recipients.
func (d *Dispatcher) DispatchAll(ctx context.Context, recipientIDs []string, payload domain.NotificationPayload) int {
	var g errgroup.Group
	if d.limit > 0 {
		g.SetLimit(d.limit)
	}
	failures := make([]bool, len(recipientIDs))
	for i, id := range recipientIDs {
		g.Go(func() error {
			if err := d.Dispatch(ctx, id, payload); err != nil {
				d.logger.Warn("push failed", "recipient", id, "kind", payload.Kind(), "err", err)
				failures[i] = true
			}
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, f := range failures {
		if f {
			failed++
		}
	}
	return failed
}
