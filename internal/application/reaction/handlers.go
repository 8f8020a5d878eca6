// Package reaction holds the handlers that run when a watched collection
// changes. Deliveries are at-least-once and unordered, so every handler
// re-reads what it needs and tolerates running twice for one change.
package reaction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-market-triggers/internal/application/locale"
	"github.com/go-market-triggers/internal/domain"
	"github.com/go-market-triggers/internal/metrics"
	"github.com/go-market-triggers/internal/pkg/id"
)

type listingReader interface {
	Get(ctx context.Context, listingID string) (*domain.Listing, error)
}

type conversationReader interface {
	Get(ctx context.Context, conversationID string) (*domain.Conversation, error)
}

type wishlistQuerier interface {
	ListByListing(ctx context.Context, listingID string) ([]domain.WishlistEntry, error)
}

type userReader interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
}

// notificationWriter stores in-app records. PutIfAbsent reports false when a
// record with the same id already exists.
type notificationWriter interface {
	PutIfAbsent(ctx context.Context, n *domain.Notification) (bool, error)
}

type dispatcher interface {
	Dispatch(ctx context.Context, recipientID string, payload domain.NotificationPayload) error
	DispatchAll(ctx context.Context, recipientIDs []string, payload domain.NotificationPayload) int
}

type indexSyncer interface {
	Sync(ctx context.Context, id string, doc domain.Document) error
}

// Stores groups the store reads and writes the handlers need.
type Stores struct {
	Listings      listingReader
	Conversations conversationReader
	Wishlists     wishlistQuerier
	Users         userReader
	Notifications notificationWriter
}

type Handlers struct {
	stores   Stores
	dispatch dispatcher
	index    indexSyncer
	now      func() time.Time
	logger   *slog.Logger
}

func NewHandlers(stores Stores, d dispatcher, index indexSyncer, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		stores:   stores,
		dispatch: d,
		index:    index,
		now:      func() time.Time { return time.Now().UTC() },
		logger:   logger,
	}
}

// OnMessageCreated pushes a chat notification to the participant who did not
// send msg.
func (h *Handlers) OnMessageCreated(ctx context.Context, msg domain.Message) error {
	defer observe("message_created", time.Now())
	log := h.logger.With("handler", "message_created", "conversation_id", msg.ConversationID, "message_id", msg.MessageID)

	conv, err := h.stores.Conversations.Get(ctx, msg.ConversationID)
	if errors.Is(err, domain.ErrNotFound) {
		log.Info("skipped: conversation not found")
		return nil
	}
	if err != nil {
		return fmt.Errorf("read conversation %s: %w", msg.ConversationID, err)
	}
	recipient, ok := conv.OtherParticipant(msg.SenderID)
	if !ok {
		log.Info("skipped: recipient undetermined", "participants", len(conv.Participants))
		return nil
	}

	return h.dispatch.Dispatch(ctx, recipient, domain.ChatPayload{
		ConversationID: msg.ConversationID,
		MessageID:      msg.MessageID,
		SenderID:       msg.SenderID,
		Text:           msg.Text,
	})
}

// OnWishlistCreated records a like for the seller and then pushes it. The
// in-app record is written whatever the seller's push preferences are; the
// push goes through the preference gate. The record id is derived from the
// wishlist entry, so a redelivered event does not add a second record.
func (h *Handlers) OnWishlistCreated(ctx context.Context, entry domain.WishlistEntry) error {
	defer observe("wishlist_created", time.Now())
	log := h.logger.With("handler", "wishlist_created", "wishlist_id", entry.WishlistID, "listing_id", entry.ListingID)

	listing, err := h.stores.Listings.Get(ctx, entry.ListingID)
	if errors.Is(err, domain.ErrNotFound) {
		log.Info("skipped: listing not found")
		return nil
	}
	if err != nil {
		return fmt.Errorf("read listing %s: %w", entry.ListingID, err)
	}
	if listing.SellerID == "" {
		log.Info("skipped: listing has no seller")
		return nil
	}
	if listing.SellerID == entry.UserID {
		log.Info("skipped: self-like")
		return nil
	}

	seller, err := h.stores.Users.Get(ctx, listing.SellerID)
	if errors.Is(err, domain.ErrNotFound) {
		log.Info("skipped: seller profile not found", "seller_id", listing.SellerID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("read seller %s: %w", listing.SellerID, err)
	}

	payload := domain.LikePayload{ListingID: listing.ListingID, ListingTitle: listing.Title, LikerID: entry.UserID}
	text := locale.Resolve(seller.PreferredLanguage(), payload)
	record := &domain.Notification{
		NotificationID: id.Derived("like", entry.WishlistID),
		UserID:         seller.UserID,
		Type:           payload.Kind(),
		Title:          text.Title,
		Body:           text.Body,
		Data:           payload.Data(),
		Read:           false,
		CreatedAt:      h.now(),
	}
	created, err := h.stores.Notifications.PutIfAbsent(ctx, record)
	if err != nil {
		return fmt.Errorf("store like notification: %w", err)
	}
	if !created {
		log.Info("like notification already recorded", "notification_id", record.NotificationID)
	}

	return h.dispatch.Dispatch(ctx, seller.UserID, payload)
}

// OnListingUpdated notifies everyone who wishlisted the listing when its
// price strictly decreased. Each liker is dispatched independently; one
// failed push never fails the invocation.
func (h *Handlers) OnListingUpdated(ctx context.Context, before, after *domain.Listing) error {
	defer observe("listing_updated", time.Now())
	if before == nil || after == nil || after.Price >= before.Price {
		return nil
	}
	log := h.logger.With("handler", "listing_updated", "listing_id", after.ListingID)

	entries, err := h.stores.Wishlists.ListByListing(ctx, after.ListingID)
	if err != nil {
		return fmt.Errorf("query wishlists for %s: %w", after.ListingID, err)
	}
	likers := distinctLikers(entries)
	if len(likers) == 0 {
		log.Debug("no wishlist entries")
		return nil
	}

	failed := h.dispatch.DispatchAll(ctx, likers, domain.PriceDropPayload{
		ListingID:    after.ListingID,
		ListingTitle: after.Title,
		OldPrice:     before.Price,
		NewPrice:     after.Price,
		Currency:     after.Currency,
	})
	log.Info("price drop dispatched", "recipients", len(likers), "failed", failed)
	return nil
}

// OnListingWritten mirrors a listing create, update or delete into the
// search index. after is nil for a delete.
func (h *Handlers) OnListingWritten(ctx context.Context, listingID string, after domain.Document) error {
	defer observe("listing_written", time.Now())
	return h.index.Sync(ctx, listingID, after)
}

func distinctLikers(entries []domain.WishlistEntry) []string {
	seen := make(map[string]struct{}, len(entries))
	likers := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.UserID == "" {
			continue
		}
		if _, dup := seen[e.UserID]; dup {
			continue
		}
		seen[e.UserID] = struct{}{}
		likers = append(likers, e.UserID)
	}
	return likers
}

func observe(handler string, start time.Time) {
	metrics.HandlerLatency.WithLabelValues(handler).Observe(time.Since(start).Seconds())
}
