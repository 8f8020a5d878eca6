package stream

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-market-triggers/internal/domain"
	"github.com/go-market-triggers/internal/infrastructure/dynamo"
)

// Reactions is the set of change handlers the routes call.
type Reactions interface {
	OnMessageCreated(ctx context.Context, msg domain.Message) error
	OnWishlistCreated(ctx context.Context, entry domain.WishlistEntry) error
	OnListingUpdated(ctx context.Context, before, after *domain.Listing) error
	OnListingWritten(ctx context.Context, listingID string, after domain.Document) error
}

// MessagesHandler fires the chat notification for newly inserted messages.
func MessagesHandler(r Reactions) Handler {
	return func(ctx context.Context, rec Record) error {
		if rec.Event != EventInsert {
			return nil
		}
		var msg domain.Message
		if err := decode(rec.NewImage, &msg); err != nil {
			return err
		}
		// Path parameters win over whatever the image carries.
		if id := rec.Key("conversation_id"); id != "" {
			msg.ConversationID = id
		}
		if id := rec.Key("message_id"); id != "" {
			msg.MessageID = id
		}
		return r.OnMessageCreated(ctx, msg)
	}
}

// WishlistsHandler fires the like notification for new wishlist entries.
func WishlistsHandler(r Reactions) Handler {
	return func(ctx context.Context, rec Record) error {
		if rec.Event != EventInsert {
			return nil
		}
		var entry domain.WishlistEntry
		if err := decode(rec.NewImage, &entry); err != nil {
			return err
		}
		if id := rec.Key("wishlist_id"); id != "" {
			entry.WishlistID = id
		}
		return r.OnWishlistCreated(ctx, entry)
	}
}

// ListingsHandler keeps the search index in step with every listing write
// and, for updates, runs the price-drop reaction. Both run even if one fails.
func ListingsHandler(r Reactions) Handler {
	return func(ctx context.Context, rec Record) error {
		listingID := rec.Key("listing_id")
		if listingID == "" {
			return fmt.Errorf("listing record %s has no listing_id key", rec.SequenceNumber)
		}

		var after domain.Document
		if rec.Event != EventRemove {
			after = dynamo.DecodeDocument(rec.NewImage)
		}
		errs := []error{r.OnListingWritten(ctx, listingID, after)}

		if rec.Event == EventModify && rec.OldImage != nil && rec.NewImage != nil {
			var before, current domain.Listing
			if err := decode(rec.OldImage, &before); err != nil {
				return errors.Join(append(errs, err)...)
			}
			if err := decode(rec.NewImage, &current); err != nil {
				return errors.Join(append(errs, err)...)
			}
			before.ListingID, current.ListingID = listingID, listingID
			errs = append(errs, r.OnListingUpdated(ctx, &before, &current))
		}
		return errors.Join(errs...)
	}
}

func decode(image map[string]ddbtypes.AttributeValue, out interface{}) error {
	if image == nil {
		return errors.New("record has no image")
	}
	if err := attributevalue.UnmarshalMap(image, out); err != nil {
		return fmt.Errorf("decode image: %w", err)
	}
	return nil
}
