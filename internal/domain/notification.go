package domain

import (
	"strconv"
	"time"
)

// NotificationKind identifies a notification class.
type NotificationKind string

const (
	KindLike      NotificationKind = "like"
	KindPriceDrop NotificationKind = "priceDrop"
	KindChat      NotificationKind = "chat"
)

// NotificationPayload is the kind-specific context of a notification. Each
// variant carries its own fields; Data flattens them into the string map
// sent to the push provider and stored on the in-app record.
type NotificationPayload interface {
	Kind() NotificationKind
	Data() map[string]string
}

// ChatPayload accompanies a new chat message.
type ChatPayload struct {
	ConversationID string
	MessageID      string
	SenderID       string
	Text           string
}

func (ChatPayload) Kind() NotificationKind { return KindChat }

func (p ChatPayload) Data() map[string]string {
	return map[string]string{
		"type":           string(KindChat),
		"conversationId": p.ConversationID,
		"messageId":      p.MessageID,
		"senderId":       p.SenderID,
	}
}

// LikePayload accompanies a new wishlist entry on a seller's listing.
type LikePayload struct {
	ListingID    string
	ListingTitle string
	LikerID      string
}

func (LikePayload) Kind() NotificationKind { return KindLike }

func (p LikePayload) Data() map[string]string {
	return map[string]string{
		"type":      string(KindLike),
		"listingId": p.ListingID,
		"likerId":   p.LikerID,
	}
}

// PriceDropPayload accompanies a strict price decrease on a wishlisted listing.
type PriceDropPayload struct {
	ListingID    string
	ListingTitle string
	OldPrice     int64
	NewPrice     int64
	Currency     string
}

func (PriceDropPayload) Kind() NotificationKind { return KindPriceDrop }

func (p PriceDropPayload) Data() map[string]string {
	return map[string]string{
		"type":      string(KindPriceDrop),
		"listingId": p.ListingID,
		"oldPrice":  strconv.FormatInt(p.OldPrice, 10),
		"newPrice":  strconv.FormatInt(p.NewPrice, 10),
	}
}

// Notification is the durable in-app record shown in the notification list.
type Notification struct {
	NotificationID string            `json:"id" dynamodbav:"notification_id"`
	UserID         string            `json:"user_id" dynamodbav:"user_id"`
	Type           NotificationKind  `json:"type" dynamodbav:"type"`
	Title          string            `json:"title" dynamodbav:"title"`
	Body           string            `json:"body" dynamodbav:"body"`
	Data           map[string]string `json:"data" dynamodbav:"data"`
	Read           bool              `json:"read" dynamodbav:"read"`
	CreatedAt      time.Time         `json:"created" dynamodbav:"created_at"`
}

// PushMessage is what the push provider delivers to one device.
type PushMessage struct {
	Title string
	Body  string
	Data  map[string]string
}
