package http

import (
	"context"

	"github.com/go-market-triggers/internal/domain"
)

// NotificationRepository is the minimal interface the router requires from a notification store.
type NotificationRepository interface {
	Get(ctx context.Context, notificationID string) (*domain.Notification, error)
	ListUnread(ctx context.Context, userID string) ([]domain.Notification, error)
	MarkAsRead(ctx context.Context, notificationID string) error
}

// TransactionRepository is the minimal interface the router requires from a transaction store.
type TransactionRepository interface {
	Create(ctx context.Context, t *domain.Transaction) error
	Get(ctx context.Context, transactionID string) (*domain.Transaction, error)
	ListByParticipant(ctx context.Context, userID string) ([]domain.Transaction, error)
	Update(ctx context.Context, transactionID string, updates map[string]interface{}) error
	UpdateIfStatus(ctx context.Context, transactionID string, expected domain.TransactionStatus, updates map[string]interface{}) error
}

// ListingDocuments reads listings in stream-image form for reindexing.
type ListingDocuments interface {
	GetDocument(ctx context.Context, listingID string) (domain.Document, error)
}

// IndexSyncer mirrors one document into the search index.
type IndexSyncer interface {
	Sync(ctx context.Context, id string, doc domain.Document) error
}
