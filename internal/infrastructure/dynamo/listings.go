package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-market-triggers/internal/domain"
)

// ListingRepo provides typed DynamoDB operations for the listings table.
type ListingRepo struct {
	client    API
	tableName string
}

func NewListingRepo(client API, tableName string) *ListingRepo {
	return &ListingRepo{client: client, tableName: tableName}
}

func (r *ListingRepo) Get(ctx context.Context, listingID string) (*domain.Listing, error) {
	item, err := r.getItem(ctx, listingID)
	if err != nil {
		return nil, err
	}
	var l domain.Listing
	if err := attributevalue.UnmarshalMap(item, &l); err != nil {
		return nil, fmt.Errorf("unmarshal listing %s: %w", listingID, err)
	}
	return &l, nil
}

// GetDocument returns the listing as an untyped document, the same shape a
// stream image decodes to.
func (r *ListingRepo) GetDocument(ctx context.Context, listingID string) (domain.Document, error) {
	item, err := r.getItem(ctx, listingID)
	if err != nil {
		return nil, err
	}
	return DecodeDocument(item), nil
}

func (r *ListingRepo) getItem(ctx context.Context, listingID string) (map[string]types.AttributeValue, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(keyListingID, listingID),
	})
	if err != nil {
		return nil, fmt.Errorf("get listing %s: %w", listingID, err)
	}
	if out.Item == nil {
		return nil, fmt.Errorf("listing %s: %w", listingID, domain.ErrNotFound)
	}
	return out.Item, nil
}
