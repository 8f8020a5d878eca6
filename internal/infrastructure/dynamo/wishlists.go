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

// WishlistRepo provides typed DynamoDB operations for the wishlists table.
type WishlistRepo struct {
	client    API
	tableName string
}

func NewWishlistRepo(client API, tableName string) *WishlistRepo {
	return &WishlistRepo{client: client, tableName: tableName}
}

// ListByListing returns every wishlist entry for listingID, following
// pagination through the listing_id GSI.
func (r *WishlistRepo) ListByListing(ctx context.Context, listingID string) ([]domain.WishlistEntry, error) {
	p := dynamodb.NewQueryPaginator(r.client, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(indexListing),
		KeyConditionExpression: aws.String("listing_id = :lid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":lid": &types.AttributeValueMemberS{Value: listingID},
		},
	})
	var entries []domain.WishlistEntry
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("query wishlists for %s: %w", listingID, err)
		}
		var batch []domain.WishlistEntry
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, fmt.Errorf("unmarshal wishlists: %w", err)
		}
		entries = append(entries, batch...)
	}
	return entries, nil
}
