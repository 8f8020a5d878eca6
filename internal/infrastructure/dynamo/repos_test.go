package dynamo

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-market-triggers/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAPI struct{ mock.Mock }

func (m *mockAPI) GetItem(ctx context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.GetItemOutput)
	return out, args.Error(1)
}
func (m *mockAPI) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.PutItemOutput)
	return out, args.Error(1)
}
func (m *mockAPI) UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.UpdateItemOutput)
	return out, args.Error(1)
}
func (m *mockAPI) Query(ctx context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.QueryOutput)
	return out, args.Error(1)
}

func TestUserRepo_Get_NotFound(t *testing.T) {
	api := &mockAPI{}
	api.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{}, nil)

	_, err := NewUserRepo(api, "users").Get(context.Background(), "ghost")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestUserRepo_Get_DecodesProfile(t *testing.T) {
	token := "device-token"
	item, err := attributevalue.MarshalMap(domain.User{
		UserID:               "u1",
		PushToken:            &token,
		Language:             domain.LanguageHungarian,
		NotificationSettings: map[string]bool{domain.CapabilityChat: false},
	})
	require.NoError(t, err)
	api := &mockAPI{}
	api.On("GetItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.GetItemInput) bool {
		return *in.TableName == "users" && in.Key["user_id"].(*types.AttributeValueMemberS).Value == "u1"
	})).Return(&dynamodb.GetItemOutput{Item: item}, nil)

	u, err := NewUserRepo(api, "users").Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, u.HasPushToken())
	assert.Equal(t, domain.LanguageHungarian, u.PreferredLanguage())
	assert.False(t, u.NotificationSettings[domain.CapabilityChat])
}

func TestNotificationRepo_PutIfAbsent(t *testing.T) {
	api := &mockAPI{}
	api.On("PutItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.PutItemInput) bool {
		return *in.ConditionExpression == "attribute_not_exists(notification_id)"
	})).Return(&dynamodb.PutItemOutput{}, nil).Once()
	api.On("PutItem", mock.Anything, mock.Anything).
		Return(nil, &types.ConditionalCheckFailedException{}).Once()
	repo := NewNotificationRepo(api, "notifications")
	n := &domain.Notification{NotificationID: "like_abc", UserID: "seller", Type: domain.KindLike}

	created, err := repo.PutIfAbsent(context.Background(), n)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.PutIfAbsent(context.Background(), n)
	require.NoError(t, err)
	assert.False(t, created)
}

func TestNotificationRepo_PutIfAbsent_OtherErrorsPropagate(t *testing.T) {
	api := &mockAPI{}
	api.On("PutItem", mock.Anything, mock.Anything).Return(nil, &types.ProvisionedThroughputExceededException{})

	_, err := NewNotificationRepo(api, "notifications").PutIfAbsent(context.Background(), &domain.Notification{NotificationID: "n1"})
	assert.Error(t, err)
}

func TestWishlistRepo_ListByListing_FollowsPages(t *testing.T) {
	page := func(ids ...string) []map[string]types.AttributeValue {
		var items []map[string]types.AttributeValue
		for _, id := range ids {
			item, _ := attributevalue.MarshalMap(domain.WishlistEntry{WishlistID: id, UserID: "u-" + id, ListingID: "l1"})
			items = append(items, item)
		}
		return items
	}
	lastKey := strKey("wishlist_id", "w2")

	api := &mockAPI{}
	api.On("Query", mock.Anything, mock.MatchedBy(func(in *dynamodb.QueryInput) bool {
		return in.ExclusiveStartKey == nil && *in.IndexName == "listing_id-index"
	})).Return(&dynamodb.QueryOutput{Items: page("w1", "w2"), LastEvaluatedKey: lastKey}, nil).Once()
	api.On("Query", mock.Anything, mock.MatchedBy(func(in *dynamodb.QueryInput) bool {
		return in.ExclusiveStartKey != nil
	})).Return(&dynamodb.QueryOutput{Items: page("w3")}, nil).Once()

	entries, err := NewWishlistRepo(api, "wishlists").ListByListing(context.Background(), "l1")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "u-w3", entries[2].UserID)
	api.AssertExpectations(t)
}

func TestTransactionRepo_UpdateIfStatus_Conflict(t *testing.T) {
	api := &mockAPI{}
	api.On("UpdateItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.UpdateItemInput) bool {
		expected, _ := in.ExpressionAttributeValues[":expected"].(*types.AttributeValueMemberS)
		return *in.ConditionExpression == "#cs = :expected" &&
			in.ExpressionAttributeNames["#cs"] == "status" &&
			expected != nil && expected.Value == "paid_held"
	})).Return(nil, &types.ConditionalCheckFailedException{})

	err := NewTransactionRepo(api, "transactions").UpdateIfStatus(context.Background(), "t1",
		domain.StatusPaidHeld, map[string]interface{}{"status": domain.StatusShipped})
	assert.True(t, errors.Is(err, domain.ErrConflict))
}

func TestTransactionRepo_Update_MissingIsNotFound(t *testing.T) {
	api := &mockAPI{}
	api.On("UpdateItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.UpdateItemInput) bool {
		_, stamped := in.ExpressionAttributeValues[":v2"]
		return *in.ConditionExpression == "attribute_exists(transaction_id)" && stamped
	})).Return(nil, &types.ConditionalCheckFailedException{})

	err := NewTransactionRepo(api, "transactions").Update(context.Background(), "t1", map[string]interface{}{
		"status":        domain.StatusCancelled,
		"escrow_status": domain.EscrowRefunded,
	})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestNotificationRepo_ListUnread_ReadsPastFilteredOutPage(t *testing.T) {
	unread, _ := attributevalue.MarshalMap(domain.Notification{NotificationID: "n9", UserID: "u1"})

	api := &mockAPI{}
	// The first page held only read records, so the filter left it empty.
	api.On("Query", mock.Anything, mock.MatchedBy(func(in *dynamodb.QueryInput) bool {
		return in.ExclusiveStartKey == nil && *in.IndexName == indexUserCreated && *in.FilterExpression == "#r = :false"
	})).Return(&dynamodb.QueryOutput{LastEvaluatedKey: strKey(keyNotificationID, "n8")}, nil).Once()
	api.On("Query", mock.Anything, mock.MatchedBy(func(in *dynamodb.QueryInput) bool {
		return in.ExclusiveStartKey != nil
	})).Return(&dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{unread}}, nil).Once()

	got, err := NewNotificationRepo(api, "notifications").ListUnread(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "n9", got[0].NotificationID)
	api.AssertExpectations(t)
}

func TestNotificationRepo_ListUnread_EmptyIsNonNil(t *testing.T) {
	api := &mockAPI{}
	api.On("Query", mock.Anything, mock.Anything).Return(&dynamodb.QueryOutput{}, nil).Once()

	got, err := NewNotificationRepo(api, "notifications").ListUnread(context.Background(), "u1")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
