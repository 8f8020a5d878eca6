package dynamo

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-market-triggers/internal/domain"
)

// TransactionRepo provides typed DynamoDB operations for the transactions table.
type TransactionRepo struct {
	client    API
	tableName string
}

func NewTransactionRepo(client API, tableName string) *TransactionRepo {
	return &TransactionRepo{client: client, tableName: tableName}
}

func (r *TransactionRepo) Create(ctx context.Context, t *domain.Transaction) error {
	item, err := attributevalue.MarshalMap(t)
	if err != nil {
		return fmt.Errorf("marshal transaction: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(transaction_id)"),
	})
	if isConditionFailed(err) {
		return fmt.Errorf("transaction %s exists: %w", t.TransactionID, domain.ErrConflict)
	}
	return err
}

func (r *TransactionRepo) Get(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey(keyTransactionID, transactionID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get transaction %s: %w", transactionID, err)
	}
	if out.Item == nil {
		return nil, fmt.Errorf("transaction %s: %w", transactionID, domain.ErrNotFound)
	}
	var t domain.Transaction
	if err := attributevalue.UnmarshalMap(out.Item, &t); err != nil {
		return nil, fmt.Errorf("unmarshal transaction %s: %w", transactionID, err)
	}
	return &t, nil
}

// ListByParticipant returns the trades where userID is buyer or seller,
// newest first.
func (r *TransactionRepo) ListByParticipant(ctx context.Context, userID string) ([]domain.Transaction, error) {
	bought, err := r.queryIndex(ctx, indexTransactionBuyer, fieldBuyerID, userID)
	if err != nil {
		return nil, err
	}
	sold, err := r.queryIndex(ctx, indexTransactionSell, fieldSellerID, userID)
	if err != nil {
		return nil, err
	}
	all := append(bought, sold...)
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return all, nil
}

// Update merge-writes the given fields and stamps updated_at.
func (r *TransactionRepo) Update(ctx context.Context, transactionID string, updates map[string]interface{}) error {
	return r.update(ctx, transactionID, updates, "attribute_exists(transaction_id)", nil, nil)
}

// UpdateIfStatus is Update guarded by the stored status still being expected.
func (r *TransactionRepo) UpdateIfStatus(ctx context.Context, transactionID string, expected domain.TransactionStatus, updates map[string]interface{}) error {
	return r.update(ctx, transactionID, updates, "#cs = :expected",
		map[string]string{"#cs": fieldStatus},
		map[string]types.AttributeValue{":expected": &types.AttributeValueMemberS{Value: string(expected)}},
	)
}

func (r *TransactionRepo) update(ctx context.Context, transactionID string, updates map[string]interface{}, cond string, condNames map[string]string, condValues map[string]types.AttributeValue) error {
	fields := make(map[string]interface{}, len(updates)+1)
	for k, v := range updates {
		fields[k] = v
	}
	fields[fieldUpdatedAt] = time.Now().UTC()
	ue, err := buildUpdateExpr(fields)
	if err != nil {
		return err
	}
	for k, v := range condNames {
		ue.Names[k] = v
	}
	for k, v := range condValues {
		ue.Values[k] = v
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(keyTransactionID, transactionID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String(cond),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if isConditionFailed(err) {
		if condNames == nil {
			return fmt.Errorf("transaction %s: %w", transactionID, domain.ErrNotFound)
		}
		return fmt.Errorf("transaction %s changed concurrently: %w", transactionID, domain.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("update transaction %s: %w", transactionID, err)
	}
	return nil
}

func (r *TransactionRepo) queryIndex(ctx context.Context, index, attr, value string) ([]domain.Transaction, error) {
	p := dynamodb.NewQueryPaginator(r.client, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(index),
		KeyConditionExpression:    aws.String("#a = :v"),
		ExpressionAttributeNames:  map[string]string{"#a": attr},
		ExpressionAttributeValues: map[string]types.AttributeValue{":v": &types.AttributeValueMemberS{Value: value}},
	})
	var out []domain.Transaction
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("query %s: %w", index, err)
		}
		var batch []domain.Transaction
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, err
		}
		out = append(out, batch...)
	}
	return out, nil
}
