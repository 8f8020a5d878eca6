// Package stream delivers DynamoDB Streams records to the change-reaction
// handlers. Delivery is at-least-once: a failed record is re-read from its
// sequence number after a backoff and, once attempts run out, archived to a
// dead-letter store and skipped.
package stream

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	streamtypes "github.com/aws/aws-sdk-go-v2/service/dynamodbstreams/types"
)

// Event is the kind of write a record describes.
type Event string

const (
	EventInsert Event = "INSERT"
	EventModify Event = "MODIFY"
	EventRemove Event = "REMOVE"
)

// Record is one change to one item, with images in DynamoDB's item form.
type Record struct {
	Table          string                             `json:"table"`
	Event          Event                              `json:"event"`
	SequenceNumber string                             `json:"sequence_number"`
	CreatedAt      time.Time                          `json:"created_at"`
	Keys           map[string]ddbtypes.AttributeValue `json:"-"`
	OldImage       map[string]ddbtypes.AttributeValue `json:"-"`
	NewImage       map[string]ddbtypes.AttributeValue `json:"-"`
}

// Key returns the string key attribute name, or "" when absent.
func (r Record) Key(name string) string {
	if v, ok := r.Keys[name].(*ddbtypes.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

// Handler processes one record. A returned error triggers redelivery.
type Handler func(ctx context.Context, rec Record) error

func fromStream(table string, sr streamtypes.Record) (Record, error) {
	rec := Record{Table: table, Event: Event(sr.EventName)}
	if sr.Dynamodb == nil {
		return rec, fmt.Errorf("record %s has no change data", aws.ToString(sr.EventID))
	}
	d := sr.Dynamodb
	rec.SequenceNumber = aws.ToString(d.SequenceNumber)
	if d.ApproximateCreationDateTime != nil {
		rec.CreatedAt = d.ApproximateCreationDateTime.UTC()
	}
	var err error
	if rec.Keys, err = convert(d.Keys); err != nil {
		return rec, fmt.Errorf("keys: %w", err)
	}
	if rec.OldImage, err = convert(d.OldImage); err != nil {
		return rec, fmt.Errorf("old image: %w", err)
	}
	if rec.NewImage, err = convert(d.NewImage); err != nil {
		return rec, fmt.Errorf("new image: %w", err)
	}
	return rec, nil
}

func convert(m map[string]streamtypes.AttributeValue) (map[string]ddbtypes.AttributeValue, error) {
	if m == nil {
		return nil, nil
	}
	return attributevalue.FromDynamoDBStreamsMap(m)
}
