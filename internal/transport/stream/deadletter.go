package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"github.com/go-market-triggers/internal/domain"
	"github.com/go-market-triggers/internal/infrastructure/dynamo"
)

// ObjectStore is where dead-lettered records are written.
type ObjectStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string, meta map[string]string) (string, error)
}

type objectDeadLetter struct {
	store  ObjectStore
	prefix string
	now    func() time.Time
}

// NewObjectDeadLetter archives each record as one JSON object under
// prefix/table/date/sequence.json.
func NewObjectDeadLetter(store ObjectStore, prefix string) DeadLetter {
	return &objectDeadLetter{store: store, prefix: prefix, now: time.Now}
}

type archived struct {
	Record
	Keys     domain.Document `json:"keys"`
	OldImage domain.Document `json:"old_image,omitempty"`
	NewImage domain.Document `json:"new_image,omitempty"`
	Error    string          `json:"error"`
	FailedAt time.Time       `json:"failed_at"`
}

func (d *objectDeadLetter) Archive(ctx context.Context, rec Record, cause error) error {
	now := d.now().UTC()
	entry := archived{
		Record:   rec,
		Keys:     dynamo.DecodeDocument(rec.Keys),
		OldImage: dynamo.DecodeDocument(rec.OldImage),
		NewImage: dynamo.DecodeDocument(rec.NewImage),
		FailedAt: now,
	}
	if cause != nil {
		entry.Error = cause.Error()
	}
	body, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode dead letter: %w", err)
	}
	seq := rec.SequenceNumber
	if seq == "" {
		seq = fmt.Sprintf("unsequenced-%d", now.UnixNano())
	}
	key := path.Join(d.prefix, rec.Table, now.Format("2006/01/02"), seq+".json")
	_, err = d.store.Put(ctx, key, body, "application/json", map[string]string{
		"table": rec.Table,
		"event": string(rec.Event),
	})
	return err
}
