package search

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-market-triggers/internal/domain"
	"github.com/go-market-triggers/internal/metrics"
)

// Index is a keyed search index.
type Index interface {
	Put(ctx context.Context, objectID string, body map[string]any) error
	Delete(ctx context.Context, objectID string) error
}

// Synchronizer mirrors store documents into the search index by document id.
type Synchronizer struct {
	index  Index
	logger *slog.Logger
}

func NewSynchronizer(index Index, logger *slog.Logger) *Synchronizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Synchronizer{index: index, logger: logger}
}

// Sync deletes the index object when doc is nil (the document no longer
// exists) and upserts the normalized document otherwise. Index errors are
// returned so the invocation fails and is redelivered.
func (s *Synchronizer) Sync(ctx context.Context, id string, doc domain.Document) error {
	if doc == nil {
		if err := s.index.Delete(ctx, id); err != nil {
			metrics.IndexOps.WithLabelValues("delete", "error").Inc()
			return fmt.Errorf("delete %s from index: %w", id, err)
		}
		metrics.IndexOps.WithLabelValues("delete", "ok").Inc()
		s.logger.Info("index object deleted", "object_id", id)
		return nil
	}

	if err := s.index.Put(ctx, id, Record(id, doc)); err != nil {
		metrics.IndexOps.WithLabelValues("put", "error").Inc()
		return fmt.Errorf("upsert %s into index: %w", id, err)
	}
	metrics.IndexOps.WithLabelValues("put", "ok").Inc()
	s.logger.Info("index object upserted", "object_id", id)
	return nil
}

// Record builds the upsert body: the normalized fields with objectID and id
// pinned to the document id, whatever the document itself contains.
func Record(id string, doc domain.Document) map[string]any {
	body := normalizeMap(doc)
	body["objectID"] = id
	body["id"] = id
	return body
}
