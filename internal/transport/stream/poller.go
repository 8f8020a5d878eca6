package stream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodbstreams"
	streamtypes "github.com/aws/aws-sdk-go-v2/service/dynamodbstreams/types"
	"github.com/go-market-triggers/internal/metrics"
)

// StreamsAPI is the part of the DynamoDB Streams client the poller uses.
type StreamsAPI interface {
	DescribeStream(ctx context.Context, in *dynamodbstreams.DescribeStreamInput, optFns ...func(*dynamodbstreams.Options)) (*dynamodbstreams.DescribeStreamOutput, error)
	GetShardIterator(ctx context.Context, in *dynamodbstreams.GetShardIteratorInput, optFns ...func(*dynamodbstreams.Options)) (*dynamodbstreams.GetShardIteratorOutput, error)
	GetRecords(ctx context.Context, in *dynamodbstreams.GetRecordsInput, optFns ...func(*dynamodbstreams.Options)) (*dynamodbstreams.GetRecordsOutput, error)
}

// DeadLetter keeps records that exhausted their delivery attempts.
type DeadLetter interface {
	Archive(ctx context.Context, rec Record, cause error) error
}

// Options tune a Poller. Zero values fall back to defaults.
type Options struct {
	PollInterval    time.Duration
	MaxAttempts     int
	RetryBackoff    time.Duration
	ShardRefresh    time.Duration
	BatchSize       int32
	StartFromOldest bool
}

func (o *Options) defaults() {
	if o.PollInterval <= 0 {
		o.PollInterval = time.Second
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 5
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = 2 * time.Second
	}
	if o.ShardRefresh <= 0 {
		o.ShardRefresh = time.Minute
	}
	if o.BatchSize <= 0 {
		o.BatchSize = 100
	}
}

// Poller reads every shard of one table's stream and hands records to a Handler.
type Poller struct {
	api        StreamsAPI
	table      string
	streamARN  string
	handle     Handler
	deadLetter DeadLetter
	opts       Options
	logger     *slog.Logger

	mu     sync.Mutex
	shards map[string]bool
}

func NewPoller(api StreamsAPI, table, streamARN string, handle Handler, dl DeadLetter, opts Options, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	opts.defaults()
	return &Poller{
		api:        api,
		table:      table,
		streamARN:  streamARN,
		handle:     handle,
		deadLetter: dl,
		opts:       opts,
		logger:     logger.With("table", table),
		shards:     make(map[string]bool),
	}
}

// Run polls until ctx is cancelled. Shards open at start are read from the
// latest record (or the oldest with StartFromOldest); shards that appear
// later, after a split, are read from their beginning.
func (p *Poller) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	first := true
	for {
		shards, err := p.listShards(ctx)
		if err != nil {
			p.logger.Warn("describe stream failed", "err", err)
		}
		for _, s := range shards {
			id := aws.ToString(s.ShardId)
			if !p.claim(id) {
				continue
			}
			closed := s.SequenceNumberRange != nil && s.SequenceNumberRange.EndingSequenceNumber != nil
			iterType := streamtypes.ShardIteratorTypeTrimHorizon
			if first && !p.opts.StartFromOldest {
				if closed {
					continue
				}
				iterType = streamtypes.ShardIteratorTypeLatest
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := p.pollShard(ctx, id, iterType); err != nil && !errors.Is(err, context.Canceled) {
					p.logger.Error("shard reader stopped", "shard", id, "err", err)
				}
			}()
		}
		// Startup ends with the first complete shard listing; until then a
		// shard is one that was already open, not a post-split child.
		wait := p.opts.ShardRefresh
		if err == nil {
			first = false
		} else if first {
			wait = p.opts.PollInterval
		}

		select {
		case <-ctx.Done():
			wg.Wait()
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

func (p *Poller) claim(shardID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.shards[shardID] {
		return false
	}
	p.shards[shardID] = true
	return true
}

func (p *Poller) listShards(ctx context.Context) ([]streamtypes.Shard, error) {
	var shards []streamtypes.Shard
	var start *string
	for {
		out, err := p.api.DescribeStream(ctx, &dynamodbstreams.DescribeStreamInput{
			StreamArn:             aws.String(p.streamARN),
			ExclusiveStartShardId: start,
		})
		if err != nil {
			return shards, err
		}
		if out.StreamDescription == nil {
			return shards, nil
		}
		shards = append(shards, out.StreamDescription.Shards...)
		start = out.StreamDescription.LastEvaluatedShardId
		if start == nil {
			return shards, nil
		}
	}
}

func (p *Poller) iterator(ctx context.Context, shardID string, t streamtypes.ShardIteratorType, seq string) (*string, error) {
	in := &dynamodbstreams.GetShardIteratorInput{
		StreamArn:         aws.String(p.streamARN),
		ShardId:           aws.String(shardID),
		ShardIteratorType: t,
	}
	if seq != "" {
		in.SequenceNumber = aws.String(seq)
	}
	out, err := p.api.GetShardIterator(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("shard iterator %s: %w", shardID, err)
	}
	return out.ShardIterator, nil
}

// pollShard reads one shard until it is closed and drained or ctx ends.
func (p *Poller) pollShard(ctx context.Context, shardID string, start streamtypes.ShardIteratorType) error {
	log := p.logger.With("shard", shardID)
	it, err := p.iterator(ctx, shardID, start, "")
	if err != nil {
		return err
	}
	attempts := make(map[string]int)
	var lastSeq string

	for it != nil {
		out, err := p.api.GetRecords(ctx, &dynamodbstreams.GetRecordsInput{
			ShardIterator: it,
			Limit:         aws.Int32(p.opts.BatchSize),
		})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			var expired *streamtypes.ExpiredIteratorException
			if errors.As(err, &expired) {
				it, err = p.resume(ctx, shardID, lastSeq)
				if err != nil {
					return err
				}
				continue
			}
			log.Warn("get records failed", "err", err)
			if err := sleep(ctx, p.opts.PollInterval); err != nil {
				return err
			}
			continue
		}

		next := out.NextShardIterator
		for _, sr := range out.Records {
			rec, err := fromStream(p.table, sr)
			if err != nil {
				log.Error("undecodable record", "sequence", rec.SequenceNumber, "err", err)
				p.archive(ctx, rec, err, log)
				lastSeq = rec.SequenceNumber
				continue
			}
			if !p.deliver(ctx, rec, attempts, log) {
				// Re-read from the failed record after the backoff.
				if err := sleep(ctx, p.opts.RetryBackoff); err != nil {
					return err
				}
				if next, err = p.iterator(ctx, shardID, streamtypes.ShardIteratorTypeAtSequenceNumber, rec.SequenceNumber); err != nil {
					return err
				}
				break
			}
			lastSeq = rec.SequenceNumber
		}
		it = next
		if len(out.Records) == 0 && it != nil {
			if err := sleep(ctx, p.opts.PollInterval); err != nil {
				return err
			}
		}
	}
	log.Info("shard closed and drained")
	return nil
}

// deliver runs the handler once. It returns false when the record should be
// re-read; after the last attempt the record is archived and reported done.
func (p *Poller) deliver(ctx context.Context, rec Record, attempts map[string]int, log *slog.Logger) bool {
	err := p.handle(ctx, rec)
	if err == nil {
		delete(attempts, rec.SequenceNumber)
		metrics.StreamRecords.WithLabelValues(p.table, "ok").Inc()
		return true
	}
	attempts[rec.SequenceNumber]++
	n := attempts[rec.SequenceNumber]
	if n < p.opts.MaxAttempts {
		metrics.StreamRecords.WithLabelValues(p.table, "retry").Inc()
		log.Warn("handler failed, will redeliver", "sequence", rec.SequenceNumber, "event", rec.Event, "attempt", n, "err", err)
		return false
	}
	delete(attempts, rec.SequenceNumber)
	log.Error("handler failed, giving up", "sequence", rec.SequenceNumber, "event", rec.Event, "attempts", n, "err", err)
	p.archive(ctx, rec, err, log)
	return true
}

func (p *Poller) archive(ctx context.Context, rec Record, cause error, log *slog.Logger) {
	metrics.StreamRecords.WithLabelValues(p.table, "dead_letter").Inc()
	if p.deadLetter == nil {
		return
	}
	if err := p.deadLetter.Archive(ctx, rec, cause); err != nil {
		log.Error("dead-letter archive failed", "sequence", rec.SequenceNumber, "err", err)
	}
}

// resume replaces an expired iterator, continuing after the last handled record.
func (p *Poller) resume(ctx context.Context, shardID, lastSeq string) (*string, error) {
	if lastSeq == "" {
		return p.iterator(ctx, shardID, streamtypes.ShardIteratorTypeTrimHorizon, "")
	}
	return p.iterator(ctx, shardID, streamtypes.ShardIteratorTypeAfterSequenceNumber, lastSeq)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
