package governedproxy

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// BatchBufferSink is the T0 receipt sink: low-stakes receipts are
// buffered in a channel and flushed to a Redis list on a timer, rather
// than written individually, since T0 actions are high-volume and inert
// and need bulk retention rather than durable query access.
type BatchBufferSink struct {
	rdb        *redis.Client
	listKey    string
	logger     *slog.Logger
	entries    chan Receipt
	flushEvery time.Duration
	batchSize  int
	wg         sync.WaitGroup
}

// NewBatchBufferSink constructs a BatchBufferSink. Call Start to begin
// the background flush loop.
func NewBatchBufferSink(rdb *redis.Client, listKey string, logger *slog.Logger) *BatchBufferSink {
	return &BatchBufferSink{
		rdb:        rdb,
		listKey:    listKey,
		logger:     logger,
		entries:    make(chan Receipt, 256),
		flushEvery: 2 * time.Second,
		batchSize:  32,
	}
}

// Start runs the background flush loop until ctx is cancelled.
func (s *BatchBufferSink) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx)
	}()
}

// Close stops accepting new receipts and waits for the flush loop to
// drain whatever remains buffered.
func (s *BatchBufferSink) Close() {
	close(s.entries)
	s.wg.Wait()
}

// Emit enqueues a receipt for batched flushing. Never blocks the caller;
// a full buffer drops the receipt and logs a warning.
func (s *BatchBufferSink) Emit(r Receipt) error {
	select {
	case s.entries <- r:
		return nil
	default:
		s.logger.Warn("governedproxy: T0 receipt buffer full, dropping receipt", "receipt_id", r.ReceiptID)
		return nil
	}
}

func (s *BatchBufferSink) run(ctx context.Context) {
	ticker := time.NewTicker(s.flushEvery)
	defer ticker.Stop()

	var batch []Receipt
	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := s.flush(ctx, batch); err != nil {
			s.logger.Error("governedproxy: failed to flush T0 receipt batch", "error", err, "count", len(batch))
		}
		batch = batch[:0]
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return
		case <-ticker.C:
			flush()
		case r, ok := <-s.entries:
			if !ok {
				flush()
				return
			}
			batch = append(batch, r)
			if len(batch) >= s.batchSize {
				flush()
			}
		}
	}
}

func (s *BatchBufferSink) flush(ctx context.Context, batch []Receipt) error {
	pipe := s.rdb.Pipeline()
	for _, r := range batch {
		encoded, err := json.Marshal(r)
		if err != nil {
			return err
		}
		pipe.RPush(ctx, s.listKey, encoded)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// ReceiptStore is the T1+ durable sink: every reversible-or-worse action
// is written immediately, individually, to Postgres. The single table
// bootstraps itself with create-table-if-not-exists; no migration
// toolchain is involved.
type ReceiptStore struct {
	pool *pgxpool.Pool
}

// NewReceiptStore constructs a ReceiptStore and ensures its table exists.
func NewReceiptStore(ctx context.Context, pool *pgxpool.Pool) (*ReceiptStore, error) {
	s := &ReceiptStore{pool: pool}
	if err := s.bootstrap(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *ReceiptStore) bootstrap(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS connector_receipts (
	receipt_id   UUID PRIMARY KEY,
	ts           TIMESTAMPTZ NOT NULL,
	connector_id TEXT NOT NULL,
	operation_id TEXT NOT NULL,
	capability   TEXT NOT NULL,
	tier         TEXT NOT NULL,
	status_code  INTEGER NOT NULL,
	success      BOOLEAN NOT NULL
)`
	_, err := s.pool.Exec(ctx, ddl)
	if err != nil {
		return fmt.Errorf("bootstrapping connector_receipts table: %w", err)
	}
	return nil
}

// Emit writes one receipt immediately.
func (s *ReceiptStore) Emit(r Receipt) error {
	ctx := context.Background()
	const q = `
INSERT INTO connector_receipts (receipt_id, ts, connector_id, operation_id, capability, tier, status_code, success)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (receipt_id) DO NOTHING`
	_, err := s.pool.Exec(ctx, q, r.ReceiptID, r.Timestamp, r.ConnectorID, r.OperationID, r.Capability, r.Tier, r.StatusCode, r.Success)
	return err
}

// InMemorySink is a test/dev sink that simply appends to a slice under a
// mutex; used as the default receipt store when no Postgres pool is
// configured.
type InMemorySink struct {
	mu       sync.Mutex
	receipts []Receipt
}

func NewInMemorySink() *InMemorySink { return &InMemorySink{} }

func (s *InMemorySink) Emit(r Receipt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.receipts = append(s.receipts, r)
	return nil
}

// Receipts returns a snapshot copy of everything emitted so far.
func (s *InMemorySink) Receipts() []Receipt {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Receipt, len(s.receipts))
	copy(out, s.receipts)
	return out
}
