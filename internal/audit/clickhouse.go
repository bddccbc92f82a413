package audit

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/sentineldev/modgate/internal/engine"
	"go.uber.org/zap"
)

const (
	bufferSize    = 10_000
	flushInterval = 100 * time.Millisecond
	flushBatch    = 1000
	drainTimeout  = 2 * time.Second
)

// DropRecorder is notified whenever an audit record is dropped instead
// of queued. Every drop is a correctness alarm per the moderation contract — it means
// a ModerationResult exists with no matching AuditRecord, breaking the
// 100%-interception-audit guarantee.
type DropRecorder interface {
	IncAuditDrop()
}

// ClickHouseSink writes audit records to ClickHouse asynchronously.
// Submit is non-blocking: records are buffered and batch-inserted by a
// background goroutine.
type ClickHouseSink struct {
	conn    driver.Conn
	buffer  chan engine.AuditRecord
	done    chan struct{}
	flushed chan struct{}
	logger  *zap.Logger
	drops   DropRecorder
}

// NewClickHouseSink opens a connection and starts the background
// flush loop.
func NewClickHouseSink(dsn string, drops DropRecorder, logger *zap.Logger) (*ClickHouseSink, error) {
	opts, err := clickhouse.ParseDSN(dsn)
	if err != nil {
		return nil, err
	}
	if opts.TLS == nil {
		opts.TLS = &tls.Config{}
	}

	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, err
	}
	if err := conn.Ping(context.Background()); err != nil {
		return nil, err
	}

	s := &ClickHouseSink{
		conn:    conn,
		buffer:  make(chan engine.AuditRecord, bufferSize),
		done:    make(chan struct{}),
		flushed: make(chan struct{}),
		logger:  logger,
		drops:   drops,
	}

	go s.flushLoop()
	return s, nil
}

// Submit queues a record for async insertion. Non-blocking: drops the
// record (and counts it) if the buffer is full.
func (s *ClickHouseSink) Submit(rec engine.AuditRecord) {
	select {
	case s.buffer <- rec:
	default:
		s.logger.Warn("audit buffer full, dropping record", zap.String("request_id", rec.RequestID))
		if s.drops != nil {
			s.drops.IncAuditDrop()
		}
	}
}

// Close signals the flush loop to drain remaining records, waits for
// it to finish (up to drainTimeout), and returns. Safe to call once.
func (s *ClickHouseSink) Close() {
	close(s.done)
	<-s.flushed
}

func (s *ClickHouseSink) flushLoop() {
	defer close(s.flushed)

	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	batch := make([]engine.AuditRecord, 0, flushBatch)

	for {
		select {
		case rec := <-s.buffer:
			batch = append(batch, rec)
			if len(batch) >= flushBatch {
				s.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				s.flush(batch)
				batch = batch[:0]
			}
		case <-s.done:
			drainCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
			defer cancel()
		drainLoop:
			for {
				select {
				case rec := <-s.buffer:
					batch = append(batch, rec)
				case <-drainCtx.Done():
					break drainLoop
				default:
					break drainLoop
				}
			}
			if len(batch) > 0 {
				s.flush(batch)
			}
			return
		}
	}
}

func (s *ClickHouseSink) flush(records []engine.AuditRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO audit_records (
			request_id, session_id, region,
			user_message_preview, bot_response_preview, final_response_preview,
			is_flagged, is_blocked, verdict, engine_error, cancelled,
			rule_ids, rule_names, rule_kinds, rule_blocked, rule_details,
			score_keys, score_values,
			latency_ms, timestamp
		)
	`)
	if err != nil {
		s.logger.Error("audit prepare batch failed", zap.Error(err))
		return
	}

	now := time.Now()
	for _, rec := range records {
		r := toRow(rec, now)
		if err := batch.Append(
			r.requestID, r.sessionID, r.region,
			r.userMessage, r.botResponsePrev, r.finalResponse,
			r.isFlagged, r.isBlocked, r.verdict, r.engineError, r.cancelled,
			r.ruleIDs, r.ruleNames, r.ruleKinds, r.ruleBlocked, r.ruleDetails,
			r.scoreKeys, r.scoreValues,
			r.latencyMs, r.timestamp,
		); err != nil {
			s.logger.Error("audit append record failed",
				zap.String("request_id", rec.RequestID),
				zap.Error(err),
			)
		}
	}

	if err := batch.Send(); err != nil {
		s.logger.Error("audit batch send failed", zap.Int("batch_size", len(records)), zap.Error(err))
	}
}
