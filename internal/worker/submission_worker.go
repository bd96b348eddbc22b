package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/prepline/examroom/internal/config"
	"github.com/prepline/examroom/internal/repository"
	"github.com/prepline/examroom/internal/session"
)

const (
	SubmissionBatchSize    = 20
	SubmissionBatchTimeout = 2 * time.Second
	SubmissionPollTimeout  = 1 * time.Second
)

// SubmissionWorker drains the persistence queue and writes finished
// answer batches to PostgreSQL.
type SubmissionWorker struct {
	submissions *repository.SubmissionRepository
	rdb         *redis.Client
	log         zerolog.Logger
}

// NewSubmissionWorker creates a new SubmissionWorker.
func NewSubmissionWorker(submissions *repository.SubmissionRepository, rdb *redis.Client, log zerolog.Logger) *SubmissionWorker {
	return &SubmissionWorker{
		submissions: submissions,
		rdb:         rdb,
		log:         log.With().Str("component", "submission_worker").Logger(),
	}
}

// ----------------------------------------------------------------
// Worker loop with batching
// ----------------------------------------------------------------

func (w *SubmissionWorker) Start(ctx context.Context) {
	w.log.Info().Msg("SubmissionWorker started")

	batch := make([]*session.SubmissionBatch, 0, SubmissionBatchSize)
	lastFlush := time.Now()

	for {
		// Should flush?
		if len(batch) > 0 &&
			(len(batch) >= SubmissionBatchSize || time.Since(lastFlush) >= SubmissionBatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			return

		default:
			item, err := w.rdb.BLPop(ctx, SubmissionPollTimeout, config.WorkerKey.PersistSubmissionsQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			var b session.SubmissionBatch
			if err := json.Unmarshal([]byte(item[1]), &b); err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload")
				continue
			}

			batch = append(batch, &b)
		}
	}
}

// ----------------------------------------------------------------
// Batch persist with per-record fallback
// ----------------------------------------------------------------

func (w *SubmissionWorker) flushSafe(ctx context.Context, batch []*session.SubmissionBatch) {
	for _, b := range batch {
		if len(b.Records) == 0 {
			continue
		}

		if err := w.submissions.BulkInsert(ctx, b.SessionID, b.SectionID, b.Records); err == nil {
			continue
		} else {
			w.log.Warn().Err(err).
				Str("session_id", b.SessionID.String()).
				Msg("bulk submission insert failed, using fallback")
		}

		failed := false
		for _, rec := range b.Records {
			if err := w.submissions.InsertSingle(ctx, b.SessionID, b.SectionID, rec); err != nil {
				w.log.Error().Err(err).
					Str("answer_id", rec.AnswerID).
					Msg("single submission insert failed")
				failed = true
			}
		}

		if failed {
			// Requeue the whole batch; the upsert makes replays safe.
			raw, _ := json.Marshal(b)
			w.rdb.RPush(ctx, config.WorkerKey.PersistSubmissionsQueue, raw)
		}
	}
}
