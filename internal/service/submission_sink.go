package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/prepline/examroom/internal/config"
	"github.com/prepline/examroom/internal/score"
	"github.com/prepline/examroom/internal/session"
)

// QueueSink pushes finished answer batches onto the Redis persistence
// queue for the submission worker. It implements session.SubmissionSink.
// The sink never grades; scoring falls back to the local calculator.
type QueueSink struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewQueueSink creates a new QueueSink.
func NewQueueSink(rdb *redis.Client, log zerolog.Logger) *QueueSink {
	return &QueueSink{
		rdb: rdb,
		log: log.With().Str("component", "queue_sink").Logger(),
	}
}

// SubmitBatch enqueues the batch. A nil result means locally-graded.
func (s *QueueSink) SubmitBatch(ctx context.Context, batch session.SubmissionBatch) ([]score.AnswerResult, error) {
	raw, err := json.Marshal(batch)
	if err != nil {
		return nil, fmt.Errorf("marshal batch: %w", err)
	}
	if err := s.rdb.LPush(ctx, config.WorkerKey.PersistSubmissionsQueue, raw).Err(); err != nil {
		return nil, fmt.Errorf("enqueue batch: %w", err)
	}
	s.log.Debug().
		Str("session_id", batch.SessionID.String()).
		Int("records", len(batch.Records)).
		Msg("Batch queued")
	return nil, nil
}

// UpstreamSink posts finished batches to the remote exam platform, which
// grades them server-side. Its per-answer results take precedence over
// local grading.
type UpstreamSink struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

// NewUpstreamSink creates a new UpstreamSink.
func NewUpstreamSink(cfg *config.Config, log zerolog.Logger) *UpstreamSink {
	return &UpstreamSink{
		baseURL: cfg.UpstreamBaseURL,
		client:  &http.Client{Timeout: cfg.UpstreamTimeout},
		log:     log.With().Str("component", "upstream_sink").Logger(),
	}
}

// upstreamGradeResponse is the platform's grading envelope.
type upstreamGradeResponse struct {
	Data []score.AnswerResult `json:"data"`
}

// SubmitBatch posts the batch and decodes the grading results.
func (s *UpstreamSink) SubmitBatch(ctx context.Context, batch session.SubmissionBatch) ([]score.AnswerResult, error) {
	raw, err := json.Marshal(batch.Records)
	if err != nil {
		return nil, fmt.Errorf("marshal records: %w", err)
	}

	url := fmt.Sprintf("%s/sections/%s/submissions", s.baseURL, batch.SectionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("submit batch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("submit batch: upstream returned %d", resp.StatusCode)
	}

	var graded upstreamGradeResponse
	if err := json.NewDecoder(resp.Body).Decode(&graded); err != nil {
		// Accepted but unreadable grading: local scoring takes over.
		s.log.Warn().Err(err).Msg("Could not decode grading response")
		return nil, nil
	}

	s.log.Debug().
		Str("session_id", batch.SessionID.String()).
		Int("graded", len(graded.Data)).
		Msg("Batch graded upstream")
	return graded.Data, nil
}
