package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prepline/examroom/internal/model"
)

// SubmissionRepository persists finished answer batches.
type SubmissionRepository struct {
	pool *pgxpool.Pool
}

// NewSubmissionRepository creates a new SubmissionRepository.
func NewSubmissionRepository(pool *pgxpool.Pool) *SubmissionRepository {
	return &SubmissionRepository{pool: pool}
}

// BulkInsert writes a whole batch in one round trip using UNNEST.
func (r *SubmissionRepository) BulkInsert(ctx context.Context, sessionID uuid.UUID, sectionID string, records []model.SubmissionRecord) error {
	n := len(records)
	if n == 0 {
		return nil
	}

	answerIDs := make([]string, 0, n)
	questionIDs := make([]string, 0, n)
	userAnswers := make([]string, 0, n)
	timeSpent := make([]int, 0, n)

	for _, rec := range records {
		answerIDs = append(answerIDs, rec.AnswerID)
		questionIDs = append(questionIDs, rec.QuestionID)
		userAnswers = append(userAnswers, rec.UserAnswer)
		timeSpent = append(timeSpent, rec.TimeConsuming)
	}

	query := `
		INSERT INTO submissions (session_id, section_id, answer_id, question_id, user_answer, time_spent_seconds)
		SELECT $1, $2, u.answer_id, u.question_id, u.user_answer, u.time_spent
		FROM UNNEST(
			$3::text[],
			$4::text[],
			$5::text[],
			$6::int[]
		) AS u (answer_id, question_id, user_answer, time_spent)
		ON CONFLICT (session_id, answer_id) DO UPDATE
		SET user_answer = EXCLUDED.user_answer,
		    time_spent_seconds = EXCLUDED.time_spent_seconds
	`

	_, err := r.pool.Exec(ctx, query, sessionID, sectionID, answerIDs, questionIDs, userAnswers, timeSpent)
	return err
}

// InsertSingle writes one record. Fallback path when the bulk insert
// fails and the worker retries record by record.
func (r *SubmissionRepository) InsertSingle(ctx context.Context, sessionID uuid.UUID, sectionID string, rec model.SubmissionRecord) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO submissions (session_id, section_id, answer_id, question_id, user_answer, time_spent_seconds)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (session_id, answer_id) DO UPDATE
		 SET user_answer = EXCLUDED.user_answer,
		     time_spent_seconds = EXCLUDED.time_spent_seconds`,
		sessionID, sectionID, rec.AnswerID, rec.QuestionID, rec.UserAnswer, rec.TimeConsuming,
	)
	return err
}
