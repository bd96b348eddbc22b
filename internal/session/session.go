// Package session implements the exam-taking session engine: the state
// machine that drives one timed assessment from the time-mode selection
// screen through answering to submission and the report.
package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/prepline/examroom/internal/annotate"
	"github.com/prepline/examroom/internal/model"
	"github.com/prepline/examroom/internal/question"
	"github.com/prepline/examroom/internal/score"
)

// QuestionSource fetches the raw question payload for a section. The
// context must be honored so an abandoned session cancels an in-flight
// fetch.
type QuestionSource interface {
	FetchSection(ctx context.Context, sectionID string) (json.RawMessage, error)
}

// SubmissionBatch is the complete answer set handed to the sink once, at
// the end of a session.
type SubmissionBatch struct {
	SessionID uuid.UUID                `json:"session_id"`
	SectionID string                   `json:"section_id"`
	Records   []model.SubmissionRecord `json:"records"`
}

// SubmissionSink accepts the final batch. It may return per-answer grading
// results (preferred over local scoring when non-empty); a nil result with
// nil error means fire-and-forget acceptance.
type SubmissionSink interface {
	SubmitBatch(ctx context.Context, batch SubmissionBatch) ([]score.AnswerResult, error)
}

// Config carries the per-session knobs.
type Config struct {
	SectionID string
	// DefaultTimedSeconds is the countdown used when the section payload
	// does not declare its own timing.
	DefaultTimedSeconds int
	// Now is the clock used for elapsed-time tracking; nil means time.Now.
	Now func() time.Time
}

// Session is one exam-taking session instance. All operations are
// serialized by an internal mutex: the engine models a single logical
// actor even when hosted behind a concurrent transport.
type Session struct {
	mu sync.Mutex

	id     uuid.UUID
	cfg    Config
	source QuestionSource
	sink   SubmissionSink
	log    zerolog.Logger

	state   model.SessionState
	mode    model.TimeMode
	loadErr error

	section     *question.Section
	progress    *ProgressTracker
	timer       *ExamTimer
	annotations *annotate.Engine
	summary     *model.ScoreSummary

	// baseCtx scopes the fetch and the timer to the session lifetime:
	// closing the session cancels both, normal or error path alike.
	baseCtx context.Context
	cancel  context.CancelFunc
}

// New creates a session in the time-mode selection state.
func New(id uuid.UUID, cfg Config, source QuestionSource, sink SubmissionSink, log zerolog.Logger) *Session {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		id:          id,
		cfg:         cfg,
		source:      source,
		sink:        sink,
		log:         log.With().Str("component", "session").Str("session_id", id.String()).Logger(),
		state:       model.StateSelectingTimeMode,
		annotations: annotate.NewEngine(log),
		baseCtx:     ctx,
		cancel:      cancel,
	}
}

// ID returns the session identifier.
func (s *Session) ID() uuid.UUID { return s.id }

// State returns the current screen state.
func (s *Session) State() model.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Mode returns the chosen time mode; empty before selection.
func (s *Session) Mode() model.TimeMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// LoadError returns the retryable Preparing-state error, if any.
func (s *Session) LoadError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadErr
}

// SelectTimeMode picks timed/untimed and advances to the briefing.
func (s *Session) SelectTimeMode(mode model.TimeMode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != model.StateSelectingTimeMode {
		return ErrInvalidTransition
	}
	s.mode = mode
	s.state = model.StateBriefing
	return nil
}

// AcknowledgeBriefing leaves the briefing and loads question data. On
// success the session enters Answering; on failure it stays in Preparing
// with a retry affordance and the load error is returned.
func (s *Session) AcknowledgeBriefing() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != model.StateBriefing {
		return ErrInvalidTransition
	}
	s.state = model.StatePreparing
	return s.loadLocked()
}

// RetryLoad re-issues the question fetch after a failed load.
func (s *Session) RetryLoad() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != model.StatePreparing {
		return ErrInvalidTransition
	}
	return s.loadLocked()
}

func (s *Session) loadLocked() error {
	raw, err := s.source.FetchSection(s.baseCtx, s.cfg.SectionID)
	if err != nil {
		s.loadErr = err
		s.log.Error().Err(err).Str("section_id", s.cfg.SectionID).Msg("Question fetch failed")
		return err
	}

	section, err := question.Normalize(raw, s.log)
	if err != nil {
		s.loadErr = err
		s.log.Error().Err(err).Str("section_id", s.cfg.SectionID).Msg("Question normalization failed")
		return err
	}

	s.loadErr = nil
	s.section = section
	s.enterAnsweringLocked()
	return nil
}

func (s *Session) enterAnsweringLocked() {
	total := len(s.section.Questions)

	seconds := s.cfg.DefaultTimedSeconds
	if s.section.TimingSeconds > 0 {
		seconds = s.section.TimingSeconds
	}

	// Fresh tracker: briefing and preparing time never count against the
	// first question.
	s.progress = NewProgressTracker(total, s.cfg.Now)
	s.timer = NewExamTimer(seconds, s.mode == model.TimeModeTimed, s.onTimerExpired)
	s.timer.Start(s.baseCtx)
	s.state = model.StateAnswering

	s.log.Info().
		Int("questions", total).
		Int("seconds", seconds).
		Str("mode", string(s.mode)).
		Msg("Session answering")
}

func (s *Session) onTimerExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != model.StateAnswering && s.state != model.StateEndConfirming {
		return
	}
	s.log.Info().Msg("Timer expired, auto-submitting")
	s.finishLocked(s.baseCtx)
}

// ─── Answering operations ──────────────────────────────────────────

// SetAnswer records the answer for the question in view.
func (s *Session) SetAnswer(a model.Answer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != model.StateAnswering {
		return ErrNotAnswering
	}
	s.progress.SetAnswer(a)
	return nil
}

// ToggleReviewMark flips the review mark on the question in view.
func (s *Session) ToggleReviewMark() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != model.StateAnswering {
		return ErrNotAnswering
	}
	s.progress.ToggleReviewMark()
	return nil
}

// GoTo jumps to a question by its 1-based id.
func (s *Session) GoTo(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != model.StateAnswering {
		return ErrNotAnswering
	}
	return s.progress.GoTo(id)
}

// GoToNext advances one question, clamped at the last.
func (s *Session) GoToNext() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != model.StateAnswering {
		return ErrNotAnswering
	}
	s.progress.GoToNext()
	return nil
}

// GoToPrevious steps back one question, clamped at the first.
func (s *Session) GoToPrevious() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != model.StateAnswering {
		return ErrNotAnswering
	}
	s.progress.GoToPrevious()
	return nil
}

// ─── End sequence ──────────────────────────────────────────────────

// RequestEnd opens the end-confirmation gate.
func (s *Session) RequestEnd() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != model.StateAnswering {
		return ErrNotAnswering
	}
	s.state = model.StateEndConfirming
	return nil
}

// CancelEnd dismisses the confirmation and resumes answering.
func (s *Session) CancelEnd() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != model.StateEndConfirming {
		return ErrInvalidTransition
	}
	s.state = model.StateAnswering
	return nil
}

// ConfirmEnd runs the submission sequence and finishes the session.
// Submission failure is logged, never blocks the transition: the local
// report still renders from in-memory state.
func (s *Session) ConfirmEnd(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != model.StateEndConfirming {
		return ErrInvalidTransition
	}
	s.finishLocked(ctx)
	return nil
}

func (s *Session) finishLocked(ctx context.Context) {
	s.timer.Stop()
	s.progress.FinalizeCurrent()

	batch := SubmissionBatch{
		SessionID: s.id,
		SectionID: s.cfg.SectionID,
		Records:   s.buildRecordsLocked(),
	}

	var results []score.AnswerResult
	if len(batch.Records) > 0 {
		var err error
		results, err = s.sink.SubmitBatch(ctx, batch)
		if err != nil {
			// Availability over consistency: the user is never trapped in
			// the exam screen by a failed submission.
			s.log.Error().Err(err).Int("records", len(batch.Records)).Msg("Submission failed")
			results = nil
		}
	}

	summary := score.Calculate(s.section.Questions, s.progress.Answers(), results)
	s.summary = &summary
	s.state = model.StateFinished

	s.log.Info().
		Int("correct", summary.CorrectCount).
		Int("incorrect", summary.IncorrectCount).
		Int("omitted", summary.OmittedCount).
		Msg("Session finished")
}

func (s *Session) buildRecordsLocked() []model.SubmissionRecord {
	records := make([]model.SubmissionRecord, 0, len(s.section.Questions))
	for _, q := range s.section.Questions {
		corr := s.section.Correlation[q.ID]
		if corr.AnswerID == "" || corr.OriginalID == "" {
			s.log.Warn().Int("question_id", q.ID).Msg("Skipping submission record with missing identifiers")
			continue
		}
		answer, _ := s.progress.Answer(q.ID)
		records = append(records, model.SubmissionRecord{
			AnswerID:      corr.AnswerID,
			QuestionID:    corr.OriginalID,
			UserAnswer:    answer.SubmissionValue(),
			TimeConsuming: s.progress.ElapsedSeconds(q.ID),
		})
	}
	return records
}

// Close releases the session's resources: the fetch context and the
// ticking timer, regardless of which state the session is in.
//
// The cancel must fire before the mutex is taken: an in-flight fetch in
// loadLocked holds the mutex until FetchSection returns, so cancelling
// under the lock could never reach it.
func (s *Session) Close() {
	s.cancel()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
	}
}
