package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prepline/examroom/internal/model"
	"github.com/prepline/examroom/internal/score"
)

type fakeSource struct {
	payload json.RawMessage
	err     error
	calls   int
}

func (f *fakeSource) FetchSection(_ context.Context, _ string) (json.RawMessage, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.payload, nil
}

type fakeSink struct {
	batch   *SubmissionBatch
	results []score.AnswerResult
	err     error
}

func (f *fakeSink) SubmitBatch(_ context.Context, batch SubmissionBatch) ([]score.AnswerResult, error) {
	f.batch = &batch
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

func sectionPayload(n int) json.RawMessage {
	records := make([]map[string]any, 0, n)
	for i := 1; i <= n; i++ {
		records = append(records, map[string]any{
			"answerId":    fmt.Sprintf("ans-%d", i),
			"sectionName": "Verbal Reasoning",
			"question": map[string]any{
				"questionId":      fmt.Sprintf("orig-%d", i),
				"questionType":    "CHOICE",
				"questionContent": fmt.Sprintf("Prompt %d", i),
				"options":         []string{"alpha", "beta", "gamma", "delta"},
				"correctAnswer":   "alpha",
			},
		})
	}
	raw, _ := json.Marshal(records)
	return raw
}

func startedSession(t *testing.T, source *fakeSource, sink *fakeSink) *Session {
	t.Helper()
	s := New(uuid.New(), Config{SectionID: "sec-1", DefaultTimedSeconds: 2095}, source, sink, zerolog.Nop())
	t.Cleanup(s.Close)

	require.NoError(t, s.SelectTimeMode(model.TimeModeUntimed))
	require.NoError(t, s.AcknowledgeBriefing())
	require.Equal(t, model.StateAnswering, s.State())
	return s
}

func TestSessionHappyPath(t *testing.T) {
	source := &fakeSource{payload: sectionPayload(3)}
	sink := &fakeSink{}
	s := startedSession(t, source, sink)

	require.NoError(t, s.SetAnswer(model.Answer{Value: "alpha"}))
	require.NoError(t, s.GoToNext())
	require.NoError(t, s.SetAnswer(model.Answer{Value: "beta"}))

	require.NoError(t, s.RequestEnd())
	require.Equal(t, model.StateEndConfirming, s.State())
	require.NoError(t, s.ConfirmEnd(context.Background()))
	require.Equal(t, model.StateFinished, s.State())

	require.NotNil(t, sink.batch)
	assert.Len(t, sink.batch.Records, 3)
	assert.Equal(t, "ans-1", sink.batch.Records[0].AnswerID)
	assert.Equal(t, "orig-1", sink.batch.Records[0].QuestionID)
	assert.Equal(t, "alpha", sink.batch.Records[0].UserAnswer)

	rep, err := s.Report()
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Summary.CorrectCount)
	assert.Equal(t, 1, rep.Summary.IncorrectCount)
	assert.Equal(t, 1, rep.Summary.OmittedCount)
	assert.Len(t, rep.Questions, 3)
	assert.Equal(t, "alpha", rep.Questions[0].CorrectAnswer)
}

func TestSessionTransitionOrderEnforced(t *testing.T) {
	source := &fakeSource{payload: sectionPayload(1)}
	s := New(uuid.New(), Config{SectionID: "sec-1"}, source, &fakeSink{}, zerolog.Nop())
	t.Cleanup(s.Close)

	assert.ErrorIs(t, s.AcknowledgeBriefing(), ErrInvalidTransition)
	assert.ErrorIs(t, s.SetAnswer(model.Answer{Value: "x"}), ErrNotAnswering)
	assert.ErrorIs(t, s.RequestEnd(), ErrNotAnswering)
	assert.ErrorIs(t, s.ConfirmEnd(context.Background()), ErrInvalidTransition)

	_, err := s.Report()
	assert.ErrorIs(t, err, ErrNotFinished)

	require.NoError(t, s.SelectTimeMode(model.TimeModeTimed))
	assert.ErrorIs(t, s.SelectTimeMode(model.TimeModeTimed), ErrInvalidTransition)
}

func TestSessionLoadFailureIsRetryable(t *testing.T) {
	source := &fakeSource{err: errors.New("upstream down")}
	s := New(uuid.New(), Config{SectionID: "sec-1"}, source, &fakeSink{}, zerolog.Nop())
	t.Cleanup(s.Close)

	require.NoError(t, s.SelectTimeMode(model.TimeModeUntimed))
	require.Error(t, s.AcknowledgeBriefing())

	// Stuck in Preparing with the error surfaced, not dead.
	assert.Equal(t, model.StatePreparing, s.State())
	assert.EqualError(t, s.LoadError(), "upstream down")

	source.err = nil
	source.payload = sectionPayload(2)
	require.NoError(t, s.RetryLoad())
	assert.Equal(t, model.StateAnswering, s.State())
	assert.NoError(t, s.LoadError())
	assert.Equal(t, 2, source.calls)
}

func TestSessionFinishesDespiteSinkFailure(t *testing.T) {
	source := &fakeSource{payload: sectionPayload(2)}
	sink := &fakeSink{err: errors.New("queue unavailable")}
	s := startedSession(t, source, sink)

	require.NoError(t, s.SetAnswer(model.Answer{Value: "alpha"}))
	require.NoError(t, s.RequestEnd())
	require.NoError(t, s.ConfirmEnd(context.Background()))

	assert.Equal(t, model.StateFinished, s.State())

	// Local grading still produced a report.
	rep, err := s.Report()
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Summary.CorrectCount)
}

func TestSessionPrefersServerGrading(t *testing.T) {
	source := &fakeSource{payload: sectionPayload(2)}
	sink := &fakeSink{results: []score.AnswerResult{
		{UserAnswer: "beta", IsCorrect: true},
		{UserAnswer: "beta", IsCorrect: true},
	}}
	s := startedSession(t, source, sink)

	// Locally wrong answers, but the server says both are correct.
	require.NoError(t, s.SetAnswer(model.Answer{Value: "beta"}))
	require.NoError(t, s.GoToNext())
	require.NoError(t, s.SetAnswer(model.Answer{Value: "beta"}))

	require.NoError(t, s.RequestEnd())
	require.NoError(t, s.ConfirmEnd(context.Background()))

	rep, err := s.Report()
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Summary.CorrectCount)
	assert.Equal(t, 0, rep.Summary.IncorrectCount)
}

func TestSessionSkipsRecordsWithMissingIdentifiers(t *testing.T) {
	records := []map[string]any{
		{
			"answerId": "ans-1",
			"question": map[string]any{
				"questionId":      "orig-1",
				"questionType":    "CHOICE",
				"questionContent": "Complete",
			},
		},
		{
			// No answerId: the question is usable but never submitted.
			"question": map[string]any{
				"questionId":      "orig-2",
				"questionType":    "CHOICE",
				"questionContent": "Missing answer id",
			},
		},
	}
	raw, _ := json.Marshal(records)

	source := &fakeSource{payload: raw}
	sink := &fakeSink{}
	s := startedSession(t, source, sink)

	require.NoError(t, s.RequestEnd())
	require.NoError(t, s.ConfirmEnd(context.Background()))

	require.NotNil(t, sink.batch)
	require.Len(t, sink.batch.Records, 1)
	assert.Equal(t, "ans-1", sink.batch.Records[0].AnswerID)

	// Scoring still covers both questions.
	rep, err := s.Report()
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Summary.TotalQuestions)
}

func TestSessionSnapshot(t *testing.T) {
	source := &fakeSource{payload: sectionPayload(3)}
	s := startedSession(t, source, &fakeSink{})

	require.NoError(t, s.SetAnswer(model.Answer{Value: "alpha"}))
	require.NoError(t, s.ToggleReviewMark())
	require.NoError(t, s.GoToNext())

	snap := s.Snapshot()
	assert.Equal(t, s.ID(), snap.SessionID)
	assert.Equal(t, model.StateAnswering, snap.State)
	assert.Equal(t, "Verbal Reasoning", snap.SectionName)
	assert.Equal(t, 3, snap.TotalQuestions)
	assert.Equal(t, 2, snap.CurrentQuestion)
	assert.Equal(t, 1, snap.AnsweredCount)
	assert.Equal(t, []int{1}, snap.MarkedQuestions)
	assert.False(t, snap.Timed)
	assert.Empty(t, snap.LoadError)
}

func TestSessionCurrentViewHidesAnswerKey(t *testing.T) {
	source := &fakeSource{payload: sectionPayload(1)}
	s := startedSession(t, source, &fakeSink{})

	view, err := s.CurrentView()
	require.NoError(t, err)
	assert.Equal(t, 1, view.ID)
	assert.Contains(t, view.RenderedPrompt, "Prompt 1")
	assert.Equal(t, []string{"alpha", "beta", "gamma", "delta"}, view.Options)
	// The key never leaves the server before the report.
	raw, _ := json.Marshal(view)
	assert.NotContains(t, string(raw), "correct")
}

func TestSessionAnnotationFlow(t *testing.T) {
	source := &fakeSource{payload: sectionPayload(1)}
	s := startedSession(t, source, &fakeSink{})

	require.NoError(t, s.CaptureSelection("Prompt", 10, 20))
	require.NoError(t, s.AddHighlight(model.MarkerYellow))

	view, err := s.CurrentView()
	require.NoError(t, err)
	assert.Contains(t, view.RenderedPrompt, "annotation-yellow")
	require.Len(t, view.Highlights, 1)

	require.NoError(t, s.CaptureSelection("Prompt", 10, 20))
	note, saved, err := s.SaveNote("check the first word")
	require.NoError(t, err)
	require.True(t, saved)
	assert.Equal(t, "Prompt", note.SelectedText)

	require.NoError(t, s.DeleteNote(note.ID))
	view, err = s.CurrentView()
	require.NoError(t, err)
	assert.Empty(t, view.Notes)
}

// blockingSource parks in FetchSection until the context is cancelled,
// with a slow fallback so a missed cancellation fails the test by time.
type blockingSource struct {
	entered chan struct{}
}

func (b *blockingSource) FetchSection(ctx context.Context, _ string) (json.RawMessage, error) {
	close(b.entered)
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(3 * time.Second):
		return sectionPayload(1), nil
	}
}

func TestSessionCloseCancelsInFlightFetch(t *testing.T) {
	source := &blockingSource{entered: make(chan struct{})}
	s := New(uuid.New(), Config{SectionID: "sec-1"}, source, &fakeSink{}, zerolog.Nop())

	require.NoError(t, s.SelectTimeMode(model.TimeModeUntimed))

	ackErr := make(chan error, 1)
	go func() { ackErr <- s.AcknowledgeBriefing() }()
	<-source.entered

	start := time.Now()
	s.Close()
	assert.Less(t, time.Since(start), time.Second, "Close must not wait out the fetch")

	select {
	case err := <-ackErr:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("fetch never observed the cancellation")
	}
	assert.Equal(t, model.StatePreparing, s.State())
}

func TestSessionTimerExpiryAutoSubmits(t *testing.T) {
	records := []map[string]any{{
		"answerId":      "ans-1",
		"sectionTiming": 2,
		"question": map[string]any{
			"questionId":      "orig-1",
			"questionType":    "CHOICE",
			"questionContent": "Timed prompt",
			"options":         []string{"alpha", "beta", "gamma", "delta"},
			"correctAnswer":   "alpha",
		},
	}}
	raw, _ := json.Marshal(records)

	source := &fakeSource{payload: raw}
	sink := &fakeSink{}
	s := New(uuid.New(), Config{SectionID: "sec-1"}, source, sink, zerolog.Nop())
	t.Cleanup(s.Close)

	require.NoError(t, s.SelectTimeMode(model.TimeModeTimed))
	require.NoError(t, s.AcknowledgeBriefing())
	require.NoError(t, s.SetAnswer(model.Answer{Value: "alpha"}))

	// Drive the countdown to zero directly instead of sleeping it out.
	for s.timer.tick() {
	}

	assert.Equal(t, model.StateFinished, s.State())
	require.NotNil(t, sink.batch, "expiry must run the submission sequence")
	assert.Equal(t, "alpha", sink.batch.Records[0].UserAnswer)

	rep, err := s.Report()
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Summary.CorrectCount)
}

func TestSessionTimedUsesSectionTiming(t *testing.T) {
	records := []map[string]any{{
		"answerId":      "ans-1",
		"sectionTiming": 600,
		"question": map[string]any{
			"questionId":      "orig-1",
			"questionType":    "CHOICE",
			"questionContent": "Timed prompt",
		},
	}}
	raw, _ := json.Marshal(records)

	source := &fakeSource{payload: raw}
	s := New(uuid.New(), Config{SectionID: "sec-1", DefaultTimedSeconds: 2095}, source, &fakeSink{}, zerolog.Nop())
	t.Cleanup(s.Close)

	require.NoError(t, s.SelectTimeMode(model.TimeModeTimed))
	require.NoError(t, s.AcknowledgeBriefing())

	snap := s.Snapshot()
	assert.True(t, snap.Timed)
	assert.Equal(t, 600, snap.RemainingSeconds)
	assert.Equal(t, "10:00", snap.Clock)
}
