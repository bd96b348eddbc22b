package session

import (
	"errors"
	"time"

	"github.com/prepline/examroom/internal/model"
)

// ErrQuestionOutOfRange is returned by GoTo for a target outside 1..N.
// Callers should not offer invalid targets; this is a violated
// precondition, not a recoverable path.
var ErrQuestionOutOfRange = errors.New("question id out of range")

// ProgressTracker tracks the current-question pointer, the answer store,
// the review-mark set and the per-question elapsed-time accumulator for
// one session.
//
// Elapsed time is recorded only at the moment of navigating away from a
// question (or at finalize), never by a running clock, so repeated visits
// accumulate additively.
type ProgressTracker struct {
	total   int
	current int
	answers map[int]model.Answer
	marked  map[int]struct{}
	elapsed map[int]int
	entryAt time.Time
	now     func() time.Time
}

// NewProgressTracker starts a tracker positioned on question 1. The clock
// is injectable for tests; nil means time.Now.
func NewProgressTracker(total int, now func() time.Time) *ProgressTracker {
	if now == nil {
		now = time.Now
	}
	p := &ProgressTracker{
		total:   total,
		current: 1,
		answers: make(map[int]model.Answer),
		marked:  make(map[int]struct{}),
		elapsed: make(map[int]int),
		now:     now,
	}
	p.answers[1] = model.Answer{}
	p.entryAt = now()
	return p
}

// Current returns the 1-based id of the question in view.
func (p *ProgressTracker) Current() int { return p.current }

// Total returns the question count.
func (p *ProgressTracker) Total() int { return p.total }

// SetAnswer replaces the answer for the current question. No effect on
// timing.
func (p *ProgressTracker) SetAnswer(a model.Answer) {
	p.answers[p.current] = a
}

// Answer returns the stored answer for a question id.
func (p *ProgressTracker) Answer(id int) (model.Answer, bool) {
	a, ok := p.answers[id]
	return a, ok
}

// Answers returns a copy of the answer map.
func (p *ProgressTracker) Answers() map[int]model.Answer {
	out := make(map[int]model.Answer, len(p.answers))
	for k, v := range p.answers {
		out[k] = v
	}
	return out
}

// AnsweredCount reports how many questions hold a non-empty answer.
func (p *ProgressTracker) AnsweredCount() int {
	n := 0
	for _, a := range p.answers {
		if !a.IsEmpty() {
			n++
		}
	}
	return n
}

// ToggleReviewMark flips the review mark on the current question. Purely
// advisory: no effect on scoring or navigation legality.
func (p *ProgressTracker) ToggleReviewMark() {
	if _, ok := p.marked[p.current]; ok {
		delete(p.marked, p.current)
		return
	}
	p.marked[p.current] = struct{}{}
}

// IsMarked reports whether a question carries the review mark.
func (p *ProgressTracker) IsMarked(id int) bool {
	_, ok := p.marked[id]
	return ok
}

// MarkedIDs returns the review-marked question ids in ascending order.
func (p *ProgressTracker) MarkedIDs() []int {
	out := make([]int, 0, len(p.marked))
	for id := 1; id <= p.total; id++ {
		if _, ok := p.marked[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

// GoTo switches to the given question, flushing the outgoing question's
// elapsed time first and resetting the entry timestamp after the switch.
func (p *ProgressTracker) GoTo(id int) error {
	if id < 1 || id > p.total {
		return ErrQuestionOutOfRange
	}
	p.flushElapsed()
	p.current = id
	if _, ok := p.answers[id]; !ok {
		p.answers[id] = model.Answer{}
	}
	return nil
}

// GoToNext advances one question, clamped at the last.
func (p *ProgressTracker) GoToNext() {
	if p.current >= p.total {
		return
	}
	_ = p.GoTo(p.current + 1)
}

// GoToPrevious steps back one question, clamped at the first.
func (p *ProgressTracker) GoToPrevious() {
	if p.current <= 1 {
		return
	}
	_ = p.GoTo(p.current - 1)
}

// FinalizeCurrent flushes the current question's elapsed time without
// moving. Used once at submission so the last question's time is counted.
func (p *ProgressTracker) FinalizeCurrent() {
	p.flushElapsed()
}

// ResetTiming restarts the entry timestamp. Called when the session enters
// Answering so briefing time never counts against the first question.
func (p *ProgressTracker) ResetTiming() {
	p.entryAt = p.now()
}

// ElapsedSeconds returns the accumulated whole seconds for a question.
func (p *ProgressTracker) ElapsedSeconds(id int) int { return p.elapsed[id] }

// ElapsedAll returns a copy of the elapsed-time map.
func (p *ProgressTracker) ElapsedAll() map[int]int {
	out := make(map[int]int, len(p.elapsed))
	for k, v := range p.elapsed {
		out[k] = v
	}
	return out
}

func (p *ProgressTracker) flushElapsed() {
	now := p.now()
	p.elapsed[p.current] += int(now.Sub(p.entryAt).Seconds())
	p.entryAt = now
}
