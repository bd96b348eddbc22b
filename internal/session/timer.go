package session

import (
	"context"
	"sync"
	"time"

	"github.com/prepline/examroom/internal/textfmt"
)

// ExamTimer is the single countdown clock for a session. It decrements
// once per wall-clock second, holds at zero, and fires its expiry callback
// exactly once. In untimed mode every method is a no-op.
type ExamTimer struct {
	mu        sync.Mutex
	remaining int
	timed     bool
	running   bool
	expired   bool
	stop      chan struct{}
	onExpire  func()
}

// NewExamTimer creates a timer holding totalSeconds. onExpire may be nil.
func NewExamTimer(totalSeconds int, timed bool, onExpire func()) *ExamTimer {
	if totalSeconds < 0 {
		totalSeconds = 0
	}
	return &ExamTimer{
		remaining: totalSeconds,
		timed:     timed,
		onExpire:  onExpire,
	}
}

// Start begins ticking. The countdown stops when Stop is called, the
// context is cancelled, or the clock reaches zero. Starting an untimed or
// already-running timer does nothing.
func (t *ExamTimer) Start(ctx context.Context) {
	t.mu.Lock()
	if !t.timed || t.running || t.remaining == 0 {
		t.mu.Unlock()
		return
	}
	t.running = true
	t.stop = make(chan struct{})
	stop := t.stop
	t.mu.Unlock()

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				t.Stop()
				return
			case <-stop:
				return
			case <-ticker.C:
				if !t.tick() {
					return
				}
			}
		}
	}()
}

// tick advances the countdown one second. Returns false once the timer has
// reached zero and must stop. The expiry callback runs outside the lock.
func (t *ExamTimer) tick() bool {
	t.mu.Lock()
	if !t.timed || t.remaining == 0 {
		t.mu.Unlock()
		return false
	}
	t.remaining--
	done := t.remaining == 0
	var expire func()
	if done && !t.expired {
		t.expired = true
		expire = t.onExpire
	}
	if done {
		t.running = false
	}
	t.mu.Unlock()

	if expire != nil {
		expire()
	}
	return !done
}

// Stop halts ticking. Safe to call repeatedly and on never-started timers.
func (t *ExamTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running && t.stop != nil {
		close(t.stop)
		t.stop = nil
	}
	t.running = false
}

// Remaining returns the seconds left (zero for untimed timers' callers to
// ignore via Timed).
func (t *ExamTimer) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remaining
}

// Timed reports whether the countdown is active for this session mode.
func (t *ExamTimer) Timed() bool { return t.timed }

// Clock renders the remaining time as M:SS.
func (t *ExamTimer) Clock() string {
	return textfmt.FormatClock(t.Remaining())
}
