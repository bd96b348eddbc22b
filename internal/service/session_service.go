package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/prepline/examroom/internal/config"
	"github.com/prepline/examroom/internal/session"
)

// ErrSessionNotFound signals an unknown or already-closed session id.
var ErrSessionNotFound = errors.New("session not found")

// SessionService owns the live session registry. Sessions are in-memory
// actors; only the finished report survives eviction, cached in Redis.
type SessionService struct {
	cfg    *config.Config
	source session.QuestionSource
	sink   session.SubmissionSink
	rdb    *redis.Client
	log    zerolog.Logger

	mu       sync.RWMutex
	sessions map[uuid.UUID]*session.Session
}

// NewSessionService creates a new SessionService.
func NewSessionService(cfg *config.Config, source session.QuestionSource, sink session.SubmissionSink, rdb *redis.Client, log zerolog.Logger) *SessionService {
	return &SessionService{
		cfg:      cfg,
		source:   source,
		sink:     sink,
		rdb:      rdb,
		log:      log.With().Str("component", "session_service").Logger(),
		sessions: make(map[uuid.UUID]*session.Session),
	}
}

// Create starts a new session for a section and registers it.
func (s *SessionService) Create(sectionID string) *session.Session {
	id := uuid.New()
	sess := session.New(id, session.Config{
		SectionID:           sectionID,
		DefaultTimedSeconds: s.cfg.DefaultTimedSeconds,
	}, s.source, s.sink, s.log)

	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()

	s.log.Info().Str("session_id", id.String()).Str("section_id", sectionID).Msg("Session created")
	return sess
}

// Count returns the number of live sessions.
func (s *SessionService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Get looks up a live session.
func (s *SessionService) Get(id uuid.UUID) (*session.Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Close evicts a session and releases its resources. If the session has
// finished, its report is cached first so the result page outlives the
// in-memory actor.
func (s *SessionService) Close(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
	}
	s.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}

	if rep, err := sess.Report(); err == nil {
		s.cacheReport(ctx, rep)
	}
	sess.Close()
	s.log.Info().Str("session_id", id.String()).Msg("Session closed")
	return nil
}

// CacheReport stores a finished session's report.
func (s *SessionService) CacheReport(ctx context.Context, sess *session.Session) {
	rep, err := sess.Report()
	if err != nil {
		return
	}
	s.cacheReport(ctx, rep)
}

func (s *SessionService) cacheReport(ctx context.Context, rep session.Report) {
	raw, err := json.Marshal(rep)
	if err != nil {
		s.log.Error().Err(err).Msg("Marshal report failed")
		return
	}
	key := config.CacheKey.SessionReportKey(rep.SessionID.String())
	if err := s.rdb.Set(ctx, key, raw, s.cfg.ReportCacheTTL).Err(); err != nil {
		s.log.Warn().Err(err).Str("session_id", rep.SessionID.String()).Msg("Report cache write failed")
	}
}

// CachedReport retrieves the report of an evicted session.
func (s *SessionService) CachedReport(ctx context.Context, id uuid.UUID) (*session.Report, error) {
	raw, err := s.rdb.Get(ctx, config.CacheKey.SessionReportKey(id.String())).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read cached report: %w", err)
	}

	var rep session.Report
	if err := json.Unmarshal([]byte(raw), &rep); err != nil {
		return nil, fmt.Errorf("decode cached report: %w", err)
	}
	return &rep, nil
}

// PublishSnapshot broadcasts a session snapshot on its monitor channel.
// Best effort; monitoring never blocks the exam.
func (s *SessionService) PublishSnapshot(ctx context.Context, sess *session.Session) {
	snap := sess.Snapshot()
	raw, err := json.Marshal(snap)
	if err != nil {
		return
	}
	channel := config.CacheKey.SessionMonitorChannel(snap.SessionID.String())
	if err := s.rdb.Publish(ctx, channel, raw).Err(); err != nil {
		s.log.Debug().Err(err).Msg("Snapshot publish failed")
	}
}

// Shutdown closes every live session, caching finished reports.
func (s *SessionService) Shutdown(ctx context.Context) {
	s.mu.Lock()
	sessions := make([]*session.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.sessions = make(map[uuid.UUID]*session.Session)
	s.mu.Unlock()

	for _, sess := range sessions {
		if rep, err := sess.Report(); err == nil {
			s.cacheReport(ctx, rep)
		}
		sess.Close()
	}
	s.log.Info().Int("sessions", len(sessions)).Msg("All sessions closed")
}
