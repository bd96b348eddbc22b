package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/prepline/examroom/internal/config"
	"github.com/prepline/examroom/internal/question"
	"github.com/prepline/examroom/internal/repository"
)

// SectionService serves question section payloads from the database with
// a Redis read-through cache. It implements session.QuestionSource.
type SectionService struct {
	cfg      *config.Config
	sections *repository.SectionRepository
	rdb      *redis.Client
	log      zerolog.Logger
}

// NewSectionService creates a new SectionService.
func NewSectionService(cfg *config.Config, sections *repository.SectionRepository, rdb *redis.Client, log zerolog.Logger) *SectionService {
	return &SectionService{
		cfg:      cfg,
		sections: sections,
		rdb:      rdb,
		log:      log.With().Str("component", "section_service").Logger(),
	}
}

// FetchSection returns the raw payload for a section, cache first. Cache
// failures fall through to the database; only the database is
// authoritative.
func (s *SectionService) FetchSection(ctx context.Context, sectionID string) (json.RawMessage, error) {
	cacheKey := config.CacheKey.SectionPayloadKey(sectionID)

	cached, err := s.rdb.Get(ctx, cacheKey).Result()
	if err == nil && cached != "" {
		return json.RawMessage(cached), nil
	}
	if err != nil && !errors.Is(err, redis.Nil) {
		s.log.Warn().Err(err).Str("section_id", sectionID).Msg("Section cache read failed")
	}

	payload, err := s.sections.GetPayload(ctx, sectionID)
	if err != nil {
		return nil, fmt.Errorf("load section %s: %w", sectionID, err)
	}

	if err := s.rdb.Set(ctx, cacheKey, []byte(payload), s.cfg.SectionCacheTTL).Err(); err != nil {
		s.log.Warn().Err(err).Str("section_id", sectionID).Msg("Section cache write failed")
	}
	return payload, nil
}

// List returns the available sections for the picker.
func (s *SectionService) List(ctx context.Context) ([]repository.SectionRow, error) {
	return s.sections.List(ctx)
}

// Import validates and stores a section payload, then invalidates its
// cache entry. The payload must normalize to at least one question.
func (s *SectionService) Import(ctx context.Context, id, name string, payload json.RawMessage) (int, error) {
	section, err := question.Normalize(payload, s.log)
	if err != nil {
		return 0, fmt.Errorf("validate payload: %w", err)
	}

	if name == "" {
		name = section.Name
	}
	if err := s.sections.Upsert(ctx, id, name, payload); err != nil {
		return 0, fmt.Errorf("store section: %w", err)
	}

	if err := s.rdb.Del(ctx, config.CacheKey.SectionPayloadKey(id)).Err(); err != nil {
		s.log.Warn().Err(err).Str("section_id", id).Msg("Section cache invalidation failed")
	}

	s.log.Info().
		Str("section_id", id).
		Int("questions", len(section.Questions)).
		Int("dropped", section.Dropped).
		Msg("Section imported")
	return len(section.Questions), nil
}
