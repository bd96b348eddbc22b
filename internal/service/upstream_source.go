package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/prepline/examroom/internal/config"
)

// UpstreamSource fetches section payloads from the remote exam platform
// over HTTP. It implements session.QuestionSource for deployments that
// proxy instead of hosting a local question bank.
type UpstreamSource struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

// NewUpstreamSource creates a new UpstreamSource.
func NewUpstreamSource(cfg *config.Config, log zerolog.Logger) *UpstreamSource {
	return &UpstreamSource{
		baseURL: cfg.UpstreamBaseURL,
		client:  &http.Client{Timeout: cfg.UpstreamTimeout},
		log:     log.With().Str("component", "upstream_source").Logger(),
	}
}

// FetchSection retrieves the raw payload for a section. The body is
// returned as-is; normalization tolerates both the bare array and the
// {code,data} envelope the platform serves.
func (s *UpstreamSource) FetchSection(ctx context.Context, sectionID string) (json.RawMessage, error) {
	url := fmt.Sprintf("%s/sections/%s/questions", s.baseURL, sectionID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch section %s: %w", sectionID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch section %s: upstream returned %d", sectionID, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	s.log.Debug().Str("section_id", sectionID).Int("bytes", len(body)).Msg("Fetched upstream section")
	return body, nil
}
