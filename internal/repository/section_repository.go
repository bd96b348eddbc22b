package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrSectionNotFound signals that no payload exists for the section id.
var ErrSectionNotFound = errors.New("section not found")

// SectionRow is one stored question section.
type SectionRow struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Payload   json.RawMessage `json:"payload"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// SectionRepository handles question section data access. Payloads are
// stored as opaque JSONB documents; normalization happens at session
// load, never at rest.
type SectionRepository struct {
	pool *pgxpool.Pool
}

// NewSectionRepository creates a new SectionRepository.
func NewSectionRepository(pool *pgxpool.Pool) *SectionRepository {
	return &SectionRepository{pool: pool}
}

// GetPayload retrieves the raw question payload for a section.
func (r *SectionRepository) GetPayload(ctx context.Context, sectionID string) (json.RawMessage, error) {
	var payload json.RawMessage
	err := r.pool.QueryRow(ctx,
		`SELECT payload FROM sections WHERE id = $1`, sectionID,
	).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSectionNotFound
	}
	if err != nil {
		return nil, err
	}
	return payload, nil
}

// List retrieves section ids and names without payloads, for the picker.
func (r *SectionRepository) List(ctx context.Context) ([]SectionRow, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, updated_at FROM sections ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sections []SectionRow
	for rows.Next() {
		var s SectionRow
		if err := rows.Scan(&s.ID, &s.Name, &s.UpdatedAt); err != nil {
			return nil, err
		}
		sections = append(sections, s)
	}
	return sections, rows.Err()
}

// Upsert stores or replaces a section's payload.
func (r *SectionRepository) Upsert(ctx context.Context, id, name string, payload json.RawMessage) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO sections (id, name, payload, updated_at)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (id) DO UPDATE
		 SET name = EXCLUDED.name,
		     payload = EXCLUDED.payload,
		     updated_at = NOW()`,
		id, name, payload,
	)
	return err
}
