// Package question normalizes heterogeneous backend question records into
// the uniform internal Question model.
package question

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/prepline/examroom/internal/model"
)

// ErrNoValidQuestions signals that nothing usable survived normalization,
// so the caller can show a distinct empty state instead of a generic error.
var ErrNoValidQuestions = errors.New("no valid questions after normalization")

// Correlation maps a session-internal question id back to the backend
// identifiers needed for submission.
type Correlation struct {
	AnswerID   string `json:"answer_id"`
	OriginalID string `json:"original_id"`
}

// Section is the normalized output of one raw question payload.
type Section struct {
	Questions     []model.Question    `json:"questions"`
	Correlation   map[int]Correlation `json:"correlation"`
	Name          string              `json:"name,omitempty"`
	TimingSeconds int                 `json:"timing_seconds,omitempty"`
	Dropped       int                 `json:"dropped"`
}

// rawRecord is the backend wrapper around a single question.
type rawRecord struct {
	AnswerID      flexString  `json:"answerId"`
	SectionName   string      `json:"sectionName"`
	SectionTiming int         `json:"sectionTiming"`
	Question      rawQuestion `json:"question"`
}

// rawQuestion tolerates the known field-shape drift across endpoints.
type rawQuestion struct {
	ID            flexString      `json:"id"`
	QuestionID    flexString      `json:"questionId"`
	Type          string          `json:"questionType"`
	Content       string          `json:"questionContent"`
	Description   string          `json:"questionDescription"`
	Options       json.RawMessage `json:"options"`
	Blanks        []rawBlank      `json:"blanks"`
	CorrectAnswer flexString      `json:"correctAnswer"`
	Analysis      string          `json:"analysis"`
	Difficulty    flexString      `json:"difficulty"`
	Category      string          `json:"category"`
	SubCategory   string          `json:"subCategory"`
}

type rawBlank struct {
	BlankID     flexString `json:"blankId"`
	ID          flexString `json:"id"`
	Placeholder string     `json:"placeholder"`
}

// envelope is the `{code, data}` wrapper some endpoints add around the
// record array.
type envelope struct {
	Data json.RawMessage `json:"data"`
}

// ParsePayload accepts either a raw JSON array of records or a {code,data}
// envelope wrapping one, and returns the individual record documents.
func ParsePayload(payload json.RawMessage) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return nil, errors.New("empty payload")
	}

	if trimmed[0] == '{' {
		var env envelope
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, fmt.Errorf("decode envelope: %w", err)
		}
		if len(bytes.TrimSpace(env.Data)) == 0 {
			return nil, errors.New("envelope has no data field")
		}
		trimmed = bytes.TrimSpace(env.Data)
	}

	var records []json.RawMessage
	if err := json.Unmarshal(trimmed, &records); err != nil {
		return nil, fmt.Errorf("decode record list: %w", err)
	}
	return records, nil
}

// Normalize converts a raw backend payload into a Section with a dense
// 1..N question list. Records that are not JSON objects are dropped and
// counted; records missing content still yield placeholder questions so
// downstream indices stay dense.
func Normalize(payload json.RawMessage, log zerolog.Logger) (*Section, error) {
	records, err := ParsePayload(payload)
	if err != nil {
		return nil, err
	}

	section := &Section{Correlation: make(map[int]Correlation)}

	for _, doc := range records {
		trimmed := bytes.TrimSpace(doc)
		if len(trimmed) == 0 || trimmed[0] != '{' {
			section.Dropped++
			continue
		}

		var rec rawRecord
		if err := json.Unmarshal(trimmed, &rec); err != nil {
			section.Dropped++
			continue
		}

		id := len(section.Questions) + 1
		q := buildQuestion(id, rec.Question)
		section.Questions = append(section.Questions, q)
		section.Correlation[id] = Correlation{
			AnswerID:   string(rec.AnswerID),
			OriginalID: q.OriginalID,
		}

		if section.Name == "" {
			section.Name = rec.SectionName
		}
		if section.TimingSeconds == 0 {
			section.TimingSeconds = rec.SectionTiming
		}
	}

	if section.Dropped > 0 {
		log.Warn().
			Int("dropped", section.Dropped).
			Int("kept", len(section.Questions)).
			Msg("Dropped malformed question records")
	}

	if len(section.Questions) == 0 {
		return nil, ErrNoValidQuestions
	}
	return section, nil
}

func buildQuestion(id int, raw rawQuestion) model.Question {
	q := model.Question{
		ID:            id,
		OriginalID:    originalID(raw),
		Type:          mapQuestionType(raw.Type),
		CorrectAnswer: string(raw.CorrectAnswer),
		Analysis:      raw.Analysis,
		Difficulty:    string(raw.Difficulty),
		Category:      raw.Category,
		SubCategory:   raw.SubCategory,
	}

	if strings.TrimSpace(raw.Content) == "" {
		q.PromptText = fmt.Sprintf("Question %d (content unavailable)", id)
	} else {
		q.PromptText, q.Images = extractImages(raw.Content)
	}
	q.DescriptionText = strings.TrimSpace(raw.Description)

	switch q.Type {
	case model.QuestionTypeChoice:
		q.Options = parseOptions(raw.Options)
	case model.QuestionTypeBlank:
		q.Blanks = buildBlanks(raw.Blanks)
	}
	return q
}

// originalID prefers the explicit questionId field, falling back to id.
// Preserved verbatim — only used for submission correlation.
func originalID(raw rawQuestion) string {
	if raw.QuestionID != "" {
		return string(raw.QuestionID)
	}
	return string(raw.ID)
}

// mapQuestionType accepts the uppercase taxonomy codes as well as the
// legacy localized labels still present in older question banks.
func mapQuestionType(raw string) model.QuestionType {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "CHOICE":
		return model.QuestionTypeChoice
	case "BLANK":
		return model.QuestionTypeBlank
	}
	switch strings.TrimSpace(raw) {
	case "选择题", "单选题":
		return model.QuestionTypeChoice
	case "填空题":
		return model.QuestionTypeBlank
	}
	// Unrecognized taxonomies render as choice questions with padded
	// options rather than failing the record.
	return model.QuestionTypeChoice
}

func buildBlanks(raws []rawBlank) []model.BlankSlot {
	if len(raws) == 0 {
		// A blank question with no declared slots still needs one input.
		return []model.BlankSlot{{BlankID: "1"}}
	}
	slots := make([]model.BlankSlot, 0, len(raws))
	for i, b := range raws {
		blankID := string(b.BlankID)
		if blankID == "" {
			blankID = string(b.ID)
		}
		if blankID == "" {
			blankID = fmt.Sprintf("%d", i+1)
		}
		slots = append(slots, model.BlankSlot{BlankID: blankID, Placeholder: b.Placeholder})
	}
	return slots
}

// flexString decodes a JSON string, number, or bool into its string form,
// preserving identifiers verbatim regardless of how the backend typed them.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		*f = ""
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	*f = flexString(trimmed)
	return nil
}
