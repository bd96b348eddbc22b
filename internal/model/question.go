package model

// QuestionType enumerates the internal question taxonomy.
type QuestionType string

const (
	QuestionTypeChoice QuestionType = "CHOICE"
	QuestionTypeBlank  QuestionType = "BLANK"
)

// ChoiceOptionCount is the fixed number of options every CHOICE question
// carries after normalization, regardless of how many the source provided.
const ChoiceOptionCount = 4

// QuestionImage is an image extracted from question content.
type QuestionImage struct {
	URL     string `json:"url"`
	AltText string `json:"alt_text"`
}

// BlankSlot is a single fill-in slot of a BLANK question.
type BlankSlot struct {
	BlankID     string `json:"blank_id"`
	Placeholder string `json:"placeholder"`
}

// Question is the uniform internal question model. Immutable once normalized.
//
// ID is the dense 1-based position within the section and is used for every
// internal lookup. OriginalID is the opaque backend identifier preserved
// verbatim for submission correlation only — the two identifier spaces must
// never be conflated.
type Question struct {
	ID              int             `json:"id"`
	OriginalID      string          `json:"original_id"`
	Type            QuestionType    `json:"type"`
	PromptText      string          `json:"prompt_text"`
	DescriptionText string          `json:"description_text,omitempty"`
	Images          []QuestionImage `json:"images,omitempty"`
	Options         []string        `json:"options,omitempty"`
	Blanks          []BlankSlot     `json:"blanks,omitempty"`
	CorrectAnswer   string          `json:"correct_answer,omitempty"`
	Analysis        string          `json:"analysis,omitempty"`
	Difficulty      string          `json:"difficulty,omitempty"`
	Category        string          `json:"category,omitempty"`
	SubCategory     string          `json:"sub_category,omitempty"`
}
