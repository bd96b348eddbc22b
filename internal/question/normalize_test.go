package question

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/prepline/examroom/internal/model"
)

func mustNormalize(t *testing.T, payload string) *Section {
	t.Helper()
	section, err := Normalize(json.RawMessage(payload), zerolog.Nop())
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	return section
}

func TestNormalizeObjectByLetterOptions(t *testing.T) {
	payload := `[{"question":{"options":"{\"A\":\"x\",\"B\":\"y\",\"C\":\"z\",\"D\":\"w\"}","questionType":"CHOICE","questionContent":"Q1"}}]`
	section := mustNormalize(t, payload)

	if len(section.Questions) != 1 {
		t.Fatalf("expected 1 question, got %d", len(section.Questions))
	}
	q := section.Questions[0]
	if q.ID != 1 || q.Type != model.QuestionTypeChoice {
		t.Errorf("id/type = %d/%s", q.ID, q.Type)
	}
	want := []string{"x", "y", "z", "w"}
	for i, opt := range q.Options {
		if opt != want[i] {
			t.Errorf("options = %v, want %v", q.Options, want)
			break
		}
	}
}

func TestNormalizeOptionVariants(t *testing.T) {
	tests := []struct {
		name    string
		options string // raw JSON for the options field
		want    []string
	}{
		{"array of pairs", `[{"option":"A","content":"one"},{"option":"B","content":"two"}]`, []string{"one", "two", "", ""}},
		{"double-encoded pairs", `"[{\"option\":\"A\",\"content\":\"one\"}]"`, []string{"one", "", "", ""}},
		{"already normalized", `["p","q","r","s"]`, []string{"p", "q", "r", "s"}},
		{"comma separated", `"red, green, blue"`, []string{"red", "green", "blue", ""}},
		{"object by letter unordered", `{"D":"4","A":"1","C":"3","B":"2"}`, []string{"1", "2", "3", "4"}},
		{"missing", `null`, []string{"", "", "", ""}},
		{"five entries truncated", `["a","b","c","d","e"]`, []string{"a", "b", "c", "d"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			payload := `[{"question":{"questionType":"CHOICE","questionContent":"Q","options":` + tc.options + `}}]`
			q := mustNormalize(t, payload).Questions[0]

			if len(q.Options) != model.ChoiceOptionCount {
				t.Fatalf("options length = %d, want %d", len(q.Options), model.ChoiceOptionCount)
			}
			for i := range tc.want {
				if q.Options[i] != tc.want[i] {
					t.Errorf("options = %v, want %v", q.Options, tc.want)
					break
				}
			}
		})
	}
}

func TestNormalizeDenseIDs(t *testing.T) {
	// Two malformed entries interleaved with three good ones: survivors
	// must be renumbered 1..3 with no gaps.
	payload := `[
		{"question":{"questionContent":"first","questionType":"CHOICE"}},
		"garbage",
		{"question":{"questionContent":"second","questionType":"CHOICE"}},
		42,
		{"question":{"questionContent":"third","questionType":"CHOICE"}}
	]`
	section := mustNormalize(t, payload)

	if section.Dropped != 2 {
		t.Errorf("dropped = %d, want 2", section.Dropped)
	}
	if len(section.Questions) != 3 {
		t.Fatalf("kept = %d, want 3", len(section.Questions))
	}
	for i, q := range section.Questions {
		if q.ID != i+1 {
			t.Errorf("question %d has id %d", i, q.ID)
		}
	}
}

func TestNormalizeEnvelope(t *testing.T) {
	payload := `{"code":0,"data":[{"answerId":77,"question":{"questionId":"orig-9","questionContent":"wrapped","questionType":"CHOICE"}}]}`
	section := mustNormalize(t, payload)

	if len(section.Questions) != 1 {
		t.Fatalf("kept = %d", len(section.Questions))
	}
	corr := section.Correlation[1]
	if corr.AnswerID != "77" {
		t.Errorf("answer id = %q, want 77", corr.AnswerID)
	}
	if corr.OriginalID != "orig-9" {
		t.Errorf("original id = %q, want orig-9", corr.OriginalID)
	}
}

func TestNormalizeKeepsIdentifierSpacesSeparate(t *testing.T) {
	payload := `[
		{"answerId":"a-2","question":{"questionId":900,"questionContent":"x","questionType":"CHOICE"}},
		{"answerId":"a-1","question":{"questionId":901,"questionContent":"y","questionType":"CHOICE"}}
	]`
	section := mustNormalize(t, payload)

	// Internal ids are positional; original ids stay verbatim.
	if section.Questions[0].ID != 1 || section.Questions[0].OriginalID != "900" {
		t.Errorf("q1 = %+v", section.Questions[0])
	}
	if section.Correlation[2].OriginalID != "901" || section.Correlation[2].AnswerID != "a-1" {
		t.Errorf("correlation[2] = %+v", section.Correlation[2])
	}
}

func TestNormalizePlaceholderForMissingContent(t *testing.T) {
	payload := `[
		{"question":{"questionContent":"real","questionType":"CHOICE"}},
		{"question":{"questionType":"CHOICE"}}
	]`
	section := mustNormalize(t, payload)

	if len(section.Questions) != 2 {
		t.Fatalf("kept = %d, want 2 (placeholder must not be dropped)", len(section.Questions))
	}
	if section.Questions[1].PromptText != "Question 2 (content unavailable)" {
		t.Errorf("placeholder prompt = %q", section.Questions[1].PromptText)
	}
}

func TestNormalizeLegacyTypeLabels(t *testing.T) {
	payload := `[
		{"question":{"questionContent":"a","questionType":"选择题"}},
		{"question":{"questionContent":"b","questionType":"填空题"}},
		{"question":{"questionContent":"c","questionType":"blank"}}
	]`
	section := mustNormalize(t, payload)

	if section.Questions[0].Type != model.QuestionTypeChoice {
		t.Errorf("legacy choice label mapped to %s", section.Questions[0].Type)
	}
	if section.Questions[1].Type != model.QuestionTypeBlank {
		t.Errorf("legacy blank label mapped to %s", section.Questions[1].Type)
	}
	if section.Questions[2].Type != model.QuestionTypeBlank {
		t.Errorf("lowercase code mapped to %s", section.Questions[2].Type)
	}
}

func TestNormalizeImageExtraction(t *testing.T) {
	payload := `[{"question":{"questionType":"CHOICE","questionContent":"Look at ![diagram](https://cdn.example.com/d.png) and https://cdn.example.com/photo.jpg then answer"}}]`
	q := mustNormalize(t, payload).Questions[0]

	if len(q.Images) != 2 {
		t.Fatalf("images = %v", q.Images)
	}
	if q.Images[0].URL != "https://cdn.example.com/d.png" || q.Images[0].AltText != "diagram" {
		t.Errorf("markdown image = %+v", q.Images[0])
	}
	if q.Images[1].AltText != "Question image 2" {
		t.Errorf("generated alt = %q", q.Images[1].AltText)
	}
	if q.PromptText != "Look at and then answer" {
		t.Errorf("cleaned prompt = %q", q.PromptText)
	}
}

func TestNormalizeBlankSlots(t *testing.T) {
	payload := `[
		{"question":{"questionType":"BLANK","questionContent":"fill","blanks":[{"blankId":"b1","placeholder":"first"},{"id":7}]}},
		{"question":{"questionType":"BLANK","questionContent":"bare"}}
	]`
	section := mustNormalize(t, payload)

	q := section.Questions[0]
	if len(q.Blanks) != 2 || q.Blanks[0].BlankID != "b1" || q.Blanks[1].BlankID != "7" {
		t.Errorf("blanks = %+v", q.Blanks)
	}
	if len(q.Options) != 0 {
		t.Errorf("blank question should have no options, got %v", q.Options)
	}
	if len(section.Questions[1].Blanks) != 1 {
		t.Errorf("blank question without declared slots should get one, got %+v", section.Questions[1].Blanks)
	}
}

func TestNormalizeNoValidQuestions(t *testing.T) {
	for _, payload := range []string{`[]`, `["junk", 1, null]`} {
		_, err := Normalize(json.RawMessage(payload), zerolog.Nop())
		if !errors.Is(err, ErrNoValidQuestions) {
			t.Errorf("payload %s: err = %v, want ErrNoValidQuestions", payload, err)
		}
	}
}

func TestNormalizeSectionMetadata(t *testing.T) {
	payload := `[{"sectionName":"Reading","sectionTiming":2095,"question":{"questionContent":"x","questionType":"CHOICE"}}]`
	section := mustNormalize(t, payload)

	if section.Name != "Reading" || section.TimingSeconds != 2095 {
		t.Errorf("section metadata = %q/%d", section.Name, section.TimingSeconds)
	}
}
