package model

import "encoding/json"

// Answer holds a student's response to one question: either a single value
// (choice letter or free text) or a per-blank value map, never both.
type Answer struct {
	Value  string            `json:"value,omitempty"`
	Blanks map[string]string `json:"blanks,omitempty"`
}

// IsEmpty reports whether no response has been recorded yet. A blanks map
// with only empty values still counts as empty.
func (a Answer) IsEmpty() bool {
	if a.Value != "" {
		return false
	}
	for _, v := range a.Blanks {
		if v != "" {
			return false
		}
	}
	return true
}

// SubmissionValue renders the answer as the wire string expected by the
// submission endpoint: the plain value, or the blanks map JSON-stringified.
func (a Answer) SubmissionValue() string {
	if a.Blanks != nil {
		raw, err := json.Marshal(a.Blanks)
		if err != nil {
			return ""
		}
		return string(raw)
	}
	return a.Value
}
