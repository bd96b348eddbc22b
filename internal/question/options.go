package question

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"

	"github.com/prepline/examroom/internal/model"
)

// optionsVariant tags the known shapes the options field arrives in.
// Classified once, then handled per variant — no sequential type sniffing.
type optionsVariant int

const (
	optionsEmpty optionsVariant = iota
	optionsArrayOfPairs
	optionsObjectByLetter
	optionsDelimitedString
	optionsAlreadyNormalized
)

// optionPair is one element of the `[{option, content}, ...]` shape.
type optionPair struct {
	Option  string `json:"option"`
	Content string `json:"content"`
}

// parseOptions resolves any raw options value to exactly four ordered
// display strings, padding the missing tail with empty strings.
func parseOptions(raw json.RawMessage) []string {
	_, values := classifyOptions(raw)

	out := make([]string, model.ChoiceOptionCount)
	for i := 0; i < model.ChoiceOptionCount && i < len(values); i++ {
		out[i] = values[i]
	}
	return out
}

// classifyOptions identifies the variant and decodes its values in display
// order. Double-encoded options (a JSON string containing JSON) unwrap one
// level before classification; a string that is not JSON is treated as a
// comma-delimited list.
func classifyOptions(raw json.RawMessage) (optionsVariant, []string) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return optionsEmpty, nil
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return optionsEmpty, nil
		}
		inner := strings.TrimSpace(s)
		if strings.HasPrefix(inner, "[") || strings.HasPrefix(inner, "{") {
			return classifyOptions(json.RawMessage(inner))
		}
		return optionsDelimitedString, splitDelimited(inner)

	case '[':
		var elems []json.RawMessage
		if err := json.Unmarshal(trimmed, &elems); err != nil {
			return optionsEmpty, nil
		}
		return classifyArray(elems)

	case '{':
		var byLetter map[string]string
		if err := json.Unmarshal(trimmed, &byLetter); err != nil {
			return optionsEmpty, nil
		}
		return optionsObjectByLetter, orderByLetter(byLetter)
	}

	return optionsEmpty, nil
}

// classifyArray distinguishes an already-normalized string array from the
// array-of-pairs shape. Mixed arrays resolve element-wise.
func classifyArray(elems []json.RawMessage) (optionsVariant, []string) {
	variant := optionsAlreadyNormalized
	values := make([]string, 0, len(elems))

	for _, elem := range elems {
		trimmed := bytes.TrimSpace(elem)
		if len(trimmed) == 0 {
			values = append(values, "")
			continue
		}
		if trimmed[0] == '{' {
			variant = optionsArrayOfPairs
			var pair optionPair
			if err := json.Unmarshal(trimmed, &pair); err != nil {
				values = append(values, "")
				continue
			}
			if pair.Content != "" {
				values = append(values, pair.Content)
			} else {
				values = append(values, pair.Option)
			}
			continue
		}
		var s flexString
		if err := json.Unmarshal(trimmed, &s); err != nil {
			values = append(values, "")
			continue
		}
		values = append(values, string(s))
	}
	return variant, values
}

// orderByLetter sorts a letter-keyed object into display order (A, B, C…).
func orderByLetter(byLetter map[string]string) []string {
	letters := make([]string, 0, len(byLetter))
	for k := range byLetter {
		letters = append(letters, k)
	}
	sort.Slice(letters, func(i, j int) bool {
		return strings.ToUpper(letters[i]) < strings.ToUpper(letters[j])
	})

	values := make([]string, 0, len(letters))
	for _, k := range letters {
		values = append(values, byLetter[k])
	}
	return values
}

func splitDelimited(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		values = append(values, strings.TrimSpace(p))
	}
	return values
}
