// Package document implements the two merge algorithms that turn a chunk
// chain into one document. Rendering assembles prose, so repeated string
// fields concatenate across chunks; assembly builds structured records, so
// the latest chunk's values overwrite.
package document

import (
	"fmt"
	"strings"
	"unicode"
)

// ExtraContentKey accumulates chunk payloads that were not structured JSON.
const ExtraContentKey = "_extra_content"

// TitleKey is the injected human-readable title field.
const TitleKey = "title"

// fieldSeparator joins concatenated prose fields and flattened arrays.
const fieldSeparator = "\n\n"

// MergeRenderFields merges one chunk's structured fields into the
// accumulator with concatenation-on-collision semantics: a string value
// landing on an existing string is appended after two newlines, in chain
// order. First occurrences and non-string values are inserted as-is, so a
// later non-string duplicate overwrites.
func MergeRenderFields(acc map[string]any, fields map[string]any) {
	for key, value := range fields {
		next, isString := value.(string)
		if !isString {
			acc[key] = value
			continue
		}
		if prev, ok := acc[key].(string); ok {
			acc[key] = prev + fieldSeparator + next
			continue
		}
		acc[key] = value
	}
}

// AppendExtraContent records a non-JSON chunk payload on the accumulator's
// extra-content list.
func AppendExtraContent(acc map[string]any, content string) {
	list, _ := acc[ExtraContentKey].([]any)
	acc[ExtraContentKey] = append(list, content)
}

// FlattenArrays converts every accumulated array value (including the
// extra-content accumulator) to a string by joining its elements with two
// newlines. Non-array values pass through untouched.
func FlattenArrays(acc map[string]any) {
	for key, value := range acc {
		switch arr := value.(type) {
		case []any:
			parts := make([]string, 0, len(arr))
			for _, el := range arr {
				parts = append(parts, stringify(el))
			}
			acc[key] = strings.Join(parts, fieldSeparator)
		case []string:
			acc[key] = strings.Join(arr, fieldSeparator)
		}
	}
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		// Arrays of non-strings are rare; render elements in their
		// default literal form rather than dropping them.
		return fmt.Sprintf("%v", t)
	}
}

// TitleFromDocumentKey derives the injected document title: underscores
// become spaces and the first letter is capitalized.
func TitleFromDocumentKey(documentKey string) string {
	title := strings.ReplaceAll(documentKey, "_", " ")
	runes := []rune(title)
	if len(runes) > 0 {
		runes[0] = unicode.ToUpper(runes[0])
	}
	return string(runes)
}

// MergeAssembly merges one chunk's JSON object into the accumulator with
// override-on-collision semantics: every key present in the later chunk
// replaces the earlier value entirely. No concatenation, no deep merge.
func MergeAssembly(acc map[string]any, fields map[string]any) {
	for key, value := range fields {
		acc[key] = value
	}
}
