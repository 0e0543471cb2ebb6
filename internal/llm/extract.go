package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	apperrors "travel-concierge/internal/common/errors"
	"travel-concierge/internal/common/validation"
)

const maxCandidates = 8

var (
	fencePattern         = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(.*?)```")
	trailingCommaPattern = regexp.MustCompile(`,\s*([}\]])`)
)

// ExtractStructured finds the first JSON value in free text that satisfies schema and
// decodes it into T. Model output may wrap the JSON in prose or code fences, leave
// trailing commas, or be cut off mid-document; a truncated document is repaired by
// dropping its incomplete tail element. Failure is always a *errors.ParseError.
func ExtractStructured[T any](text string, schema validation.Schema) (T, error) {
	var zero T

	candidates := jsonCandidates(text)
	if len(candidates) == 0 {
		return zero, apperrors.NewParseError("no JSON found in model output", text, nil)
	}

	var lastErr error
	for _, candidate := range candidates {
		doc, err := decodeLenient(candidate)
		if err != nil {
			lastErr = err
			continue
		}

		if schema != nil {
			result, err := validation.ValidateDocument(schema, doc)
			if err != nil {
				lastErr = err
				continue
			}
			if !result.Valid {
				lastErr = fmt.Errorf("schema mismatch: %s", strings.Join(result.GetErrorMessages(), "; "))
				continue
			}
		}

		normalized, err := json.Marshal(doc)
		if err != nil {
			lastErr = err
			continue
		}
		var out T
		if err := json.Unmarshal(normalized, &out); err != nil {
			lastErr = err
			continue
		}
		return out, nil
	}

	return zero, apperrors.NewParseError("no candidate matched the expected shape", text, lastErr)
}

// decodeLenient decodes a candidate, retrying once with trailing commas stripped.
func decodeLenient(candidate string) (interface{}, error) {
	var doc interface{}
	err := json.Unmarshal([]byte(candidate), &doc)
	if err == nil {
		return doc, nil
	}
	cleaned := trailingCommaPattern.ReplaceAllString(candidate, "$1")
	if cleaned == candidate {
		return nil, err
	}
	if err := json.Unmarshal([]byte(cleaned), &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// jsonCandidates lists fenced blocks first, then balanced (or repaired) values scanned
// from the raw text.
func jsonCandidates(text string) []string {
	var out []string
	for _, m := range fencePattern.FindAllStringSubmatch(text, -1) {
		body := strings.TrimSpace(m[1])
		if body == "" {
			continue
		}
		out = append(out, scanValues(body)...)
	}
	out = append(out, scanValues(text)...)
	if len(out) > maxCandidates {
		out = out[:maxCandidates]
	}
	return out
}

func scanValues(text string) []string {
	var out []string
	for i := 0; i < len(text) && len(out) < maxCandidates; i++ {
		if text[i] != '{' && text[i] != '[' {
			continue
		}
		value, end, ok := scanValue(text, i)
		if !ok {
			continue
		}
		out = append(out, value)
		i = end - 1
	}
	return out
}

// scanValue reads one JSON object or array starting at text[start]. A value that runs off
// the end of text is cut back to its last complete element and closed.
func scanValue(text string, start int) (string, int, bool) {
	var (
		stack     []byte
		inString  bool
		escaped   bool
		safeEnd   = -1
		safeStack []byte
	)

	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) == 0 || stack[len(stack)-1] != ch {
				return "", 0, false
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return text[start : i+1], i + 1, true
			}
			safeEnd = i + 1
			safeStack = append(safeStack[:0], stack...)
		}
	}

	if safeEnd < 0 {
		return "", 0, false
	}
	repaired := strings.TrimRight(text[start:safeEnd], " \t\r\n,")
	var closers strings.Builder
	for i := len(safeStack) - 1; i >= 0; i-- {
		closers.WriteByte(safeStack[i])
	}
	return repaired + closers.String(), len(text), true
}
