package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// codeFencePattern matches markdown code fences (with optional language tag)
// that models often wrap JSON output in.
var codeFencePattern = regexp.MustCompile("(?s)```[a-zA-Z]*\\n?|```")

// ParseError reports a completion response from which no JSON suggestion
// object could be extracted. It carries the raw response for diagnostics.
type ParseError struct {
	RawResponse string
	Cause       error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to parse suggestion response: %v", e.Cause)
	}
	return "failed to parse suggestion response: no JSON object found"
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// ExtractJSON extracts the first JSON object from a completion response
// that may contain code fences or surrounding prose. It strips fence
// markers, locates the first '{', and takes the balanced object from
// there. On failure it returns a *ParseError carrying the raw response.
func ExtractJSON(response string) (string, error) {
	cleaned := codeFencePattern.ReplaceAllString(response, "")

	start := strings.IndexByte(cleaned, '{')
	if start < 0 {
		return "", &ParseError{RawResponse: response}
	}

	if jsonStr, ok := extractBalancedObject(cleaned[start:]); ok {
		if json.Valid([]byte(jsonStr)) {
			return jsonStr, nil
		}
	}

	// Last resort: the remainder from the first brace may itself be valid.
	trimmed := strings.TrimSpace(cleaned[start:])
	if json.Valid([]byte(trimmed)) {
		return trimmed, nil
	}

	return "", &ParseError{RawResponse: response}
}

// extractBalancedObject finds the first balanced {...} structure,
// accounting for nesting and string literals.
func extractBalancedObject(s string) (string, bool) {
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]

		if escaped {
			escaped = false
			continue
		}
		if c == '\\' && inString {
			escaped = true
			continue
		}
		if c == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}

		if c == '{' {
			depth++
		} else if c == '}' {
			depth--
			if depth == 0 {
				return s[:i+1], true
			}
		}
	}

	return "", false
}

// ParseJSONResponse extracts the JSON object from a response and
// unmarshals it into the target type.
func ParseJSONResponse[T any](response string) (T, error) {
	var result T

	jsonStr, err := ExtractJSON(response)
	if err != nil {
		return result, err
	}

	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		return result, &ParseError{RawResponse: response, Cause: err}
	}

	return result, nil
}
