package llm

import (
	"encoding/json"
	"errors"
	"strings"
)

var (
	ErrEmptyResponse = errors.New("Model returned empty response")
	ErrNoJSONObject  = errors.New("No JSON object found in model response")
	ErrInvalidJSON   = errors.New("Invalid JSON returned by model")
	ErrRootNotObject = errors.New("Model response JSON root must be an object")
)

// ExtractJSONObject parses text as a JSON object, or failing that, the first
// object embedded in surrounding prose.
func ExtractJSONObject(text string) (map[string]any, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyResponse
	}

	var whole any
	wholeErr := json.Unmarshal([]byte(text), &whole)
	if obj, ok := whole.(map[string]any); ok && wholeErr == nil {
		return obj, nil
	}

	start := strings.IndexByte(text, '{')
	if start < 0 {
		if wholeErr == nil {
			return nil, ErrRootNotObject
		}
		return nil, ErrNoJSONObject
	}

	var obj map[string]any
	dec := json.NewDecoder(strings.NewReader(text[start:]))
	if err := dec.Decode(&obj); err != nil {
		return nil, ErrInvalidJSON
	}
	return obj, nil
}
