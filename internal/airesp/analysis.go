package airesp

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrNoJSON is returned when a response contains no complete JSON object.
var ErrNoJSON = errors.New("airesp: no JSON object in response")

// Category is one feedback grouping from an analysis response.
type Category struct {
	Name       string `json:"name"`
	Count      int    `json:"count"`
	Importance string `json:"importance"`
}

// Feature is one recommended improvement. Scores the model left out stay nil.
type Feature struct {
	Title                string `json:"title"`
	Description          string `json:"description"`
	DevelopmentCost      *int   `json:"development_cost"`
	EffectScore          *int   `json:"effect_score"`
	PriorityScore        *int   `json:"priority_score"`
	RelatedFeedbackCount *int   `json:"related_feedback_count"`
	Category             string `json:"category"`
}

// UnmarshalJSON decodes a feature leniently. Models sometimes quote scores
// or send fractions; those are coerced, and anything that is not a number
// leaves the score nil instead of failing the whole analysis.
func (f *Feature) UnmarshalJSON(data []byte) error {
	type plain Feature
	var raw struct {
		plain
		DevelopmentCost      json.RawMessage `json:"development_cost"`
		EffectScore          json.RawMessage `json:"effect_score"`
		PriorityScore        json.RawMessage `json:"priority_score"`
		RelatedFeedbackCount json.RawMessage `json:"related_feedback_count"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*f = Feature(raw.plain)
	f.DevelopmentCost = looseInt(raw.DevelopmentCost)
	f.EffectScore = looseInt(raw.EffectScore)
	f.PriorityScore = looseInt(raw.PriorityScore)
	f.RelatedFeedbackCount = looseInt(raw.RelatedFeedbackCount)
	return nil
}

// UnmarshalJSON decodes a category, coercing a quoted or fractional count.
func (c *Category) UnmarshalJSON(data []byte) error {
	type plain Category
	var raw struct {
		plain
		Count json.RawMessage `json:"count"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = Category(raw.plain)
	if n := looseInt(raw.Count); n != nil {
		c.Count = *n
	}
	return nil
}

// looseInt reads a JSON number or numeric string, rounded to the nearest
// integer. Null, empty and non-numeric values give nil.
func looseInt(raw json.RawMessage) *int {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	text := string(raw)
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil
		}
		text = strings.TrimSpace(s)
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > math.MaxInt32 {
		return nil
	}
	n := int(math.Round(v))
	return &n
}

// Analysis is the structured part of a feedback analysis response.
type Analysis struct {
	Categories          []Category `json:"categories"`
	RecommendedFeatures []Feature  `json:"recommended_features"`
}

// ExtractJSONObject returns the first balanced top-level {...} block in text.
// Braces inside JSON strings are ignored.
func ExtractJSONObject(text string) (string, error) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", ErrNoJSON
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], nil
			}
		}
	}
	return "", ErrNoJSON
}

// ParseAnalysis decodes the JSON object embedded in an analysis response.
func ParseAnalysis(text string) (*Analysis, error) {
	raw, err := ExtractJSONObject(text)
	if err != nil {
		return nil, err
	}
	var a Analysis
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		return nil, fmt.Errorf("airesp: decode analysis: %w", err)
	}
	return &a, nil
}
