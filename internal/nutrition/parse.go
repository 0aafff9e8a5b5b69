package nutrition

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	WarningConfidenceLow    = "confidence_low"
	WarningNutritionUnknown = "nutrition_unknown"

	fallbackDescription = "Unparsed response"
	fallbackConfidence  = 0.1
	maxFallbackNotes    = 500
)

// Estimate is the normalized result of one nutrition estimation.
type Estimate struct {
	Description  string   `json:"description"`
	CaloriesKcal float64  `json:"calories_kcal"`
	ProteinG     float64  `json:"protein_g"`
	Confidence   float64  `json:"confidence"`
	Notes        string   `json:"notes"`
	Warnings     []string `json:"warnings"`
}

// ParseReply turns a model reply into an Estimate. It never fails: replies
// without a recoverable JSON object become the "Unparsed response" record.
func ParseReply(raw string) Estimate {
	obj, ok := findObject(stripCodeFences(raw))
	if !ok {
		obj, ok = findObject(raw)
	}
	if !ok {
		return normalize(Estimate{
			Description: fallbackDescription,
			Confidence:  fallbackConfidence,
			Notes:       truncate(strings.TrimSpace(raw), maxFallbackNotes),
		})
	}

	return normalize(Estimate{
		Description:  coerceString(obj["description"]),
		CaloriesKcal: coerceFloat(obj["calories_kcal"]),
		ProteinG:     coerceFloat(obj["protein_g"]),
		Confidence:   coerceFloat(obj["confidence"]),
		Notes:        coerceString(obj["notes"]),
	})
}

func normalize(e Estimate) Estimate {
	e.CaloriesKcal = math.Max(e.CaloriesKcal, 0)
	e.ProteinG = math.Max(e.ProteinG, 0)
	e.Confidence = math.Min(math.Max(e.Confidence, 0), 1)

	e.Warnings = []string{}
	if e.Confidence < 0.5 {
		e.Warnings = append(e.Warnings, WarningConfidenceLow)
	}
	if e.CaloriesKcal <= 0 && e.ProteinG <= 0 {
		e.Warnings = append(e.Warnings, WarningNutritionUnknown)
	}
	return e
}

// fenceMarker matches a Markdown ``` fence together with its language tag.
var fenceMarker = regexp.MustCompile("```[A-Za-z0-9_+-]*")

// stripCodeFences removes Markdown fence markers and keeps the rest of their
// lines, so a fence sharing a line with the JSON leaves the JSON in place.
func stripCodeFences(s string) string {
	if !strings.Contains(s, "```") {
		return s
	}
	return fenceMarker.ReplaceAllString(s, "")
}

// findObject returns the first brace-balanced JSON object in s that decodes.
func findObject(s string) (map[string]any, bool) {
	for start := strings.IndexByte(s, '{'); start >= 0; {
		if end, ok := matchBrace(s, start); ok {
			var obj map[string]any
			if err := json.Unmarshal([]byte(s[start:end+1]), &obj); err == nil && obj != nil {
				return obj, true
			}
		}

		next := strings.IndexByte(s[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return nil, false
}

// matchBrace returns the index of the brace closing the one at start.
// Braces inside JSON strings are ignored.
func matchBrace(s string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]
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
				return i, true
			}
		}
	}
	return 0, false
}

func coerceFloat(v any) float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func coerceString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		b, err := json.Marshal(s)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
