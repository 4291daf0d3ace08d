package genai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/KirillMachuk/tg-transformator-bot/internal/models"
)

// ParseAnalysis parses model output into the fixed analysis shape, running
// the repair pipeline first. Missing fields fall back to their empty
// defaults; wrong-typed fields are coerced where possible.
func ParseAnalysis(raw string) (*models.Analysis, error) {
	repaired := Repair(raw)

	var parsed map[string]any
	if err := json.Unmarshal([]byte(repaired), &parsed); err != nil {
		return nil, fmt.Errorf("output is not a JSON object: %w", err)
	}
	return mergeWithDefault(parsed), nil
}

// Repair opportunistically fixes near-valid JSON output: code-fence wrapping
// is stripped, the first balanced object extracted, unterminated strings
// closed, and trailing commas dropped. Genuinely unparseable input passes
// through and fails in the parser.
func Repair(raw string) string {
	text := stripCodeFences(strings.TrimSpace(raw))
	text = extractObject(text)
	text = closeUnterminated(text)
	return dropTrailingCommas(text)
}

// stripCodeFences removes a ```...``` wrapper, with or without a language tag.
func stripCodeFences(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	body := text[3:]
	if idx := strings.Index(body, "\n"); idx >= 0 {
		body = body[idx+1:] // drop the fence line, language tag included
	}
	if idx := strings.LastIndex(body, "```"); idx >= 0 {
		body = body[:idx]
	}
	return strings.TrimSpace(body)
}

// extractObject returns the first balanced {...} in the text, or everything
// from the first opening brace when the object never closes.
func extractObject(text string) string {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return text
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		switch {
		case escaped:
			escaped = false
		case ch == '\\' && inString:
			escaped = true
		case ch == '"':
			inString = !inString
		case inString:
			// string content, braces inside do not count
		case ch == '{':
			depth++
		case ch == '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return text[start:]
}

// closeUnterminated appends the closers an object is missing: a quote when
// the text ends inside a string, then the braces and brackets still open.
func closeUnterminated(text string) string {
	var stack []byte
	inString := false
	escaped := false
	for i := 0; i < len(text); i++ {
		ch := text[i]
		switch {
		case escaped:
			escaped = false
		case ch == '\\' && inString:
			escaped = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == '{':
			stack = append(stack, '}')
		case ch == '[':
			stack = append(stack, ']')
		case ch == '}' || ch == ']':
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}

	var b strings.Builder
	b.WriteString(text)
	if inString {
		b.WriteByte('"')
	}
	for i := len(stack) - 1; i >= 0; i-- {
		b.WriteByte(stack[i])
	}
	return b.String()
}

// dropTrailingCommas removes commas directly preceding a closing brace or
// bracket, skipping string contents.
func dropTrailingCommas(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	inString := false
	escaped := false
	for i := 0; i < len(text); i++ {
		ch := text[i]
		switch {
		case escaped:
			escaped = false
		case ch == '\\' && inString:
			escaped = true
		case ch == '"':
			inString = !inString
		case !inString && ch == ',':
			j := i + 1
			for j < len(text) && (text[j] == ' ' || text[j] == '\t' || text[j] == '\n' || text[j] == '\r') {
				j++
			}
			if j < len(text) && (text[j] == '}' || text[j] == ']') {
				continue // drop the comma
			}
		}
		b.WriteByte(ch)
	}
	return b.String()
}

func mergeWithDefault(parsed map[string]any) *models.Analysis {
	analysis := models.EmptyAnalysis()
	if value, ok := parsed["business_summary"]; ok && value != nil {
		analysis.BusinessSummary = fmt.Sprintf("%v", value)
	}
	analysis.PriorityProcesses = stringList(parsed["priority_processes"])
	analysis.AIOpportunities = stringList(parsed["ai_opportunities"])
	analysis.QuickWins = stringList(parsed["quick_wins"])
	analysis.LongTerm = stringList(parsed["long_term"])
	analysis.NextSteps = stringList(parsed["next_steps"])
	analysis.RecommendedTools = stringList(parsed["recommended_tools"])
	analysis.GPTPrompts = stringList(parsed["gpt_prompts"])
	return analysis
}

// stringList coerces a decoded JSON value into a list of strings: lists keep
// non-nil items stringified, a bare non-empty string becomes a one-item list.
func stringList(value any) []string {
	switch v := value.(type) {
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if item == nil {
				continue
			}
			out = append(out, fmt.Sprintf("%v", item))
		}
		return out
	case string:
		if v != "" {
			return []string{v}
		}
	}
	return []string{}
}
