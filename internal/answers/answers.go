// Package answers implements answer accumulation over a session record.
//
// All functions mutate only the session passed in; nothing here touches the
// store or the transport, which keeps the accumulator trivially testable.
package answers

import (
	"regexp"
	"strings"

	"github.com/KirillMachuk/tg-transformator-bot/internal/messages"
	"github.com/KirillMachuk/tg-transformator-bot/internal/models"
	"github.com/KirillMachuk/tg-transformator-bot/internal/questions"
)

// RecordSingle sets the scalar answer for a question, overwriting any prior
// value.
func RecordSingle(s *models.Session, questionID, value string) {
	if s.Answers == nil {
		s.Answers = make(map[string]*models.AnswerEntry)
	}
	s.Answers[questionID] = &models.AnswerEntry{Value: value}
}

// ToggleMultiOption flips membership of the option key in the question's
// selected set, creating the entry if absent. Toggling the same key twice
// restores the prior membership.
func ToggleMultiOption(s *models.Session, q models.Question, opt models.Option) *models.AnswerEntry {
	entry := ensureMultiEntry(s, q.ID)
	for i, key := range entry.Selected {
		if key == opt.Key {
			entry.Selected = append(entry.Selected[:i], entry.Selected[i+1:]...)
			return entry
		}
	}
	entry.Selected = append(entry.Selected, opt.Key)
	return entry
}

// AppendCustom appends a free-text elaboration to the question's custom
// sequence. Repeated submissions accumulate; nothing is deduplicated.
func AppendCustom(s *models.Session, questionID, optionLabel, value string) {
	entry := ensureMultiEntry(s, questionID)
	entry.Custom = append(entry.Custom, models.CustomAnswer{Option: optionLabel, Value: value})
}

func ensureMultiEntry(s *models.Session, questionID string) *models.AnswerEntry {
	if s.Answers == nil {
		s.Answers = make(map[string]*models.AnswerEntry)
	}
	entry, ok := s.Answers[questionID]
	if !ok || !entry.IsMulti() {
		entry = &models.AnswerEntry{Selected: []string{}, Custom: []models.CustomAnswer{}}
		s.Answers[questionID] = entry
	}
	return entry
}

// SelectedOptionKeys returns the currently selected option keys for a
// question, or an empty set when nothing is recorded.
func SelectedOptionKeys(s *models.Session, questionID string) map[string]bool {
	keys := make(map[string]bool)
	entry, ok := s.Answers[questionID]
	if !ok || entry == nil {
		return keys
	}
	for _, key := range entry.Selected {
		keys[key] = true
	}
	return keys
}

// FormatAnswer resolves a question's answer into display text. Scalar answers
// stringify directly; multi-select answers render selected option texts and
// "label: value" custom entries, newline-joined. Absent answers render empty.
func FormatAnswer(q models.Question, s *models.Session) string {
	entry, ok := s.Answers[q.ID]
	if !ok || entry == nil {
		return ""
	}

	if entry.IsMulti() {
		var parts []string
		for _, key := range entry.Selected {
			if opt, found := questions.FindOption(q, key); found {
				parts = append(parts, opt.Text)
			}
		}
		for _, custom := range entry.Custom {
			if custom.Value != "" {
				parts = append(parts, custom.Option+": "+custom.Value)
			}
		}
		return strings.Join(parts, "\n")
	}

	return entry.Value
}

// CollectAll maps every catalog question id to its display answer, including
// an empty string for unanswered questions so downstream export always sees a
// stable key set.
func CollectAll(s *models.Session) map[string]string {
	all := make(map[string]string, len(questions.All()))
	for _, q := range questions.All() {
		all[q.ID] = FormatAnswer(q, s)
	}
	return all
}

// QuestionAnswerPairs builds the ordered question/answer export with markdown
// stripped from question texts.
func QuestionAnswerPairs(s *models.Session) []models.QAPair {
	pairs := make([]models.QAPair, 0, len(questions.All()))
	for _, q := range questions.All() {
		pairs = append(pairs, models.QAPair{
			ID:       q.ID,
			Question: StripMarkdown(q.Text),
			Answer:   FormatAnswer(q, s),
		})
	}
	return pairs
}

var (
	quoteMarkerRe = regexp.MustCompile(`(?m)^>\s*`)
	whitespaceRe  = regexp.MustCompile(`\s+`)
)

// StripMarkdown reduces a prompt text to plain prose: quote markers, emphasis
// markers, and backticks removed, whitespace collapsed.
func StripMarkdown(text string) string {
	stripped := quoteMarkerRe.ReplaceAllString(text, "")
	stripped = strings.ReplaceAll(stripped, "**", "")
	stripped = strings.ReplaceAll(stripped, "*", "")
	stripped = strings.ReplaceAll(stripped, "`", "")
	stripped = strings.ReplaceAll(stripped, "_", "")
	stripped = whitespaceRe.ReplaceAllString(stripped, " ")
	return strings.TrimSpace(stripped)
}

// AppendChatHistory appends one turn and trims the oldest entries past the
// history cap (sliding window, never an error).
func AppendChatHistory(s *models.Session, role, message string) {
	s.ChatHistory = append(s.ChatHistory, models.ChatMessage{Role: role, Message: message})
	if excess := len(s.ChatHistory) - models.ChatHistoryLimit; excess > 0 {
		s.ChatHistory = append([]models.ChatMessage{}, s.ChatHistory[excess:]...)
	}
}

// SkillLevelText resolves the session's skill tier key into its display label.
func SkillLevelText(s *models.Session) string {
	for _, opt := range messages.SkillLevelOptions {
		if opt.Key == s.SkillLevel {
			return opt.Text
		}
	}
	return ""
}
