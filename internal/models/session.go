// Package models defines the session record tracked per chat.
package models

import "time"

// ConversationState represents the phase a chat is currently in.
type ConversationState string

// Conversation phases, in traversal order.
const (
	StateWelcome    ConversationState = "WELCOME"
	StateSkillLevel ConversationState = "SKILL_LEVEL"
	StateVideo      ConversationState = "VIDEO"
	StateDiagnosis  ConversationState = "DIAGNOSIS"
	StateReadiness  ConversationState = "READINESS"
	StateReport     ConversationState = "REPORT"
	StateChat       ConversationState = "CHAT"
)

// Skill tier callback keys. Beginner and basic gate the intro video.
const (
	SkillLevelBeginner  = "skill_level_beginner"
	SkillLevelBasic     = "skill_level_basic"
	SkillLevelConfident = "skill_level_confident"
	SkillLevelExpert    = "skill_level_expert"
)

// ChatHistoryLimit caps the rolling chat history; oldest entries are dropped
// first when exceeded.
const ChatHistoryLimit = 12

// CustomAnswer is one free-text elaboration contributed through a
// requires-free-text option.
type CustomAnswer struct {
	Option string `json:"option"` // option label the text elaborates on
	Value  string `json:"value"`
}

// AnswerEntry holds the recorded answer for one question. Exactly one of the
// two variants is used: Value for single-select/free-text questions, or
// Selected+Custom for multi-select questions.
type AnswerEntry struct {
	Value    string         `json:"value,omitempty"`
	Selected []string       `json:"selected,omitempty"`
	Custom   []CustomAnswer `json:"custom,omitempty"`
}

// IsMulti reports whether the entry carries multi-select data.
func (e *AnswerEntry) IsMulti() bool {
	return e != nil && (e.Selected != nil || e.Custom != nil)
}

// ChatMessage is one turn of the free-form chat history.
type ChatMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Message string `json:"message"`
}

// MessageRef points at a previously sent question prompt so it can be edited
// in place when a multi-select toggle changes.
type MessageRef struct {
	ChatID    int64 `json:"chat_id"`
	MessageID int   `json:"message_id"`
}

// OtherPrompt marks that the next free-text message answers a pending
// requires-free-text option rather than being chat input.
type OtherPrompt struct {
	QuestionID  string `json:"question_id"`
	OptionText  string `json:"option_text"`
	Section     string `json:"section"`
	MultiSelect bool   `json:"multi_select"`
}

// Session is the persisted per-chat record of questionnaire progress, cached
// analysis, and chat state. It is keyed by chat id in the session store.
type Session struct {
	ChatID        int64                   `json:"chat_id"`
	State         ConversationState       `json:"state"`
	Answers       map[string]*AnswerEntry `json:"answers"`
	QuestionIndex int                     `json:"question_index"`
	SkillLevel    string                  `json:"skill_level,omitempty"`

	// Transient routing markers for the next inbound free-text message.
	AwaitingTextQuestion string       `json:"awaiting_text_question,omitempty"`
	AwaitingOther        *OtherPrompt `json:"awaiting_other_question,omitempty"`

	CurrentQuestionMessage *MessageRef `json:"current_question_message,omitempty"`

	// Milestone flags, each idempotency-guarding a downstream side effect.
	ReportReady       bool `json:"report_ready"`
	DiagnosisComplete bool `json:"diagnosis_complete"`
	SheetsSaved       bool `json:"sheets_saved"`

	ChatHistory []ChatMessage `json:"chat_history,omitempty"`

	Analysis        *Analysis        `json:"analysis,omitempty"`
	AnalysisPayload *AnalysisPayload `json:"analysis_payload,omitempty"`
	ContextSummary  string           `json:"context_summary,omitempty"`
	// SummaryRequested guards the summarization call: at most one request per
	// session, even when the collaborator returns nothing.
	SummaryRequested bool `json:"summary_requested,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSession creates a fresh session for a chat in the WELCOME phase.
func NewSession(chatID int64) *Session {
	now := time.Now()
	return &Session{
		ChatID:      chatID,
		State:       StateWelcome,
		Answers:     make(map[string]*AnswerEntry),
		ChatHistory: []ChatMessage{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Reset clears the questionnaire fields in place. The store record is reused;
// only creation time survives a /start command.
func (s *Session) Reset() {
	s.State = StateWelcome
	s.Answers = make(map[string]*AnswerEntry)
	s.QuestionIndex = 0
	s.SkillLevel = ""
	s.AwaitingTextQuestion = ""
	s.AwaitingOther = nil
	s.CurrentQuestionMessage = nil
	s.ReportReady = false
	s.DiagnosisComplete = false
	s.SheetsSaved = false
	s.ChatHistory = []ChatMessage{}
	s.Analysis = nil
	s.AnalysisPayload = nil
	s.ContextSummary = ""
	s.SummaryRequested = false
	s.UpdatedAt = time.Now()
}

// Clone returns a deep copy used for immutable report snapshots.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Answers = make(map[string]*AnswerEntry, len(s.Answers))
	for id, entry := range s.Answers {
		if entry == nil {
			continue
		}
		copied := *entry
		copied.Selected = append([]string(nil), entry.Selected...)
		copied.Custom = append([]CustomAnswer(nil), entry.Custom...)
		out.Answers[id] = &copied
	}
	out.ChatHistory = append([]ChatMessage(nil), s.ChatHistory...)
	if s.AwaitingOther != nil {
		other := *s.AwaitingOther
		out.AwaitingOther = &other
	}
	if s.CurrentQuestionMessage != nil {
		ref := *s.CurrentQuestionMessage
		out.CurrentQuestionMessage = &ref
	}
	if s.Analysis != nil {
		analysis := *s.Analysis
		out.Analysis = &analysis
	}
	if s.AnalysisPayload != nil {
		payload := *s.AnalysisPayload
		payload.Answers = append([]QAPair(nil), s.AnalysisPayload.Answers...)
		payload.AnswersByID = make(map[string]string, len(s.AnalysisPayload.AnswersByID))
		for k, v := range s.AnalysisPayload.AnswersByID {
			payload.AnswersByID[k] = v
		}
		out.AnalysisPayload = &payload
	}
	return &out
}
