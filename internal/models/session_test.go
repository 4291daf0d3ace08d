package models

import "testing"

func populatedSession() *Session {
	sess := NewSession(42)
	sess.State = StateChat
	sess.SkillLevel = SkillLevelExpert
	sess.QuestionIndex = 5
	sess.Answers["routine_processes"] = &AnswerEntry{
		Selected: []string{"sales", "docs"},
		Custom:   []CustomAnswer{{Option: "Другое", Value: "логистика"}},
	}
	sess.ChatHistory = []ChatMessage{{Role: "user", Message: "привет"}}
	sess.AwaitingOther = &OtherPrompt{QuestionID: "routine_processes"}
	sess.CurrentQuestionMessage = &MessageRef{ChatID: 42, MessageID: 10}
	sess.Analysis = &Analysis{BusinessSummary: "итог"}
	sess.AnalysisPayload = &AnalysisPayload{
		SkillLevel:  "эксперт",
		Answers:     []QAPair{{ID: "budget", Answer: "minimal"}},
		AnswersByID: map[string]string{"budget": "minimal"},
	}
	sess.ReportReady = true
	sess.DiagnosisComplete = true
	sess.SheetsSaved = true
	sess.ContextSummary = "кратко"
	sess.SummaryRequested = true
	return sess
}

func TestResetClearsEverythingButIdentity(t *testing.T) {
	sess := populatedSession()
	created := sess.CreatedAt

	sess.Reset()

	if sess.ChatID != 42 {
		t.Errorf("Expected chat id preserved, got %d", sess.ChatID)
	}
	if !sess.CreatedAt.Equal(created) {
		t.Error("Expected creation time preserved")
	}
	if sess.State != StateWelcome {
		t.Errorf("Expected WELCOME state, got %q", sess.State)
	}
	if len(sess.Answers) != 0 || len(sess.ChatHistory) != 0 {
		t.Error("Expected answers and history cleared")
	}
	if sess.SkillLevel != "" || sess.QuestionIndex != 0 {
		t.Error("Expected questionnaire progress cleared")
	}
	if sess.AwaitingOther != nil || sess.CurrentQuestionMessage != nil {
		t.Error("Expected transient markers cleared")
	}
	if sess.ReportReady || sess.DiagnosisComplete || sess.SheetsSaved {
		t.Error("Expected milestone flags cleared")
	}
	if sess.Analysis != nil || sess.AnalysisPayload != nil {
		t.Error("Expected cached analysis cleared")
	}
	if sess.ContextSummary != "" || sess.SummaryRequested {
		t.Error("Expected summary state cleared")
	}
}

func TestCloneIsDeep(t *testing.T) {
	sess := populatedSession()
	clone := sess.Clone()

	// Mutating the original must not leak into the clone
	sess.Answers["routine_processes"].Selected[0] = "changed"
	sess.Answers["routine_processes"].Custom[0].Value = "changed"
	sess.ChatHistory[0].Message = "changed"
	sess.AwaitingOther.QuestionID = "changed"
	sess.Analysis.BusinessSummary = "changed"
	sess.AnalysisPayload.Answers[0].Answer = "changed"
	sess.AnalysisPayload.AnswersByID["budget"] = "changed"

	entry := clone.Answers["routine_processes"]
	if entry.Selected[0] != "sales" {
		t.Errorf("Expected cloned selection untouched, got %q", entry.Selected[0])
	}
	if entry.Custom[0].Value != "логистика" {
		t.Errorf("Expected cloned custom untouched, got %q", entry.Custom[0].Value)
	}
	if clone.ChatHistory[0].Message != "привет" {
		t.Errorf("Expected cloned history untouched, got %q", clone.ChatHistory[0].Message)
	}
	if clone.AwaitingOther.QuestionID != "routine_processes" {
		t.Errorf("Expected cloned marker untouched, got %q", clone.AwaitingOther.QuestionID)
	}
	if clone.Analysis.BusinessSummary != "итог" {
		t.Errorf("Expected cloned analysis untouched, got %q", clone.Analysis.BusinessSummary)
	}
	if clone.AnalysisPayload.Answers[0].Answer != "minimal" {
		t.Errorf("Expected cloned payload untouched, got %q", clone.AnalysisPayload.Answers[0].Answer)
	}
	if clone.AnalysisPayload.AnswersByID["budget"] != "minimal" {
		t.Errorf("Expected cloned answer map untouched, got %q", clone.AnalysisPayload.AnswersByID["budget"])
	}
}

func TestCloneNil(t *testing.T) {
	var sess *Session
	if sess.Clone() != nil {
		t.Error("Expected nil clone of nil session")
	}
}

func TestAnswerEntryIsMulti(t *testing.T) {
	if (&AnswerEntry{Value: "x"}).IsMulti() {
		t.Error("Expected scalar entry not multi")
	}
	if !(&AnswerEntry{Selected: []string{}}).IsMulti() {
		t.Error("Expected entry with selected slice to be multi")
	}
	if !(&AnswerEntry{Custom: []CustomAnswer{}}).IsMulti() {
		t.Error("Expected entry with custom slice to be multi")
	}
	var nilEntry *AnswerEntry
	if nilEntry.IsMulti() {
		t.Error("Expected nil entry not multi")
	}
}
