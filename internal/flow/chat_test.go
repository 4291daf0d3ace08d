package flow

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/KirillMachuk/tg-transformator-bot/internal/messages"
	"github.com/KirillMachuk/tg-transformator-bot/internal/models"
)

// chatSession builds a session already in the chat phase with a cached
// analysis.
func chatSession(chatID int64) *models.Session {
	sess := completedSession(chatID)
	sess.State = models.StateChat
	sess.ReportReady = true
	sess.Analysis = &models.Analysis{BusinessSummary: "Сервисный бизнес"}
	sess.AnalysisPayload = &models.AnalysisPayload{
		SkillLevelKey: sess.SkillLevel,
		AnswersByID:   map[string]string{"business_sphere": "Услуги"},
	}
	return sess
}

func TestChatTurnAppendsHistoryAndReplies(t *testing.T) {
	ctx := context.Background()
	h := newTestHarness(t)
	h.genai.reply = "Начни с автоматизации записи."
	h.store.sessions[testChatID] = chatSession(testChatID)

	if err := h.conv.HandleText(ctx, testChatID, "С чего начать?"); err != nil {
		t.Fatalf("HandleText failed: %v", err)
	}

	if msg := h.messenger.lastMessage(t); msg.Text != "Начни с автоматизации записи." {
		t.Errorf("Expected model reply sent, got %q", msg.Text)
	}

	sess := h.store.session(t, testChatID)
	if len(sess.ChatHistory) != 2 {
		t.Fatalf("Expected user and assistant turns in history, got %d", len(sess.ChatHistory))
	}
	if sess.ChatHistory[0].Role != "user" || sess.ChatHistory[0].Message != "С чего начать?" {
		t.Errorf("Expected user turn first, got %+v", sess.ChatHistory[0])
	}
	if sess.ChatHistory[1].Role != "assistant" {
		t.Errorf("Expected assistant turn second, got %+v", sess.ChatHistory[1])
	}
}

func TestChatEmptyReplyFallsBack(t *testing.T) {
	ctx := context.Background()
	h := newTestHarness(t)
	h.genai.reply = ""
	h.store.sessions[testChatID] = chatSession(testChatID)

	if err := h.conv.HandleText(ctx, testChatID, "вопрос"); err != nil {
		t.Fatalf("HandleText failed: %v", err)
	}

	if msg := h.messenger.lastMessage(t); msg.Text != messages.ChatFallbackMessage {
		t.Errorf("Expected fallback message, got %q", msg.Text)
	}

	// The failed assistant turn is not recorded
	sess := h.store.session(t, testChatID)
	if len(sess.ChatHistory) != 1 {
		t.Errorf("Expected only the user turn in history, got %d", len(sess.ChatHistory))
	}
}

func TestChatReplyErrorFallsBack(t *testing.T) {
	ctx := context.Background()
	h := newTestHarness(t)
	h.genai.replyErr = errors.New("model unavailable")
	h.store.sessions[testChatID] = chatSession(testChatID)

	if err := h.conv.HandleText(ctx, testChatID, "вопрос"); err != nil {
		t.Fatalf("HandleText failed: %v", err)
	}
	if msg := h.messenger.lastMessage(t); msg.Text != messages.ChatFallbackMessage {
		t.Errorf("Expected fallback message, got %q", msg.Text)
	}
}

func TestChatSummaryRequestedOncePerSession(t *testing.T) {
	ctx := context.Background()
	h := newTestHarness(t)
	h.genai.reply = "ответ"
	h.genai.summary = "краткий контекст"

	sess := chatSession(testChatID)
	// Inflate the context past the token budget
	sess.Analysis.BusinessSummary = strings.Repeat("очень длинное описание бизнеса ", 2000)
	h.store.sessions[testChatID] = sess

	if err := h.conv.HandleText(ctx, testChatID, "первый вопрос"); err != nil {
		t.Fatalf("HandleText failed: %v", err)
	}
	if h.genai.summarizeCalls != 1 {
		t.Fatalf("Expected one summarization call, got %d", h.genai.summarizeCalls)
	}

	stored := h.store.session(t, testChatID)
	if !stored.SummaryRequested {
		t.Error("Expected summary request recorded")
	}
	if stored.ContextSummary != "краткий контекст" {
		t.Errorf("Expected summary cached, got %q", stored.ContextSummary)
	}

	// Subsequent turns reuse the cached summary
	if err := h.conv.HandleText(ctx, testChatID, "второй вопрос"); err != nil {
		t.Fatalf("HandleText failed: %v", err)
	}
	if h.genai.summarizeCalls != 1 {
		t.Errorf("Expected no further summarization calls, got %d", h.genai.summarizeCalls)
	}
}

func TestChatSummaryNotRetriedAfterFailure(t *testing.T) {
	ctx := context.Background()
	h := newTestHarness(t)
	h.genai.reply = "ответ"
	h.genai.summaryErr = errors.New("model unavailable")

	sess := chatSession(testChatID)
	sess.Analysis.BusinessSummary = strings.Repeat("очень длинное описание бизнеса ", 2000)
	h.store.sessions[testChatID] = sess

	if err := h.conv.HandleText(ctx, testChatID, "первый вопрос"); err != nil {
		t.Fatalf("HandleText failed: %v", err)
	}
	if err := h.conv.HandleText(ctx, testChatID, "второй вопрос"); err != nil {
		t.Fatalf("HandleText failed: %v", err)
	}

	// At most one request per session, success or not
	if h.genai.summarizeCalls != 1 {
		t.Errorf("Expected exactly one summarization attempt, got %d", h.genai.summarizeCalls)
	}
	stored := h.store.session(t, testChatID)
	if stored.ContextSummary != "" {
		t.Errorf("Expected no summary cached after failure, got %q", stored.ContextSummary)
	}
}

func TestChatSmallContextSkipsSummary(t *testing.T) {
	ctx := context.Background()
	h := newTestHarness(t)
	h.genai.reply = "ответ"
	h.store.sessions[testChatID] = chatSession(testChatID)

	if err := h.conv.HandleText(ctx, testChatID, "вопрос"); err != nil {
		t.Fatalf("HandleText failed: %v", err)
	}

	if h.genai.summarizeCalls != 0 {
		t.Errorf("Expected no summarization under the token budget, got %d", h.genai.summarizeCalls)
	}
	stored := h.store.session(t, testChatID)
	if stored.SummaryRequested {
		t.Error("Expected summary flag untouched under the budget")
	}
}

func TestBuildChatPayloadPrefersSummary(t *testing.T) {
	sess := chatSession(testChatID)
	sess.ContextSummary = "краткий контекст"

	payload := buildChatPayload(sess, "вопрос")
	if payload["context_summary"] != "краткий контекст" {
		t.Errorf("Expected summary in payload, got %v", payload["context_summary"])
	}
	if _, ok := payload["analysis"]; ok {
		t.Error("Expected full analysis omitted when a summary exists")
	}

	sess.ContextSummary = ""
	payload = buildChatPayload(sess, "вопрос")
	if _, ok := payload["analysis"]; !ok {
		t.Error("Expected full analysis without a summary")
	}
	if payload["user_message"] != "вопрос" {
		t.Errorf("Expected user message carried, got %v", payload["user_message"])
	}
}

func TestEstimateTokens(t *testing.T) {
	if got := estimateTokens(""); got != 0 {
		t.Errorf("Expected 0 tokens for empty text, got %d", got)
	}
	if got := estimateTokens("абвг"); got != 1 {
		t.Errorf("Expected rune-based estimate 1, got %d", got)
	}
	if got := estimateTokens(strings.Repeat("a", 400)); got != 100 {
		t.Errorf("Expected 100 tokens for 400 chars, got %d", got)
	}
}
