package flow

import (
	"context"
	"encoding/json"
	"log/slog"
	"unicode/utf8"

	"github.com/KirillMachuk/tg-transformator-bot/internal/answers"
	"github.com/KirillMachuk/tg-transformator-bot/internal/messages"
	"github.com/KirillMachuk/tg-transformator-bot/internal/models"
)

// ContextTokenThreshold is the estimated-token budget above which the full
// grounding context is replaced with a condensed summary.
const ContextTokenThreshold = 6000

// estimateTokens approximates token count as character count divided by four.
func estimateTokens(text string) int {
	return utf8.RuneCountInString(text) / 4
}

// handleChatMessage runs one free-form chat turn grounded in the report.
func (c *Conversation) handleChatMessage(ctx context.Context, sess *models.Session, userMessage string) error {
	if userMessage == "" {
		return c.messenger.SendMessage(ctx, sess.ChatID, messages.ChatFallbackMessage)
	}

	c.ensureContextSummary(ctx, sess)

	answers.AppendChatHistory(sess, "user", userMessage)
	payload := buildChatPayload(sess, userMessage)

	chatCtx, cancel := context.WithTimeout(ctx, genaiTimeout)
	defer cancel()
	reply, err := c.genai.GenerateChatReply(chatCtx, payload)
	if err != nil {
		slog.Error("Chat reply failed", "error", err, "chatID", sess.ChatID)
		reply = ""
	}

	if reply == "" {
		return c.messenger.SendMessage(ctx, sess.ChatID, messages.ChatFallbackMessage)
	}

	answers.AppendChatHistory(sess, "assistant", reply)
	return c.messenger.SendMessage(ctx, sess.ChatID, reply)
}

// ensureContextSummary requests a condensed summary once per session, and
// only when the serialized full context would exceed the token budget.
func (c *Conversation) ensureContextSummary(ctx context.Context, sess *models.Session) {
	if sess.SummaryRequested || sess.Analysis == nil {
		return
	}

	bundle := fullChatContext(sess)
	serialized, err := json.Marshal(bundle)
	if err != nil {
		slog.Warn("Failed to estimate context size", "error", err, "chatID", sess.ChatID)
		return
	}
	if estimateTokens(string(serialized)) <= ContextTokenThreshold {
		return
	}

	sess.SummaryRequested = true
	summaryCtx, cancel := context.WithTimeout(ctx, genaiTimeout)
	defer cancel()
	summary, err := c.genai.SummarizeContext(summaryCtx, bundle)
	if err != nil {
		slog.Warn("Context summarization failed, keeping full context", "error", err, "chatID", sess.ChatID)
		return
	}
	sess.ContextSummary = summary
	slog.Debug("Context summary cached", "chatID", sess.ChatID, "len", len(summary))
}

// buildChatPayload prefers the cached summary over re-serializing the full
// context, trading fidelity for bounded request size.
func buildChatPayload(sess *models.Session, userMessage string) map[string]any {
	if sess.ContextSummary != "" {
		return map[string]any{
			"context_summary": sess.ContextSummary,
			"history":         sess.ChatHistory,
			"user_message":    userMessage,
		}
	}
	payload := fullChatContext(sess)
	payload["history"] = sess.ChatHistory
	payload["user_message"] = userMessage
	return payload
}

func fullChatContext(sess *models.Session) map[string]any {
	analysis := sess.Analysis
	if analysis == nil {
		analysis = models.EmptyAnalysis()
	}

	var pairs []models.QAPair
	var byID map[string]string
	if sess.AnalysisPayload != nil {
		pairs = sess.AnalysisPayload.Answers
		byID = sess.AnalysisPayload.AnswersByID
	}
	if pairs == nil {
		pairs = answers.QuestionAnswerPairs(sess)
	}
	if byID == nil {
		byID = answers.CollectAll(sess)
	}

	return map[string]any{
		"analysis":      analysis,
		"answers":       pairs,
		"answers_by_id": byID,
		"skill_level":   answers.SkillLevelText(sess),
	}
}
