package flow

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/KirillMachuk/tg-transformator-bot/internal/answers"
	"github.com/KirillMachuk/tg-transformator-bot/internal/messages"
	"github.com/KirillMachuk/tg-transformator-bot/internal/models"
)

// handleReportRequest runs the report sequence: snapshot, analysis, document,
// spreadsheet write, then the switch into chat mode. Every step degrades
// rather than fails — the user always receives a report.
func (c *Conversation) handleReportRequest(ctx context.Context, sess *models.Session, from models.UserMetadata) error {
	if !sess.DiagnosisComplete {
		return c.messenger.SendMessage(ctx, sess.ChatID, messages.PreChatReminder)
	}

	meta := from
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now().UTC()
	}

	snapshot := sess.Clone()
	payload := buildAnalysisPayload(snapshot)

	analysisCtx, cancel := context.WithTimeout(ctx, genaiTimeout)
	defer cancel()
	analysis, err := c.genai.AnalyzeAnswers(analysisCtx, payload)
	if err != nil || analysis == nil {
		slog.Error("Analysis failed, substituting empty default", "error", err, "chatID", sess.ChatID)
		analysis = models.EmptyAnalysis()
	}

	c.deliverReport(ctx, sess.ChatID, meta, payload, analysis)

	if !sess.SheetsSaved {
		persistCtx, cancelPersist := context.WithTimeout(ctx, persistTimeout)
		defer cancelPersist()
		if err := c.recorder.StoreAnswers(persistCtx, meta, payload, analysis); err != nil {
			slog.Error("Failed to store answers, skipping", "error", err, "chatID", sess.ChatID)
		}
		// One attempt per session, success or not.
		sess.SheetsSaved = true
	}

	sess.Analysis = analysis
	sess.AnalysisPayload = payload
	sess.ReportReady = true
	sess.State = models.StateChat
	slog.Info("Report delivered, chat unlocked", "chatID", sess.ChatID)

	if c.consultationURL != "" {
		go c.sendFollowUp(sess.ChatID)
	}
	return nil
}

// deliverReport renders and sends the PDF, apologizing instead of failing
// when the document cannot be produced.
func (c *Conversation) deliverReport(ctx context.Context, chatID int64, meta models.UserMetadata, payload *models.AnalysisPayload, analysis *models.Analysis) {
	path, err := c.renderer.Generate(meta, payload.Answers, analysis)
	if err != nil {
		slog.Error("Report rendering failed", "error", err, "chatID", chatID)
		if err := c.messenger.SendMessage(ctx, chatID, messages.ReportRenderFailedMessage); err != nil {
			slog.Error("Failed to send render apology", "error", err, "chatID", chatID)
		}
		return
	}
	defer func() {
		if err := os.Remove(path); err != nil {
			slog.Warn("Failed to remove report file", "error", err, "path", path)
		}
	}()

	if err := c.messenger.SendDocument(ctx, chatID, path, messages.ReportDeliveryMessage); err != nil {
		slog.Error("Failed to send report document", "error", err, "chatID", chatID)
		if err := c.messenger.SendMessage(ctx, chatID, messages.ReportRenderFailedMessage); err != nil {
			slog.Error("Failed to send render apology", "error", err, "chatID", chatID)
		}
	}
}

func buildAnalysisPayload(sess *models.Session) *models.AnalysisPayload {
	return &models.AnalysisPayload{
		SkillLevel:    answers.SkillLevelText(sess),
		SkillLevelKey: sess.SkillLevel,
		Answers:       answers.QuestionAnswerPairs(sess),
		AnswersByID:   answers.CollectAll(sess),
	}
}

// sendFollowUp delivers the delayed consultation call-to-action.
func (c *Conversation) sendFollowUp(chatID int64) {
	time.Sleep(c.followUpDelay)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if _, err := c.messenger.SendKeyboard(ctx, chatID, messages.PostReportMessage, consultationKeyboard(c.consultationURL)); err != nil {
		slog.Warn("Failed to send consultation follow-up", "error", err, "chatID", chatID)
	}
}
