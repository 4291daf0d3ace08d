package flow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/KirillMachuk/tg-transformator-bot/internal/answers"
	"github.com/KirillMachuk/tg-transformator-bot/internal/messages"
	"github.com/KirillMachuk/tg-transformator-bot/internal/models"
	"github.com/KirillMachuk/tg-transformator-bot/internal/questions"
)

// HandleStart resets the questionnaire and presents the welcome prompt.
func (c *Conversation) HandleStart(ctx context.Context, chatID int64) error {
	slog.Info("Conversation start", "chatID", chatID)
	return c.withSession(ctx, chatID, func(sess *models.Session) error {
		sess.Reset()
		_, err := c.messenger.SendKeyboard(ctx, chatID, messages.WelcomeText, startKeyboard())
		return err
	})
}

// HandleCallback routes an inline button press. Every action is admissible
// only in its own phase: old prompts stay on screen in Telegram, so their
// buttons remain tappable long after the conversation moves on. Out-of-phase
// presses and unknown actions get a neutral acknowledgement and mutate
// nothing.
func (c *Conversation) HandleCallback(ctx context.Context, chatID int64, messageID int, from models.UserMetadata, data string) error {
	slog.Debug("Conversation callback", "chatID", chatID, "data", data)
	return c.withSession(ctx, chatID, func(sess *models.Session) error {
		switch {
		case data == messages.StartButton.Key:
			if sess.State != models.StateWelcome {
				return c.staleCallback(ctx, sess, data)
			}
			return c.handleStartButton(ctx, sess)
		case strings.HasPrefix(data, "skill_level_"):
			if sess.State != models.StateSkillLevel {
				return c.staleCallback(ctx, sess, data)
			}
			return c.handleSkillSelection(ctx, sess, data)
		case data == messages.VideoReadyButton.Key || data == messages.DiagnosisButton.Key:
			if sess.State != models.StateVideo {
				return c.staleCallback(ctx, sess, data)
			}
			return c.startDiagnosis(ctx, sess)
		case strings.HasPrefix(data, "q|"):
			if sess.State != models.StateDiagnosis && sess.State != models.StateReadiness {
				return c.staleCallback(ctx, sess, data)
			}
			return c.handleQuestionCallback(ctx, sess, messageID, data)
		case data == messages.ReportButton.Key:
			if sess.State != models.StateReport && sess.State != models.StateChat {
				return c.staleCallback(ctx, sess, data)
			}
			return c.handleReportRequest(ctx, sess, from)
		default:
			slog.Warn("Unexpected callback data", "chatID", chatID, "data", data)
			return c.messenger.SendMessage(ctx, chatID, messages.UnknownActionMessage)
		}
	})
}

// staleCallback answers a button pressed outside its phase.
func (c *Conversation) staleCallback(ctx context.Context, sess *models.Session, data string) error {
	slog.Warn("Out-of-phase callback ignored", "chatID", sess.ChatID, "state", sess.State, "data", data)
	return c.messenger.SendMessage(ctx, sess.ChatID, messages.UnknownActionMessage)
}

func (c *Conversation) handleStartButton(ctx context.Context, sess *models.Session) error {
	sess.State = models.StateSkillLevel
	_, err := c.messenger.SendKeyboard(ctx, sess.ChatID, messages.SkillLevelPrompt, skillLevelKeyboard())
	return err
}

// handleSkillSelection records the tier and gates the intro video: the two
// onboarding tiers watch it, the rest skip straight toward diagnosis. Both
// paths hold in VIDEO until the user confirms readiness.
func (c *Conversation) handleSkillSelection(ctx context.Context, sess *models.Session, choice string) error {
	sess.SkillLevel = choice
	sess.State = models.StateVideo

	if choice == models.SkillLevelBeginner || choice == models.SkillLevelBasic {
		_, err := c.messenger.SendKeyboard(ctx, sess.ChatID, messages.VideoMessage, buttonKeyboard(messages.VideoReadyButton))
		return err
	}
	_, err := c.messenger.SendKeyboard(ctx, sess.ChatID, messages.ExpertSkipMessage, buttonKeyboard(messages.DiagnosisButton))
	return err
}

func (c *Conversation) startDiagnosis(ctx context.Context, sess *models.Session) error {
	if err := c.messenger.SendMessage(ctx, sess.ChatID, messages.DiagnosisIntro); err != nil {
		return err
	}
	return c.sendNextQuestion(ctx, sess, true)
}

// sendNextQuestion dispatches the current question (isNew) or advances the
// cursor by one and dispatches the next. Cursor exhaustion completes the
// questionnaire.
func (c *Conversation) sendNextQuestion(ctx context.Context, sess *models.Session, isNew bool) error {
	if !isNew {
		sess.QuestionIndex++
	}
	q, ok := questions.At(sess.QuestionIndex)
	if !ok {
		return c.questionnaireComplete(ctx, sess)
	}
	return c.sendQuestion(ctx, sess, q)
}

func (c *Conversation) sendQuestion(ctx context.Context, sess *models.Session, q models.Question) error {
	sess.AwaitingTextQuestion = ""
	sess.AwaitingOther = nil

	var kb models.Keyboard
	if len(q.Options) > 0 {
		kb = questionKeyboard(sess, q)
	} else if q.ExpectsText {
		sess.AwaitingTextQuestion = q.ID
	}

	text := c.questionText(sess, q)
	messageID, err := c.messenger.SendKeyboard(ctx, sess.ChatID, text, kb)
	if err != nil {
		return err
	}
	sess.CurrentQuestionMessage = &models.MessageRef{ChatID: sess.ChatID, MessageID: messageID}
	sess.State = stateForQuestion(q)
	return nil
}

// questionText renders the prompt with a progress header and, when an answer
// already exists, the selected summary block.
func (c *Conversation) questionText(sess *models.Session, q models.Question) string {
	total := len(questions.All())
	current := sess.QuestionIndex + 1
	percent := current * 100 / total
	text := fmt.Sprintf("📊 %d/%d (%d%%)\n\n%s", current, total, percent, q.Text)

	entry, ok := sess.Answers[q.ID]
	if !ok || entry == nil || !entry.IsMulti() {
		return text
	}

	var lines []string
	for _, key := range entry.Selected {
		if opt, found := questions.FindOption(q, key); found {
			lines = append(lines, "- "+opt.Text)
		}
	}
	for _, custom := range entry.Custom {
		if custom.Value != "" {
			lines = append(lines, "- "+custom.Option+": "+custom.Value)
		}
	}
	if len(lines) > 0 {
		text += "\n\n" + messages.SelectedBlockHeader + "\n" + strings.Join(lines, "\n")
	}
	return text
}

func stateForQuestion(q models.Question) models.ConversationState {
	if q.Section == questions.SectionBusiness {
		return models.StateDiagnosis
	}
	return models.StateReadiness
}

func (c *Conversation) handleQuestionCallback(ctx context.Context, sess *models.Session, messageID int, data string) error {
	parts := strings.Split(data, "|")
	if len(parts) != 3 {
		slog.Warn("Malformed question callback", "chatID", sess.ChatID, "data", data)
		return c.messenger.SendMessage(ctx, sess.ChatID, messages.UnknownActionMessage)
	}

	questionID, payload := parts[1], parts[2]
	q, ok := questions.ByID(questionID)
	if !ok {
		slog.Warn("Unknown question id", "chatID", sess.ChatID, "questionID", questionID)
		return c.messenger.SendMessage(ctx, sess.ChatID, messages.UnknownActionMessage)
	}

	if payload == messages.MultiSelectDoneButton.Key {
		return c.sendNextQuestion(ctx, sess, false)
	}

	opt, ok := questions.FindOption(q, payload)
	if !ok {
		slog.Warn("Unknown option key", "chatID", sess.ChatID, "questionID", questionID, "key", payload)
		return c.messenger.SendMessage(ctx, sess.ChatID, messages.UnknownActionMessage)
	}

	if opt.RequiresFreeText {
		sess.AwaitingOther = &models.OtherPrompt{
			QuestionID:  q.ID,
			OptionText:  opt.Text,
			Section:     q.Section,
			MultiSelect: q.MultiSelect,
		}
		return c.messenger.SendMessage(ctx, sess.ChatID, messages.CustomOptionPrompt)
	}

	if q.MultiSelect {
		answers.ToggleMultiOption(sess, q, opt)
		sess.CurrentQuestionMessage = &models.MessageRef{ChatID: sess.ChatID, MessageID: messageID}
		return c.refreshQuestionMessage(ctx, sess, q)
	}

	answers.RecordSingle(sess, q.ID, opt.Text)
	return c.sendNextQuestion(ctx, sess, false)
}

// refreshQuestionMessage edits the tracked prompt in place so it reflects the
// current selection state; no duplicate prompts are ever appended.
func (c *Conversation) refreshQuestionMessage(ctx context.Context, sess *models.Session, q models.Question) error {
	ref := sess.CurrentQuestionMessage
	if ref == nil {
		return nil
	}
	text := c.questionText(sess, q)
	if err := c.messenger.EditKeyboard(ctx, ref.ChatID, ref.MessageID, text, questionKeyboard(sess, q)); err != nil {
		slog.Warn("Failed to refresh question message", "error", err, "chatID", sess.ChatID)
	}
	return nil
}

// HandleText routes an inbound free-text message: pending "other"
// elaboration first, then a pending free-text question, then chat once the
// report is ready, otherwise the finish-the-questionnaire reminder.
func (c *Conversation) HandleText(ctx context.Context, chatID int64, text string) error {
	text = strings.TrimSpace(text)
	slog.Debug("Conversation text", "chatID", chatID, "len", len(text))
	return c.withSession(ctx, chatID, func(sess *models.Session) error {
		if other := sess.AwaitingOther; other != nil {
			return c.handleOtherAnswer(ctx, sess, other, text)
		}

		if questionID := sess.AwaitingTextQuestion; questionID != "" {
			if q, ok := questions.ByID(questionID); ok {
				answers.RecordSingle(sess, q.ID, text)
				sess.AwaitingTextQuestion = ""
				return c.sendNextQuestion(ctx, sess, false)
			}
			sess.AwaitingTextQuestion = ""
		}

		if sess.ReportReady {
			return c.handleChatMessage(ctx, sess, text)
		}

		return c.messenger.SendMessage(ctx, chatID, messages.PreChatReminder)
	})
}

// handleOtherAnswer consumes the elaboration text for a requires-free-text
// option: appended for multi-select, recorded directly and advanced for
// single-select.
func (c *Conversation) handleOtherAnswer(ctx context.Context, sess *models.Session, other *models.OtherPrompt, text string) error {
	sess.AwaitingOther = nil

	q, ok := questions.ByID(other.QuestionID)
	if !ok {
		return c.messenger.SendMessage(ctx, sess.ChatID, messages.PreChatReminder)
	}

	if other.MultiSelect {
		answers.AppendCustom(sess, q.ID, other.OptionText, text)
		return c.refreshQuestionMessage(ctx, sess, q)
	}

	answers.RecordSingle(sess, q.ID, text)
	return c.sendNextQuestion(ctx, sess, false)
}

func (c *Conversation) questionnaireComplete(ctx context.Context, sess *models.Session) error {
	sess.DiagnosisComplete = true
	sess.State = models.StateReport
	_, err := c.messenger.SendKeyboard(ctx, sess.ChatID, messages.PreReportMessage, buttonKeyboard(messages.ReportButton))
	return err
}

// HandleNonText answers anything that is not a text message or a known
// button press: a fallback in the chat phase, the reminder before it.
func (c *Conversation) HandleNonText(ctx context.Context, chatID int64) error {
	return c.withSession(ctx, chatID, func(sess *models.Session) error {
		if sess.ReportReady {
			return c.messenger.SendMessage(ctx, chatID, messages.ChatFallbackMessage)
		}
		return c.messenger.SendMessage(ctx, chatID, messages.PreChatReminder)
	})
}
