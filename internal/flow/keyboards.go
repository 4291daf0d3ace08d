package flow

import (
	"fmt"

	"github.com/KirillMachuk/tg-transformator-bot/internal/answers"
	"github.com/KirillMachuk/tg-transformator-bot/internal/messages"
	"github.com/KirillMachuk/tg-transformator-bot/internal/models"
)

// callbackData encodes a question action as "q|<questionID>|<optionKey|done>".
func callbackData(questionID, payload string) string {
	return fmt.Sprintf("q|%s|%s", questionID, payload)
}

func startKeyboard() models.Keyboard {
	return models.SingleButton(messages.StartButton.Text, messages.StartButton.Key)
}

func skillLevelKeyboard() models.Keyboard {
	kb := make(models.Keyboard, 0, len(messages.SkillLevelOptions))
	for _, opt := range messages.SkillLevelOptions {
		kb = append(kb, []models.KeyboardButton{{Text: opt.Text, Data: opt.Key}})
	}
	return kb
}

func buttonKeyboard(btn messages.Button) models.Keyboard {
	return models.SingleButton(btn.Text, btn.Key)
}

// questionKeyboard renders one button row per option, a check mark on the
// ones already selected, plus the terminal done row for multi-select
// questions.
func questionKeyboard(sess *models.Session, q models.Question) models.Keyboard {
	selected := answers.SelectedOptionKeys(sess, q.ID)
	kb := make(models.Keyboard, 0, len(q.Options)+1)
	for _, opt := range q.Options {
		text := opt.Text
		if selected[opt.Key] {
			text = "✅ " + text
		}
		kb = append(kb, []models.KeyboardButton{{Text: text, Data: callbackData(q.ID, opt.Key)}})
	}
	if q.MultiSelect {
		kb = append(kb, []models.KeyboardButton{{
			Text: messages.MultiSelectDoneButton.Text,
			Data: callbackData(q.ID, messages.MultiSelectDoneButton.Key),
		}})
	}
	return kb
}

func consultationKeyboard(url string) models.Keyboard {
	if url == "" {
		return nil
	}
	return models.Keyboard{{{Text: messages.ConsultationButtonText, URL: url}}}
}
