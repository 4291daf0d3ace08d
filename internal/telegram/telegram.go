// Package telegram wraps the Telegram Bot API as the outbound transport.
//
// It converts the transport-neutral keyboard model into Telegram inline
// markup and exposes the narrow send/edit surface the conversation flow
// needs.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/KirillMachuk/tg-transformator-bot/internal/models"
)

// Opts holds configuration options for the Telegram client.
type Opts struct {
	Token string
}

// Option defines a functional option for configuring the client.
type Option func(*Opts)

// WithToken overrides the TELEGRAM_BOT_TOKEN environment variable.
func WithToken(token string) Option {
	return func(o *Opts) { o.Token = token }
}

// Client is a thin wrapper over the Bot API client.
type Client struct {
	bot *tgbotapi.BotAPI
}

// NewClient creates a Telegram client, reading TELEGRAM_BOT_TOKEN from the
// environment unless overridden. Construction verifies the token against the
// Bot API.
func NewClient(opts ...Option) (*Client, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Token == "" {
		cfg.Token = os.Getenv("TELEGRAM_BOT_TOKEN")
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN not set")
	}

	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram client: %w", err)
	}
	slog.Info("Telegram client authorized", "username", bot.Self.UserName)
	return &Client{bot: bot}, nil
}

func toMarkup(kb models.Keyboard) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(kb))
	for _, row := range kb {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			if btn.URL != "" {
				buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonURL(btn.Text, btn.URL))
				continue
			}
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(btn.Text, btn.Data))
		}
		rows = append(rows, buttons)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// SendMessage sends a markdown text message.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := c.bot.Send(msg); err != nil {
		slog.Error("Telegram SendMessage failed", "error", err, "chatID", chatID)
		return fmt.Errorf("failed to send message to %d: %w", chatID, err)
	}
	return nil
}

// SendKeyboard sends a markdown message with an inline keyboard and returns
// the sent message id so the prompt can later be edited in place.
func (c *Client) SendKeyboard(ctx context.Context, chatID int64, text string, kb models.Keyboard) (int, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if len(kb) > 0 {
		msg.ReplyMarkup = toMarkup(kb)
	}
	sent, err := c.bot.Send(msg)
	if err != nil {
		slog.Error("Telegram SendKeyboard failed", "error", err, "chatID", chatID)
		return 0, fmt.Errorf("failed to send keyboard to %d: %w", chatID, err)
	}
	return sent.MessageID, nil
}

// EditKeyboard edits a previously sent prompt in place, replacing text and
// keyboard.
func (c *Client) EditKeyboard(ctx context.Context, chatID int64, messageID int, text string, kb models.Keyboard) error {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeMarkdown
	if len(kb) > 0 {
		markup := toMarkup(kb)
		edit.ReplyMarkup = &markup
	}
	if _, err := c.bot.Send(edit); err != nil {
		slog.Error("Telegram EditKeyboard failed", "error", err, "chatID", chatID, "messageID", messageID)
		return fmt.Errorf("failed to edit message %d in %d: %w", messageID, chatID, err)
	}
	return nil
}

// SendDocument uploads a local file with a markdown caption.
func (c *Client) SendDocument(ctx context.Context, chatID int64, path, caption string) error {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(path))
	doc.Caption = caption
	doc.ParseMode = tgbotapi.ModeMarkdown
	if _, err := c.bot.Send(doc); err != nil {
		slog.Error("Telegram SendDocument failed", "error", err, "chatID", chatID, "path", path)
		return fmt.Errorf("failed to send document to %d: %w", chatID, err)
	}
	return nil
}

// AnswerCallback acknowledges a button press so the client stops its spinner.
func (c *Client) AnswerCallback(ctx context.Context, callbackID string) error {
	if _, err := c.bot.Request(tgbotapi.NewCallback(callbackID, "")); err != nil {
		slog.Debug("Telegram AnswerCallback failed", "error", err)
		return fmt.Errorf("failed to answer callback: %w", err)
	}
	return nil
}
