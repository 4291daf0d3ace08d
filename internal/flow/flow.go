// Package flow implements the conversation state machine: phase transitions,
// question dispatch, report orchestration, and the post-report chat.
//
// The flow owns the read-modify-write cycle on the session record: one store
// read at the start of an update, one write at the end. Collaborators are
// injected behind narrow interfaces so the machine is testable with fakes.
package flow

import (
	"context"
	"log/slog"
	"time"

	"github.com/KirillMachuk/tg-transformator-bot/internal/genai"
	"github.com/KirillMachuk/tg-transformator-bot/internal/models"
	"github.com/KirillMachuk/tg-transformator-bot/internal/session"
)

// Collaborator timeouts. The persistence bound is spec'd at ten seconds; the
// GenAI bound covers analysis, chat, and summarization uniformly.
const (
	genaiTimeout   = 60 * time.Second
	persistTimeout = 10 * time.Second
)

// FollowUpDelay is how long after report delivery the consultation nudge is
// sent.
const FollowUpDelay = 30 * time.Second

// Messenger is the outbound transport surface the flow needs.
type Messenger interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	SendKeyboard(ctx context.Context, chatID int64, text string, kb models.Keyboard) (messageID int, err error)
	EditKeyboard(ctx context.Context, chatID int64, messageID int, text string, kb models.Keyboard) error
	SendDocument(ctx context.Context, chatID int64, path, caption string) error
}

// Renderer produces the report document and returns its file path.
type Renderer interface {
	Generate(meta models.UserMetadata, pairs []models.QAPair, analysis *models.Analysis) (string, error)
}

// Recorder persists the answer snapshot and analysis to external storage.
type Recorder interface {
	StoreAnswers(ctx context.Context, meta models.UserMetadata, payload *models.AnalysisPayload, analysis *models.Analysis) error
}

// Conversation drives one chat through the questionnaire, report, and chat
// phases.
type Conversation struct {
	store     session.Store
	genai     genai.ClientInterface
	messenger Messenger
	renderer  Renderer
	recorder  Recorder

	consultationURL string
	followUpDelay   time.Duration
}

// Opts holds configuration options for the conversation flow.
type Opts struct {
	ConsultationURL string
	FollowUpDelay   time.Duration
}

// Option defines a functional option for configuring the flow.
type Option func(*Opts)

// WithConsultationURL enables the post-report consultation call-to-action.
func WithConsultationURL(url string) Option {
	return func(o *Opts) { o.ConsultationURL = url }
}

// WithFollowUpDelay overrides the consultation nudge delay.
func WithFollowUpDelay(d time.Duration) Option {
	return func(o *Opts) { o.FollowUpDelay = d }
}

// NewConversation wires the state machine with its collaborators.
func NewConversation(store session.Store, genaiClient genai.ClientInterface, messenger Messenger, renderer Renderer, recorder Recorder, opts ...Option) *Conversation {
	cfg := Opts{FollowUpDelay: FollowUpDelay}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Conversation{
		store:           store,
		genai:           genaiClient,
		messenger:       messenger,
		renderer:        renderer,
		recorder:        recorder,
		consultationURL: cfg.ConsultationURL,
		followUpDelay:   cfg.FollowUpDelay,
	}
}

// withSession runs fn inside one read-modify-write cycle for the chat. The
// session is created on first contact and always written back, so partial
// progress survives handler errors.
func (c *Conversation) withSession(ctx context.Context, chatID int64, fn func(*models.Session) error) error {
	sess, err := c.store.Get(ctx, chatID)
	if err != nil {
		slog.Error("Session read failed", "error", err, "chatID", chatID)
	}
	if sess == nil {
		sess = models.NewSession(chatID)
	}

	handlerErr := fn(sess)

	sess.UpdatedAt = time.Now()
	if err := c.store.Set(ctx, sess); err != nil {
		slog.Error("Session write failed", "error", err, "chatID", chatID)
	}
	return handlerErr
}
