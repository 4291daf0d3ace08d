package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/KirillMachuk/tg-transformator-bot/internal/flow"
	"github.com/KirillMachuk/tg-transformator-bot/internal/models"
)

// secretTokenHeader carries the shared secret Telegram echoes back on
// every webhook delivery when the webhook was registered with one.
const secretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

// callbackAcker acknowledges callback queries so Telegram clients stop
// showing the button spinner.
type callbackAcker interface {
	AnswerCallback(ctx context.Context, callbackID string) error
}

// Server handles incoming Telegram webhook updates and routes them into
// the conversation flow. Updates for the same chat are serialized so the
// session read-modify-write cycle never races with itself.
type Server struct {
	conversation *flow.Conversation
	acker        callbackAcker
	secretToken  string

	mu        sync.Mutex
	chatLocks map[int64]*sync.Mutex
}

// NewServer creates a webhook server for the given conversation flow.
func NewServer(conversation *flow.Conversation, acker callbackAcker, secretToken string) *Server {
	return &Server{
		conversation: conversation,
		acker:        acker,
		secretToken:  secretToken,
		chatLocks:    make(map[int64]*sync.Mutex),
	}
}

func (s *Server) chatLock(chatID int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.chatLocks[chatID]
	if !ok {
		lock = &sync.Mutex{}
		s.chatLocks[chatID] = lock
	}
	return lock
}

// healthHandler reports service liveness.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONResponse(w, http.StatusMethodNotAllowed, statusResponse{Status: "error", Message: "Method not allowed"})
		return
	}
	writeJSONResponse(w, http.StatusOK, statusResponse{Status: "ok"})
}

// webhookHandler receives Telegram update payloads. It answers 405 for
// non-POST requests, 403 when the shared secret does not match, and 200
// for every handled update, including ones whose processing failed after
// logging: returning an error status would only make Telegram redeliver
// the same update.
func (s *Server) webhookHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONResponse(w, http.StatusMethodNotAllowed, statusResponse{Status: "error", Message: "Method not allowed"})
		return
	}

	if s.secretToken != "" && r.Header.Get(secretTokenHeader) != s.secretToken {
		slog.Warn("Server.webhookHandler: secret token mismatch", "remote_addr", r.RemoteAddr)
		writeJSONResponse(w, http.StatusForbidden, statusResponse{Status: "error", Message: "Forbidden"})
		return
	}

	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		slog.Warn("Server.webhookHandler: failed to decode update", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, statusResponse{Status: "error", Message: "Invalid JSON payload"})
		return
	}

	s.handleUpdate(r.Context(), &update)

	writeJSONResponse(w, http.StatusOK, statusResponse{Status: "ok"})
}

func (s *Server) handleUpdate(ctx context.Context, update *tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		s.handleCallbackQuery(ctx, update.CallbackQuery)
	case update.Message != nil:
		s.handleMessage(ctx, update.Message)
	default:
		slog.Debug("Server.handleUpdate: ignoring update without message or callback", "update_id", update.UpdateID)
	}
}

func (s *Server) handleCallbackQuery(ctx context.Context, query *tgbotapi.CallbackQuery) {
	if s.acker != nil {
		if err := s.acker.AnswerCallback(ctx, query.ID); err != nil {
			slog.Warn("Server.handleCallbackQuery: failed to answer callback", "error", err)
		}
	}
	if query.Message == nil {
		slog.Warn("Server.handleCallbackQuery: callback without originating message", "callback_id", query.ID)
		return
	}

	chatID := query.Message.Chat.ID
	lock := s.chatLock(chatID)
	lock.Lock()
	defer lock.Unlock()

	meta := buildUserMetadata(query.From)
	if err := s.conversation.HandleCallback(ctx, chatID, query.Message.MessageID, meta, query.Data); err != nil {
		slog.Error("Server.handleCallbackQuery: failed to handle callback", "chat_id", chatID, "data", query.Data, "error", err)
	}
}

func (s *Server) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	lock := s.chatLock(chatID)
	lock.Lock()
	defer lock.Unlock()

	var err error
	switch {
	case message.IsCommand() && message.Command() == "start":
		err = s.conversation.HandleStart(ctx, chatID)
	case strings.TrimSpace(message.Text) != "":
		err = s.conversation.HandleText(ctx, chatID, message.Text)
	default:
		err = s.conversation.HandleNonText(ctx, chatID)
	}
	if err != nil {
		slog.Error("Server.handleMessage: failed to handle message", "chat_id", chatID, "error", err)
	}
}

func buildUserMetadata(user *tgbotapi.User) models.UserMetadata {
	if user == nil {
		return models.UserMetadata{}
	}
	fullName := strings.TrimSpace(strings.TrimSpace(user.FirstName) + " " + strings.TrimSpace(user.LastName))
	return models.UserMetadata{
		UserID:   user.ID,
		Username: user.UserName,
		FullName: fullName,
	}
}
