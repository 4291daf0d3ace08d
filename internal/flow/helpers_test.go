package flow

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/KirillMachuk/tg-transformator-bot/internal/models"
)

// fakeStore keeps sessions in a plain map for inspection in tests.
type fakeStore struct {
	mu       sync.Mutex
	sessions map[int64]*models.Session
	getErr   error
	setErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{sessions: make(map[int64]*models.Session)}
}

func (f *fakeStore) Get(ctx context.Context, chatID int64) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.sessions[chatID], nil
}

func (f *fakeStore) Set(ctx context.Context, s *models.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.sessions[s.ChatID] = s
	return nil
}

func (f *fakeStore) Delete(ctx context.Context, chatID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, chatID)
	return nil
}

func (f *fakeStore) session(t *testing.T, chatID int64) *models.Session {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	sess, ok := f.sessions[chatID]
	if !ok {
		t.Fatalf("Expected a stored session for chat %d", chatID)
	}
	return sess
}

// sentMessage records one outbound message or keyboard send.
type sentMessage struct {
	ChatID   int64
	Text     string
	Keyboard models.Keyboard
}

// editedMessage records one in-place keyboard edit.
type editedMessage struct {
	ChatID    int64
	MessageID int
	Text      string
	Keyboard  models.Keyboard
}

// sentDocument records one outbound document send.
type sentDocument struct {
	ChatID  int64
	Path    string
	Caption string
}

// fakeMessenger captures everything the flow sends.
type fakeMessenger struct {
	mu            sync.Mutex
	messages      []sentMessage
	edits         []editedMessage
	documents     []sentDocument
	nextMessageID int
	sendErr       error
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{nextMessageID: 100}
}

func (f *fakeMessenger) SendMessage(ctx context.Context, chatID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.messages = append(f.messages, sentMessage{ChatID: chatID, Text: text})
	return nil
}

func (f *fakeMessenger) SendKeyboard(ctx context.Context, chatID int64, text string, kb models.Keyboard) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return 0, f.sendErr
	}
	f.messages = append(f.messages, sentMessage{ChatID: chatID, Text: text, Keyboard: kb})
	f.nextMessageID++
	return f.nextMessageID, nil
}

func (f *fakeMessenger) EditKeyboard(ctx context.Context, chatID int64, messageID int, text string, kb models.Keyboard) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits = append(f.edits, editedMessage{ChatID: chatID, MessageID: messageID, Text: text, Keyboard: kb})
	return nil
}

func (f *fakeMessenger) SendDocument(ctx context.Context, chatID int64, path, caption string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.documents = append(f.documents, sentDocument{ChatID: chatID, Path: path, Caption: caption})
	return nil
}

func (f *fakeMessenger) lastMessage(t *testing.T) sentMessage {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.messages) == 0 {
		t.Fatal("Expected at least one sent message")
	}
	return f.messages[len(f.messages)-1]
}

func (f *fakeMessenger) messageCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages)
}

// fakeGenAI returns canned responses and counts the calls it receives.
type fakeGenAI struct {
	mu sync.Mutex

	analysis    *models.Analysis
	analysisErr error
	reply       string
	replyErr    error
	summary     string
	summaryErr  error

	analyzeCalls   int
	replyCalls     int
	summarizeCalls int
}

func (f *fakeGenAI) AnalyzeAnswers(ctx context.Context, payload *models.AnalysisPayload) (*models.Analysis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.analyzeCalls++
	if f.analysisErr != nil {
		return nil, f.analysisErr
	}
	if f.analysis != nil {
		return f.analysis, nil
	}
	return models.EmptyAnalysis(), nil
}

func (f *fakeGenAI) GenerateChatReply(ctx context.Context, payload map[string]any) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replyCalls++
	return f.reply, f.replyErr
}

func (f *fakeGenAI) SummarizeContext(ctx context.Context, payload map[string]any) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summarizeCalls++
	return f.summary, f.summaryErr
}

// fakeRenderer writes a throwaway file so document delivery and cleanup run
// against a real path.
type fakeRenderer struct {
	mu    sync.Mutex
	dir   string
	err   error
	calls int
}

func (f *fakeRenderer) Generate(meta models.UserMetadata, pairs []models.QAPair, analysis *models.Analysis) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	path := filepath.Join(f.dir, "report_"+strconv.Itoa(f.calls)+".pdf")
	if err := os.WriteFile(path, []byte("%PDF-fake"), 0644); err != nil {
		return "", err
	}
	return path, nil
}

// fakeRecorder counts persistence attempts.
type fakeRecorder struct {
	mu    sync.Mutex
	err   error
	calls int
}

func (f *fakeRecorder) StoreAnswers(ctx context.Context, meta models.UserMetadata, payload *models.AnalysisPayload, analysis *models.Analysis) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.err
}

func (f *fakeRecorder) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// testHarness bundles a conversation with all its fakes.
type testHarness struct {
	conv      *Conversation
	store     *fakeStore
	messenger *fakeMessenger
	genai     *fakeGenAI
	renderer  *fakeRenderer
	recorder  *fakeRecorder
}

func newTestHarness(t *testing.T, opts ...Option) *testHarness {
	t.Helper()
	store := newFakeStore()
	messenger := newFakeMessenger()
	ai := &fakeGenAI{}
	renderer := &fakeRenderer{dir: t.TempDir()}
	recorder := &fakeRecorder{}

	opts = append([]Option{WithFollowUpDelay(time.Millisecond)}, opts...)
	return &testHarness{
		conv:      NewConversation(store, ai, messenger, renderer, recorder, opts...),
		store:     store,
		messenger: messenger,
		genai:     ai,
		renderer:  renderer,
		recorder:  recorder,
	}
}
