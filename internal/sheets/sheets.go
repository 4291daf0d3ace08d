// Package sheets persists questionnaire results to a spreadsheet.
//
// Preferred integration is a Google Apps Script endpoint; the Google Sheets
// API is the fallback. Idempotency is the caller's responsibility.
package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	gsheets "google.golang.org/api/sheets/v4"
	"google.golang.org/api/option"

	"github.com/KirillMachuk/tg-transformator-bot/internal/answers"
	"github.com/KirillMachuk/tg-transformator-bot/internal/models"
	"github.com/KirillMachuk/tg-transformator-bot/internal/questions"
)

// RequestTimeout bounds the Apps Script POST.
const RequestTimeout = 10 * time.Second

// DefaultSheetRange is the append range used when none is configured.
const DefaultSheetRange = "Ответы!A:Z"

// Opts holds configuration options for the recorder.
type Opts struct {
	GASEndpoint     string
	CredentialsJSON string
	SheetID         string
	SheetRange      string
}

// Option defines a functional option for configuring the recorder.
type Option func(*Opts)

// WithGASEndpoint sets the Apps Script webhook URL.
func WithGASEndpoint(url string) Option {
	return func(o *Opts) { o.GASEndpoint = url }
}

// WithCredentialsJSON sets the service-account credentials for the Sheets API.
func WithCredentialsJSON(creds string) Option {
	return func(o *Opts) { o.CredentialsJSON = creds }
}

// WithSheet sets the target spreadsheet id and append range.
func WithSheet(id, sheetRange string) Option {
	return func(o *Opts) {
		o.SheetID = id
		o.SheetRange = sheetRange
	}
}

// Recorder writes one row per completed questionnaire.
type Recorder struct {
	cfg    Opts
	client *http.Client
}

// NewRecorder creates a spreadsheet recorder. With nothing configured it
// degrades to a no-op that only logs.
func NewRecorder(opts ...Option) *Recorder {
	cfg := Opts{SheetRange: DefaultSheetRange}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.SheetRange == "" {
		cfg.SheetRange = DefaultSheetRange
	}
	return &Recorder{
		cfg:    cfg,
		client: &http.Client{Timeout: RequestTimeout},
	}
}

type exportRow struct {
	ID               string `json:"id"`
	QuestionMarkdown string `json:"question_markdown"`
	QuestionPlain    string `json:"question_plain"`
	Answer           string `json:"answer"`
}

type exportMeta struct {
	Timestamp  string `json:"timestamp"`
	UserID     int64  `json:"user_id"`
	Username   string `json:"username"`
	FullName   string `json:"full_name"`
	SkillLevel string `json:"skill_level"`
}

type exportPayload struct {
	Meta        exportMeta        `json:"meta"`
	AnswersByID map[string]string `json:"answers_by_id"`
	Answers     []exportRow       `json:"answers"`
	Analysis    *models.Analysis  `json:"analysis,omitempty"`
}

// StoreAnswers persists the answer snapshot and analysis: Apps Script first,
// Sheets API fallback, logged skip when neither is configured.
func (r *Recorder) StoreAnswers(ctx context.Context, meta models.UserMetadata, payload *models.AnalysisPayload, analysis *models.Analysis) error {
	export := r.buildPayload(meta, payload)
	export.Analysis = analysis

	if r.cfg.GASEndpoint != "" {
		if r.postToGAS(ctx, export) {
			slog.Info("Saved answers via GAS endpoint", "userID", meta.UserID)
			return nil
		}
		slog.Warn("GAS endpoint failed, falling back to Sheets API", "userID", meta.UserID)
	}

	if r.cfg.CredentialsJSON != "" && r.cfg.SheetID != "" {
		return r.appendToSheet(ctx, export)
	}

	slog.Info("No spreadsheet integration configured; answers not stored", "userID", meta.UserID)
	return nil
}

func (r *Recorder) buildPayload(meta models.UserMetadata, payload *models.AnalysisPayload) exportPayload {
	timestamp := meta.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}

	rows := make([]exportRow, 0, len(questions.All()))
	for _, q := range questions.All() {
		rows = append(rows, exportRow{
			ID:               q.ID,
			QuestionMarkdown: q.Text,
			QuestionPlain:    answers.StripMarkdown(q.Text),
			Answer:           payload.AnswersByID[q.ID],
		})
	}

	return exportPayload{
		Meta: exportMeta{
			Timestamp:  timestamp.Format(time.RFC3339),
			UserID:     meta.UserID,
			Username:   meta.Username,
			FullName:   meta.FullName,
			SkillLevel: payload.SkillLevel,
		},
		AnswersByID: payload.AnswersByID,
		Answers:     rows,
	}
}

func (r *Recorder) postToGAS(ctx context.Context, export exportPayload) bool {
	data, err := json.Marshal(export)
	if err != nil {
		slog.Error("Failed to encode GAS payload", "error", err)
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.GASEndpoint, bytes.NewReader(data))
	if err != nil {
		slog.Error("Failed to build GAS request", "error", err)
		return false
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := r.client.Do(req)
	if err != nil {
		slog.Error("Failed to POST data to GAS endpoint", "error", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Error("GAS endpoint returned unexpected status", "status", resp.StatusCode)
		return false
	}

	var ack struct {
		OK *bool `json:"ok"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		return true // empty or non-JSON body counts as accepted
	}
	return ack.OK == nil || *ack.OK
}

func (r *Recorder) appendToSheet(ctx context.Context, export exportPayload) error {
	service, err := gsheets.NewService(ctx,
		option.WithCredentialsJSON([]byte(r.cfg.CredentialsJSON)),
		option.WithScopes(gsheets.SpreadsheetsScope),
	)
	if err != nil {
		slog.Error("Failed to create Sheets client", "error", err)
		return fmt.Errorf("failed to create sheets client: %w", err)
	}

	row := []interface{}{
		export.Meta.Timestamp,
		fmt.Sprintf("%d", export.Meta.UserID),
		export.Meta.Username,
		export.Meta.FullName,
		export.Meta.SkillLevel,
	}
	for _, q := range questions.All() {
		row = append(row, export.AnswersByID[q.ID])
	}

	_, err = service.Spreadsheets.Values.
		Append(r.cfg.SheetID, r.cfg.SheetRange, &gsheets.ValueRange{Values: [][]interface{}{row}}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		slog.Error("Failed to append row to Google Sheets", "error", err)
		return fmt.Errorf("failed to append row: %w", err)
	}
	slog.Info("Saved answers to Google Sheets", "userID", export.Meta.UserID)
	return nil
}
