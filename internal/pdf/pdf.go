// Package pdf renders the diagnostic report into a PDF document.
package pdf

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/KirillMachuk/tg-transformator-bot/internal/models"
	"github.com/KirillMachuk/tg-transformator-bot/internal/util"
)

const (
	pageFontSize    = 11
	headerFontSize  = 16
	sectionFontSize = 13
	lineHeight      = 6
)

// Opts holds configuration options for the renderer.
type Opts struct {
	FontPath string
}

// Option defines a functional option for configuring the renderer.
type Option func(*Opts)

// WithFontPath sets a UTF-8 TTF font file used for Cyrillic output.
func WithFontPath(path string) Option {
	return func(o *Opts) { o.FontPath = path }
}

// Renderer produces report files in the system temp directory. Callers are
// expected to delete the file after sending it.
type Renderer struct {
	fontPath string
}

// NewRenderer creates a report renderer. Without a font path the PDF falls
// back to the built-in Helvetica, which cannot render Cyrillic.
func NewRenderer(opts ...Option) *Renderer {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.FontPath == "" {
		slog.Warn("PDF font path not configured, Cyrillic text will not render correctly")
	}
	return &Renderer{fontPath: cfg.FontPath}
}

// Generate renders the report and returns the output file path.
func (r *Renderer) Generate(meta models.UserMetadata, pairs []models.QAPair, analysis *models.Analysis) (string, error) {
	doc := fpdf.New("P", "mm", "A4", "")

	family := "Helvetica"
	if r.fontPath != "" {
		family = "report"
		doc.AddUTF8Font(family, "", r.fontPath)
		doc.AddUTF8Font(family, "B", r.fontPath)
	}

	doc.AddPage()
	doc.SetFont(family, "B", headerFontSize)
	doc.MultiCell(0, lineHeight+2, "Отчёт по ИИ-трансформации бизнеса", "", "L", false)

	doc.SetFont(family, "", pageFontSize)
	doc.MultiCell(0, lineHeight, fmt.Sprintf("Подготовлен для: %s", displayName(meta)), "", "L", false)
	doc.MultiCell(0, lineHeight, meta.Timestamp.Format("02.01.2006 15:04"), "", "L", false)
	doc.Ln(lineHeight)

	r.section(doc, family, "Итоги диагностики", nil)
	for _, pair := range pairs {
		if pair.Answer == "" {
			continue
		}
		doc.SetFont(family, "B", pageFontSize)
		doc.MultiCell(0, lineHeight, pair.Question, "", "L", false)
		doc.SetFont(family, "", pageFontSize)
		doc.MultiCell(0, lineHeight, pair.Answer, "", "L", false)
		doc.Ln(lineHeight / 2)
	}

	r.section(doc, family, "О бизнесе", []string{analysis.BusinessSummary})
	r.section(doc, family, "Приоритетные процессы", analysis.PriorityProcesses)
	r.section(doc, family, "Возможности ИИ", analysis.AIOpportunities)
	r.section(doc, family, "Быстрые победы", analysis.QuickWins)
	r.section(doc, family, "Долгосрочные инициативы", analysis.LongTerm)
	r.section(doc, family, "Следующие шаги", analysis.NextSteps)
	r.section(doc, family, "Рекомендуемые инструменты", analysis.RecommendedTools)
	r.section(doc, family, "Примеры запросов к GPT", analysis.GPTPrompts)

	path := filepath.Join(os.TempDir(), fmt.Sprintf("transformator_report_%d_%d_%s.pdf", meta.UserID, time.Now().Unix(), util.GenerateRandomHex(8)))
	if err := doc.OutputFileAndClose(path); err != nil {
		slog.Error("PDF generation failed", "error", err, "path", path)
		return "", fmt.Errorf("failed to write report PDF: %w", err)
	}
	slog.Info("Report PDF generated", "path", path)
	return path, nil
}

func (r *Renderer) section(doc *fpdf.Fpdf, family, title string, items []string) {
	doc.Ln(lineHeight / 2)
	doc.SetFont(family, "B", sectionFontSize)
	doc.MultiCell(0, lineHeight+1, title, "", "L", false)
	doc.SetFont(family, "", pageFontSize)
	for _, item := range items {
		if item == "" {
			continue
		}
		doc.MultiCell(0, lineHeight, "• "+item, "", "L", false)
	}
}

func displayName(meta models.UserMetadata) string {
	if meta.FullName != "" {
		return meta.FullName
	}
	if meta.Username != "" {
		return "@" + meta.Username
	}
	return fmt.Sprintf("ID %d", meta.UserID)
}
