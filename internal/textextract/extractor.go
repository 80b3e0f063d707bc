package textextract

import (
	"context"
	"log/slog"
	"time"

	"github.com/quoteproc/quote-processor/constants"
	"github.com/quoteproc/quote-processor/internal/document"
)

// DensityThreshold is the average number of directly extracted
// characters per page below which a PDF is treated as scan-only and
// optical recognition is run in addition.
const DensityThreshold = 50

type Config struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	TesseractLang string // default "eng"
	DPI           int    // rasterization DPI for scanned PDFs, default 300
	MaxPages      int    // 0 = no limit
}

// Extractor recovers plain text from raw documents. It never fails for
// a well-formed input: any stage failure contributes empty text for
// that stage rather than aborting the pipeline.
type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	return &Extractor{cfg: cfg, runner: execRunner{}, logger: logger}
}

// Extract picks a recovery strategy based on the declared format.
func (e *Extractor) Extract(ctx context.Context, doc document.RawDocument) document.ExtractedText {
	start := time.Now()
	var res document.ExtractedText
	switch doc.Format {
	case constants.Spreadsheet:
		res = e.extractSpreadsheet(doc)
	case constants.PDF:
		res = e.extractPDF(ctx, doc)
	case constants.Image:
		res = e.extractImage(ctx, doc)
	case constants.Text:
		res = document.ExtractedText{Text: string(doc.Content), Source: document.SourceDirect, Pages: 1}
	default:
		e.logger.Warn("textextract.unsupported_format", "doc_id", doc.ID, "format", doc.Format)
		res = document.ExtractedText{Source: document.SourceDirect}
	}
	e.logger.Info("textextract.done",
		"doc_id", doc.ID,
		"format", doc.Format,
		"source", res.Source,
		"pages", res.Pages,
		"chars", len(res.Text),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res
}
