package textextract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/quoteproc/quote-processor/internal/document"
)

// extractPDF attempts direct text-layer extraction first. If the
// average extracted character density per page falls below
// DensityThreshold the document is treated as scan-only: every page is
// rendered to an image and run through optical recognition, and the
// recognized text is appended to whatever direct text exists.
func (e *Extractor) extractPDF(ctx context.Context, doc document.RawDocument) document.ExtractedText {
	path, cleanup, err := writeTemp(doc.Content, "*.pdf")
	if err != nil {
		e.logger.Warn("textextract.pdf.tempfile_failed", "doc_id", doc.ID, "error", err)
		return document.ExtractedText{Source: document.SourceDirect}
	}
	defer cleanup()

	direct, pages, err := e.pdfToText(ctx, path)
	if err != nil {
		e.logger.Warn("textextract.pdf.direct_failed", "doc_id", doc.ID, "error", err)
		direct, pages = "", 0
	}

	density := 0
	if pages > 0 {
		density = len(strings.TrimSpace(direct)) / pages
	}
	if density >= DensityThreshold {
		return document.ExtractedText{Text: direct, Source: document.SourceDirect, Pages: pages}
	}

	e.logger.Info("textextract.pdf.low_density",
		"doc_id", doc.ID, "pages", pages, "density", density, "threshold", DensityThreshold)

	recognized, ocrPages, err := e.pdfToOCR(ctx, path)
	if err != nil {
		e.logger.Warn("textextract.pdf.ocr_failed", "doc_id", doc.ID, "error", err)
		return document.ExtractedText{Text: direct, Source: document.SourceDirect, Pages: pages}
	}
	if pages == 0 {
		pages = ocrPages
	}

	// Recognition is additive: sparse direct text is kept, not replaced.
	source := document.SourceOCR
	if strings.TrimSpace(direct) != "" {
		source = document.SourceDirectOCR
	}
	text := direct
	if recognized != "" {
		if text != "" {
			text += "\n"
		}
		text += recognized
	}
	return document.ExtractedText{Text: text, Source: source, Pages: pages}
}

func (e *Extractor) extractImage(ctx context.Context, doc document.RawDocument) document.ExtractedText {
	ext := strings.ToLower(filepath.Ext(doc.Filename))
	if ext == "" {
		ext = ".png"
	}
	path, cleanup, err := writeTemp(doc.Content, "*"+ext)
	if err != nil {
		e.logger.Warn("textextract.image.tempfile_failed", "doc_id", doc.ID, "error", err)
		return document.ExtractedText{Source: document.SourceOCR}
	}
	defer cleanup()

	txt, err := e.tesseractOCR(ctx, path)
	if err != nil {
		e.logger.Warn("textextract.image.ocr_failed", "doc_id", doc.ID, "error", err)
		return document.ExtractedText{Source: document.SourceOCR}
	}
	return document.ExtractedText{Text: txt, Source: document.SourceOCR, Pages: 1}
}

func (e *Extractor) pdfToText(ctx context.Context, path string) (text string, pages int, err error) {
	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return "", 0, fmt.Errorf("pdftotext: %w: %s", err, truncate(string(errb), 512))
	}
	text = string(out)
	if strings.TrimSpace(text) == "" {
		return "", 0, nil
	}
	// A form-feed \f is used as page separator by default
	pages = 1 + strings.Count(text, "\f")
	return text, pages, nil
}

func (e *Extractor) pdfToOCR(ctx context.Context, path string) (text string, pages int, err error) {
	tmpDir, err := os.MkdirTemp("", "qp-pp-*")
	if err != nil {
		return "", 0, err
	}
	defer func() {
		if rerr := os.RemoveAll(tmpDir); rerr != nil {
			e.logger.Warn("textextract.pdf.cleanup_failed", "dir", tmpDir, "error", rerr)
		}
	}()

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r 300 -png <in.pdf> <tmp/page>
	_, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm, "-r", fmt.Sprintf("%d", e.cfg.DPI), "-png", path, prefix)
	if err != nil {
		return "", 0, fmt.Errorf("pdftoppm: %w: %s", err, truncate(string(errb), 512))
	}

	// collect generated pngs (prefix-1.png, prefix-2.png, ...)
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if e.cfg.MaxPages > 0 && len(matches) > e.cfg.MaxPages {
		matches = matches[:e.cfg.MaxPages]
	}
	if len(matches) == 0 {
		return "", 0, fmt.Errorf("no pages rendered")
	}

	var b strings.Builder
	for _, img := range matches {
		txt, err := e.tesseractOCR(ctx, img)
		if err != nil {
			e.logger.Warn("textextract.pdf.page_ocr_failed", "page", img, "error", err)
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\f\n") // keep a clear page break marker
		}
		b.WriteString(txt)
	}
	return b.String(), len(matches), nil
}

func (e *Extractor) tesseractOCR(ctx context.Context, path string) (string, error) {
	// tesseract <file> stdout -l <lang>
	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, path, "stdout", "-l", e.cfg.TesseractLang)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w: %s", err, truncate(string(errb), 512))
	}
	return string(out), nil
}

func writeTemp(content []byte, pattern string) (string, func(), error) {
	f, err := os.CreateTemp("", "qp-doc-"+pattern)
	if err != nil {
		return "", nil, err
	}
	path := f.Name()
	cleanup := func() { _ = os.Remove(path) }
	if _, err := f.Write(content); err != nil {
		_ = f.Close()
		cleanup()
		return "", nil, err
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, err
	}
	return path, cleanup, nil
}
