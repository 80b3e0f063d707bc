package textextract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/quoteproc/quote-processor/constants"
	"github.com/quoteproc/quote-processor/internal/document"
)

// fakeRunner scripts the external binaries per command name. The
// pdftoppm script also materializes page images so the glob in
// pdfToOCR finds them.
type fakeRunner struct {
	pdftotextOut string
	pdftotextErr error

	pdftoppmPages int
	pdftoppmErr   error

	tesseractOut string
	tesseractErr error

	calls []string
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.calls = append(f.calls, name)
	switch name {
	case "pdftotext":
		return []byte(f.pdftotextOut), nil, f.pdftotextErr
	case "pdftoppm":
		if f.pdftoppmErr != nil {
			return nil, []byte("render failed"), f.pdftoppmErr
		}
		prefix := args[len(args)-1]
		for i := 1; i <= f.pdftoppmPages; i++ {
			if err := os.WriteFile(fmt.Sprintf("%s-%d.png", prefix, i), []byte("png"), 0o600); err != nil {
				return nil, nil, err
			}
		}
		return nil, nil, nil
	case "tesseract":
		return []byte(f.tesseractOut), nil, f.tesseractErr
	default:
		return nil, nil, fmt.Errorf("unexpected command %q", name)
	}
}

func newTestExtractor(r Runner) *Extractor {
	e := NewExtractor(Config{}, nil)
	e.runner = r
	return e
}

func pdfDoc(t *testing.T) document.RawDocument {
	t.Helper()
	doc, ok := document.New("quote.pdf", []byte("%PDF-1.4 fake"))
	require.True(t, ok)
	return doc
}

func TestExtractPDFDenseTextSkipsOCR(t *testing.T) {
	runner := &fakeRunner{
		pdftotextOut: strings.Repeat("Widget 25.00 Nos\n", 10), // one page, well above threshold
	}
	e := newTestExtractor(runner)

	res := e.Extract(context.Background(), pdfDoc(t))
	assert.Equal(t, document.SourceDirect, res.Source)
	assert.Equal(t, 1, res.Pages)
	assert.Contains(t, res.Text, "Widget 25.00 Nos")
	assert.NotContains(t, runner.calls, "pdftoppm", "dense text must not trigger recognition")
	assert.NotContains(t, runner.calls, "tesseract")
}

func TestExtractPDFSparseTextTriggersAdditiveOCR(t *testing.T) {
	runner := &fakeRunner{
		pdftotextOut:  "hdr\f\f", // three pages, almost nothing per page
		pdftoppmPages: 3,
		tesseractOut:  "RECOGNIZED LINE",
	}
	e := newTestExtractor(runner)

	res := e.Extract(context.Background(), pdfDoc(t))
	assert.Equal(t, document.SourceDirectOCR, res.Source)
	assert.Equal(t, 3, res.Pages)
	assert.Contains(t, res.Text, "hdr", "sparse direct text is kept")
	assert.Contains(t, res.Text, "RECOGNIZED LINE")
	assert.Contains(t, runner.calls, "pdftoppm")
}

func TestExtractPDFNoTextLayerIsPureOCR(t *testing.T) {
	runner := &fakeRunner{
		pdftotextOut:  "",
		pdftoppmPages: 2,
		tesseractOut:  "SCANNED CONTENT",
	}
	e := newTestExtractor(runner)

	res := e.Extract(context.Background(), pdfDoc(t))
	assert.Equal(t, document.SourceOCR, res.Source)
	assert.Equal(t, 2, res.Pages)
	assert.Contains(t, res.Text, "SCANNED CONTENT")
}

func TestExtractPDFToolFailuresNeverAbort(t *testing.T) {
	t.Run("direct fails, recognition recovers", func(t *testing.T) {
		runner := &fakeRunner{
			pdftotextErr:  errors.New("exit status 1"),
			pdftoppmPages: 1,
			tesseractOut:  "RESCUED",
		}
		res := newTestExtractor(runner).Extract(context.Background(), pdfDoc(t))
		assert.Equal(t, document.SourceOCR, res.Source)
		assert.Contains(t, res.Text, "RESCUED")
	})

	t.Run("everything fails yields empty text", func(t *testing.T) {
		runner := &fakeRunner{
			pdftotextErr: errors.New("exit status 1"),
			pdftoppmErr:  errors.New("exit status 1"),
		}
		res := newTestExtractor(runner).Extract(context.Background(), pdfDoc(t))
		assert.True(t, res.IsEmpty())
	})
}

func TestExtractPDFMaxPagesCapsRecognition(t *testing.T) {
	runner := &fakeRunner{
		pdftoppmPages: 5,
		tesseractOut:  "PAGE",
	}
	e := NewExtractor(Config{MaxPages: 2}, nil)
	e.runner = runner

	res := e.Extract(context.Background(), pdfDoc(t))
	assert.Equal(t, 2, res.Pages)
	// 2 pages recognized -> pdftotext + pdftoppm + 2x tesseract
	assert.Len(t, runner.calls, 4)
}

func TestExtractImage(t *testing.T) {
	runner := &fakeRunner{tesseractOut: "Receipt total 42.00"}
	e := newTestExtractor(runner)

	doc, ok := document.New("scan.png", []byte("not really a png"))
	require.True(t, ok)

	res := e.Extract(context.Background(), doc)
	assert.Equal(t, document.SourceOCR, res.Source)
	assert.Equal(t, 1, res.Pages)
	assert.Equal(t, "Receipt total 42.00", res.Text)
}

func TestExtractText(t *testing.T) {
	doc, ok := document.New("invoice.txt", []byte("INVOICE #12345\nLine item one"))
	require.True(t, ok)

	res := newTestExtractor(&fakeRunner{}).Extract(context.Background(), doc)
	assert.Equal(t, document.SourceDirect, res.Source)
	assert.Equal(t, "INVOICE #12345\nLine item one", res.Text)
}

func TestExtractSpreadsheet(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", "Products"))
	require.NoError(t, f.SetSheetRow("Products", "A1", &[]any{"Item Name", "Price", "UOM"}))
	require.NoError(t, f.SetSheetRow("Products", "A2", &[]any{"Test Widget A", 25.00, "Nos"}))
	require.NoError(t, f.SetSheetRow("Products", "A3", &[]any{"Test Widget B", 45.50, "Box"}))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	require.NoError(t, f.Close())

	doc, ok := document.New("catalog.xlsx", buf.Bytes())
	require.True(t, ok)
	require.Equal(t, constants.Spreadsheet, doc.Format)

	res := newTestExtractor(&fakeRunner{}).Extract(context.Background(), doc)
	assert.Equal(t, document.SourceDirect, res.Source)
	assert.Contains(t, res.Text, "--- Sheet: Products ---")
	assert.Contains(t, res.Text, "Item Name, Price, UOM")
	assert.Contains(t, res.Text, "Test Widget A, 25, Nos")
}

func TestExtractCorruptSpreadsheet(t *testing.T) {
	doc, ok := document.New("broken.xlsx", []byte("this is not a zip archive"))
	require.True(t, ok)

	res := newTestExtractor(&fakeRunner{}).Extract(context.Background(), doc)
	assert.True(t, res.IsEmpty())
}

func TestUnsupportedFormatYieldsEmpty(t *testing.T) {
	doc := document.RawDocument{Filename: "weird.bin", Format: "BINARY"}
	res := newTestExtractor(&fakeRunner{}).Extract(context.Background(), doc)
	assert.True(t, res.IsEmpty())
}

func TestWriteTempCleansUp(t *testing.T) {
	path, cleanup, err := writeTemp([]byte("content"), "*.pdf")
	require.NoError(t, err)
	assert.FileExists(t, path)
	assert.Equal(t, ".pdf", filepath.Ext(path))
	cleanup()
	assert.NoFileExists(t, path)
}
