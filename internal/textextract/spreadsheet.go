package textextract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/quoteproc/quote-processor/internal/document"
)

// extractSpreadsheet serializes every sheet of a workbook to a flat
// textual table: header row first, one line per row, cells joined by
// ", ". Sheets are separated by a boundary marker. No semantic
// interpretation of columns happens here; structure is deferred to the
// schema extraction stage.
func (e *Extractor) extractSpreadsheet(doc document.RawDocument) document.ExtractedText {
	f, err := excelize.OpenReader(bytes.NewReader(doc.Content))
	if err != nil {
		e.logger.Warn("textextract.spreadsheet.open_failed", "doc_id", doc.ID, "error", err)
		return document.ExtractedText{Source: document.SourceDirect}
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			e.logger.Warn("textextract.spreadsheet.close_failed", "doc_id", doc.ID, "error", cerr)
		}
	}()

	var b strings.Builder
	sheets := f.GetSheetList()
	for _, sheet := range sheets {
		rows, err := f.GetRows(sheet)
		if err != nil {
			e.logger.Warn("textextract.spreadsheet.read_sheet_failed",
				"doc_id", doc.ID, "sheet", sheet, "error", err)
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "--- Sheet: %s ---\n", sheet)
		for _, row := range rows {
			b.WriteString(strings.Join(row, ", "))
			b.WriteString("\n")
		}
	}

	return document.ExtractedText{
		Text:   b.String(),
		Source: document.SourceDirect,
		Pages:  len(sheets),
	}
}
