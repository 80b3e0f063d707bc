package document

import (
	"path/filepath"

	"github.com/google/uuid"

	"github.com/quoteproc/quote-processor/constants"
)

// RawDocument is an ingested file: raw bytes plus the declared format.
// It is immutable and discarded once its pipeline run completes.
type RawDocument struct {
	ID       uuid.UUID
	Filename string
	Format   string // constants.Spreadsheet | constants.PDF | constants.Image | constants.Text
	Content  []byte
}

// New builds a RawDocument, deriving the format from the filename extension.
// Returns ok=false when the extension is not supported.
func New(filename string, content []byte) (RawDocument, bool) {
	format := constants.MapExtToFormat(filepath.Ext(filename))
	if format == "" {
		return RawDocument{}, false
	}
	return RawDocument{
		ID:       uuid.New(),
		Filename: filename,
		Format:   format,
		Content:  content,
	}, true
}

// Text provenance tags.
const (
	SourceDirect    = "direct"
	SourceOCR       = "ocr"
	SourceDirectOCR = "direct+ocr"
)

// ExtractedText is the recovered plain text of a document plus a tag
// recording which recovery path produced it. Empty text is a valid
// outcome, not an error.
type ExtractedText struct {
	Text   string
	Source string
	Pages  int
}

// IsEmpty reports whether no usable text was recovered.
func (t ExtractedText) IsEmpty() bool {
	for _, r := range t.Text {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' && r != '\f' {
			return false
		}
	}
	return true
}
