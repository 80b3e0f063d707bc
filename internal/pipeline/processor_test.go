package pipeline

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quoteproc/quote-processor/internal/common"
	"github.com/quoteproc/quote-processor/internal/document"
	"github.com/quoteproc/quote-processor/internal/llm"
	"github.com/quoteproc/quote-processor/internal/normalize"
	"github.com/quoteproc/quote-processor/internal/textextract"
)

// fakeSchema routes per input text so one batch can mix verdicts.
type fakeSchema struct {
	rejectWhen string // substring that triggers a rejection
	items      []llm.CandidateItem
	path       llm.ParsePath
}

func (f *fakeSchema) Extract(ctx context.Context, text string) ([]llm.CandidateItem, llm.ParsePath, error) {
	if f.rejectWhen != "" && strings.Contains(text, f.rejectWhen) {
		return nil, llm.PathStrict, &common.RejectedDocumentError{Reason: "not a business document"}
	}
	return f.items, f.path, nil
}

type fakeUpserter struct {
	calls [][]normalize.CanonicalItem
}

func (f *fakeUpserter) UpsertAll(ctx context.Context, items []normalize.CanonicalItem) []document.UpsertResult {
	f.calls = append(f.calls, items)
	results := make([]document.UpsertResult, 0, len(items))
	for _, item := range items {
		results = append(results, document.UpsertResult{ItemCode: item.ItemCode, Status: document.StatusCreated})
	}
	return results
}

func textDoc(t *testing.T, name, content string) document.RawDocument {
	t.Helper()
	doc, ok := document.New(name, []byte(content))
	require.True(t, ok)
	return doc
}

func newTestProcessor(schema llm.Extractor, upsert Upserter) *Processor {
	return NewProcessor(textextract.NewExtractor(textextract.Config{}, nil), schema, upsert, nil, nil)
}

func TestProcessFullRun(t *testing.T) {
	schema := &fakeSchema{
		items: []llm.CandidateItem{
			{"item_code": "W-1", "item_name": "Widget"},
			{"item_name": "Unnamed gadget"},
		},
		path: llm.PathStrict,
	}
	upsert := &fakeUpserter{}
	p := newTestProcessor(schema, upsert)

	rep := p.Process(context.Background(), textDoc(t, "quote.txt", "Widget, 25.00"))

	assert.Equal(t, "quote.txt", rep.Filename)
	assert.Equal(t, 2, rep.ExtractedCount)
	assert.True(t, rep.Inserted)
	assert.Equal(t, string(llm.PathStrict), rep.ParsePath)
	assert.Empty(t, rep.Error)
	require.Len(t, rep.Results, 2)
	assert.Equal(t, "W-1", rep.Results[0].ItemCode)

	// normalization ran before upsert: required fields are filled in
	require.Len(t, upsert.calls, 1)
	assert.Equal(t, "Unnamed gadget", upsert.calls[0][1].ItemName)
	assert.NotEmpty(t, upsert.calls[0][1].ItemGroup)
	assert.NotEmpty(t, upsert.calls[0][1].StockUOM)
}

func TestProcessExtractOnlyMode(t *testing.T) {
	schema := &fakeSchema{
		items: []llm.CandidateItem{{"item_name": "Widget"}},
		path:  llm.PathStrict,
	}
	p := newTestProcessor(schema, nil)

	rep := p.Process(context.Background(), textDoc(t, "quote.txt", "Widget"))

	assert.Equal(t, 1, rep.ExtractedCount)
	assert.False(t, rep.Inserted, "no client means extraction only")
	assert.Empty(t, rep.Results)
	assert.Empty(t, rep.Error)
}

func TestProcessRejectedDocument(t *testing.T) {
	schema := &fakeSchema{rejectWhen: "fog"}
	upsert := &fakeUpserter{}
	p := newTestProcessor(schema, upsert)

	rep := p.Process(context.Background(), textDoc(t, "poem.txt", "The fog comes on little cat feet."))

	assert.Contains(t, rep.Error, "not a business document")
	assert.Zero(t, rep.ExtractedCount)
	assert.False(t, rep.Inserted)
	assert.Empty(t, upsert.calls, "rejected documents never reach upsert")
}

func TestProcessBatchIsolation(t *testing.T) {
	schema := &fakeSchema{
		rejectWhen: "fog",
		items:      []llm.CandidateItem{{"item_code": "OK-1", "item_name": "Fine"}},
		path:       llm.PathFenced,
	}
	upsert := &fakeUpserter{}
	p := newTestProcessor(schema, upsert)

	reports := p.ProcessBatch(context.Background(), []document.RawDocument{
		textDoc(t, "good1.txt", "Fine product listing"),
		textDoc(t, "poem.txt", "The fog comes in."),
		textDoc(t, "good2.txt", "Another fine listing"),
	})

	require.Len(t, reports, 3)
	assert.Empty(t, reports[0].Error)
	assert.NotEmpty(t, reports[1].Error)
	assert.Empty(t, reports[2].Error, "a rejection must not poison later documents")
	assert.Len(t, upsert.calls, 2)
}

func TestProcessEmptyDocumentStillReports(t *testing.T) {
	// A naive-only extractor over empty text yields zero candidates.
	p := newTestProcessor(llm.NewSchemaExtractor(nil, nil), &fakeUpserter{})

	rep := p.Process(context.Background(), textDoc(t, "blank.txt", "   "))
	assert.Zero(t, rep.ExtractedCount)
	assert.Empty(t, rep.Error)
	assert.Equal(t, string(llm.PathNaive), rep.ParsePath)
}
