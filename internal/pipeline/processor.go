package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/quoteproc/quote-processor/constants"
	"github.com/quoteproc/quote-processor/internal/common"
	"github.com/quoteproc/quote-processor/internal/document"
	"github.com/quoteproc/quote-processor/internal/journal"
	"github.com/quoteproc/quote-processor/internal/llm"
	"github.com/quoteproc/quote-processor/internal/normalize"
	"github.com/quoteproc/quote-processor/internal/textextract"
)

// Upserter is the slice of the upsert engine the orchestrator needs.
// A nil Upserter means no resource-management client is available and
// the pipeline runs in extract-only mode.
type Upserter interface {
	UpsertAll(ctx context.Context, items []normalize.CanonicalItem) []document.UpsertResult
}

// Processor sequences the pipeline for one document: text recovery,
// schema extraction, normalization, then (optionally) upsert. Failure
// of one document never affects others in a batch.
type Processor struct {
	logger  *slog.Logger
	text    *textextract.Extractor
	schema  llm.Extractor
	upsert  Upserter
	journal *journal.Journal // optional
}

func NewProcessor(text *textextract.Extractor, schema llm.Extractor, upsert Upserter, jnl *journal.Journal, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		logger:  logger,
		text:    text,
		schema:  schema,
		upsert:  upsert,
		journal: jnl,
	}
}

// Process runs the full pipeline for one document and returns its report.
func (p *Processor) Process(ctx context.Context, doc document.RawDocument) document.Report {
	start := time.Now()
	rep := document.Report{Filename: doc.Filename}
	p.setStatus(ctx, doc, constants.JobStatusRunning)

	text := p.text.Extract(ctx, doc)
	p.setStatus(ctx, doc, constants.JobStatusTextOK)

	candidates, path, err := p.schema.Extract(ctx, text.Text)
	rep.ParsePath = string(path)
	if err != nil {
		if rejection, ok := common.IsRejectedDocument(err); ok {
			p.logger.Warn("pipeline.document_rejected", "doc_id", doc.ID, "filename", doc.Filename, "reason", rejection.Reason)
			rep.Error = rejection.Error()
			p.finish(ctx, doc, constants.JobStatusRejected, rep)
			return rep
		}
		// Schema extraction recovers every other failure internally;
		// an unexpected error still fails only this document.
		p.logger.Error("pipeline.schema_extract_failed", "doc_id", doc.ID, "error", err)
		rep.Error = err.Error()
		p.finish(ctx, doc, constants.JobStatusFailed, rep)
		return rep
	}
	p.setStatus(ctx, doc, constants.JobStatusItemsOK)

	items := normalize.Normalize(candidates)
	rep.ExtractedCount = len(items)

	if p.upsert == nil {
		p.logger.Info("pipeline.extract_only",
			"doc_id", doc.ID, "filename", doc.Filename, "items", len(items))
		p.finish(ctx, doc, constants.JobStatusDone, rep)
		return rep
	}

	rep.Inserted = true
	rep.Results = p.upsert.UpsertAll(ctx, items)
	p.finish(ctx, doc, constants.JobStatusDone, rep)

	p.logger.Info("pipeline.done",
		"doc_id", doc.ID,
		"filename", doc.Filename,
		"items", len(items),
		"parse_path", rep.ParsePath,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return rep
}

// ProcessBatch runs documents sequentially and independently; callers
// needing bounded parallelism use the async queue instead.
func (p *Processor) ProcessBatch(ctx context.Context, docs []document.RawDocument) []document.Report {
	reports := make([]document.Report, 0, len(docs))
	for _, doc := range docs {
		reports = append(reports, p.Process(ctx, doc))
	}
	return reports
}

func (p *Processor) setStatus(ctx context.Context, doc document.RawDocument, status constants.JobStatus) {
	if p.journal == nil {
		return
	}
	if err := p.journal.SetStatus(ctx, doc.ID, status); err != nil {
		p.logger.Warn("pipeline.journal_update_failed", "doc_id", doc.ID, "status", string(status), "error", err)
	}
}

func (p *Processor) finish(ctx context.Context, doc document.RawDocument, status constants.JobStatus, rep document.Report) {
	if p.journal == nil {
		return
	}
	if err := p.journal.Finish(ctx, doc.ID, status, rep); err != nil {
		p.logger.Warn("pipeline.journal_finish_failed", "doc_id", doc.ID, "error", err)
	}
}
