package server

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/quoteproc/quote-processor/constants"
	"github.com/quoteproc/quote-processor/internal/document"
	"github.com/quoteproc/quote-processor/internal/journal"
	"github.com/quoteproc/quote-processor/internal/pipeline"
)

// Handler serves the document upload API.
type Handler struct {
	proc           *pipeline.Processor
	journal        *journal.Journal // optional
	maxFileBytes   int64
	maxFilesPerReq int
	logger         *slog.Logger
}

func NewHandler(proc *pipeline.Processor, jnl *journal.Journal, maxFileBytes int64, maxFilesPerReq int, logger *slog.Logger) *Handler {
	if maxFileBytes <= 0 {
		maxFileBytes = 10 * 1024 * 1024
	}
	if maxFilesPerReq <= 0 {
		maxFilesPerReq = 5
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		proc:           proc,
		journal:        jnl,
		maxFileBytes:   maxFileBytes,
		maxFilesPerReq: maxFilesPerReq,
		logger:         logger,
	}
}

type uploadResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Reports []document.Report `json:"reports"`
}

// Upload accepts one or more documents as multipart form files, runs
// each through the pipeline, and returns the per-document reports.
// One document's failure never blocks the others in the request.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	// Bound the whole request body; per-file ceilings are enforced below.
	r.Body = http.MaxBytesReader(w, r.Body, int64(h.maxFilesPerReq)*h.maxFileBytes+1<<20)
	if err := r.ParseMultipartForm(h.maxFileBytes); err != nil {
		h.logger.Warn("upload parse form failed", "error", err)
		writeError(w, http.StatusBadRequest, "invalid multipart form or request too large")
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		files = r.MultipartForm.File["file"]
	}
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "No files provided")
		return
	}
	if len(files) > h.maxFilesPerReq {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("Maximum %d files allowed per request", h.maxFilesPerReq))
		return
	}

	var reports []document.Report
	var errs []string

	for _, fh := range files {
		name := sanitizeFilename(fh.Filename)
		if !constants.IsAllowedExt(filepath.Ext(name)) {
			errs = append(errs, fmt.Sprintf("%s: invalid file extension", fh.Filename))
			continue
		}
		if fh.Size > h.maxFileBytes {
			errs = append(errs, fmt.Sprintf("%s: file size exceeds %dMB limit",
				fh.Filename, h.maxFileBytes/(1024*1024)))
			continue
		}

		content, err := readMultipartFile(fh, h.maxFileBytes)
		if err != nil {
			h.logger.Warn("upload read failed", "filename", fh.Filename, "error", err)
			errs = append(errs, fmt.Sprintf("%s: %v", fh.Filename, err))
			continue
		}

		doc, ok := document.New(name, content)
		if !ok {
			errs = append(errs, fmt.Sprintf("%s: unsupported document format", fh.Filename))
			continue
		}
		h.startJournal(r, doc)

		reports = append(reports, h.proc.Process(r.Context(), doc))
	}

	if len(reports) == 0 && len(errs) > 0 {
		writeError(w, http.StatusBadRequest, strings.Join(errs, "; "))
		return
	}

	message := fmt.Sprintf("Successfully processed %d file(s)", len(reports))
	if len(errs) > 0 {
		message += ". Errors: " + strings.Join(errs, "; ")
	}
	writeJSON(w, http.StatusOK, uploadResponse{
		Success: true,
		Message: message,
		Reports: reports,
	})
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Runs lists recent journal entries, newest first.
func (h *Handler) Runs(w http.ResponseWriter, r *http.Request) {
	if h.journal == nil {
		writeError(w, http.StatusNotFound, "journal not configured")
		return
	}
	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			limit = n
		}
	}
	runs, err := h.journal.ListRuns(r.Context(), limit)
	if err != nil {
		h.logger.Error("list runs failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (h *Handler) startJournal(r *http.Request, doc document.RawDocument) {
	if h.journal == nil {
		return
	}
	if err := h.journal.Start(r.Context(), doc); err != nil {
		h.logger.Warn("journal start failed", "doc_id", doc.ID, "error", err)
	}
}

func readMultipartFile(fh *multipart.FileHeader, max int64) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	content, err := io.ReadAll(io.LimitReader(f, max+1))
	if err != nil {
		return nil, err
	}
	if int64(len(content)) > max {
		return nil, fmt.Errorf("file size exceeds %dMB limit", max/(1024*1024))
	}
	return content, nil
}

// sanitizeFilename strips path components and dangerous characters,
// and caps the length.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.' || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}
	out := b.String()
	if len(out) > 255 {
		out = out[:255]
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("encode response failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}
