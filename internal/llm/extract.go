package llm

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/quoteproc/quote-processor/internal/common"
)

// SchemaExtractor turns recovered text into candidate items using the
// generative-extraction service, with an ordered local fallback chain:
// strict envelope parse, fence-stripped parse, bare-list parse, naive
// heuristic parse. Each step is tried in sequence and the chosen path
// is recorded. The only surfaced error is a document rejection.
type SchemaExtractor struct {
	client GenerativeClient // nil means fallback-only operation
	logger *slog.Logger
}

func NewSchemaExtractor(client GenerativeClient, logger *slog.Logger) *SchemaExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &SchemaExtractor{client: client, logger: logger}
}

func (s *SchemaExtractor) Extract(ctx context.Context, text string) ([]CandidateItem, ParsePath, error) {
	if strings.TrimSpace(text) == "" {
		return nil, PathNaive, nil
	}
	if s.client == nil {
		s.logger.Warn("llm.extract.no_client", "hint", "extraction service not configured, using naive parser")
		return NaiveParse(text), PathNaive, nil
	}

	raw, err := s.client.GenerateContent(ctx, buildPrompt(text))
	if err != nil {
		// Service degraded: one failed call immediately triggers the
		// fallback, no retry.
		s.logger.Warn("llm.extract.service_degraded", "error", err)
		return NaiveParse(text), PathNaive, nil
	}

	items, path, err := s.parseResponse(raw)
	if err != nil {
		if _, rejected := common.IsRejectedDocument(err); rejected {
			return nil, path, err
		}
		s.logger.Warn("llm.extract.unparseable_response", "error", err, "raw_len", len(raw))
		return NaiveParse(text), PathNaive, nil
	}
	s.logger.Info("llm.extract.ok", "path", string(path), "items", len(items))
	return items, path, nil
}

// parseResponse runs the response through the fallback chain. A
// rejection verdict is surfaced, never swallowed; every other failure
// moves to the next step.
func (s *SchemaExtractor) parseResponse(raw string) ([]CandidateItem, ParsePath, error) {
	trimmed := strings.TrimSpace(raw)

	if env, err := decodeEnvelope([]byte(trimmed)); err == nil {
		return s.fromEnvelope(env, PathStrict)
	}

	stripped := stripCodeFences(trimmed)
	if stripped != trimmed {
		if env, err := decodeEnvelope([]byte(stripped)); err == nil {
			return s.fromEnvelope(env, PathFenced)
		}
	}

	// Legacy/degraded shape: a bare list of items instead of the
	// envelope object. Proceeds straight to normalization; there is no
	// validity flag to act on.
	for _, candidate := range []string{trimmed, stripped} {
		var list []CandidateItem
		if err := json.Unmarshal([]byte(candidate), &list); err == nil {
			return list, PathBareList, nil
		}
	}

	return nil, PathNaive, &common.AppError{Code: "LLM_MALFORMED", Message: "response matched no known shape"}
}

func (s *SchemaExtractor) fromEnvelope(env envelope, path ParsePath) ([]CandidateItem, ParsePath, error) {
	if !env.valid() {
		reason := env.ValidationReason
		if reason == "" {
			reason = "document does not appear to be a valid invoice or quote"
		}
		return nil, path, &common.RejectedDocumentError{Reason: reason}
	}
	return env.Items, path, nil
}

// stripCodeFences removes a leading ```json (or bare ```) fence and the
// trailing fence, tolerating responses that ignore the no-markdown
// instruction.
func stripCodeFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	body := s
	if strings.HasPrefix(body, "```json") {
		body = body[len("```json"):]
	} else {
		body = body[len("```"):]
	}
	body = strings.TrimSuffix(strings.TrimSpace(body), "```")
	return strings.TrimSpace(body)
}
