package llm

import "context"

// CandidateItem is a loosely-structured record as produced by the
// extraction service or the naive fallback parser: arbitrary string
// keys (mixed case, spaces) mapped to scalar values. No field is
// required at this stage; normalization happens downstream.
type CandidateItem map[string]any

// ParsePath records which step of the ordered fallback chain produced
// the candidate items, for observability.
type ParsePath string

const (
	PathStrict   ParsePath = "strict"    // well-formed envelope object
	PathFenced   ParsePath = "fenced"    // envelope recovered after code-fence stripping
	PathBareList ParsePath = "bare-list" // legacy shape: bare item list, no validity gate
	PathNaive    ParsePath = "naive"     // deterministic line parser
)

// GenerativeClient is the extraction-service boundary: one prompt in,
// free text out. Treated as unreliable and best-effort; a single
// failed call triggers the naive fallback, never a retry.
type GenerativeClient interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// Extractor turns recovered document text into candidate items.
// The only error it returns is a document rejection; transient service
// failures are recovered locally via the fallback chain.
type Extractor interface {
	Extract(ctx context.Context, text string) ([]CandidateItem, ParsePath, error)
}
