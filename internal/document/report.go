package document

// Upsert outcome statuses.
const (
	StatusCreated = "created"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
)

// UpsertResult is the outcome of one item's upsert attempt.
type UpsertResult struct {
	ItemCode string `json:"item_code"`
	Status   string `json:"status"`
	Message  string `json:"message,omitempty"`
}

// Report aggregates a single document's pipeline run.
type Report struct {
	Filename       string         `json:"filename"`
	ExtractedCount int            `json:"extracted_count"`
	// Inserted is false when no resource-management client was
	// available: items were extracted only, not inserted.
	Inserted  bool           `json:"inserted"`
	ParsePath string         `json:"parse_path,omitempty"`
	Results   []UpsertResult `json:"results,omitempty"`
	Error     string         `json:"error,omitempty"`
}
