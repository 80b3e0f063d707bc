package llm

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// envelopeSchema is the two-part response contract: a document-validity
// flag with reason, plus the candidate item list. Items stay loose on
// purpose; field presence is handled by normalization, not here.
const envelopeSchema = `{
  "type": "object",
  "properties": {
    "is_valid_document": {"type": "boolean"},
    "validation_reason": {"type": "string"},
    "items": {
      "type": "array",
      "items": {"type": "object"}
    }
  }
}`

var compiledEnvelope = jsonschema.MustCompileString("envelope.json", envelopeSchema)

// envelope is the decoded strict response shape. IsValidDocument is a
// pointer so a missing flag can default to valid, matching degraded
// responses that carry items but no validity verdict.
type envelope struct {
	IsValidDocument  *bool           `json:"is_valid_document"`
	ValidationReason string          `json:"validation_reason"`
	Items            []CandidateItem `json:"items"`
}

func (e envelope) valid() bool {
	return e.IsValidDocument == nil || *e.IsValidDocument
}

// decodeEnvelope validates raw JSON against the envelope schema and
// decodes it. A schema violation is an error so the caller can move to
// the next step of the fallback chain.
func decodeEnvelope(raw []byte) (envelope, error) {
	var v any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return envelope{}, fmt.Errorf("decode: %w", err)
	}
	if err := compiledEnvelope.Validate(v); err != nil {
		return envelope{}, fmt.Errorf("envelope schema: %w", err)
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return envelope{}, fmt.Errorf("unmarshal envelope: %w", err)
	}
	return env, nil
}
