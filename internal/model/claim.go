package model

// ClaimRecord is the canonical annotation unit: a factual statement with
// topic, target, and evidence provenance
type ClaimRecord struct {
	Claim    string `json:"claim"`              // The claim text (storage identity)
	Topic    string `json:"topic"`              // Short topic phrase
	Target   string `json:"target"`             // Entity the claim is about
	Evidence string `json:"evidence"`           // Source excerpt backing the claim
	URL      string `json:"url,omitempty"`      // Provenance URL
	Category string `json:"category,omitempty"` // Optional classification
}

// IsComplete reports whether claim, topic, target, and evidence are all
// non-empty. Records failing this check are dropped during normalization
// and never persisted.
func (c ClaimRecord) IsComplete() bool {
	return c.Claim != "" && c.Topic != "" && c.Target != "" && c.Evidence != ""
}

// SearchText returns the document text indexed for lexical search
func (c ClaimRecord) SearchText() string {
	return c.Topic + " " + c.Target
}
