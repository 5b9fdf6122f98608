package model

// AgreementDraft is the in-progress agreement accumulated across the
// wizard steps. It lives only in the owner's server-side session and
// has no identifier until finalize persists it. SourceID is set when
// the draft was seeded from a rejected agreement via the edit flow and
// exists purely for traceability; finalize always inserts a new record.
type AgreementDraft struct {
	Title    string            `json:"title"`
	Party1   Party             `json:"party1"`
	Party2   Party             `json:"party2"`
	Content  *AgreementContent `json:"content,omitempty"`
	SourceID string            `json:"source_id,omitempty"`
}

// HasContent reports whether step 2 has been completed, i.e. the draft
// is ready for the signature step.
func (d *AgreementDraft) HasContent() bool {
	return d != nil && d.Content != nil
}
