package model

import "time"

// Response status values for an agreement. Every agreement starts as
// pending; only party2 moves it to agreed or rejected.
const (
	StatusPending  = "pending"
	StatusAgreed   = "agreed"
	StatusRejected = "rejected"
)

// Party identifies one side of an agreement. The user id is the
// authoritative reference; the name is a display snapshot taken when
// the agreement was drafted.
type Party struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
}

// AgreementContent holds the four consent answers collected in step 2
// of the wizard. Each field is independently optional: a nil pointer
// means the question was never answered. The json keys are the stored
// document layout and must not change.
type AgreementContent struct {
	SexualContent *string `json:"sexual_content"`
	Contraception *string `json:"contraception"`
	STDCheck      *string `json:"std_check"`
	RecordAllowed *string `json:"record_allowed"`
}

// Agreement is a finalized consent agreement as persisted in the
// `agreements` table. party1 is always the creator; party2 is the
// recipient who responds. ResponseDate is nil until party2 responds.
type Agreement struct {
	ID             string           `json:"id"`
	Title          string           `json:"title"`
	Party1         Party            `json:"party1"`
	Party2         Party            `json:"party2"`
	Content        AgreementContent `json:"content"`
	Signature      string           `json:"signature"`
	CreatedAt      time.Time        `json:"created_at"`
	ResponseStatus string           `json:"response_status"`
	ResponseDate   *time.Time       `json:"response_date"`
}
