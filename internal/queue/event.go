// Package queue defines message payloads exchanged over the message broker.
package queue

// AgreementRespondedEvent is published when party2 agrees to or
// rejects an agreement. It carries enough context for downstream
// consumers to log or notify without querying the primary database.
type AgreementRespondedEvent struct {
	AgreementID    string `json:"agreement_id"`
	Title          string `json:"title"`
	Party1UserID   string `json:"party1_user_id"`
	Party1Name     string `json:"party1_name"`
	Party2UserID   string `json:"party2_user_id"`
	Party2Name     string `json:"party2_name"`
	ResponseStatus string `json:"response_status"`
	RespondedAt    string `json:"responded_at"`
}
