package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/arminrs/consent-agreements/internal/model"
)

// PartyRole selects which side of an agreement a query is scoped to.
type PartyRole string

const (
	RoleParty1 PartyRole = "party1" // creator / sender
	RoleParty2 PartyRole = "party2" // recipient / responder
)

// AgreementRepo persists agreements. The four consent answers are kept
// together as a JSON document in the `content` column so the stored
// field names stay identical to the original document layout; the
// party columns are flattened for querying and search.
type AgreementRepo struct{ DB *sql.DB }

func NewAgreementRepo(db *sql.DB) *AgreementRepo { return &AgreementRepo{DB: db} }

const agreementColumns = "id,title,party1_user_id,party1_name,party2_user_id,party2_name,content,signature,created_at,response_status,response_date"

// Insert stores a finalized agreement, assigns it a fresh id and
// returns that id. No duplicate detection is performed; every
// successful finalize produces exactly one row.
func (r *AgreementRepo) Insert(ctx context.Context, a model.Agreement) (string, error) {
	content, err := json.Marshal(a.Content)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	_, err = r.DB.ExecContext(ctx,
		`INSERT INTO agreements
			(id, title, party1_user_id, party1_name, party2_user_id, party2_name,
			 content, signature, created_at, response_status, response_date)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		id, a.Title,
		a.Party1.UserID, a.Party1.Name,
		a.Party2.UserID, a.Party2.Name,
		content, a.Signature, a.CreatedAt, a.ResponseStatus, a.ResponseDate)
	if err != nil {
		return "", err
	}
	return id, nil
}

// GetByID returns the agreement with the given id or ErrAgreementNotFound.
func (r *AgreementRepo) GetByID(ctx context.Context, id string) (model.Agreement, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+agreementColumns+" FROM agreements WHERE id=? LIMIT 1", id)
	a, err := scanAgreement(row)
	if err == sql.ErrNoRows {
		return model.Agreement{}, ErrAgreementNotFound
	}
	return a, err
}

// ListByParty returns all agreements where the given user holds the
// given role, newest first.
func (r *AgreementRepo) ListByParty(ctx context.Context, userID string, role PartyRole) ([]model.Agreement, error) {
	col := "party1_user_id"
	if role == RoleParty2 {
		col = "party2_user_id"
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+agreementColumns+" FROM agreements WHERE "+col+"=? ORDER BY created_at DESC", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAgreements(rows)
}

// UpdateStatus sets the response status and response date of one
// agreement, leaving every other field untouched. Returns
// ErrAgreementNotFound when no row matches.
func (r *AgreementRepo) UpdateStatus(ctx context.Context, id, status string, respondedAt time.Time) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE agreements SET response_status=?, response_date=? WHERE id=?",
		status, respondedAt, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAgreementNotFound
	}
	return nil
}

// Search returns agreements where the user is party2 and the keyword
// appears case-insensitively in either the title or party1's display
// name. An empty keyword matches everything in scope. Results are
// newest first, matching ListByParty ordering.
func (r *AgreementRepo) Search(ctx context.Context, userID, keyword string) ([]model.Agreement, error) {
	pattern := "%" + strings.ToLower(strings.TrimSpace(keyword)) + "%"
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+agreementColumns+` FROM agreements
		WHERE party2_user_id=? AND (LOWER(title) LIKE ? OR LOWER(party1_name) LIKE ?)
		ORDER BY created_at DESC`,
		userID, pattern, pattern)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAgreements(rows)
}

type rowScanner interface{ Scan(dest ...any) error }

func scanAgreement(row rowScanner) (model.Agreement, error) {
	var (
		a            model.Agreement
		content      []byte
		responseDate sql.NullTime
	)
	err := row.Scan(
		&a.ID, &a.Title,
		&a.Party1.UserID, &a.Party1.Name,
		&a.Party2.UserID, &a.Party2.Name,
		&content, &a.Signature, &a.CreatedAt,
		&a.ResponseStatus, &responseDate)
	if err != nil {
		return model.Agreement{}, err
	}
	if len(content) > 0 {
		if err := json.Unmarshal(content, &a.Content); err != nil {
			return model.Agreement{}, err
		}
	}
	if responseDate.Valid {
		t := responseDate.Time
		a.ResponseDate = &t
	}
	return a, nil
}

func collectAgreements(rows *sql.Rows) ([]model.Agreement, error) {
	out := []model.Agreement{}
	for rows.Next() {
		a, err := scanAgreement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
