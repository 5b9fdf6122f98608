package handler

import (
	"context"
	"time"

	"github.com/arminrs/consent-agreements/internal/model"
	"github.com/arminrs/consent-agreements/internal/queue"
	"github.com/arminrs/consent-agreements/internal/repository"
	"github.com/arminrs/consent-agreements/internal/session"
)

// The handlers depend on narrow store interfaces instead of the
// concrete repository and session types so the HTTP flows can be
// exercised in tests with in-memory fakes.

// UserStore is the credential store surface used by handlers.
type UserStore interface {
	Create(ctx context.Context, username, email, password string, cost int) (string, error)
	GetByLogin(ctx context.Context, usernameOrEmail string) (model.User, error)
	GetByUsername(ctx context.Context, username string) (model.User, error)
	GetByID(ctx context.Context, id string) (model.User, error)
}

// AgreementStore is the agreement repository surface used by handlers.
type AgreementStore interface {
	Insert(ctx context.Context, a model.Agreement) (string, error)
	GetByID(ctx context.Context, id string) (model.Agreement, error)
	ListByParty(ctx context.Context, userID string, role repository.PartyRole) ([]model.Agreement, error)
	UpdateStatus(ctx context.Context, id, status string, respondedAt time.Time) error
	Search(ctx context.Context, userID, keyword string) ([]model.Agreement, error)
}

// SessionStore manages sessions and the per-session wizard draft.
type SessionStore interface {
	Create(ctx context.Context, userID string) (string, error)
	Destroy(ctx context.Context, sid string) error
	SaveDraft(ctx context.Context, sid string, d model.AgreementDraft) error
	Draft(ctx context.Context, sid string) (model.AgreementDraft, error)
	ClearDraft(ctx context.Context, sid string) error
}

// EventPublisher emits lifecycle notifications. Publishing is
// best-effort: handlers log failures and carry on.
type EventPublisher interface {
	AgreementResponded(ctx context.Context, ev queue.AgreementRespondedEvent) error
}

var (
	_ UserStore      = (*repository.UserRepo)(nil)
	_ AgreementStore = (*repository.AgreementRepo)(nil)
	_ SessionStore   = (*session.Store)(nil)
)
