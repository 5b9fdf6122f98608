package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/arminrs/consent-agreements/internal/model"
	"github.com/arminrs/consent-agreements/internal/queue"
	"github.com/arminrs/consent-agreements/internal/repository"
	"github.com/arminrs/consent-agreements/internal/session"
)

// In-memory stand-ins for the store interfaces so handler flows can be
// exercised without MySQL or Redis. They reproduce the semantics the
// handlers rely on: sentinel errors, email case-insensitivity,
// newest-first ordering and party2-scoped search.

type fakeUsers struct {
	seq   int
	users map[string]model.User // by id
}

func newFakeUsers() *fakeUsers { return &fakeUsers{users: map[string]model.User{}} }

func (f *fakeUsers) Create(_ context.Context, username, email, password string, cost int) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range f.users {
		if u.Username == username || u.Email == email {
			return "", repository.ErrUserExists
		}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	f.seq++
	id := fmt.Sprintf("user-%d", f.seq)
	f.users[id] = model.User{
		ID: id, Username: username, Email: email,
		PasswordHash: string(hash), CreatedAt: time.Now().UTC(),
	}
	return id, nil
}

func (f *fakeUsers) GetByLogin(_ context.Context, login string) (model.User, error) {
	login = strings.TrimSpace(login)
	for _, u := range f.users {
		if u.Username == login || u.Email == strings.ToLower(login) {
			return u, nil
		}
	}
	return model.User{}, repository.ErrUserNotFound
}

func (f *fakeUsers) GetByUsername(_ context.Context, username string) (model.User, error) {
	for _, u := range f.users {
		if u.Username == strings.TrimSpace(username) {
			return u, nil
		}
	}
	return model.User{}, repository.ErrUserNotFound
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return model.User{}, repository.ErrUserNotFound
	}
	return u, nil
}

type fakeAgreements struct {
	seq  int
	rows map[string]model.Agreement
}

func newFakeAgreements() *fakeAgreements { return &fakeAgreements{rows: map[string]model.Agreement{}} }

func (f *fakeAgreements) Insert(_ context.Context, a model.Agreement) (string, error) {
	f.seq++
	a.ID = fmt.Sprintf("agr-%d", f.seq)
	f.rows[a.ID] = a
	return a.ID, nil
}

func (f *fakeAgreements) GetByID(_ context.Context, id string) (model.Agreement, error) {
	a, ok := f.rows[id]
	if !ok {
		return model.Agreement{}, repository.ErrAgreementNotFound
	}
	return a, nil
}

func (f *fakeAgreements) ListByParty(_ context.Context, userID string, role repository.PartyRole) ([]model.Agreement, error) {
	out := []model.Agreement{}
	for _, a := range f.rows {
		if (role == repository.RoleParty1 && a.Party1.UserID == userID) ||
			(role == repository.RoleParty2 && a.Party2.UserID == userID) {
			out = append(out, a)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (f *fakeAgreements) UpdateStatus(_ context.Context, id, status string, respondedAt time.Time) error {
	a, ok := f.rows[id]
	if !ok {
		return repository.ErrAgreementNotFound
	}
	a.ResponseStatus = status
	a.ResponseDate = &respondedAt
	f.rows[id] = a
	return nil
}

func (f *fakeAgreements) Search(_ context.Context, userID, keyword string) ([]model.Agreement, error) {
	kw := strings.ToLower(strings.TrimSpace(keyword))
	out := []model.Agreement{}
	for _, a := range f.rows {
		if a.Party2.UserID != userID {
			continue
		}
		if kw == "" ||
			strings.Contains(strings.ToLower(a.Title), kw) ||
			strings.Contains(strings.ToLower(a.Party1.Name), kw) {
			out = append(out, a)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func sortNewestFirst(list []model.Agreement) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID > list[j].ID
		}
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
}

type fakeSessionState struct {
	userID string
	draft  *model.AgreementDraft
}

type fakeSessions struct {
	seq      int
	sessions map[string]*fakeSessionState
}

func newFakeSessions() *fakeSessions { return &fakeSessions{sessions: map[string]*fakeSessionState{}} }

func (f *fakeSessions) Create(_ context.Context, userID string) (string, error) {
	f.seq++
	sid := fmt.Sprintf("sid-%d", f.seq)
	f.sessions[sid] = &fakeSessionState{userID: userID}
	return sid, nil
}

func (f *fakeSessions) Destroy(_ context.Context, sid string) error {
	delete(f.sessions, sid)
	return nil
}

func (f *fakeSessions) SaveDraft(_ context.Context, sid string, d model.AgreementDraft) error {
	s, ok := f.sessions[sid]
	if !ok {
		return session.ErrNotFound
	}
	s.draft = &d
	return nil
}

func (f *fakeSessions) Draft(_ context.Context, sid string) (model.AgreementDraft, error) {
	s, ok := f.sessions[sid]
	if !ok || s.draft == nil {
		return model.AgreementDraft{}, session.ErrNoDraft
	}
	return *s.draft, nil
}

func (f *fakeSessions) ClearDraft(_ context.Context, sid string) error {
	if s, ok := f.sessions[sid]; ok {
		s.draft = nil
	}
	return nil
}

type fakeEvents struct {
	published []queue.AgreementRespondedEvent
}

func (f *fakeEvents) AgreementResponded(_ context.Context, ev queue.AgreementRespondedEvent) error {
	f.published = append(f.published, ev)
	return nil
}

// newCtx builds an echo context for a handler invocation. A non-empty
// body is sent as JSON.
func newCtx(e *echo.Echo, method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

// asUser marks the context as authenticated, the same way the session
// middleware would.
func asUser(c echo.Context, userID, sid string) {
	c.Set("user_id", userID)
	c.Set("sid", sid)
}
