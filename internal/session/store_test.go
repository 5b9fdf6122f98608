package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/arminrs/consent-agreements/internal/model"
)

func newTestStore(t *testing.T, ttl time.Duration) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewStore(rdb, ttl), mr
}

func TestStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, time.Hour)

	sid, err := s.Create(ctx, "user-1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	uid, err := s.UserID(ctx, sid)
	if err != nil {
		t.Fatalf("UserID: %v", err)
	}
	if uid != "user-1" {
		t.Fatalf("UserID = %q, want user-1", uid)
	}

	if err := s.Destroy(ctx, sid); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	if _, err := s.UserID(ctx, sid); !errors.Is(err, ErrNotFound) {
		t.Fatalf("UserID after Destroy = %v, want ErrNotFound", err)
	}
}

func TestStore_DraftRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, time.Hour)

	sid, err := s.Create(ctx, "user-1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := s.Draft(ctx, sid); !errors.Is(err, ErrNoDraft) {
		t.Fatalf("Draft before SaveDraft = %v, want ErrNoDraft", err)
	}

	in := model.AgreementDraft{
		Title:  "title",
		Party1: model.Party{UserID: "user-1", Name: "alice"},
		Party2: model.Party{UserID: "user-2", Name: "bob"},
	}
	if err := s.SaveDraft(ctx, sid, in); err != nil {
		t.Fatalf("SaveDraft: %v", err)
	}
	out, err := s.Draft(ctx, sid)
	if err != nil {
		t.Fatalf("Draft: %v", err)
	}
	if out.Title != in.Title || out.Party2.UserID != in.Party2.UserID {
		t.Fatalf("Draft = %+v, want %+v", out, in)
	}

	if err := s.ClearDraft(ctx, sid); err != nil {
		t.Fatalf("ClearDraft: %v", err)
	}
	if _, err := s.Draft(ctx, sid); !errors.Is(err, ErrNoDraft) {
		t.Fatalf("Draft after ClearDraft = %v, want ErrNoDraft", err)
	}
	// the session itself survives the draft being cleared
	if _, err := s.UserID(ctx, sid); err != nil {
		t.Fatalf("UserID after ClearDraft: %v", err)
	}
}

func TestStore_ReadsRefreshTTL(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t, time.Minute)

	sid, err := s.Create(ctx, "user-1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.SaveDraft(ctx, sid, model.AgreementDraft{Title: "t"}); err != nil {
		t.Fatalf("SaveDraft: %v", err)
	}

	mr.FastForward(30 * time.Second)
	if got := mr.TTL(key(sid)); got > 30*time.Second {
		t.Fatalf("TTL before read = %v, want <= 30s", got)
	}

	if _, err := s.Draft(ctx, sid); err != nil {
		t.Fatalf("Draft: %v", err)
	}
	if got := mr.TTL(key(sid)); got != time.Minute {
		t.Fatalf("TTL after Draft = %v, want %v", got, time.Minute)
	}

	mr.FastForward(30 * time.Second)
	if _, err := s.UserID(ctx, sid); err != nil {
		t.Fatalf("UserID: %v", err)
	}
	if got := mr.TTL(key(sid)); got != time.Minute {
		t.Fatalf("TTL after UserID = %v, want %v", got, time.Minute)
	}
}

func TestStore_SaveDraftRequiresLiveSession(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t, time.Minute)

	sid, err := s.Create(ctx, "user-1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	mr.FastForward(2 * time.Minute)

	err = s.SaveDraft(ctx, sid, model.AgreementDraft{Title: "t"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("SaveDraft on expired session = %v, want ErrNotFound", err)
	}
	// the write must not resurrect the key as a draft-only hash
	if mr.Exists(key(sid)) {
		t.Fatalf("expired session key was recreated by SaveDraft")
	}
}
