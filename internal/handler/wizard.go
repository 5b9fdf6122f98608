package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/arminrs/consent-agreements/internal/model"
	"github.com/arminrs/consent-agreements/internal/repository"
	"github.com/arminrs/consent-agreements/internal/session"
)

// WizardHandler drives the three-step agreement creation flow. The
// draft under construction lives in the caller's session between
// steps: step 1 creates it, step 2 fills in the consent answers, and
// the signature step persists it and clears the session. Each step
// requires the previous one, so resumed or abandoned flows degrade
// into a 409 rather than a half-built record.
type WizardHandler struct {
	Users      UserStore
	Agreements AgreementStore
	Sessions   SessionStore
}

func NewWizardHandler(users UserStore, agreements AgreementStore, sessions SessionStore) *WizardHandler {
	if users == nil || agreements == nil || sessions == nil {
		panic("nil store passed to NewWizardHandler")
	}
	return &WizardHandler{Users: users, Agreements: agreements, Sessions: sessions}
}

type step1Req struct {
	Title          string `json:"title"`
	Party2Username string `json:"party2_username"`
}

type step2Req struct {
	SexualContent *string `json:"sexual_content"`
	Contraception *string `json:"contraception"`
	STDCheck      *string `json:"std_check"`
	RecordAllowed *string `json:"record_allowed"`
}

type signatureReq struct {
	SignatureData string `json:"signature_data"`
}

// Step1 handles POST /agreements/new/step1. It resolves party2 by
// username and stores a fresh draft in the session with the caller as
// party1. Any draft already in the session is replaced.
func (h *WizardHandler) Step1(c echo.Context) error {
	uid, err := currentUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	sid, err := currentSID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req step1Req
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Party2Username = strings.TrimSpace(req.Party2Username)
	if req.Title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title is required"})
	}
	if req.Party2Username == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "party2_username is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	target, err := h.Users.GetByUsername(ctx, req.Party2Username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "no user found with username '" + req.Party2Username + "'"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if target.ID == uid {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "party2 must be a different user"})
	}
	me, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}

	draft := model.AgreementDraft{
		Title:  req.Title,
		Party1: model.Party{UserID: me.ID, Name: me.Username},
		Party2: model.Party{UserID: target.ID, Name: target.Username},
	}
	if err := h.Sessions.SaveDraft(ctx, sid, draft); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save draft failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"draft": draft})
}

// Step2 handles POST /agreements/new/step2. It merges the four consent
// answers into the draft created by step 1. Each answer is optional
// and stored as given; absent fields stay null in the final document.
func (h *WizardHandler) Step2(c echo.Context) error {
	sid, err := currentSID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req step2Req
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	draft, err := h.Sessions.Draft(ctx, sid)
	if err != nil {
		if errors.Is(err, session.ErrNoDraft) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "no agreement in progress; start at step 1"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load draft failed"})
	}

	draft.Content = &model.AgreementContent{
		SexualContent: req.SexualContent,
		Contraception: req.Contraception,
		STDCheck:      req.STDCheck,
		RecordAllowed: req.RecordAllowed,
	}
	if err := h.Sessions.SaveDraft(ctx, sid, draft); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save draft failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"draft": draft})
}

// Signature handles POST /agreements/new/signature. It attaches the
// signature blob, persists the draft as a pending agreement, clears
// the draft from the session and returns the new agreement id.
// Exactly one record is inserted per successful call, also when the
// draft was seeded from a rejected agreement by the edit flow.
func (h *WizardHandler) Signature(c echo.Context) error {
	sid, err := currentSID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req signatureReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.SignatureData) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "signature_data is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	draft, err := h.Sessions.Draft(ctx, sid)
	if err != nil {
		if errors.Is(err, session.ErrNoDraft) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "no agreement in progress; start at step 1"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load draft failed"})
	}
	if !draft.HasContent() {
		return c.JSON(http.StatusConflict, echo.Map{"error": "complete step 2 before signing"})
	}

	agreement := model.Agreement{
		Title:          draft.Title,
		Party1:         draft.Party1,
		Party2:         draft.Party2,
		Content:        *draft.Content,
		Signature:      req.SignatureData,
		CreatedAt:      time.Now().UTC(),
		ResponseStatus: model.StatusPending,
		ResponseDate:   nil,
	}
	id, err := h.Agreements.Insert(ctx, agreement)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save agreement failed"})
	}
	if err := h.Sessions.ClearDraft(ctx, sid); err != nil {
		// The agreement is saved; a stale draft only means the next
		// wizard run starts with step 1 overwriting it.
		c.Logger().Warnf("clear draft after finalize failed: %v", err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": id})
}

// Draft handles GET /agreements/new/draft and returns the wizard state
// accumulated so far, so a client can re-render the current step.
func (h *WizardHandler) Draft(c echo.Context) error {
	sid, err := currentSID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	draft, err := h.Sessions.Draft(ctx, sid)
	if err != nil {
		if errors.Is(err, session.ErrNoDraft) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "no agreement in progress"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load draft failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"draft": draft})
}
