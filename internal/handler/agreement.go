package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/arminrs/consent-agreements/internal/model"
	"github.com/arminrs/consent-agreements/internal/queue"
	"github.com/arminrs/consent-agreements/internal/repository"
)

// AgreementHandler serves the persisted-agreement endpoints: the home
// listing, single-agreement view, party2's respond action, party1's
// edit re-entry and the party2-scoped search. Every method assumes the
// session middleware has authenticated the caller; the party checks
// against the loaded agreement happen here, by id value.
type AgreementHandler struct {
	Agreements AgreementStore
	Sessions   SessionStore
	Events     EventPublisher // optional; nil disables notifications
}

func NewAgreementHandler(agreements AgreementStore, sessions SessionStore, events EventPublisher) *AgreementHandler {
	if agreements == nil || sessions == nil {
		panic("nil store passed to NewAgreementHandler")
	}
	return &AgreementHandler{Agreements: agreements, Sessions: sessions, Events: events}
}

type respondReq struct {
	Response string `json:"response"`
}

type homeResp struct {
	Sent     statusSplit `json:"sent"`
	Received statusSplit `json:"received"`
}
type statusSplit struct {
	Pending []model.Agreement `json:"pending"`
	Agreed  []model.Agreement `json:"agreed"`
}

// Home handles GET /. Agreements are listed from both perspectives,
// sent (party1) and received (party2), each split into agreed and
// not-yet-agreed. Rejected agreements stay in the pending bucket so
// party1 sees them as still needing work, matching the original
// home-page split.
func (h *AgreementHandler) Home(c echo.Context) error {
	uid, err := currentUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	sent, err := h.Agreements.ListByParty(ctx, uid, repository.RoleParty1)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	received, err := h.Agreements.ListByParty(ctx, uid, repository.RoleParty2)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, homeResp{
		Sent:     splitByStatus(sent),
		Received: splitByStatus(received),
	})
}

func splitByStatus(list []model.Agreement) statusSplit {
	s := statusSplit{Pending: []model.Agreement{}, Agreed: []model.Agreement{}}
	for _, a := range list {
		if a.ResponseStatus == model.StatusAgreed {
			s.Agreed = append(s.Agreed, a)
		} else {
			s.Pending = append(s.Pending, a)
		}
	}
	return s
}

// View handles GET /agreements/:id. Only the two parties may see an
// agreement.
func (h *AgreementHandler) View(c echo.Context) error {
	uid, err := currentUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	a, err := h.Agreements.GetByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrAgreementNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "agreement not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if a.Party1.UserID != uid && a.Party2.UserID != uid {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not authorized to view this agreement"})
	}
	return c.JSON(http.StatusOK, echo.Map{"agreement": a})
}

// Respond handles POST /agreements/:id/respond. Only party2 may
// respond, and only while the agreement is still pending; a rejected
// agreement is re-issued by party1 through the edit flow rather than
// re-responded to.
func (h *AgreementHandler) Respond(c echo.Context) error {
	uid, err := currentUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req respondReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	decision := strings.ToLower(strings.TrimSpace(req.Response))
	if decision != model.StatusAgreed && decision != model.StatusRejected {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "response must be 'agreed' or 'rejected'"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	a, err := h.Agreements.GetByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrAgreementNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "agreement not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if a.Party2.UserID != uid {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "only party2 can respond"})
	}
	if a.ResponseStatus != model.StatusPending {
		return c.JSON(http.StatusConflict, echo.Map{"error": "agreement has already been responded to"})
	}

	respondedAt := time.Now().UTC()
	if err := h.Agreements.UpdateStatus(ctx, a.ID, decision, respondedAt); err != nil {
		if errors.Is(err, repository.ErrAgreementNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "agreement not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	if h.Events != nil {
		ev := queue.AgreementRespondedEvent{
			AgreementID:    a.ID,
			Title:          a.Title,
			Party1UserID:   a.Party1.UserID,
			Party1Name:     a.Party1.Name,
			Party2UserID:   a.Party2.UserID,
			Party2Name:     a.Party2.Name,
			ResponseStatus: decision,
			RespondedAt:    respondedAt.Format(time.RFC3339),
		}
		if err := h.Events.AgreementResponded(ctx, ev); err != nil {
			c.Logger().Warnf("publish response event failed: %v", err)
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"id":              a.ID,
		"response_status": decision,
		"response_date":   respondedAt,
	})
}

// Edit handles GET /agreements/:id/edit. Only party1 of a rejected
// agreement may edit. The agreement is copied into a session draft and
// the wizard resumes at step 2; finalizing inserts a new record while
// the rejected one stays behind as history.
func (h *AgreementHandler) Edit(c echo.Context) error {
	uid, err := currentUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	sid, err := currentSID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	a, err := h.Agreements.GetByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrAgreementNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "agreement not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if a.Party1.UserID != uid || a.ResponseStatus != model.StatusRejected {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not authorized to edit"})
	}

	content := a.Content
	draft := model.AgreementDraft{
		Title:    a.Title,
		Party1:   a.Party1,
		Party2:   a.Party2,
		Content:  &content,
		SourceID: a.ID,
	}
	if err := h.Sessions.SaveDraft(ctx, sid, draft); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save draft failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"draft": draft})
}

// Search handles GET and POST /agreements/search. The scope is fixed
// to agreements received by the caller (party2); the keyword matches
// the title or party1's name.
func (h *AgreementHandler) Search(c echo.Context) error {
	uid, err := currentUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	keyword := c.QueryParam("keyword")
	if c.Request().Method == http.MethodPost {
		var body struct {
			Keyword string `json:"keyword"`
		}
		if err := c.Bind(&body); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
		}
		keyword = body.Keyword
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	results, err := h.Agreements.Search(ctx, uid, keyword)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "search failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"keyword": keyword,
		"results": results,
	})
}
