package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/arminrs/consent-agreements/internal/config"
	"github.com/arminrs/consent-agreements/internal/handler"
	"github.com/arminrs/consent-agreements/internal/middleware"
	"github.com/arminrs/consent-agreements/internal/session"
)

// RegisterRoutes registers routes that require no authentication.
// Currently that is only the health check used by load balancers and
// monitoring.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication endpoints. Register and
// login establish a session; both sit behind the Redis token bucket to
// blunt credential stuffing. Logout is deliberately outside the
// session middleware: clearing an already-dead session should still
// succeed.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, rl config.RateLimitConfig, rdb *redis.Client) {
	g := e.Group("/auth")
	g.Use(middleware.NewTokenBucket(rl, rdb))
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.GET("/logout", a.Logout)
}

// RegisterAgreements registers every session-protected endpoint: the
// home listing, the three wizard steps, and the view/respond/edit/
// search operations on persisted agreements.
func RegisterAgreements(e *echo.Echo, cfg config.Config, store *session.Store,
	a *handler.AuthHandler, w *handler.WizardHandler, ag *handler.AgreementHandler) {

	auth := e.Group("")
	auth.Use(middleware.SessionAuth(cfg.SessionSecret, store))

	auth.GET("/", ag.Home)
	auth.GET("/me", a.Me)

	// wizard: step1 -> step2 -> signature, with draft re-render support
	auth.POST("/agreements/new/step1", w.Step1)
	auth.POST("/agreements/new/step2", w.Step2)
	auth.POST("/agreements/new/signature", w.Signature)
	auth.GET("/agreements/new/draft", w.Draft)

	// static /agreements/search wins over /agreements/:id in echo's router
	auth.GET("/agreements/search", ag.Search)
	auth.POST("/agreements/search", ag.Search)

	auth.GET("/agreements/:id", ag.View)
	auth.POST("/agreements/:id/respond", ag.Respond)
	auth.GET("/agreements/:id/edit", ag.Edit)
}
