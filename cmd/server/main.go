package main // Entry point package

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/arminrs/consent-agreements/internal/config"
	"github.com/arminrs/consent-agreements/internal/database"
	"github.com/arminrs/consent-agreements/internal/handler"
	"github.com/arminrs/consent-agreements/internal/queue"
	"github.com/arminrs/consent-agreements/internal/repository"
	"github.com/arminrs/consent-agreements/internal/router"
	queue_publisher "github.com/arminrs/consent-agreements/internal/service"
	"github.com/arminrs/consent-agreements/internal/session"
)

func main() {
	// Load .env when present; real deployments set env vars directly.
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment")
	}

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()

	// Redis carries sessions (and with them the wizard drafts), so it
	// is required, unlike the optional rate limiter it also feeds.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Fatal("redis connection failed; sessions cannot work without it")
	}
	sessions := session.NewStore(rdb, cfg.SessionTTL)

	users := repository.NewUserRepo(db)
	agreements := repository.NewAgreementRepo(db)

	authHandler := handler.NewAuthHandler(cfg, users, sessions)
	wizardHandler := handler.NewWizardHandler(users, agreements, sessions)
	agreementHandler := handler.NewAgreementHandler(agreements, sessions, queue_publisher.New())

	// Background consumer for response notifications; it reconnects on
	// its own and never takes the API down with it.
	go func() {
		if err := queue.StartRespondedConsumer(); err != nil {
			log.Printf("agreement consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, authHandler, config.LoadRateLimitConfig(), rdb)
	router.RegisterAgreements(e, cfg, sessions, authHandler, wizardHandler, agreementHandler)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
