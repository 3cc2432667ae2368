package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/slim-mom/backend/internal/config"
	"github.com/slim-mom/backend/internal/db"
	"github.com/slim-mom/backend/internal/events"
	"github.com/slim-mom/backend/internal/httpserver"
	"github.com/slim-mom/backend/internal/logging"
	"github.com/slim-mom/backend/internal/mail"
	authmw "github.com/slim-mom/backend/internal/middleware/auth"
	loggingmw "github.com/slim-mom/backend/internal/middleware/logging"
	"github.com/slim-mom/backend/internal/repo"
	"github.com/slim-mom/backend/internal/service"
	"github.com/slim-mom/backend/internal/tokens"
)

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}
	configuration.MustValidate()

	logger := logging.New(configuration.LOG_LEVEL)

	database, err := db.Open(context.Background(), configuration.DATABASE_URL)
	if err != nil {
		log.Fatalf("database init error: %v", err)
	}

	var producer events.Producer = events.NoopProducer{}
	if configuration.KAFKA_ADDRESS != "" {
		producer = events.NewKafkaProducer(configuration.KAFKA_ADDRESS)
	}

	issuer := &tokens.Issuer{
		AccessSecret:  []byte(configuration.JWT_SECRET),
		RefreshSecret: []byte(configuration.REFRESH_SECRET),
		AccessTTL:     configuration.AccessTTL,
		RefreshTTL:    configuration.RefreshTTL,
	}

	userRepo := &repo.GormRepo{DB: database}
	revoked := repo.NewRevocationRegistry(database)
	mailer := mail.NewSMTPMailer(configuration)

	svc := &service.IdentityService{
		Repo:     userRepo,
		Revoked:  revoked,
		Issuer:   issuer,
		Mailer:   mailer,
		Producer: producer,
		BaseURL:  configuration.BASE_URL,
	}

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID(), loggingmw.RequestLogger(logger))

	httpserver.Register(e, &httpserver.Deps{
		UserHandler: &httpserver.UserHTTP{Svc: svc, Mailer: mailer},
		Gate:        authmw.NewGate(issuer, userRepo, revoked),
	})

	srv := &http.Server{
		Addr:         ":8080",
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := database.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	} else {
		log.Printf("db() error: %v", err)
	}

	if err := producer.Close(); err != nil {
		log.Printf("kafka close error: %v", err)
	}

	log.Println("shutdown complete")
}
