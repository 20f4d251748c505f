package main

import (
	"context"
	"log"

	"github.com/anonto42/research-hub/backend/internal/cache"
	"github.com/anonto42/research-hub/backend/internal/follow"
	"github.com/anonto42/research-hub/backend/internal/router"
	"github.com/anonto42/research-hub/backend/pkg/config"
	"github.com/anonto42/research-hub/backend/pkg/firebase"
	"github.com/anonto42/research-hub/backend/pkg/mailer"
	"github.com/anonto42/research-hub/backend/pkg/storage"
	"github.com/anonto42/research-hub/backend/validators"
	"github.com/labstack/echo/v4"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database connections
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize databases: %v", err)
	}
	defer db.CloseDB() // Ensure database connections are closed when main exits

	// Initialize Firebase
	ctx := context.Background()
	firebaseApp, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}

	var pusher follow.Pusher = firebase.NewPusher(firebaseApp.MessagingClient)

	// Object storage for uploads; the API runs without it, uploads return 503
	var uploader *storage.Uploader
	if cfg.S3Bucket != "" {
		uploader, err = storage.NewUploader(ctx, cfg.S3Bucket, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3PublicBaseURL)
		if err != nil {
			log.Printf("Warning: S3 uploader disabled: %v", err)
		}
	}

	// Create Echo instance
	e := echo.New()

	// Setup global middleware
	router.SetupMiddleware(e)

	// Setup routes and dependencies
	router.SetupRoutes(e, router.Deps{
		Postgres:      db.Postgres,
		MongoClient:   db.Mongo,
		MongoDatabase: cfg.MongoDatabase,
		FirebaseAuth:  firebaseApp.AuthClient,
		Pusher:        pusher,
		Cache:         cache.New(cfg.RedisAddr),
		Uploader:      uploader,
		Mailer:        mailer.New(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom),
		JWTSecret:     cfg.JWTSecret,
	})

	// Validator
	e.Validator = validators.NewValidator()

	// Start server
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
