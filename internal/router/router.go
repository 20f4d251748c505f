package router

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/research-hub/backend/internal/cache"
	"github.com/anonto42/research-hub/backend/internal/events"
	"github.com/anonto42/research-hub/backend/internal/follow"
	"github.com/anonto42/research-hub/backend/internal/handlers"
	"github.com/anonto42/research-hub/backend/internal/middleware"
	"github.com/anonto42/research-hub/backend/internal/models"
	"github.com/anonto42/research-hub/backend/internal/projection"
	"github.com/anonto42/research-hub/backend/internal/repositories"
	"github.com/anonto42/research-hub/backend/pkg/mailer"
	"github.com/anonto42/research-hub/backend/pkg/storage"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// Deps carries the externally constructed dependencies into route setup
type Deps struct {
	Postgres      *gorm.DB
	MongoClient   *mongo.Client
	MongoDatabase string
	FirebaseAuth  *auth.Client
	Pusher        follow.Pusher
	Cache         *cache.Cache
	Uploader      *storage.Uploader
	Mailer        *mailer.Mailer
	JWTSecret     string
}

// SetupMiddleware configures global Echo middleware and the uniform
// {success:false, error} error envelope
func SetupMiddleware(e *echo.Echo) {
	e.Use(eMiddleware.Logger())
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
	e.HTTPErrorHandler = errorHandler
	log.Println("Global middleware configured.")
}

func errorHandler(err error, c echo.Context) {
	code := http.StatusInternalServerError
	message := "Internal server error"
	if httpErr, ok := err.(*echo.HTTPError); ok {
		code = httpErr.Code
		message = fmt.Sprintf("%v", httpErr.Message)
	}
	if c.Response().Committed {
		return
	}
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, echo.Map{"success": false, "error": message})
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, deps Deps) {
	// AutoMigrate PostgreSQL models
	if err := deps.Postgres.AutoMigrate(&models.Account{}); err != nil {
		log.Fatalf("Failed to auto migrate models: %v", err)
	}
	log.Println("PostgreSQL auto-migrations completed.")

	mongoDB := deps.MongoClient.Database(deps.MongoDatabase)

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)
	e.GET("/", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"message": "Research Hub API"})
	})

	// --- Initialize Repositories ---
	accountRepo := repositories.NewPostgresAccountRepository(deps.Postgres)
	userRepo := repositories.NewMongoUserRepository(mongoDB)
	followRequestRepo := repositories.NewMongoFollowRequestRepository(mongoDB)
	postRepo := repositories.NewMongoPostRepository(mongoDB)
	commentRepo := repositories.NewMongoCommentRepository(mongoDB)
	likeRepo := repositories.NewMongoLikeRepository(mongoDB)
	bookmarkRepo := repositories.NewMongoBookmarkRepository(mongoDB)
	notificationRepo := repositories.NewMongoNotificationRepository(mongoDB)
	conversationRepo := repositories.NewMongoConversationRepository(mongoDB)
	txRunner := repositories.NewMongoTxRunner(deps.MongoClient)

	ensureIndexes(
		followRequestRepo.EnsureIndexes,
		likeRepo.EnsureIndexes,
		bookmarkRepo.EnsureIndexes,
		notificationRepo.EnsureIndexes,
		conversationRepo.EnsureIndexes,
	)

	// --- Core services ---
	broker := events.NewBroker()
	engine := follow.NewEngine(userRepo, followRequestRepo, notificationRepo, txRunner, broker, deps.Pusher)
	projector := projection.NewProjector(userRepo, followRequestRepo, notificationRepo, broker, deps.Cache)

	// --- Initialize Handlers ---
	authHandler := handlers.NewAuthHandler(accountRepo, userRepo, deps.FirebaseAuth, deps.Mailer, deps.JWTSecret)
	userHandler := handlers.NewUserHandler(userRepo)
	followHandler := handlers.NewFollowHandler(engine, followRequestRepo, projector)
	postHandler := handlers.NewPostHandler(postRepo)
	feedHandler := handlers.NewFeedHandler(postRepo, userRepo)
	commentHandler := handlers.NewCommentHandler(commentRepo, postRepo, userRepo, notificationRepo, broker)
	likeHandler := handlers.NewLikeHandler(likeRepo, postRepo, userRepo, notificationRepo, broker)
	bookmarkHandler := handlers.NewBookmarkHandler(bookmarkRepo, postRepo)
	notificationHandler := handlers.NewNotificationHandler(notificationRepo, projector)
	messageHandler := handlers.NewMessageHandler(conversationRepo, userRepo, broker)
	searchHandler := handlers.NewSearchHandler(userRepo, postRepo, deps.Cache)
	uploadHandler := handlers.NewUploadHandler(deps.Uploader)
	streamHandler := handlers.NewStreamHandler(broker, projector)

	// --- Routes ---
	authGroup := e.Group("/api/v1/auth")
	authHandler.RegisterAuthRoutes(authGroup)

	api := e.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(deps.FirebaseAuth))

	userHandler.RegisterProfileRoutes(api)
	followHandler.RegisterFollowRoutes(api)
	postHandler.RegisterPostRoutes(api)
	feedHandler.RegisterFeedRoutes(api)
	commentHandler.RegisterCommentRoutes(api)
	likeHandler.RegisterLikeRoutes(api)
	bookmarkHandler.RegisterBookmarkRoutes(api)
	notificationHandler.RegisterNotificationRoutes(api)
	messageHandler.RegisterMessageRoutes(api)
	uploadHandler.RegisterUploadRoutes(api)
	streamHandler.RegisterStreamRoutes(api)

	// Typeahead suggestions hit on every keystroke, so they carry a
	// per-user rate limit on top of auth.
	suggestionLimiter := middleware.NewRateLimiter(5, 10)
	searchHandler.RegisterSearchRoutes(api, suggestionLimiter.Middleware())

	log.Println("All routes configured.")
}

func ensureIndexes(fns ...func(ctx context.Context) error) {
	ctx := context.Background()
	for _, fn := range fns {
		if err := fn(ctx); err != nil {
			log.Printf("Warning: failed to ensure indexes: %v", err)
		}
	}
}
