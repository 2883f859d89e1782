package server

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"mingle/internal/config"
	"mingle/internal/mailer"
	"mingle/internal/media"
	"mingle/internal/middleware"
	"mingle/internal/models"
	"mingle/internal/observability"
	"mingle/internal/repository"
	"mingle/internal/service"
)

// Server holds the wired application: config, storage clients, repositories
// and services. Handlers hang off it.
type Server struct {
	cfg *config.Config
	db  *gorm.DB
	rdb *redis.Client

	users    repository.UserRepository
	posts    repository.PostRepository
	comments repository.CommentRepository
	follows  repository.FollowRepository

	mediaStore media.Store

	authService        *service.AuthService
	userService        *service.UserService
	postService        *service.PostService
	graphService       *service.GraphService
	interactionService *service.InteractionService
}

// NewServer wires repositories and services from the given connections.
func NewServer(cfg *config.Config, db *gorm.DB, rdb *redis.Client) (*Server, error) {
	store, err := media.NewLocalStore(db, cfg.MediaDir, cfg.MaxUploadBytes())
	if err != nil {
		return nil, err
	}
	return NewServerWithDeps(cfg, db, rdb, store, mailer.New(cfg)), nil
}

// NewServerWithDeps wires the server with explicit media and mail
// implementations; tests use this to substitute fakes.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, rdb *redis.Client, store media.Store, mail mailer.Mailer) *Server {
	users := repository.NewUserRepository(db, rdb)
	posts := repository.NewPostRepository(db, rdb)
	comments := repository.NewCommentRepository(db)
	follows := repository.NewFollowRepository(db)

	return &Server{
		cfg:                cfg,
		db:                 db,
		rdb:                rdb,
		users:              users,
		posts:              posts,
		comments:           comments,
		follows:            follows,
		mediaStore:         store,
		authService:        service.NewAuthService(users, store, mail, cfg),
		userService:        service.NewUserService(users, follows),
		postService:        service.NewPostService(rdb, posts, follows, store),
		graphService:       service.NewGraphService(db, rdb, users, posts, follows, store),
		interactionService: service.NewInteractionService(rdb, posts, comments),
	}
}

// SetupMiddleware registers the global middleware stack. Order matters:
// recover first, then request id and context so logging sees both.
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.ContextMiddleware())

	prom := observability.NewHTTPMetrics("mingle")
	prom.RegisterAt(app, "/metrics")
	app.Use(prom.Middleware)

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())
	app.Use(cors.New(cors.Config{
		AllowOrigins: s.cfg.AllowedOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))
}

// SetupRoutes registers all endpoints.
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/healthz", s.Healthz)
	app.Get("/readyz", s.Readyz)
	app.Get("/media/:folder/:file", s.ServeMedia)

	api := app.Group("/api/v1")
	authRequired := middleware.AuthRequired()
	authLimit := middleware.RateLimit(s.rdb, 10, time.Minute, "auth")

	auth := api.Group("/auth")
	auth.Post("/register", authLimit, s.Register)
	auth.Post("/login", authLimit, s.Login)
	auth.Get("/verify/:token", s.VerifyEmail)
	auth.Post("/password/forgot", authLimit, s.ForgotPassword)
	auth.Put("/password/reset/:token", authLimit, s.ResetPassword)
	auth.Put("/password/update", authRequired, s.UpdatePassword)

	users := api.Group("/users", authRequired)
	users.Get("/", s.ListUsers)
	users.Get("/me", s.Me)
	users.Put("/me", s.UpdateProfile)
	// Specific /:id/<resource> routes before the generic /:id.
	users.Post("/:id/follow", s.FollowUser)
	users.Get("/:id/posts", s.UserPosts)
	users.Put("/:id/role", s.ToggleRole)
	users.Get("/:id", s.GetUser)
	users.Delete("/:id", s.DeleteUser)

	posts := api.Group("/posts")
	posts.Get("/", s.ListPosts)
	posts.Post("/", authRequired, s.CreatePost)
	posts.Get("/feed", authRequired, s.Feed)
	posts.Get("/me", authRequired, s.MyPosts)
	posts.Post("/:id/like", authRequired, s.ToggleLike)
	posts.Get("/:id/comments", s.ListComments)
	posts.Put("/:id/comment", authRequired, s.UpsertComment)
	posts.Delete("/:id/comment", authRequired, s.DeleteComment)
	posts.Get("/:id", s.ViewPost)
	posts.Put("/:id", authRequired, s.UpdatePost)
	posts.Delete("/:id", authRequired, s.DeletePost)
}

// Healthz reports process liveness.
func (s *Server) Healthz(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// Readyz reports dependency readiness: database required, redis optional.
func (s *Server) Readyz(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	sqlDB, err := s.db.DB()
	if err != nil || sqlDB.PingContext(ctx) != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status":   "unavailable",
			"database": "down",
		})
	}

	redisStatus := "disabled"
	if s.rdb != nil {
		redisStatus = "ok"
		if err := s.rdb.Ping(ctx).Err(); err != nil {
			redisStatus = "down"
		}
	}

	return c.JSON(fiber.Map{
		"status":   "ok",
		"database": "ok",
		"redis":    redisStatus,
	})
}

// ServeMedia handles GET /media/:folder/:file from the local media directory.
func (s *Server) ServeMedia(c *fiber.Ctx) error {
	folder := c.Params("folder")
	file := c.Params("file")
	if strings.Contains(folder, "..") || strings.Contains(file, "..") {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid media path"))
	}

	path := filepath.Join(s.cfg.MediaDir, folder, file)
	if err := c.SendFile(path); err != nil {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("Media", file))
	}
	return nil
}
