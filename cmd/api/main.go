package main

import (
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/threadbox/backend/internal/auth"
	"github.com/threadbox/backend/internal/config"
	"github.com/threadbox/backend/internal/database"
	"github.com/threadbox/backend/internal/handler"
	"github.com/threadbox/backend/internal/middleware"
	"github.com/threadbox/backend/internal/repository"
	"github.com/threadbox/backend/internal/service"
)

func main() {
	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Initialize JWT service
	jwtService := auth.NewJWTService(cfg)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// Initialize services
	notificationService := service.NewNotificationService(notificationRepo, commentRepo, userRepo)
	commentService := service.NewCommentService(commentRepo, userRepo, notificationService)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(userRepo, jwtService)
	commentHandler := handler.NewCommentHandler(commentService)
	notificationHandler := handler.NewNotificationHandler(notificationService)
	wsHandler := handler.NewWebSocketHandler()
	notificationService.SetPusher(wsHandler.Hub)

	// Initialize auth middleware
	authMiddleware := middleware.NewAuthMiddleware(jwtService)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"success": false,
				"error": fiber.Map{
					"code":    "INTERNAL_ERROR",
					"message": err.Error(),
				},
			})
		},
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.CORS.Origins, ","),
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization",
		AllowCredentials: true,
	}))

	// API routes
	api := app.Group("/api")

	// Health check
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Auth routes
	authRoutes := api.Group("/auth")
	authRoutes.Post("/signup", authHandler.Signup)
	authRoutes.Post("/login", authHandler.Login)

	// Comment routes
	commentRoutes := api.Group("/comments")
	commentRoutes.Get("/", authMiddleware.Optional(), commentHandler.List)
	commentRoutes.Post("/", authMiddleware.Required(), commentHandler.Create)
	commentRoutes.Get("/:id", commentHandler.GetByID)
	commentRoutes.Put("/:id", authMiddleware.Required(), commentHandler.Update)
	commentRoutes.Delete("/:id", authMiddleware.Required(), commentHandler.Delete)
	commentRoutes.Post("/:id/restore", authMiddleware.Required(), commentHandler.Restore)

	// Notification routes
	notificationRoutes := api.Group("/notifications", authMiddleware.Required())
	notificationRoutes.Get("/", notificationHandler.List)
	notificationRoutes.Put("/:id/read", notificationHandler.MarkAsRead)

	// WebSocket route for live notification delivery
	app.Use("/ws", authMiddleware.Required(), func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(wsHandler.HandleWebSocket))

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Gracefully shutting down...")
		_ = app.Shutdown()
	}()

	// Start server
	port := cfg.App.Port
	if port == "" {
		port = "8088"
	}
	log.Printf("Server starting on port %s", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
