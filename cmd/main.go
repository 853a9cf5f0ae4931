package main

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/rahulds/goblog/internal/config"
	"github.com/rahulds/goblog/internal/db"
	"github.com/rahulds/goblog/internal/handlers"
	"github.com/rahulds/goblog/internal/httperr"
	"github.com/rahulds/goblog/internal/middleware"
	"github.com/rahulds/goblog/internal/services"
	"github.com/rahulds/goblog/internal/storage"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading it, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Connect to MongoDB and create unique indexes
	database := db.Connect(cfg.MongoURI, cfg.MongoDB)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := db.EnsureIndexes(ctx, database); err != nil {
		log.Fatalf("Failed to create indexes: %v", err)
	}
	cancel()

	// Upload storage backend
	var store storage.Store
	switch cfg.UploadBackend {
	case "minio":
		store, err = storage.NewMinioStore(cfg.MinioEndpoint, cfg.MinioAccessKey,
			cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
	default:
		store, err = storage.NewDiskStore(cfg.UploadDir)
	}
	if err != nil {
		log.Fatalf("Failed to initialize upload storage: %v", err)
	}
	cleaner := storage.NewCleaner(store, 2)

	users := database.Collection("users")
	categories := database.Collection("categories")
	posts := database.Collection("posts")

	authService := services.NewAuthService(users, cfg.JWTSecret)
	categoryService := services.NewCategoryService(categories)
	postService := services.NewPostService(posts, categories, users, cleaner)

	authHandler := handlers.NewAuthHandler(authService)
	categoryHandler := handlers.NewCategoryHandler(categoryService)
	postHandler := handlers.NewPostHandler(postService, store)

	app := fiber.New(fiber.Config{
		ErrorHandler: httperr.Handler,
		BodyLimit:    storage.MaxUploadSize + 1<<20, // image cap plus form overhead
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New())

	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("Blog API running")
	})

	// Uploaded images are public static files on the disk backend
	if cfg.UploadBackend == "disk" {
		app.Static("/uploads", cfg.UploadDir)
	}

	protect := middleware.Protect(cfg.JWTSecret, users)

	// User routes
	userRoutes := app.Group("/api/users")
	userRoutes.Post("/register", authHandler.Register)
	userRoutes.Post("/login", authHandler.Login)
	userRoutes.Get("/profile", protect, authHandler.Profile)

	// Category routes
	categoryRoutes := app.Group("/api/categories")
	categoryRoutes.Get("/", categoryHandler.List)
	categoryRoutes.Get("/:id", categoryHandler.Get)
	categoryRoutes.Post("/", protect, categoryHandler.Create)
	categoryRoutes.Put("/:id", protect, categoryHandler.Update)
	categoryRoutes.Delete("/:id", protect, categoryHandler.Delete)

	// Post routes
	postRoutes := app.Group("/api/posts")
	postRoutes.Get("/", postHandler.List)
	postRoutes.Get("/:slug", postHandler.Get)
	postRoutes.Post("/", protect, postHandler.Create)
	postRoutes.Put("/:id", protect, postHandler.Update)
	postRoutes.Delete("/:id", protect, postHandler.Delete)
	postRoutes.Post("/:id/comments", protect, postHandler.AddComment)

	// Start server. Drain queued upload removals before exiting;
	// log.Fatal inside Listen would skip them.
	err = app.Listen(":" + cfg.Port)
	cleaner.Close()
	if err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}
