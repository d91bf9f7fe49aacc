package server

import (
	"time"

	"github.com/studyhub/studyhub-api/internal/auth"
	"github.com/studyhub/studyhub-api/internal/config"
	"github.com/studyhub/studyhub-api/internal/deletion"
	"github.com/studyhub/studyhub-api/internal/export"
	"github.com/studyhub/studyhub-api/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func SetupRoutes(app *fiber.App, cfg *config.Config) {
	// Middleware
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Admin-Key",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS, PATCH",
	}))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"message": "StudyHub API is running",
		})
	})

	// ==========================================
	// AUTH ROUTES (No authentication required)
	// ==========================================
	authGroup := app.Group("/auth")
	app.Use("/auth", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 1 * time.Minute,
	}))
	authGroup.Post("/register", auth.RegisterHandler)
	authGroup.Post("/login", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 15 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
	}), auth.LoginHandler)
	authGroup.Get("/google/login", auth.GoogleLogin)
	authGroup.Get("/google/callback", auth.GoogleCallback)
	authGroup.Post("/refresh", limiter.New(limiter.Config{
		Max:        3,
		Expiration: 5 * time.Minute,
	}), auth.RefreshHandler)
	authGroup.Post("/logout", auth.JWTProtected(), auth.LogoutHandler)

	// ==========================================
	// ACCOUNT DELETION LIFECYCLE
	// ==========================================
	// The confirm route carries its own token and arrives from the email
	// link, so it is the one /account route without a session.
	accountGroup := app.Group("/account")
	accountGroup.Post("/deletion", auth.JWTProtected(), deletion.RequestDeletionHandler)
	accountGroup.Get("/deletion", auth.JWTProtected(), deletion.DeletionStatusHandler)
	accountGroup.Post("/deletion/confirm", limiter.New(limiter.Config{
		Max:        10,
		Expiration: 15 * time.Minute,
	}), deletion.ConfirmDeletionHandler)
	accountGroup.Post("/deletion/cancel", auth.JWTProtected(), deletion.CancelDeletionHandler)
	accountGroup.Get("/data-summary", auth.JWTProtected(), deletion.DataSummaryHandler)
	accountGroup.Post("/export", auth.JWTProtected(), export.CreateExportHandler)

	// ==========================================
	// ADMIN JOBS (cron-triggered, key protected)
	// ==========================================
	adminGroup := app.Group("/admin", middleware.AdminKeyProtected(cfg.AdminAPIKey))
	adminGroup.Post("/deletion-reminders", deletion.DispatchRemindersHandler)
	adminGroup.Post("/deletion-executions", deletion.ProcessDeletionsHandler)
}
