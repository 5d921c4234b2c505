// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"codeberg.org/auisnexus/nexus/internal/handlers"
	"codeberg.org/auisnexus/nexus/internal/middleware"
	"codeberg.org/auisnexus/nexus/internal/models"
	"github.com/labstack/echo/v4"
)

// New builds the fully wired echo instance for app.
func New(app *App) *echo.Echo {
	e := newEcho()
	setupMiddleware(e, app.Config)
	setupRoutes(e, app)
	return e
}

func setupRoutes(e *echo.Echo, app *App) {
	cfg := app.Config

	h := handlers.New(app.Repo)
	e.GET("/health", h.Health)
	e.Static("/uploads", app.Storage.Dir())

	authenticate := middleware.Authenticate(app.Tokens, app.Repo, cfg.Auth.CookieName)
	admin := middleware.Authorize(models.RoleAdmin)
	limit := middleware.RateLimit(cfg.RateLimit.AuthPerMinute)

	api := e.Group("/api")
	api.GET("/health", h.Health)

	// Auth
	authHandler := handlers.NewAuth(app.Auth, &cfg.Auth)
	a := api.Group("/auth")
	a.POST("/register", authHandler.Register, limit)
	a.POST("/login", authHandler.Login, limit)
	a.GET("/verify-email/:token", authHandler.VerifyEmail)
	a.POST("/resend-verification", authHandler.ResendVerification, limit)
	a.POST("/forgot-password", authHandler.ForgotPassword, limit)
	a.PUT("/reset-password/:token", authHandler.ResetPassword, limit)
	a.GET("/me", authHandler.Me, authenticate)
	a.PUT("/updatedetails", authHandler.UpdateDetails, authenticate)
	a.PUT("/updatepassword", authHandler.UpdatePassword, authenticate)
	a.GET("/logout", authHandler.Logout, authenticate)

	// Events
	eventHandler := handlers.NewEvents(app.Events)
	ev := api.Group("/events")
	ev.GET("", eventHandler.List)
	ev.GET("/mine", eventHandler.Mine, authenticate)
	ev.GET("/:id", eventHandler.Get)
	ev.POST("", eventHandler.Create, authenticate, admin)
	ev.PUT("/:id", eventHandler.Update, authenticate, admin)
	ev.DELETE("/:id", eventHandler.Delete, authenticate, admin)
	ev.POST("/:id/register", eventHandler.Register, authenticate)
	ev.DELETE("/:id/register", eventHandler.Unregister, authenticate)

	// Users (admin)
	userHandler := handlers.NewUsers(app.Users)
	u := api.Group("/users", authenticate, admin)
	u.GET("", userHandler.List)
	u.GET("/:id", userHandler.Get)
	u.PUT("/:id", userHandler.Update)
	u.DELETE("/:id", userHandler.Delete)

	// Upload (admin)
	uploadHandler := handlers.NewUpload(app.Storage)
	api.POST("/upload", uploadHandler.Upload, authenticate, admin)
}
