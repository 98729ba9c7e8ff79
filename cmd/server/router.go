package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/stashsuite/stashweb/internal/api"
	apiMiddleware "github.com/stashsuite/stashweb/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes
// and middleware. Returns the configured router.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	// Apply standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	// Create API handlers using the application's services
	authHandler := api.NewAuthHandler(
		app.userStore,
		app.sessionStore,
		app.jwtService,
		app.passwordVerifier,
	)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)

	taskHandler := api.NewTaskHandler(
		app.registry,
		app.dispatcher,
		app.backend,
		app.db,
		app.recordStore,
		app.invalidator,
		time.Duration(app.config.Task.DefaultTimeoutMinutes)*time.Minute,
	)
	reportHandler := api.NewReportHandler(app.backend, app.cache)
	prefsHandler := api.NewPrefsHandler(app.prefsStore)

	// Register routes
	r.Route("/api", func(r chi.Router) {
		// Authentication endpoints (public)
		r.Post("/auth/login", authHandler.Login)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			// Task submission endpoints
			r.Post("/tasks/archive/{client}/{backup}", taskHandler.SubmitArchive)
			r.Post("/tasks/browseall/{client}/{backup}", taskHandler.SubmitBrowse)
			r.Delete("/tasks/config/{client}", taskHandler.SubmitDelete)

			// Task lifecycle endpoints
			r.Get("/tasks/status/{type}/{id}", taskHandler.Status)
			r.Delete("/tasks/status/{type}/{id}", taskHandler.Cancel)

			// Result consumption endpoints
			r.Get("/tasks/get/{id}", taskHandler.FetchArchive)
			r.Get("/tasks/get-browse/{id}", taskHandler.FetchBrowse)
			r.Get("/tasks/completed/config/{id}", taskHandler.FetchDeleteOutcome)

			// Aggregate views
			r.Get("/tasks/backup-running", reportHandler.BackupRunning)
			r.Get("/tasks/report", reportHandler.Report)

			// Preferences
			r.Get("/prefs", prefsHandler.Get)
			r.Put("/prefs", prefsHandler.Put)
		})
	})

	// Completion notifications
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)
		r.Get("/ws", app.hub.ServeHTTP)
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
