package http

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
	"github.com/shoptrack/shoptrack-backend-go/internal/config"
	"github.com/shoptrack/shoptrack-backend-go/internal/domain/user"
	"github.com/shoptrack/shoptrack-backend-go/internal/handler/http/middleware"
	"github.com/shoptrack/shoptrack-backend-go/internal/handler/http/response"
	"github.com/shoptrack/shoptrack-backend-go/internal/pkg/jwt"
)

const maxRequestBody = 1 << 20

func NewRouter(
	cfg *config.Config,
	JWTService jwt.Service,
	timeEntryHandler TimeEntryHandler,
	payrollHandler PayrollHandler,
	reportHandler ReportHandler,
) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(!cfg.IsDevelopment())
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "shoptrack"),
		slog.String("version", cfg.App.Version),
		slog.String("env", cfg.App.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.App.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))
	r.Use(middleware.RequestID)

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.BodyLimit(maxRequestBody))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			response.Success(w, map[string]string{
				"status":  "ok",
				"version": cfg.App.Version,
			})
		})

		r.Route("/time-entries", func(r chi.Router) {
			// EventSource cannot send headers, the stream authenticates with a
			// stream token in the query string.
			r.Get("/stream", timeEntryHandler.Stream)

			// Requires authentication
			r.Group(func(r chi.Router) {
				r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
				r.Use(middleware.AuthRequired)

				r.Post("/clock-in", timeEntryHandler.ClockIn)
				r.Post("/clock-out", timeEntryHandler.ClockOut)
				r.Post("/break/start", timeEntryHandler.BreakStart)
				r.Post("/break/end", timeEntryHandler.BreakEnd)
				r.Get("/open", timeEntryHandler.GetOpen)
				r.Post("/stream/token", timeEntryHandler.StreamToken)
				r.Get("/", timeEntryHandler.List)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", timeEntryHandler.Get)
					r.Patch("/", timeEntryHandler.Update)
					r.Get("/hours", timeEntryHandler.Hours)

					// Manager or admin only
					r.Group(func(r chi.Router) {
						r.Use(middleware.RequireManager)
						r.Post("/approve", timeEntryHandler.Approve)
						r.Post("/unlock", timeEntryHandler.Unlock)
					})
				})
			})
		})

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired)

			r.Route("/payroll", func(r chi.Router) {
				r.Get("/", payrollHandler.Compute)
				r.With(middleware.RequireManager).Get("/team", payrollHandler.Team)
			})

			r.Route("/reports", func(r chi.Router) {
				r.Use(middleware.RequirePermission(user.PermissionTimeEntryViewOwn))
				r.Get("/hours", reportHandler.Hours)
			})
		})
	})
	return r
}
