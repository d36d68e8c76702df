package routes

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/Dosada05/hackathon-portal/docs"
	"github.com/Dosada05/hackathon-portal/handlers"
	"github.com/Dosada05/hackathon-portal/metrics"
	"github.com/Dosada05/hackathon-portal/middleware"
)

// Options configures the cross-cutting parts of the router.
type Options struct {
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	TokenParser    middleware.TokenParser
	AllowedOrigins []string
	// RateLimitPerMin limits /submit, /admin/login and /log_error per client
	// IP, each route counted separately. Zero disables the limit.
	RateLimitPerMin int
	// UploadDir is served under /uploads/ when set.
	UploadDir string
}

type Handlers struct {
	Page        *handlers.PageHandler
	Hackathon   *handlers.HackathonHandler
	Submission  *handlers.SubmissionHandler
	Participant *handlers.ParticipantHandler
	Team        *handlers.TeamHandler
	Winner      *handlers.WinnerHandler
	Admin       *handlers.AdminHandler
	Log         *handlers.LogHandler
	WebSocket   *handlers.WebSocketHandler
}

func SetupRoutes(router *chi.Mux, opts Options, h Handlers) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(middleware.RequestLogger(opts.Logger))
	router.Use(chiMiddleware.Recoverer)
	if opts.Metrics != nil {
		router.Use(opts.Metrics.Middleware)
	}
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	router.Use(middleware.Authenticate(opts.TokenParser))

	// Публичные маршруты
	router.Get("/", h.Page.Index)
	router.Get("/health", handlers.Health)
	router.Get("/hackathon-details", h.Hackathon.Details)
	router.Post("/verify_email", h.Submission.VerifyEmail)
	router.Get("/get_deadline", h.Submission.GetDeadline)
	router.Get("/submissions", h.Submission.List)
	router.Get("/winners", h.Winner.PublicList)
	router.Get("/ws/hackathons/{name}", h.WebSocket.ServeWs)
	router.With(rateLimiter(opts.RateLimitPerMin)).Post("/submit", h.Submission.Submit)
	router.With(rateLimiter(opts.RateLimitPerMin)).Post("/log_error", h.Log.LogError)

	if opts.Metrics != nil {
		router.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}
	router.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
	if opts.UploadDir != "" {
		fs := http.StripPrefix("/uploads/", http.FileServer(http.Dir(opts.UploadDir)))
		router.Handle("/uploads/*", fs)
	}

	router.Route("/admin", func(r chi.Router) {
		r.With(rateLimiter(opts.RateLimitPerMin)).Post("/login", h.Admin.Login)

		// Только для администратора
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin)

			r.Get("/logout", h.Admin.Logout)
			r.Post("/logout", h.Admin.Logout)
			r.Post("/password", h.Admin.ChangePassword)
			r.Get("/dashboard", h.Admin.Dashboard)
			r.Post("/update", h.Admin.UpdateEvent)
			r.Get("/submissions", h.Submission.AdminList)
			r.Get("/logs", h.Log.RecentLogs)

			r.Route("/emails", func(r chi.Router) {
				r.Get("/", h.Participant.List)
				r.Post("/add", h.Participant.Add)
				r.Post("/update", h.Participant.UpdateEmail)
				r.Post("/delete", h.Participant.Delete)
				r.Post("/update-team", h.Participant.UpdateTeam)
				r.Post("/import", h.Participant.Import)
			})

			r.Route("/teams", func(r chi.Router) {
				r.Get("/", h.Team.List)
				r.Post("/add", h.Team.Add)
				r.Post("/update", h.Team.Update)
				r.Post("/delete", h.Team.Delete)
			})

			r.Route("/winners", func(r chi.Router) {
				r.Get("/", h.Winner.List)
				r.Post("/add", h.Winner.Add)
				r.Post("/update", h.Winner.Update)
				r.Post("/delete", h.Winner.Delete)
			})

			r.Route("/hackathons", func(r chi.Router) {
				r.Get("/", h.Hackathon.List)
				r.Post("/", h.Hackathon.Create)
				r.Get("/{name}", h.Hackathon.Get)
				r.Post("/{name}/activate", h.Hackathon.Activate)
				r.Post("/{name}/deactivate", h.Hackathon.Deactivate)
				r.Post("/{name}/end", h.Hackathon.End)
			})
		})
	})
}

func rateLimiter(perMinute int) func(http.Handler) http.Handler {
	if perMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(
		perMinute,
		time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"success":false,"message":"Too many requests, please try again later"}`))
		}),
	)
}
