/*
This file defines the main Router, applying logging, CORS, session and CSRF
middleware and the per-IP limiter on credential forms before delegating to
the page handlers.
*/
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"profilelounge/internal/pkg/auth/jwt"
	"profilelounge/internal/pkg/errs"
	"profilelounge/internal/pkg/limiter"
	"profilelounge/internal/pkg/logx"
)

// Router sets up the HTTP routing table. The limiter's cleanup goroutine
// stops when ctx is cancelled.
func Router(ctx context.Context, deps *AppDeps) http.Handler {
	formLimiter := limiter.NewIPRateLimiter(ctx, rate.Limit(deps.Config.LoginRate), deps.Config.LoginBurst)
	formLimiter.OnLimited = func(w http.ResponseWriter, r *http.Request) {
		renderError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
	}

	r := chi.NewRouter()

	corsAllowedOrigins := []string{}
	if deps.Config.IsDevelopment() {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   corsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", CSRFHeader},
		ExposedHeaders:   []string{},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/health", HandleHealth(deps))

	r.Group(func(pages chi.Router) {
		pages.Use(jwt.SessionExtractorMiddleware(deps.Config.SessionSecret))
		pages.Use(SessionMiddleware(deps))
		pages.Use(CSRFMiddleware)

		pages.Get("/", HandleIndex(deps))

		pages.Get("/login", HandleLoginPage(deps))
		pages.With(formLimiter.Middleware).Post("/login", HandleLogin(deps))
		pages.Get("/register", HandleRegisterPage(deps))
		pages.With(formLimiter.Middleware).Post("/register", HandleRegister(deps))
		pages.Post("/logout", HandleLogout(deps))

		pages.Route("/dashboard", func(dash chi.Router) {
			dash.Get("/", HandleDashboard(deps))
			dash.Post("/profile", HandleSubmitProfile(deps))
			dash.Post("/profile/edit", HandleBeginEdit(deps))
			dash.Post("/profile/cancel", HandleCancelEdit(deps))
			dash.Post("/profile/image", HandleStageImage(deps))
		})

		pages.Get("/api/session", HandleSessionState(deps))
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		renderError(w, r, errs.NewError(errs.ErrNotFound))
	})

	return r
}
