package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/uandi/couples-api/internal/application/pairing"
	"github.com/uandi/couples-api/internal/application/session"
	"github.com/uandi/couples-api/internal/config"
	"github.com/uandi/couples-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/uandi/couples-api/internal/infrastructure/jwt"
	"github.com/uandi/couples-api/internal/infrastructure/smtp"
	"github.com/uandi/couples-api/internal/transport/http/handler"
	appmiddleware "github.com/uandi/couples-api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	AccountRepo *dynamo.AccountRepo
	CoupleRepo  *dynamo.CoupleRepo
	PairingRepo *dynamo.PairingRepo
	Mailer      smtp.Mailer
	JWTProvider *jwtinfra.Provider
}

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	var authMw func(http.Handler) http.Handler
	if deps.JWTProvider != nil {
		authMw = appmiddleware.Auth(deps.JWTProvider)
	} else {
		authMw = func(next http.Handler) http.Handler { return next }
	}

	// 5 requests/second, burst of 10 — applied to the sensitive public endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	pairingSvc := pairing.NewService(pairing.ServiceDeps{
		AccountRepo:     deps.AccountRepo,
		CoupleRepo:      deps.CoupleRepo,
		PairingRepo:     deps.PairingRepo,
		Mailer:          deps.Mailer,
		AppURL:          cfg.AppURL,
		VerificationTTL: cfg.VerificationTTL,
	})
	sessionSvc := session.NewService(session.ServiceDeps{
		AccountRepo: deps.AccountRepo,
		JWTProvider: deps.JWTProvider,
	})

	healthH := handler.NewHealthHandler()
	registrationH := handler.NewRegistrationHandler(pairingSvc)
	verificationH := handler.NewVerificationHandler(pairingSvc)
	sessionH := handler.NewSessionHandler(sessionSvc)

	r.Route("/api", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.Post("/health-check/{action}", healthH.Ping)
		r.Get("/test", healthH.Test)
		r.Post("/test", healthH.Test)

		r.With(sensitiveRL.Limit).Post("/register", registrationH.Register)
		// PUT matches the original API client; GET serves the emailed link directly.
		r.With(sensitiveRL.Limit).Put("/verify", verificationH.Verify)
		r.With(sensitiveRL.Limit).Get("/verify", verificationH.Verify)
		r.With(sensitiveRL.Limit).Post("/login", sessionH.Login)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/me", sessionH.Me)
		})
	})

	return r
}
