package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/scidsg/hushline/internal/api/handler"
	mw "github.com/scidsg/hushline/internal/api/middleware"
	"github.com/scidsg/hushline/internal/api/response"
	"github.com/scidsg/hushline/internal/config"
	"github.com/scidsg/hushline/internal/core"
	"github.com/scidsg/hushline/internal/web"
)

// maxBodyBytes bounds every request body before forms are parsed.
const maxBodyBytes = 256 << 10

// Pinger reports database reachability for /readyz.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	router   chi.Router
	logger   zerolog.Logger
	services *core.Services
	db       Pinger
	pages    handler.Pages
	cfg      *config.Config
}

func NewServer(logger zerolog.Logger, db Pinger, services *core.Services, pages handler.Pages, cfg *config.Config) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		logger:   logger,
		services: services,
		db:       db,
		pages:    pages,
		cfg:      cfg,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(mw.RequestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(mw.Metrics)
	s.router.Use(mw.SecureHeaders)
	s.router.Use(middleware.RequestSize(maxBodyBytes))
	s.router.Use(mw.Session(s.services.Auth, mw.CookieName(s.cfg.CookieSecure)))
}

func (s *Server) setupRoutes() {
	// Prometheus metrics endpoint
	s.router.Handle("/metrics", promhttp.Handler())

	// Health check endpoints
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Get("/readyz", s.handleReadyz)

	s.router.Handle("/static/*", http.StripPrefix("/static/", web.Static()))

	flash := response.Flash{Secure: s.cfg.CookieSecure}
	cookie := handler.SessionCookie{
		Name:   mw.CookieName(s.cfg.CookieSecure),
		Secure: s.cfg.CookieSecure,
		TTL:    s.cfg.SessionTTL,
	}

	auth := handler.NewAuth(s.services.Auth, s.pages, cookie, flash)
	s.router.Get("/login", auth.LoginForm)
	s.router.Post("/login", auth.Login)

	s.router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/settings/encryption", http.StatusSeeOther)
	})

	// Public submission form
	message := handler.NewMessage(s.services.User, s.services.Message, s.pages, s.services.Auth, flash)
	s.router.Get("/to/{username}", message.Form)
	s.router.Post("/to/{username}", message.Submit)

	s.router.Group(func(r chi.Router) {
		r.Use(mw.RequireSession)
		r.Use(mw.CSRF(s.services.Auth))

		r.Post("/logout", auth.Logout)

		// Email & Encryption settings
		settings := handler.NewSettings(s.services.Settings, s.pages, s.services.Auth, flash)
		r.Get("/settings/encryption", settings.Show)
		r.Post("/settings/encryption/forwarding", settings.UpdateForwarding)
		r.Post("/settings/encryption/pgp", settings.UpdatePGPKey)
		r.Post("/settings/encryption/proton", settings.ImportProtonKey)
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	response.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := map[string]string{}
	status := http.StatusOK

	if err := s.db.Ping(ctx); err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("readiness check failed")
		checks["db"] = "unavailable"
		status = http.StatusServiceUnavailable
	} else {
		checks["db"] = "ok"
	}

	response.WriteJSON(w, status, checks)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
