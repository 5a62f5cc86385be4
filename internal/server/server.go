package server

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/AlexTLDR/intltel/internal/config"
	"github.com/AlexTLDR/intltel/internal/database"
	"github.com/AlexTLDR/intltel/internal/logger"
	"github.com/AlexTLDR/intltel/internal/phone"
	"github.com/AlexTLDR/intltel/internal/server/handlers"
	"github.com/gorilla/sessions"
)

type Server struct {
	config       *config.Config
	db           *database.DB
	registry     *phone.Registry
	normalizer   *phone.Normalizer
	sessionStore *sessions.CookieStore
	router       *http.ServeMux
}

// GetDB implements handlers.Server interface
func (s *Server) GetDB() *database.DB {
	return s.db
}

// GetConfig implements handlers.Server interface
func (s *Server) GetConfig() *config.Config {
	return s.config
}

// GetRegistry implements handlers.Server interface
func (s *Server) GetRegistry() *phone.Registry {
	return s.registry
}

// GetNormalizer implements handlers.Server interface
func (s *Server) GetNormalizer() *phone.Normalizer {
	return s.normalizer
}

// GetSessionStore implements handlers.Server interface
func (s *Server) GetSessionStore() sessions.Store {
	return s.sessionStore
}

// GetCurrentUser implements handlers.AdminServer interface
func (s *Server) GetCurrentUser(r *http.Request) (string, string) {
	session, _ := s.sessionStore.Get(r, "auth-session")
	email, _ := session.Values["email"].(string)
	name, _ := session.Values["name"].(string)
	return email, name
}

// New wires the server. Placeholders are derived once for the whole registry.
func New(cfg *config.Config, db *database.DB, registry *phone.Registry, normalizer *phone.Normalizer) *Server {
	if cfg.Phone.EnablePlaceholder {
		registry = registry.WithPlaceholders(normalizer.Deriver())
	}

	store := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	store.Options.HttpOnly = true
	store.Options.SameSite = http.SameSiteLaxMode
	store.Options.Secure = cfg.IsProduction()

	s := &Server{
		config:       cfg,
		db:           db,
		registry:     registry,
		normalizer:   normalizer,
		sessionStore: store,
		router:       http.NewServeMux(),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	// Public routes
	s.router.HandleFunc("GET /{$}", handlers.HandleHome(s))
	s.router.HandleFunc("POST /submit", handlers.HandleSubmit(s))

	// Phone widget API
	s.router.HandleFunc("GET /api/countries", handlers.HandleCountries(s))
	s.router.HandleFunc("POST /api/phone/country", handlers.HandlePhoneCountry(s))
	s.router.HandleFunc("POST /api/phone/input", handlers.HandlePhoneInput(s))
	s.router.HandleFunc("POST /api/phone/key", handlers.HandlePhoneKey(s))
	s.router.HandleFunc("POST /api/phone/focus", handlers.HandlePhoneFocus(s))

	// Auth routes
	s.router.HandleFunc("/auth/google", s.handleGoogleLogin)
	s.router.HandleFunc("/auth/google/callback", s.handleGoogleCallback)
	s.router.HandleFunc("/auth/logout", s.handleLogout)

	// Admin routes (protected)
	s.router.HandleFunc("GET /admin", s.requireAuth(handlers.HandleAdminDashboard(s)))
	s.router.HandleFunc("GET /admin/submissions", s.requireAuth(handlers.HandleAdminSubmissions(s)))
	s.router.HandleFunc("GET /admin/submissions.csv", s.requireAuth(handlers.HandleAdminDownloadCSV(s)))
	s.router.HandleFunc("POST /admin/submissions/delete", s.requireAuth(handlers.HandleAdminDeleteSubmission(s)))
}

// Handler returns the routes wrapped in request logging.
func (s *Server) Handler() http.Handler {
	return logRequests(s.router)
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// requireAuth is a middleware that checks if user is authenticated
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, _ := s.sessionStore.Get(r, "auth-session")

		email, ok := session.Values["email"].(string)
		if !ok || email == "" {
			http.Redirect(w, r, "/auth/google", http.StatusSeeOther)
			return
		}

		// Check if email is in whitelist
		if !s.isAdminEmail(email) {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		next(w, r)
	}
}

func (s *Server) isAdminEmail(email string) bool {
	return slices.Contains(s.config.AdminEmails, strings.ToLower(email))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func logRequests(next http.Handler) http.Handler {
	log := logger.Component("http")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}
