package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/gorilla/securecookie"

	"github.com/socialauth-portfolio/liveconnect/internal/hotmail"
	"github.com/socialauth-portfolio/liveconnect/internal/socialauth"
)

const sessionCookieName = "_liveconnect_session"

type appConfig struct {
	ListenAddr    string        `env:"CONNECT_LISTEN_ADDR" envDefault:":8100"`
	CallbackURL   string        `env:"CONNECT_CALLBACK_URL" envDefault:"http://localhost:8100/callback"`
	SessionSecret string        `env:"CONNECT_SESSION_SECRET,required"`
	Permission    string        `env:"CONNECT_PERMISSION" envDefault:"default"`
	FixturePath   string        `env:"CONNECT_FIXTURE_PATH"`
	HTTPTimeout   time.Duration `env:"CONNECT_HTTP_TIMEOUT" envDefault:"15s"`
}

// providerFactory resumes a provider from a session carried in the cookie.
type providerFactory func(session socialauth.Session) (socialauth.Provider, error)

type app struct {
	cfg          appConfig
	logger       *slog.Logger
	permission   socialauth.Permission
	secureCookie *securecookie.SecureCookie
	newProvider  providerFactory
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := loadConfig()
	if err != nil {
		logger.Error("connect configuration error", "error", err)
		os.Exit(1)
	}

	factory, err := buildFactory(cfg, logger)
	if err != nil {
		logger.Error("failed to initialise provider", "error", err)
		os.Exit(1)
	}

	application, err := newApp(cfg, logger, factory)
	if err != nil {
		logger.Error("failed to initialise connect", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      application.routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("connect listening", "addr", srv.Addr, "callback", cfg.CallbackURL, "fixture", cfg.FixturePath != "")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Error("connect server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("connect clean shutdown failed", "error", err)
	}
}

func loadConfig() (appConfig, error) {
	var cfg appConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	cfg.CallbackURL = strings.TrimSpace(cfg.CallbackURL)
	if cfg.CallbackURL == "" {
		return cfg, errors.New("CONNECT_CALLBACK_URL is required")
	}
	if len(cfg.SessionSecret) < 32 {
		return cfg, errors.New("CONNECT_SESSION_SECRET must be at least 32 bytes")
	}
	return cfg, nil
}

// buildFactory serves canned data when a fixture is configured and talks to
// Windows Live otherwise.
func buildFactory(cfg appConfig, logger *slog.Logger) (providerFactory, error) {
	if cfg.FixturePath != "" {
		data, err := os.ReadFile(cfg.FixturePath)
		if err != nil {
			return nil, fmt.Errorf("read fixture: %w", err)
		}
		fixture, err := socialauth.LoadFixture(data)
		if err != nil {
			return nil, err
		}
		return func(s socialauth.Session) (socialauth.Provider, error) {
			return fixture.NewProvider(s), nil
		}, nil
	}

	liveCfg, err := hotmail.LoadConfig()
	if err != nil {
		return nil, err
	}
	client := &http.Client{Timeout: cfg.HTTPTimeout}
	return func(s socialauth.Session) (socialauth.Provider, error) {
		return hotmail.New(liveCfg,
			hotmail.WithHTTPClient(client),
			hotmail.WithLogger(logger.With("provider", "hotmail")),
			hotmail.WithSession(s),
		)
	}, nil
}

func newApp(cfg appConfig, logger *slog.Logger, factory providerFactory) (*app, error) {
	perm, err := socialauth.ParsePermission(cfg.Permission)
	if err != nil {
		return nil, err
	}

	hashKey := []byte(cfg.SessionSecret)
	blockKey := hashKey
	if len(blockKey) > 32 {
		blockKey = blockKey[:32]
	}
	secure := securecookie.New(hashKey, blockKey)
	secure.SetSerializer(securecookie.JSONEncoder{})

	return &app{
		cfg:          cfg,
		logger:       logger,
		permission:   perm,
		secureCookie: secure,
		newProvider:  factory,
	}, nil
}

func (a *app) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.Handle("GET /login", a.withProvider(a.handleLogin))
	mux.Handle("GET /callback", a.withProvider(a.handleCallback))
	mux.Handle("GET /profile", a.withProvider(a.handleProfile))
	mux.Handle("GET /contacts", a.withProvider(a.handleContacts))
	mux.Handle("POST /status", a.withProvider(a.handleStatus))
	mux.Handle("GET /logout", a.withProvider(a.handleLogout))
	return loggingMiddleware(a.logger)(recoveryHandler(mux))
}

func (a *app) handleLogin(w http.ResponseWriter, r *http.Request, p socialauth.Provider) {
	p.Logout()
	p.SetPermission(a.permission)
	authURL, err := p.LoginRedirectURL(a.cfg.CallbackURL)
	if err != nil {
		a.fail(w, err)
		return
	}
	if err := a.setSessionCookie(w, p.Session()); err != nil {
		writeError(w, http.StatusInternalServerError, errors.New("failed to set session"))
		return
	}
	http.Redirect(w, r, authURL, http.StatusFound)
}

func (a *app) handleCallback(w http.ResponseWriter, r *http.Request, p socialauth.Provider) {
	ctx, cancel := context.WithTimeout(r.Context(), a.cfg.HTTPTimeout)
	defer cancel()

	profile, err := p.VerifyResponse(ctx, r.URL.Query())
	if err != nil {
		a.fail(w, err)
		return
	}
	if err := a.setSessionCookie(w, p.Session()); err != nil {
		writeError(w, http.StatusInternalServerError, errors.New("failed to set session"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"provider": p.Name(), "profile": profile})
}

func (a *app) handleProfile(w http.ResponseWriter, r *http.Request, p socialauth.Provider) {
	ctx, cancel := context.WithTimeout(r.Context(), a.cfg.HTTPTimeout)
	defer cancel()

	profile, err := p.UserProfile(ctx)
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"provider": p.Name(), "profile": profile})
}

func (a *app) handleContacts(w http.ResponseWriter, r *http.Request, p socialauth.Provider) {
	ctx, cancel := context.WithTimeout(r.Context(), a.cfg.HTTPTimeout)
	defer cancel()

	contacts, err := p.ContactList(ctx)
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"provider":    p.Name(),
		"resultCount": len(contacts),
		"contacts":    contacts,
	})
}

func (a *app) handleStatus(w http.ResponseWriter, r *http.Request, p socialauth.Provider) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid form"))
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), a.cfg.HTTPTimeout)
	defer cancel()

	if err := p.UpdateStatus(ctx, r.PostForm.Get("message")); err != nil {
		a.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *app) handleLogout(w http.ResponseWriter, r *http.Request, p socialauth.Provider) {
	p.Logout()
	http.SetCookie(w, &http.Cookie{Name: sessionCookieName, Value: "", Path: "/", Expires: time.Unix(0, 0), MaxAge: -1})
	writeJSON(w, http.StatusOK, map[string]string{"state": p.Session().State().String()})
}

// withProvider resumes the provider from the session cookie. A missing or
// unreadable cookie starts from an empty session.
func (a *app) withProvider(next func(http.ResponseWriter, *http.Request, socialauth.Provider)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := a.sessionFromCookie(r)
		if err != nil {
			session = socialauth.Session{Permission: a.permission}
		}
		p, err := a.newProvider(session)
		if err != nil {
			a.fail(w, err)
			return
		}
		next(w, r, p)
	})
}

func (a *app) sessionFromCookie(r *http.Request) (socialauth.Session, error) {
	var session socialauth.Session
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return session, err
	}
	if err := a.secureCookie.Decode("session", cookie.Value, &session); err != nil {
		return session, err
	}
	return session, nil
}

func (a *app) setSessionCookie(w http.ResponseWriter, session socialauth.Session) error {
	encoded, err := a.secureCookie.Encode("session", session)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    encoded,
		Path:     "/",
		HttpOnly: true,
		Secure:   false,
		Expires:  time.Now().Add(8 * time.Hour),
	})
	return nil
}

func (a *app) fail(w http.ResponseWriter, err error) {
	status := errorStatus(err)
	if status >= http.StatusInternalServerError {
		a.logger.Error("provider call failed", "error", err, "status", status)
	}
	writeError(w, status, err)
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, socialauth.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, socialauth.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, socialauth.ErrInvalidProviderState),
		errors.Is(err, socialauth.ErrInvalidResponse),
		errors.Is(err, socialauth.ErrEmptyStatus):
		return http.StatusBadRequest
	case errors.Is(err, socialauth.ErrMalformedResponse),
		errors.Is(err, socialauth.ErrMissingCredentials),
		errors.Is(err, socialauth.ErrProfileFetch),
		errors.Is(err, socialauth.ErrContactFetch):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	_ = encoder.Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	payload := map[string]string{"error": err.Error()}
	writeJSON(w, status, payload)
}

func loggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rr := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(rr, r)
			logger.Info("request complete",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rr.status,
				"remote", r.RemoteAddr,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}

func recoveryHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				writeError(w, http.StatusInternalServerError, fmt.Errorf("panic: %v", rec))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (rr *responseRecorder) WriteHeader(code int) {
	rr.status = code
	rr.ResponseWriter.WriteHeader(code)
}
