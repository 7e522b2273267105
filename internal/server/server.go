// Package server provides the HTTP status endpoint of the daemon.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/asteroid-belt/gitquest/internal/db"
	"github.com/asteroid-belt/gitquest/internal/engine"
	"github.com/asteroid-belt/gitquest/internal/github"
	"github.com/asteroid-belt/gitquest/internal/log"
	"github.com/asteroid-belt/gitquest/pkg/version"
)

// shutdownTimeout bounds graceful shutdown.
const shutdownTimeout = 10 * time.Second

// Server serves health, metrics and read models over HTTP.
type Server struct {
	engine *engine.Engine
	db     *db.DB
	addr   string
}

// New creates a status server listening on addr.
func New(e *engine.Engine, database *db.DB, addr string) *Server {
	return &Server{engine: e, db: database, addr: addr}
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", s.health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/version", s.version)
		r.Get("/status", s.status)
		r.With(subjectParam).Get("/profile/{subject}", s.profile)
		r.With(subjectParam).Get("/stats/{subject}", s.stats)
		r.With(subjectParam).Get("/ledger/{subject}", s.ledger)
		r.With(subjectParam).Get("/ratelimit/{subject}", s.rateLimit)
		r.With(subjectParam).Post("/sync/{subject}", s.sync)
	})
	return r
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.addr).Msg("status server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		log.Info().Msg("status server stopped")
		return nil
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(); err != nil {
		respondError(w, http.StatusServiceUnavailable, "database unavailable", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// status reports row counts of the store and the subjects it tracks.
func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	counts, err := s.db.GetStats()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to count rows", err)
		return
	}
	subjects, err := s.db.ListSubjects()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list subjects", err)
		return
	}
	if subjects == nil {
		subjects = []string{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"driver":   s.db.Driver(),
		"counts":   counts,
		"subjects": subjects,
	})
}

func (s *Server) version(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"version":    version.Short(),
		"commit":     version.Commit,
		"build_date": version.BuildDate,
		"prerelease": version.IsPrerelease(),
		"dev_build":  version.IsDevBuild(),
	}
	if sv, ok := version.Components(); ok {
		body["semver"] = sv
	}
	respondJSON(w, http.StatusOK, body)
}

func (s *Server) profile(w http.ResponseWriter, r *http.Request) {
	resp, err := s.engine.Profile(r.Context(), subjectFrom(r))
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	resp, err := s.engine.Stats(r.Context(), subjectFrom(r))
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) ledger(w http.ResponseWriter, r *http.Request) {
	report, err := s.engine.VerifyLedger(subjectFrom(r))
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

func (s *Server) rateLimit(w http.ResponseWriter, r *http.Request) {
	info, err := s.engine.RateLimitStatus(subjectFrom(r))
	if err != nil {
		respondEngineError(w, err)
		return
	}
	if info == nil {
		respondError(w, http.StatusNotFound, "no rate limit recorded", nil)
		return
	}
	respondJSON(w, http.StatusOK, info)
}

// sync runs a cycle in reject mode. The cycle outlives the request once the
// fetch returned, so a client disconnect never leaves a half-applied sync.
func (s *Server) sync(w http.ResponseWriter, r *http.Request) {
	res, err := s.engine.TrySync(r.Context(), subjectFrom(r))
	if err != nil && res == nil {
		respondEngineError(w, err)
		return
	}
	status := http.StatusOK
	if err != nil {
		status = statusFor(err)
	}
	respondJSON(w, status, res)
}

type subjectKey struct{}

var validate = validator.New()

func init() {
	_ = validate.RegisterValidation("github_login", func(fl validator.FieldLevel) bool {
		return github.ValidLogin(fl.Field().String())
	})
}

// subjectParam rejects path subjects that are not GitHub logins.
func subjectParam(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject := chi.URLParam(r, "subject")
		if err := validate.Var(subject, "required,max=39,github_login"); err != nil {
			respondError(w, http.StatusBadRequest, "invalid subject", nil)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), subjectKey{}, subject)))
	})
}

func subjectFrom(r *http.Request) string {
	s, _ := r.Context().Value(subjectKey{}).(string)
	return s
}

func statusFor(err error) int {
	if errors.Is(err, engine.ErrSyncInProgress) {
		return http.StatusConflict
	}
	switch engine.KindOf(err) {
	case engine.KindCredentialInvalid:
		return http.StatusUnauthorized
	case engine.KindRateLimited:
		return http.StatusTooManyRequests
	case engine.KindNetworkUnavailable, engine.KindPartialData:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func respondEngineError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	var logErr error
	if status >= http.StatusInternalServerError {
		logErr = err
	}
	respondError(w, status, err.Error(), logErr)
}

type errorBody struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		log.Debug().Err(err).Msg("failed to write JSON response")
	}
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	if err != nil {
		log.Error().Err(err).Int("status", status).Msg("api error")
	}
	respondJSON(w, status, errorBody{Error: message})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Str("request_id", chimiddleware.GetReqID(r.Context())).
			Msg("http request")
	})
}
