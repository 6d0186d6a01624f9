package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/saadjs/fitflow/internal/metrics"
	"github.com/saadjs/fitflow/internal/service"
)

type Options struct {
	AllowedOrigins []string
	Logger         *log.Logger
	// Now is the clock used for "today"; defaults to time.Now.
	Now func() time.Time
}

// Server exposes read-only dashboard data over HTTP.
type Server struct {
	db      *sql.DB
	logger  *log.Logger
	now     func() time.Time
	handler http.Handler
}

func NewServer(db *sql.DB, opts Options) *Server {
	registerMetrics()
	s := &Server{db: db, logger: opts.Logger, now: opts.Now}
	if s.logger == nil {
		s.logger = log.New(os.Stderr, "fitflow ", log.LstdFlags)
	}
	if s.now == nil {
		s.now = time.Now
	}

	r := mux.NewRouter()
	r.Use(requestIDMiddleware, loggingMiddleware(s.logger))
	r.HandleFunc("/healthz", s.health).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/targets", s.targets).Methods(http.MethodGet)
	api.HandleFunc("/today", s.today).Methods(http.MethodGet)
	api.HandleFunc("/metrics", s.vitals).Methods(http.MethodGet)
	api.HandleFunc("/completion", s.completion).Methods(http.MethodGet)
	api.HandleFunc("/wellness", s.wellness).Methods(http.MethodGet)

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{RequestIDHeader},
	})
	s.handler = c.Handler(r)
	return s
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Printf("listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if err := s.db.PingContext(r.Context()); err != nil {
		s.writeError(w, r, http.StatusServiceUnavailable, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) targets(w http.ResponseWriter, r *http.Request) {
	targets, profile, err := service.ProfileTargets(s.db)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"has_profile": profile != nil,
		"targets":     targets,
	})
}

func (s *Server) today(w http.ResponseWriter, r *http.Request) {
	day := s.now()
	if v := r.URL.Query().Get("date"); v != "" {
		parsed, err := time.ParseInLocation(metrics.DateLayout, v, time.Local)
		if err != nil {
			s.writeError(w, r, http.StatusBadRequest, errors.New("date must be YYYY-MM-DD"))
			return
		}
		day = parsed
	}
	summary, err := service.TodaySummary(s.db, day)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) vitals(w http.ResponseWriter, r *http.Request) {
	rng, err := service.ParseWindowRange(r.URL.Query().Get("range"))
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	report, err := service.VitalsRange(s.db, rng, s.now())
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) completion(w http.ResponseWriter, r *http.Request) {
	mode, err := service.ParseBucketMode(r.URL.Query().Get("mode"))
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	report, err := service.WorkoutCompletion(s.db, mode, s.now())
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) wellness(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	field, err := service.ParseWellnessField(q.Get("type"))
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	rng, err := service.ParseWindowRange(q.Get("range"))
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	report, err := service.Wellness(s.db, field, rng, s.now())
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Printf("error id=%s: %v", RequestID(r.Context()), err)
	}
	writeJSON(w, status, map[string]string{
		"error":      err.Error(),
		"request_id": RequestID(r.Context()),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
