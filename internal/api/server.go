package api

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// WebhookPath is where Telegram delivers updates in webhook mode. The last
// path segment must be the configured secret.
const WebhookPath = "/telegram/webhook"

// UpdateHandler receives webhook updates. *telegram.Bot implements it.
type UpdateHandler interface {
	HandleWebhook(update tgbotapi.Update)
}

// Stats reports live counters for /healthz.
type Stats interface {
	Handled() int64
}

// Server is the operations HTTP server: health, metrics and, in webhook
// mode, the Telegram webhook.
type Server struct {
	logger  *logrus.Logger
	mux     *http.ServeMux
	updates UpdateHandler
	secret  string
	stats   Stats
	started time.Time
}

// NewServer creates a Server and registers its routes. updates may be nil
// when the bot polls for updates; otherwise webhookSecret must be set.
func NewServer(logger *logrus.Logger, stats Stats, updates UpdateHandler, webhookSecret string) *Server {
	s := &Server{
		logger:  logger,
		mux:     http.NewServeMux(),
		updates: updates,
		secret:  webhookSecret,
		stats:   stats,
		started: time.Now(),
	}
	s.routes()
	return s
}

// Handler returns the http.Handler that can be passed to http.Server.
func (s *Server) Handler() http.Handler {
	return s.logRequests(s.mux)
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.Handle("GET /metrics", promhttp.Handler())
	if s.updates != nil && s.secret != "" {
		s.mux.HandleFunc("POST "+WebhookPath+"/{secret}", s.handleWebhook)
	}
}

// ---------------------------------------------------------------------------
// Handlers
// ---------------------------------------------------------------------------

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("verbose") == "" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
		return
	}

	status := map[string]any{
		"status": "ok",
		"uptime": time.Since(s.started).Round(time.Second).String(),
	}
	if s.stats != nil {
		status["updates_handled"] = s.stats.Handled()
	}
	s.respondJSON(w, http.StatusOK, status)
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if subtle.ConstantTimeCompare([]byte(r.PathValue("secret")), []byte(s.secret)) != 1 {
		s.logger.WithField("remote_addr", r.RemoteAddr).Warn("Rejected webhook call with a wrong secret")
		http.NotFound(w, r)
		return
	}

	var update tgbotapi.Update
	if ok, errMsg := s.decodeJSON(r, &update); !ok {
		s.respondError(w, http.StatusBadRequest, errMsg)
		return
	}
	s.updates.HandleWebhook(update)
	w.WriteHeader(http.StatusOK)
}

// ---------------------------------------------------------------------------
// Middleware & JSON helpers
// ---------------------------------------------------------------------------

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		s.logger.WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rec.status,
			"duration_ms": time.Since(start).Milliseconds(),
			"request_id":  requestID,
		}).Debug("HTTP request")
	})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			s.logger.WithError(err).Error("failed to encode JSON response")
		}
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

// decodeJSON reads the request body into dst and returns an error message on
// failure.  The caller should return immediately when ok == false.
func (s *Server) decodeJSON(r *http.Request, dst any) (ok bool, errMsg string) {
	if r.Body == nil {
		return false, "request body is empty"
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return false, fmt.Sprintf("invalid JSON: %v", err)
	}
	return true, ""
}
