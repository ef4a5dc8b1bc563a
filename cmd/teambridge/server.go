package main

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"teambridge/internal/constants"
	"teambridge/internal/database"
	"teambridge/internal/httputil"
	"teambridge/internal/metrics"
	"teambridge/internal/middleware"
	"teambridge/internal/models"
	"teambridge/internal/queue"
	"teambridge/internal/service"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

type Server struct {
	router     *mux.Router
	logger     *logrus.Logger
	settings   *service.Settings
	dispatcher *service.Dispatcher
	queue      *queue.OfflineQueue
	history    *database.Database
	reload     func(ctx context.Context) error
	server     *http.Server
}

func NewServer(settings *service.Settings, dispatcher *service.Dispatcher, q *queue.OfflineQueue, history *database.Database, reload func(ctx context.Context) error, logger *logrus.Logger) *Server {
	s := &Server{
		router:     mux.NewRouter(),
		logger:     logger,
		settings:   settings,
		dispatcher: dispatcher,
		queue:      q,
		history:    history,
		reload:     reload,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.ObservabilityMiddleware(s.logger))

	// The action endpoint answers non-POST methods itself to keep the
	// plain-text 405 body stable for existing callers.
	s.router.HandleFunc("/action", s.handleAction())

	s.router.HandleFunc("/health", s.handleHealth()).Methods(http.MethodGet)
	s.router.HandleFunc("/metrics", s.handleMetrics()).Methods(http.MethodGet)

	admin := s.router.PathPrefix("/admin").Subrouter()
	admin.Use(s.requireAuth)
	admin.HandleFunc("/reload", s.handleReload()).Methods(http.MethodPost)
	admin.HandleFunc("/debug", s.handleDebug()).Methods(http.MethodPost)
	admin.HandleFunc("/history", s.handleHistory()).Methods(http.MethodGet)
	admin.HandleFunc("/queue", s.handleQueue()).Methods(http.MethodGet)
}

func (s *Server) Start() error {
	cfg := s.settings.Get()

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.ListenAddr, cfg.Server.ListenPort),
		Handler:      s.router,
		ReadTimeout:  constants.DefaultReadTimeoutSec * time.Second,
		WriteTimeout: constants.DefaultWriteTimeoutSec * time.Second,
		IdleTimeout:  constants.DefaultIdleTimeoutSec * time.Second,
	}

	s.logger.Infof("Starting server on %s", s.server.Addr)
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleAction() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.WithField("panic", rec).Error("Panic while handling action request")
				s.writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
					"ok":    false,
					"error": "internal_error",
				})
			}
		}()

		if r.Method != http.MethodPost {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}

		fields, err := parseFormBody(r)
		if err != nil {
			s.logger.WithError(err).Warn("Failed to read action request body")
			s.writeJSON(w, http.StatusBadRequest, map[string]interface{}{
				"ok":    false,
				"error": "missing_fields",
			})
			return
		}

		req := models.ActionRequest{
			PlayerName: strings.TrimSpace(fields["playerName"]),
			Streamer:   strings.TrimSpace(fields["streamer"]),
			Action:     models.ParseActionType(fields["action"]),
			Token:      fields["token"],
		}

		if !s.tokenValid(req.Token) {
			s.logger.WithField("client_ip", httputil.GetClientIP(r)).Warn("Rejected action request with invalid token")
			metrics.IncrementCounter("action_auth_failures_total", nil, "Action requests rejected for bad tokens")
			s.writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
				"ok":    false,
				"error": "invalid_token",
			})
			return
		}

		if req.PlayerName == "" || req.Streamer == "" {
			s.writeJSON(w, http.StatusBadRequest, map[string]interface{}{
				"ok":    false,
				"error": "missing_fields",
			})
			return
		}

		if req.PlayerName == constants.SentinelPlayerName && req.Streamer == constants.SentinelStreamer {
			s.logger.Info("Web platform connectivity test received")
			s.dispatcher.Broadcast("Team bridge connectivity test successful")
			s.writeJSON(w, http.StatusOK, map[string]interface{}{
				"ok":      true,
				"message": "Test connection successful",
			})
			return
		}

		log := s.logger.WithFields(logrus.Fields{
			"player":   req.PlayerName,
			"streamer": req.Streamer,
			"action":   req.Action,
		})

		if s.dispatcher.Online(req.PlayerName) {
			// Replay anything queued for them first so effects land in
			// arrival order.
			if n := s.queue.ReplayForPlayer(req.PlayerName, s.dispatcher.ApplyQueued); n > 0 {
				log.WithField("replayed", n).Info("Replayed queued actions before dispatch")
			}
			s.dispatcher.Apply(req.PlayerName, req.Streamer, req.Action)
			log.Info("Dispatched action for online player")
			s.writeJSON(w, http.StatusOK, map[string]interface{}{
				"ok":      true,
				"applied": true,
				"queued":  false,
			})
			return
		}

		s.queue.Enqueue(req.PlayerName, req.Streamer, req.Action)
		log.Info("Player offline, action queued")
		s.writeJSON(w, http.StatusOK, map[string]interface{}{
			"ok":      true,
			"applied": false,
			"queued":  true,
		})
	}
}

func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":  "ok",
			"pending": s.dispatcher.PendingCount(),
			"queued":  s.queue.Len(),
		})
	}
}

func (s *Server) handleReload() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.reload(r.Context()); err != nil {
			s.logger.WithError(err).Error("Configuration reload failed")
			s.writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
				"ok":    false,
				"error": "reload_failed",
			})
			return
		}

		s.logger.Info("Configuration reloaded")
		s.writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true})
	}
}

func (s *Server) handleDebug() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		debug := s.logger.GetLevel() != logrus.DebugLevel
		if debug {
			s.logger.SetLevel(logrus.DebugLevel)
		} else {
			s.logger.SetLevel(logrus.InfoLevel)
		}

		s.logger.WithField("debug", debug).Info("Debug logging toggled")
		s.writeJSON(w, http.StatusOK, map[string]interface{}{
			"ok":    true,
			"debug": debug,
		})
	}
}

func (s *Server) handleHistory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.history == nil {
			s.writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
				"ok":    false,
				"error": "history_unavailable",
			})
			return
		}

		limit := 50
		if raw := r.URL.Query().Get("limit"); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil && n > 0 {
				limit = n
			}
		}

		records, err := s.history.ListRecent(r.Context(), limit)
		if err != nil {
			s.logger.WithError(err).Error("Failed to list dispatch history")
			s.writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
				"ok":    false,
				"error": "internal_error",
			})
			return
		}

		s.writeJSON(w, http.StatusOK, map[string]interface{}{
			"ok":      true,
			"records": records,
		})
	}
}

func (s *Server) handleQueue() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, http.StatusOK, map[string]interface{}{
			"ok":      true,
			"actions": s.queue.Snapshot(),
		})
	}
}

func (s *Server) handleMetrics() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")

		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(metrics.GetAllMetrics()); err != nil {
			s.logger.WithError(err).Error("Failed to encode metrics response")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
	}
}

// requireAuth guards the admin surface with the shared token, passed in the
// X-Auth-Token header.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.tokenValid(r.Header.Get("X-Auth-Token")) {
			s.logger.WithField("client_ip", httputil.GetClientIP(r)).Warn("Rejected admin request with invalid token")
			s.writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
				"ok":    false,
				"error": "invalid_token",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// tokenValid accepts any token when no shared secret is configured.
func (s *Server) tokenValid(token string) bool {
	expected := s.settings.Get().Server.AuthToken
	if expected == "" {
		return true
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(expected)) == 1
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.WithError(err).Error("Failed to encode response")
	}
}

// parseFormBody reads a form-encoded body leniently: malformed pairs are
// skipped rather than failing the whole request.
func parseFormBody(r *http.Request) (map[string]string, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}

	fields := make(map[string]string)
	for _, pair := range strings.Split(string(body), "&") {
		if pair == "" {
			continue
		}
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key, err := url.QueryUnescape(parts[0])
		if err != nil {
			continue
		}
		value, err := url.QueryUnescape(parts[1])
		if err != nil {
			continue
		}
		fields[key] = value
	}
	return fields, nil
}
