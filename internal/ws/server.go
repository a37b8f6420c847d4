package ws

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/dude613/avoda-desktop/internal/capture"
	"github.com/dude613/avoda-desktop/internal/config"
	"github.com/dude613/avoda-desktop/internal/session"
	"github.com/gorilla/websocket"
)

type Server struct {
	config         *config.Config
	engine         *session.Engine
	store          *capture.Store
	broadcaster    *Broadcaster
	allowedOrigins map[string]bool
	allowedHosts   map[string]bool
	authToken      string
}

func NewServer(cfg *config.Config, engine *session.Engine, store *capture.Store, broadcaster *Broadcaster) *Server {
	s := &Server{
		config:         cfg,
		engine:         engine,
		store:          store,
		broadcaster:    broadcaster,
		allowedOrigins: make(map[string]bool),
		allowedHosts:   make(map[string]bool),
		authToken:      cfg.Server.AuthToken,
	}

	for _, origin := range cfg.Server.AllowedOrigins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		s.allowedOrigins[trimmed] = true
		if parsed, err := url.Parse(trimmed); err == nil && parsed.Host != "" {
			s.allowedHosts[parsed.Host] = true
		}
	}

	return s
}

func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/api/timer", s.handleTimer)
	mux.HandleFunc("/api/timer/", s.handleTimerRoutes)
	mux.HandleFunc("/api/activity", s.handleActivity)
	mux.HandleFunc("/api/screenshots", s.handleScreenshots)
	mux.HandleFunc("/api/screenshots/", s.handleScreenshotRoutes)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: s.checkOrigin,
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade error: %v", err)
		return
	}

	c, err := s.broadcaster.AddClient(conn, s.engine.Snapshot())
	if err != nil {
		log.Printf("ws client rejected: %v", err)
		conn.Close()
		return
	}
	log.Printf("WebSocket client connected: %s", r.RemoteAddr)

	go func() {
		defer func() {
			s.broadcaster.RemoveClient(c)
			log.Printf("WebSocket client disconnected: %s", r.RemoteAddr)
		}()
		for {
			_, _, err := conn.ReadMessage()
			if err != nil {
				return
			}
		}
	}()
}

func (s *Server) handleTimer(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.engine.Snapshot())
}

// handleTimerRoutes dispatches /api/timer/{action}: POST commands that
// drive the state machine and GET queries for individual fields.
func (s *Server) handleTimerRoutes(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	action := strings.TrimPrefix(r.URL.Path, "/api/timer/")
	if strings.Contains(action, "/") {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	switch action {
	case "start", "pause", "resume", "stop":
		s.handleCommand(w, r, action)
	case "status":
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(struct {
			Status session.Status `json:"status"`
		}{s.engine.Status()})
	case "elapsed":
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(struct {
			ElapsedSeconds int64 `json:"elapsedSeconds"`
		}{int64(s.engine.Elapsed().Seconds())})
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request, action string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var err error
	switch action {
	case "start":
		err = s.engine.Start()
	case "pause":
		err = s.engine.Pause()
	case "resume":
		err = s.engine.Resume()
	case "stop":
		err = s.engine.Stop()
	}

	if err != nil {
		if errors.Is(err, session.ErrInvalidTransition) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.engine.Activity())
}

func (s *Server) handleScreenshots(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	ids := s.store.IDs()
	if ids == nil {
		ids = []string{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ids)
}

func (s *Server) handleScreenshotRoutes(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	// Parse: /api/screenshots/{id}
	path := strings.TrimPrefix(r.URL.Path, "/api/screenshots/")
	parts := strings.SplitN(path, "/", 2)
	if len(parts) != 1 || parts[0] == "" {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	id, err := url.PathUnescape(parts[0])
	if err != nil {
		http.Error(w, "invalid screenshot id", http.StatusBadRequest)
		return
	}

	c, err := s.store.Get(id)
	if err != nil {
		if errors.Is(err, capture.ErrNotFound) {
			http.Error(w, "screenshot not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(c)
}

func (s *Server) authorize(r *http.Request) bool {
	if s.authToken == "" {
		return true
	}

	if r.URL.Query().Get("token") == s.authToken {
		return true
	}

	if r.Header.Get("X-Avoda-Token") == s.authToken {
		return true
	}

	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.authToken {
		return true
	}

	return false
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	if len(s.allowedOrigins) > 0 {
		if s.allowedOrigins[origin] {
			return true
		}
		if parsed, err := url.Parse(origin); err == nil && parsed.Host != "" {
			return s.allowedHosts[parsed.Host]
		}
		return false
	}

	parsed, err := url.Parse(origin)
	if err != nil {
		return false
	}

	host := parsed.Host
	if host == "" {
		return false
	}

	if host == r.Host {
		return true
	}

	if strings.HasPrefix(host, "localhost:") || host == "localhost" {
		return true
	}
	if strings.HasPrefix(host, "127.0.0.1:") || host == "127.0.0.1" {
		return true
	}
	if strings.HasPrefix(host, "[::1]:") || host == "::1" {
		return true
	}

	return false
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Content-Security-Policy", "default-src 'self'")
		next.ServeHTTP(w, r)
	})
}

func ListenAndServe(host string, port int, mux *http.ServeMux) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	log.Printf("Server listening on %s", addr)
	return http.ListenAndServe(addr, securityHeaders(mux))
}
