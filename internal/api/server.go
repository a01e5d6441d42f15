// Package api provides the HTTP API server for remote playback control.
package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"

	"macrotoggle/internal/macro"
)

// Playback is the controller surface the API drives.
type Playback interface {
	Trigger()
	Toggle()
	Pause()
	Resume()
	Stop()
	State() macro.State
	CurrentRun() string
}

// Server provides HTTP and WebSocket control of playback.
type Server struct {
	playback Playback
	token    string
	wsMgr    *WSManager
}

// NewServer creates a new API server. token may be empty to disable auth.
func NewServer(playback Playback, token string) *Server {
	s := &Server{
		playback: playback,
		token:    token,
	}
	s.wsMgr = newWSManager(s)
	return s
}

// Start starts the API server on the specified port. Blocking.
func (s *Server) Start(port int) error {
	go s.wsMgr.start()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/trigger", s.handleAction("trigger"))
	mux.HandleFunc("/api/toggle", s.handleAction("toggle"))
	mux.HandleFunc("/api/pause", s.handleAction("pause"))
	mux.HandleFunc("/api/resume", s.handleAction("resume"))
	mux.HandleFunc("/api/stop", s.handleAction("stop"))
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/ws", s.wsMgr.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)

	addr := fmt.Sprintf("0.0.0.0:%d", port)
	log.Printf("API: starting server on %s", addr)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		log.Printf("API: failed to listen on %s: %v", addr, err)
		return err
	}

	server := &http.Server{
		Handler: s.authMiddleware(s.recoverMiddleware(mux)),
	}

	if err := server.Serve(ln); err != nil && err != http.ErrServerClosed {
		log.Printf("API: server stopped: %v", err)
		return err
	}
	return nil
}

// recoverMiddleware prevents panics from crashing the whole server
func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.Printf("API: panic recovered: %v", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// authMiddleware checks the API token if one is configured
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("API: %s %s from %s", r.Method, r.URL.Path, r.RemoteAddr)

		// Skip auth for health check
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		if s.token != "" {
			if r.Header.Get("Authorization") != "Bearer "+s.token {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

// dispatch routes a control action name to the playback operation.
func (s *Server) dispatch(action string) bool {
	switch action {
	case "trigger":
		s.playback.Trigger()
	case "toggle":
		s.playback.Toggle()
	case "pause":
		s.playback.Pause()
	case "resume":
		s.playback.Resume()
	case "stop":
		s.playback.Stop()
	default:
		return false
	}
	return true
}

// handleAction handles POST /api/<action>
func (s *Server) handleAction(action string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		s.dispatch(action)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"status": "ok",
			"state":  string(s.playback.State()),
		})
	}
}

// handleStatus handles GET /api/status
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"state":  string(s.playback.State()),
		"run_id": s.playback.CurrentRun(),
	})
}

// handleHealth handles GET /health (for monitoring)
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// BroadcastState pushes a playback state transition to all WebSocket
// subscribers.
func (s *Server) BroadcastState(state macro.State, runID, origin string) {
	if s.wsMgr != nil {
		s.wsMgr.BroadcastState(state, runID, origin)
	}
}
