package main

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/skip2/go-qrcode"

	"chexy-balloons/shared/protocol"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true // Non-browser clients don't send Origin
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return u.Host == r.Host
	},
}

func extractIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Server bundles what the HTTP handlers need.
type Server struct {
	hub       *Hub
	game      *Game
	auth      *Auth
	db        *DB
	metrics   *Metrics
	publicURL string
}

// SetupRoutes configures HTTP routes
func SetupRoutes(s *Server) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/ws", s.handleWS).Methods(http.MethodGet)
	r.HandleFunc("/token", s.handleToken).Methods(http.MethodPost)
	r.HandleFunc("/native", s.handleNative).Methods(http.MethodGet)
	r.HandleFunc("/qr", s.handleQR).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/metrics", s.handleMetrics).Methods(http.MethodGet)
	r.HandleFunc("/leaderboard", s.handleLeaderboard).Methods(http.MethodGet)
	r.HandleFunc("/admin/bots", s.handleSpawnBot).Methods(http.MethodPost)
	return r
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	id, err := s.auth.Authenticate(r)
	if err != nil {
		status := http.StatusUnauthorized
		if errors.Is(err, ErrProtocolMismatch) || errors.Is(err, ErrBadClientID) {
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}

	ip := extractIP(r)
	if err := s.hub.Admit(ip, id); err != nil {
		status := http.StatusServiceUnavailable
		if errors.Is(err, ErrDuplicateID) {
			status = http.StatusConflict
		}
		http.Error(w, err.Error(), status)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		Log.Warnw("upgrade", "client", id, "err", err)
		s.hub.Release(ip, id)
		return
	}

	client := NewClient(s.hub, conn, id, ip)
	s.hub.register <- client

	go client.WritePump()
	go client.ReadPump()
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	id := s.auth.NewClientID()
	if v := r.FormValue("client_id"); v != "" {
		parsed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			http.Error(w, ErrBadClientID.Error(), http.StatusBadRequest)
			return
		}
		id = parsed
	}
	tok, err := s.auth.IssueToken(id)
	if err != nil {
		Log.Errorw("issue token", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{
		"token":       tok,
		"client_id":   id,
		"protocol_id": protocol.ProtocolID,
	})
}

// joinURL is the websocket address clients should dial.
func (s *Server) joinURL(r *http.Request) string {
	if s.publicURL != "" {
		return s.publicURL
	}
	return "ws://" + r.Host + "/ws"
}

func (s *Server) handleNative(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"url":         s.joinURL(r),
		"protocol_id": protocol.ProtocolID,
	})
}

func (s *Server) handleQR(w http.ResponseWriter, r *http.Request) {
	png, err := qrcode.Encode(s.joinURL(r), qrcode.Medium, 256)
	if err != nil {
		http.Error(w, "qr encode failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(png)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("ok"))
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	m := s.metrics.Snapshot()
	m["players"] = s.game.PlayerCount()
	m["phase"] = s.game.CurrentPhase().String()
	m["connections"] = s.hub.TotalConns()
	writeJSON(w, m)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		writeJSON(w, []LeaderboardRow{})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	rows, err := s.db.Leaderboard(limit)
	if err != nil {
		Log.Errorw("leaderboard", "err", err)
		http.Error(w, "database error", http.StatusInternalServerError)
		return
	}
	if rows == nil {
		rows = []LeaderboardRow{}
	}
	writeJSON(w, rows)
}

func (s *Server) handleSpawnBot(w http.ResponseWriter, r *http.Request) {
	if !s.auth.AdminEnabled() {
		http.Error(w, "admin disabled", http.StatusNotFound)
		return
	}
	if !s.auth.CheckAdmin(r) {
		w.Header().Set("WWW-Authenticate", `Basic realm="balloons"`)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	s.game.SpawnBot()
	w.WriteHeader(http.StatusAccepted)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		Log.Warnw("write json", "err", err)
	}
}
