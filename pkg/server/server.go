// Package server streams generated audio to websocket clients.
//
// Each connection gets its own session and engine. Audio flows
// downstream as binary frames, one encoded chunk per frame at chunk
// cadence; control flows upstream as JSON text frames. The learned
// texture policy can be persisted to a file shared across sessions,
// loaded at session start and saved at session end.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/driftaudio/driftpad/pkg/policy"
	"github.com/driftaudio/driftpad/pkg/session"
)

// Server accepts websocket clients on /ws/music and answers health
// checks on /healthz.
type Server struct {
	cfg      Config
	mux      *http.ServeMux
	upgrader websocket.Upgrader
	httpSrv  *http.Server

	policyMu sync.Mutex // serializes policy file access across sessions
}

// New builds a server from cfg.
func New(cfg Config) *Server {
	cfg.applyDefaults()
	s := &Server{
		cfg: cfg,
		mux: http.NewServeMux(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	s.mux.HandleFunc("/healthz", s.handleHealthz)
	s.mux.HandleFunc("/ws/music", s.handleMusic)
	return s
}

// Handler returns the HTTP handler, for embedding or tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe blocks serving clients until Shutdown or a listener
// error.
func (s *Server) ListenAndServe() error {
	s.httpSrv = &http.Server{Addr: s.cfg.Listen, Handler: s.mux}
	slog.Info("server: listening", "addr", s.cfg.Listen)
	err := s.httpSrv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops accepting connections and waits for in-flight
// handlers up to the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// controlMessage is the client-to-server frame. Value is unused for
// skip and stop.
type controlMessage struct {
	Type  string  `json:"type"`
	Value float64 `json:"value"`
}

func (s *Server) handleMusic(w http.ResponseWriter, r *http.Request) {
	id := uuid.NewString()
	log := slog.With("session", id, "remote", r.RemoteAddr)

	sess, err := s.newSession(log)
	if err != nil {
		log.Error("server: session init failed", "error", err)
		http.Error(w, "session init failed", http.StatusInternalServerError)
		return
	}

	// Announce the wire format in the handshake so clients can set up
	// playback before the first frame arrives.
	header := http.Header{"X-Audio-Format": {sess.Format().String()}}
	conn, err := s.upgrader.Upgrade(w, r, header)
	if err != nil {
		slog.Warn("server: upgrade failed", "error", err)
		sess.Close()
		return
	}
	defer conn.Close()

	log.Info("server: session started",
		"format", sess.Format().String(),
		"bytes_per_sec", sess.Format().BytesRate())

	stop := make(chan struct{})
	go s.readControl(conn, sess, stop, log)

	ticker := time.NewTicker(sess.ChunkDuration())
	defer ticker.Stop()

streaming:
	for {
		select {
		case <-stop:
			break streaming
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.BinaryMessage, sess.NextChunk()); err != nil {
				break streaming
			}
		}
	}

	if err := sess.Close(); err != nil {
		// The worker has not joined; its engine is not safe to snapshot.
		log.Warn("server: session close", "error", err)
	} else {
		s.savePolicy(sess.Engine().PolicyState(), log)
	}
	log.Info("server: session ended")
}

// newSession starts a session seeded with the persisted policy when one
// exists. A snapshot the engine rejects, for example after a texture
// list change, falls back to a fresh policy.
func (s *Server) newSession(log *slog.Logger) (*session.Session, error) {
	if prior, ok := s.loadPolicy(log); ok {
		sess, err := session.New(s.cfg.Engine, session.WithPolicyState(prior))
		if err == nil {
			return sess, nil
		}
		log.Warn("server: stale policy snapshot, starting fresh", "error", err)
	}
	return session.New(s.cfg.Engine)
}

func (s *Server) readControl(conn *websocket.Conn, sess *session.Session, stop chan struct{}, log *slog.Logger) {
	defer close(stop)
	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if mt != websocket.TextMessage {
			continue
		}
		var msg controlMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Warn("server: bad control frame", "error", err)
			continue
		}
		switch msg.Type {
		case "focus":
			sess.SetFocus(msg.Value)
		case "volume":
			sess.SetVolume(msg.Value)
		case "skip":
			sess.Skip()
		case "stop":
			return
		case "profile":
			// accepted from older clients, carries nothing we use
		default:
			log.Warn("server: unknown control type", "type", msg.Type)
		}
	}
}

func (s *Server) loadPolicy(log *slog.Logger) (policy.State, bool) {
	if s.cfg.PolicyFile == "" {
		return policy.State{}, false
	}
	s.policyMu.Lock()
	defer s.policyMu.Unlock()
	st, ok, err := policy.LoadFile(s.cfg.PolicyFile)
	if err != nil {
		log.Warn("server: policy load failed", "path", s.cfg.PolicyFile, "error", err)
		return policy.State{}, false
	}
	return st, ok
}

func (s *Server) savePolicy(st policy.State, log *slog.Logger) {
	if s.cfg.PolicyFile == "" {
		return
	}
	s.policyMu.Lock()
	defer s.policyMu.Unlock()
	if err := policy.SaveFile(s.cfg.PolicyFile, st); err != nil {
		log.Warn("server: policy save failed", "path", s.cfg.PolicyFile, "error", err)
	}
}
