// Package server is the HTTP boundary: it owns the route table, JSON codecs
// and the mapping from session error codes to status codes. Command output
// is classified here, on the engine's raw text; the engine itself never
// formats.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"oltd/internal/classify"
	"oltd/internal/history"
	"oltd/internal/log"
	"oltd/internal/registry"
	"oltd/internal/session"
	"oltd/internal/transport"
)

// Defaults are the engine settings applied to every session the API opens.
// Zero values fall through to the engine's own defaults.
type Defaults struct {
	ConnectTimeout     time.Duration
	CommandTimeout     time.Duration
	LongCommandTimeout time.Duration
	PageLimit          int
	Charset            string
}

// Options wires the server's collaborators. History may be nil.
type Options struct {
	Registry *registry.Registry
	History  *history.Store
	Defaults Defaults

	// DialFunc opens device sessions. Defaults to session.Dial; tests
	// substitute a fake.
	DialFunc func(r *http.Request, cfg session.Config) (*session.Session, error)
}

type Server struct {
	sessions *registry.Registry
	store    *history.Store
	defaults Defaults
	dial     func(r *http.Request, cfg session.Config) (*session.Session, error)
	handler  http.Handler
}

func New(opts Options) *Server {
	s := &Server{
		sessions: opts.Registry,
		store:    opts.History,
		defaults: opts.Defaults,
		dial:     opts.DialFunc,
	}
	if s.dial == nil {
		s.dial = func(r *http.Request, cfg session.Config) (*session.Session, error) {
			return session.Dial(r.Context(), cfg)
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /sessions", s.handleOpen)
	mux.HandleFunc("GET /sessions", s.handleList)
	mux.HandleFunc("GET /sessions/{id}", s.handleStatus)
	mux.HandleFunc("DELETE /sessions/{id}", s.handleClose)
	mux.HandleFunc("POST /sessions/{id}/commands", s.handleCommand)
	mux.HandleFunc("GET /sessions/{id}/commands", s.handleHistory)
	mux.HandleFunc("POST /sessions/{id}/enable", s.handleEnable)
	mux.HandleFunc("POST /sessions/{id}/config-mode", s.handleConfigMode)
	mux.HandleFunc("GET /healthz", handleHealth)
	s.handler = withLogging(mux)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

type openRequest struct {
	Host           string `json:"host"`
	Port           int    `json:"port"`
	Username       string `json:"username"`
	Password       string `json:"password"`
	EnablePassword string `json:"enable_password"`
	Transport      string `json:"transport"`
	Charset        string `json:"charset"`
}

type openResponse struct {
	SessionID string         `json:"session_id"`
	Status    session.Status `json:"status"`
}

type commandRequest struct {
	Command    string `json:"command"`
	ConfigMode bool   `json:"config_mode"`
}

type commandResponse struct {
	classify.Response
	DurationMS int64 `json:"duration_ms"`
}

type resultResponse struct {
	Result string `json:"result"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (s *Server) handleOpen(w http.ResponseWriter, r *http.Request) {
	var req openRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body", "")
		return
	}
	if req.Host == "" || req.Username == "" {
		writeError(w, http.StatusBadRequest, "host and username are required", "")
		return
	}

	charset := req.Charset
	if charset == "" {
		charset = s.defaults.Charset
	}
	cfg := session.Config{
		Host:               req.Host,
		Port:               req.Port,
		Username:           req.Username,
		Password:           req.Password,
		EnablePassword:     req.EnablePassword,
		Transport:          req.Transport,
		Charset:            charset,
		ConnectTimeout:     s.defaults.ConnectTimeout,
		CommandTimeout:     s.defaults.CommandTimeout,
		LongCommandTimeout: s.defaults.LongCommandTimeout,
		PageLimit:          s.defaults.PageLimit,
		Logger:             log.Logger(),
	}

	sess, err := s.dial(r, cfg)
	if err != nil {
		writeSessionError(w, err)
		return
	}

	id := s.sessions.Add(sess)

	kind := req.Transport
	if kind == "" {
		kind = transport.KindTelnet
	}
	port := req.Port
	if port == 0 {
		port = transport.DefaultPort(kind)
	}
	if err := s.store.RecordSession(id, req.Host, port, kind); err != nil {
		log.Warn("history write failed", "error", err)
	}

	writeJSON(w, http.StatusCreated, openResponse{SessionID: id, Status: sess.Status()})
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body", "")
		return
	}
	if req.Command == "" {
		writeError(w, http.StatusBadRequest, "command is required", "")
		return
	}

	start := time.Now()
	var raw string
	err := s.sessions.Do(id, func(sess *session.Session) error {
		if req.ConfigMode {
			if _, err := sess.EnterConfigMode(r.Context()); err != nil {
				return err
			}
		}
		var sendErr error
		raw, sendErr = sess.Send(r.Context(), req.Command)
		return sendErr
	})
	elapsed := time.Since(start)

	if errors.Is(err, registry.ErrNotFound) {
		writeError(w, http.StatusNotFound, "session not found", "")
		return
	}
	if err != nil {
		s.recordCommand(id, req.Command, "", elapsed, err)
		writeSessionError(w, err)
		return
	}

	resp := classify.Classify(req.Command, raw)
	s.recordCommand(id, req.Command, resp.Shape, elapsed, nil)
	writeJSON(w, http.StatusOK, commandResponse{Response: resp, DurationMS: elapsed.Milliseconds()})
}

func (s *Server) handleEnable(w http.ResponseWriter, r *http.Request) {
	s.handleEscalation(w, r, func(sess *session.Session) (string, error) {
		return sess.EnterEnableMode(r.Context())
	})
}

func (s *Server) handleConfigMode(w http.ResponseWriter, r *http.Request) {
	s.handleEscalation(w, r, func(sess *session.Session) (string, error) {
		return sess.EnterConfigMode(r.Context())
	})
}

func (s *Server) handleEscalation(w http.ResponseWriter, r *http.Request, op func(*session.Session) (string, error)) {
	id := r.PathValue("id")

	var text string
	err := s.sessions.Do(id, func(sess *session.Session) error {
		var opErr error
		text, opErr = op(sess)
		return opErr
	})

	if errors.Is(err, registry.ErrNotFound) {
		writeError(w, http.StatusNotFound, "session not found", "")
		return
	}
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resultResponse{Result: text})
}

// handleClose always answers 204: deleting an unknown or already-closed
// session is not an error.
func (s *Server) handleClose(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	s.sessions.Remove(id)
	if err := s.store.CloseSession(id); err != nil {
		log.Warn("history write failed", "error", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var st session.Status
	err := s.sessions.Do(id, func(sess *session.Session) error {
		st = sess.Status()
		return nil
	})
	if errors.Is(err, registry.ErrNotFound) {
		writeError(w, http.StatusNotFound, "session not found", "")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sessions.Snapshot())
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer", "")
			return
		}
		limit = n
	}

	cmds, err := s.store.RecentCommands(id, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "history read failed", "")
		return
	}
	if cmds == nil {
		cmds = []history.Command{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"commands": cmds})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) recordCommand(id, command, shape string, elapsed time.Duration, opErr error) {
	code := string(session.CodeOf(opErr))
	if err := s.store.RecordCommand(id, command, shape, elapsed, code); err != nil {
		log.Warn("history write failed", "error", err)
	}
}

// writeSessionError maps the session error taxonomy onto HTTP statuses.
// Error text from the engine never contains credentials.
func writeSessionError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := session.CodeOf(err)
	switch code {
	case session.CodeAuth:
		status = http.StatusUnauthorized
	case session.CodeConnectTimeout, session.CodeCommandTimeout:
		status = http.StatusGatewayTimeout
	case session.CodeConnection:
		status = http.StatusBadGateway
	case session.CodeNoSession:
		status = http.StatusConflict
	}
	writeError(w, status, err.Error(), string(code))
}

func writeError(w http.ResponseWriter, status int, msg, code string) {
	writeJSON(w, status, errorResponse{Error: msg, Code: code})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn("response encode failed", "error", err)
	}
}
