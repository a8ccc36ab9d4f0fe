// Package session implements the telnet session engine for OLT devices: one
// Session per device connection, owning the transport, the accumulation
// buffer and the authentication/privilege/pagination state machine. The
// engine resolves commands to raw cleaned text; response classification is
// a separate stage layered on by the caller.
package session

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"oltd/internal/ansi"
	"oltd/internal/telnet"
	"oltd/internal/transport"
)

const (
	DefaultConnectTimeout     = 30 * time.Second
	DefaultCommandTimeout     = 30 * time.Second
	DefaultLongCommandTimeout = 120 * time.Second
	DefaultPageLimit          = 100
)

// Config parameterizes one device session. Timeouts and the pagination
// ceiling default to values that suit common firmware; real devices vary by
// model and link latency, so all of them are tunable.
type Config struct {
	Host           string
	Port           int // 0 means the transport's conventional port
	Username       string
	Password       string
	EnablePassword string

	// Transport is "telnet" (default) or "ssh".
	Transport string
	// Charset optionally names a single-byte encoding ("latin1", "cp437")
	// inbound bytes are decoded from. Empty means bytes pass through.
	Charset string

	ConnectTimeout     time.Duration
	CommandTimeout     time.Duration
	LongCommandTimeout time.Duration // for enumeration commands (show ..., list)
	PageLimit          int

	Logger *slog.Logger

	// DialFunc overrides the transport dialer. Tests use it to wire the
	// engine to an in-memory pipe.
	DialFunc func(ctx context.Context) (transport.Conn, error)
}

func (c Config) withDefaults() Config {
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	if c.CommandTimeout <= 0 {
		c.CommandTimeout = DefaultCommandTimeout
	}
	if c.LongCommandTimeout <= 0 {
		c.LongCommandTimeout = DefaultLongCommandTimeout
	}
	if c.PageLimit <= 0 {
		c.PageLimit = DefaultPageLimit
	}
	if c.Transport == "" {
		c.Transport = transport.KindTelnet
	}
	if c.Port == 0 {
		c.Port = transport.DefaultPort(c.Transport)
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// Status is a point-in-time snapshot of session state.
type Status struct {
	Connected     bool   `json:"connected"`
	LoggedIn      bool   `json:"loggedIn"`
	InConfigMode  bool   `json:"inConfigMode"`
	CurrentPrompt string `json:"currentPrompt"`
}

// result settles a pending operation.
type result struct {
	text string
	err  error
}

// Session owns one device connection. All mutable state is guarded by mu;
// the reader goroutine is the only producer of data-driven transitions, and
// at most one operation is in flight at a time.
type Session struct {
	cfg Config
	log *slog.Logger

	mu            sync.Mutex
	conn          transport.Conn
	state         State
	buf           bytes.Buffer
	connected     bool
	loggedIn      bool
	inConfigMode  bool
	currentPrompt string
	lastCommand   string
	pages         []string
	pageCount     int
	pending       chan result // single-slot, nil when no operation waits

	// stream stages, touched only by the reader goroutine
	filter   *telnet.Filter
	stripper *ansi.Stripper
	decoder  *encoding.Decoder

	readerDone chan struct{}
}

// Dial connects to the device and drives the login exchange to completion:
// username and password prompts are answered from the config, a success
// prompt resolves the call, a rejection phrase fails it with AuthError. The
// connect timeout spans the whole operation, transport dial included.
func Dial(ctx context.Context, cfg Config) (*Session, error) {
	cfg = cfg.withDefaults()

	s := &Session{
		cfg:      cfg,
		log:      cfg.Logger.With("host", cfg.Host),
		state:    StateConnecting,
		stripper: ansi.NewStripper(),
		decoder:  decoderFor(cfg.Charset),
	}
	s.filter = telnet.NewFilter(s.writeRaw)
	if cfg.Charset != "" && s.decoder == nil {
		s.log.Warn("unknown charset, using raw bytes", "charset", cfg.Charset)
	}

	start := time.Now()
	deadline := start.Add(cfg.ConnectTimeout)
	dialCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	dial := cfg.DialFunc
	if dial == nil {
		addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
		dial = func(ctx context.Context) (transport.Conn, error) {
			return transport.Dial(ctx, transport.Options{
				Kind:     cfg.Transport,
				Addr:     addr,
				Username: cfg.Username,
				Password: cfg.Password,
			})
		}
	}

	conn, err := dial(dialCtx)
	if err != nil {
		if dialCtx.Err() != nil {
			return nil, &Error{Code: abortCode(dialCtx, CodeConnectTimeout), Op: "dial",
				Elapsed: time.Since(start), Err: dialCtx.Err()}
		}
		return nil, &Error{Code: CodeConnection, Op: "dial", Err: err}
	}

	ch := make(chan result, 1)
	s.mu.Lock()
	s.conn = conn
	s.connected = true
	s.state = StateAuthenticating
	s.pending = ch
	s.readerDone = make(chan struct{})
	go s.readLoop(conn)
	s.mu.Unlock()

	s.log.Debug("connected, waiting for login exchange", "transport", cfg.Transport)

	r, timedOut := s.await(ctx, ch, time.Until(deadline))
	if timedOut {
		s.closeNow()
		return nil, &Error{Code: abortCode(ctx, CodeConnectTimeout), Op: "dial",
			Elapsed: time.Since(start), Err: ctx.Err()}
	}
	if r.err != nil {
		s.closeNow()
		return nil, stamp(r.err, "dial", "")
	}

	s.log.Info("session established", "prompt", s.Status().CurrentPrompt, "elapsed", time.Since(start).Round(time.Millisecond))
	return s, nil
}

// Send transmits one command line and blocks until the device shows a
// terminal prompt again, returning the response with the command echo and
// the prompt line removed. Pagination is driven transparently; a timeout
// with pages already collected degrades to a partial result instead of an
// error, while a canceled ctx always fails with CodeCanceled. Callers must
// not overlap commands on one session.
func (s *Session) Send(ctx context.Context, command string) (string, error) {
	start := time.Now()

	s.mu.Lock()
	if !s.connected || !s.loggedIn {
		s.mu.Unlock()
		return "", &Error{Code: CodeNoSession, Op: "send", Command: command}
	}
	if s.pending != nil {
		s.mu.Unlock()
		return "", fmt.Errorf("session: a command is already in flight")
	}

	s.lastCommand = command
	s.buf.Reset()
	s.pages = nil
	s.pageCount = 0
	ch := make(chan result, 1)
	s.pending = ch
	s.state = StateAwaitingResponse

	if err := s.writeLocked(command + "\n"); err != nil {
		s.pending = nil
		s.state = StateReady
		s.mu.Unlock()
		return "", &Error{Code: CodeConnection, Op: "send", Command: command, Err: err}
	}
	s.mu.Unlock()

	s.log.Debug("command sent", "command", command)

	r, timedOut := s.await(ctx, ch, s.commandTimeout(command))
	if timedOut {
		s.mu.Lock()
		pages := s.pages
		s.pages = nil
		s.pageCount = 0
		s.buf.Reset()
		if s.state == StateAwaitingResponse || s.state == StateAwaitingPagination {
			s.state = StateReady
		}
		s.mu.Unlock()

		if len(pages) > 0 && ctx.Err() != context.Canceled {
			s.log.Warn("command timed out mid-pagination, returning partial output",
				"command", command, "pages", len(pages))
			return stripEcho(strings.Join(pages, ""), command), nil
		}
		return "", &Error{Code: abortCode(ctx, CodeCommandTimeout), Op: "send", Command: command,
			Elapsed: time.Since(start), Err: ctx.Err()}
	}
	if r.err != nil {
		return "", stamp(r.err, "send", command)
	}
	return r.text, nil
}

// EnterEnableMode escalates to privileged mode. Returns a sentinel string
// without device traffic when the current prompt already shows privilege.
func (s *Session) EnterEnableMode(ctx context.Context) (string, error) {
	s.mu.Lock()
	if !s.connected || !s.loggedIn {
		s.mu.Unlock()
		return "", &Error{Code: CodeNoSession, Op: "enable"}
	}
	p := s.currentPrompt
	s.mu.Unlock()

	switch p {
	case "#", "(config)#", "(config-if)#":
		return "Already in enable mode", nil
	}
	return s.Send(ctx, "enable")
}

// EnterConfigMode escalates to configuration mode, going through enable
// mode first when needed. The config flag is forced on once the command
// resolves, independent of the prompt the device came back with: some
// firmware shows the config prompt only after further interaction.
func (s *Session) EnterConfigMode(ctx context.Context) (string, error) {
	s.mu.Lock()
	if !s.connected || !s.loggedIn {
		s.mu.Unlock()
		return "", &Error{Code: CodeNoSession, Op: "config"}
	}
	inConfig := s.inConfigMode
	s.mu.Unlock()

	if inConfig {
		return "Already in config mode", nil
	}
	if _, err := s.EnterEnableMode(ctx); err != nil {
		return "", err
	}
	text, err := s.Send(ctx, "configure terminal")
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	if s.loggedIn {
		s.inConfigMode = true
	}
	s.mu.Unlock()
	return text, nil
}

// Disconnect politely leaves config mode and the device shell, closes the
// transport and zeroes all state. It never fails and is idempotent: a
// second call returns immediately without I/O.
func (s *Session) Disconnect() error {
	s.mu.Lock()
	if !s.connected {
		s.mu.Unlock()
		return nil
	}

	if s.inConfigMode {
		_ = s.writeLocked("exit\n")
	}
	_ = s.writeLocked("exit\n")

	conn := s.conn
	done := s.readerDone
	s.conn = nil
	s.reset()
	s.settle(result{err: &Error{Code: CodeConnection, Op: "disconnect", Err: net.ErrClosed}})
	s.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	if done != nil {
		<-done
	}
	s.log.Info("session closed")
	return nil
}

// Status returns a snapshot of the session state. No side effects.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		Connected:     s.connected,
		LoggedIn:      s.loggedIn,
		InConfigMode:  s.inConfigMode,
		CurrentPrompt: s.currentPrompt,
	}
}

// State reports the lifecycle state, for observability.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// await blocks until the pending operation settles, the timeout passes, or
// ctx is cancelled. A settlement that races the deadline wins: an operation
// that resolved is never re-failed by its own timer.
func (s *Session) await(ctx context.Context, ch chan result, timeout time.Duration) (result, bool) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case r := <-ch:
		return r, false
	case <-timer.C:
	case <-ctx.Done():
	}

	s.mu.Lock()
	revoked := s.pending != nil
	s.pending = nil
	s.mu.Unlock()

	if !revoked {
		// the reader settled just before the deadline; the buffered result
		// is already in the channel
		return <-ch, false
	}
	return result{}, true
}

// closeNow tears the session down without the polite exit exchange.
func (s *Session) closeNow() {
	s.mu.Lock()
	conn := s.conn
	done := s.readerDone
	s.conn = nil
	s.reset()
	s.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	if done != nil {
		<-done
	}
}

// reset zeroes all session state. mu must be held.
func (s *Session) reset() {
	s.connected = false
	s.loggedIn = false
	s.inConfigMode = false
	s.currentPrompt = ""
	s.lastCommand = ""
	s.buf.Reset()
	s.pages = nil
	s.pageCount = 0
	s.state = StateDisconnected
}

// commandTimeout picks the deadline class for a command. Enumeration
// commands produce large, paginated output and get the long window.
func (s *Session) commandTimeout(command string) time.Duration {
	c := strings.ToLower(strings.TrimSpace(command))
	if strings.HasPrefix(c, "show") || c == "list" {
		return s.cfg.LongCommandTimeout
	}
	return s.cfg.CommandTimeout
}

// abortCode resolves how a revoked wait failed: a canceled context is a
// caller abort, not a device timeout, and must not classify as one.
func abortCode(ctx context.Context, deadlineCode Code) Code {
	if ctx.Err() == context.Canceled {
		return CodeCanceled
	}
	return deadlineCode
}

// escalating reports whether command legitimately triggers a device-side
// password prompt. Deliberately narrow: exactly "enable", or a
// "configure ..." command.
func escalating(command string) bool {
	c := strings.TrimSpace(command)
	return c == "enable" || strings.HasPrefix(c, "configure")
}

// stamp fills operation context into a session error that was produced by
// the reader, which does not know which operation it settled.
func stamp(err error, op, command string) error {
	if se, ok := err.(*Error); ok {
		if se.Op == "" {
			se.Op = op
		}
		if se.Command == "" {
			se.Command = command
		}
	}
	return err
}

func decoderFor(name string) *encoding.Decoder {
	switch strings.ToLower(name) {
	case "latin1", "iso-8859-1":
		return charmap.ISO8859_1.NewDecoder()
	case "cp437", "ibm437":
		return charmap.CodePage437.NewDecoder()
	default:
		return nil
	}
}
