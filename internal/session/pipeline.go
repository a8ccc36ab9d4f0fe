package session

import (
	"errors"
	"net"
	"strings"

	"oltd/internal/ansi"
	"oltd/internal/prompt"
	"oltd/internal/transport"
)

const readBufferSize = 4096

// readLoop is the only reader of the transport and the only producer of
// data-driven state transitions. It exits when the transport errors or is
// closed out from under it.
func (s *Session) readLoop(conn transport.Conn) {
	defer close(s.readerDone)

	buf := make([]byte, readBufferSize)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			s.ingest(buf[:n])
		}
		if err != nil {
			s.connectionLost(err)
			return
		}
	}
}

// ingest runs one chunk through the inbound stages: telnet command
// filtering, optional charset decoding, streaming ANSI stripping, then the
// state machine looks at the grown buffer. The stages sit outside the lock;
// only the reader touches them.
func (s *Session) ingest(data []byte) {
	payload := s.filter.Process(data)
	if len(payload) == 0 {
		return
	}
	if s.decoder != nil {
		if decoded, err := s.decoder.Bytes(payload); err == nil {
			payload = decoded
		}
	}
	text := s.stripper.Strip(string(payload))
	if text == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return
	}
	s.buf.WriteString(text)
	s.step()
}

// step is the FSM pump: classify the cleaned buffer, perform the side
// effects the stimulus demands, apply the transition. mu must be held.
func (s *Session) step() {
	cleaned := ansi.Clean(s.buf.String())
	stim := classifyBuffer(s.state, cleaned)
	if stim == StimNone {
		return
	}
	next, legal := transition(s.state, stim)
	if !legal {
		s.log.Warn("ignoring stimulus", "state", s.state.String(), "stimulus", stim.String())
		return
	}

	switch stim {
	case StimUsernamePrompt:
		s.buf.Reset()
		s.send(s.cfg.Username+"\n", "sent username")

	case StimPasswordPrompt:
		if s.state == StateAuthenticating {
			s.buf.Reset()
			s.send(s.cfg.Password+"\n", "sent password")
			break
		}
		// a password prompt mid-command is re-authentication after a
		// privilege escalation; anything else that merely looks like one
		// is response content and keeps accumulating
		if !escalating(s.lastCommand) {
			return
		}
		s.buf.Reset()
		s.send(s.cfg.EnablePassword+"\n", "sent enable password")

	case StimSuccessPrompt:
		p, _ := prompt.LoginSuccess(cleaned)
		s.setPrompt(p)
		s.loggedIn = true
		s.buf.Reset()
		s.settle(result{})

	case StimFailurePhrase:
		s.buf.Reset()
		s.settle(result{err: &Error{Code: CodeAuth, Err: errors.New("device rejected the credentials")}})

	case StimTerminalPrompt:
		p, _ := prompt.Terminal(cleaned)
		text := stripTrailingPrompt(cleaned, p)
		if len(s.pages) > 0 {
			text = strings.Join(append(s.pages, text), "")
			s.pages = nil
			s.pageCount = 0
		}
		text = stripEcho(text, s.lastCommand)
		s.setPrompt(p)
		s.buf.Reset()
		s.settle(result{text: text})

	case StimMoreMarker:
		idx := strings.Index(cleaned, prompt.More)
		s.pages = append(s.pages, cleaned[:idx])
		s.pageCount++
		s.buf.Reset()
		if s.pageCount > s.cfg.PageLimit {
			// a device stuck emitting pages must not stall the caller
			// forever; return what was collected
			s.log.Warn("pagination ceiling reached, returning partial output",
				"command", s.lastCommand, "pages", s.pageCount)
			text := stripEcho(strings.Join(s.pages, ""), s.lastCommand)
			s.pages = nil
			s.pageCount = 0
			s.settle(result{text: text})
			s.state = StateReady
			return
		}
		// continuation keystroke: a single space, no newline
		s.send(" ", "requested next page")
	}

	s.state = next
}

// connectionLost is the read loop's exit path: socket closure forces a full
// disconnect regardless of what was in flight, and a waiting operation is
// failed rather than left pending forever.
func (s *Session) connectionLost(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wasConnected := s.connected
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.reset()
	s.settle(result{err: &Error{Code: CodeConnection, Err: err}})

	if wasConnected {
		s.log.Info("connection lost", "err", err)
	}
}

// settle resolves the pending operation exactly once. mu must be held.
func (s *Session) settle(r result) {
	if s.pending == nil {
		return
	}
	s.pending <- r
	s.pending = nil
}

// setPrompt records a freshly observed prompt and keeps the config-mode
// flag consistent with it. "$" counts as a login success but maps to no
// known prompt literal.
func (s *Session) setPrompt(p string) {
	if p == "$" {
		s.currentPrompt = ""
		return
	}
	s.currentPrompt = p
	switch p {
	case "(config)#", "(config-if)#":
		s.inConfigMode = true
	case "#", ">":
		s.inConfigMode = false
	}
}

// send writes during an FSM step. A failure is only logged: the same dead
// transport unblocks the read loop with the real error right after. mu must
// be held.
func (s *Session) send(text, what string) {
	if err := s.writeLocked(text); err != nil {
		s.log.Debug("write failed", "what", what, "err", err)
		return
	}
	s.log.Debug(what)
}

// writeLocked writes to the transport. mu must be held.
func (s *Session) writeLocked(text string) error {
	if s.conn == nil {
		return net.ErrClosed
	}
	_, err := s.conn.Write([]byte(text))
	return err
}

// writeRaw is the telnet filter's refusal path. It runs on the reader
// goroutine before the session lock is taken, so it takes the lock itself
// to read the conn.
func (s *Session) writeRaw(p []byte) error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return net.ErrClosed
	}
	_, err := conn.Write(p)
	return err
}

// stripTrailingPrompt cuts the prompt line off the end of a response: the
// matched literal, the device name in front of it, and trailing whitespace.
func stripTrailingPrompt(text, p string) string {
	s := strings.TrimRight(text, " \t")
	if p == "" || !strings.HasSuffix(s, p) {
		return text
	}
	s = s[:len(s)-len(p)]
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[:i+1]
	}
	return ""
}

// stripEcho drops the echoed command line: everything up to and including
// the newline that follows the echoed text. Output without a visible echo
// comes back untouched.
func stripEcho(text, command string) string {
	if command == "" {
		return text
	}
	idx := strings.Index(text, command)
	if idx < 0 {
		return text
	}
	rest := text[idx+len(command):]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		return rest[nl+1:]
	}
	return ""
}
