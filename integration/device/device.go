//go:build integration

// Package device runs a scripted OLT simulator on a loopback TCP listener.
// Integration tests dial it through the real transport stack, so telnet
// negotiation, ANSI noise and pagination are exercised over an actual
// socket instead of an in-memory pipe.
package device

import (
	"fmt"
	"io"
	"net"
	"strings"
	"testing"
	"time"
)

// Exchange is one step of the scripted conversation: wait until Expect shows
// up in the inbound bytes (no wait when empty), optionally pause, then write
// Reply verbatim. Replies may carry telnet IAC sequences and ANSI escapes;
// the client side is expected to filter them out.
type Exchange struct {
	Expect string
	Reply  string
	Pause  time.Duration
}

// Device is a one-shot scripted OLT. It accepts a single connection, plays
// the script against it, then drains until the peer hangs up.
type Device struct {
	t        *testing.T
	listener net.Listener
	errCh    chan error
}

// Start listens on an ephemeral loopback port and serves script in the
// background. The listener is closed via t.Cleanup.
func Start(t *testing.T, script []Exchange) *Device {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("device listen: %v", err)
	}

	d := &Device{t: t, listener: ln, errCh: make(chan error, 1)}
	go d.serve(script)
	t.Cleanup(func() { ln.Close() })

	t.Logf("scripted device listening on %s", ln.Addr())
	return d
}

// Host returns the loopback address the device listens on.
func (d *Device) Host() string {
	host, _, _ := net.SplitHostPort(d.listener.Addr().String())
	return host
}

// Port returns the ephemeral port the device listens on.
func (d *Device) Port() int {
	return d.listener.Addr().(*net.TCPAddr).Port
}

// Err blocks until the scripted conversation has finished and reports how it
// went. A clean run returns nil; an unmatched Expect or a premature hangup
// comes back with the bytes seen so far.
func (d *Device) Err() error {
	select {
	case err := <-d.errCh:
		return err
	case <-time.After(10 * time.Second):
		return fmt.Errorf("device: script still running after 10s")
	}
}

func (d *Device) serve(script []Exchange) {
	conn, err := d.listener.Accept()
	if err != nil {
		d.errCh <- fmt.Errorf("device accept: %w", err)
		return
	}
	d.errCh <- play(conn, script)
}

// play walks the script over one connection. After the last step it keeps
// draining so client writes (negotiation refusals, the exit exchange) never
// block, then closes.
func play(conn net.Conn, script []Exchange) error {
	defer conn.Close()
	defer func() {
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		io.Copy(io.Discard, conn)
	}()

	buf := make([]byte, 4096)
	acc := ""
	for _, ex := range script {
		for ex.Expect != "" && !strings.Contains(acc, ex.Expect) {
			conn.SetReadDeadline(time.Now().Add(5 * time.Second))
			n, err := conn.Read(buf)
			if err != nil {
				return fmt.Errorf("waiting for %q: %w (received %q)", ex.Expect, err, acc)
			}
			acc += string(buf[:n])
		}
		if ex.Expect != "" {
			acc = acc[strings.Index(acc, ex.Expect)+len(ex.Expect):]
		}
		if ex.Pause > 0 {
			time.Sleep(ex.Pause)
		}
		if ex.Reply != "" {
			if _, err := conn.Write([]byte(ex.Reply)); err != nil {
				return fmt.Errorf("replying after %q: %w", ex.Expect, err)
			}
		}
	}
	return nil
}

// Login returns the standard opening script of a telnet OLT: option
// negotiation, a banner with ANSI color, then the username and password
// prompts ending in an enabled prompt.
func Login(username, password string) []Exchange {
	return []Exchange{
		// IAC DO TERMINAL-TYPE, IAC WILL ECHO, IAC WILL SGA
		{Reply: "\xff\xfd\x18\xff\xfb\x01\xff\xfb\x03"},
		{Reply: "\x1b[1;32mOLT-7 Access Module\x1b[0m\r\n\r\nLogin: "},
		{Expect: username + "\n", Reply: "Password: "},
		{Expect: password + "\n", Reply: "\r\nOLT-7# "},
	}
}
