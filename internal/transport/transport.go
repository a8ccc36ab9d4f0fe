// Package transport opens the byte stream the session engine runs over.
// OLT devices are reached over plain TCP (telnet dialect) or, on newer
// firmware, SSH; both come back as the same blocking Conn so the engine
// never knows the difference.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"golang.org/x/crypto/ssh"
)

const (
	KindTelnet = "telnet"
	KindSSH    = "ssh"
)

// Conn is a full-duplex byte stream to a device CLI. Read blocks until data
// arrives; Close unblocks a pending Read.
type Conn interface {
	io.ReadWriteCloser
}

// Options parameterizes Dial. Username and Password are only used by the
// SSH transport; over telnet the device asks for them in-band.
type Options struct {
	Kind     string
	Addr     string // host:port
	Username string
	Password string
}

// DefaultPort returns the conventional port for a transport kind.
func DefaultPort(kind string) int {
	if kind == KindSSH {
		return 22
	}
	return 23
}

// Dial opens the requested transport. The context deadline bounds the whole
// handshake, TCP dial included.
func Dial(ctx context.Context, opts Options) (Conn, error) {
	switch opts.Kind {
	case "", KindTelnet:
		return dialTCP(ctx, opts.Addr)
	case KindSSH:
		return dialSSH(ctx, opts)
	default:
		return nil, fmt.Errorf("transport: unknown kind %q", opts.Kind)
	}
}

type tcpConn struct {
	net.Conn
}

func dialTCP(ctx context.Context, addr string) (Conn, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("transport: dial %s: %w", addr, err)
	}
	return &tcpConn{conn}, nil
}

type sshConn struct {
	client  *ssh.Client
	session *ssh.Session
	stdin   io.WriteCloser
	stdout  io.Reader
}

func (c *sshConn) Read(p []byte) (int, error) {
	return c.stdout.Read(p)
}

func (c *sshConn) Write(p []byte) (int, error) {
	return c.stdin.Write(p)
}

func (c *sshConn) Close() error {
	err1 := c.session.Close()
	err2 := c.client.Close()
	if err1 != nil && !errors.Is(err1, io.EOF) {
		return errors.Join(err1, err2)
	}
	return err2
}

func dialSSH(ctx context.Context, opts Options) (Conn, error) {
	var d net.Dialer
	raw, err := d.DialContext(ctx, "tcp", opts.Addr)
	if err != nil {
		return nil, fmt.Errorf("transport: dial %s: %w", opts.Addr, err)
	}

	// the ssh handshake has no context hook; the socket deadline bounds it
	// and is cleared once the shell is up
	if deadline, ok := ctx.Deadline(); ok {
		_ = raw.SetDeadline(deadline)
	}

	cfg := &ssh.ClientConfig{
		User:            opts.Username,
		Auth:            []ssh.AuthMethod{ssh.Password(opts.Password)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
	}

	conn, chans, reqs, err := ssh.NewClientConn(raw, opts.Addr, cfg)
	if err != nil {
		raw.Close()
		return nil, fmt.Errorf("transport: ssh handshake %s: %w", opts.Addr, err)
	}
	client := ssh.NewClient(conn, chans, reqs)

	session, err := client.NewSession()
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("transport: ssh session %s: %w", opts.Addr, err)
	}

	if err := session.RequestPty("vt100", 40, 80, ssh.TerminalModes{}); err != nil {
		session.Close()
		client.Close()
		return nil, fmt.Errorf("transport: ssh pty %s: %w", opts.Addr, err)
	}

	stdin, err := session.StdinPipe()
	if err != nil {
		session.Close()
		client.Close()
		return nil, fmt.Errorf("transport: ssh stdin %s: %w", opts.Addr, err)
	}
	stdout, err := session.StdoutPipe()
	if err != nil {
		session.Close()
		client.Close()
		return nil, fmt.Errorf("transport: ssh stdout %s: %w", opts.Addr, err)
	}

	if err := session.Shell(); err != nil {
		session.Close()
		client.Close()
		return nil, fmt.Errorf("transport: ssh shell %s: %w", opts.Addr, err)
	}

	_ = raw.SetDeadline(time.Time{})

	return &sshConn{client: client, session: session, stdin: stdin, stdout: stdout}, nil
}
