// Package cli implements the interactive-shell neighbor drivers: an SSH
// session abstraction with an expected-prompt pattern and bounded read
// timeout, per-platform neighbor commands, and pure text parsers that turn
// captured command output into raw observations.
package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"regexp"
	"time"

	"golang.org/x/crypto/ssh"
)

// ─────────────────────────────────────────────────────────────────────────────
// Credentials + session config
// ─────────────────────────────────────────────────────────────────────────────

// Credential is one CLI login. Password auth is the norm on network gear;
// a private key is used instead when set.
type Credential struct {
	Username   string
	Password   string
	PrivateKey string // PEM; used instead of Password when non-empty
}

// SessionConfig carries the transport parameters for one CLI session.
// Zero-value fields fall back to documented defaults.
type SessionConfig struct {
	// Port is the SSH port (default 22).
	Port int

	// ConnectTimeout bounds the TCP+SSH handshake (default 10s).
	ConnectTimeout time.Duration

	// ReadTimeout bounds each wait for the prompt after a command
	// (default 15s).
	ReadTimeout time.Duration

	// Prompt is the expected-prompt pattern marking end of command output.
	// nil uses DefaultPrompt.
	Prompt *regexp.Regexp
}

// DefaultPrompt matches the usual network-OS exec prompts ("switch>" /
// "switch#"), anchored to the end of the received output.
var DefaultPrompt = regexp.MustCompile(`(?m)^[\w.\-:/@()]+[#>]\s*$`)

func (c *SessionConfig) defaults() {
	if c.Port <= 0 {
		c.Port = 22
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = 10 * time.Second
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 15 * time.Second
	}
	if c.Prompt == nil {
		c.Prompt = DefaultPrompt
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Session interface
// ─────────────────────────────────────────────────────────────────────────────

// Session runs commands on an interactive remote shell. Implementations must
// bound every read; tests substitute a canned-output fake.
type Session interface {
	// Run issues one command and returns everything the device printed up to
	// (but not including) the next prompt.
	Run(ctx context.Context, cmd string) (string, error)
	Close() error
}

// Dialer opens a Session. Production uses DialSSH; tests inject fakes.
type Dialer func(ctx context.Context, host string, cred Credential, cfg SessionConfig) (Session, error)

// ─────────────────────────────────────────────────────────────────────────────
// SSH implementation
// ─────────────────────────────────────────────────────────────────────────────

// sshSession is the production Session over golang.org/x/crypto/ssh with a
// pty-backed shell, so the device treats us like a human operator.
type sshSession struct {
	client  *ssh.Client
	session *ssh.Session
	stdin   io.WriteCloser
	chunks  chan []byte
	readErr chan error

	prompt      *regexp.Regexp
	readTimeout time.Duration
	logger      *slog.Logger
}

// DialSSH connects to host and starts an interactive shell. It waits for the
// initial prompt before returning so the first Run sees clean output.
func DialSSH(ctx context.Context, host string, cred Credential, cfg SessionConfig) (Session, error) {
	cfg.defaults()

	auth, err := authMethods(cred)
	if err != nil {
		return nil, err
	}
	clientCfg := &ssh.ClientConfig{
		User:            cred.Username,
		Auth:            auth,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         cfg.ConnectTimeout,
	}

	addr := fmt.Sprintf("%s:%d", host, cfg.Port)
	dialer := &net.Dialer{Timeout: cfg.ConnectTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("cli: dial %s: %w", addr, err)
	}
	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, clientCfg)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("cli: handshake %s: %w", addr, err)
	}
	client := ssh.NewClient(sshConn, chans, reqs)

	session, err := client.NewSession()
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("cli: session %s: %w", addr, err)
	}

	modes := ssh.TerminalModes{
		ssh.ECHO:          0,
		ssh.TTY_OP_ISPEED: 38400,
		ssh.TTY_OP_OSPEED: 38400,
	}
	if err := session.RequestPty("vt100", 0, 512, modes); err != nil {
		session.Close()
		client.Close()
		return nil, fmt.Errorf("cli: pty %s: %w", addr, err)
	}

	stdin, err := session.StdinPipe()
	if err != nil {
		session.Close()
		client.Close()
		return nil, fmt.Errorf("cli: stdin %s: %w", addr, err)
	}
	stdout, err := session.StdoutPipe()
	if err != nil {
		session.Close()
		client.Close()
		return nil, fmt.Errorf("cli: stdout %s: %w", addr, err)
	}

	if err := session.Shell(); err != nil {
		session.Close()
		client.Close()
		return nil, fmt.Errorf("cli: shell %s: %w", addr, err)
	}

	s := &sshSession{
		client:      client,
		session:     session,
		stdin:       stdin,
		chunks:      make(chan []byte, 8),
		readErr:     make(chan error, 1),
		prompt:      cfg.Prompt,
		readTimeout: cfg.ReadTimeout,
		logger:      slog.Default(),
	}
	go s.pump(stdout)

	// Swallow the login banner up to the first prompt.
	if _, err := s.collect(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("cli: initial prompt %s: %w", addr, err)
	}
	return s, nil
}

func authMethods(cred Credential) ([]ssh.AuthMethod, error) {
	if cred.PrivateKey != "" {
		signer, err := ssh.ParsePrivateKey([]byte(cred.PrivateKey))
		if err != nil {
			return nil, fmt.Errorf("cli: parse private key: %w", err)
		}
		return []ssh.AuthMethod{ssh.PublicKeys(signer)}, nil
	}
	if cred.Password == "" {
		return nil, fmt.Errorf("cli: credential has neither password nor key")
	}
	return []ssh.AuthMethod{
		ssh.Password(cred.Password),
		ssh.KeyboardInteractive(func(_, _ string, questions []string, _ []bool) ([]string, error) {
			answers := make([]string, len(questions))
			for i := range answers {
				answers[i] = cred.Password
			}
			return answers, nil
		}),
	}, nil
}

// pump moves stdout bytes onto the chunk channel until the stream ends.
func (s *sshSession) pump(r io.Reader) {
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			s.chunks <- chunk
		}
		if err != nil {
			s.readErr <- err
			return
		}
	}
}

// Run implements Session.
func (s *sshSession) Run(ctx context.Context, cmd string) (string, error) {
	if _, err := io.WriteString(s.stdin, cmd+"\n"); err != nil {
		return "", fmt.Errorf("cli: write %q: %w", cmd, err)
	}
	out, err := s.collect(ctx)
	if err != nil {
		return "", fmt.Errorf("cli: %q: %w", cmd, err)
	}
	return out, nil
}

// collect accumulates output until the prompt pattern matches the tail of
// the buffer, the read timeout elapses, or the context is cancelled. The
// matched prompt line is stripped from the returned text.
func (s *sshSession) collect(ctx context.Context) (string, error) {
	var buf bytes.Buffer
	timer := time.NewTimer(s.readTimeout)
	defer timer.Stop()

	for {
		// Check after every chunk so a prompt split across reads still matches.
		if loc := lastPromptIndex(s.prompt, buf.Bytes()); loc >= 0 {
			return buf.String()[:loc], nil
		}

		select {
		case chunk := <-s.chunks:
			buf.Write(chunk)
		case err := <-s.readErr:
			return buf.String(), fmt.Errorf("stream closed: %w", err)
		case <-timer.C:
			return buf.String(), fmt.Errorf("prompt not seen within %s", s.readTimeout)
		case <-ctx.Done():
			return buf.String(), ctx.Err()
		}
	}
}

// lastPromptIndex returns the start offset of a prompt match that reaches
// the end of data, or -1. Only a match at the very tail means the device is
// done talking.
func lastPromptIndex(prompt *regexp.Regexp, data []byte) int {
	locs := prompt.FindAllIndex(data, -1)
	if len(locs) == 0 {
		return -1
	}
	last := locs[len(locs)-1]
	rest := bytes.TrimRight(data[last[1]:], " \r\n")
	if len(rest) != 0 {
		return -1
	}
	return last[0]
}

// Close tears down the shell and the underlying connection.
func (s *sshSession) Close() error {
	_ = s.stdin.Close()
	_ = s.session.Close()
	return s.client.Close()
}
