package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"path"
	"sync"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"

	"github.com/netfleet/backend/internal/core/ports"
	"github.com/netfleet/backend/internal/domain"
	"github.com/netfleet/backend/internal/infrastructure/logger"
)

var (
	ErrSSHConnection     = errors.New("ssh: connection failed")
	ErrSSHAuthentication = errors.New("ssh: authentication failed")
	ErrSSHCommandFailed  = errors.New("ssh: command execution failed")
)

// SSHProvider opens device sessions over SSH. One Open call is one dial
// attempt bounded by the context deadline; the runner owns the retry policy.
type SSHProvider struct {
	log *logger.Logger
}

func NewSSHProvider(log *logger.Logger) *SSHProvider {
	return &SSHProvider{log: log}
}

func (p *SSHProvider) Open(ctx context.Context, endpoint domain.Endpoint) (ports.Session, error) {
	authMethods, err := authMethodsFor(endpoint)
	if err != nil {
		return nil, err
	}

	timeout := 30 * time.Second
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}

	sshConfig := &ssh.ClientConfig{
		User:            endpoint.User,
		Auth:            authMethods,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         timeout,
		// Optimize for high latency / unstable networks
		Config: ssh.Config{
			Ciphers: []string{
				"chacha20-poly1305@openssh.com",
				"aes128-gcm@openssh.com",
				"aes128-ctr",
			},
		},
	}

	port := endpoint.Port
	if port == 0 {
		port = 22
	}
	addr := fmt.Sprintf("%s:%d", endpoint.Host, port)

	dialer := net.Dialer{KeepAlive: 60 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSSHConnection, err)
	}

	// Deadline covers the SSH handshake only; cleared for the session.
	conn.SetDeadline(time.Now().Add(timeout))
	c, chans, reqs, err := ssh.NewClientConn(conn, addr, sshConfig)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: %v", ErrSSHConnection, err)
	}
	conn.SetDeadline(time.Time{})

	p.log.Debugw("ssh_session_opened", "target", endpoint.Target, "addr", addr)
	return &sshSession{
		target: endpoint.Target,
		client: ssh.NewClient(c, chans, reqs),
	}, nil
}

func authMethodsFor(endpoint domain.Endpoint) ([]ssh.AuthMethod, error) {
	var authMethods []ssh.AuthMethod

	if endpoint.PrivateKey != "" {
		signer, err := ssh.ParsePrivateKey([]byte(endpoint.PrivateKey))
		if err != nil {
			return nil, fmt.Errorf("%w: invalid private key", ErrSSHAuthentication)
		}
		authMethods = append(authMethods, ssh.PublicKeys(signer))
	}

	if endpoint.Password != "" {
		authMethods = append(authMethods, ssh.Password(endpoint.Password))
	}

	if len(authMethods) == 0 {
		return nil, fmt.Errorf("%w: no credentials provided", ErrSSHAuthentication)
	}

	return authMethods, nil
}

type sshSession struct {
	target    string
	client    *ssh.Client
	closeOnce sync.Once
	closeErr  error
}

func (s *sshSession) Target() string { return s.target }

func (s *sshSession) Run(ctx context.Context, cmd string) (string, error) {
	session, err := s.client.NewSession()
	if err != nil {
		return "", fmt.Errorf("%w: failed to create session", ErrSSHConnection)
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	done := make(chan error, 1)
	go func() {
		done <- session.Run(cmd)
	}()

	select {
	case <-ctx.Done():
		session.Signal(ssh.SIGKILL)
		session.Close()
		return "", fmt.Errorf("command cancelled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			errMsg := stderr.String()
			if errMsg == "" {
				errMsg = err.Error()
			}
			return stdout.String(), fmt.Errorf("%w: %s", ErrSSHCommandFailed, errMsg)
		}
	}

	return stdout.String(), nil
}

func (s *sshSession) Upload(ctx context.Context, src io.Reader, remotePath string) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	client, err := sftp.NewClient(s.client)
	if err != nil {
		return fmt.Errorf("%w: sftp subsystem: %v", ErrSSHConnection, err)
	}
	defer client.Close()

	if dir := path.Dir(remotePath); dir != "." && dir != "/" {
		if err := client.MkdirAll(dir); err != nil {
			return fmt.Errorf("failed to create remote directory %s: %w", dir, err)
		}
	}

	f, err := client.Create(remotePath)
	if err != nil {
		return fmt.Errorf("failed to create remote file %s: %w", remotePath, err)
	}
	defer f.Close()

	done := make(chan error, 1)
	go func() {
		_, err := io.Copy(f, src)
		done <- err
	}()

	select {
	case <-ctx.Done():
		f.Close()
		return fmt.Errorf("upload cancelled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("upload to %s failed: %w", remotePath, err)
		}
	}
	return nil
}

func (s *sshSession) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.client.Close()
	})
	return s.closeErr
}
