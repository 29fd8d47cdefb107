package remote

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/netfleet/backend/internal/core/ports"
	"github.com/netfleet/backend/internal/domain"
)

// MockProvider is the session provider for environments without reachable
// devices. It is selected explicitly via `provider.kind: mock` and doubles as
// the test stand-in for the runner: it records every open/close pair and can
// be scripted to fail connects or return canned command output.
type MockProvider struct {
	mu           sync.Mutex
	connectFails map[string]int
	opens        map[string]int
	closes       map[string]int
	openDelay    time.Duration
	runFunc      func(target, cmd string) (string, error)
}

func NewMockProvider() *MockProvider {
	return &MockProvider{
		connectFails: make(map[string]int),
		opens:        make(map[string]int),
		closes:       make(map[string]int),
	}
}

// FailConnect makes the next n Open calls for target fail. n < 0 means fail
// forever.
func (p *MockProvider) FailConnect(target string, n int) {
	p.mu.Lock()
	p.connectFails[target] = n
	p.mu.Unlock()
}

// SetOpenDelay makes every Open take at least d, for exercising timeouts and
// concurrency bounds.
func (p *MockProvider) SetOpenDelay(d time.Duration) {
	p.mu.Lock()
	p.openDelay = d
	p.mu.Unlock()
}

// SetRunFunc overrides the canned per-command output.
func (p *MockProvider) SetRunFunc(fn func(target, cmd string) (string, error)) {
	p.mu.Lock()
	p.runFunc = fn
	p.mu.Unlock()
}

func (p *MockProvider) Open(ctx context.Context, endpoint domain.Endpoint) (ports.Session, error) {
	p.mu.Lock()
	delay := p.openDelay
	p.mu.Unlock()
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if n, ok := p.connectFails[endpoint.Target]; ok && n != 0 {
		if n > 0 {
			p.connectFails[endpoint.Target] = n - 1
		}
		return nil, fmt.Errorf("%w: %s unreachable", ErrSSHConnection, endpoint.Target)
	}
	p.opens[endpoint.Target]++
	return &mockSession{provider: p, target: endpoint.Target}, nil
}

// OpenCount reports how many sessions were opened for target.
func (p *MockProvider) OpenCount(target string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.opens[target]
}

// Balanced reports whether every opened session has been closed again.
func (p *MockProvider) Balanced() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for target, n := range p.opens {
		if p.closes[target] != n {
			return false
		}
	}
	return true
}

func (p *MockProvider) sessionClosed(target string) {
	p.mu.Lock()
	p.closes[target]++
	p.mu.Unlock()
}

func (p *MockProvider) run(target, cmd string) (string, error) {
	p.mu.Lock()
	fn := p.runFunc
	p.mu.Unlock()
	if fn != nil {
		return fn(target, cmd)
	}
	return cannedOutput(target, cmd), nil
}

// cannedOutput keeps the built-in operations usable end to end in mock mode.
func cannedOutput(target, cmd string) string {
	switch {
	case strings.Contains(cmd, "show version"):
		return fmt.Sprintf("Hostname: device-%s\nModel: mx480\nJunos: 21.4R3.15\n", target)
	case strings.Contains(cmd, "ping"):
		return "5 packets transmitted, 5 packets received, 0% packet loss\nround-trip min/avg/max = 1.1/2.3/4.2 ms\n"
	case strings.Contains(cmd, "show interfaces"):
		return "ge-0/0/0 up up\nge-0/0/1 up up\nlo0 up up\n"
	case strings.Contains(cmd, "show bgp summary"):
		return "Peer 10.255.0.1 Established 1042\nPeer 10.255.0.2 Established 987\n"
	case strings.Contains(cmd, "show system alarms"):
		return "No alarms currently active\n"
	case strings.Contains(cmd, "show configuration | compare"):
		return "+ set system host-name updated\n"
	case strings.Contains(cmd, "sha256"):
		return "deadbeef  /var/tmp/image.tgz\n"
	default:
		return "commit complete\n"
	}
}

// PassthroughResolver maps a target straight to an endpoint without touching
// the inventory. Paired with the mock provider in tests and demo setups.
type PassthroughResolver struct{}

func (PassthroughResolver) ResolveEndpoint(_ context.Context, target string) (domain.Endpoint, error) {
	return domain.Endpoint{Target: target, Host: target, Port: 22}, nil
}

type mockSession struct {
	provider  *MockProvider
	target    string
	closeOnce sync.Once
}

func (s *mockSession) Target() string { return s.target }

func (s *mockSession) Run(ctx context.Context, cmd string) (string, error) {
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	return s.provider.run(s.target, cmd)
}

func (s *mockSession) Upload(ctx context.Context, src io.Reader, remotePath string) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	_, err := io.Copy(io.Discard, src)
	return err
}

func (s *mockSession) Close() error {
	s.closeOnce.Do(func() {
		s.provider.sessionClosed(s.target)
	})
	return nil
}
