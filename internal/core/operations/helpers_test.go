package operations

import (
	"context"
	"io"
	"strings"
	"sync"
)

// fakeSession is a scripted device session. Commands are matched by substring
// against the script keys; unmatched commands return the fallback output.
type fakeSession struct {
	mu       sync.Mutex
	target   string
	script   map[string]string
	errors   map[string]error
	fallback string
	commands []string
	uploads  []string
}

func newFakeSession(target string) *fakeSession {
	return &fakeSession{
		target: target,
		script: make(map[string]string),
		errors: make(map[string]error),
	}
}

func (s *fakeSession) Target() string { return s.target }

func (s *fakeSession) Run(ctx context.Context, cmd string) (string, error) {
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commands = append(s.commands, cmd)
	for key, err := range s.errors {
		if strings.Contains(cmd, key) {
			return "", err
		}
	}
	for key, out := range s.script {
		if strings.Contains(cmd, key) {
			return out, nil
		}
	}
	return s.fallback, nil
}

func (s *fakeSession) Upload(ctx context.Context, src io.Reader, remotePath string) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if _, err := io.Copy(io.Discard, src); err != nil {
		return err
	}
	s.mu.Lock()
	s.uploads = append(s.uploads, remotePath)
	s.mu.Unlock()
	return nil
}

func (s *fakeSession) Close() error { return nil }

func (s *fakeSession) ran(substr string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cmd := range s.commands {
		if strings.Contains(cmd, substr) {
			return true
		}
	}
	return false
}

func (s *fakeSession) ranExact(cmd string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.commands {
		if c == cmd {
			return true
		}
	}
	return false
}

// recordSink captures emitted log lines.
type recordSink struct {
	mu    sync.Mutex
	lines []string
}

func (s *recordSink) Emit(level, message string) {
	s.mu.Lock()
	s.lines = append(s.lines, level+": "+message)
	s.mu.Unlock()
}
