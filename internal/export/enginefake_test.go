package export

import (
	"context"
	"fmt"
	"sync"

	"github.com/walidouda/storybook-export/internal/engine"
)

// Compile-time checks that the fakes satisfy the engine interfaces.
var (
	_ engine.Engine = (*fakeEngine)(nil)
	_ engine.Scope  = (*fakeScope)(nil)
)

// fakeEngine hands out in-memory scopes and records them for inspection.
// runHook, when set, is installed on every scope it creates.
type fakeEngine struct {
	mu      sync.Mutex
	scopes  []*fakeScope
	newErr  error
	runHook func(args []string) error
}

func (e *fakeEngine) NewScope(_ string) (engine.Scope, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.newErr != nil {
		return nil, e.newErr
	}
	s := newFakeScope()
	s.runHook = e.runHook
	e.scopes = append(e.scopes, s)
	return s, nil
}

// fakeScope is an in-memory engine scope. Run records its arguments and
// fabricates the output buffer (the last argument) unless runHook overrides
// the outcome.
type fakeScope struct {
	mu       sync.Mutex
	buffers  map[string][]byte
	runs     [][]string
	writeErr error
	runHook  func(args []string) error
	closed   bool
}

func newFakeScope() *fakeScope {
	return &fakeScope{buffers: make(map[string][]byte)}
}

func (s *fakeScope) WriteBuffer(name string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	s.buffers[name] = buf
	return nil
}

func (s *fakeScope) ReadBuffer(name string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.buffers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", engine.ErrBufferNotFound, name)
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	return buf, nil
}

func (s *fakeScope) Run(_ context.Context, args ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	recorded := make([]string, len(args))
	copy(recorded, args)
	s.runs = append(s.runs, recorded)
	if s.runHook != nil {
		if err := s.runHook(args); err != nil {
			return err
		}
	}
	output := args[len(args)-1]
	s.buffers[output] = []byte("encoded:" + output)
	return nil
}

func (s *fakeScope) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeScope) runCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.runs)
}

func (s *fakeScope) hasBuffer(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.buffers[name]
	return ok
}
