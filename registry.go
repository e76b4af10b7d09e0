package sinklog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/Station-Manager/errors"
	"github.com/rs/zerolog"
	"go.uber.org/atomic"
)

// Registry shares open log files between streams by path. Each path has at
// most one open handle; it is opened by the first Stream.Open and closed when
// the last Stream referencing the path is released.
//
// A Registry is safe for concurrent use. Reference counting is guarded by the
// registry lock and every write to a path is serialised by a per-path lock.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*registryEntry
	open    func(path string) (io.WriteCloser, error)
	diag    zerolog.Logger
}

type registryEntry struct {
	refs int
	mu   sync.Mutex
	file io.WriteCloser
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithOpener replaces the function used to open a path for appending.
func WithOpener(open func(path string) (io.WriteCloser, error)) RegistryOption {
	return func(r *Registry) {
		if open != nil {
			r.open = open
		}
	}
}

// WithRegistryDiagnostics sets the logger receiving open/close events.
func WithRegistryDiagnostics(l zerolog.Logger) RegistryOption {
	return func(r *Registry) {
		r.diag = l
	}
}

// NewRegistry returns an empty registry that opens files with openLogFile
// unless WithOpener says otherwise.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		entries: make(map[string]*registryEntry),
		open:    openLogFile,
		diag:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// DefaultRegistry returns the process-wide registry used by builders that
// were not given one explicitly.
func DefaultRegistry() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// Acquire registers one more holder of path and returns its stream. No I/O
// happens until Open.
func (r *Registry) Acquire(path string) *Stream {
	key := registryKey(path)

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[key]
	if !ok {
		e = &registryEntry{}
		r.entries[key] = e
	}
	e.refs++
	return &Stream{registry: r, path: key, entry: e}
}

// Refs returns the number of live streams for path.
func (r *Registry) Refs(path string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[registryKey(path)]; ok {
		return e.refs
	}
	return 0
}

// IsOpen reports whether path currently has an open handle.
func (r *Registry) IsOpen(path string) bool {
	r.mu.Lock()
	e, ok := r.entries[registryKey(path)]
	r.mu.Unlock()
	if !ok {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.file != nil
}

// Len returns the number of registered paths.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Stream is one holder's reference to a registry path.
type Stream struct {
	registry *Registry
	path     string
	entry    *registryEntry
	opened   atomic.Bool
	released atomic.Bool
}

// Path returns the registry key of the stream.
func (s *Stream) Path() string {
	return s.path
}

// Open binds the stream to the path's open handle, opening the file if no
// holder has done so yet. Calling Open again is a no-op.
func (s *Stream) Open() error {
	const op errors.Op = "sinklog.Stream.Open"
	if s.released.Load() {
		return errors.New(op).Err(fmt.Errorf("%w: %s", ErrResource, s.path)).Msg(errMsgStreamReleased)
	}
	if s.opened.Load() {
		return nil
	}

	r := s.registry
	r.mu.Lock()
	defer r.mu.Unlock()

	if s.released.Load() {
		return errors.New(op).Err(fmt.Errorf("%w: %s", ErrResource, s.path)).Msg(errMsgStreamReleased)
	}

	s.entry.mu.Lock()
	defer s.entry.mu.Unlock()

	if s.entry.file == nil {
		f, err := r.open(s.path)
		if err != nil {
			withErrorChain(r.diag.Error(), err).Str("path", s.path).Msg("open log file")
			return errors.New(op).Err(fmt.Errorf("%w: %w", ErrResource, err)).Msg(errMsgOpenStream)
		}
		s.entry.file = f
		r.diag.Debug().Str("path", s.path).Msg("log file opened")
	}
	s.opened.Store(true)
	return nil
}

// Clone registers another holder of the same path. The clone shares the
// open handle, if any, and must be released independently.
func (s *Stream) Clone() (*Stream, error) {
	const op errors.Op = "sinklog.Stream.Clone"
	if s.released.Load() {
		return nil, errors.New(op).Err(fmt.Errorf("%w: %s", ErrResource, s.path)).Msg(errMsgStreamReleased)
	}

	r := s.registry
	r.mu.Lock()
	defer r.mu.Unlock()

	if s.released.Load() {
		return nil, errors.New(op).Err(fmt.Errorf("%w: %s", ErrResource, s.path)).Msg(errMsgStreamReleased)
	}
	s.entry.refs++
	c := &Stream{registry: r, path: s.path, entry: s.entry}
	c.opened.Store(s.opened.Load())
	return c, nil
}

// Write writes p to the shared handle as one unit.
func (s *Stream) Write(p []byte) (int, error) {
	if s.released.Load() || !s.opened.Load() {
		return 0, os.ErrClosed
	}
	e := s.entry
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.file == nil {
		return 0, os.ErrClosed
	}
	return e.file.Write(p)
}

// Release drops this holder. Releasing the last holder closes the file and
// forgets the path. Release is idempotent.
func (s *Stream) Release() error {
	const op errors.Op = "sinklog.Stream.Release"
	if !s.released.CompareAndSwap(false, true) {
		return nil
	}

	r := s.registry
	r.mu.Lock()
	defer r.mu.Unlock()

	e := s.entry
	e.refs--
	if e.refs > 0 {
		return nil
	}
	delete(r.entries, s.path)

	e.mu.Lock()
	f := e.file
	e.file = nil
	e.mu.Unlock()

	if f == nil {
		return nil
	}
	if err := f.Close(); err != nil {
		withErrorChain(r.diag.Error(), err).Str("path", s.path).Msg("close log file")
		return errors.New(op).Err(fmt.Errorf("%w: %w", ErrResource, err)).Msg(errMsgCloseStream)
	}
	r.diag.Debug().Str("path", s.path).Msg("log file closed")
	return nil
}

func registryKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
