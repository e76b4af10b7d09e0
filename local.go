package sinklog

import (
	stderrs "errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/Station-Manager/errors"
	"github.com/rs/zerolog"
	"go.uber.org/atomic"
)

// route holds the sinks of one severity.
type route struct {
	console bool
	streams []*Stream
}

// LocalLogger writes rendered lines to the console and to shared files,
// per severity. Obtain one from LocalBuilder.Build.
type LocalLogger struct {
	mu       sync.RWMutex
	format   string
	routes   map[Severity]*route
	console  io.Writer
	clock    func() time.Time
	diag     zerolog.Logger
	registry *Registry
	closed   atomic.Bool
}

// newLocalLogger acquires and opens every configured path. Any open failure
// releases what was acquired and fails the build.
func newLocalLogger(format string, sinks map[Severity]*sinkConfig, o options) (*LocalLogger, error) {
	const op errors.Op = "sinklog.newLocalLogger"

	l := &LocalLogger{
		format:   format,
		routes:   make(map[Severity]*route, len(sinks)),
		console:  o.console,
		clock:    o.clock,
		diag:     o.diag,
		registry: o.registry,
	}

	for _, sev := range sortedSeverities(sinks) {
		cfg := sinks[sev]
		rt := &route{console: cfg.Console}
		l.routes[sev] = rt
		for _, path := range cfg.Paths {
			s := o.registry.Acquire(path)
			rt.streams = append(rt.streams, s)
			if err := s.Open(); err != nil {
				_ = releaseRoutes(l.routes)
				return nil, errors.New(op).Err(err).Msg(errMsgOpenStream)
			}
		}
	}

	l.diag.Debug().Int("severities", len(l.routes)).Str("format", l.format).Msg("local logger built")
	return l, nil
}

// Log renders message once and writes it to the console (if enabled) and then
// to each file configured for severity, in configuration order. Individual
// write failures are reported to diagnostics only.
func (l *LocalLogger) Log(message string, severity Severity) error {
	const op errors.Op = "sinklog.LocalLogger.Log"
	if l == nil {
		return errors.New(op).Err(ErrConfiguration).Msg(errMsgNilLogger)
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.closed.Load() {
		return errors.New(op).Err(ErrResource).Msg(errMsgLoggerClosed)
	}

	rt, ok := l.routes[severity]
	if !ok {
		return nil
	}

	line := []byte(Render(l.format, message, severity, l.clock()) + lineSeparator)

	if rt.console {
		if _, err := l.console.Write(line); err != nil {
			withErrorChain(l.diag.Warn(), err).Str("sink", "console").Msg("dropped log line")
		}
	}
	for _, s := range rt.streams {
		if _, err := s.Write(line); err != nil {
			withErrorChain(l.diag.Warn(), err).Str("sink", s.Path()).Msg("dropped log line")
		}
	}
	return nil
}

// Clone returns a logger with the same routing whose streams are new holders
// of the same files.
func (l *LocalLogger) Clone() (Logger, error) {
	const op errors.Op = "sinklog.LocalLogger.Clone"
	if l == nil {
		return nil, errors.New(op).Err(ErrConfiguration).Msg(errMsgNilLogger)
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.closed.Load() {
		return nil, errors.New(op).Err(ErrResource).Msg(errMsgLoggerClosed)
	}

	routes, err := cloneRoutes(l.routes)
	if err != nil {
		return nil, errors.New(op).Err(err).Msg(errMsgOpenStream)
	}
	return &LocalLogger{
		format:   l.format,
		routes:   routes,
		console:  l.console,
		clock:    l.clock,
		diag:     l.diag,
		registry: l.registry,
	}, nil
}

// Assign replaces l's configuration with a copy of other's, releasing the
// streams l held before.
func (l *LocalLogger) Assign(other *LocalLogger) error {
	const op errors.Op = "sinklog.LocalLogger.Assign"
	if l == nil || other == nil {
		return errors.New(op).Err(ErrConfiguration).Msg(errMsgNilLogger)
	}
	if l == other {
		return nil
	}

	other.mu.RLock()
	if other.closed.Load() {
		other.mu.RUnlock()
		return errors.New(op).Err(ErrResource).Msg(errMsgLoggerClosed)
	}
	routes, err := cloneRoutes(other.routes)
	format, console, clock, diag, registry := other.format, other.console, other.clock, other.diag, other.registry
	other.mu.RUnlock()
	if err != nil {
		return errors.New(op).Err(err).Msg(errMsgOpenStream)
	}

	l.mu.Lock()
	old := l.routes
	l.routes = routes
	l.format, l.console, l.clock, l.diag, l.registry = format, console, clock, diag, registry
	l.closed.Store(false)
	l.mu.Unlock()

	if err := releaseRoutes(old); err != nil {
		return errors.New(op).Err(err).Msg(errMsgCloseStream)
	}
	return nil
}

// Close releases every stream. Files close once no other logger holds them.
func (l *LocalLogger) Close() error {
	const op errors.Op = "sinklog.LocalLogger.Close"
	if l == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := releaseRoutes(l.routes)
	l.routes = nil
	if err != nil {
		return errors.New(op).Err(err).Msg(errMsgCloseStream)
	}
	return nil
}

// Routes returns the configured severities and, for each, its console flag
// and file paths in configuration order.
func (l *LocalLogger) Routes() map[Severity]RouteInfo {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make(map[Severity]RouteInfo, len(l.routes))
	for sev, rt := range l.routes {
		info := RouteInfo{Console: rt.console}
		for _, s := range rt.streams {
			info.Paths = append(info.Paths, s.Path())
		}
		out[sev] = info
	}
	return out
}

// RouteInfo describes the sinks of one severity.
type RouteInfo struct {
	Console bool
	Paths   []string
}

func cloneRoutes(routes map[Severity]*route) (map[Severity]*route, error) {
	out := make(map[Severity]*route, len(routes))
	for sev, rt := range routes {
		c := &route{console: rt.console}
		out[sev] = c
		for _, s := range rt.streams {
			cs, err := s.Clone()
			if err != nil {
				_ = releaseRoutes(out)
				return nil, fmt.Errorf("clone %s stream: %w", sev, err)
			}
			c.streams = append(c.streams, cs)
		}
	}
	return out, nil
}

func releaseRoutes(routes map[Severity]*route) error {
	var errs []error
	for _, rt := range routes {
		for _, s := range rt.streams {
			if err := s.Release(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return stderrs.Join(errs...)
}
