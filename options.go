package sinklog

import (
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Option configures a builder and the loggers it builds.
type Option func(*options)

type options struct {
	registry *Registry
	console  io.Writer
	clock    func() time.Time
	diag     zerolog.Logger
	client   *http.Client
	pid      int
	timeout  time.Duration
}

func defaultOptions() options {
	return options{
		clock:   time.Now,
		diag:    zerolog.Nop(),
		pid:     os.Getpid(),
		timeout: DefaultRemoteTimeout,
	}
}

func newOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.registry == nil {
		o.registry = DefaultRegistry()
	}
	o.console = consoleWriter(o.console)
	return o
}

// WithRegistry makes local loggers share files through r instead of the
// process-wide DefaultRegistry.
func WithRegistry(r *Registry) Option {
	return func(o *options) {
		o.registry = r
	}
}

// WithConsole replaces standard output as the console sink.
func WithConsole(w io.Writer) Option {
	return func(o *options) {
		o.console = w
	}
}

// WithClock sets the time source used for %d and %t.
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithDiagnostics sets the logger that receives the package's own events,
// such as dropped writes and failed remote requests.
func WithDiagnostics(l zerolog.Logger) Option {
	return func(o *options) {
		o.diag = l
	}
}

// WithHTTPClient sets the client used to reach the aggregation service.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.client = c
	}
}

// WithPID overrides the process id sent to the aggregation service.
func WithPID(pid int) Option {
	return func(o *options) {
		o.pid = pid
	}
}

// WithTimeout bounds each remote request when no client was supplied.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}
