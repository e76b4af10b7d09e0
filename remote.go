package sinklog

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Station-Manager/errors"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/atomic"
)

// RemoteLogger forwards every call to an aggregation service. The service
// keys its state by process id, so all RemoteLoggers of one process share a
// single remote session.
type RemoteLogger struct {
	mu          sync.Mutex
	destination string
	client      *http.Client
	pid         int
	clock       func() time.Time
	diag        zerolog.Logger
	closed      atomic.Bool
}

// newRemoteLogger registers every configured sink with /init before the
// logger is handed out. The first failure aborts construction.
func newRemoteLogger(destination string, sinks map[Severity]*sinkConfig, o options) (*RemoteLogger, error) {
	const op errors.Op = "sinklog.newRemoteLogger"

	client := o.client
	if client == nil {
		client = newHTTPClient(o.timeout)
	}
	l := &RemoteLogger{
		destination: destination,
		client:      client,
		pid:         o.pid,
		clock:       o.clock,
		diag:        o.diag,
	}

	for _, sev := range sortedSeverities(sinks) {
		cfg := sinks[sev]
		params := url.Values{}
		params.Set(paramPID, strconv.Itoa(l.pid))
		params.Set(paramSev, sev.String())
		params.Set(paramPath, cfg.remotePath())
		params.Set(paramConsole, boolParam(cfg.Console))
		if err := l.request(endpointInit, params); err != nil {
			return nil, errors.New(op).Err(err).Msg(errMsgRemoteRequest)
		}
	}

	l.diag.Debug().Str("destination", l.destination).Int("pid", l.pid).Msg("remote logger built")
	return l, nil
}

// newHTTPClient returns a pooled client with a bounded timeout and a traced
// transport.
func newHTTPClient(timeout time.Duration) *http.Client {
	c := cleanhttp.DefaultPooledClient()
	c.Timeout = timeout
	c.Transport = otelhttp.NewTransport(c.Transport)
	return c
}

// Log sends one rendered line to /log. Every severity is forwarded; the
// service decides where it goes.
func (l *RemoteLogger) Log(message string, severity Severity) error {
	const op errors.Op = "sinklog.RemoteLogger.Log"
	if l == nil {
		return errors.New(op).Err(ErrConfiguration).Msg(errMsgNilLogger)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed.Load() {
		return errors.New(op).Err(ErrProtocol).Msg(errMsgLoggerClosed)
	}

	params := url.Values{}
	params.Set(paramPID, strconv.Itoa(l.pid))
	params.Set(paramSev, severity.String())
	params.Set(paramMessage, Render(RemoteFormat, message, severity, l.clock()))
	if err := l.request(endpointLog, params); err != nil {
		return errors.New(op).Err(err).Msg(errMsgRemoteRequest)
	}
	return nil
}

// Clone returns a logger with its own client bound to the same destination.
// The sinks are not registered again.
func (l *RemoteLogger) Clone() (Logger, error) {
	const op errors.Op = "sinklog.RemoteLogger.Clone"
	if l == nil {
		return nil, errors.New(op).Err(ErrConfiguration).Msg(errMsgNilLogger)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed.Load() {
		return nil, errors.New(op).Err(ErrProtocol).Msg(errMsgLoggerClosed)
	}
	return &RemoteLogger{
		destination: l.destination,
		client:      copyClient(l.client),
		pid:         l.pid,
		clock:       l.clock,
		diag:        l.diag,
	}, nil
}

// Assign sends /destroy for l's session and then rebinds l to other's
// destination. A failed /destroy leaves l unchanged.
func (l *RemoteLogger) Assign(other *RemoteLogger) error {
	const op errors.Op = "sinklog.RemoteLogger.Assign"
	if l == nil || other == nil {
		return errors.New(op).Err(ErrConfiguration).Msg(errMsgNilLogger)
	}
	if l == other {
		return nil
	}

	other.mu.Lock()
	if other.closed.Load() {
		other.mu.Unlock()
		return errors.New(op).Err(ErrProtocol).Msg(errMsgLoggerClosed)
	}
	destination, client, pid, clock, diag := other.destination, copyClient(other.client), other.pid, other.clock, other.diag
	other.mu.Unlock()

	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.closed.Load() {
		if err := l.destroy(); err != nil {
			return errors.New(op).Err(err).Msg(errMsgRemoteRequest)
		}
	}
	l.destination, l.client, l.pid, l.clock, l.diag = destination, client, pid, clock, diag
	l.closed.Store(false)
	return nil
}

// Close sends /destroy so the service can drop the process's state. Only the
// first call contacts the service.
func (l *RemoteLogger) Close() error {
	const op errors.Op = "sinklog.RemoteLogger.Close"
	if l == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.closed.CompareAndSwap(false, true) {
		return nil
	}
	if err := l.destroy(); err != nil {
		return errors.New(op).Err(err).Msg(errMsgRemoteRequest)
	}
	return nil
}

// Destination returns the normalised service address.
func (l *RemoteLogger) Destination() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.destination
}

func (l *RemoteLogger) destroy() error {
	params := url.Values{}
	params.Set(paramPID, strconv.Itoa(l.pid))
	return l.request(endpointDestroy, params)
}

// request issues GET destination+endpoint and requires 204 No Content.
func (l *RemoteLogger) request(endpoint string, params url.Values) error {
	target := l.destination + endpoint + "?" + params.Encode()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, target, nil)
	if err != nil {
		return &ProtocolError{Endpoint: endpoint, Err: err}
	}

	resp, err := l.client.Do(req)
	if err != nil {
		perr := &ProtocolError{Endpoint: endpoint, Err: err}
		withErrorChain(l.diag.Error(), perr).Str("endpoint", endpoint).Msg("remote request failed")
		return perr
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusNoContent {
		perr := &ProtocolError{Endpoint: endpoint, StatusCode: resp.StatusCode}
		withErrorChain(l.diag.Error(), perr).Str("endpoint", endpoint).Msg("remote request rejected")
		return perr
	}
	l.diag.Trace().Str("endpoint", endpoint).Msg("remote request accepted")
	return nil
}

func copyClient(c *http.Client) *http.Client {
	if c == nil {
		return newHTTPClient(DefaultRemoteTimeout)
	}
	cp := *c
	return &cp
}

// normalizeDestination adds an http scheme to bare host:port addresses and
// drops trailing slashes.
func normalizeDestination(address string) string {
	address = strings.TrimSpace(address)
	if address == emptyString {
		return emptyString
	}
	if !strings.Contains(address, "://") {
		address = "http://" + address
	}
	return strings.TrimRight(address, "/")
}

func boolParam(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
