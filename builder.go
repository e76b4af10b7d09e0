package sinklog

import (
	"net/url"
	"sort"

	"github.com/Station-Manager/errors"
)

// sinkConfig is the builder's view of one severity.
type sinkConfig struct {
	Console bool     `mapstructure:"console"`
	Paths   []string `mapstructure:"paths" validate:"dive,required"`
}

func (c *sinkConfig) addPath(path string) {
	for _, p := range c.Paths {
		if p == path {
			return
		}
	}
	c.Paths = append(c.Paths, path)
}

// remotePath is the path registered with /init; the remote variant keeps at
// most one path per severity.
func (c *sinkConfig) remotePath() string {
	if len(c.Paths) == 0 {
		return emptyString
	}
	return c.Paths[len(c.Paths)-1]
}

func sinkFor(sinks map[Severity]*sinkConfig, sev Severity) *sinkConfig {
	cfg, ok := sinks[sev]
	if !ok {
		cfg = &sinkConfig{}
		sinks[sev] = cfg
	}
	return cfg
}

func sortedSeverities[T any](m map[Severity]T) []Severity {
	out := make([]Severity, 0, len(m))
	for sev := range m {
		out = append(out, sev)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// LocalBuilder configures LocalLoggers.
type LocalBuilder struct {
	sinks  map[Severity]*sinkConfig
	format string
	opts   options
}

// NewLocalBuilder returns an empty builder. Without WithRegistry the loggers
// it builds share files through DefaultRegistry.
func NewLocalBuilder(opts ...Option) *LocalBuilder {
	return &LocalBuilder{
		sinks: make(map[Severity]*sinkConfig),
		opts:  newOptions(opts),
	}
}

// AddFileStream appends path to the files of severity. A path already
// configured for that severity is not added twice.
func (b *LocalBuilder) AddFileStream(path string, severity Severity) Builder {
	sinkFor(b.sinks, severity).addPath(path)
	return b
}

func (b *LocalBuilder) AddConsoleStream(severity Severity) Builder {
	sinkFor(b.sinks, severity).Console = true
	return b
}

// SetFormat sets the template used by Render. An empty template selects
// DefaultFormat at build time.
func (b *LocalBuilder) SetFormat(template string) Builder {
	b.format = template
	return b
}

// SetDestination always fails: local loggers have no destination.
func (b *LocalBuilder) SetDestination(string) error {
	const op errors.Op = "sinklog.LocalBuilder.SetDestination"
	return errors.New(op).Err(ErrUnsupportedOperation).Msg(errMsgUnsupportedOp)
}

func (b *LocalBuilder) TransformWithConfiguration(docPath, keyPath string) error {
	return transformWithConfiguration(b, docPath, keyPath, false)
}

func (b *LocalBuilder) Clear() Builder {
	b.sinks = make(map[Severity]*sinkConfig)
	b.format = emptyString
	return b
}

func (b *LocalBuilder) Build() (Logger, error) {
	l, err := b.BuildLocal()
	if err != nil {
		return nil, err
	}
	return l, nil
}

// BuildLocal is Build with the concrete result type.
func (b *LocalBuilder) BuildLocal() (*LocalLogger, error) {
	const op errors.Op = "sinklog.LocalBuilder.Build"
	if b == nil {
		return nil, errors.New(op).Err(ErrConfiguration).Msg(errMsgNilBuilder)
	}
	if err := validateSinks(b.sinks); err != nil {
		return nil, err
	}

	format := b.format
	if format == emptyString {
		format = DefaultFormat
	}
	return newLocalLogger(format, b.sinks, b.opts)
}

// RemoteBuilder configures RemoteLoggers.
type RemoteBuilder struct {
	sinks       map[Severity]*sinkConfig
	destination string
	opts        options
}

// NewRemoteBuilder returns an empty builder targeting DefaultDestination.
func NewRemoteBuilder(opts ...Option) *RemoteBuilder {
	return &RemoteBuilder{
		sinks:       make(map[Severity]*sinkConfig),
		destination: DefaultDestination,
		opts:        newOptions(opts),
	}
}

// AddFileStream sets the single path registered for severity, replacing any
// previous one.
func (b *RemoteBuilder) AddFileStream(path string, severity Severity) Builder {
	sinkFor(b.sinks, severity).Paths = []string{path}
	return b
}

func (b *RemoteBuilder) AddConsoleStream(severity Severity) Builder {
	sinkFor(b.sinks, severity).Console = true
	return b
}

// SetFormat is a no-op: remote lines use RemoteFormat.
func (b *RemoteBuilder) SetFormat(string) Builder {
	return b
}

// SetDestination sets the aggregation service address. A bare host:port is
// treated as http.
func (b *RemoteBuilder) SetDestination(address string) error {
	const op errors.Op = "sinklog.RemoteBuilder.SetDestination"
	dest := normalizeDestination(address)
	u, err := url.ParseRequestURI(dest)
	if err != nil || u.Host == emptyString {
		if err == nil {
			err = ErrConfiguration
		}
		return errors.New(op).Err(wrapConfiguration(err)).Msg(errMsgRemoteDestination)
	}
	b.destination = dest
	return nil
}

// Destination returns the currently configured address.
func (b *RemoteBuilder) Destination() string {
	return b.destination
}

func (b *RemoteBuilder) TransformWithConfiguration(docPath, keyPath string) error {
	return transformWithConfiguration(b, docPath, keyPath, true)
}

// Clear drops all sinks and restores DefaultDestination.
func (b *RemoteBuilder) Clear() Builder {
	b.sinks = make(map[Severity]*sinkConfig)
	b.destination = DefaultDestination
	return b
}

func (b *RemoteBuilder) Build() (Logger, error) {
	l, err := b.BuildRemote()
	if err != nil {
		return nil, err
	}
	return l, nil
}

// BuildRemote is Build with the concrete result type.
func (b *RemoteBuilder) BuildRemote() (*RemoteLogger, error) {
	const op errors.Op = "sinklog.RemoteBuilder.Build"
	if b == nil {
		return nil, errors.New(op).Err(ErrConfiguration).Msg(errMsgNilBuilder)
	}
	if err := validateSinks(b.sinks); err != nil {
		return nil, err
	}
	if err := validateDestination(b.destination); err != nil {
		return nil, err
	}
	return newRemoteLogger(b.destination, b.sinks, b.opts)
}
