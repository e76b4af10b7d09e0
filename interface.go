package sinklog

// Logger writes messages routed by severity. Implementations are LocalLogger
// and RemoteLogger.
type Logger interface {
	// Log renders message and delivers it to every sink configured for
	// severity. A severity with no configured sink is a no-op.
	Log(message string, severity Severity) error
	// Clone returns an independent logger sharing this one's resources:
	// file handles for LocalLogger, the remote session for RemoteLogger.
	Clone() (Logger, error)
	// Close releases the logger's resources. It is safe to call Close
	// multiple times.
	Close() error
}

// Builder accumulates sink configuration and materialises a Logger.
// Implementations are LocalBuilder and RemoteBuilder.
type Builder interface {
	AddFileStream(path string, severity Severity) Builder
	AddConsoleStream(severity Severity) Builder
	// SetFormat sets the line template. RemoteBuilder ignores it.
	SetFormat(template string) Builder
	// SetDestination sets the aggregation service address. LocalBuilder
	// returns ErrUnsupportedOperation.
	SetDestination(address string) error
	// TransformWithConfiguration applies the section at keyPath of the
	// configuration document at docPath.
	TransformWithConfiguration(docPath, keyPath string) error
	// Clear resets the builder to its freshly constructed state.
	Clear() Builder
	// Build returns a new logger. The builder is left unchanged and can be
	// built again.
	Build() (Logger, error)
}

var (
	_ Logger  = (*LocalLogger)(nil)
	_ Logger  = (*RemoteLogger)(nil)
	_ Builder = (*LocalBuilder)(nil)
	_ Builder = (*RemoteBuilder)(nil)
)
