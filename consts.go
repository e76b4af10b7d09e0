package sinklog

import "time"

const (
	emptyString   = ""
	lineSeparator = "\n"

	// DefaultFormat is used by the local builder when no format was set.
	DefaultFormat = "%d %t [%s] %m"
	// RemoteFormat is the fixed line layout sent by the remote logger.
	RemoteFormat = "%d %t [%s] %m"
	// DefaultDestination is the remote builder's address after NewRemoteBuilder or Clear.
	DefaultDestination = "http://localhost:8080"
	// DefaultRemoteTimeout bounds each request to the aggregation service.
	DefaultRemoteTimeout = 10 * time.Second

	dateLayout = "2006-01-02"
	timeLayout = "15:04:05"

	fileMode = 0o644
)

// Reserved keys of a configuration section; every other key names a severity.
const (
	configKeyFormat      = "format"
	configKeyDestination = "destination"
)

// Remote protocol endpoints and parameters.
const (
	endpointInit    = "/init"
	endpointLog     = "/log"
	endpointDestroy = "/destroy"

	paramPID     = "pid"
	paramSev     = "sev"
	paramPath    = "path"
	paramConsole = "console"
	paramMessage = "message"
)

const (
	errMsgNilBuilder        = "Logger builder is nil."
	errMsgNilLogger         = "Logger is nil."
	errMsgLoggerClosed      = "Logger is closed."
	errMsgStreamReleased    = "Stream has been released."
	errMsgOpenStream        = "Failed to open log file."
	errMsgCloseStream       = "Failed to close log file."
	errMsgConfigInvalid     = "Logger configuration is invalid."
	errMsgConfigOpen        = "Failed to open configuration document."
	errMsgConfigParse       = "Failed to parse configuration document."
	errMsgConfigKeyMissing  = "Configuration key path not found."
	errMsgConfigSection     = "Configuration section is malformed."
	errMsgUnsupportedOp     = "Operation is not supported by this builder."
	errMsgUnknownSeverity   = "Unknown severity name."
	errMsgRemoteRequest     = "Remote logging request failed."
	errMsgRemoteDestination = "Remote destination is invalid."
)
