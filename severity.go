package sinklog

import (
	"strings"

	"github.com/Station-Manager/errors"
)

// Severity is a named log level used as a routing key. The order only
// determines display and iteration order; nothing is filtered by threshold.
type Severity uint32

const (
	Trace Severity = iota
	Debug
	Information
	Warning
	Error
	Critical
)

var severityNames = [...]string{
	Trace:       "trace",
	Debug:       "debug",
	Information: "information",
	Warning:     "warning",
	Error:       "error",
	Critical:    "critical",
}

var severityAliases = map[string]Severity{
	"info": Information,
	"warn": Warning,
}

// Severities returns every severity in ascending order.
func Severities() []Severity {
	out := make([]Severity, len(severityNames))
	for i := range severityNames {
		out[i] = Severity(i)
	}
	return out
}

// Valid reports whether s is one of the defined severities.
func (s Severity) Valid() bool {
	return int(s) < len(severityNames)
}

func (s Severity) String() string {
	if !s.Valid() {
		return "unknown"
	}
	return severityNames[s]
}

// ParseSeverity maps a case-insensitive name (or the aliases "info" and
// "warn") to a Severity. Other names fail with ErrUnknownSeverity.
func ParseSeverity(name string) (Severity, error) {
	const op errors.Op = "sinklog.ParseSeverity"
	key := strings.ToLower(strings.TrimSpace(name))
	for i, n := range severityNames {
		if n == key {
			return Severity(i), nil
		}
	}
	if s, ok := severityAliases[key]; ok {
		return s, nil
	}
	return 0, errors.New(op).Err(ErrUnknownSeverity).Msg(errMsgUnknownSeverity + " " + name)
}
