package sinklog

import (
	"io"
	"os"
	"path/filepath"
	"sync"
)

// openLogFile opens path for appending, creating it and its directory.
func openLogFile(path string) (io.WriteCloser, error) {
	if dir := filepath.Dir(path); dir != emptyString {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return nil, err
		}
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, fileMode)
}

// syncWriter serialises writes to a writer shared by several loggers.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (sw *syncWriter) Write(p []byte) (int, error) {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	return sw.w.Write(p)
}

var stdoutWriter = &syncWriter{w: os.Stdout}

// consoleWriter returns the writer used for console sinks. A nil w selects
// the process-wide serialised standard output; other writers are wrapped once
// per builder, so every logger it builds shares the same lock.
func consoleWriter(w io.Writer) io.Writer {
	if w == nil || w == os.Stdout {
		return stdoutWriter
	}
	if sw, ok := w.(*syncWriter); ok {
		return sw
	}
	return &syncWriter{w: w}
}
