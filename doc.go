// Package sinklog provides severity-routed logging with two interchangeable
// backends behind one Logger interface.
//
// Key features
//   - Local multi-sink logger: per severity, console output and any number of
//     files. Files are shared process-wide through a reference-counted
//     Registry, so loggers configured with the same path write through one
//     handle and the file closes when its last holder is released.
//   - Remote logger: every call becomes a request to an aggregation service
//     keyed by process id (/init on build, /log per call, /destroy on Close).
//   - Builders that accept imperative calls and JSON, YAML or TOML
//     configuration documents, and produce a fully opened logger.
//   - Routing is opt-in: a severity that was never configured is a silent
//     no-op, not an error.
//
// Typical usage
//
//	b := sinklog.NewLocalBuilder()
//	b.AddConsoleStream(sinklog.Warning).AddFileStream("app.log", sinklog.Error)
//	b.SetFormat("%d %t [%s] %m")
//	logger, err := b.Build()
//	if err != nil { panic(err) }
//	defer logger.Close()
//
//	_ = logger.Log("disk almost full", sinklog.Warning)
package sinklog
