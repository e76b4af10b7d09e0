package main

import (
	"fmt"
	"strings"

	"github.com/Station-Manager/sinklog"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	config      string
	key         string
	remote      bool
	destination string
	severity    string
	format      string
	console     []string
	files       []string
	verbose     bool
}

func newRootCmd(version string) *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "sinklog [FLAGS] MESSAGE",
		Short:         "Log one message through a local or remote sinklog logger",
		Version:       version,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, args[0])
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.config, "config", "c", "", "configuration document (.json, .yaml, .yml, .toml)")
	f.StringVarP(&opts.key, "key", "k", "", "dotted key path of the logger section")
	f.BoolVarP(&opts.remote, "remote", "r", false, "use the remote logger")
	f.StringVarP(&opts.destination, "destination", "d", "", "aggregation service address (implies --remote)")
	f.StringVarP(&opts.severity, "severity", "s", sinklog.Information.String(), "severity of the message")
	f.StringVarP(&opts.format, "format", "f", "", "line template for the local logger")
	f.StringArrayVar(&opts.console, "console", nil, "enable console output for a severity (repeatable)")
	f.StringArrayVar(&opts.files, "file", nil, "add a file sink as SEVERITY=PATH (repeatable)")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "print diagnostics to stderr")
	return cmd
}

func run(cmd *cobra.Command, opts *rootOptions, message string) error {
	diag := zerolog.Nop()
	if opts.verbose {
		diag = zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr()}).With().Timestamp().Logger()
	}

	severity, err := sinklog.ParseSeverity(opts.severity)
	if err != nil {
		return fmt.Errorf("severity %q: %w", opts.severity, sinklog.ErrUnknownSeverity)
	}

	b, err := newBuilder(cmd, opts, diag)
	if err != nil {
		return err
	}

	logger, err := b.Build()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}

	logErr := logger.Log(message, severity)
	closeErr := logger.Close()
	if logErr != nil {
		return fmt.Errorf("log message: %w", logErr)
	}
	if closeErr != nil {
		return fmt.Errorf("close logger: %w", closeErr)
	}
	diag.Debug().Str("severity", severity.String()).Msg("message logged")
	return nil
}

// newBuilder applies the configuration document first and the flags on top.
func newBuilder(cmd *cobra.Command, opts *rootOptions, diag zerolog.Logger) (sinklog.Builder, error) {
	var b sinklog.Builder
	if opts.remote || opts.destination != "" {
		b = sinklog.NewRemoteBuilder(sinklog.WithDiagnostics(diag))
	} else {
		b = sinklog.NewLocalBuilder(sinklog.WithDiagnostics(diag), sinklog.WithConsole(cmd.OutOrStdout()))
	}

	if opts.config != "" {
		if err := b.TransformWithConfiguration(opts.config, opts.key); err != nil {
			return nil, fmt.Errorf("configuration %s: %w", opts.config, err)
		}
	}
	if opts.destination != "" {
		if err := b.SetDestination(opts.destination); err != nil {
			return nil, fmt.Errorf("destination %q: %w", opts.destination, err)
		}
	}
	if opts.format != "" {
		b.SetFormat(opts.format)
	}
	for _, name := range opts.console {
		sev, err := sinklog.ParseSeverity(name)
		if err != nil {
			return nil, fmt.Errorf("console %q: %w", name, sinklog.ErrUnknownSeverity)
		}
		b.AddConsoleStream(sev)
	}
	for _, entry := range opts.files {
		name, path, ok := strings.Cut(entry, "=")
		if !ok || path == "" {
			return nil, fmt.Errorf("file %q: expected SEVERITY=PATH: %w", entry, sinklog.ErrConfiguration)
		}
		sev, err := sinklog.ParseSeverity(name)
		if err != nil {
			return nil, fmt.Errorf("file %q: %w", entry, sinklog.ErrUnknownSeverity)
		}
		b.AddFileStream(path, sev)
	}
	return b, nil
}
