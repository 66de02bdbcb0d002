package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/SedlarDavid/mssql-mcp/internal/config"
	"github.com/rs/zerolog"
)

// setupLogger builds the process logger. Output is stderr unless a file
// path is configured; stdout is never used. The returned func closes the
// log file, if any.
func setupLogger(cfg config.Logging) (zerolog.Logger, func() error, error) {
	level := zerolog.InfoLevel
	switch strings.ToLower(cfg.Level) {
	case "trace":
		level = zerolog.TraceLevel
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	case "disabled":
		level = zerolog.Disabled
	}

	closeFn := func() error { return nil }
	var output io.Writer = os.Stderr
	if cfg.Output != "" && !strings.EqualFold(cfg.Output, "stderr") {
		f, err := os.OpenFile(cfg.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return zerolog.Nop(), closeFn, fmt.Errorf("open log file: %w", err)
		}
		output = f
		closeFn = f.Close
	}

	if strings.EqualFold(cfg.Format, "text") {
		output = zerolog.ConsoleWriter{Out: output, NoColor: true}
	}

	return zerolog.New(output).Level(level).With().Timestamp().Logger(), closeFn, nil
}
