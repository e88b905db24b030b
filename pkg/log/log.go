package log

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Options of the process logger.
type Options struct {
	Level  string
	Format string
	// Output defaults to stdout.
	Output []string
}

// InitLog builds the process logger. An unparsable level falls back to info.
func InitLog(opts Options) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(opts.Level)
	if err != nil {
		lvl = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	format := opts.Format
	switch format {
	case "":
		format = FormatConsole
	case FormatConsole, FormatJSON:
	default:
		return nil, fmt.Errorf("unknown log format %q", opts.Format)
	}

	output := opts.Output
	if len(output) == 0 {
		output = []string{"stdout"}
	}

	encoder := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "severity",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeTime:     zapcore.RFC3339TimeEncoder,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	if format == FormatConsole && lvl.Level() == zapcore.DebugLevel {
		encoder.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	cfg := zap.Config{
		Level:            lvl,
		Encoding:         format,
		EncoderConfig:    encoder,
		OutputPaths:      output,
		ErrorOutputPaths: []string{"stderr"},
	}

	return cfg.Build(zap.AddStacktrace(zap.DPanicLevel))
}
