package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/offlinefirst/deskutil/pkg/config"
)

// TimeLayout is the timestamp layout shared by every log file the tools write.
const TimeLayout = "2006-01-02 15:04:05"

// Options describe how to configure a logger instance.
type Options struct {
	Level  string
	Format string

	// Path is an append-only file receiving every entry. Empty disables the file core.
	Path string
	// Console mirrors entries to a stream. Nil disables the console core.
	Console io.Writer
	// ErrorOutput receives failures to open or write the log file itself.
	ErrorOutput io.Writer
}

// New builds a zap logger that tees entries to an append-only file and a console stream.
// A file that cannot be opened is reported on ErrorOutput and skipped; the returned
// close func syncs the logger and releases the file.
func New(opts Options) (*zap.Logger, func() error, error) {
	level, err := parseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}
	format, err := config.NormalizeFormat(opts.Format)
	if err != nil {
		return nil, nil, err
	}

	errOut := opts.ErrorOutput
	if errOut == nil {
		errOut = os.Stderr
	}

	var cores []zapcore.Core
	var file *os.File
	if opts.Path != "" {
		file, err = OpenAppend(opts.Path)
		if err != nil {
			fmt.Fprintf(errOut, "[%s] log file unavailable, continuing without it: %v\n", time.Now().Format(TimeLayout), err)
			file = nil
		} else {
			cores = append(cores, zapcore.NewCore(newEncoder(format), zapcore.AddSync(file), level))
		}
	}
	if opts.Console != nil {
		cores = append(cores, zapcore.NewCore(newEncoder(format), zapcore.Lock(zapcore.AddSync(opts.Console)), level))
	}

	logger := zap.New(zapcore.NewTee(cores...),
		zap.ErrorOutput(zapcore.Lock(zapcore.AddSync(errOut))),
		zap.AddStacktrace(zapcore.DPanicLevel),
	)

	closeFn := func() error {
		_ = logger.Sync()
		if file == nil {
			return nil
		}
		return file.Close()
	}
	return logger, closeFn, nil
}

// OpenAppend opens path for appending, creating it and its parent directory when absent.
func OpenAppend(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure log directory %s: %w", dir, err)
		}
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	return file, nil
}

func newEncoder(format string) zapcore.Encoder {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "time"
	cfg.EncodeTime = bracketTimeEncoder
	cfg.EncodeLevel = bracketLevelEncoder
	cfg.EncodeDuration = zapcore.StringDurationEncoder
	cfg.CallerKey = zapcore.OmitKey
	cfg.NameKey = zapcore.OmitKey
	if format == "json" {
		cfg.EncodeTime = zapcore.TimeEncoderOfLayout(TimeLayout)
		cfg.EncodeLevel = zapcore.LowercaseLevelEncoder
		return zapcore.NewJSONEncoder(cfg)
	}
	cfg.ConsoleSeparator = " "
	return zapcore.NewConsoleEncoder(cfg)
}

func bracketTimeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString("[" + t.Format(TimeLayout) + "]")
}

func bracketLevelEncoder(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString("[" + level.CapitalString() + "]")
}

func parseLevel(level string) (zap.AtomicLevel, error) {
	normalized, err := config.NormalizeLogLevel(level)
	if err != nil {
		return zap.AtomicLevel{}, err
	}

	var lvl zapcore.Level
	switch normalized {
	case "debug":
		lvl = zapcore.DebugLevel
	case "info":
		lvl = zapcore.InfoLevel
	case "warn":
		lvl = zapcore.WarnLevel
	case "error":
		lvl = zapcore.ErrorLevel
	default:
		return zap.AtomicLevel{}, fmt.Errorf("unhandled log level %q", strings.TrimSpace(level))
	}
	return zap.NewAtomicLevelAt(lvl), nil
}
