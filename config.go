package vatrace

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pion/logging"
)

// Environment variables read by ConfigFromEnv. The preload library has no
// other way to receive configuration.
const (
	EnvOutput      = "VATRACE_OUTPUT"
	EnvTimestamps  = "VATRACE_TIMESTAMPS"
	EnvMetricsAddr = "VATRACE_METRICS_ADDR"
	EnvLogLevel    = "VATRACE_LOG_LEVEL"
)

// Output destinations understood by Config.Output besides a file path.
const (
	OutputStderr = "stderr"
	OutputStdout = "stdout"
	OutputNone   = "none"
)

// Config controls how Setup wires the interposer.
type Config struct {
	// Output is stderr, stdout, none or a file path (appended to).
	Output string
	// Timestamps adds the event time and sequence number to trace lines.
	Timestamps bool
	// MetricsAddr, when set, is the listen address for the diagnostics
	// HTTP endpoint.
	MetricsAddr string
	// LogLevel is one of disable, error, warn, info, debug, trace.
	LogLevel string
}

// DefaultConfig traces to stderr and logs errors only.
func DefaultConfig() Config {
	return Config{Output: OutputStderr, LogLevel: "error"}
}

// ConfigFromEnv overlays the VATRACE_* variables on DefaultConfig. Values
// that do not parse keep their default and are reported in the error; the
// returned Config is always usable.
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()
	var errs []error
	if v := os.Getenv(EnvOutput); v != "" {
		cfg.Output = v
	}
	if v := os.Getenv(EnvTimestamps); v != "" {
		ts, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("vatrace: invalid %s %q: want true or false", EnvTimestamps, v))
		}
		cfg.Timestamps = ts
	}
	cfg.MetricsAddr = os.Getenv(EnvMetricsAddr)
	if v := os.Getenv(EnvLogLevel); v != "" {
		if _, err := ParseLogLevel(v); err != nil {
			errs = append(errs, err)
		}
		cfg.LogLevel = v
	}
	return cfg, errors.Join(errs...)
}

// Environ returns cfg as VATRACE_* assignments for a child process.
func (c Config) Environ() []string {
	env := []string{
		EnvOutput + "=" + c.Output,
		EnvTimestamps + "=" + strconv.FormatBool(c.Timestamps),
	}
	if c.MetricsAddr != "" {
		env = append(env, EnvMetricsAddr+"="+c.MetricsAddr)
	}
	if c.LogLevel != "" {
		env = append(env, EnvLogLevel+"="+c.LogLevel)
	}
	return env
}

// ParseLogLevel maps a level name to a pion log level.
func ParseLogLevel(s string) (logging.LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "disable", "disabled", "off":
		return logging.LogLevelDisabled, nil
	case "", "error":
		return logging.LogLevelError, nil
	case "warn", "warning":
		return logging.LogLevelWarn, nil
	case "info":
		return logging.LogLevelInfo, nil
	case "debug":
		return logging.LogLevelDebug, nil
	case "trace":
		return logging.LogLevelTrace, nil
	default:
		return logging.LogLevelError, fmt.Errorf("vatrace: unknown log level %q", s)
	}
}

// LoggerFactory returns a pion logger factory writing to stderr at the
// configured level.
func (c Config) LoggerFactory() (*logging.DefaultLoggerFactory, error) {
	level, err := ParseLogLevel(c.LogLevel)
	f := logging.NewDefaultLoggerFactory()
	f.Writer = os.Stderr
	f.DefaultLogLevel = level
	return f, err
}

// OpenSink builds the trace sink for c.Output. On error it still returns a
// usable stderr sink.
func (c Config) OpenSink() (Sink, io.Closer, error) {
	switch strings.ToLower(c.Output) {
	case "", OutputStderr:
		return NewWriterSink(os.Stderr, c.Timestamps), nil, nil
	case OutputStdout:
		return NewWriterSink(os.Stdout, c.Timestamps), nil, nil
	case OutputNone:
		return DiscardSink, nil, nil
	}

	f, err := os.OpenFile(c.Output, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return NewWriterSink(os.Stderr, c.Timestamps), nil, fmt.Errorf("vatrace: failed to open trace output: %w", err)
	}
	return NewWriterSink(f, c.Timestamps), f, nil
}
