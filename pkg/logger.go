package pkg

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

type LogLevel int

const (
	LogLevelNone LogLevel = iota
	LogLevelErrOnly
	LogLevelDebug
)

func (l LogLevel) String() string {
	switch l {
	case LogLevelNone:
		return "none"
	case LogLevelErrOnly:
		return "error"
	case LogLevelDebug:
		return "debug"
	}
	return fmt.Sprintf("LogLevel(%d)", int(l))
}

// ParseLogLevel maps the config/flag spelling of a level.
// "warn" and "info" are accepted as aliases of the nearest level.
func ParseLogLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "off", "silent":
		return LogLevelNone, nil
	case "", "error", "err", "warn":
		return LogLevelErrOnly, nil
	case "debug", "info", "all":
		return LogLevelDebug, nil
	}
	return LogLevelErrOnly, fmt.Errorf("unknown log level %q", s)
}

var log_level = LogLevelErrOnly

func SetLogLevel(level LogLevel) {
	log_level = level
	applyOutputs(os.Stdout, os.Stderr)
	debug_logger.Println("log level set to", level)
}

// SetLogOutput points every logger at w while keeping the current level's
// filtering. Mostly useful in tests.
func SetLogOutput(w io.Writer) {
	applyOutputs(w, w)
}

func applyOutputs(out, err_out io.Writer) {
	switch log_level {
	case LogLevelNone:
		info_logger.SetOutput(io.Discard)
		error_logger.SetOutput(io.Discard)
		fatal_logger.SetOutput(io.Discard)
		warn_logger.SetOutput(io.Discard)
		debug_logger.SetOutput(io.Discard)
	case LogLevelErrOnly:
		error_logger.SetOutput(err_out)
		fatal_logger.SetOutput(err_out)
		warn_logger.SetOutput(err_out)

		info_logger.SetOutput(io.Discard)
		debug_logger.SetOutput(io.Discard)
	case LogLevelDebug:
		error_logger.SetOutput(err_out)
		fatal_logger.SetOutput(err_out)

		info_logger.SetOutput(out)
		warn_logger.SetOutput(out)
		debug_logger.SetOutput(out)
	}
}

var (
	info_logger  = log.New(io.Discard, "INFO: ", log.Lshortfile|log.LstdFlags)
	error_logger = log.New(os.Stderr, "ERROR: ", log.Lshortfile|log.LstdFlags)
	fatal_logger = log.New(os.Stderr, "FATAL: ", log.Lshortfile|log.LstdFlags)
	warn_logger  = log.New(os.Stderr, "WARN: ", log.Lshortfile|log.LstdFlags)
	debug_logger = log.New(io.Discard, "DEBUG: ", log.Lshortfile|log.LstdFlags)
)

var (
	InfoLog  = info_logger.Println
	ErrorLog = error_logger.Println
	FatalLog = fatal_logger.Fatalln
	WarnLog  = warn_logger.Println
	DebugLog = debug_logger.Println
)
