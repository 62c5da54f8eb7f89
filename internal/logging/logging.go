// Package logging builds the process logger. Verbosity comes from UFS_LOG
// (falling back to LOG_LEVEL) and output style from UFS_LOG_STYLE (falling
// back to LOG_STYLE).
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	LevelEnv         = "UFS_LOG"
	StyleEnv         = "UFS_LOG_STYLE"
	FallbackLevelEnv = "LOG_LEVEL"
	FallbackStyleEnv = "LOG_STYLE"
)

// Styles accepted in UFS_LOG_STYLE.
const (
	StyleAuto   = "auto"
	StyleAlways = "always"
	StyleNever  = "never"
	StyleJSON   = "json"
)

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// New returns a logger writing to w, configured from the process environment.
func New(w io.Writer) *logrus.Logger {
	return NewFromEnv(w, os.LookupEnv)
}

// NewFromEnv returns a logger configured from lookup.
func NewFromEnv(w io.Writer, lookup LookupFunc) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(w)

	rawLevel := firstSet(lookup, LevelEnv, FallbackLevelEnv)
	level, err := logrus.ParseLevel(strings.TrimSpace(rawLevel))
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	log.SetFormatter(formatter(firstSet(lookup, StyleEnv, FallbackStyleEnv)))

	if rawLevel != "" && err != nil {
		log.WithField("value", rawLevel).Warn("unknown log level, using info")
	}

	return log
}

func formatter(style string) logrus.Formatter {
	switch strings.ToLower(strings.TrimSpace(style)) {
	case StyleJSON:
		return &logrus.JSONFormatter{}
	case StyleAlways:
		return &logrus.TextFormatter{ForceColors: true, FullTimestamp: true}
	case StyleNever:
		return &logrus.TextFormatter{DisableColors: true, FullTimestamp: true}
	default:
		return &logrus.TextFormatter{FullTimestamp: true}
	}
}

func firstSet(lookup LookupFunc, keys ...string) string {
	for _, k := range keys {
		if v, ok := lookup(k); ok && v != "" {
			return v
		}
	}
	return ""
}
