// Package log provides the structured logger shared by every palmfinger component.
package log

import (
	"fmt"
	"io"
	"os"
	"path"
	"runtime"
	"strings"
	"sync"

	formatter "github.com/antonfisher/nested-logrus-formatter"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	logger *logrus.Logger
	mu     sync.Mutex
)

type Fields = logrus.Fields

// Options controls where and how verbosely the logger writes.
type Options struct {
	// Level is a logrus level name; empty means debug.
	Level string
	// File enables a rotated log file in addition to stderr.
	File string
	// NoColors disables ANSI colours, e.g. when stderr is not a terminal.
	NoColors bool
}

// NewLogger (re)configures the shared logger and returns it.
func NewLogger(opts Options) *logrus.Logger {
	mu.Lock()
	defer mu.Unlock()

	if logger == nil {
		logger = logrus.New()
	}

	level := logrus.DebugLevel
	if opts.Level != "" {
		if parsed, err := logrus.ParseLevel(opts.Level); err == nil {
			level = parsed
		}
	}
	logger.SetLevel(level)

	logger.SetFormatter(&formatter.Formatter{
		NoColors:        opts.NoColors,
		TimestampFormat: "02 Jan 06 - 15:04:05",
		HideKeys:        false,
		CallerFirst:     true,
		CustomCallerFormatter: func(f *runtime.Frame) string {
			s := strings.Split(f.Function, ".")
			funcName := s[len(s)-1]
			return fmt.Sprintf(" \x1b[%dm[%s:%d][%s()]", 34, path.Base(f.File), f.Line, funcName)
		},
	})

	writers := []io.Writer{os.Stderr}
	if opts.File != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   opts.File,
			LocalTime:  true,
			Compress:   true,
			MaxSize:    50,
			MaxAge:     14,
			MaxBackups: 3,
		})
	}

	logger.SetOutput(io.MultiWriter(writers...))
	logger.SetReportCaller(true)

	return logger
}

// Logger returns the shared logger, creating a stderr-only one on first use.
func Logger() *logrus.Logger {
	mu.Lock()
	l := logger
	mu.Unlock()

	if l == nil {
		return NewLogger(Options{})
	}
	return l
}

func entry(fields Fields) *logrus.Entry {
	if fields == nil {
		fields = Fields{}
	}
	return Logger().WithFields(fields)
}

func Debug(fields Fields, msg string) {
	entry(fields).Debug(msg)
}

func Info(fields Fields, msg string) {
	entry(fields).Info(msg)
}

func Warn(fields Fields, msg string) {
	entry(fields).Warn(msg)
}

func Error(fields Fields, msg string) {
	entry(fields).Error(msg)
}

func Fatal(fields Fields, msg string) {
	entry(fields).Fatal(msg)
}
