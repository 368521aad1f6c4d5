package logging

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	mu            sync.Mutex
	defaultLogger zerolog.Logger
	once          sync.Once
)

func initDefault() {
	once.Do(func() {
		defaultLogger = newLogger(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}, zerolog.InfoLevel)
	})
}

func newLogger(w io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// GetDefaultLogger returns the process wide logger
func GetDefaultLogger() *zerolog.Logger {
	initDefault()
	mu.Lock()
	defer mu.Unlock()
	l := defaultLogger
	return &l
}

// GetSubsystemLogger returns the default logger tagged with a component name
func GetSubsystemLogger(component string) zerolog.Logger {
	return GetDefaultLogger().With().Str("component", component).Logger()
}

// SetOutput redirects the default logger. Files get JSON lines, terminals get
// the console format.
func SetOutput(w io.Writer) {
	initDefault()
	mu.Lock()
	defer mu.Unlock()

	level := defaultLogger.GetLevel()
	if f, ok := w.(*os.File); ok && (f == os.Stderr || f == os.Stdout) {
		w = zerolog.ConsoleWriter{Out: f, TimeFormat: time.RFC3339}
	}
	defaultLogger = newLogger(w, level)
}

// SetLevel changes the level of the default logger. Unknown names keep the
// current level and return false.
func SetLevel(name string) bool {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if err != nil || name == "" {
		return false
	}

	initDefault()
	mu.Lock()
	defer mu.Unlock()
	defaultLogger = defaultLogger.Level(level)
	return true
}
