package social

import (
	"fmt"

	"github.com/goliatone/go-logger/glog"
)

// Logger is the leveled, structured logger contract used across the package.
type Logger interface {
	Debug(message string, args ...any)
	Info(message string, args ...any)
	Warn(message string, args ...any)
	Error(message string, args ...any)
}

// LoggerProvider hands out named loggers so components get scoped output.
type LoggerProvider interface {
	GetLogger(name string) Logger
}

// ResolveLogger picks a scoped logger for name, preferring the provider,
// then the fallback, and finally the package default.
func ResolveLogger(name string, provider LoggerProvider, fallback Logger) (LoggerProvider, Logger) {
	if provider != nil {
		if logger := provider.GetLogger(name); logger != nil {
			return provider, logger
		}
	}

	if fallback != nil {
		return staticLoggerProvider{logger: fallback}, fallback
	}

	logger := defaultLogger()
	return staticLoggerProvider{logger: logger}, logger
}

// ProviderFromLogger wraps a single logger as a LoggerProvider.
func ProviderFromLogger(logger Logger) LoggerProvider {
	return staticLoggerProvider{logger: logger}
}

type staticLoggerProvider struct {
	logger Logger
}

func (p staticLoggerProvider) GetLogger(string) Logger {
	if p.logger == nil {
		return defLogger{}
	}
	return p.logger
}

func defaultLogger() Logger {
	return glog.NewLogger(
		glog.WithName("social"),
		glog.WithLoggerTypePretty(),
	).GetLogger("social")
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] SOCIAL "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] SOCIAL "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] SOCIAL "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] SOCIAL "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
