// Package logger is the levelled logger shared by the bench and the flight
// control computers. Every line goes to the console and, when configured,
// to a rotating log file.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Level int

const (
	Debug Level = iota
	Info
	Notice
	Warning
	Error
	Critical
)

var levelTags = [...]string{"DEBU", "INFO", "NOTI", "WARN", "ERRO", "CRIT"}

var levelColors = [...]*color.Color{
	color.New(color.FgHiBlack),
	color.New(color.FgCyan),
	color.New(color.FgGreen),
	color.New(color.FgYellow),
	color.New(color.FgRed),
	color.New(color.FgHiRed, color.Bold),
}

func (l Level) String() string {
	if l < Debug || l > Critical {
		return fmt.Sprintf("Level(%d)", int(l))
	}
	return levelTags[l]
}

// ParseLevel accepts the level names used in conf.toml.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return Debug, nil
	case "", "info":
		return Info, nil
	case "notice":
		return Notice, nil
	case "warning", "warn":
		return Warning, nil
	case "error":
		return Error, nil
	case "critical":
		return Critical, nil
	}
	return Info, fmt.Errorf("unknown log level %q", s)
}

type Config struct {
	Level   string `toml:"level"`
	Console bool   `toml:"console"`
	Color   bool   `toml:"color"`
	// Log file; empty disables the file sink.
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
	Compress   bool   `toml:"compress"`
}

func DefaultConfig() Config {
	return Config{
		Level:      "info",
		Console:    true,
		Color:      true,
		File:       "logs/fbw.log",
		MaxSizeMB:  32,
		MaxBackups: 3,
		MaxAgeDays: 14,
	}
}

func (c Config) Validate() error {
	if _, err := ParseLevel(c.Level); err != nil {
		return err
	}
	if c.MaxSizeMB < 0 || c.MaxBackups < 0 || c.MaxAgeDays < 0 {
		return fmt.Errorf("log rotation limits must not be negative")
	}
	return nil
}

// MultiLogger writes each line to the console and the log file. A nil
// *MultiLogger discards everything, so libraries may hold an optional one.
type MultiLogger struct {
	mu      sync.Mutex
	level   Level
	console io.Writer
	file    io.WriteCloser
	color   bool
	now     func() time.Time
}

func New(c Config) (*MultiLogger, error) {
	level, err := ParseLevel(c.Level)
	if err != nil {
		return nil, err
	}
	l := &MultiLogger{level: level, color: c.Color, now: time.Now}
	if c.Console {
		l.console = color.Output
	}
	if c.File != "" {
		l.file = &lumberjack.Logger{
			Filename:   c.File,
			MaxSize:    c.MaxSizeMB,
			MaxBackups: c.MaxBackups,
			MaxAge:     c.MaxAgeDays,
			Compress:   c.Compress,
		}
	}
	return l, nil
}

// NewWriter logs to w only, without colour.
func NewWriter(w io.Writer, level Level) *MultiLogger {
	return &MultiLogger{level: level, console: w, now: time.Now}
}

// Close closes the log file, if there is one.
func (l *MultiLogger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}

func (l *MultiLogger) Enabled(level Level) bool {
	return l != nil && level >= l.level
}

func (l *MultiLogger) log(level Level, msg string) {
	if !l.Enabled(level) {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	stamp := l.now().Format("15:04:05.000")
	if l.file != nil {
		fmt.Fprintf(l.file, "%s %4s %s\n", stamp, level, msg)
	}
	if l.console != nil {
		tag := level.String()
		if l.color {
			tag = levelColors[level].Sprint(tag)
		}
		fmt.Fprintf(l.console, "%s %s %s\n", stamp, tag, msg)
	}
}

func (l *MultiLogger) Debug(msg string) {
	l.log(Debug, msg)
}
func (l *MultiLogger) Debugf(msg string, args ...interface{}) {
	if l.Enabled(Debug) {
		l.log(Debug, fmt.Sprintf(msg, args...))
	}
}
func (l *MultiLogger) Info(msg string) {
	l.log(Info, msg)
}
func (l *MultiLogger) Infof(msg string, args ...interface{}) {
	if l.Enabled(Info) {
		l.log(Info, fmt.Sprintf(msg, args...))
	}
}
func (l *MultiLogger) Notice(msg string) {
	l.log(Notice, msg)
}
func (l *MultiLogger) Noticef(msg string, args ...interface{}) {
	if l.Enabled(Notice) {
		l.log(Notice, fmt.Sprintf(msg, args...))
	}
}
func (l *MultiLogger) Warning(msg string) {
	l.log(Warning, msg)
}
func (l *MultiLogger) Warningf(msg string, args ...interface{}) {
	if l.Enabled(Warning) {
		l.log(Warning, fmt.Sprintf(msg, args...))
	}
}
func (l *MultiLogger) Error(msg string) {
	l.log(Error, msg)
}
func (l *MultiLogger) Errorf(msg string, args ...interface{}) {
	if l.Enabled(Error) {
		l.log(Error, fmt.Sprintf(msg, args...))
	}
}
func (l *MultiLogger) Critical(msg string) {
	l.log(Critical, msg)
}
func (l *MultiLogger) Criticalf(msg string, args ...interface{}) {
	if l.Enabled(Critical) {
		l.log(Critical, fmt.Sprintf(msg, args...))
	}
}

var (
	loggerMu sync.Mutex
	logger   = &MultiLogger{level: Info, console: os.Stdout, now: time.Now}
)

// Configure replaces the package logger, closing the previous one.
func Configure(c Config) error {
	l, err := New(c)
	if err != nil {
		return err
	}
	loggerMu.Lock()
	previous := logger
	logger = l
	loggerMu.Unlock()
	return previous.Close()
}

func Get() *MultiLogger {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	return logger
}
