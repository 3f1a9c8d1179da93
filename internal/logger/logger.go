package logger

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config controls level, format and destination of log output.
type Config struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	Output     string `yaml:"output"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
	Compress   bool   `yaml:"compress"`
}

// Logger wraps a logrus logger with a few field helpers.
type Logger struct {
	log *logrus.Logger
}

func New(cfg Config) *Logger {
	log := logrus.New()

	switch strings.ToLower(cfg.Format) {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	default:
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	if lvl, err := logrus.ParseLevel(cfg.Level); err == nil {
		log.SetLevel(lvl)
	} else {
		log.SetLevel(logrus.InfoLevel)
	}

	var writer io.Writer
	switch cfg.Output {
	case "", "stdout":
		writer = os.Stdout
	case "stderr":
		writer = os.Stderr
	default:
		writer = &lumberjack.Logger{
			Filename:   cfg.Output,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
			LocalTime:  true,
		}
	}
	log.SetOutput(writer)

	return &Logger{log: log}
}

// NewWriter returns a logger that writes text output to w. Used by tests.
func NewWriter(w io.Writer, level string) *Logger {
	l := New(Config{Level: level})
	l.log.SetOutput(w)
	l.log.SetFormatter(&logrus.TextFormatter{DisableColors: true, DisableTimestamp: true})
	return l
}

func (l *Logger) Debug(msg string) { l.log.Debug(msg) }
func (l *Logger) Info(msg string)  { l.log.Info(msg) }
func (l *Logger) Warn(msg string)  { l.log.Warn(msg) }
func (l *Logger) Error(msg string) { l.log.Error(msg) }
func (l *Logger) Fatal(msg string) { l.log.Fatal(msg) }

func (l *Logger) Infof(format string, args ...interface{})  { l.log.Infof(format, args...) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.log.Warnf(format, args...) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.log.Errorf(format, args...) }

func (l *Logger) WithFields(fields logrus.Fields) *logrus.Entry {
	return l.log.WithFields(fields)
}

func (l *Logger) WithError(err error) *logrus.Entry {
	return l.log.WithError(err)
}

func (l *Logger) WithComponent(component string) *logrus.Entry {
	return l.log.WithField("component", component)
}

func (l *Logger) WithSymbol(symbol string) *logrus.Entry {
	return l.log.WithField("symbol", symbol)
}

func (l *Logger) WithOrderID(orderID string) *logrus.Entry {
	return l.log.WithField("order_id", orderID)
}

var (
	defaultMu     sync.RWMutex
	defaultLogger = New(Config{})
)

// Default returns the process-wide logger.
func Default() *Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// SetDefault replaces the process-wide logger.
func SetDefault(l *Logger) {
	if l == nil {
		return
	}
	defaultMu.Lock()
	defaultLogger = l
	defaultMu.Unlock()
}
