package utils

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogLevel represents different log levels
type LogLevel string

const (
	INFO  LogLevel = "INFO"
	WARN  LogLevel = "WARN"
	ERROR LogLevel = "ERROR"
	DEBUG LogLevel = "DEBUG"
)

// LoggerOptions configures the structured logger
type LoggerOptions struct {
	Level LogLevel
	// File enables rotated file output in addition to stdout
	File       string
	MaxSizeMB  int
	MaxBackups int
}

// Logger provides structured logging
type Logger struct {
	logger *zap.Logger
}

// NewLogger creates a new structured logger writing JSON to stdout
func NewLogger() *Logger {
	return NewLoggerWithOptions(LoggerOptions{Level: INFO})
}

// NewLoggerWithOptions builds a logger from the given options
func NewLoggerWithOptions(opts LoggerOptions) *Logger {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.MessageKey = "message"
	encoderCfg.LevelKey = "level"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	encoder := zapcore.NewJSONEncoder(encoderCfg)

	level := toZapLevel(opts.Level)
	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), level),
	}

	if opts.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    defaultInt(opts.MaxSizeMB, 50),
			MaxBackups: defaultInt(opts.MaxBackups, 5),
			Compress:   true,
		}
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(rotator), level))
	}

	return &Logger{logger: zap.New(zapcore.NewTee(cores...))}
}

// NewNopLogger returns a logger that discards everything
func NewNopLogger() *Logger {
	return &Logger{logger: zap.NewNop()}
}

// Info logs an info message
func (l *Logger) Info(message string, data ...interface{}) {
	l.logger.Info(message, dataFields(data)...)
}

// Warn logs a warning message
func (l *Logger) Warn(message string, data ...interface{}) {
	l.logger.Warn(message, dataFields(data)...)
}

// Error logs an error message
func (l *Logger) Error(message string, err error, data ...interface{}) {
	fields := dataFields(data)
	if err != nil {
		fields = append(fields, zap.String("error", err.Error()))
	}
	l.logger.Error(message, fields...)
}

// Debug logs a debug message
func (l *Logger) Debug(message string, data ...interface{}) {
	l.logger.Debug(message, dataFields(data)...)
}

// Sync flushes buffered entries
func (l *Logger) Sync() error {
	return l.logger.Sync()
}

func dataFields(data []interface{}) []zap.Field {
	if len(data) == 0 || data[0] == nil {
		return nil
	}
	return []zap.Field{zap.Any("data", data[0])}
}

func toZapLevel(level LogLevel) zapcore.Level {
	switch LogLevel(strings.ToUpper(string(level))) {
	case DEBUG:
		return zapcore.DebugLevel
	case WARN:
		return zapcore.WarnLevel
	case ERROR:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func defaultInt(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}

// Global logger instance
var GlobalLogger = NewLogger()

// SetGlobalLogger replaces the process-wide logger
func SetGlobalLogger(l *Logger) {
	if l != nil {
		GlobalLogger = l
	}
}

// Convenience functions for global logger
func LogInfo(message string, data ...interface{}) {
	GlobalLogger.Info(message, data...)
}

func LogWarn(message string, data ...interface{}) {
	GlobalLogger.Warn(message, data...)
}

func LogError(message string, err error, data ...interface{}) {
	GlobalLogger.Error(message, err, data...)
}

func LogDebug(message string, data ...interface{}) {
	GlobalLogger.Debug(message, data...)
}
