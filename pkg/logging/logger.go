// Copyright (c) 2025 The echod Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package logging provides the audit log of echod: a zap core (go.uber.org/zap)
// writing one line per entry into size-capped segment files, flushed to disk
// before each call returns.
//
// Every line has the form
//
//	[LEVEL] [2006-01-02T15:04:05.000Z] message
//
// Segments live in a single directory and are named after the process start time
// plus a part number, see Segments. The package also builds a separate
// lumberjack-rotated logger for the diagnostics of the gnet engine, see NewDiagnostics.
package logging

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Level is the alias of zapcore.Level.
type Level = zapcore.Level

const (
	// DebugLevel logs are typically voluminous, and are usually disabled in
	// production.
	DebugLevel = zapcore.DebugLevel
	// InfoLevel is the default logging priority.
	InfoLevel = zapcore.InfoLevel
	// WarnLevel logs are more important than Info, but don't need individual
	// human review.
	WarnLevel = zapcore.WarnLevel
	// ErrorLevel logs are high-priority. If an application is running smoothly,
	// it shouldn't generate any error-level logs.
	ErrorLevel = zapcore.ErrorLevel
	// FatalLevel logs a message, then calls os.Exit(1).
	FatalLevel = zapcore.FatalLevel
)

// Logger is used for logging formatted messages.
//
// It is the same method set the gnet engine expects from gnet.WithLogger,
// so a *Sink can be handed to the engine directly.
type Logger interface {
	// Debugf logs messages at DEBUG level.
	Debugf(format string, args ...interface{})
	// Infof logs messages at INFO level.
	Infof(format string, args ...interface{})
	// Warnf logs messages at WARN level.
	Warnf(format string, args ...interface{})
	// Errorf logs messages at ERROR level.
	Errorf(format string, args ...interface{})
	// Fatalf logs messages at FATAL level.
	Fatalf(format string, args ...interface{})
}

// Sink is the rotating audit log. It is safe for concurrent use.
type Sink struct {
	core     zapcore.Core
	segments *Segments
	errOut   zapcore.WriteSyncer
}

// New opens a Sink. Nothing touches the disk until the first entry is written.
func New(options ...Option) *Sink {
	opts := loadOptions(options...)

	segments := NewSegments(opts.Dir, opts.StartTime, opts.SegmentSize)
	enabler := zap.LevelEnablerFunc(func(level Level) bool {
		return level >= opts.Level
	})
	core := zapcore.NewCore(newLineEncoder(), segments, enabler)
	if opts.Console != nil {
		console := zapcore.NewCore(newLineEncoder(), zapcore.Lock(zapcore.AddSync(opts.Console)), enabler)
		core = zapcore.NewTee(core, console)
	}

	return &Sink{
		core:     core,
		segments: segments,
		errOut:   zapcore.Lock(zapcore.AddSync(opts.ErrorOutput)),
	}
}

// Log writes msg at the given level and returns once it is on disk.
// A failure to create or write the active segment is returned as is.
func (s *Sink) Log(level Level, msg string) error {
	if !s.core.Enabled(level) {
		return nil
	}
	return s.core.Write(zapcore.Entry{Level: level, Time: time.Now(), Message: msg}, nil)
}

func (s *Sink) logf(level Level, format string, args []interface{}) {
	if err := s.Log(level, fmt.Sprintf(format, args...)); err != nil {
		fmt.Fprintf(s.errOut, "%s logging: write failed: %v\n", time.Now().UTC().Format(timeLayout), err)
		_ = s.errOut.Sync()
	}
}

// Debugf logs messages at DEBUG level.
func (s *Sink) Debugf(format string, args ...interface{}) {
	s.logf(DebugLevel, format, args)
}

// Infof logs messages at INFO level.
func (s *Sink) Infof(format string, args ...interface{}) {
	s.logf(InfoLevel, format, args)
}

// Warnf logs messages at WARN level.
func (s *Sink) Warnf(format string, args ...interface{}) {
	s.logf(WarnLevel, format, args)
}

// Errorf logs messages at ERROR level.
func (s *Sink) Errorf(format string, args ...interface{}) {
	s.logf(ErrorLevel, format, args)
}

// Fatalf logs messages at FATAL level, then calls os.Exit(1) like every zap logger does.
// echod itself never calls it; it exists for the engine.
func (s *Sink) Fatalf(format string, args ...interface{}) {
	s.logf(FatalLevel, format, args)
	_ = s.Close()
	os.Exit(1)
}

// Segments returns the segment writer behind the sink.
func (s *Sink) Segments() *Segments {
	return s.segments
}

// Close flushes and closes the active segment. Writing after Close opens a new handle
// on the same segment.
func (s *Sink) Close() error {
	return s.segments.Close()
}

// NewDiagnostics sets up a lumberjack-rotated logger at localFilePath. It serves
// the internal messages of the gnet engine, which are kept out of the audit segments.
func NewDiagnostics(localFilePath string, logLevel Level) (logger Logger, closer func() error, err error) {
	if len(localFilePath) == 0 {
		return nil, nil, fmt.Errorf("invalid diagnostics log path")
	}

	// lumberjack.Logger is already safe for concurrent use, so we don't need to lock it.
	lumberJackLogger := &lumberjack.Logger{
		Filename:   localFilePath,
		MaxSize:    100, // megabytes
		MaxBackups: 2,
		MaxAge:     15, // days
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	levelEnabler := zap.LevelEnablerFunc(func(level Level) bool {
		return level >= logLevel
	})
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.AddSync(lumberJackLogger), levelEnabler)
	zapLogger := zap.New(core, zap.AddCaller(), zap.AddStacktrace(ErrorLevel)).Named("engine")
	closer = func() error {
		_ = zapLogger.Sync()
		return lumberJackLogger.Close()
	}
	return zapLogger.Sugar(), closer, nil
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{}) {}
func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
func (nopLogger) Fatalf(string, ...interface{}) {}

// Nop returns a Logger that discards everything.
func Nop() Logger {
	return nopLogger{}
}
