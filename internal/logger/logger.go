// Copyright 2020 Google Inc. All Rights Reserved.
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


// Package logger provides the process wide leveled logger. Messages go to
// stdout by default, or to a rotated log file once InitLogFile is called.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/googlecloudplatform/taskpool/cfg"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	textFormat = "text"
	jsonFormat = "json"
)

var (
	defaultLoggerFactory *loggerFactory
	defaultLogger        *slog.Logger

	// Guards swapping the default logger.
	mu sync.Mutex
)

type loggerFactory struct {
	// If nil, log to stdout. Otherwise, log to this file.
	file   io.WriteCloser
	format string
	level  cfg.LogSeverity
}

func init() {
	defaultLoggerFactory = &loggerFactory{
		format: textFormat,
		level:  cfg.InfoLogSeverity,
	}
	defaultLogger = defaultLoggerFactory.newLogger()
}

// InitLogFile points the default logger at the file, format and severity of
// the given config. An empty file path keeps logging on stdout.
func InitLogFile(c cfg.LoggingConfig) error {
	mu.Lock()
	defer mu.Unlock()

	f := &loggerFactory{
		format: c.Format,
		level:  c.Severity,
	}
	if f.format == "" {
		f.format = textFormat
	}
	if f.level == "" {
		f.level = cfg.InfoLogSeverity
	}

	if c.FilePath != "" {
		// Fail early on an unwritable location; lumberjack opens lazily.
		probe, err := os.OpenFile(c.FilePath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("error while opening log file %q: %w", c.FilePath, err)
		}
		probe.Close()

		f.file = &lumberjack.Logger{
			Filename:   c.FilePath,
			MaxSize:    int(c.LogRotate.MaxFileSizeMb),
			MaxBackups: int(c.LogRotate.BackupFileCount),
			Compress:   c.LogRotate.Compress,
		}
	}

	closeFileLocked()
	defaultLoggerFactory = f
	defaultLogger = f.newLogger()
	return nil
}

// SetLogFormat switches the default logger between "text" and "json".
func SetLogFormat(format string) {
	mu.Lock()
	defer mu.Unlock()

	defaultLoggerFactory.format = format
	defaultLogger = defaultLoggerFactory.newLogger()
}

// Close closes the log file when necessary.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	closeFileLocked()
}

func closeFileLocked() {
	if f := defaultLoggerFactory.file; f != nil {
		f.Close()
		defaultLoggerFactory.file = nil
	}
}

// Tracef prints the message with TRACE severity in the specified format.
func Tracef(format string, v ...interface{}) {
	logf(LevelTrace, format, v...)
}

// Debugf prints the message with DEBUG severity in the specified format.
func Debugf(format string, v ...interface{}) {
	logf(LevelDebug, format, v...)
}

// Infof prints the message with INFO severity in the specified format.
func Infof(format string, v ...interface{}) {
	logf(LevelInfo, format, v...)
}

// Warnf prints the message with WARNING severity in the specified format.
func Warnf(format string, v ...interface{}) {
	logf(LevelWarn, format, v...)
}

// Errorf prints the message with ERROR severity in the specified format.
func Errorf(format string, v ...interface{}) {
	logf(LevelError, format, v...)
}

func logf(level slog.Level, format string, v ...interface{}) {
	mu.Lock()
	l := defaultLogger
	mu.Unlock()

	ctx := context.Background()
	if !l.Enabled(ctx, level) {
		return
	}
	l.Log(ctx, level, fmt.Sprintf(format, v...))
}

func (f *loggerFactory) writer() io.Writer {
	if f.file != nil {
		return f.file
	}
	return os.Stdout
}

func (f *loggerFactory) newLogger() *slog.Logger {
	programLevel := new(slog.LevelVar)
	setLoggingLevel(f.level, programLevel)
	return slog.New(f.createJsonOrTextHandler(f.writer(), programLevel))
}

func (f *loggerFactory) createJsonOrTextHandler(writer io.Writer, levelVar *slog.LevelVar) slog.Handler {
	if f.format == jsonFormat {
		return slog.NewJSONHandler(writer, getHandlerOptions(levelVar, f.format))
	}
	return slog.NewTextHandler(writer, getHandlerOptions(levelVar, f.format))
}
