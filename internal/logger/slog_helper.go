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


package logger

import (
	"log/slog"

	"github.com/googlecloudplatform/taskpool/cfg"
)

// Severity levels. TRACE sits below slog's DEBUG and OFF above every level
// that is ever logged.
const (
	LevelTrace = slog.Level(-8)
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
	LevelOff   = slog.Level(12)
)

const (
	severityKey  = "severity"
	messageKey   = "message"
	timestampKey = "timestamp"

	textTimeLayout = "02/01/2006 15:04:05.000000"
)

func setLoggingLevel(level cfg.LogSeverity, programLevel *slog.LevelVar) {
	// logs having severity >= the configured value will be logged.
	switch level {
	case cfg.TraceLogSeverity:
		programLevel.Set(LevelTrace)
	case cfg.DebugLogSeverity:
		programLevel.Set(LevelDebug)
	case cfg.InfoLogSeverity:
		programLevel.Set(LevelInfo)
	case cfg.WarningLogSeverity:
		programLevel.Set(LevelWarn)
	case cfg.ErrorLogSeverity:
		programLevel.Set(LevelError)
	case cfg.OffLogSeverity:
		programLevel.Set(LevelOff)
	}
}

func severityName(level slog.Level) string {
	switch {
	case level < LevelDebug:
		return string(cfg.TraceLogSeverity)
	case level < LevelInfo:
		return string(cfg.DebugLogSeverity)
	case level < LevelWarn:
		return string(cfg.InfoLogSeverity)
	case level < LevelError:
		return string(cfg.WarningLogSeverity)
	default:
		return string(cfg.ErrorLogSeverity)
	}
}

// getHandlerOptions renames slog's built-in attributes to the
// time/severity/message layout used by both output formats.
func getHandlerOptions(levelVar *slog.LevelVar, format string) *slog.HandlerOptions {
	return &slog.HandlerOptions{
		Level: levelVar,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) > 0 {
				return a
			}

			switch a.Key {
			case slog.TimeKey:
				t := a.Value.Time()
				if format == jsonFormat {
					return slog.Group(timestampKey,
						slog.Int64("seconds", t.Unix()),
						slog.Int("nanos", t.Nanosecond()))
				}
				a.Value = slog.StringValue(t.Format(textTimeLayout))
			case slog.LevelKey:
				a.Key = severityKey
				if level, ok := a.Value.Any().(slog.Level); ok {
					a.Value = slog.StringValue(severityName(level))
				}
			case slog.MessageKey:
				a.Key = messageKey
			}
			return a
		},
	}
}
