/*
NAME
  logging.go

DESCRIPTION
  logging.go implements a leveled logger matching the Logger contract
  revid/revid.go declares locally (SetLevel(int8), Log(level int8, message
  string, params ...interface{})), plus the Debug/Info/Warning/Error
  convenience methods revid/config/config.go calls against it. Every
  orchestrator in this repository (decoder.Decoder, encoder.Encoder) takes
  an optional Logger exactly the way revid.Revid.cfg carries one; a nil
  Logger means silent operation.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package logging provides a small leveled Logger, file-rotated through
// gopkg.in/natefinch/lumberjack.v2 and optionally mirrored to the systemd
// journal, for the decoder/encoder orchestrators to report progress and
// non-fatal warnings through.
package logging

import (
	"fmt"
	"log"
	"os"

	"github.com/coreos/go-systemd/journal"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Level names the severity of one log call, matching the
// logging.Debug/Info/Warning/Error/Fatal constants revid/config/config.go's
// doc comment names.
type Level int8

const (
	Debug Level = iota
	Info
	Warning
	Error
	Fatal
)

func (l Level) String() string {
	switch l {
	case Debug:
		return "DEBUG"
	case Info:
		return "INFO"
	case Warning:
		return "WARNING"
	case Error:
		return "ERROR"
	case Fatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// Logger is the contract revid/revid.go declares locally: a settable
// verbosity threshold plus a single leveled log call. Debug/Info/Warning/
// Error are convenience wrappers matching the calls
// revid/config/config.go's Logger.Info example makes against it.
type Logger interface {
	SetLevel(int8)
	Log(level int8, message string, params ...interface{})
	Debug(message string, params ...interface{})
	Info(message string, params ...interface{})
	Warning(message string, params ...interface{})
	Error(message string, params ...interface{})
}

// FileLogger writes leveled, rotated log lines to a file (via lumberjack),
// optionally mirroring Warning/Error/Fatal entries to the systemd journal
// for AusOcean's always-on field loggers.
type FileLogger struct {
	level    Level
	journal  bool
	std      *log.Logger
	rotating *lumberjack.Logger
}

// Config configures a FileLogger.
type Config struct {
	// Filename is the rotated log file path. Empty writes to stderr instead
	// (useful for CLI tools and tests).
	Filename string
	MaxSizeMB,
	MaxBackups,
	MaxAgeDays int
	Level Level
	// Journald mirrors Warning-and-above entries to the systemd journal when
	// true; silently ignored on platforms without a running journald.
	Journald bool
}

// New returns a FileLogger per cfg.
func New(cfg Config) *FileLogger {
	fl := &FileLogger{level: cfg.Level, journal: cfg.Journald}
	if cfg.Filename != "" {
		fl.rotating = &lumberjack.Logger{
			Filename:   cfg.Filename,
			MaxSize:    nonZero(cfg.MaxSizeMB, 10),
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
		}
		fl.std = log.New(fl.rotating, "", log.LstdFlags)
	} else {
		fl.std = log.New(os.Stderr, "", log.LstdFlags)
	}
	return fl
}

func nonZero(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

// SetLevel changes the minimum severity that is emitted.
func (fl *FileLogger) SetLevel(level int8) { fl.level = Level(level) }

// Log emits one leveled entry if level is at or above the configured
// threshold, appending params as space-separated key/value pairs the way
// revid/config/config.go's Logger.Info(name+" bad or unset, defaulting",
// name, def) call shape implies.
func (fl *FileLogger) Log(level int8, message string, params ...interface{}) {
	lvl := Level(level)
	if lvl < fl.level {
		return
	}
	line := fmt.Sprintf("[%s] %s%s", lvl, message, formatParams(params))
	fl.std.Println(line)
	if fl.journal && lvl >= Warning {
		_ = journal.Send(line, journalPriority(lvl), nil)
	}
	if lvl == Fatal {
		os.Exit(1)
	}
}

func (fl *FileLogger) Debug(message string, params ...interface{})   { fl.Log(int8(Debug), message, params...) }
func (fl *FileLogger) Info(message string, params ...interface{})    { fl.Log(int8(Info), message, params...) }
func (fl *FileLogger) Warning(message string, params ...interface{}) { fl.Log(int8(Warning), message, params...) }
func (fl *FileLogger) Error(message string, params ...interface{})   { fl.Log(int8(Error), message, params...) }

func formatParams(params []interface{}) string {
	if len(params) == 0 {
		return ""
	}
	out := ""
	for i := 0; i+1 < len(params); i += 2 {
		out += fmt.Sprintf(" %v=%v", params[i], params[i+1])
	}
	if len(params)%2 == 1 {
		out += fmt.Sprintf(" %v", params[len(params)-1])
	}
	return out
}

func journalPriority(l Level) journal.Priority {
	switch l {
	case Warning:
		return journal.PriWarning
	case Error:
		return journal.PriErr
	case Fatal:
		return journal.PriCrit
	default:
		return journal.PriInfo
	}
}
