/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package main

import (
	"io"
	"os"

	"github.com/ssgreg/logf"
	"github.com/ssgreg/logftext"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	logFormatText = "text"
	logFormatJSON = "json"

	logOutputStdout = "stdout"
	logOutputStderr = "stderr"
	logOutputFile   = "file"
)

// newLogger builds a logf logger according to the logging configuration.
// The returned close function must be called before exit to flush the channel writer.
func newLogger(cfg *LogConfig) (*logf.Logger, logf.ChannelWriterCloseFunc) {
	channel, closeFunc := logf.NewChannelWriter(logf.ChannelWriterConfig{
		Appender:          makeLogfAppender(cfg),
		EnableSyncOnError: true,
	})
	logger := logf.NewLogger(parseLogLevel(cfg.Level), channel)
	logger = logger.With(logf.Int("pid", os.Getpid()))
	return logger, closeFunc
}

func makeLogfAppender(cfg *LogConfig) logf.Appender {
	var w io.Writer
	switch cfg.Output {
	case logOutputFile:
		w = &lumberjack.Logger{
			Filename:   cfg.File.Path,
			MaxSize:    cfg.File.MaxSizeMB,
			MaxBackups: cfg.File.MaxBackups,
		}
	case logOutputStderr:
		w = os.Stderr
	default:
		w = os.Stdout
	}

	if cfg.Format == logFormatJSON {
		return logf.NewWriteAppender(w, logf.NewJSONEncoder(logf.JSONEncoderConfig{
			EncodeTime:   logf.RFC3339NanoTimeEncoder,
			FieldKeyTime: "time",
		}))
	}

	noColor := cfg.Output == logOutputFile
	return logftext.NewAppender(w, logftext.EncoderConfig{
		NoColor:    &noColor,
		EncodeTime: logf.RFC3339NanoTimeEncoder,
	})
}

func parseLogLevel(level string) logf.Level {
	switch level {
	case "error":
		return logf.LevelError
	case "warn":
		return logf.LevelWarn
	case "debug":
		return logf.LevelDebug
	default:
		return logf.LevelInfo
	}
}
