// ABOUTME: logrus configuration shared by every entry point
// ABOUTME: UTC timestamps, optional JSON, optional rotating file output
package logging

import (
	"io"
	"os"
	"path"
	"time"

	rotatelogs "github.com/lestrrat/go-file-rotatelogs"
	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"
)

const timestampFormat = "2006-01-02 15:04:05.000 Z07:00"

// Options controls log output
type Options struct {
	Dir      string // rotating log directory; empty or "-" disables file logs
	FileName string // base file name inside Dir
	Level    string // logrus level name, default info
	JSON     bool
	Colors   bool
	Quiet    bool // suppress stdout, e.g. while a TUI owns the terminal
}

type utcFormatter struct {
	logrus.Formatter
}

func (f utcFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	entry.Time = entry.Time.UTC()
	return f.Formatter.Format(entry)
}

// Setup configures the standard logrus logger
func Setup(opts Options) error {
	level := opts.Level
	if level == "" {
		level = "info"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	logrus.SetLevel(lvl)

	formatter := newFormatter(opts.JSON, opts.Colors)
	logrus.SetFormatter(formatter)
	if opts.Quiet {
		logrus.SetOutput(io.Discard)
	} else {
		logrus.SetOutput(os.Stdout)
	}

	if opts.Dir == "" || opts.Dir == "-" {
		return nil
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return err
	}

	fileName := opts.FileName
	if fileName == "" {
		fileName = "voicechanger.log"
	}
	logFile := path.Join(opts.Dir, fileName)
	writer, err := rotatelogs.New(
		logFile+".%Y%m%d%H%M",
		rotatelogs.WithLinkName(logFile),
		rotatelogs.WithMaxAge((24*time.Hour)*14),  // keep for 14 days
		rotatelogs.WithRotationTime(24*time.Hour), // rotate every 24 hours
	)
	if err != nil {
		return err
	}

	logrus.AddHook(lfshook.NewHook(lfshook.WriterMap{
		logrus.DebugLevel: writer,
		logrus.InfoLevel:  writer,
		logrus.WarnLevel:  writer,
		logrus.ErrorLevel: writer,
		logrus.FatalLevel: writer,
		logrus.PanicLevel: writer,
	}, formatter))

	return nil
}

func newFormatter(json bool, colors bool) logrus.Formatter {
	var lineFormatter logrus.Formatter
	if json {
		lineFormatter = &logrus.JSONFormatter{
			TimestampFormat: timestampFormat,
		}
	} else {
		lineFormatter = &logrus.TextFormatter{
			TimestampFormat:  timestampFormat,
			FullTimestamp:    true,
			ForceColors:      colors,
			DisableColors:    !colors,
			QuoteEmptyFields: true,
		}
	}
	return &utcFormatter{lineFormatter}
}
