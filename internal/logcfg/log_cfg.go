package logcfg

import (
	"fmt"
	"io"
	"os"
	"path"
	"runtime"

	"github.com/natefinch/lumberjack"
	"github.com/sirupsen/logrus"
)

// Rotation settings of the log file.
const (
	maxSizeMB  = 50
	maxBackups = 3
	maxAgeDays = 30
)

// RunLoggerConfig sets the logrus level, a caller-aware text format and
// duplicates output to stdout and a rotating log file.
// An empty fileName logs to stdout only.
func RunLoggerConfig(level, fileName string) error {
	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("parse log level %q: %w", level, err)
	}
	logrus.SetLevel(logLevel)
	logrus.SetReportCaller(true)
	logrus.SetFormatter(&logrus.TextFormatter{
		CallerPrettyfier: callerPrettyfier,
	})
	logrus.SetOutput(output(fileName))
	return nil
}

func callerPrettyfier(f *runtime.Frame) (function string, file string) {
	_, filename := path.Split(f.File)
	return "", fmt.Sprintf("%s.%d.%s", filename, f.Line, f.Function)
}

func output(fileName string) io.Writer {
	if fileName == "" {
		return os.Stdout
	}
	return io.MultiWriter(os.Stdout, &lumberjack.Logger{
		Filename:   fileName,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
	})
}
