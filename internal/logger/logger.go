package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

var Log = logrus.New()

// Init настраивает JSON-логгер с выводом в out.
// Уровень берётся из FEEDS_LOG_LEVEL, иначе DEBUG=true включает debug.
func Init(out io.Writer) {
	Log.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})

	Log.SetOutput(out)
	Log.SetLevel(level())
}

func level() logrus.Level {
	if lvl, err := logrus.ParseLevel(os.Getenv("FEEDS_LOG_LEVEL")); err == nil {
		return lvl
	}
	if os.Getenv("DEBUG") == "true" {
		return logrus.DebugLevel
	}
	return logrus.InfoLevel
}
