package main

import (
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm/logger"
)

func newLogger(cfg logConfig, out io.Writer) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(level)

	if cfg.Format == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return l, nil
}

// newGORMLogger routes gorm's log through l. SQL statements are traced only
// at logrus trace level.
func newGORMLogger(l *logrus.Logger) logger.Interface {
	level := logger.Warn
	switch {
	case l.IsLevelEnabled(logrus.TraceLevel):
		level = logger.Info
	case !l.IsLevelEnabled(logrus.WarnLevel):
		level = logger.Error
	}

	return logger.New(l, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
	})
}
