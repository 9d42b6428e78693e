package logging

import (
	"os"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const ginKey = "logger"

// New builds the process logger. Outside development the output is JSON so it
// can be shipped as-is.
func New(level, env string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)

	if env == "development" {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	return log
}

// Attach stores a request scoped entry on the gin context.
func Attach(c *gin.Context, entry *logrus.Entry) {
	c.Set(ginKey, entry)
}

// FromGin returns the request entry set by the request logger middleware, or
// the standard logger when none was attached (tests, background jobs).
func FromGin(c *gin.Context) *logrus.Entry {
	if v, ok := c.Get(ginKey); ok {
		if entry, ok := v.(*logrus.Entry); ok {
			return entry
		}
	}
	return logrus.NewEntry(logrus.StandardLogger())
}
