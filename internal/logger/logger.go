package logger

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/sirupsen/logrus"

	"marketplace-recon-api/internal/config"
)

var (
	mu      sync.Mutex
	loggers = map[string]*logrus.Logger{}
)

// NewLogger 按类型创建按天切割的日志，保留 7 天
func NewLogger(logType string) *logrus.Logger {
	log := logrus.New()
	logPath := config.C.Log.Dir + "/" + logType
	if config.C.Log.Dir == "" {
		logPath = "./logs/" + logType
	}
	_ = os.MkdirAll(logPath, 0755)

	var out io.Writer = os.Stdout
	writer, err := rotatelogs.New(
		logPath+"/"+logType+".log.%Y-%m-%d",
		rotatelogs.WithLinkName(logPath+"/"+logType+".log"),
		rotatelogs.WithRotationTime(24*time.Hour),
		rotatelogs.WithMaxAge(7*24*time.Hour),
	)
	if err == nil {
		out = writer
		if config.C.Log.Console {
			out = io.MultiWriter(writer, os.Stdout)
		}
	}

	log.SetOutput(out)
	log.SetFormatter(&logrus.TextFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
		FullTimestamp:   true,
		CallerPrettyfier: func(f *runtime.Frame) (string, string) {
			return f.Function, fmt.Sprintf("%s:%d", f.File, f.Line)
		},
	})
	level, err := logrus.ParseLevel(config.C.Log.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	return log
}

// Get 同类型日志只创建一次
func Get(logType string) *logrus.Logger {
	mu.Lock()
	defer mu.Unlock()
	if l, ok := loggers[logType]; ok {
		return l
	}
	l := NewLogger(logType)
	loggers[logType] = l
	return l
}

// Discard 测试用，丢弃所有输出
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
