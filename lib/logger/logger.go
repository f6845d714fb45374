package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func BuildLogger(ll *string, o *string) *zap.Logger {
	var LOG_LEVELS = map[string]zapcore.Level{
		"debug":  zapcore.DebugLevel,
		"info":   zapcore.InfoLevel,
		"warn":   zapcore.WarnLevel,
		"error":  zapcore.ErrorLevel,
		"dpanic": zapcore.DPanicLevel,
		"panic":  zapcore.PanicLevel,
		"fatal":  zapcore.FatalLevel,
	}
	logLevel := zap.NewAtomicLevel()
	level, ok := LOG_LEVELS[*ll]
	if !ok {
		return nil
	}
	logLevel.SetLevel(level)
	zapConfig := zap.Config{
		Level:    logLevel,
		Encoding: "console",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "Time",
			LevelKey:       "Level",
			NameKey:        "Name",
			CallerKey:      "Caller",
			MessageKey:     "Msg",
			StacktraceKey:  "St",
			EncodeLevel:    zapcore.CapitalLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		OutputPaths:      []string{*o},
		ErrorOutputPaths: []string{"stderr"},
	}
	l, _ := zapConfig.Build()
	return l
}
