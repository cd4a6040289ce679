package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options 控制日志记录器的构建方式
type Options struct {
	// Debug 打开 debug 级别
	Debug bool
	// Quiet 只保留 warn 及以上级别
	Quiet bool
	// Encoding 为 "json" 或 "console"，默认 json
	Encoding string
	// OutputPaths 默认 stderr，stdout 留给结果输出
	OutputPaths []string
}

// NewLogger 创建一个新的日志记录器
func NewLogger(debug bool) *zap.Logger {
	logger, err := NewLoggerWithOptions(Options{Debug: debug})
	if err != nil {
		panic("初始化日志系统失败: " + err.Error())
	}
	return logger
}

// NewLoggerWithOptions 根据选项创建日志记录器
func NewLoggerWithOptions(opts Options) (*zap.Logger, error) {
	config := zap.NewProductionConfig()

	switch {
	case opts.Debug:
		config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case opts.Quiet:
		config.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	default:
		config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	switch opts.Encoding {
	case "", "json":
		config.Encoding = "json"
	case "console":
		config.Encoding = "console"
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	default:
		return nil, fmt.Errorf("unknown log encoding %q", opts.Encoding)
	}

	config.OutputPaths = []string{"stderr"}
	if len(opts.OutputPaths) > 0 {
		config.OutputPaths = opts.OutputPaths
	}
	config.ErrorOutputPaths = []string{"stderr"}

	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	config.DisableStacktrace = true

	return config.Build()
}
