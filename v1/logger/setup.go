package logger

import (
	"log"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggerClient wraps a zap logger. Codec, registry and transport packages log
// through the Logger interface it implements; Zap stays exported for code
// that needs zap directly.
type LoggerClient struct {
	Zap *zap.Logger

	// tracingEnabled adds trace_id and span_id to *WithContext entries.
	tracingEnabled bool
}

// NewLoggerClient builds the logger described by cfg. Entries carry the
// process id, the service name and the caller. A configuration zap cannot
// build, such as an unwritable output path, stops the process.
//
// Example:
//
//	log := logger.NewLoggerClient(logger.Config{Level: logger.Debug, ServiceName: "pbcodec"})
//	log.Info("registered class", nil, map[string]interface{}{"class_name": "Unicorn"})
func NewLoggerClient(cfg Config) *LoggerClient {
	z, err := zapConfig(cfg).Build(zap.AddCaller(), zap.AddCallerSkip(1))
	if err != nil {
		log.Fatal(err)
	}
	return &LoggerClient{
		Zap:            z,
		tracingEnabled: cfg.EnableTracing,
	}
}

func zapConfig(cfg Config) zap.Config {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeCaller = zapcore.FullCallerEncoder
	encoderCfg.EncodeDuration = zapcore.MillisDurationEncoder

	encoding := "json"
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	if cfg.Encoding == "console" {
		// colours only make sense on a terminal
		encoding = "console"
		encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	outputs := cfg.OutputPaths
	if len(outputs) == 0 {
		outputs = []string{"stderr"}
	}

	return zap.Config{
		Level:            zap.NewAtomicLevelAt(parseLevel(cfg.Level)),
		Encoding:         encoding,
		EncoderConfig:    encoderCfg,
		OutputPaths:      outputs,
		ErrorOutputPaths: []string{"stderr"},
		InitialFields: map[string]interface{}{
			"pid":     os.Getpid(),
			"service": cfg.ServiceName,
		},
	}
}

// parseLevel maps a configured level onto zap's; unknown values mean info.
func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case Debug, "development":
		return zap.DebugLevel
	case Warning, "warn":
		return zap.WarnLevel
	case Error:
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}
