// Package observability builds the process logger.
package observability

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/saeidalz13/battleship-arena/internal/config"
)

const loggerName = "battleship"

// NewLogger writes to stdout. Every entry carries the stage; prod samples
// repeated entries and only attaches stack traces to errors.
func NewLogger(stage string, cfg config.LoggingConfig) (*zap.Logger, error) {
	return newLogger(stage, cfg, zapcore.Lock(os.Stdout))
}

func newLogger(stage string, cfg config.LoggingConfig, out zapcore.WriteSyncer) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level %q: %w", cfg.Level, err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeDuration = zapcore.StringDurationEncoder

	var encoder zapcore.Encoder
	switch cfg.Format {
	case "json":
		encoder = zapcore.NewJSONEncoder(encCfg)
	case "console":
		if stage != config.StageProd {
			encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
		encoder = zapcore.NewConsoleEncoder(encCfg)
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	core := zapcore.NewCore(encoder, out, zap.NewAtomicLevelAt(level))
	opts := []zap.Option{zap.AddCaller(), zap.Fields(zap.String("stage", stage))}

	if stage == config.StageProd {
		// a misbehaving client can produce the same rejection many times a second
		core = zapcore.NewSamplerWithOptions(core, time.Second, 100, 10)
		opts = append(opts, zap.AddStacktrace(zapcore.ErrorLevel))
	} else {
		opts = append(opts, zap.Development(), zap.AddStacktrace(zapcore.WarnLevel))
	}

	return zap.New(core, opts...).Named(loggerName), nil
}
