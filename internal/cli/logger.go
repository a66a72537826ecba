package cli

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// buildLogger mirrors neo-go's HandleLoggingParams: a production encoder
// config with caller/stacktrace disabled and the level driven by config,
// rather than a bare zap.NewProduction().
func buildLogger(level string) (*zap.Logger, error) {
	parsed := zapcore.InfoLevel
	if level != "" {
		if err := parsed.UnmarshalText([]byte(level)); err != nil {
			return nil, err
		}
	}

	cc := zap.NewProductionConfig()
	cc.DisableCaller = true
	cc.DisableStacktrace = true
	cc.EncoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	cc.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cc.Level = zap.NewAtomicLevelAt(parsed)
	cc.Sampling = nil

	return cc.Build()
}
