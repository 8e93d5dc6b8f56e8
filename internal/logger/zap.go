package logger

import (
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap's SugaredLogger; call sites use the Infow/Errorw key-value style.
type Logger struct {
	*zap.SugaredLogger
}

// New builds a logger writing to out. Unknown levels fall back to info and
// unknown formats to console.
func New(level, format string, out io.Writer) *Logger {
	core := zapcore.NewCore(newEncoder(format), zapcore.Lock(zapcore.AddSync(out)), zap.NewAtomicLevelAt(toZapLevel(level)))
	return &Logger{
		SugaredLogger: zap.New(core).Sugar().With("service", "gluco_watch"),
	}
}

func toZapLevel(level string) zapcore.Level {
	switch normalize(level) {
	case DebugLevel:
		return zapcore.DebugLevel
	case WarnLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func newEncoder(format string) zapcore.Encoder {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.RFC3339TimeEncoder

	if normalize(format) == FormatJSON {
		cfg.EncodeLevel = zapcore.LowercaseLevelEncoder
		return zapcore.NewJSONEncoder(cfg)
	}
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewConsoleEncoder(cfg)
}
