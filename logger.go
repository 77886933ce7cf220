package everly

import "go.uber.org/zap"

// Logger is the structured logging interface used across the application.
// Messages carry variadic key-value pairs:
//
//	logger.Info("initialized module", "module", "auth", "version", "1.0.0")
//
// The shape is compatible with slog, zap's sugared logger and similar
// libraries, so modules stay decoupled from the concrete backend.
type Logger interface {
	// Info logs normal application events such as module startup.
	Info(msg string, args ...any)

	// Warn logs unusual conditions that do not prevent operation.
	Warn(msg string, args ...any)

	// Error logs failures that should be surfaced for observability.
	Error(msg string, args ...any)

	// Debug logs detailed diagnostics, typically disabled in production.
	Debug(msg string, args ...any)
}

// ZapLogger adapts a zap.SugaredLogger to the Logger interface.
type ZapLogger struct {
	s *zap.SugaredLogger
}

// NewZapLogger wraps the given zap logger.
func NewZapLogger(l *zap.Logger) *ZapLogger {
	return &ZapLogger{s: l.Sugar()}
}

func (l *ZapLogger) Info(msg string, args ...any)  { l.s.Infow(msg, args...) }
func (l *ZapLogger) Warn(msg string, args ...any)  { l.s.Warnw(msg, args...) }
func (l *ZapLogger) Error(msg string, args ...any) { l.s.Errorw(msg, args...) }
func (l *ZapLogger) Debug(msg string, args ...any) { l.s.Debugw(msg, args...) }

// NewLogger builds a production or development zap logger according to the
// configured level and wraps it. Used by the process entry point.
func NewLogger(level string, development bool) (*ZapLogger, error) {
	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	}
	if level != "" {
		parsed, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return nil, err
		}
		cfg.Level = parsed
	}
	l, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return NewZapLogger(l), nil
}
