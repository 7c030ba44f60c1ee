package notify

import (
	"context"

	"github.com/jonwraymond/storefront/observe"
)

// LogNotifier writes notifications to a structured logger. Errors are
// logged at warn level, everything else at info.
type LogNotifier struct {
	logger observe.Logger
}

// NewLogNotifier creates a LogNotifier. A nil logger discards output.
func NewLogNotifier(logger observe.Logger) *LogNotifier {
	if logger == nil {
		logger = observe.NopLogger()
	}
	return &LogNotifier{logger: logger.With(observe.F("component", "notify"))}
}

// Notify logs n.
func (l *LogNotifier) Notify(ctx context.Context, n Notification) {
	fields := []observe.Field{
		observe.F("severity", n.Level.String()),
		observe.F("operation", n.Operation),
	}
	if len(n.Fields) > 0 {
		fields = append(fields, observe.F("fields", n.Fields))
	}
	if n.Level == LevelError {
		l.logger.Warn(ctx, n.Message, fields...)
		return
	}
	l.logger.Info(ctx, n.Message, fields...)
}
