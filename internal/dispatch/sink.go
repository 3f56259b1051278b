package dispatch

import (
	"go.uber.org/zap"
)

// LogSink writes every outcome as a structured log entry. Mock outcomes
// carry the rendered ticket text.
type LogSink struct {
	logger *zap.Logger
}

func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Record(o Outcome) {
	fields := []zap.Field{
		zap.String("id", o.ID),
		zap.String("order_id", o.OrderID),
		zap.String("order_number", o.OrderNumber),
		zap.String("tier", string(o.Tier)),
		zap.String("printer", o.Printer),
		zap.Int("copies", o.Copies),
		zap.Duration("duration", o.Duration),
	}
	if len(o.Absorbed) > 0 {
		fields = append(fields, zap.Strings("absorbed", o.Absorbed))
	}

	if o.Tier == TierMock {
		s.logger.Info("ticket recorded as mock", append(fields, zap.String("ticket", o.Rendered))...)
		return
	}
	s.logger.Info("ticket printed", fields...)
}

// SinkFunc adapts a function to Sink
type SinkFunc func(Outcome)

func (f SinkFunc) Record(o Outcome) { f(o) }
