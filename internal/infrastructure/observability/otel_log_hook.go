package observability

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	otellog "go.opentelemetry.io/otel/log"
)

// OTelHook forwards zerolog events to an OpenTelemetry logger. Only the
// level and message are exported; structured fields stay on stdout.
type OTelHook struct {
	logger otellog.Logger
}

// NewOTelHook creates a hook emitting to logger.
func NewOTelHook(logger otellog.Logger) OTelHook {
	return OTelHook{logger: logger}
}

// Run implements zerolog.Hook.
func (h OTelHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	if level == zerolog.NoLevel || level == zerolog.Disabled || msg == "" {
		return
	}

	ctx := e.GetCtx()
	if ctx == nil {
		ctx = context.Background()
	}

	var rec otellog.Record
	rec.SetTimestamp(time.Now())
	rec.SetBody(otellog.StringValue(msg))
	rec.SetSeverity(severity(level))
	rec.SetSeverityText(level.String())
	h.logger.Emit(ctx, rec)
}

func severity(level zerolog.Level) otellog.Severity {
	switch level {
	case zerolog.TraceLevel:
		return otellog.SeverityTrace
	case zerolog.DebugLevel:
		return otellog.SeverityDebug
	case zerolog.InfoLevel:
		return otellog.SeverityInfo
	case zerolog.WarnLevel:
		return otellog.SeverityWarn
	case zerolog.ErrorLevel:
		return otellog.SeverityError
	}
	return otellog.SeverityFatal
}
