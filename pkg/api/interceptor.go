package api

import (
	"fmt"

	"github.com/cuemby/coldb/pkg/metrics"
	"github.com/cuemby/coldb/pkg/types"
	"github.com/rs/zerolog"
)

// instrument wraps one statement's dispatch with the cross-cutting
// concerns every call needs regardless of which command it is: panic
// recovery into an ExecutionError reply, per-operation request counters
// and latency, and a warning log line on any non-Ok status.
func instrument(logger zerolog.Logger, op, statement string, fn func() (types.Status, []string)) (status types.Status, body []string) {
	timer := metrics.NewTimer()
	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Str("statement", statement).Msg("recovered from panic executing statement")
			status = types.ExecutionError
			body = []string{fmt.Sprintf("internal error: %v", r)}
		}
		metrics.RequestsTotal.WithLabelValues(op, status.String()).Inc()
		timer.ObserveDurationVec(metrics.RequestDuration, op)
		if status >= types.UnknownCommand {
			metrics.QueriesFailed.Inc()
			logger.Warn().Str("op", op).Str("status", status.String()).Str("statement", statement).Msg("statement failed")
		}
	}()

	status, body = fn()
	return
}
