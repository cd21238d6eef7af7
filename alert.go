package mirsal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// SeverityDanger is the severity of alerts raised by failed fetches.
const SeverityDanger = "danger"

// Alert is a user facing message raised by a failed batch.
type Alert struct {
	Severity string
	Message  string
}

// Alerter presents alerts to the user.
type Alerter interface {
	Alert(ctx context.Context, alert Alert)
}

// AlertFunc adapts a function to the Alerter interface.
type AlertFunc func(ctx context.Context, alert Alert)

// Alert implements Alerter.
func (f AlertFunc) Alert(ctx context.Context, alert Alert) {
	f(ctx, alert)
}

// LogAlerter writes alerts to a logger at error level.
func LogAlerter(logger *slog.Logger) Alerter {
	return AlertFunc(func(ctx context.Context, alert Alert) {
		logger.ErrorContext(ctx, alert.Message, "severity", alert.Severity)
	})
}

// alertMessage picks the message for a failed spec: the spec's own mapping
// of the problem, then the problem's message, then a generic message based
// on whether any response was received.
func alertMessage(spec Spec, err error) string {
	var respErr *ResponseError
	if errors.As(err, &respErr) {
		if respErr.Problem != nil {
			if spec.ProblemToAlert != nil {
				if message := spec.ProblemToAlert(*respErr.Problem); message != "" {
					return message
				}
			}
			if respErr.Problem.Message != "" {
				return respErr.Problem.Message
			}
		}
		return fmt.Sprintf("Something went wrong: error code %d.", respErr.StatusCode)
	}

	var transformErr *TransformError
	if errors.As(err, &transformErr) {
		return fmt.Sprintf("Something went wrong: error code %d.", transformErr.StatusCode)
	}

	var bodyErr *BodyError
	if errors.As(err, &bodyErr) {
		return fmt.Sprintf("Something went wrong: error code %d.", bodyErr.StatusCode)
	}

	return "Something went wrong: there was no response to your request."
}
