package handler

import (
	"github.com/getsentry/raven-go"
)

// ErrorReporter forwards server errors to an external tracker.
type ErrorReporter func(err error, tags map[string]string)

func NopReporter(error, map[string]string) {}

// NewSentryReporter returns NopReporter when dsn is empty.
func NewSentryReporter(dsn string) (ErrorReporter, error) {
	if dsn == "" {
		return NopReporter, nil
	}
	if err := raven.SetDSN(dsn); err != nil {
		return nil, err
	}
	return func(err error, tags map[string]string) {
		raven.CaptureError(err, tags)
	}, nil
}
