package service

import (
	"errors"
	"regexp"

	"restproxy/internal/model"
)

// ErrExecutorSpent is returned when Execute is called on an Executor that has
// already dispatched its call.
var ErrExecutorSpent = errors.New("executor already dispatched")

// UpstreamError reports that the outbound call could not be completed. Its
// message is always "Proxy Error"; the transport failure is kept as the cause
// for logging and is never rendered to callers.
type UpstreamError struct {
	cause error
}

func (e *UpstreamError) Error() string { return model.MsgProxyError }

func (e *UpstreamError) Unwrap() error { return e.cause }

// Cause returns the underlying transport error.
func (e *UpstreamError) Cause() error { return e.cause }

// credentialPattern matches credential-like query parameters in URLs embedded in error messages.
var credentialPattern = regexp.MustCompile(`(?i)((?:api_?key|access_token|token|password|secret)=)[^&\s"]+`)

// redact masks credential query parameter values in s.
func redact(s string) string {
	return credentialPattern.ReplaceAllString(s, "${1}[REDACTED]")
}
