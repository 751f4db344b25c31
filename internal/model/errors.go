package model

// Messages surfaced to callers. They are intentionally coarse.
const (
	MsgProxyError        = "Proxy Error"
	MsgUnsupportedMethod = "Unsupported Proxy Method"
)

// ValidationError is returned when an envelope cannot be turned into an
// Instruction. No network activity has happened when it is returned.
type ValidationError struct {
	Msg string
	Err error
}

func (e *ValidationError) Error() string { return e.Msg }

func (e *ValidationError) Unwrap() error { return e.Err }
