package msgbus

import "fmt"

// InvalidHandlerError is returned by Subscribe when the handler is nil.
type InvalidHandlerError struct {
	Bus string
	Key TypeKey
}

func (e *InvalidHandlerError) Error() string {
	return fmt.Sprintf("msgbus %q: subscribe %q: nil handler", e.Bus, e.Key)
}

// ShutdownError is returned by every operation invoked after Shutdown.
type ShutdownError struct {
	Bus string
}

func (e *ShutdownError) Error() string {
	return fmt.Sprintf("msgbus %q: bus is shut down", e.Bus)
}

// HandlerError records one handler failure inside a dispatch pass. Err is
// the error the handler returned or, for a panicking handler, the
// recovered panic value wrapped as an error.
type HandlerError struct {
	Key TypeKey // key of the message that was being delivered
	Sub uint64  // id of the failing registration, equals its Token.ID
	Err error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("handler %d for %q: %v", e.Sub, e.Key, e.Err)
}

func (e *HandlerError) Unwrap() error { return e.Err }

// DispatchError aggregates every handler failure of one Publish call,
// including failures of messages the pass itself published. Publish
// returns nil instead of an empty aggregate when all handlers succeed.
type DispatchError struct {
	Bus      string
	Failures []*HandlerError
}

func (e *DispatchError) Error() string {
	if len(e.Failures) == 1 {
		return fmt.Sprintf("msgbus %q: %v", e.Bus, e.Failures[0])
	}
	return fmt.Sprintf("msgbus %q: %d handlers failed, first: %v", e.Bus, len(e.Failures), e.Failures[0])
}

// Unwrap exposes the individual failures to errors.Is and errors.As.
func (e *DispatchError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f
	}
	return errs
}
