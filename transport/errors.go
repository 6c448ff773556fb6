package transport

import "fmt"

// The error taxonomy for remote operations. Load failures degrade to an
// empty collection plus a logged diagnostic; send failures surface to the
// initiating caller and never mutate local append-only state. There is no
// automatic retry: every failure is terminal for that single operation.

// NetworkError wraps a request that could not complete at all (dial,
// timeout, connection reset).
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network failure: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ServerError is a non-success status with the reason the server gave,
// structured or plain-text.
type ServerError struct {
	Op     string
	Status int
	Reason string
}

func (e *ServerError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s: server rejected request (status %d)", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: server rejected request (status %d): %s", e.Op, e.Status, e.Reason)
}

// DecodeError is a success status whose body could not be parsed into
// the expected shape.
type DecodeError struct {
	Op  string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: malformed response: %v", e.Op, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
