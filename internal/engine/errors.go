// Package engine drives test sessions: it presents trials, interprets
// responses, decides when a session is over and reduces it to a result.
package engine

import "errors"

var (
	// ErrInvalidState reports an operation the session cannot accept in its
	// current state, such as a response after termination.
	ErrInvalidState = errors.New("invalid session state")
	// ErrUnexpectedResponse reports a response variant or value the test does not accept.
	ErrUnexpectedResponse = errors.New("unexpected response")
	// ErrInvalidPoint reports a tap outside the unit square.
	ErrInvalidPoint = errors.New("point outside grid")
	// ErrUnknownTest reports a test kind the caller cannot start this way.
	ErrUnknownTest = errors.New("unknown test")
)
