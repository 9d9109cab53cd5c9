package api

import "fmt"

// TransportError covers everything short of a decoded server verdict:
// connection failures, non-2xx statuses and unreadable bodies.
type TransportError struct {
	Endpoint string
	Status   int
	Err      error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: unexpected status %d: %v", e.Endpoint, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// CommandError is a well-formed response with success=false.
type CommandError struct {
	Endpoint string
	Message  string
}

func (e *CommandError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: request rejected", e.Endpoint)
	}
	return fmt.Sprintf("%s: %s", e.Endpoint, e.Message)
}
