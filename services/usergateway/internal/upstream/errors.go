package upstream

import (
	"fmt"
)

// Kind classifies an upstream failure. Handlers report every kind the same
// way; the distinction only feeds logs, metrics and the error detail.
type Kind int

const (
	KindUnreachable Kind = iota + 1
	KindRejected
	KindMalformed
)

func (k Kind) String() string {
	switch k {
	case KindUnreachable:
		return "upstream_unreachable"
	case KindRejected:
		return "upstream_rejected"
	case KindMalformed:
		return "upstream_malformed"
	default:
		return "upstream_error"
	}
}

// Error describes one failed upstream call.
type Error struct {
	Upstream string
	Op       string
	Kind     Kind
	// Status is the upstream HTTP status, zero when no response arrived.
	Status int
	// Body is the start of the upstream response body, if any.
	Body string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Status != 0:
		return fmt.Sprintf("%s %s: status %d body=%q", e.Upstream, e.Op, e.Status, e.Body)
	case e.Err != nil:
		return fmt.Sprintf("%s %s: %s: %v", e.Upstream, e.Op, e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s %s: %s", e.Upstream, e.Op, e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }
