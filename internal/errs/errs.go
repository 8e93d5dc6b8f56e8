// Package errs holds the failure taxonomy shared by the ingestion pipeline.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

// Kind labels used in logs, tick events and metrics.
const (
	KindTransport    = "transport"
	KindHTTP         = "http"
	KindProtocol     = "protocol"
	KindSchema       = "schema"
	KindPrecondition = "precondition"
	KindSink         = "sink"
	KindUnknown      = "unknown"
)

// TransportError is a timeout or connection-level failure. Always retryable.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("%s: transport: %v", e.Op, e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

// HTTPError is a non-2xx response from the vendor.
type HTTPError struct {
	Op     string
	Status int
}

func (e *HTTPError) Error() string { return fmt.Sprintf("%s: unexpected status %d", e.Op, e.Status) }

// ProtocolError is a response whose body is malformed or lacks a required field.
type ProtocolError struct {
	Op     string
	Reason string
	// Fields lists what the response did contain, for diagnosis.
	Fields []string
	Err    error
}

func (e *ProtocolError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: protocol: %s", e.Op, e.Reason)
	if len(e.Fields) > 0 {
		fmt.Fprintf(&b, " (available fields: %s)", strings.Join(e.Fields, ", "))
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// SchemaError means a valid payload is missing the expected data path.
type SchemaError struct {
	Path   string
	Reason string
}

func (e *SchemaError) Error() string { return fmt.Sprintf("schema: %s: %s", e.Path, e.Reason) }

// PreconditionError is an operation invoked before its required state.
type PreconditionError struct {
	Op       string
	Required string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: requires %s", e.Op, e.Required)
}

// SinkError wraps a persistence failure with the sink name.
type SinkError struct {
	Sink string
	Err  error
}

func (e *SinkError) Error() string { return fmt.Sprintf("sink %s: %v", e.Sink, e.Err) }
func (e *SinkError) Unwrap() error { return e.Err }

// Classify maps an error onto its taxonomy kind.
func Classify(err error) string {
	var (
		transport    *TransportError
		httpErr      *HTTPError
		protocol     *ProtocolError
		schema       *SchemaError
		precondition *PreconditionError
		sink         *SinkError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &transport):
		return KindTransport
	case errors.As(err, &httpErr):
		return KindHTTP
	case errors.As(err, &protocol):
		return KindProtocol
	case errors.As(err, &schema):
		return KindSchema
	case errors.As(err, &precondition):
		return KindPrecondition
	case errors.As(err, &sink):
		return KindSink
	default:
		return KindUnknown
	}
}

// Retryable reports whether err is an expected failure that the next tick may clear.
// Every taxonomy kind is; unknown defects are not. The poller logs the latter at error level.
func Retryable(err error) bool {
	return Classify(err) != KindUnknown
}

// FailedSinks lists the sink names found in err, including every branch of a joined error.
func FailedSinks(err error) []string {
	var out []string
	var walk func(error)
	walk = func(e error) {
		switch x := e.(type) {
		case nil:
			return
		case *SinkError:
			out = append(out, x.Sink)
		case interface{ Unwrap() []error }:
			for _, inner := range x.Unwrap() {
				walk(inner)
			}
		case interface{ Unwrap() error }:
			walk(x.Unwrap())
		}
	}
	walk(err)
	return out
}
