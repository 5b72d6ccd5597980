package api

import (
	"context"

	"github.com/tidwall/gjson"
)

type (
	// Request is the inbound half of the HTTP collaborator contract. The
	// runtime never parses bodies itself; JSON exposes path lookups over
	// the raw bytes for steps that want them
	Request interface {
		// Method returns the request's HTTP verb
		Method() Method

		// Path returns the concrete request path as received
		Path() string

		// Param returns the value bound to a :param path segment
		Param(name string) string

		// Query returns the first value of a query string parameter
		Query(name string) string

		// Header returns the first value of a request header
		Header(name string) string

		// Body returns the raw request body
		Body() []byte

		// JSON evaluates a gjson path expression against the body
		JSON(path string) gjson.Result

		// Context returns the request-scoped context for cancellation
		// and deadline propagation inside step handlers
		Context() context.Context
	}

	// Response is the outbound half of the collaborator contract. Send
	// and JSON are the terminal writes; the runtime observes "response
	// sent" purely through Sent
	Response interface {
		// Status records the status code used by the next terminal write
		Status(code int)

		// Header sets a response header
		Header(name, value string)

		// Send writes the body and marks the response sent
		Send(body []byte)

		// JSON marshals v as the body and marks the response sent
		JSON(v any)

		// Sent reports whether a terminal write has happened
		Sent() bool
	}
)
