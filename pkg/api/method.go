package api

import (
	"errors"
	"fmt"
	"strings"
)

// Method is an HTTP verb supported by the feature convention
type Method string

const (
	GET    Method = "GET"
	POST   Method = "POST"
	PUT    Method = "PUT"
	PATCH  Method = "PATCH"
	DELETE Method = "DELETE"
)

var (
	ErrUnknownMethod = errors.New("unsupported method")

	methods = map[string]Method{
		"get":    GET,
		"post":   POST,
		"put":    PUT,
		"patch":  PATCH,
		"delete": DELETE,
	}
)

// ParseMethod maps a case-insensitive verb name onto the closed Method
// enum. Unrecognized names are rejected rather than passed through
func ParseMethod(name string) (Method, error) {
	if m, ok := methods[strings.ToLower(name)]; ok {
		return m, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownMethod, name)
}

// IsValid reports whether the method is one of the supported verbs
func (m Method) IsValid() bool {
	_, ok := methods[strings.ToLower(string(m))]
	return ok
}
