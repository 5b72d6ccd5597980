// Package builder provides a fluent interface for constructing explicit
// feature modules
//
// A builder value is immutable; every With* call returns a copy, so
// partially-configured builders can be shared and specialized safely
package builder
