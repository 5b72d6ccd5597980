// Package marmot is a convention-driven HTTP feature runtime. Endpoints
// ("features") are declared by directory structure rather than explicit
// route registration, and each request runs as an ordered pipeline of
// steps with retry/fallback error recovery and detached async tasks.
package marmot

const (
	// Name identifies this service in logs and metrics
	Name = "marmot"

	// Version is the current release of the runtime
	Version = "0.3.0"
)
