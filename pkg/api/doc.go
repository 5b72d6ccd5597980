// Package api defines the core data types and interfaces for the feature
// runtime
//
// This package contains all the shared types used across the runtime,
// including feature descriptors, step and task handlers, the per-request
// context, the request and response collaborator interfaces, and HTTP
// messages
package api
