// Package server mounts scanned features onto the HTTP routing
// collaborator
//
// gin owns the routing table and request delivery; this package adapts
// its request/response handles to the runtime's collaborator interfaces
// and registers one route per feature. The mounted router sits behind an
// atomic pointer so a rescan can swap in fresh routes without restarting
// the listener.
package server
