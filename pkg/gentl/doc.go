// Package gentl defines the transport-layer interfaces a GenTL producer
// binding must implement for this library to drive a camera.
//
// The library does not locate or load producer modules and does not
// enumerate interfaces or devices; those concerns belong to the binding.
// It consumes exactly three primitives per device: a byte-addressable
// register port, an advertised list of description-file locations, and
// per-stream buffer announce/queue/event/revoke operations.
//
// All interfaces in this package model section 6 of the GenTL standard
// from the host side. Implementations are not required to be safe for
// concurrent use; a camera session serializes all calls (see pkg/camera).
package gentl
