// Package features is the typed feature layer over a device's node map.
//
// Every node of a supported kind becomes one of six feature variants:
// Boolean, Integer, Float, Enumeration, String and Command. All value
// access goes through the live access mode of the underlying node: Get
// requires read access, Set and Execute require write access, and a
// violation fails with ErrAccessDenied rather than silently doing
// nothing. Each variant validates values before writing: numeric
// features enforce their [min, max] range, enumerations their symbol
// set, booleans their canonical literals.
//
// A Directory is the per-device name index of usable features, built by
// filtering the node map to implemented, accessible nodes.
package features
