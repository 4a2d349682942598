// Package gencam provides machine-vision camera control over
// register-based transport layers: device description parsing, typed
// feature access, configuration batches and frame acquisition.
//
// The entry point is pkg/camera; the remaining packages are the layers
// it composes and are usable on their own.
package gencam
