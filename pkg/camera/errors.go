package camera

import "errors"

// Camera errors.
var (
	// ErrNotInitialized means the session has not been initialized.
	ErrNotInitialized = errors.New("camera is not initialized")

	// ErrAcquisitionNotStarted means a frame was requested while the
	// acquisition engine is idle.
	ErrAcquisitionNotStarted = errors.New("acquisition not started")

	// ErrTimeout means no frame was delivered within the caller's
	// budget. Recoverable; the caller may retry.
	ErrTimeout = errors.New("timed out waiting for a frame")

	// ErrUnsupportedPayload means a delivered buffer declared a payload
	// kind this library cannot decode.
	ErrUnsupportedPayload = errors.New("unsupported payload kind")

	// ErrFeatureNotFound means a required device feature is missing.
	ErrFeatureNotFound = errors.New("feature not found")

	// ErrNoStreams means the device reports no data streams.
	ErrNoStreams = errors.New("device has no data streams")
)
