// Package camera composes a device session: node-map construction, the
// typed feature directory, the acquisition engine and the frame
// production loop for one camera.
//
// A Camera owns its device handle, register port, announced buffers and
// event subscriptions exclusively. Lifecycle operations are paired and
// idempotent: Initialize/Close for the session, StartAcquisition/
// StopAcquisition for the engine. Close always stops acquisition first,
// and a failure during StartAcquisition rolls back every partially
// opened stream before surfacing the error.
//
// A Camera is a single logical thread of control. No method is safe to
// invoke concurrently with another on the same Camera; callers that
// multiplex acquisition and configuration must serialize externally.
// The only suspension point is the buffer-event wait inside GetFrame,
// bounded by the caller's timeout. There is no asynchronous cancel of
// an in-flight wait; stop acquisition only after the wait returns.
package camera
