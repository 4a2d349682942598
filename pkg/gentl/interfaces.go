package gentl

import (
	"errors"
	"time"
)

// ErrEventTimeout is returned by BufferEvent.Await when no buffer was
// delivered within the caller's timeout. Callers may retry; the wait
// itself has no side effects.
var ErrEventTimeout = errors.New("buffer event wait timed out")

// DeviceInfo identifies a camera as reported by the transport layer.
type DeviceInfo struct {
	// Vendor is the device vendor name.
	Vendor string

	// Model is the device model name.
	Model string

	// SerialNumber is the device serial number.
	SerialNumber string

	// TLType is the transport layer type (e.g. "U3V", "GEV").
	TLType string
}

// Port provides byte-addressable access to a device's register space.
type Port interface {
	// Read reads size bytes starting at address.
	Read(address uint64, size int) ([]byte, error)

	// Write writes data starting at address.
	Write(address uint64, data []byte) error
}

// Device represents one camera handle obtained from the producer.
type Device interface {
	// Info returns the device identity.
	Info() DeviceInfo

	// Open acquires exclusive access to the device.
	Open() error

	// Close releases the device. Closing a device that is not open is a no-op.
	Close() error

	// IsOpen reports whether the device is currently open.
	IsOpen() bool

	// RemotePort returns the register port of the remote device module.
	// Only valid while the device is open.
	RemotePort() Port

	// DescriptionLocations returns the advertised locations of the device
	// description document, in the order the device reports them.
	DescriptionLocations() ([]string, error)

	// StreamIDs returns the identifiers of the device's data streams.
	StreamIDs() ([]string, error)

	// OpenStream opens the data stream with the given identifier.
	OpenStream(id string) (Stream, error)
}

// BufferToken identifies a buffer announced to a stream.
type BufferToken uint64

// PayloadKind is the declared content type of a delivered buffer.
type PayloadKind uint8

const (
	// PayloadUnknown means the producer could not determine the payload
	// type; the data is handled as raw bytes.
	PayloadUnknown PayloadKind = 0

	// PayloadImage is an image payload with explicit dimensions.
	PayloadImage PayloadKind = 1
)

// String returns the payload kind name.
func (k PayloadKind) String() string {
	switch k {
	case PayloadUnknown:
		return "UNKNOWN"
	case PayloadImage:
		return "IMAGE"
	default:
		return "OTHER"
	}
}

// FilledBuffer describes a buffer delivered by the acquisition engine.
type FilledBuffer struct {
	// Token identifies the announced buffer that was filled.
	Token BufferToken

	// Data is the raw payload. It aliases the announced storage and is
	// overwritten once the buffer is re-queued; consumers must copy.
	Data []byte

	// Kind is the declared payload type.
	Kind PayloadKind

	// Width and Height are the image dimensions in pixels.
	// Only meaningful when Kind is PayloadImage.
	Width  int
	Height int
}

// Stream is one data channel of an open device.
type Stream interface {
	// ID returns the stream identifier.
	ID() string

	// DefinesPayloadSize reports whether the stream knows the required
	// buffer size for the current device configuration.
	DefinesPayloadSize() bool

	// PayloadSize returns the required buffer size in bytes.
	PayloadSize() (int, error)

	// MinBuffers returns the minimum number of buffers that must be
	// announced before acquisition can start.
	MinBuffers() (int, error)

	// Announce registers host-allocated storage with the stream.
	Announce(buf []byte) (BufferToken, error)

	// Queue places an announced buffer into the input pool so the device
	// may fill it.
	Queue(token BufferToken) error

	// Revoke removes an announced buffer from the stream. The buffer must
	// not be queued or in flight.
	Revoke(token BufferToken) error

	// FlushDiscardAll discards all buffers from the input pool and the
	// output queue without delivering them.
	FlushDiscardAll() error

	// StartEngine starts the stream's acquisition engine with default
	// behaviour.
	StartEngine() error

	// KillEngine stops the acquisition engine immediately, discarding any
	// partially filled buffer.
	KillEngine() error

	// RegisterNewBufferEvent subscribes to buffer-filled notifications.
	RegisterNewBufferEvent() (BufferEvent, error)

	// Close closes the stream. All announced buffers must be revoked first.
	Close() error
}

// BufferEvent is a subscription to a stream's new-buffer notifications.
type BufferEvent interface {
	// Await blocks until a filled buffer is available or the timeout
	// elapses, in which case it returns ErrEventTimeout.
	Await(timeout time.Duration) (FilledBuffer, error)

	// Flush discards all pending notifications.
	Flush()

	// Unregister cancels the subscription.
	Unregister() error
}
