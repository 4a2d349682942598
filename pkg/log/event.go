package log

import "time"

// Event is one acquisition event captured by a camera session.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// CameraID uniquely identifies the session (UUID).
	CameraID string `cbor:"2,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"3,keyasint"`

	// Model is the device model name.
	Model string `cbor:"4,keyasint,omitempty"`

	// Serial is the device serial number.
	Serial string `cbor:"5,keyasint,omitempty"`

	// Type-specific payload (exactly one is set).
	StateChange *StateChangeEvent `cbor:"10,keyasint,omitempty"`
	Frame       *FrameEvent       `cbor:"11,keyasint,omitempty"`
	Feature     *FeatureEvent     `cbor:"12,keyasint,omitempty"`
	Error       *ErrorEventData   `cbor:"13,keyasint,omitempty"`
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryState indicates a session or acquisition state change.
	CategoryState Category = 0
	// CategoryFrame indicates a delivered frame.
	CategoryFrame Category = 1
	// CategoryFeature indicates a feature access.
	CategoryFeature Category = 2
	// CategoryError indicates an error event.
	CategoryError Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryState:
		return "STATE"
	case CategoryFrame:
		return "FRAME"
	case CategoryFeature:
		return "FEATURE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// StateChangeEvent captures session and acquisition lifecycle changes.
type StateChangeEvent struct {
	// OldState is the previous state (may be empty).
	OldState string `cbor:"1,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"2,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"3,keyasint,omitempty"`
}

// FrameEvent captures one delivered frame.
type FrameEvent struct {
	// StreamID is the data stream that delivered the buffer.
	StreamID string `cbor:"1,keyasint,omitempty"`

	// PixelFormat is the format the frame was decoded from.
	PixelFormat string `cbor:"2,keyasint"`

	// Width and Height are the frame dimensions in pixels.
	Width  int `cbor:"3,keyasint"`
	Height int `cbor:"4,keyasint"`

	// Bytes is the raw payload size.
	Bytes int `cbor:"5,keyasint"`
}

// FeatureAction distinguishes feature accesses.
type FeatureAction uint8

const (
	// ActionRead is a feature value read.
	ActionRead FeatureAction = 0
	// ActionWrite is a feature value write.
	ActionWrite FeatureAction = 1
	// ActionExecute is a command execution.
	ActionExecute FeatureAction = 2
)

// String returns the action name.
func (a FeatureAction) String() string {
	switch a {
	case ActionRead:
		return "READ"
	case ActionWrite:
		return "WRITE"
	case ActionExecute:
		return "EXECUTE"
	default:
		return "UNKNOWN"
	}
}

// FeatureEvent captures one feature access.
type FeatureEvent struct {
	// Name is the feature name.
	Name string `cbor:"1,keyasint"`

	// Action is the kind of access.
	Action FeatureAction `cbor:"2,keyasint"`

	// Value is the literal form of the value involved, if any.
	Value string `cbor:"3,keyasint,omitempty"`

	// Reason records why the access failed, if it did.
	Reason string `cbor:"4,keyasint,omitempty"`
}

// ErrorEventData captures an error at any layer.
type ErrorEventData struct {
	// Op is the operation that failed (e.g. "start_acquisition").
	Op string `cbor:"1,keyasint"`

	// Message is the error text.
	Message string `cbor:"2,keyasint"`
}
