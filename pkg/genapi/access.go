package genapi

// AccessMode is the current accessibility of a node, following the
// GenICam EAccessMode enumeration.
type AccessMode uint8

const (
	// AccessNotImplemented means the feature does not exist on this device.
	AccessNotImplemented AccessMode = iota

	// AccessNotAvailable means the feature exists but is currently
	// inaccessible, typically because another feature locks it out.
	AccessNotAvailable

	// AccessWriteOnly allows writing but not reading.
	AccessWriteOnly

	// AccessReadOnly allows reading but not writing.
	AccessReadOnly

	// AccessReadWrite allows both reading and writing.
	AccessReadWrite
)

// CanRead returns true if reading is allowed.
func (a AccessMode) CanRead() bool {
	return a == AccessReadOnly || a == AccessReadWrite
}

// CanWrite returns true if writing is allowed.
func (a AccessMode) CanWrite() bool {
	return a == AccessWriteOnly || a == AccessReadWrite
}

// String returns the GenICam access mode abbreviation.
func (a AccessMode) String() string {
	switch a {
	case AccessNotImplemented:
		return "NI"
	case AccessNotAvailable:
		return "NA"
	case AccessWriteOnly:
		return "WO"
	case AccessReadOnly:
		return "RO"
	case AccessReadWrite:
		return "RW"
	default:
		return "UNKNOWN"
	}
}
