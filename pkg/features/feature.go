package features

import (
	"errors"
	"fmt"

	"github.com/gencam-project/gencam-go/pkg/genapi"
)

// Feature errors.
var (
	// ErrAccessDenied means the feature's current access mode does not
	// permit the requested operation.
	ErrAccessDenied = errors.New("access denied")

	// ErrInvalidValue means the value fails the variant's validation.
	ErrInvalidValue = errors.New("invalid value")

	// ErrOutOfRange means a numeric value lies outside [min, max].
	ErrOutOfRange = errors.New("value out of range")
)

// Kind identifies one of the six feature variants.
type Kind uint8

const (
	KindBoolean Kind = iota
	KindInteger
	KindFloat
	KindEnumeration
	KindString
	KindCommand
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindBoolean:
		return "Boolean"
	case KindInteger:
		return "Integer"
	case KindFloat:
		return "Float"
	case KindEnumeration:
		return "Enumeration"
	case KindString:
		return "String"
	case KindCommand:
		return "Command"
	default:
		return "Unknown"
	}
}

// Feature is one typed, validated view of a device capability.
type Feature interface {
	// Name returns the feature name.
	Name() string

	// Description returns the feature description, possibly empty.
	Description() string

	// Kind returns the feature variant.
	Kind() Kind

	// AccessMode queries the feature's current access mode from the
	// device. Device-internal dependencies can change it between calls,
	// so results must not be cached.
	AccessMode() (genapi.AccessMode, error)
}

// Valuer is implemented by every variant that carries a value, which is
// all of them except Command.
type Valuer interface {
	Feature

	// Get returns the current value. Requires read access.
	Get() (any, error)

	// Set validates and writes a new value. Requires write access.
	// Accepts the variant's native type and its literal representation.
	Set(value any) error
}

// Wrap classifies a node into its feature variant. Nodes outside the
// closed six-kind set report ok == false and are not usable features.
func Wrap(n genapi.Node) (Feature, bool) {
	switch v := n.(type) {
	case *genapi.BooleanNode:
		return &Boolean{node: v}, true
	case *genapi.IntegerNode:
		return &Integer{node: v}, true
	case *genapi.FloatNode:
		return &Float{node: v}, true
	case *genapi.EnumerationNode:
		return &Enumeration{node: v}, true
	case *genapi.StringNode:
		return &String{node: v}, true
	case *genapi.CommandNode:
		return &Command{node: v}, true
	default:
		return nil, false
	}
}

// checkRead fails with ErrAccessDenied unless f is currently readable.
// The message distinguishes write-only features from inaccessible ones.
func checkRead(f Feature) error {
	mode, err := f.AccessMode()
	if err != nil {
		return err
	}
	if mode.CanRead() {
		return nil
	}
	if mode.CanWrite() {
		return fmt.Errorf("%w: cannot get value of %q: feature is write-only", ErrAccessDenied, f.Name())
	}
	return fmt.Errorf("%w: cannot get value of %q: feature is not accessible", ErrAccessDenied, f.Name())
}

// checkWrite fails with ErrAccessDenied unless f is currently writable.
func checkWrite(f Feature) error {
	mode, err := f.AccessMode()
	if err != nil {
		return err
	}
	if mode.CanWrite() {
		return nil
	}
	if mode.CanRead() {
		return fmt.Errorf("%w: cannot set value of %q: feature is read-only", ErrAccessDenied, f.Name())
	}
	return fmt.Errorf("%w: cannot set value of %q: feature is not accessible", ErrAccessDenied, f.Name())
}
