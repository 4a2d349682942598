package genapi

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Node errors.
var (
	ErrNotConnected = errors.New("node map is not connected to a port")
	ErrBadEnumValue = errors.New("register holds no known enumeration entry")
)

// Node is one typed register view of the device.
type Node interface {
	// Name returns the feature name.
	Name() string

	// Description returns the feature description, possibly empty.
	Description() string

	// AccessMode evaluates the node's current access mode against the
	// device. The result must not be cached beyond one logical operation.
	AccessMode() (AccessMode, error)
}

// lockRef withdraws write access while the referenced node's current
// value differs from the unless literal.
type lockRef struct {
	feature string
	unless  string
	node    literalValuer
}

// literalValuer yields a node's current value as its canonical literal.
// Implemented by every value-carrying node; used for lock evaluation.
type literalValuer interface {
	literal() (string, error)
}

type nodeCommon struct {
	name        string
	description string
	address     uint64
	length      int
	declared    AccessMode
	lock        *lockRef
	m           *NodeMap
}

func (n *nodeCommon) Name() string        { return n.name }
func (n *nodeCommon) Description() string { return n.description }

// AccessMode evaluates the declared mode, then applies the lock
// reference if one is present. Locks only ever withdraw write access.
func (n *nodeCommon) AccessMode() (AccessMode, error) {
	mode := n.declared
	if n.lock == nil || !mode.CanWrite() {
		return mode, nil
	}
	cur, err := n.lock.node.literal()
	if err != nil {
		return AccessNotImplemented, fmt.Errorf("evaluating lock %q on %q: %w", n.lock.feature, n.name, err)
	}
	if cur == n.lock.unless {
		return mode, nil
	}
	if mode == AccessReadWrite {
		return AccessReadOnly, nil
	}
	return AccessNotAvailable, nil
}

func (n *nodeCommon) readRaw() ([]byte, error) {
	port := n.m.port
	if port == nil {
		return nil, ErrNotConnected
	}
	b, err := port.Read(n.address, n.length)
	if err != nil {
		return nil, fmt.Errorf("reading %q: %w", n.name, err)
	}
	if len(b) != n.length {
		return nil, fmt.Errorf("reading %q: short read (%d of %d bytes)", n.name, len(b), n.length)
	}
	return b, nil
}

func (n *nodeCommon) writeRaw(data []byte) error {
	port := n.m.port
	if port == nil {
		return ErrNotConnected
	}
	if err := port.Write(n.address, data); err != nil {
		return fmt.Errorf("writing %q: %w", n.name, err)
	}
	return nil
}

// beUint decodes a big-endian unsigned integer of 1 to 8 bytes.
func beUint(b []byte) uint64 {
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v
}

// bePut encodes v big-endian into the full length of buf.
func bePut(buf []byte, v uint64) {
	for i := len(buf) - 1; i >= 0; i-- {
		buf[i] = byte(v)
		v >>= 8
	}
}

// IntegerNode is a signed integer register with range and increment.
type IntegerNode struct {
	nodeCommon
	min, max int64
	inc      int64
}

// Min returns the minimum allowed value.
func (n *IntegerNode) Min() int64 { return n.min }

// Max returns the maximum allowed value.
func (n *IntegerNode) Max() int64 { return n.max }

// Increment returns the value increment.
func (n *IntegerNode) Increment() int64 { return n.inc }

// Value reads the current register value.
func (n *IntegerNode) Value() (int64, error) {
	b, err := n.readRaw()
	if err != nil {
		return 0, err
	}
	u := beUint(b)
	// Sign-extend registers narrower than 8 bytes.
	if n.length < 8 {
		shift := uint(64 - 8*n.length)
		return int64(u<<shift) >> shift, nil
	}
	return int64(u), nil
}

// SetValue writes v to the register. Range checking is the caller's
// responsibility; the feature layer enforces it.
func (n *IntegerNode) SetValue(v int64) error {
	buf := make([]byte, n.length)
	bePut(buf, uint64(v))
	return n.writeRaw(buf)
}

func (n *IntegerNode) literal() (string, error) {
	v, err := n.Value()
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(v, 10), nil
}

// FloatNode is an IEEE-754 register of 4 or 8 bytes.
type FloatNode struct {
	nodeCommon
	min, max float64
	unit     string
}

// Min returns the minimum allowed value.
func (n *FloatNode) Min() float64 { return n.min }

// Max returns the maximum allowed value.
func (n *FloatNode) Max() float64 { return n.max }

// Unit returns the physical unit of the value, possibly empty.
func (n *FloatNode) Unit() string { return n.unit }

// Value reads the current register value.
func (n *FloatNode) Value() (float64, error) {
	b, err := n.readRaw()
	if err != nil {
		return 0, err
	}
	if n.length == 4 {
		return float64(math.Float32frombits(uint32(beUint(b)))), nil
	}
	return math.Float64frombits(beUint(b)), nil
}

// SetValue writes v to the register.
func (n *FloatNode) SetValue(v float64) error {
	buf := make([]byte, n.length)
	if n.length == 4 {
		bePut(buf, uint64(math.Float32bits(float32(v))))
	} else {
		bePut(buf, math.Float64bits(v))
	}
	return n.writeRaw(buf)
}

func (n *FloatNode) literal() (string, error) {
	v, err := n.Value()
	if err != nil {
		return "", err
	}
	return strconv.FormatFloat(v, 'g', -1, 64), nil
}

// BooleanNode is a flag register; any nonzero content reads as true.
type BooleanNode struct {
	nodeCommon
}

// Value reads the current flag state.
func (n *BooleanNode) Value() (bool, error) {
	b, err := n.readRaw()
	if err != nil {
		return false, err
	}
	return beUint(b) != 0, nil
}

// SetValue writes the flag state as 1 or 0.
func (n *BooleanNode) SetValue(v bool) error {
	buf := make([]byte, n.length)
	if v {
		bePut(buf, 1)
	}
	return n.writeRaw(buf)
}

func (n *BooleanNode) literal() (string, error) {
	v, err := n.Value()
	if err != nil {
		return "", err
	}
	if v {
		return "1", nil
	}
	return "0", nil
}

// StringNode is a fixed-length NUL-padded text register.
type StringNode struct {
	nodeCommon
}

// MaxLength returns the register capacity in bytes.
func (n *StringNode) MaxLength() int { return n.length }

// Value reads the current text, with trailing NUL padding removed.
func (n *StringNode) Value() (string, error) {
	b, err := n.readRaw()
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(b), "\x00"), nil
}

// SetValue writes s NUL-padded to the register capacity.
func (n *StringNode) SetValue(s string) error {
	if len(s) > n.length {
		return fmt.Errorf("writing %q: string of %d bytes exceeds register capacity %d", n.name, len(s), n.length)
	}
	buf := make([]byte, n.length)
	copy(buf, s)
	return n.writeRaw(buf)
}

func (n *StringNode) literal() (string, error) {
	return n.Value()
}

// EnumEntry is one allowed symbol of an enumeration with its register value.
type EnumEntry struct {
	Name  string
	Value int64
}

// EnumerationNode is a register restricted to a fixed symbol set.
type EnumerationNode struct {
	nodeCommon
	entries []EnumEntry
}

// Symbolics returns the allowed symbols in declaration order.
func (n *EnumerationNode) Symbolics() []string {
	out := make([]string, len(n.entries))
	for i, e := range n.entries {
		out[i] = e.Name
	}
	return out
}

// Value reads the current symbol.
func (n *EnumerationNode) Value() (string, error) {
	b, err := n.readRaw()
	if err != nil {
		return "", err
	}
	v := int64(beUint(b))
	for _, e := range n.entries {
		if e.Value == v {
			return e.Name, nil
		}
	}
	return "", fmt.Errorf("%w: %q register value %d", ErrBadEnumValue, n.name, v)
}

// SetValue writes the register value of the named symbol.
func (n *EnumerationNode) SetValue(symbol string) error {
	for _, e := range n.entries {
		if e.Name == symbol {
			buf := make([]byte, n.length)
			bePut(buf, uint64(e.Value))
			return n.writeRaw(buf)
		}
	}
	return fmt.Errorf("writing %q: %q is not an enumeration entry", n.name, symbol)
}

func (n *EnumerationNode) literal() (string, error) {
	return n.Value()
}

// CommandNode triggers a device-side action by writing a fixed value.
type CommandNode struct {
	nodeCommon
	commandValue int64
}

// Execute writes the command value to the register.
func (n *CommandNode) Execute() error {
	buf := make([]byte, n.length)
	bePut(buf, uint64(n.commandValue))
	return n.writeRaw(buf)
}
