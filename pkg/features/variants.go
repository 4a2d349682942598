package features

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/gencam-project/gencam-go/pkg/genapi"
)

// Boolean is a flag feature. It coerces exactly the canonical literals
// "True" and "False" in addition to native bool values.
type Boolean struct {
	node *genapi.BooleanNode
}

func (b *Boolean) Name() string                          { return b.node.Name() }
func (b *Boolean) Description() string                   { return b.node.Description() }
func (b *Boolean) Kind() Kind                            { return KindBoolean }
func (b *Boolean) AccessMode() (genapi.AccessMode, error) { return b.node.AccessMode() }

// Value returns the current flag state. Requires read access.
func (b *Boolean) Value() (bool, error) {
	if err := checkRead(b); err != nil {
		return false, err
	}
	return b.node.Value()
}

// SetValue writes the flag state. Requires write access.
func (b *Boolean) SetValue(v bool) error {
	if err := checkWrite(b); err != nil {
		return err
	}
	return b.node.SetValue(v)
}

// Get implements Valuer.
func (b *Boolean) Get() (any, error) {
	return b.Value()
}

// Set implements Valuer.
func (b *Boolean) Set(value any) error {
	if err := checkWrite(b); err != nil {
		return err
	}
	switch v := value.(type) {
	case bool:
		return b.node.SetValue(v)
	case string:
		switch v {
		case "True":
			return b.node.SetValue(true)
		case "False":
			return b.node.SetValue(false)
		}
		return fmt.Errorf("%w: %q expected \"True\" or \"False\" but got %q", ErrInvalidValue, b.Name(), v)
	default:
		return fmt.Errorf("%w: %q expected a boolean but got %T", ErrInvalidValue, b.Name(), value)
	}
}

// Integer is a bounded integer feature.
type Integer struct {
	node *genapi.IntegerNode
}

func (i *Integer) Name() string                          { return i.node.Name() }
func (i *Integer) Description() string                   { return i.node.Description() }
func (i *Integer) Kind() Kind                            { return KindInteger }
func (i *Integer) AccessMode() (genapi.AccessMode, error) { return i.node.AccessMode() }

// Min returns the minimum allowed value.
func (i *Integer) Min() int64 { return i.node.Min() }

// Max returns the maximum allowed value.
func (i *Integer) Max() int64 { return i.node.Max() }

// Increment returns the value increment.
func (i *Integer) Increment() int64 { return i.node.Increment() }

// Value returns the current value. Requires read access.
func (i *Integer) Value() (int64, error) {
	if err := checkRead(i); err != nil {
		return 0, err
	}
	return i.node.Value()
}

// SetValue range-checks and writes v. Requires write access.
func (i *Integer) SetValue(v int64) error {
	if err := checkWrite(i); err != nil {
		return err
	}
	return i.write(v)
}

func (i *Integer) write(v int64) error {
	if v < i.Min() || v > i.Max() {
		return fmt.Errorf("%w: %q expected a number between (%d, %d) but got %d", ErrOutOfRange, i.Name(), i.Min(), i.Max(), v)
	}
	return i.node.SetValue(v)
}

// Get implements Valuer.
func (i *Integer) Get() (any, error) {
	return i.Value()
}

// Set implements Valuer. It coerces all native integer types, integral
// floats and decimal string literals.
func (i *Integer) Set(value any) error {
	if err := checkWrite(i); err != nil {
		return err
	}
	v, ok := coerceInt(value)
	if !ok {
		return fmt.Errorf("%w: %q expected an integer but got %v (%T)", ErrInvalidValue, i.Name(), value, value)
	}
	return i.write(v)
}

// Float is a bounded floating-point feature with an optional unit.
type Float struct {
	node *genapi.FloatNode
}

func (f *Float) Name() string                          { return f.node.Name() }
func (f *Float) Description() string                   { return f.node.Description() }
func (f *Float) Kind() Kind                            { return KindFloat }
func (f *Float) AccessMode() (genapi.AccessMode, error) { return f.node.AccessMode() }

// Min returns the minimum allowed value.
func (f *Float) Min() float64 { return f.node.Min() }

// Max returns the maximum allowed value.
func (f *Float) Max() float64 { return f.node.Max() }

// Unit returns the physical unit of the value, possibly empty.
func (f *Float) Unit() string { return f.node.Unit() }

// Value returns the current value. Requires read access.
func (f *Float) Value() (float64, error) {
	if err := checkRead(f); err != nil {
		return 0, err
	}
	return f.node.Value()
}

// SetValue range-checks and writes v. Requires write access.
func (f *Float) SetValue(v float64) error {
	if err := checkWrite(f); err != nil {
		return err
	}
	return f.write(v)
}

func (f *Float) write(v float64) error {
	if v < f.Min() || v > f.Max() {
		return fmt.Errorf("%w: %q expected a number between (%g, %g) but got %g", ErrOutOfRange, f.Name(), f.Min(), f.Max(), v)
	}
	return f.node.SetValue(v)
}

// Get implements Valuer.
func (f *Float) Get() (any, error) {
	return f.Value()
}

// Set implements Valuer. It coerces all native numeric types and string
// literals.
func (f *Float) Set(value any) error {
	if err := checkWrite(f); err != nil {
		return err
	}
	v, ok := coerceFloat(value)
	if !ok {
		return fmt.Errorf("%w: %q expected a number but got %v (%T)", ErrInvalidValue, f.Name(), value, value)
	}
	return f.write(v)
}

// Enumeration is a feature restricted to a fixed, ordered symbol set.
type Enumeration struct {
	node *genapi.EnumerationNode
}

func (e *Enumeration) Name() string                          { return e.node.Name() }
func (e *Enumeration) Description() string                   { return e.node.Description() }
func (e *Enumeration) Kind() Kind                            { return KindEnumeration }
func (e *Enumeration) AccessMode() (genapi.AccessMode, error) { return e.node.AccessMode() }

// ValidValues returns the allowed symbols in declaration order.
func (e *Enumeration) ValidValues() []string { return e.node.Symbolics() }

// Value returns the current symbol. Requires read access.
func (e *Enumeration) Value() (string, error) {
	if err := checkRead(e); err != nil {
		return "", err
	}
	return e.node.Value()
}

// SetValue validates membership and writes the symbol. Requires write
// access.
func (e *Enumeration) SetValue(symbol string) error {
	if err := checkWrite(e); err != nil {
		return err
	}
	return e.write(symbol)
}

func (e *Enumeration) write(symbol string) error {
	valid := e.ValidValues()
	for _, s := range valid {
		if s == symbol {
			return e.node.SetValue(symbol)
		}
	}
	return fmt.Errorf("%w: %q expected one of [%s] but got %q", ErrInvalidValue, e.Name(), strings.Join(valid, " "), symbol)
}

// Get implements Valuer.
func (e *Enumeration) Get() (any, error) {
	return e.Value()
}

// Set implements Valuer.
func (e *Enumeration) Set(value any) error {
	if err := checkWrite(e); err != nil {
		return err
	}
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("%w: %q expected a symbol but got %v (%T)", ErrInvalidValue, e.Name(), value, value)
	}
	return e.write(s)
}

// String is a free-text feature.
type String struct {
	node *genapi.StringNode
}

func (s *String) Name() string                          { return s.node.Name() }
func (s *String) Description() string                   { return s.node.Description() }
func (s *String) Kind() Kind                            { return KindString }
func (s *String) AccessMode() (genapi.AccessMode, error) { return s.node.AccessMode() }

// Value returns the current text. Requires read access.
func (s *String) Value() (string, error) {
	if err := checkRead(s); err != nil {
		return "", err
	}
	return s.node.Value()
}

// SetValue writes the text. Requires write access.
func (s *String) SetValue(v string) error {
	if err := checkWrite(s); err != nil {
		return err
	}
	return s.node.SetValue(v)
}

// Get implements Valuer.
func (s *String) Get() (any, error) {
	return s.Value()
}

// Set implements Valuer. Any value is accepted as its text form.
func (s *String) Set(value any) error {
	if err := checkWrite(s); err != nil {
		return err
	}
	if v, ok := value.(string); ok {
		return s.node.SetValue(v)
	}
	return s.node.SetValue(fmt.Sprint(value))
}

// Command is an executable feature with no value.
type Command struct {
	node *genapi.CommandNode
}

func (c *Command) Name() string                          { return c.node.Name() }
func (c *Command) Description() string                   { return c.node.Description() }
func (c *Command) Kind() Kind                            { return KindCommand }
func (c *Command) AccessMode() (genapi.AccessMode, error) { return c.node.AccessMode() }

// Execute triggers the device-side action. Requires write access.
func (c *Command) Execute() error {
	if err := checkWrite(c); err != nil {
		return err
	}
	return c.node.Execute()
}

// coerceInt converts native integer types, integral floats and decimal
// string literals to int64.
func coerceInt(value any) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		return int64(v), true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		if v > math.MaxInt64 {
			return 0, false
		}
		return int64(v), true
	case float32:
		return coerceInt(float64(v))
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int64(v), true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// coerceFloat converts native numeric types and string literals to
// float64.
func coerceFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float32:
		return float64(v), true
	case float64:
		return v, true
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		n, ok := coerceInt(value)
		if !ok {
			return 0, false
		}
		return float64(n), true
	}
}

// Compile-time interface satisfaction checks.
var (
	_ Valuer  = (*Boolean)(nil)
	_ Valuer  = (*Integer)(nil)
	_ Valuer  = (*Float)(nil)
	_ Valuer  = (*Enumeration)(nil)
	_ Valuer  = (*String)(nil)
	_ Feature = (*Command)(nil)
)
