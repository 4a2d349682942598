package genapi

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/gencam-project/gencam-go/pkg/gentl"
	"github.com/gencam-project/gencam-go/pkg/version"
)

// Parse errors.
var (
	ErrMalformedDescription = errors.New("malformed register description")
	ErrUnsupportedSchema    = errors.New("unsupported description schema version")
)

// NodeMap is the parsed feature tree of one device, bound to a register
// port via Connect.
type NodeMap struct {
	model  string
	vendor string
	schema version.SchemaVersion
	port   gentl.Port
	nodes  map[string]Node
	order  []string
}

// Model returns the model name declared by the description.
func (m *NodeMap) Model() string { return m.model }

// Vendor returns the vendor name declared by the description.
func (m *NodeMap) Vendor() string { return m.vendor }

// SchemaVersion returns the schema version declared by the description.
// Descriptions without a declared version report the zero value.
func (m *NodeMap) SchemaVersion() version.SchemaVersion { return m.schema }

// Connect binds all nodes to the given register port.
func (m *NodeMap) Connect(port gentl.Port) { m.port = port }

// Disconnect unbinds the node map from its port. Subsequent register
// access fails with ErrNotConnected.
func (m *NodeMap) Disconnect() { m.port = nil }

// Node returns the named node.
func (m *NodeMap) Node(name string) (Node, bool) {
	n, ok := m.nodes[name]
	return n, ok
}

// Names returns all node names in declaration order.
func (m *NodeMap) Names() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// Len returns the number of nodes.
func (m *NodeMap) Len() int { return len(m.nodes) }

// XML unmarshalling targets. Elements shared by all node kinds are
// carried in xmlCommon; kind-specific elements live on the outer struct.

type xmlLockedBy struct {
	Feature string `xml:"Feature,attr"`
	Unless  string `xml:"Unless,attr"`
}

type xmlCommon struct {
	Name        string       `xml:"Name,attr"`
	Description string       `xml:"Description"`
	Address     string       `xml:"Address"`
	Length      int          `xml:"Length"`
	AccessMode  string       `xml:"AccessMode"`
	LockedBy    *xmlLockedBy `xml:"LockedBy"`
}

type xmlInteger struct {
	xmlCommon
	Min *int64 `xml:"Min"`
	Max *int64 `xml:"Max"`
	Inc *int64 `xml:"Inc"`
}

type xmlFloat struct {
	xmlCommon
	Min  *float64 `xml:"Min"`
	Max  *float64 `xml:"Max"`
	Unit string   `xml:"Unit"`
}

type xmlBoolean struct {
	xmlCommon
}

type xmlString struct {
	xmlCommon
}

type xmlEnumEntry struct {
	Name  string `xml:"Name,attr"`
	Value string `xml:"Value"`
}

type xmlEnumeration struct {
	xmlCommon
	Entries []xmlEnumEntry `xml:"EnumEntry"`
}

type xmlCommand struct {
	xmlCommon
	CommandValue string `xml:"CommandValue"`
}

// Parse builds a NodeMap from an XML register description. The returned
// map is not yet connected to a port. Cross-references (LockedBy) are
// resolved here; a dangling reference is a parse error.
func Parse(description []byte) (*NodeMap, error) {
	m := &NodeMap{nodes: make(map[string]Node)}

	dec := xml.NewDecoder(bytes.NewReader(description))
	var sawRoot bool
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedDescription, err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if !sawRoot {
			if start.Name.Local != "RegisterDescription" {
				return nil, fmt.Errorf("%w: root element is %q, want RegisterDescription", ErrMalformedDescription, start.Name.Local)
			}
			sawRoot = true
			var schemaMajor, schemaMinor, schemaSubminor string
			for _, attr := range start.Attr {
				switch attr.Name.Local {
				case "ModelName":
					m.model = attr.Value
				case "VendorName":
					m.vendor = attr.Value
				case "SchemaMajorVersion":
					schemaMajor = attr.Value
				case "SchemaMinorVersion":
					schemaMinor = attr.Value
				case "SchemaSubMinorVersion":
					schemaSubminor = attr.Value
				}
			}
			if schemaMajor != "" {
				if schemaMinor == "" {
					schemaMinor = "0"
				}
				s := schemaMajor + "." + schemaMinor
				if schemaSubminor != "" {
					s += "." + schemaSubminor
				}
				schema, err := version.Parse(s)
				if err != nil {
					return nil, fmt.Errorf("%w: %v", ErrMalformedDescription, err)
				}
				if !schema.Compatible(version.Supported()) {
					return nil, fmt.Errorf("%w: %s", ErrUnsupportedSchema, schema)
				}
				m.schema = schema
			}
			continue
		}

		var node Node
		switch start.Name.Local {
		case "Integer":
			var x xmlInteger
			if err := dec.DecodeElement(&x, &start); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformedDescription, err)
			}
			node, err = buildInteger(m, x)
		case "Float":
			var x xmlFloat
			if err := dec.DecodeElement(&x, &start); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformedDescription, err)
			}
			node, err = buildFloat(m, x)
		case "Boolean":
			var x xmlBoolean
			if err := dec.DecodeElement(&x, &start); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformedDescription, err)
			}
			node, err = buildBoolean(m, x)
		case "String":
			var x xmlString
			if err := dec.DecodeElement(&x, &start); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformedDescription, err)
			}
			node, err = buildString(m, x)
		case "Enumeration":
			var x xmlEnumeration
			if err := dec.DecodeElement(&x, &start); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformedDescription, err)
			}
			node, err = buildEnumeration(m, x)
		case "Command":
			var x xmlCommand
			if err := dec.DecodeElement(&x, &start); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformedDescription, err)
			}
			node, err = buildCommand(m, x)
		default:
			// Unknown elements are skipped so newer descriptions
			// remain loadable.
			if err := dec.Skip(); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformedDescription, err)
			}
			continue
		}
		if err != nil {
			return nil, err
		}

		name := node.Name()
		if _, exists := m.nodes[name]; exists {
			return nil, fmt.Errorf("%w: duplicate node %q", ErrMalformedDescription, name)
		}
		m.nodes[name] = node
		m.order = append(m.order, name)
	}

	if !sawRoot {
		return nil, fmt.Errorf("%w: no RegisterDescription element", ErrMalformedDescription)
	}
	if err := m.resolveLocks(); err != nil {
		return nil, err
	}
	return m, nil
}

// resolveLocks binds every LockedBy reference to its target node.
func (m *NodeMap) resolveLocks() error {
	for _, name := range m.order {
		common := nodeCommonOf(m.nodes[name])
		if common.lock == nil {
			continue
		}
		target, ok := m.nodes[common.lock.feature]
		if !ok {
			return fmt.Errorf("%w: node %q locked by unknown feature %q", ErrMalformedDescription, name, common.lock.feature)
		}
		valuer, ok := target.(literalValuer)
		if !ok {
			return fmt.Errorf("%w: node %q locked by %q, which has no value", ErrMalformedDescription, name, common.lock.feature)
		}
		common.lock.node = valuer
	}
	return nil
}

func nodeCommonOf(n Node) *nodeCommon {
	switch v := n.(type) {
	case *IntegerNode:
		return &v.nodeCommon
	case *FloatNode:
		return &v.nodeCommon
	case *BooleanNode:
		return &v.nodeCommon
	case *StringNode:
		return &v.nodeCommon
	case *EnumerationNode:
		return &v.nodeCommon
	case *CommandNode:
		return &v.nodeCommon
	}
	return nil
}

func buildCommon(m *NodeMap, x xmlCommon, defaultLength int) (nodeCommon, error) {
	if x.Name == "" {
		return nodeCommon{}, fmt.Errorf("%w: node without Name attribute", ErrMalformedDescription)
	}
	addr, err := parseNumber(x.Address)
	if err != nil {
		return nodeCommon{}, fmt.Errorf("%w: node %q: bad Address %q", ErrMalformedDescription, x.Name, x.Address)
	}
	length := x.Length
	if length == 0 {
		length = defaultLength
	}
	if length <= 0 || length > 256 {
		return nodeCommon{}, fmt.Errorf("%w: node %q: bad Length %d", ErrMalformedDescription, x.Name, x.Length)
	}
	mode, err := parseAccessMode(x.AccessMode)
	if err != nil {
		return nodeCommon{}, fmt.Errorf("%w: node %q: %v", ErrMalformedDescription, x.Name, err)
	}
	c := nodeCommon{
		name:        x.Name,
		description: strings.TrimSpace(x.Description),
		address:     addr,
		length:      length,
		declared:    mode,
		m:           m,
	}
	if x.LockedBy != nil {
		if x.LockedBy.Feature == "" {
			return nodeCommon{}, fmt.Errorf("%w: node %q: LockedBy without Feature", ErrMalformedDescription, x.Name)
		}
		c.lock = &lockRef{feature: x.LockedBy.Feature, unless: x.LockedBy.Unless}
	}
	return c, nil
}

func buildInteger(m *NodeMap, x xmlInteger) (Node, error) {
	c, err := buildCommon(m, x.xmlCommon, 4)
	if err != nil {
		return nil, err
	}
	if c.length > 8 {
		return nil, fmt.Errorf("%w: integer %q: Length %d exceeds 8", ErrMalformedDescription, c.name, c.length)
	}
	n := &IntegerNode{nodeCommon: c, min: math.MinInt64, max: math.MaxInt64, inc: 1}
	if x.Min != nil {
		n.min = *x.Min
	}
	if x.Max != nil {
		n.max = *x.Max
	}
	if x.Inc != nil {
		n.inc = *x.Inc
	}
	if n.min > n.max {
		return nil, fmt.Errorf("%w: integer %q: Min %d > Max %d", ErrMalformedDescription, c.name, n.min, n.max)
	}
	return n, nil
}

func buildFloat(m *NodeMap, x xmlFloat) (Node, error) {
	c, err := buildCommon(m, x.xmlCommon, 8)
	if err != nil {
		return nil, err
	}
	if c.length != 4 && c.length != 8 {
		return nil, fmt.Errorf("%w: float %q: Length must be 4 or 8, got %d", ErrMalformedDescription, c.name, c.length)
	}
	n := &FloatNode{nodeCommon: c, min: -math.MaxFloat64, max: math.MaxFloat64, unit: strings.TrimSpace(x.Unit)}
	if x.Min != nil {
		n.min = *x.Min
	}
	if x.Max != nil {
		n.max = *x.Max
	}
	if n.min > n.max {
		return nil, fmt.Errorf("%w: float %q: Min %g > Max %g", ErrMalformedDescription, c.name, n.min, n.max)
	}
	return n, nil
}

func buildBoolean(m *NodeMap, x xmlBoolean) (Node, error) {
	c, err := buildCommon(m, x.xmlCommon, 1)
	if err != nil {
		return nil, err
	}
	if c.length > 8 {
		return nil, fmt.Errorf("%w: boolean %q: Length %d exceeds 8", ErrMalformedDescription, c.name, c.length)
	}
	return &BooleanNode{nodeCommon: c}, nil
}

func buildString(m *NodeMap, x xmlString) (Node, error) {
	c, err := buildCommon(m, x.xmlCommon, 0)
	if err != nil {
		return nil, err
	}
	return &StringNode{nodeCommon: c}, nil
}

func buildEnumeration(m *NodeMap, x xmlEnumeration) (Node, error) {
	c, err := buildCommon(m, x.xmlCommon, 4)
	if err != nil {
		return nil, err
	}
	if c.length > 8 {
		return nil, fmt.Errorf("%w: enumeration %q: Length %d exceeds 8", ErrMalformedDescription, c.name, c.length)
	}
	if len(x.Entries) == 0 {
		return nil, fmt.Errorf("%w: enumeration %q has no entries", ErrMalformedDescription, c.name)
	}
	n := &EnumerationNode{nodeCommon: c}
	seen := make(map[string]bool, len(x.Entries))
	for _, e := range x.Entries {
		if e.Name == "" {
			return nil, fmt.Errorf("%w: enumeration %q: entry without Name", ErrMalformedDescription, c.name)
		}
		if seen[e.Name] {
			return nil, fmt.Errorf("%w: enumeration %q: duplicate entry %q", ErrMalformedDescription, c.name, e.Name)
		}
		seen[e.Name] = true
		v, err := parseSignedNumber(e.Value)
		if err != nil {
			return nil, fmt.Errorf("%w: enumeration %q: entry %q: bad Value %q", ErrMalformedDescription, c.name, e.Name, e.Value)
		}
		n.entries = append(n.entries, EnumEntry{Name: e.Name, Value: v})
	}
	return n, nil
}

func buildCommand(m *NodeMap, x xmlCommand) (Node, error) {
	c, err := buildCommon(m, x.xmlCommon, 4)
	if err != nil {
		return nil, err
	}
	if c.length > 8 {
		return nil, fmt.Errorf("%w: command %q: Length %d exceeds 8", ErrMalformedDescription, c.name, c.length)
	}
	// Commands are actions: they default to write-only unless declared.
	if x.AccessMode == "" {
		c.declared = AccessWriteOnly
	}
	n := &CommandNode{nodeCommon: c, commandValue: 1}
	if x.CommandValue != "" {
		v, err := parseSignedNumber(x.CommandValue)
		if err != nil {
			return nil, fmt.Errorf("%w: command %q: bad CommandValue %q", ErrMalformedDescription, c.name, x.CommandValue)
		}
		n.commandValue = v
	}
	return n, nil
}

// parseNumber accepts decimal or 0x-prefixed hexadecimal.
func parseNumber(s string) (uint64, error) {
	return strconv.ParseUint(strings.TrimSpace(s), 0, 64)
}

func parseSignedNumber(s string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(s), 0, 64)
}

func parseAccessMode(s string) (AccessMode, error) {
	switch strings.TrimSpace(s) {
	case "", "RW":
		return AccessReadWrite, nil
	case "RO":
		return AccessReadOnly, nil
	case "WO":
		return AccessWriteOnly, nil
	case "NA":
		return AccessNotAvailable, nil
	case "NI":
		return AccessNotImplemented, nil
	default:
		return 0, fmt.Errorf("unknown AccessMode %q", s)
	}
}
