package features

import (
	"fmt"
	"strings"

	"github.com/gencam-project/gencam-go/pkg/genapi"
)

// Directory is the name index of one device's usable features. It keeps
// only nodes with a supported variant whose access mode was not NI/NA
// at build time, and preserves the description's declaration order.
// A Directory is exclusively owned by one camera session.
type Directory struct {
	byName map[string]Feature
	names  []string
}

// NewDirectory builds the directory from a connected node map. Nodes of
// unsupported kinds and nodes that are not implemented or not available
// are silently excluded. A failure to evaluate an access mode (for
// example a register read error) aborts the build.
func NewDirectory(m *genapi.NodeMap) (*Directory, error) {
	d := &Directory{byName: make(map[string]Feature)}
	for _, name := range m.Names() {
		node, _ := m.Node(name)
		f, ok := Wrap(node)
		if !ok {
			continue
		}
		mode, err := f.AccessMode()
		if err != nil {
			return nil, fmt.Errorf("building feature directory: %w", err)
		}
		if mode == genapi.AccessNotImplemented || mode == genapi.AccessNotAvailable {
			continue
		}
		d.byName[name] = f
		d.names = append(d.names, name)
	}
	return d, nil
}

// Get returns the named feature.
func (d *Directory) Get(name string) (Feature, bool) {
	f, ok := d.byName[name]
	return f, ok
}

// Value returns the named feature if it carries a value.
func (d *Directory) Value(name string) (Valuer, bool) {
	f, ok := d.byName[name]
	if !ok {
		return nil, false
	}
	v, ok := f.(Valuer)
	return v, ok
}

// Has reports whether the named feature exists.
func (d *Directory) Has(name string) bool {
	_, ok := d.byName[name]
	return ok
}

// Names returns all feature names in declaration order.
func (d *Directory) Names() []string {
	out := make([]string, len(d.names))
	copy(out, d.names)
	return out
}

// Len returns the number of features.
func (d *Directory) Len() int { return len(d.byName) }

// SelectOptions filters a directory. Zero-valued fields match everything.
type SelectOptions struct {
	// Kinds restricts results to the listed variants.
	Kinds []Kind

	// Access restricts results to features whose current access mode is
	// one of the listed modes. Evaluated live per feature.
	Access []genapi.AccessMode

	// Pattern is a substring the feature name must contain.
	Pattern string
}

// Select returns the features matching the options, keyed by name.
// Features whose access mode cannot be evaluated are skipped.
func (d *Directory) Select(opts SelectOptions) map[string]Feature {
	out := make(map[string]Feature)
	for _, name := range d.names {
		f := d.byName[name]
		if opts.Pattern != "" && !strings.Contains(name, opts.Pattern) {
			continue
		}
		if len(opts.Kinds) > 0 && !containsKind(opts.Kinds, f.Kind()) {
			continue
		}
		if len(opts.Access) > 0 {
			mode, err := f.AccessMode()
			if err != nil || !containsMode(opts.Access, mode) {
				continue
			}
		}
		out[name] = f
	}
	return out
}

func containsKind(kinds []Kind, k Kind) bool {
	for _, c := range kinds {
		if c == k {
			return true
		}
	}
	return false
}

func containsMode(modes []genapi.AccessMode, m genapi.AccessMode) bool {
	for _, c := range modes {
		if c == m {
			return true
		}
	}
	return false
}

// Info collects a feature's static attributes plus, when readable, its
// current value. Used for feature dumps.
func Info(f Feature) map[string]any {
	info := map[string]any{
		"name":        f.Name(),
		"description": f.Description(),
		"kind":        f.Kind().String(),
	}
	if mode, err := f.AccessMode(); err == nil {
		info["access_mode"] = mode.String()
	}
	switch v := f.(type) {
	case *Integer:
		info["min"] = v.Min()
		info["max"] = v.Max()
		info["increment"] = v.Increment()
	case *Float:
		info["min"] = v.Min()
		info["max"] = v.Max()
		if v.Unit() != "" {
			info["unit"] = v.Unit()
		}
	case *Enumeration:
		info["valid_values"] = v.ValidValues()
	}
	if valuer, ok := f.(Valuer); ok {
		if value, err := valuer.Get(); err == nil {
			info["value"] = value
		}
	}
	return info
}
