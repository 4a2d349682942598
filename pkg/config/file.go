package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/gencam-project/gencam-go/pkg/features"
	"github.com/gencam-project/gencam-go/pkg/genapi"
	"github.com/gencam-project/gencam-go/pkg/gentl"
)

// ErrFileExists means WriteFile would overwrite an existing file
// without the overwrite flag set.
var ErrFileExists = errors.New("configuration file already exists")

// DefaultFileName returns the conventional per-camera configuration
// file name, <Vendor>_<Model>_<Serial>_<TLType>.toml. Settings files
// are camera-model-specific by convention only; any subset of matching
// names is accepted from any file.
func DefaultFileName(info gentl.DeviceInfo) string {
	return strings.Join([]string{info.Vendor, info.Model, info.SerialNumber, info.TLType}, "_") + ".toml"
}

// ReadFile parses a settings document. TOML and YAML are recognized by
// file extension.
func ReadFile(path string) (map[string]any, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	settings := make(map[string]any)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(b, &settings); err != nil {
			return nil, fmt.Errorf("parsing %q: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &settings); err != nil {
			return nil, fmt.Errorf("parsing %q: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported configuration format %q", filepath.Ext(path))
	}
	return settings, nil
}

// WriteFile persists a settings document. The format follows the file
// extension as in ReadFile. An existing file is only replaced when
// overwrite is set.
func WriteFile(path string, settings map[string]any, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %q", ErrFileExists, path)
		}
	}
	var b []byte
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		b, err = toml.Marshal(settings)
	case ".yaml", ".yml":
		b, err = yaml.Marshal(settings)
	default:
		return fmt.Errorf("unsupported configuration format %q", filepath.Ext(path))
	}
	if err != nil {
		return fmt.Errorf("encoding %q: %w", path, err)
	}
	return os.WriteFile(path, b, 0644)
}

// Dump collects the current values of all read-write value features,
// producing a settings document that Apply can restore later.
func Dump(dir *features.Directory) (map[string]any, error) {
	selected := dir.Select(features.SelectOptions{
		Access: []genapi.AccessMode{genapi.AccessReadWrite},
	})
	out := make(map[string]any, len(selected))
	for name, f := range selected {
		valuer, ok := f.(features.Valuer)
		if !ok {
			continue
		}
		value, err := valuer.Get()
		if err != nil {
			return nil, fmt.Errorf("dumping %q: %w", name, err)
		}
		out[name] = value
	}
	return out, nil
}

// DumpInfo collects the full attribute set of every feature matching
// the options, keyed by name. Used for feature documentation dumps.
func DumpInfo(dir *features.Directory, opts features.SelectOptions) map[string]any {
	selected := dir.Select(opts)
	out := make(map[string]any, len(selected))
	for name, f := range selected {
		out[name] = features.Info(f)
	}
	return out
}
