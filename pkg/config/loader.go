// Package config applies and persists batches of camera settings.
//
// Camera settings are order-dependent: writing one feature can change
// which others are writable (switching GainAuto off makes Gain
// writable, for example). The loader therefore applies a settings batch
// by fixpoint iteration: repeated full passes over the remaining names,
// applying whatever is currently writable, until a pass makes no
// progress. Partial application is an expected outcome and is reported
// as diagnostics, not as an error.
package config

import (
	"log/slog"

	"github.com/gencam-project/gencam-go/pkg/features"
)

// Failure reasons reported for settings that could not be applied.
const (
	// ReasonNotWritable means the feature never became writable.
	ReasonNotWritable = "feature is not writable"

	// ReasonUnknownFeature means the directory has no such feature.
	ReasonUnknownFeature = "no such feature"

	// ReasonNoValue means the feature carries no value (a command).
	ReasonNoValue = "feature has no value"
)

// Loader applies settings batches to a feature directory.
// The zero value is ready to use; Logger may be set for per-attempt
// debug output.
type Loader struct {
	// Logger receives per-attempt debug records. May be nil.
	Logger *slog.Logger
}

// Apply applies the settings to the directory by fixpoint iteration.
// Successfully applied settings are removed from the map in place.
// It returns the shrunken map together with the last recorded failure
// reason for each remaining name.
//
// Convergence: applying a writable setting can only change other
// features' access modes or ranges, never undo an applied write, and
// applied names are never re-queued. Worst case is O(n²) feature
// touches for n settings, acceptable since batches are small.
func (l *Loader) Apply(dir *features.Directory, settings map[string]any) (map[string]any, map[string]string) {
	reasons := make(map[string]string)
	tries := make(map[string]int, len(settings))

	progress := true
	for progress {
		progress = false
		for name, value := range settings {
			tries[name]++
			l.debug("applying setting", "feature", name, "try", tries[name])

			valuer, reason, writable := l.resolve(dir, name)
			if !writable {
				reasons[name] = reason
				l.debug("setting deferred", "feature", name, "reason", reason)
				continue
			}

			if err := valuer.Set(value); err != nil {
				reasons[name] = err.Error()
				l.debug("setting failed", "feature", name, "error", err)
				continue
			}

			delete(settings, name)
			delete(reasons, name)
			progress = true
		}
	}

	for name := range settings {
		l.warn("setting not applied", "feature", name, "reason", reasons[name])
	}
	return settings, reasons
}

// resolve looks up a writable valuer for name, or explains why there is
// none right now.
func (l *Loader) resolve(dir *features.Directory, name string) (features.Valuer, string, bool) {
	f, ok := dir.Get(name)
	if !ok {
		return nil, ReasonUnknownFeature, false
	}
	valuer, ok := f.(features.Valuer)
	if !ok {
		return nil, ReasonNoValue, false
	}
	mode, err := f.AccessMode()
	if err != nil {
		return nil, err.Error(), false
	}
	if !mode.CanWrite() {
		return nil, ReasonNotWritable, false
	}
	return valuer, "", true
}

// Apply is a convenience wrapper over a zero-valued Loader.
func Apply(dir *features.Directory, settings map[string]any) (map[string]any, map[string]string) {
	return (&Loader{}).Apply(dir, settings)
}

func (l *Loader) debug(msg string, args ...any) {
	if l.Logger != nil {
		l.Logger.Debug(msg, args...)
	}
}

func (l *Loader) warn(msg string, args ...any) {
	if l.Logger != nil {
		l.Logger.Warn(msg, args...)
	}
}
