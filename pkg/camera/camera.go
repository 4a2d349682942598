package camera

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/gencam-project/gencam-go/pkg/config"
	"github.com/gencam-project/gencam-go/pkg/descriptor"
	"github.com/gencam-project/gencam-go/pkg/features"
	"github.com/gencam-project/gencam-go/pkg/genapi"
	"github.com/gencam-project/gencam-go/pkg/gentl"
	"github.com/gencam-project/gencam-go/pkg/log"
)

// Camera is one device session. Construction reserves no device
// resources; Initialize opens the device and builds the feature
// directory, Close releases everything.
type Camera struct {
	dev gentl.Device
	id  string

	logger *slog.Logger
	events log.Logger

	nodeMap *genapi.NodeMap
	dir     *features.Directory

	// acq is non-nil exactly while the engine is Running.
	acq *acquisition
}

// New creates a session for the given device handle. The device is not
// opened until Initialize.
func New(dev gentl.Device) *Camera {
	return &Camera{
		dev: dev,
		id:  uuid.NewString(),
	}
}

// SetLogger sets the operational logger. May be nil.
func (c *Camera) SetLogger(l *slog.Logger) { c.logger = l }

// SetEventLogger sets the acquisition event capture sink. May be nil.
func (c *Camera) SetEventLogger(l log.Logger) { c.events = l }

// ID returns the session's unique identifier.
func (c *Camera) ID() string { return c.id }

// Info returns the device identity.
func (c *Camera) Info() gentl.DeviceInfo { return c.dev.Info() }

// IsInitialized reports whether the device is open and the feature
// directory built.
func (c *Camera) IsInitialized() bool { return c.dev.IsOpen() && c.dir != nil }

// IsAcquiring reports whether the acquisition engine is Running.
func (c *Camera) IsAcquiring() bool { return c.acq != nil }

// Initialize opens the device, resolves and parses its description
// document, binds the node map to the register port and builds the
// feature directory. Initializing an initialized camera is a no-op.
func (c *Camera) Initialize() error {
	if c.IsInitialized() {
		return nil
	}

	if err := c.dev.Open(); err != nil {
		c.emitError("initialize", err)
		return fmt.Errorf("opening device: %w", err)
	}

	fail := func(err error) error {
		_ = c.dev.Close()
		c.emitError("initialize", err)
		return err
	}

	locations, err := c.dev.DescriptionLocations()
	if err != nil {
		return fail(fmt.Errorf("listing description locations: %w", err))
	}
	content, err := descriptor.Resolve(locations, c.dev.RemotePort())
	if err != nil {
		return fail(err)
	}

	nodeMap, err := genapi.Parse(content)
	if err != nil {
		return fail(err)
	}
	nodeMap.Connect(c.dev.RemotePort())

	dir, err := features.NewDirectory(nodeMap)
	if err != nil {
		return fail(err)
	}

	c.nodeMap = nodeMap
	c.dir = dir
	c.debug("camera initialized", "features", dir.Len(), "model", nodeMap.Model())
	c.emitState("", "initialized", "")
	return nil
}

// Close stops acquisition if it is running, disconnects the node map
// and releases the device. Close is idempotent and safe on an
// uninitialized camera.
func (c *Camera) Close() error {
	var stopErr error
	if c.acq != nil {
		stopErr = c.StopAcquisition()
	}
	if c.nodeMap != nil {
		c.nodeMap.Disconnect()
		c.nodeMap = nil
	}
	c.dir = nil
	if err := c.dev.Close(); err != nil {
		return err
	}
	c.emitState("initialized", "closed", "")
	return stopErr
}

// Features returns the session's feature directory.
func (c *Camera) Features() *features.Directory { return c.dir }

// Feature returns the named feature.
func (c *Camera) Feature(name string) (features.Feature, bool) {
	if c.dir == nil {
		return nil, false
	}
	return c.dir.Get(name)
}

// LoadConfig applies a settings batch to the camera by fixpoint
// iteration. See config.Loader.Apply.
func (c *Camera) LoadConfig(settings map[string]any) (map[string]any, map[string]string, error) {
	if !c.IsInitialized() {
		return nil, nil, ErrNotInitialized
	}
	loader := &config.Loader{Logger: c.logger}
	remaining, reasons := loader.Apply(c.dir, settings)
	return remaining, reasons, nil
}

// LoadConfigFile reads a settings document and applies it.
func (c *Camera) LoadConfigFile(path string) (map[string]any, map[string]string, error) {
	if !c.IsInitialized() {
		return nil, nil, ErrNotInitialized
	}
	settings, err := config.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	return c.LoadConfig(settings)
}

// DumpConfigFile writes the current values of all read-write value
// features to a settings document.
func (c *Camera) DumpConfigFile(path string, overwrite bool) error {
	if !c.IsInitialized() {
		return ErrNotInitialized
	}
	settings, err := config.Dump(c.dir)
	if err != nil {
		return err
	}
	return config.WriteFile(path, settings, overwrite)
}

// value-feature helpers

func (c *Camera) intFeatureValue(name string) (int64, error) {
	v, ok := c.dir.Value(name)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrFeatureNotFound, name)
	}
	raw, err := v.Get()
	if err != nil {
		return 0, err
	}
	n, ok := raw.(int64)
	if !ok {
		return 0, fmt.Errorf("feature %q is not an integer", name)
	}
	return n, nil
}

func (c *Camera) stringFeatureValue(name string) (string, error) {
	v, ok := c.dir.Value(name)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrFeatureNotFound, name)
	}
	raw, err := v.Get()
	if err != nil {
		return "", err
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("feature %q is not a string", name)
	}
	return s, nil
}

func (c *Camera) executeCommand(name string) error {
	f, ok := c.dir.Get(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrFeatureNotFound, name)
	}
	cmd, ok := f.(*features.Command)
	if !ok {
		return fmt.Errorf("feature %q is not a command", name)
	}
	err := cmd.Execute()
	c.emitFeature(name, log.ActionExecute, "", err)
	return err
}

// logging helpers

func (c *Camera) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}

func (c *Camera) emit(e log.Event) {
	if c.events == nil {
		return
	}
	info := c.dev.Info()
	e.Timestamp = time.Now()
	e.CameraID = c.id
	e.Model = info.Model
	e.Serial = info.SerialNumber
	c.events.Log(e)
}

func (c *Camera) emitState(oldState, newState, reason string) {
	c.emit(log.Event{
		Category:    log.CategoryState,
		StateChange: &log.StateChangeEvent{OldState: oldState, NewState: newState, Reason: reason},
	})
}

func (c *Camera) emitError(op string, err error) {
	c.emit(log.Event{
		Category: log.CategoryError,
		Error:    &log.ErrorEventData{Op: op, Message: err.Error()},
	})
}

func (c *Camera) emitFeature(name string, action log.FeatureAction, value string, err error) {
	fe := &log.FeatureEvent{Name: name, Action: action, Value: value}
	if err != nil {
		fe.Reason = err.Error()
	}
	c.emit(log.Event{Category: log.CategoryFeature, Feature: fe})
}

func (c *Camera) emitFrame(streamID, pixelFormat string, width, height, size int) {
	c.emit(log.Event{
		Category: log.CategoryFrame,
		Frame: &log.FrameEvent{
			StreamID:    streamID,
			PixelFormat: pixelFormat,
			Width:       width,
			Height:      height,
			Bytes:       size,
		},
	})
}
