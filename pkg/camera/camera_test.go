package camera

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gencam-project/gencam-go/internal/testharness/sim"
	"github.com/gencam-project/gencam-go/pkg/features"
	"github.com/gencam-project/gencam-go/pkg/gentl"
	"github.com/gencam-project/gencam-go/pkg/log"
)

func newTestCamera(t *testing.T, opts sim.Options) (*Camera, *sim.Device) {
	t.Helper()
	dev := sim.NewDevice(opts)
	cam := New(dev)
	t.Cleanup(func() { _ = cam.Close() })
	return cam, dev
}

func initialized(t *testing.T, opts sim.Options) (*Camera, *sim.Device) {
	t.Helper()
	cam, dev := newTestCamera(t, opts)
	require.NoError(t, cam.Initialize())
	return cam, dev
}

func TestInitializeBuildsFeatureDirectory(t *testing.T) {
	cam, dev := newTestCamera(t, sim.Options{})

	require.False(t, cam.IsInitialized())
	require.NoError(t, cam.Initialize())
	assert.True(t, cam.IsInitialized())
	assert.True(t, dev.IsOpen())

	dir := cam.Features()
	require.NotNil(t, dir)
	assert.True(t, dir.Has("Width"))
	assert.True(t, dir.Has("PixelFormat"))
	assert.True(t, dir.Has("AcquisitionStart"))

	// Initializing twice is a no-op.
	require.NoError(t, cam.Initialize())
}

func TestInitializeZippedDescription(t *testing.T) {
	cam, _ := newTestCamera(t, sim.Options{Zipped: true})
	require.NoError(t, cam.Initialize())
	assert.True(t, cam.Features().Has("Width"))
}

func TestInitializeRollsBackOnBadDescription(t *testing.T) {
	cam, dev := newTestCamera(t, sim.Options{})
	dev.LocationsOverride = []string{"gibberish"}

	err := cam.Initialize()
	require.Error(t, err)
	assert.False(t, cam.IsInitialized())
	assert.False(t, dev.IsOpen(), "device must be released when initialization fails")
}

func TestInitializeOpenFailure(t *testing.T) {
	cam, dev := newTestCamera(t, sim.Options{})
	dev.OpenErr = errors.New("device in use")

	err := cam.Initialize()
	require.Error(t, err)
	assert.False(t, cam.IsInitialized())
}

func TestCloseIsIdempotent(t *testing.T) {
	cam, _ := initialized(t, sim.Options{})
	require.NoError(t, cam.Close())
	require.NoError(t, cam.Close())
	assert.False(t, cam.IsInitialized())
}

func TestStartStopAcquisition(t *testing.T) {
	cam, dev := initialized(t, sim.Options{})

	require.NoError(t, cam.StartAcquisition(AcquisitionOptions{}))
	assert.True(t, cam.IsAcquiring())
	assert.True(t, dev.IsRunning())

	// Starting again is a no-op.
	require.NoError(t, cam.StartAcquisition(AcquisitionOptions{}))

	require.NoError(t, cam.StopAcquisition())
	assert.False(t, cam.IsAcquiring())
	assert.False(t, dev.IsRunning())

	// Stopping an idle session is a no-op.
	require.NoError(t, cam.StopAcquisition())

	// The session can go around again.
	require.NoError(t, cam.StartAcquisition(AcquisitionOptions{}))
	require.NoError(t, cam.StopAcquisition())
}

func TestStartAcquisitionRequiresInitialize(t *testing.T) {
	cam, _ := newTestCamera(t, sim.Options{})
	assert.ErrorIs(t, cam.StartAcquisition(AcquisitionOptions{}), ErrNotInitialized)
}

func TestAcquisitionLocksGeometry(t *testing.T) {
	cam, _ := initialized(t, sim.Options{})
	width, ok := cam.Features().Get("Width")
	require.True(t, ok)

	require.NoError(t, cam.StartAcquisition(AcquisitionOptions{}))
	err := width.(features.Valuer).Set(int64(8))
	assert.ErrorIs(t, err, features.ErrAccessDenied)

	require.NoError(t, cam.StopAcquisition())
	assert.NoError(t, width.(features.Valuer).Set(int64(8)))
}

func TestStartAcquisitionRollsBackOnEngineFailure(t *testing.T) {
	cam, dev := initialized(t, sim.Options{})
	dev.FailStartEngine = errors.New("engine jammed")

	err := cam.StartAcquisition(AcquisitionOptions{})
	require.Error(t, err)
	assert.False(t, cam.IsAcquiring())

	// All stream resources were released; a clean start succeeds.
	dev.FailStartEngine = nil
	require.NoError(t, cam.StartAcquisition(AcquisitionOptions{}))
}

func TestStartAcquisitionRollsBackOnAnnounceFailure(t *testing.T) {
	cam, dev := initialized(t, sim.Options{})
	dev.FailAnnounce = errors.New("out of memory")

	require.Error(t, cam.StartAcquisition(AcquisitionOptions{}))
	assert.False(t, cam.IsAcquiring())

	dev.FailAnnounce = nil
	require.NoError(t, cam.StartAcquisition(AcquisitionOptions{}))
}

func TestGetFrameFreeRunning(t *testing.T) {
	cam, _ := initialized(t, sim.Options{})
	require.NoError(t, cam.StartAcquisition(AcquisitionOptions{}))

	f, err := cam.GetFrame(time.Second)
	require.NoError(t, err)

	assert.Equal(t, "Mono8", f.PixelFormat)
	require.Equal(t, 3, f.Pixels.Height)
	require.Equal(t, 4, f.Pixels.Width)
	// Deterministic ramp: sample (y, x) is y*width+x.
	assert.Equal(t, 6, f.Pixels.At(1, 2, 0))
	assert.Equal(t, 11, f.Pixels.At(2, 3, 0))
	assert.Equal(t, 255, f.ValidRange.Max)
	assert.Len(t, f.X, 4)
	assert.Equal(t, 0.5, f.X[0])

	// Metadata sampled at delivery.
	assert.Contains(t, f.Meta, "ExposureTime")
	assert.Contains(t, f.Meta, "PixelFormat")
	assert.Equal(t, "Mono8", f.Meta["PixelFormat"])

	// Consecutive pulls keep working once buffers recycle.
	for i := 0; i < 5; i++ {
		_, err := cam.GetFrame(time.Second)
		require.NoError(t, err)
	}
}

func TestGetFrameRequiresAcquisition(t *testing.T) {
	cam, _ := initialized(t, sim.Options{})
	_, err := cam.GetFrame(time.Second)
	assert.ErrorIs(t, err, ErrAcquisitionNotStarted)
}

func TestGetFrameSoftwareTrigger(t *testing.T) {
	cam, _ := initialized(t, sim.Options{})
	dir := cam.Features()

	mode, _ := dir.Value("TriggerMode")
	require.NoError(t, mode.Set("On"))
	source, _ := dir.Value("TriggerSource")
	require.NoError(t, source.Set("Software"))

	require.NoError(t, cam.StartAcquisition(AcquisitionOptions{}))

	// Each pull fires one trigger; no free-running exposure happens.
	for i := 0; i < 3; i++ {
		f, err := cam.GetFrame(time.Second)
		require.NoError(t, err)
		assert.Equal(t, 0, f.Pixels.At(0, 0, 0))
	}
}

func TestGetFrameTimeout(t *testing.T) {
	cam, _ := initialized(t, sim.Options{})
	dir := cam.Features()

	// Hardware trigger source: no exposures ever happen.
	mode, _ := dir.Value("TriggerMode")
	require.NoError(t, mode.Set("On"))
	source, _ := dir.Value("TriggerSource")
	require.NoError(t, source.Set("Line0"))

	require.NoError(t, cam.StartAcquisition(AcquisitionOptions{}))

	_, err := cam.GetFrame(50 * time.Millisecond)
	assert.ErrorIs(t, err, ErrTimeout)

	// A timeout leaves the session acquiring; later pulls may succeed.
	assert.True(t, cam.IsAcquiring())
}

func TestGetFrameUnsupportedPayload(t *testing.T) {
	cam, dev := initialized(t, sim.Options{})
	kind := gentl.PayloadKind(7)
	dev.KindOverride = &kind

	require.NoError(t, cam.StartAcquisition(AcquisitionOptions{}))
	_, err := cam.GetFrame(time.Second)
	assert.ErrorIs(t, err, ErrUnsupportedPayload)
}

func TestGetFrameUnknownPayloadUsesFeatureDims(t *testing.T) {
	cam, dev := initialized(t, sim.Options{})
	kind := gentl.PayloadUnknown
	dev.KindOverride = &kind

	require.NoError(t, cam.StartAcquisition(AcquisitionOptions{}))
	f, err := cam.GetFrame(time.Second)
	require.NoError(t, err)
	assert.Equal(t, 4, f.Pixels.Width)
	assert.Equal(t, 3, f.Pixels.Height)
}

func TestStreamDefinedPayloadSize(t *testing.T) {
	cam, _ := initialized(t, sim.Options{DefinesPayloadSize: true})
	require.NoError(t, cam.StartAcquisition(AcquisitionOptions{}))
	_, err := cam.GetFrame(time.Second)
	assert.NoError(t, err)
}

func TestLoadConfig(t *testing.T) {
	cam, _ := initialized(t, sim.Options{})

	remaining, reasons, err := cam.LoadConfig(map[string]any{
		"Width":        int64(8),
		"Height":       int64(2),
		"ExposureTime": 2500.0,
		"Bogus":        1,
	})
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
	assert.Contains(t, reasons, "Bogus")

	w, _ := cam.Features().Value("Width")
	v, err := w.Get()
	require.NoError(t, err)
	assert.Equal(t, int64(8), v)
}

func TestConfigFileRoundTrip(t *testing.T) {
	cam, _ := initialized(t, sim.Options{})
	path := filepath.Join(t.TempDir(), "simcam.toml")

	w, _ := cam.Features().Value("Width")
	require.NoError(t, w.Set(int64(16)))

	require.NoError(t, cam.DumpConfigFile(path, false))

	require.NoError(t, w.Set(int64(4)))
	remaining, _, err := cam.LoadConfigFile(path)
	require.NoError(t, err)
	assert.Empty(t, remaining)

	v, err := w.Get()
	require.NoError(t, err)
	assert.Equal(t, int64(16), v)
}

func TestEventCapture(t *testing.T) {
	cam, _ := newTestCamera(t, sim.Options{})
	var events capture
	cam.SetEventLogger(&events)

	require.NoError(t, cam.Initialize())
	require.NoError(t, cam.StartAcquisition(AcquisitionOptions{}))
	_, err := cam.GetFrame(time.Second)
	require.NoError(t, err)
	require.NoError(t, cam.StopAcquisition())

	var states, frames int
	for _, e := range events.events {
		assert.Equal(t, cam.ID(), e.CameraID)
		assert.Equal(t, "SimCam", e.Model)
		switch e.Category {
		case log.CategoryState:
			states++
		case log.CategoryFrame:
			frames++
		}
	}
	assert.GreaterOrEqual(t, states, 3, "initialized, acquiring, idle")
	// The free-running warm-up frame is delivered and logged too.
	assert.GreaterOrEqual(t, frames, 1)
}

type capture struct {
	events []log.Event
}

func (c *capture) Log(e log.Event) { c.events = append(c.events, e) }

func TestResizedFrames(t *testing.T) {
	cam, _ := initialized(t, sim.Options{})
	dir := cam.Features()

	w, _ := dir.Value("Width")
	require.NoError(t, w.Set(int64(8)))
	h, _ := dir.Value("Height")
	require.NoError(t, h.Set(int64(2)))

	require.NoError(t, cam.StartAcquisition(AcquisitionOptions{}))
	f, err := cam.GetFrame(time.Second)
	require.NoError(t, err)
	assert.Equal(t, 8, f.Pixels.Width)
	assert.Equal(t, 2, f.Pixels.Height)
}

func TestMono12Frames(t *testing.T) {
	cam, _ := initialized(t, sim.Options{})
	pf, _ := cam.Features().Value("PixelFormat")
	require.NoError(t, pf.Set("Mono12"))

	require.NoError(t, cam.StartAcquisition(AcquisitionOptions{}))
	f, err := cam.GetFrame(time.Second)
	require.NoError(t, err)
	assert.Equal(t, 12, f.Pixels.Bits)
	assert.Equal(t, 4095, f.ValidRange.Max)
	assert.Equal(t, 6, f.Pixels.At(1, 2, 0))
}

func TestCustomMetaFeatures(t *testing.T) {
	cam, _ := initialized(t, sim.Options{})

	require.NoError(t, cam.StartAcquisition(AcquisitionOptions{
		MetaFeatures: []string{"Gain"},
	}))
	f, err := cam.GetFrame(time.Second)
	require.NoError(t, err)
	assert.Contains(t, f.Meta, "Gain")
	assert.NotContains(t, f.Meta, "ExposureTime")
}

func TestMultipleStreams(t *testing.T) {
	cam, _ := initialized(t, sim.Options{Streams: 2})

	require.NoError(t, cam.StartAcquisition(AcquisitionOptions{}))
	_, err := cam.GetFrame(time.Second)
	require.NoError(t, err)
	require.NoError(t, cam.StopAcquisition())
}

func TestInfo(t *testing.T) {
	cam, _ := newTestCamera(t, sim.Options{})
	info := cam.Info()
	assert.Equal(t, "SimCam", info.Model)
	assert.NotEmpty(t, cam.ID())
}
