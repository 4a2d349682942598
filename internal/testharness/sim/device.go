// Package sim provides an in-memory simulated camera for testing. The
// device serves a register description from its register space, honors
// the command registers (acquisition start/stop, software trigger) and
// delivers deterministic frame data through its streams.
package sim

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/gencam-project/gencam-go/pkg/gentl"
)

// Options configure a simulated device. The zero value is a usable
// single-stream Mono8 camera.
type Options struct {
	// Info overrides the device identity.
	Info gentl.DeviceInfo

	// Zipped serves the description as a zip archive.
	Zipped bool

	// Streams is the number of data streams. Zero means one.
	Streams int

	// MinBuffers is what each stream reports as its announce minimum.
	// Zero means three.
	MinBuffers int

	// DefinesPayloadSize makes streams answer payload size queries
	// themselves instead of deferring to the PayloadSize feature.
	DefinesPayloadSize bool
}

// Device is a simulated camera implementing gentl.Device.
type Device struct {
	mu sync.Mutex

	info    gentl.DeviceInfo
	regs    []byte
	desc    []byte
	open    bool
	running bool

	streams []*Stream
	opts    Options

	// OpenErr, if set, is returned by Open.
	OpenErr error

	// LocationsOverride replaces the advertised description locations.
	LocationsOverride []string

	// KindOverride stamps every delivered buffer with this payload kind
	// instead of PayloadImage.
	KindOverride *gentl.PayloadKind

	// FailAnnounce, FailStartEngine inject stream errors.
	FailAnnounce    error
	FailStartEngine error
}

// NewDevice creates a simulated device. Registers are seeded with a
// 4x3 Mono8 sensor configuration.
func NewDevice(opts Options) *Device {
	if opts.Streams == 0 {
		opts.Streams = 1
	}
	if opts.MinBuffers == 0 {
		opts.MinBuffers = 3
	}
	info := opts.Info
	if info == (gentl.DeviceInfo{}) {
		info = gentl.DeviceInfo{
			Vendor:       "GencamProject",
			Model:        "SimCam",
			SerialNumber: "SIM-0001",
			TLType:       "U3V",
		}
	}

	d := &Device{
		info: info,
		regs: make([]byte, registerSpace),
		desc: Description,
		opts: opts,
	}
	if opts.Zipped {
		d.desc = ZipDescription(Description)
	}

	d.putUint32(regWidth, 4)
	d.putUint32(regHeight, 3)
	d.putUint32(regPixelFormat, pfMono8)
	d.putFloat32(regExposureTime, 10000)
	d.putFloat32(regGain, 0)
	d.putFloat32(regTemperature, 42.5)
	d.recomputePayloadSize()

	for i := 0; i < opts.Streams; i++ {
		d.streams = append(d.streams, newStream(d, fmt.Sprintf("Stream%d", i)))
	}
	return d
}

// gentl.Device

func (d *Device) Info() gentl.DeviceInfo { return d.info }

func (d *Device) Open() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.OpenErr != nil {
		return d.OpenErr
	}
	d.open = true
	return nil
}

func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.open = false
	d.running = false
	return nil
}

func (d *Device) IsOpen() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.open
}

func (d *Device) RemotePort() gentl.Port { return (*devicePort)(d) }

func (d *Device) DescriptionLocations() ([]string, error) {
	if d.LocationsOverride != nil {
		return d.LocationsOverride, nil
	}
	return []string{registerLocation(len(d.desc))}, nil
}

func (d *Device) StreamIDs() ([]string, error) {
	ids := make([]string, len(d.streams))
	for i, s := range d.streams {
		ids[i] = s.id
	}
	return ids, nil
}

func (d *Device) OpenStream(id string) (gentl.Stream, error) {
	for _, s := range d.streams {
		if s.id == id {
			s.reopen()
			return s, nil
		}
	}
	return nil, fmt.Errorf("no such stream %q", id)
}

// IsRunning reports whether AcquisitionStart was executed without a
// matching AcquisitionStop. Test observability only.
func (d *Device) IsRunning() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

var _ gentl.Device = (*Device)(nil)

// devicePort exposes the register space. Reads at the description
// address window serve the description document.
type devicePort Device

var _ gentl.Port = (*devicePort)(nil)

func (p *devicePort) Read(address uint64, size int) ([]byte, error) {
	d := (*Device)(p)
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.open {
		return nil, errors.New("device not open")
	}
	if address >= descriptionAddress {
		off := int(address - descriptionAddress)
		if off+size > len(d.desc) {
			return nil, fmt.Errorf("description read out of range: %#x+%d", address, size)
		}
		out := make([]byte, size)
		copy(out, d.desc[off:off+size])
		return out, nil
	}
	if int(address)+size > len(d.regs) {
		return nil, fmt.Errorf("register read out of range: %#x+%d", address, size)
	}
	out := make([]byte, size)
	copy(out, d.regs[address:int(address)+size])
	return out, nil
}

func (p *devicePort) Write(address uint64, data []byte) error {
	d := (*Device)(p)
	d.mu.Lock()
	if !d.open {
		d.mu.Unlock()
		return errors.New("device not open")
	}
	if int(address)+len(data) > len(d.regs) {
		d.mu.Unlock()
		return fmt.Errorf("register write out of range: %#x+%d", address, len(data))
	}
	copy(d.regs[address:], data)

	// Command and geometry side effects.
	var trigger bool
	switch address {
	case regAcquisitionStart:
		d.running = true
	case regAcquisitionStop:
		d.running = false
	case regTriggerSoftware:
		trigger = d.running
	case regWidth, regHeight, regPixelFormat:
		d.recomputePayloadSize()
	}
	d.mu.Unlock()

	if trigger {
		for _, s := range d.streams {
			s.deliver()
		}
	}
	return nil
}

// register accessors, callers hold d.mu

func (d *Device) putUint32(addr int, v uint32) {
	binary.BigEndian.PutUint32(d.regs[addr:], v)
}

func (d *Device) uint32At(addr int) uint32 {
	return binary.BigEndian.Uint32(d.regs[addr:])
}

func (d *Device) putFloat32(addr int, v float32) {
	binary.BigEndian.PutUint32(d.regs[addr:], math.Float32bits(v))
}

func (d *Device) recomputePayloadSize() {
	w := int(d.uint32At(regWidth))
	h := int(d.uint32At(regHeight))
	d.putUint32(regPayloadSize, uint32(w*h*d.bytesPerPixel()))
}

func (d *Device) bytesPerPixel() int {
	switch d.uint32At(regPixelFormat) {
	case pfMono12:
		return 2
	case pfRGB8:
		return 3
	default:
		return 1
	}
}

// frameInto fills buf with one deterministic frame and reports its
// dimensions. Samples are the flattened element index, wrapped to the
// format's range; 16-bit samples are little-endian.
func (d *Device) frameInto(buf []byte) (width, height int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	width = int(d.uint32At(regWidth))
	height = int(d.uint32At(regHeight))

	switch d.uint32At(regPixelFormat) {
	case pfMono12:
		n := width * height
		for i := 0; i < n && 2*i+1 < len(buf); i++ {
			v := uint16(i % 4096)
			buf[2*i] = byte(v)
			buf[2*i+1] = byte(v >> 8)
		}
	case pfRGB8:
		n := width * height * 3
		for i := 0; i < n && i < len(buf); i++ {
			buf[i] = byte(i % 256)
		}
	default:
		n := width * height
		for i := 0; i < n && i < len(buf); i++ {
			buf[i] = byte(i % 256)
		}
	}
	return width, height
}

func (d *Device) payloadKind() (gentl.PayloadKind, bool) {
	if d.KindOverride != nil {
		return *d.KindOverride, true
	}
	return gentl.PayloadImage, false
}

func (d *Device) freeRunning() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running && d.uint32At(regTriggerMode) == 0
}
