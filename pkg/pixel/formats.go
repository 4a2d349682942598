package pixel

import "fmt"

// Decoder turns a raw buffer into a pixel array of the given dimensions.
// Implementations must copy; the raw buffer is reused by the device.
type Decoder func(raw []byte, height, width int) (*Array, error)

// Format couples a pixel-format identifier with its decoder and static
// attributes.
type Format struct {
	// Name is the GenICam pixel format identifier, e.g. "Mono8".
	Name string

	// Decode produces the pixel array.
	Decode Decoder

	// Range is the valid sample range for downstream clipping and
	// normalization decisions.
	Range ValidRange

	// Components is the number of samples per pixel.
	Components int

	// ChannelLabels names the component axis for multi-component
	// formats, e.g. R, G, B. Nil for single-component formats.
	ChannelLabels []string
}

var registry = map[string]Format{}

// Register adds or replaces a format in the registry.
func Register(f Format) {
	registry[f.Name] = f
}

// Lookup returns the format registered under name, or
// ErrUnsupportedFormat.
func Lookup(name string) (Format, error) {
	f, ok := registry[name]
	if !ok {
		return Format{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
	}
	return f, nil
}

// Decode is a convenience wrapper around Lookup.
func Decode(name string, raw []byte, height, width int) (*Array, ValidRange, error) {
	f, err := Lookup(name)
	if err != nil {
		return nil, ValidRange{}, err
	}
	arr, err := f.Decode(raw, height, width)
	if err != nil {
		return nil, ValidRange{}, err
	}
	return arr, f.Range, nil
}

// decode8 copies single-byte samples with the given component count.
func decode8(name string, components int) Decoder {
	return func(raw []byte, height, width int) (*Array, error) {
		need := height * width * components
		if len(raw) < need {
			return nil, shortBufferError(name, need, len(raw))
		}
		pix := make([]uint8, need)
		copy(pix, raw[:need])
		return &Array{Height: height, Width: width, Components: components, Bits: 8, U8: pix}, nil
	}
}

// decode16 copies two-byte little-endian samples. bits is the number of
// significant bits inside the 16-bit container.
func decode16(name string, components, bits int) Decoder {
	return func(raw []byte, height, width int) (*Array, error) {
		samples := height * width * components
		need := samples * 2
		if len(raw) < need {
			return nil, shortBufferError(name, need, len(raw))
		}
		pix := make([]uint16, samples)
		for i := range pix {
			pix[i] = uint16(raw[2*i]) | uint16(raw[2*i+1])<<8
		}
		return &Array{Height: height, Width: width, Components: components, Bits: bits, U16: pix}, nil
	}
}

func registerMono(name string, components, bits int, labels []string) {
	f := Format{Name: name, Components: components, ChannelLabels: labels}
	switch {
	case bits == 8:
		f.Decode = decode8(name, components)
		f.Range = ValidRange{Min: 0, Max: 255}
	default:
		f.Decode = decode16(name, components, bits)
		f.Range = ValidRange{Min: 0, Max: 1<<bits - 1}
	}
	Register(f)
}

func init() {
	rgb := []string{"R", "G", "B"}
	bgr := []string{"B", "G", "R"}

	registerMono("Mono8", 1, 8, nil)
	registerMono("Mono12", 1, 12, nil)
	registerMono("Mono16", 1, 16, nil)

	for _, cfa := range []string{"BayerRG", "BayerGB", "BayerGR", "BayerBG"} {
		registerMono(cfa+"8", 1, 8, nil)
		registerMono(cfa+"12", 1, 12, nil)
		registerMono(cfa+"16", 1, 16, nil)
	}

	registerMono("RGB8", 3, 8, rgb)
	registerMono("BGR8", 3, 8, bgr)
	registerMono("RGB12", 3, 12, rgb)
	registerMono("RGB16", 3, 16, rgb)
}
