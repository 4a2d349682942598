// Package descriptor locates and fetches a device's register-description
// document from its advertised locations.
//
// Devices advertise one or more locations in GenTL URL syntax:
//
//	local:simcam.xml;10000;3BF    register span (hex address and length)
//	file:///etc/cams/simcam.xml   local file
//	http://vendor.example/x.xml   remote resource
//
// An optional ?SchemaVersion=... suffix is recorded on the parsed
// location but does not influence selection. Exactly one location
// is selected by fixed preference: register span, then file, then URL.
// The fetched content may be a zip archive; the first entry with an XML
// extension is used in that case.
package descriptor

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/gencam-project/gencam-go/pkg/gentl"
	"github.com/gencam-project/gencam-go/pkg/version"
)

// Resolution errors. Both are fatal for session initialization; this
// layer performs no retries.
var (
	ErrInvalidLocation = errors.New("invalid description location")
	ErrNotFound        = errors.New("no description document found")
)

// HTTPClient performs remote description fetches. Replaceable for tests.
var HTTPClient = &http.Client{Timeout: 30 * time.Second}

// Kind is the transport a location refers to.
type Kind uint8

const (
	// KindRegister is a span of the device's register space.
	KindRegister Kind = iota

	// KindFile is a file on the host.
	KindFile

	// KindHTTP is a remote resource.
	KindHTTP
)

// Location is one parsed description location.
type Location struct {
	// Kind selects which of the remaining fields are meaningful.
	Kind Kind

	// Address and Size describe the register span (KindRegister).
	Address uint64
	Size    int

	// Path is the host file path (KindFile).
	Path string

	// URL is the remote address (KindHTTP).
	URL string

	// Schema is the schema version advertised in the location query,
	// or the zero value when absent.
	Schema version.SchemaVersion
}

// ParseLocation parses one advertised location string.
func ParseLocation(raw string) (Location, error) {
	trimmed := raw
	var schema version.SchemaVersion
	if i := strings.IndexByte(trimmed, '?'); i >= 0 {
		query := trimmed[i+1:]
		trimmed = trimmed[:i]
		v, present, err := version.FromQuery(query)
		if err != nil {
			return Location{}, fmt.Errorf("%w: %q: %v", ErrInvalidLocation, raw, err)
		}
		if present {
			schema = v
		}
	}

	scheme, rest, ok := strings.Cut(trimmed, ":")
	if !ok {
		return Location{}, fmt.Errorf("%w: %q has no scheme", ErrInvalidLocation, raw)
	}

	switch strings.ToLower(scheme) {
	case "local":
		// local:filename;address;length with hex address and length.
		parts := strings.Split(rest, ";")
		if len(parts) != 3 {
			return Location{}, fmt.Errorf("%w: %q: want filename;address;length", ErrInvalidLocation, raw)
		}
		addr, err := strconv.ParseUint(parts[1], 16, 64)
		if err != nil {
			return Location{}, fmt.Errorf("%w: %q: bad address %q", ErrInvalidLocation, raw, parts[1])
		}
		size, err := strconv.ParseUint(parts[2], 16, 32)
		if err != nil || size == 0 {
			return Location{}, fmt.Errorf("%w: %q: bad length %q", ErrInvalidLocation, raw, parts[2])
		}
		return Location{Kind: KindRegister, Address: addr, Size: int(size), Schema: schema}, nil

	case "file":
		p := rest
		// Accept file:///path, file://host/path (host ignored) and file:/path.
		p = strings.TrimPrefix(p, "///")
		if strings.HasPrefix(p, "//") {
			if i := strings.IndexByte(p[2:], '/'); i >= 0 {
				p = p[2+i:]
			} else {
				return Location{}, fmt.Errorf("%w: %q has no path", ErrInvalidLocation, raw)
			}
		}
		if !strings.HasPrefix(p, "/") {
			p = "/" + p
		}
		return Location{Kind: KindFile, Path: p, Schema: schema}, nil

	case "http", "https":
		return Location{Kind: KindHTTP, URL: trimmed, Schema: schema}, nil

	default:
		return Location{}, fmt.Errorf("%w: unknown scheme in %q", ErrInvalidLocation, raw)
	}
}

// Select picks the single authoritative location by fixed preference:
// register span first, then file, then URL. An empty list fails with
// ErrNotFound.
func Select(locations []Location) (Location, error) {
	for _, kind := range []Kind{KindRegister, KindFile, KindHTTP} {
		for _, loc := range locations {
			if loc.Kind == kind {
				return loc, nil
			}
		}
	}
	return Location{}, ErrNotFound
}

// Fetch retrieves the raw content of a location. Register spans are read
// through the given port; remote failures are propagated without retry.
func Fetch(loc Location, port gentl.Port) ([]byte, error) {
	switch loc.Kind {
	case KindRegister:
		b, err := port.Read(loc.Address, loc.Size)
		if err != nil {
			return nil, fmt.Errorf("reading description from register space: %w", err)
		}
		return b, nil

	case KindFile:
		b, err := os.ReadFile(loc.Path)
		if err != nil {
			return nil, fmt.Errorf("reading description file: %w", err)
		}
		return b, nil

	case KindHTTP:
		resp, err := HTTPClient.Get(loc.URL)
		if err != nil {
			return nil, fmt.Errorf("fetching description: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("fetching description %q: unexpected status %s", loc.URL, resp.Status)
		}
		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("fetching description %q: %w", loc.URL, err)
		}
		return b, nil

	default:
		return nil, fmt.Errorf("%w: kind %d", ErrInvalidLocation, loc.Kind)
	}
}

var zipMagic = []byte{'P', 'K', 0x03, 0x04}

// Unpack returns the XML description text. Zip-compressed content is
// recognized by its magic number and the first entry with an XML
// extension is extracted; anything else passes through unchanged.
func Unpack(content []byte) ([]byte, error) {
	if !bytes.HasPrefix(content, zipMagic) {
		return content, nil
	}
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("opening zipped description: %w", err)
	}
	for _, f := range zr.File {
		if !strings.EqualFold(path.Ext(f.Name), ".xml") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("extracting %q: %w", f.Name, err)
		}
		defer rc.Close()
		b, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("extracting %q: %w", f.Name, err)
		}
		return b, nil
	}
	return nil, fmt.Errorf("%w: zip archive has no XML entry", ErrNotFound)
}

// Resolve runs the full pipeline: parse every advertised location,
// select one, fetch it, and unpack the result. An unparseable location
// is fatal even when another location could have served.
func Resolve(raw []string, port gentl.Port) ([]byte, error) {
	locations := make([]Location, 0, len(raw))
	for _, r := range raw {
		loc, err := ParseLocation(r)
		if err != nil {
			return nil, err
		}
		locations = append(locations, loc)
	}
	loc, err := Select(locations)
	if err != nil {
		return nil, err
	}
	content, err := Fetch(loc, port)
	if err != nil {
		return nil, err
	}
	return Unpack(content)
}
