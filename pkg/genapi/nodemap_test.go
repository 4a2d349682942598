package genapi

import (
	"errors"
	"strings"
	"testing"

	"github.com/gencam-project/gencam-go/pkg/version"
)

const testDescription = `<?xml version="1.0" encoding="utf-8"?>
<RegisterDescription ModelName="TestCam" VendorName="TestVendor">
  <Integer Name="Width">
    <Description>Image width.</Description>
    <Address>0x0000</Address>
    <Min>1</Min>
    <Max>4096</Max>
    <Inc>2</Inc>
  </Integer>
  <Float Name="ExposureTime">
    <Address>0x0010</Address>
    <Length>4</Length>
    <Unit>us</Unit>
  </Float>
  <Boolean Name="ReverseX">
    <Address>0x0020</Address>
  </Boolean>
  <String Name="DeviceID">
    <Address>0x0030</Address>
    <Length>16</Length>
    <AccessMode>RO</AccessMode>
  </String>
  <Enumeration Name="GainAuto">
    <Address>0x0040</Address>
    <EnumEntry Name="Off"><Value>0</Value></EnumEntry>
    <EnumEntry Name="Continuous"><Value>1</Value></EnumEntry>
  </Enumeration>
  <Command Name="AcquisitionStart">
    <Address>0x0050</Address>
    <CommandValue>1</CommandValue>
  </Command>
</RegisterDescription>`

func TestParseBuildsAllNodeKinds(t *testing.T) {
	m, err := Parse([]byte(testDescription))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if m.Model() != "TestCam" {
		t.Errorf("Model() = %q, want TestCam", m.Model())
	}
	if m.Vendor() != "TestVendor" {
		t.Errorf("Vendor() = %q, want TestVendor", m.Vendor())
	}
	if m.Len() != 6 {
		t.Fatalf("Len() = %d, want 6", m.Len())
	}

	wantOrder := []string{"Width", "ExposureTime", "ReverseX", "DeviceID", "GainAuto", "AcquisitionStart"}
	names := m.Names()
	for i, want := range wantOrder {
		if names[i] != want {
			t.Errorf("Names()[%d] = %q, want %q", i, names[i], want)
		}
	}

	n, _ := m.Node("Width")
	w, ok := n.(*IntegerNode)
	if !ok {
		t.Fatalf("Width is %T, want *IntegerNode", n)
	}
	if w.Min() != 1 || w.Max() != 4096 || w.Increment() != 2 {
		t.Errorf("Width range = (%d, %d, %d), want (1, 4096, 2)", w.Min(), w.Max(), w.Increment())
	}
	if w.Description() != "Image width." {
		t.Errorf("Width description = %q", w.Description())
	}

	n, _ = m.Node("ExposureTime")
	f, ok := n.(*FloatNode)
	if !ok {
		t.Fatalf("ExposureTime is %T, want *FloatNode", n)
	}
	if f.Unit() != "us" {
		t.Errorf("ExposureTime unit = %q, want us", f.Unit())
	}

	n, _ = m.Node("GainAuto")
	e, ok := n.(*EnumerationNode)
	if !ok {
		t.Fatalf("GainAuto is %T, want *EnumerationNode", n)
	}
	syms := e.Symbolics()
	if len(syms) != 2 || syms[0] != "Off" || syms[1] != "Continuous" {
		t.Errorf("GainAuto symbolics = %v", syms)
	}
}

func TestParseDefaultAccessModes(t *testing.T) {
	m, err := Parse([]byte(testDescription))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	cases := []struct {
		name string
		want AccessMode
	}{
		{"Width", AccessReadWrite},
		{"DeviceID", AccessReadOnly},
		{"AcquisitionStart", AccessWriteOnly},
	}
	for _, tc := range cases {
		n, ok := m.Node(tc.name)
		if !ok {
			t.Fatalf("node %q missing", tc.name)
		}
		mode, err := n.AccessMode()
		if err != nil {
			t.Fatalf("AccessMode(%q) failed: %v", tc.name, err)
		}
		if mode != tc.want {
			t.Errorf("AccessMode(%q) = %v, want %v", tc.name, mode, tc.want)
		}
	}
}

func TestParseRejectsMalformedDescriptions(t *testing.T) {
	cases := []struct {
		name string
		xml  string
	}{
		{"not xml", "this is not xml <"},
		{"wrong root", `<FeatureList></FeatureList>`},
		{"empty", ""},
		{
			"duplicate node",
			`<RegisterDescription>
				<Integer Name="Width"><Address>0</Address></Integer>
				<Integer Name="Width"><Address>4</Address></Integer>
			</RegisterDescription>`,
		},
		{
			"missing name",
			`<RegisterDescription><Integer><Address>0</Address></Integer></RegisterDescription>`,
		},
		{
			"bad address",
			`<RegisterDescription><Integer Name="X"><Address>nope</Address></Integer></RegisterDescription>`,
		},
		{
			"empty enumeration",
			`<RegisterDescription><Enumeration Name="E"><Address>0</Address></Enumeration></RegisterDescription>`,
		},
		{
			"float with bad length",
			`<RegisterDescription><Float Name="F"><Address>0</Address><Length>3</Length></Float></RegisterDescription>`,
		},
		{
			"inverted range",
			`<RegisterDescription><Integer Name="X"><Address>0</Address><Min>10</Min><Max>1</Max></Integer></RegisterDescription>`,
		},
		{
			"dangling lock",
			`<RegisterDescription>
				<Integer Name="X"><Address>0</Address><LockedBy Feature="Missing" Unless="0"/></Integer>
			</RegisterDescription>`,
		},
		{
			"lock on command",
			`<RegisterDescription>
				<Command Name="Go"><Address>0</Address></Command>
				<Integer Name="X"><Address>4</Address><LockedBy Feature="Go" Unless="0"/></Integer>
			</RegisterDescription>`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.xml))
			if !errors.Is(err, ErrMalformedDescription) {
				t.Errorf("Parse error = %v, want ErrMalformedDescription", err)
			}
		})
	}
}

func TestParseSkipsUnknownElements(t *testing.T) {
	xml := `<RegisterDescription>
		<Category Name="Root"><Feature>Width</Feature></Category>
		<Integer Name="Width"><Address>0</Address></Integer>
	</RegisterDescription>`

	m, err := Parse([]byte(xml))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if m.Len() != 1 {
		t.Errorf("Len() = %d, want 1 (unknown element must be skipped)", m.Len())
	}
}

func TestParseHexAndDecimalAddresses(t *testing.T) {
	xml := `<RegisterDescription>
		<Integer Name="A"><Address>0x10</Address></Integer>
		<Integer Name="B"><Address>32</Address></Integer>
	</RegisterDescription>`

	m, err := Parse([]byte(xml))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if strings.Join(m.Names(), ",") != "A,B" {
		t.Errorf("Names() = %v", m.Names())
	}
}

func TestParseSchemaVersion(t *testing.T) {
	xml := `<RegisterDescription SchemaMajorVersion="1" SchemaMinorVersion="1" SchemaSubMinorVersion="0">
		<Integer Name="A"><Address>0x10</Address></Integer>
	</RegisterDescription>`

	m, err := Parse([]byte(xml))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	v := m.SchemaVersion()
	if v.Major != 1 || v.Minor != 1 {
		t.Errorf("SchemaVersion() = %v, want 1.1.0", v)
	}
}

func TestParseRejectsIncompatibleSchema(t *testing.T) {
	xml := `<RegisterDescription SchemaMajorVersion="2" SchemaMinorVersion="0">
		<Integer Name="A"><Address>0x10</Address></Integer>
	</RegisterDescription>`

	_, err := Parse([]byte(xml))
	if !errors.Is(err, ErrUnsupportedSchema) {
		t.Fatalf("expected ErrUnsupportedSchema, got %v", err)
	}
}

func TestParseUndeclaredSchemaIsAccepted(t *testing.T) {
	m, err := Parse([]byte(testDescription))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if v := m.SchemaVersion(); v != (version.SchemaVersion{}) {
		t.Errorf("SchemaVersion() = %v, want zero value", v)
	}
}
