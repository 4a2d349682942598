package genapi

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/gencam-project/gencam-go/internal/testharness/mock"
)

const lockDescription = `<RegisterDescription ModelName="LockCam">
  <Integer Name="Width">
    <Address>0x00</Address>
    <LockedBy Feature="TLParamsLocked" Unless="0"/>
  </Integer>
  <Integer Name="TLParamsLocked">
    <Address>0x04</Address>
    <Min>0</Min>
    <Max>1</Max>
  </Integer>
  <Float Name="Gain">
    <Address>0x08</Address>
    <Length>4</Length>
    <LockedBy Feature="GainAuto" Unless="Off"/>
  </Float>
  <Enumeration Name="GainAuto">
    <Address>0x0C</Address>
    <EnumEntry Name="Off"><Value>0</Value></EnumEntry>
    <EnumEntry Name="Continuous"><Value>1</Value></EnumEntry>
  </Enumeration>
  <Command Name="Trigger">
    <Address>0x10</Address>
    <LockedBy Feature="TLParamsLocked" Unless="1"/>
  </Command>
</RegisterDescription>`

func connectedMap(t *testing.T, description string) (*NodeMap, *mock.Port) {
	t.Helper()
	m, err := Parse([]byte(description))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	port := mock.NewPort(256)
	m.Connect(port)
	return m, port
}

func TestIntegerCodec(t *testing.T) {
	m, port := connectedMap(t, testDescription)
	n, _ := m.Node("Width")
	w := n.(*IntegerNode)

	if err := w.SetValue(0x0102); err != nil {
		t.Fatalf("SetValue failed: %v", err)
	}
	// Registers are big-endian.
	if got := port.MemRange(0, 4); !bytes.Equal(got, []byte{0, 0, 1, 2}) {
		t.Errorf("register bytes = %v, want [0 0 1 2]", got)
	}

	v, err := w.Value()
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}
	if v != 0x0102 {
		t.Errorf("Value() = %d, want %d", v, 0x0102)
	}
}

func TestIntegerSignExtension(t *testing.T) {
	m, port := connectedMap(t, testDescription)
	n, _ := m.Node("Width")
	w := n.(*IntegerNode)

	port.Seed(0, []byte{0xFF, 0xFF, 0xFF, 0xFF})
	v, err := w.Value()
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}
	if v != -1 {
		t.Errorf("Value() = %d, want -1 (narrow registers sign-extend)", v)
	}
}

func TestFloatCodec(t *testing.T) {
	m, port := connectedMap(t, testDescription)
	n, _ := m.Node("ExposureTime")
	f := n.(*FloatNode)

	if err := f.SetValue(1.5); err != nil {
		t.Fatalf("SetValue failed: %v", err)
	}
	bits := math.Float32bits(1.5)
	want := []byte{byte(bits >> 24), byte(bits >> 16), byte(bits >> 8), byte(bits)}
	if got := port.MemRange(0x10, 4); !bytes.Equal(got, want) {
		t.Errorf("register bytes = %v, want %v", got, want)
	}

	v, err := f.Value()
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}
	if v != 1.5 {
		t.Errorf("Value() = %g, want 1.5", v)
	}
}

func TestBooleanCodec(t *testing.T) {
	m, port := connectedMap(t, testDescription)
	n, _ := m.Node("ReverseX")
	b := n.(*BooleanNode)

	v, err := b.Value()
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}
	if v {
		t.Error("Value() = true on zeroed register, want false")
	}

	if err := b.SetValue(true); err != nil {
		t.Fatalf("SetValue failed: %v", err)
	}
	if port.Mem(0x20) != 1 {
		t.Errorf("register byte = %d, want 1", port.Mem(0x20))
	}

	// Any nonzero content reads as true.
	port.Seed(0x20, []byte{0x7F})
	v, err = b.Value()
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}
	if !v {
		t.Error("Value() = false on nonzero register, want true")
	}
}

func TestStringCodec(t *testing.T) {
	m, port := connectedMap(t, testDescription)
	n, _ := m.Node("DeviceID")
	s := n.(*StringNode)

	if s.MaxLength() != 16 {
		t.Fatalf("MaxLength() = %d, want 16", s.MaxLength())
	}

	if err := s.SetValue("cam-1"); err != nil {
		t.Fatalf("SetValue failed: %v", err)
	}
	got := port.MemRange(0x30, 16)
	if string(got[:5]) != "cam-1" || got[5] != 0 {
		t.Errorf("register bytes = %q, want NUL-padded cam-1", got)
	}

	v, err := s.Value()
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}
	if v != "cam-1" {
		t.Errorf("Value() = %q, want cam-1", v)
	}

	if err := s.SetValue("this string is far too long"); err == nil {
		t.Error("SetValue accepted string exceeding register capacity")
	}
}

func TestEnumerationCodec(t *testing.T) {
	m, port := connectedMap(t, testDescription)
	n, _ := m.Node("GainAuto")
	e := n.(*EnumerationNode)

	if err := e.SetValue("Continuous"); err != nil {
		t.Fatalf("SetValue failed: %v", err)
	}
	if got := port.MemRange(0x40, 4); !bytes.Equal(got, []byte{0, 0, 0, 1}) {
		t.Errorf("register bytes = %v, want [0 0 0 1]", got)
	}

	v, err := e.Value()
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}
	if v != "Continuous" {
		t.Errorf("Value() = %q, want Continuous", v)
	}

	if err := e.SetValue("Nope"); err == nil {
		t.Error("SetValue accepted unknown symbol")
	}

	// A register value with no entry is reported, not masked.
	port.Seed(0x40, []byte{0, 0, 0, 42})
	if _, err := e.Value(); !errors.Is(err, ErrBadEnumValue) {
		t.Errorf("Value error = %v, want ErrBadEnumValue", err)
	}
}

func TestCommandExecuteWritesCommandValue(t *testing.T) {
	m, port := connectedMap(t, testDescription)
	n, _ := m.Node("AcquisitionStart")
	cmd := n.(*CommandNode)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if got := port.MemRange(0x50, 4); !bytes.Equal(got, []byte{0, 0, 0, 1}) {
		t.Errorf("register bytes = %v, want [0 0 0 1]", got)
	}
}

func TestDisconnectedNodeFails(t *testing.T) {
	m, err := Parse([]byte(testDescription))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	n, _ := m.Node("Width")
	w := n.(*IntegerNode)
	if _, err := w.Value(); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Value error = %v, want ErrNotConnected", err)
	}
	if err := w.SetValue(1); !errors.Is(err, ErrNotConnected) {
		t.Errorf("SetValue error = %v, want ErrNotConnected", err)
	}

	port := mock.NewPort(256)
	m.Connect(port)
	if _, err := w.Value(); err != nil {
		t.Fatalf("Value after Connect failed: %v", err)
	}

	m.Disconnect()
	if _, err := w.Value(); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Value after Disconnect error = %v, want ErrNotConnected", err)
	}
}

func TestLockWithdrawsWriteAccess(t *testing.T) {
	m, port := connectedMap(t, lockDescription)
	width, _ := m.Node("Width")

	mode, err := width.AccessMode()
	if err != nil {
		t.Fatalf("AccessMode failed: %v", err)
	}
	if mode != AccessReadWrite {
		t.Fatalf("unlocked mode = %v, want RW", mode)
	}

	// Engage the lock: TLParamsLocked != 0.
	port.Seed(0x04, []byte{0, 0, 0, 1})
	mode, err = width.AccessMode()
	if err != nil {
		t.Fatalf("AccessMode failed: %v", err)
	}
	if mode != AccessReadOnly {
		t.Errorf("locked mode = %v, want RO (RW degrades to RO)", mode)
	}

	// Release again. The mode is re-evaluated on every call.
	port.Seed(0x04, []byte{0, 0, 0, 0})
	mode, _ = width.AccessMode()
	if mode != AccessReadWrite {
		t.Errorf("released mode = %v, want RW", mode)
	}
}

func TestLockOnEnumerationTarget(t *testing.T) {
	m, port := connectedMap(t, lockDescription)
	gain, _ := m.Node("Gain")

	// GainAuto register 0 reads as "Off", matching Unless.
	mode, err := gain.AccessMode()
	if err != nil {
		t.Fatalf("AccessMode failed: %v", err)
	}
	if mode != AccessReadWrite {
		t.Fatalf("mode with GainAuto=Off = %v, want RW", mode)
	}

	port.Seed(0x0C, []byte{0, 0, 0, 1}) // Continuous
	mode, _ = gain.AccessMode()
	if mode != AccessReadOnly {
		t.Errorf("mode with GainAuto=Continuous = %v, want RO", mode)
	}
}

func TestLockedWriteOnlyDegradesToNotAvailable(t *testing.T) {
	m, port := connectedMap(t, lockDescription)
	trigger, _ := m.Node("Trigger")

	// Unless="1": the trigger is usable only while locked.
	mode, err := trigger.AccessMode()
	if err != nil {
		t.Fatalf("AccessMode failed: %v", err)
	}
	if mode != AccessNotAvailable {
		t.Errorf("mode = %v, want NA (WO loses its only capability)", mode)
	}

	port.Seed(0x04, []byte{0, 0, 0, 1})
	mode, _ = trigger.AccessMode()
	if mode != AccessWriteOnly {
		t.Errorf("mode = %v, want WO", mode)
	}
}

func TestLockEvaluationErrorPropagates(t *testing.T) {
	m, port := connectedMap(t, lockDescription)
	width, _ := m.Node("Width")

	port.ReadErr = errors.New("port gone")
	if _, err := width.AccessMode(); err == nil {
		t.Error("AccessMode on unreadable lock target succeeded, want error")
	}
}
