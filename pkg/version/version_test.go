package version

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		input   string
		want    SchemaVersion
		wantErr bool
	}{
		{"1.1", SchemaVersion{Major: 1, Minor: 1}, false},
		{"1.1.0", SchemaVersion{Major: 1, Minor: 1}, false},
		{"2.0.3", SchemaVersion{Major: 2, Minor: 0, Subminor: 3}, false},
		{"1", SchemaVersion{}, true},
		{"1.2.3.4", SchemaVersion{}, true},
		{"a.b", SchemaVersion{}, true},
		{"1.", SchemaVersion{}, true},
		{".1", SchemaVersion{}, true},
		{"", SchemaVersion{}, true},
	}

	for _, tt := range tests {
		got, err := Parse(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("Parse(%q) expected error", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("Parse(%q) unexpected error: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestString(t *testing.T) {
	v := SchemaVersion{Major: 1, Minor: 1}
	if got := v.String(); got != "1.1.0" {
		t.Errorf("String() = %q, want 1.1.0", got)
	}
}

func TestCompatible(t *testing.T) {
	v11 := SchemaVersion{Major: 1, Minor: 1}
	v10 := SchemaVersion{Major: 1, Minor: 0}
	v20 := SchemaVersion{Major: 2, Minor: 0}

	if !v11.Compatible(v10) {
		t.Error("expected 1.1 compatible with 1.0")
	}
	if v11.Compatible(v20) {
		t.Error("expected 1.1 incompatible with 2.0")
	}
}

func TestFromQuery(t *testing.T) {
	v, ok, err := FromQuery("SchemaVersion=1.1.0")
	if err != nil {
		t.Fatalf("FromQuery returned error: %v", err)
	}
	if !ok {
		t.Fatal("expected SchemaVersion parameter to be found")
	}
	if v.Major != 1 || v.Minor != 1 {
		t.Errorf("unexpected version: %v", v)
	}

	_, ok, err = FromQuery("Other=1")
	if err != nil {
		t.Fatalf("FromQuery returned error: %v", err)
	}
	if ok {
		t.Error("expected SchemaVersion parameter to be absent")
	}

	_, ok, err = FromQuery("SchemaVersion=bogus")
	if err == nil {
		t.Error("expected error for malformed version value")
	}
	if !ok {
		t.Error("expected parameter to be reported present")
	}
}

func TestSupported(t *testing.T) {
	v := Supported()
	if v.Major != 1 {
		t.Errorf("unexpected supported major version: %d", v.Major)
	}
}
