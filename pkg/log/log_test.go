package log

import (
	"bytes"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"
)

func TestEventRoundTrip(t *testing.T) {
	ts := time.Date(2026, 3, 14, 9, 26, 53, 589793000, time.UTC)
	event := Event{
		Timestamp: ts,
		CameraID:  "cam-1",
		Category:  CategoryFeature,
		Model:     "SimCam",
		Serial:    "SIM-0001",
		Feature: &FeatureEvent{
			Name:   "ExposureTime",
			Action: ActionWrite,
			Value:  "2500",
		},
	}

	data, err := EncodeEvent(event)
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}

	got, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent failed: %v", err)
	}

	if !got.Timestamp.Equal(ts) {
		t.Errorf("Timestamp = %v, want %v", got.Timestamp, ts)
	}
	if got.CameraID != "cam-1" || got.Category != CategoryFeature {
		t.Errorf("identity = %q/%v", got.CameraID, got.Category)
	}
	if got.Feature == nil || got.Feature.Name != "ExposureTime" || got.Feature.Action != ActionWrite {
		t.Errorf("Feature = %+v", got.Feature)
	}
	if got.StateChange != nil || got.Frame != nil || got.Error != nil {
		t.Error("unset payloads must stay nil")
	}
}

func TestEncodingIsDeterministic(t *testing.T) {
	event := Event{
		Timestamp: time.Now().UTC(),
		CameraID:  "cam-1",
		Category:  CategoryFrame,
		Frame:     &FrameEvent{PixelFormat: "Mono8", Width: 4, Height: 3, Bytes: 12},
	}

	a, err := EncodeEvent(event)
	if err != nil {
		t.Fatal(err)
	}
	b, err := EncodeEvent(event)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Error("canonical encoding differs between runs")
	}
}

func writeTestLog(t *testing.T, events []Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "acquisition.clog")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	for _, e := range events {
		logger.Log(e)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	return path
}

func TestFileLoggerAndReader(t *testing.T) {
	now := time.Now().UTC()
	events := []Event{
		{Timestamp: now, CameraID: "cam-1", Category: CategoryState, StateChange: &StateChangeEvent{NewState: "initialized"}},
		{Timestamp: now.Add(time.Second), CameraID: "cam-1", Category: CategoryFrame, Frame: &FrameEvent{PixelFormat: "Mono8"}},
		{Timestamp: now.Add(2 * time.Second), CameraID: "cam-2", Category: CategoryFeature, Feature: &FeatureEvent{Name: "Gain", Action: ActionRead}},
	}
	path := writeTestLog(t, events)

	reader, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer reader.Close()

	var read []Event
	for {
		e, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		read = append(read, e)
	}
	if len(read) != 3 {
		t.Fatalf("read %d events, want 3", len(read))
	}
	if read[0].StateChange == nil || read[0].StateChange.NewState != "initialized" {
		t.Errorf("first event = %+v", read[0])
	}
}

func TestFileLoggerCloseIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.clog")
	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := logger.Close(); err != nil {
		t.Fatal(err)
	}
	if err := logger.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
	// Logging after close is a silent no-op.
	logger.Log(Event{CameraID: "late"})
}

func TestFilteredReader(t *testing.T) {
	now := time.Now().UTC()
	events := []Event{
		{Timestamp: now, CameraID: "cam-1", Category: CategoryFeature, Feature: &FeatureEvent{Name: "Gain", Action: ActionWrite}},
		{Timestamp: now.Add(time.Second), CameraID: "cam-1", Category: CategoryFeature, Feature: &FeatureEvent{Name: "ExposureTime", Action: ActionWrite}},
		{Timestamp: now.Add(2 * time.Second), CameraID: "cam-2", Category: CategoryFeature, Feature: &FeatureEvent{Name: "Gain", Action: ActionWrite}},
		{Timestamp: now.Add(3 * time.Second), CameraID: "cam-1", Category: CategoryError, Error: &ErrorEventData{Op: "get_frame", Message: "timeout"}},
	}
	path := writeTestLog(t, events)

	count := func(t *testing.T, filter Filter) int {
		t.Helper()
		reader, err := NewFilteredReader(path, filter)
		if err != nil {
			t.Fatalf("NewFilteredReader failed: %v", err)
		}
		defer reader.Close()
		n := 0
		for {
			if _, err := reader.Next(); err == io.EOF {
				return n
			} else if err != nil {
				t.Fatalf("Next failed: %v", err)
			}
			n++
		}
	}

	if got := count(t, Filter{CameraID: "cam-1"}); got != 3 {
		t.Errorf("CameraID filter matched %d, want 3", got)
	}
	cat := CategoryError
	if got := count(t, Filter{Category: &cat}); got != 1 {
		t.Errorf("Category filter matched %d, want 1", got)
	}
	if got := count(t, Filter{FeatureName: "Gain"}); got != 2 {
		t.Errorf("FeatureName filter matched %d, want 2", got)
	}
	start := now.Add(1500 * time.Millisecond)
	end := now.Add(2500 * time.Millisecond)
	if got := count(t, Filter{TimeStart: &start, TimeEnd: &end}); got != 1 {
		t.Errorf("time window filter matched %d, want 1", got)
	}
	if got := count(t, Filter{CameraID: "cam-1", FeatureName: "Gain"}); got != 1 {
		t.Errorf("combined filter matched %d, want 1", got)
	}
}

func TestMultiLogger(t *testing.T) {
	var a, b capture
	multi := NewMultiLogger(&a, &b, NoopLogger{})

	multi.Log(Event{CameraID: "cam-1"})

	if len(a.events) != 1 || len(b.events) != 1 {
		t.Errorf("captures = %d, %d, want 1, 1", len(a.events), len(b.events))
	}
}

type capture struct {
	events []Event
}

func (c *capture) Log(e Event) { c.events = append(c.events, e) }

func TestSlogAdapter(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewSlogAdapter(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	adapter.Log(Event{
		CameraID: "cam-1",
		Category: CategoryFrame,
		Frame:    &FrameEvent{PixelFormat: "Mono8", Width: 4, Height: 3, Bytes: 12, StreamID: "Stream0"},
	})

	out := buf.String()
	for _, want := range []string{"acquisition", "cam-1", "FRAME", "Mono8", "Stream0"} {
		if !bytes.Contains([]byte(out), []byte(want)) {
			t.Errorf("slog output missing %q: %s", want, out)
		}
	}
}
