// Command gencam-example demonstrates an acquisition session against the
// simulated camera.
//
// This example shows how to:
//   - Initialize a camera from a device handle
//   - Read and write features through the feature directory
//   - Apply a settings batch with automatic ordering
//   - Start acquisition and grab frames
//   - Capture the session as a binary event log
//
// Usage:
//
//	go run ./cmd/gencam-example [-frames N] [-log session.clog]
package main

import (
	"flag"
	"fmt"
	stdlog "log"
	"os"
	"time"

	"github.com/gencam-project/gencam-go/internal/testharness/sim"
	"github.com/gencam-project/gencam-go/pkg/camera"
	"github.com/gencam-project/gencam-go/pkg/log"
)

func main() {
	frames := flag.Int("frames", 5, "number of frames to grab")
	logPath := flag.String("log", "", "write session events to this file")
	flag.Parse()

	stdlog.SetFlags(stdlog.Ltime | stdlog.Lmicroseconds)
	stdlog.Println("Camera acquisition example")
	stdlog.Println("==========================")

	if err := run(*frames, *logPath); err != nil {
		stdlog.Fatalf("Example failed: %v", err)
	}
}

func run(frames int, logPath string) error {
	dev := sim.NewDevice(sim.Options{})

	cam := camera.New(dev)
	defer cam.Close()

	if logPath != "" {
		events, err := log.NewFileLogger(logPath)
		if err != nil {
			return fmt.Errorf("failed to create event log: %w", err)
		}
		defer events.Close()
		cam.SetEventLogger(events)
		stdlog.Printf("Capturing session events to %s", logPath)
	}

	if err := cam.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize camera: %w", err)
	}
	info := cam.Info()
	stdlog.Printf("Connected to %s %s (serial %s)", info.Vendor, info.Model, info.SerialNumber)

	// Configure a small test pattern before acquisition starts.
	remaining, reasons, err := cam.LoadConfig(map[string]any{
		"Width":        8,
		"Height":       6,
		"PixelFormat":  "Mono8",
		"ExposureTime": 15000,
	})
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	if len(remaining) > 0 {
		for name, reason := range reasons {
			stdlog.Printf("Setting %s not applied: %s", name, reason)
		}
		return fmt.Errorf("%d settings could not be applied", len(remaining))
	}

	if err := cam.StartAcquisition(camera.AcquisitionOptions{}); err != nil {
		return fmt.Errorf("failed to start acquisition: %w", err)
	}
	defer cam.StopAcquisition()

	for i := 0; i < frames; i++ {
		frame, err := cam.GetFrame(2 * time.Second)
		if err != nil {
			return fmt.Errorf("failed to grab frame %d: %w", i+1, err)
		}
		stdlog.Printf("Frame %d: %dx%d %s (%d samples)",
			i+1, frame.Pixels.Width, frame.Pixels.Height, frame.PixelFormat, frame.Pixels.Len())
	}

	if err := cam.StopAcquisition(); err != nil {
		return fmt.Errorf("failed to stop acquisition: %w", err)
	}

	fmt.Fprintln(os.Stdout, "Session complete.")
	return nil
}
