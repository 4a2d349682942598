// Package commands implements the gencam-log CLI commands.
package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/gencam-project/gencam-go/pkg/log"
)

// ViewOptions filters the events shown by the view command.
type ViewOptions struct {
	CameraID    string
	Category    *log.Category
	FeatureName string
}

// ParseCategoryFlag converts a category flag value to its Category.
func ParseCategoryFlag(s string) (log.Category, error) {
	switch strings.ToLower(s) {
	case "state":
		return log.CategoryState, nil
	case "frame":
		return log.CategoryFrame, nil
	case "feature":
		return log.CategoryFeature, nil
	case "error":
		return log.CategoryError, nil
	default:
		return 0, fmt.Errorf("unknown category %q (state, frame, feature, error)", s)
	}
}

// RunView prints the log file in human-readable form.
func RunView(path string, opts ViewOptions, w io.Writer) error {
	reader, err := log.NewFilteredReader(path, log.Filter{
		CameraID:    opts.CameraID,
		Category:    opts.Category,
		FeatureName: opts.FeatureName,
	})
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(w, event)
	}
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	// Header line: timestamp [cam:id] CATEGORY Type
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	camID := shortenCameraID(event.CameraID)

	var typeLabel string
	switch {
	case event.StateChange != nil:
		typeLabel = event.StateChange.NewState
	case event.Frame != nil:
		typeLabel = event.Frame.PixelFormat
	case event.Feature != nil:
		typeLabel = event.Feature.Action.String()
	case event.Error != nil:
		typeLabel = event.Error.Op
	default:
		typeLabel = "Unknown"
	}

	fmt.Fprintf(w, "%s [cam:%s] %-7s %s\n", ts, camID, event.Category.String(), typeLabel)

	switch {
	case event.StateChange != nil:
		formatStateChangeDetails(w, event.StateChange)
	case event.Frame != nil:
		formatFrameDetails(w, event.Frame)
	case event.Feature != nil:
		formatFeatureDetails(w, event.Feature)
	case event.Error != nil:
		formatErrorDetails(w, event.Error)
	}

	fmt.Fprintln(w)
}

// shortenCameraID returns the first 8 characters of the session ID.
func shortenCameraID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

func formatStateChangeDetails(w io.Writer, sc *log.StateChangeEvent) {
	if sc.OldState != "" {
		fmt.Fprintf(w, "  From: %s\n", sc.OldState)
	}
	if sc.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", sc.Reason)
	}
}

func formatFrameDetails(w io.Writer, f *log.FrameEvent) {
	fmt.Fprintf(w, "  Shape: %dx%d\n", f.Width, f.Height)
	fmt.Fprintf(w, "  Size: %d bytes\n", f.Bytes)
	if f.StreamID != "" {
		fmt.Fprintf(w, "  Stream: %s\n", f.StreamID)
	}
}

func formatFeatureDetails(w io.Writer, fe *log.FeatureEvent) {
	fmt.Fprintf(w, "  Feature: %s\n", fe.Name)
	if fe.Value != "" {
		fmt.Fprintf(w, "  Value: %s\n", fe.Value)
	}
	if fe.Reason != "" {
		fmt.Fprintf(w, "  Failed: %s\n", fe.Reason)
	}
}

func formatErrorDetails(w io.Writer, e *log.ErrorEventData) {
	fmt.Fprintf(w, "  Message: %s\n", e.Message)
}
