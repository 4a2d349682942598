package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/gencam-project/gencam-go/pkg/log"
)

// Stats holds aggregate statistics about a log file.
type Stats struct {
	TotalEvents      int
	EventsByCategory map[log.Category]int
	Cameras          map[string]*CameraStats
	Errors           int
	TimeRange        struct {
		Start time.Time
		End   time.Time
	}
}

// CameraStats holds statistics for a single camera session.
type CameraStats struct {
	FirstSeen  time.Time
	LastSeen   time.Time
	Events     int
	Model      string
	Serial     string
	Frames     int
	FrameBytes int64
}

// RunStats analyzes the log file and prints statistics.
func RunStats(path string, w io.Writer) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	stats := &Stats{
		EventsByCategory: make(map[log.Category]int),
		Cameras:          make(map[string]*CameraStats),
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		stats.TotalEvents++
		stats.EventsByCategory[event.Category]++

		if stats.TimeRange.Start.IsZero() || event.Timestamp.Before(stats.TimeRange.Start) {
			stats.TimeRange.Start = event.Timestamp
		}
		if event.Timestamp.After(stats.TimeRange.End) {
			stats.TimeRange.End = event.Timestamp
		}

		cam, ok := stats.Cameras[event.CameraID]
		if !ok {
			cam = &CameraStats{
				FirstSeen: event.Timestamp,
				LastSeen:  event.Timestamp,
			}
			stats.Cameras[event.CameraID] = cam
		}
		cam.Events++
		if event.Timestamp.After(cam.LastSeen) {
			cam.LastSeen = event.Timestamp
		}
		if event.Model != "" && cam.Model == "" {
			cam.Model = event.Model
		}
		if event.Serial != "" && cam.Serial == "" {
			cam.Serial = event.Serial
		}

		if event.Frame != nil {
			cam.Frames++
			cam.FrameBytes += int64(event.Frame.Bytes)
		}
		if event.Error != nil {
			stats.Errors++
		}
	}

	printStats(w, stats)
	return nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== Acquisition Log Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Second))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for _, cat := range []log.Category{log.CategoryState, log.CategoryFrame, log.CategoryFeature, log.CategoryError} {
		if count := stats.EventsByCategory[cat]; count > 0 {
			fmt.Fprintf(w, "  %-9s %d\n", cat.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Cameras: %d\n", len(stats.Cameras))
	if len(stats.Cameras) > 0 {
		type camInfo struct {
			id    string
			stats *CameraStats
		}
		cams := make([]camInfo, 0, len(stats.Cameras))
		for id, cs := range stats.Cameras {
			cams = append(cams, camInfo{id, cs})
		}
		sort.Slice(cams, func(i, j int) bool {
			return cams[i].stats.FirstSeen.Before(cams[j].stats.FirstSeen)
		})

		fmt.Fprintln(w, "")
		for _, c := range cams {
			duration := c.stats.LastSeen.Sub(c.stats.FirstSeen).Round(time.Millisecond)
			fmt.Fprintf(w, "  [%s] %d events, duration %s\n", shortenCameraID(c.id), c.stats.Events, duration)
			if c.stats.Model != "" {
				fmt.Fprintf(w, "           Device: %s %s\n", c.stats.Model, c.stats.Serial)
			}
			if c.stats.Frames > 0 {
				fmt.Fprintf(w, "           Frames: %d (%d bytes)\n", c.stats.Frames, c.stats.FrameBytes)
			}
		}
	}

	if stats.Errors > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Errors: %d\n", stats.Errors)
	}
}
