package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes acquisition events to an slog.Logger. Useful in
// development to see events on the console.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a SlogAdapter over the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event at Debug level.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("camera_id", event.CameraID),
		slog.String("category", event.Category.String()),
	}

	if event.Model != "" {
		attrs = append(attrs, slog.String("model", event.Model))
	}
	if event.Serial != "" {
		attrs = append(attrs, slog.String("serial", event.Serial))
	}

	switch {
	case event.StateChange != nil:
		attrs = append(attrs,
			slog.String("old_state", event.StateChange.OldState),
			slog.String("new_state", event.StateChange.NewState),
		)
		if event.StateChange.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.StateChange.Reason))
		}
	case event.Frame != nil:
		attrs = append(attrs,
			slog.String("pixel_format", event.Frame.PixelFormat),
			slog.Int("width", event.Frame.Width),
			slog.Int("height", event.Frame.Height),
			slog.Int("bytes", event.Frame.Bytes),
		)
		if event.Frame.StreamID != "" {
			attrs = append(attrs, slog.String("stream", event.Frame.StreamID))
		}
	case event.Feature != nil:
		attrs = append(attrs,
			slog.String("feature", event.Feature.Name),
			slog.String("action", event.Feature.Action.String()),
		)
		if event.Feature.Value != "" {
			attrs = append(attrs, slog.String("value", event.Feature.Value))
		}
		if event.Feature.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.Feature.Reason))
		}
	case event.Error != nil:
		attrs = append(attrs,
			slog.String("op", event.Error.Op),
			slog.String("error_msg", event.Error.Message),
		)
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "acquisition", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
