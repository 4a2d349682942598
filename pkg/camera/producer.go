package camera

import (
	"time"

	"github.com/gencam-project/gencam-go/pkg/frame"
)

// frameProducer hides the difference between free-running and
// software-triggered delivery behind a single pull.
type frameProducer struct {
	// software is true when the device waits for TriggerSoftware.
	software bool

	// primed is set once the free-running warm-up frame was discarded.
	primed bool
}

// next produces one frame. In software-trigger mode each pull fires a
// trigger first, so the frame reflects the feature values in effect at
// the pull. Free-running devices may have an exposure in flight from
// before the last feature change; the very first delivered buffer is
// discarded to get past it.
func (p *frameProducer) next(c *Camera, timeout time.Duration) (*frame.Frame, error) {
	if p.software {
		if err := c.executeCommand("TriggerSoftware"); err != nil {
			return nil, err
		}
		return c.captureFrame(timeout)
	}

	if !p.primed {
		if _, err := c.captureFrame(timeout); err != nil {
			return nil, err
		}
		p.primed = true
	}
	return c.captureFrame(timeout)
}
