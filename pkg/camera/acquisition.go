package camera

import (
	"errors"
	"fmt"
	"time"

	"github.com/gencam-project/gencam-go/pkg/frame"
	"github.com/gencam-project/gencam-go/pkg/gentl"
	"github.com/gencam-project/gencam-go/pkg/pixel"
)

// DefaultMetaFeatures are the features sampled into each frame's
// metadata when the caller does not override them. Names missing from
// the feature directory are skipped.
var DefaultMetaFeatures = []string{
	"Gain",
	"ExposureTime",
	"PixelFormat",
	"PixelColorFilter",
}

// AcquisitionOptions tune StartAcquisition. The zero value asks the
// device for everything.
type AcquisitionOptions struct {
	// BufferCount is the number of buffers announced per stream.
	// Zero means the stream's minimum.
	BufferCount int

	// PayloadSize overrides the per-buffer byte size. Zero means
	// resolve from the stream or from the PayloadSize feature.
	PayloadSize int

	// MetaFeatures overrides DefaultMetaFeatures.
	MetaFeatures []string
}

// streamState is one opened stream with its announced buffers.
type streamState struct {
	stream gentl.Stream
	event  gentl.BufferEvent
	tokens []gentl.BufferToken

	// held are delivered tokens not yet requeued.
	held []gentl.BufferToken
}

// acquisition is the Running-state bundle.
type acquisition struct {
	streams  []*streamState
	format   pixel.Format
	meta     []string
	producer frameProducer
}

// StartAcquisition moves the session into acquisition: streams are
// opened, buffers announced and queued, the delivery engine started
// and the device told to begin exposing. On any error every resource
// acquired so far is released and the session is back to Idle.
func (c *Camera) StartAcquisition(opts AcquisitionOptions) error {
	if !c.IsInitialized() {
		return ErrNotInitialized
	}
	if c.acq != nil {
		return nil
	}

	streamIDs, err := c.dev.StreamIDs()
	if err != nil {
		return fmt.Errorf("listing streams: %w", err)
	}
	if len(streamIDs) == 0 {
		return ErrNoStreams
	}

	acq := &acquisition{}
	fail := func(err error) error {
		c.teardownStreams(acq.streams)
		c.emitError("start_acquisition", err)
		return err
	}

	for _, id := range streamIDs {
		st, err := c.openStream(id, opts)
		if err != nil {
			return fail(err)
		}
		acq.streams = append(acq.streams, st)
	}

	for _, st := range acq.streams {
		if err := st.stream.StartEngine(); err != nil {
			return fail(fmt.Errorf("starting engine on stream %q: %w", st.stream.ID(), err))
		}
	}

	if err := c.executeCommand("AcquisitionStart"); err != nil {
		// The device may already be exposing when the command is
		// reported failed; counter it before unwinding.
		_ = c.tryExecuteCommand("AcquisitionStop")
		return fail(err)
	}

	formatName, err := c.stringFeatureValue("PixelFormat")
	if err != nil {
		_ = c.tryExecuteCommand("AcquisitionStop")
		return fail(err)
	}
	format, err := pixel.Lookup(formatName)
	if err != nil {
		_ = c.tryExecuteCommand("AcquisitionStop")
		return fail(err)
	}
	acq.format = format

	acq.meta = opts.MetaFeatures
	if acq.meta == nil {
		for _, name := range DefaultMetaFeatures {
			if c.dir.Has(name) {
				acq.meta = append(acq.meta, name)
			}
		}
	}

	acq.producer = frameProducer{software: c.isSoftwareTriggered()}

	// Lock the transport-critical features while streaming. Not all
	// devices expose the lock.
	if v, ok := c.dir.Value("TLParamsLocked"); ok {
		if err := v.Set(int64(1)); err != nil {
			c.debug("could not lock transport parameters", "err", err)
		}
	}

	c.acq = acq
	c.debug("acquisition started", "streams", len(acq.streams), "format", formatName)
	c.emitState("idle", "acquiring", "")
	return nil
}

func (c *Camera) openStream(id string, opts AcquisitionOptions) (st *streamState, err error) {
	stream, err := c.dev.OpenStream(id)
	if err != nil {
		return nil, fmt.Errorf("opening stream %q: %w", id, err)
	}
	defer func() {
		if err != nil {
			_ = stream.Close()
		}
	}()

	event, err := stream.RegisterNewBufferEvent()
	if err != nil {
		return nil, fmt.Errorf("registering buffer event on stream %q: %w", id, err)
	}

	size := opts.PayloadSize
	if size == 0 {
		if stream.DefinesPayloadSize() {
			size, err = stream.PayloadSize()
			if err != nil {
				return nil, fmt.Errorf("querying payload size on stream %q: %w", id, err)
			}
		} else {
			n, ferr := c.intFeatureValue("PayloadSize")
			if ferr != nil {
				return nil, ferr
			}
			size = int(n)
		}
	}

	count := opts.BufferCount
	if count == 0 {
		count, err = stream.MinBuffers()
		if err != nil {
			return nil, fmt.Errorf("querying minimum buffers on stream %q: %w", id, err)
		}
	}

	st = &streamState{stream: stream, event: event}
	for i := 0; i < count; i++ {
		token, aerr := stream.Announce(make([]byte, size))
		if aerr != nil {
			err = fmt.Errorf("announcing buffer on stream %q: %w", id, aerr)
			c.revokeAll(st)
			return nil, err
		}
		st.tokens = append(st.tokens, token)
		if qerr := stream.Queue(token); qerr != nil {
			err = fmt.Errorf("queueing buffer on stream %q: %w", id, qerr)
			c.revokeAll(st)
			return nil, err
		}
	}
	return st, nil
}

// StopAcquisition tears acquisition down in the reverse order of
// StartAcquisition. Teardown continues past individual failures so a
// single bad stream cannot pin the rest of the resources; all errors
// are joined. Stopping an idle session is a no-op.
func (c *Camera) StopAcquisition() error {
	if c.acq == nil {
		return nil
	}

	var errs []error
	if err := c.tryExecuteCommand("AcquisitionStop"); err != nil {
		errs = append(errs, err)
	}

	if v, ok := c.dir.Value("TLParamsLocked"); ok {
		if err := v.Set(int64(0)); err != nil {
			c.debug("could not unlock transport parameters", "err", err)
		}
	}

	if err := c.teardownStreams(c.acq.streams); err != nil {
		errs = append(errs, err)
	}
	c.acq = nil

	err := errors.Join(errs...)
	if err != nil {
		c.emitError("stop_acquisition", err)
	}
	c.debug("acquisition stopped")
	c.emitState("acquiring", "idle", "")
	return err
}

func (c *Camera) teardownStreams(streams []*streamState) error {
	var errs []error
	for _, st := range streams {
		if st.event != nil {
			st.event.Flush()
			if err := st.event.Unregister(); err != nil {
				errs = append(errs, err)
			}
		}
		if err := st.stream.KillEngine(); err != nil {
			errs = append(errs, err)
		}
		if err := st.stream.FlushDiscardAll(); err != nil {
			errs = append(errs, err)
		}
		c.revokeAll(st)
		if err := st.stream.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (c *Camera) revokeAll(st *streamState) {
	for _, token := range st.tokens {
		if err := st.stream.Revoke(token); err != nil {
			c.debug("revoking buffer failed", "stream", st.stream.ID(), "err", err)
		}
	}
	st.tokens = nil
	st.held = nil
}

// tryExecuteCommand executes a command feature if the directory has
// it, tolerating devices that do not expose it.
func (c *Camera) tryExecuteCommand(name string) error {
	if !c.dir.Has(name) {
		return nil
	}
	return c.executeCommand(name)
}

// isSoftwareTriggered reports whether the device is set up for
// per-frame software triggering.
func (c *Camera) isSoftwareTriggered() bool {
	mode, err := c.stringFeatureValue("TriggerMode")
	if err != nil || mode != "On" {
		return false
	}
	source, err := c.stringFeatureValue("TriggerSource")
	return err == nil && source == "Software"
}

// GetFrame delivers the next frame, waiting at most timeout for a
// filled buffer. In software-trigger mode a trigger is issued first.
// Returns ErrAcquisitionNotStarted when the session is Idle and a
// wrapped ErrTimeout when no buffer arrives in time.
func (c *Camera) GetFrame(timeout time.Duration) (*frame.Frame, error) {
	if c.acq == nil {
		return nil, ErrAcquisitionNotStarted
	}
	return c.acq.producer.next(c, timeout)
}

// captureFrame waits for the next filled buffer across all streams
// and decodes it. Buffers held from the previous delivery are
// requeued first so the engine never starves.
func (c *Camera) captureFrame(timeout time.Duration) (*frame.Frame, error) {
	acq := c.acq
	for _, st := range acq.streams {
		for _, token := range st.held {
			if err := st.stream.Queue(token); err != nil {
				return nil, fmt.Errorf("requeueing buffer on stream %q: %w", st.stream.ID(), err)
			}
		}
		st.held = nil
	}

	deadline := time.Now().Add(timeout)
	slice := timeout
	if len(acq.streams) > 1 {
		slice = timeout / time.Duration(len(acq.streams))
	}

	for {
		for _, st := range acq.streams {
			remaining := time.Until(deadline)
			if remaining <= 0 {
				return nil, fmt.Errorf("%w: no frame within %v", ErrTimeout, timeout)
			}
			wait := slice
			if wait > remaining {
				wait = remaining
			}
			filled, err := st.event.Await(wait)
			if err != nil {
				if errors.Is(err, gentl.ErrEventTimeout) {
					continue
				}
				c.emitError("get_frame", err)
				return nil, err
			}
			st.held = append(st.held, filled.Token)
			return c.decodeFrame(st, filled)
		}
	}
}

func (c *Camera) decodeFrame(st *streamState, filled gentl.FilledBuffer) (*frame.Frame, error) {
	var width, height int
	switch filled.Kind {
	case gentl.PayloadImage:
		width, height = filled.Width, filled.Height
	case gentl.PayloadUnknown:
		w, err := c.intFeatureValue("Width")
		if err != nil {
			return nil, err
		}
		h, err := c.intFeatureValue("Height")
		if err != nil {
			return nil, err
		}
		width, height = int(w), int(h)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedPayload, filled.Kind)
	}

	format := c.acq.format
	arr, err := format.Decode(filled.Data, height, width)
	if err != nil {
		return nil, err
	}

	fr := frame.New(arr, format.Name, format.Range, format.ChannelLabels, time.Now())
	for _, name := range c.acq.meta {
		v, ok := c.dir.Value(name)
		if !ok {
			continue
		}
		val, err := v.Get()
		if err != nil {
			c.debug("skipping unreadable meta feature", "feature", name, "err", err)
			continue
		}
		fr.Meta[name] = val
	}

	c.emitFrame(st.stream.ID(), format.Name, width, height, len(filled.Data))
	return fr, nil
}
