package sim

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gencam-project/gencam-go/pkg/gentl"
)

// Stream is one simulated data stream. Buffers are filled from the
// device's register state: in free-running mode on demand when a
// consumer waits, in trigger mode when the software trigger register
// is written.
type Stream struct {
	d  *Device
	id string

	mu         sync.Mutex
	open       bool
	engineOn   bool
	registered bool
	nextToken  gentl.BufferToken
	announced  map[gentl.BufferToken][]byte
	input      []gentl.BufferToken
	deliveries chan gentl.FilledBuffer
}

var _ gentl.Stream = (*Stream)(nil)

func newStream(d *Device, id string) *Stream {
	return &Stream{
		d:          d,
		id:         id,
		nextToken:  1,
		announced:  make(map[gentl.BufferToken][]byte),
		deliveries: make(chan gentl.FilledBuffer, 64),
	}
}

// reopen resets the stream for a fresh OpenStream.
func (s *Stream) reopen() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = true
	s.engineOn = false
	s.registered = false
	s.announced = make(map[gentl.BufferToken][]byte)
	s.input = nil
	s.drainLocked()
}

func (s *Stream) drainLocked() {
	for {
		select {
		case <-s.deliveries:
		default:
			return
		}
	}
}

func (s *Stream) ID() string { return s.id }

func (s *Stream) DefinesPayloadSize() bool { return s.d.opts.DefinesPayloadSize }

func (s *Stream) PayloadSize() (int, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	return int(s.d.uint32At(regPayloadSize)), nil
}

func (s *Stream) MinBuffers() (int, error) { return s.d.opts.MinBuffers, nil }

func (s *Stream) Announce(buf []byte) (gentl.BufferToken, error) {
	if s.d.FailAnnounce != nil {
		return 0, s.d.FailAnnounce
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return 0, errors.New("stream not open")
	}
	token := s.nextToken
	s.nextToken++
	s.announced[token] = buf
	return token, nil
}

func (s *Stream) Queue(token gentl.BufferToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.announced[token]; !ok {
		return fmt.Errorf("queue of unannounced buffer %d", token)
	}
	for _, t := range s.input {
		if t == token {
			return fmt.Errorf("buffer %d already queued", token)
		}
	}
	s.input = append(s.input, token)
	return nil
}

func (s *Stream) Revoke(token gentl.BufferToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.announced[token]; !ok {
		return fmt.Errorf("revoke of unannounced buffer %d", token)
	}
	for _, t := range s.input {
		if t == token {
			return fmt.Errorf("revoke of queued buffer %d", token)
		}
	}
	delete(s.announced, token)
	return nil
}

func (s *Stream) FlushDiscardAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.input = nil
	s.drainLocked()
	return nil
}

func (s *Stream) StartEngine() error {
	if s.d.FailStartEngine != nil {
		return s.d.FailStartEngine
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engineOn = true
	return nil
}

func (s *Stream) KillEngine() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engineOn = false
	return nil
}

func (s *Stream) RegisterNewBufferEvent() (gentl.BufferEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.registered {
		return nil, errors.New("buffer event already registered")
	}
	s.registered = true
	return &bufferEvent{s: s}, nil
}

func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.announced) > 0 {
		return fmt.Errorf("closing stream %q with %d announced buffers", s.id, len(s.announced))
	}
	s.open = false
	return nil
}

// deliver fills the next queued buffer and posts it. A stream with an
// empty input pool or a stopped engine drops the exposure, as a real
// device would.
func (s *Stream) deliver() {
	s.mu.Lock()
	if !s.engineOn || len(s.input) == 0 {
		s.mu.Unlock()
		return
	}
	token := s.input[0]
	s.input = s.input[1:]
	buf := s.announced[token]
	s.mu.Unlock()

	width, height := s.d.frameInto(buf)
	kind, _ := s.d.payloadKind()
	fb := gentl.FilledBuffer{
		Token:  token,
		Data:   buf,
		Kind:   kind,
		Width:  width,
		Height: height,
	}

	select {
	case s.deliveries <- fb:
	default:
	}
}

// bufferEvent is the stream's new-buffer subscription.
type bufferEvent struct {
	s *Stream
}

var _ gentl.BufferEvent = (*bufferEvent)(nil)

func (e *bufferEvent) Await(timeout time.Duration) (gentl.FilledBuffer, error) {
	select {
	case fb := <-e.s.deliveries:
		return fb, nil
	default:
	}

	// Free-running devices expose continuously; produce on demand.
	if e.s.d.freeRunning() {
		e.s.deliver()
		select {
		case fb := <-e.s.deliveries:
			return fb, nil
		default:
		}
	}

	select {
	case fb := <-e.s.deliveries:
		return fb, nil
	case <-time.After(timeout):
		return gentl.FilledBuffer{}, gentl.ErrEventTimeout
	}
}

func (e *bufferEvent) Flush() {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()
	e.s.drainLocked()
}

func (e *bufferEvent) Unregister() error {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()
	e.s.registered = false
	return nil
}
