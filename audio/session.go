package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"voxtray/log"
)

const (
	defaultReadTimeout = 2 * time.Second
	chunkQueueSize     = 512 // ~32s of audio at 64ms per chunk
)

var ErrReadTimeout = errors.New("audio read timed out")

// Chunk is one fixed-size block of captured PCM and its peak level.
type Chunk struct {
	Frame []byte
	Level int
}

// Engine opens capture sessions on a single resolved input device.
type Engine struct {
	ctx         Context
	device      *DeviceInfo
	config      CaptureConfig
	readTimeout time.Duration
	tempDir     string
}

type EngineOption func(*Engine)

// WithReadTimeout bounds how long ReadChunk waits for the device before the
// session is treated as ended.
func WithReadTimeout(d time.Duration) EngineOption {
	return func(e *Engine) { e.readTimeout = d }
}

// WithTempDir sets where captured WAV files are written.
func WithTempDir(dir string) EngineOption {
	return func(e *Engine) { e.tempDir = dir }
}

func NewEngine(ctx Context, device *DeviceInfo, opts ...EngineOption) *Engine {
	e := &Engine{
		ctx:         ctx,
		device:      device,
		config:      DefaultCaptureConfig(),
		readTimeout: defaultReadTimeout,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *Engine) Device() *DeviceInfo { return e.device }

// Start opens the device and begins buffering chunks for a new session.
func (e *Engine) Start() (*Session, error) {
	dev, err := e.ctx.NewCapture(e.device, e.config)
	if err != nil {
		return nil, fmt.Errorf("opening capture device: %w", err)
	}

	s := &Session{
		ID:          uuid.NewString(),
		dev:         dev,
		chunks:      make(chan []byte, chunkQueueSize),
		readTimeout: e.readTimeout,
		tempDir:     e.tempDir,
	}
	dev.SetCallback(s.feed)
	if err := Quiet(dev.Start); err != nil {
		dev.ClearCallback()
		dev.Close()
		return nil, fmt.Errorf("starting capture: %w", err)
	}
	log.SessionStart(s.ID, dev.DeviceName())
	return s, nil
}

// Record runs the capture loop: it reads chunks until cancel is set or the
// stream ends, reporting each chunk's level to onLevel. cancel is only
// consulted between reads. A device read failure ends the session like a
// cancel does. The result is nil when no chunk was read.
func (e *Engine) Record(cancel *atomic.Bool, onLevel func(level int)) (*Captured, error) {
	s, err := e.Start()
	if err != nil {
		return nil, err
	}
	for !cancel.Load() {
		chunk, err := s.ReadChunk()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				log.Warnf("capture %s ended early: %v", s.ID, err)
			}
			break
		}
		if onLevel != nil {
			onLevel(chunk.Level)
		}
	}
	return s.Stop()
}

// Session is a single recording on an open device. ReadChunk and Stop must be
// called from one goroutine; the device callback is the only other writer.
type Session struct {
	ID string

	dev         CaptureDevice
	chunks      chan []byte
	readTimeout time.Duration
	tempDir     string

	mu      sync.Mutex
	pending []byte
	stopped bool
	dropped int

	pcm    bytes.Buffer
	frames int
	once   sync.Once
}

// feed re-blocks whatever the backend delivers into ChunkFrames-sized chunks.
func (s *Session) feed(data []byte, _ uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.pending = append(s.pending, data...)
	for len(s.pending) >= ChunkBytes {
		chunk := make([]byte, ChunkBytes)
		copy(chunk, s.pending[:ChunkBytes])
		s.pending = s.pending[ChunkBytes:]
		select {
		case s.chunks <- chunk:
		default:
			s.dropped++
		}
	}
}

// ReadChunk blocks for the next chunk. It returns io.EOF once the session has
// been stopped and ErrReadTimeout if the device stays silent for too long.
func (s *Session) ReadChunk() (Chunk, error) {
	timer := time.NewTimer(s.readTimeout)
	defer timer.Stop()

	select {
	case frame, ok := <-s.chunks:
		if !ok {
			return Chunk{}, io.EOF
		}
		s.pcm.Write(frame)
		s.frames += ChunkFrames
		return Chunk{Frame: frame, Level: Level(frame)}, nil
	case <-timer.C:
		return Chunk{}, ErrReadTimeout
	}
}

// Frames is the number of frames read so far.
func (s *Session) Frames() int { return s.frames }

// Stop releases the device and hands off the chunks read so far as a WAV
// file. It returns nil when nothing was read. Chunks still queued when Stop is
// called are discarded.
func (s *Session) Stop() (*Captured, error) {
	var captured *Captured
	var err error
	s.once.Do(func() {
		s.dev.Stop()
		s.dev.ClearCallback()
		s.dev.Close()

		s.mu.Lock()
		s.stopped = true
		dropped := s.dropped
		s.pending = nil
		s.mu.Unlock()
		close(s.chunks)

		if dropped > 0 {
			log.Warnf("capture %s dropped %d chunks", s.ID, dropped)
		}
		log.SessionEnd(s.ID, s.frames)

		if s.frames == 0 {
			return
		}
		captured, err = WriteWAV(s.tempDir, s.pcm.Bytes())
		s.pcm.Reset()
	})
	return captured, err
}
