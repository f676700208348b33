package audio

import (
	"sync"
	"time"
)

// FakeContext replays fixed PCM instead of touching a real device. After the
// PCM runs out it keeps delivering silence unless NoTail is set, in which case
// the capture goes quiet like a stalled device.
type FakeContext struct {
	PCM        []byte
	Realtime   bool
	NoTail     bool
	DeviceList []DeviceInfo
	OpenErr    error
	StartErr   error

	mu     sync.Mutex
	opened int
	closed int
}

func NewFakeContext(wavPath string, realtime bool) (*FakeContext, error) {
	pcm, err := ReadWAV(wavPath)
	if err != nil {
		return nil, err
	}
	return &FakeContext{PCM: pcm, Realtime: realtime}, nil
}

func (f *FakeContext) Devices() ([]DeviceInfo, error) { return f.DeviceList, nil }
func (f *FakeContext) Close()                         {}

func (f *FakeContext) NewCapture(device *DeviceInfo, _ CaptureConfig) (CaptureDevice, error) {
	if f.OpenErr != nil {
		return nil, f.OpenErr
	}
	f.mu.Lock()
	f.opened++
	f.mu.Unlock()
	return &FakeCapture{ctx: f, device: device, audioDone: make(chan struct{})}, nil
}

// Open reports how many captures are currently open.
func (f *FakeContext) Open() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opened - f.closed
}

func (f *FakeContext) release() {
	f.mu.Lock()
	f.closed++
	f.mu.Unlock()
}

type FakeCapture struct {
	ctx       *FakeContext
	device    *DeviceInfo
	audioDone chan struct{}

	mu       sync.Mutex
	cb       DataCallback
	stopCh   chan struct{}
	feedDone chan struct{}
	closed   bool
}

// AudioDone closes once all of the replayed PCM has been delivered.
func (f *FakeCapture) AudioDone() <-chan struct{} { return f.audioDone }

func (f *FakeCapture) SetCallback(cb DataCallback) {
	f.mu.Lock()
	f.cb = cb
	f.mu.Unlock()
}

func (f *FakeCapture) ClearCallback() {
	f.mu.Lock()
	f.cb = nil
	f.mu.Unlock()
}

func (f *FakeCapture) DeviceName() string {
	if f.device != nil {
		return f.device.Name
	}
	return "fake"
}

func (f *FakeCapture) callback() DataCallback {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cb
}

func (f *FakeCapture) feedChunk(cb DataCallback, pos int) int {
	pcm := f.ctx.PCM
	end := min(pos+ChunkBytes, len(pcm))
	chunk := make([]byte, end-pos)
	copy(chunk, pcm[pos:end])
	cb(chunk, uint32(len(chunk)/BytesPerFrame))
	return end
}

func (f *FakeCapture) Start() error {
	if f.ctx.StartErr != nil {
		return f.ctx.StartErr
	}
	f.stopCh = make(chan struct{})
	f.feedDone = make(chan struct{})

	interval := time.Millisecond
	if f.ctx.Realtime {
		interval = time.Duration(ChunkFrames) * time.Second / time.Duration(SampleRate)
	}

	go func() {
		defer close(f.feedDone)
		pos := 0
		silence := make([]byte, ChunkBytes)
		finished := false

		for {
			select {
			case <-f.stopCh:
				return
			default:
			}

			if cb := f.callback(); cb != nil {
				if pos < len(f.ctx.PCM) {
					pos = f.feedChunk(cb, pos)
				} else {
					if !finished {
						finished = true
						close(f.audioDone)
					}
					if !f.ctx.NoTail {
						cb(silence, ChunkFrames)
					}
				}
			}

			select {
			case <-f.stopCh:
				return
			case <-time.After(interval):
			}
		}
	}()

	return nil
}

func (f *FakeCapture) Stop() {
	if f.stopCh == nil {
		return
	}
	select {
	case <-f.stopCh:
	default:
		close(f.stopCh)
	}
	<-f.feedDone
}

func (f *FakeCapture) Close() {
	f.Stop()
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		f.ctx.release()
	}
}
