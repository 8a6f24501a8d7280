package camera

import (
	"context"
	"sync"
	"time"
)

// FakeSource is an in-memory Source for tests and for running the service
// without camera hardware. It serves the configured frame on every call.
type FakeSource struct {
	mu        sync.Mutex
	open      bool
	frame     *Frame
	seq       uint64
	OpenErr   error
	OpenCalls int
}

// NewFakeSource creates a fake source that will serve the given image bytes.
func NewFakeSource(data []byte, width, height int) *FakeSource {
	return &FakeSource{
		frame: &Frame{Data: data, Width: width, Height: height},
	}
}

func (f *FakeSource) Open(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.OpenCalls++
	if f.open {
		return nil
	}
	if f.OpenErr != nil {
		return f.OpenErr
	}
	f.open = true
	return nil
}

func (f *FakeSource) Frame() (*Frame, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.open || f.frame == nil {
		return nil, ErrNotReady
	}
	f.seq++
	frame := *f.frame
	frame.Seq = f.seq
	frame.Timestamp = time.Now()
	return &frame, nil
}

func (f *FakeSource) Ready() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open && f.frame != nil
}

func (f *FakeSource) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.open = false
	return nil
}
