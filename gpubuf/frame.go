package gpubuf

import "unsafe"

// typicalFrameBuffers pre-reserves tracking capacity for one frame's
// buffer count, avoiding repeated list growth on the render path.
const typicalFrameBuffers = 64

// FrameArena scopes buffer ownership to a single render frame.
//
// Every buffer acquired through the arena is recorded and returned to the
// pool in one batch at [FrameArena.EndFrame], so render code never releases
// buffers manually. This is a single-frame lease, not reference counting:
// the arena is the sole owner of a checked-out buffer, and using a buffer
// after EndFrame is a caller error — the memory may be rewritten by a
// subsequent acquirer.
//
// FrameArena is NOT safe for concurrent use. Create one per render loop,
// or use external synchronization.
type FrameArena struct {
	pool *Pool
	held []*Buffer
}

// NewFrameArena creates an arena that leases buffers from pool.
func NewFrameArena(pool *Pool) *FrameArena {
	return &FrameArena{
		pool: pool,
		held: make([]*Buffer, 0, typicalFrameBuffers),
	}
}

// Acquire leases a buffer of at least length bytes for the current frame.
// On allocation failure the error is returned and nothing is tracked;
// the caller skips that draw call.
func (f *FrameArena) Acquire(length int) (*Buffer, error) {
	buf, err := f.pool.Acquire(length)
	if err != nil {
		return nil, err
	}
	f.held = append(f.held, buf)
	return buf, nil
}

// AcquireBytes leases a buffer for the current frame with data copied into
// its staging memory and uploaded to the GPU.
func (f *FrameArena) AcquireBytes(data []byte) (*Buffer, error) {
	buf, err := f.pool.AcquireBytes(data)
	if err != nil {
		return nil, err
	}
	f.held = append(f.held, buf)
	return buf, nil
}

// FrameAcquireSlice leases a buffer holding the raw bytes of data for the
// current frame, computing the byte length as len(data) * sizeof(T).
func FrameAcquireSlice[T any](f *FrameArena, data []T) (*Buffer, error) {
	if len(data) == 0 {
		return f.Acquire(0)
	}
	n := len(data) * int(unsafe.Sizeof(data[0]))
	raw := unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), n)
	return f.AcquireBytes(raw)
}

// EndFrame returns every buffer leased this frame to the pool in one batch
// and resets the tracking list, retaining its backing capacity for the
// next frame.
func (f *FrameArena) EndFrame() {
	if len(f.held) == 0 {
		return
	}
	f.pool.ReleaseAll(f.held)
	for i := range f.held {
		f.held[i] = nil
	}
	f.held = f.held[:0]
}

// BufferCount returns the number of buffers leased in the current frame.
func (f *FrameArena) BufferCount() int {
	return len(f.held)
}
