package gpubuf

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Allocation errors.
var (
	// ErrNilDevice is returned when constructing an allocator without a device.
	ErrNilDevice = errors.New("gpubuf: nil HAL device")

	// ErrNilQueue is returned when constructing an allocator without a queue.
	ErrNilQueue = errors.New("gpubuf: nil HAL queue")

	// ErrNoHALAccess is returned when a DeviceProvider does not expose the
	// underlying HAL device and queue.
	ErrNoHALAccess = errors.New("gpubuf: provider does not expose HAL types")
)

// Buffer is a fixed-capacity block of GPU-addressable memory managed by a
// [Pool]. Its capacity is always a bucket-nominal size (a power of two times
// MinBufferSize).
//
// A Buffer has exactly one owner at a time: either it sits idle in the pool,
// or it is checked out by the caller (typically tracked by a [FrameArena])
// until released. Using a Buffer after releasing it is a caller error; the
// memory may be rewritten by a subsequent acquirer.
type Buffer struct {
	// raw is the underlying GPU buffer handle. Nil for CPU-only buffers
	// created by test allocators.
	raw hal.Buffer

	// queue uploads staging data to the GPU buffer.
	queue hal.Queue

	// capacity is the allocated size in bytes (bucket nominal).
	capacity int

	// staging is CPU-visible memory of exactly capacity bytes. Callers
	// write vertex/uniform data here before Upload.
	staging []byte
}

// Capacity returns the allocated size of the buffer in bytes.
func (b *Buffer) Capacity() int {
	return b.capacity
}

// Bytes returns the buffer's CPU staging memory. The slice is valid only
// while the caller holds the buffer.
func (b *Buffer) Bytes() []byte {
	return b.staging
}

// Raw returns the underlying GPU buffer handle for draw-call encoding.
// Nil if the buffer has no GPU backing.
func (b *Buffer) Raw() hal.Buffer {
	return b.raw
}

// Upload pushes the first n bytes of staging memory to the GPU buffer.
// n is clamped to the buffer capacity. A no-op for buffers without GPU
// backing.
func (b *Buffer) Upload(n int) {
	if b.raw == nil || b.queue == nil || n <= 0 {
		return
	}
	if n > b.capacity {
		n = b.capacity
	}
	b.queue.WriteBuffer(b.raw, 0, b.staging[:n])
}

// Allocator creates and destroys pooled buffers. Implementations must be
// safe for concurrent use; the pool calls them from the render thread and
// from memory-pressure callbacks.
type Allocator interface {
	// Allocate creates a buffer of exactly size bytes.
	Allocate(size int) (*Buffer, error)

	// Free destroys a buffer that will not return to the pool.
	Free(*Buffer)
}

// HALAllocator allocates GPU buffers on a gogpu/wgpu HAL device.
//
// Buffers are created with vertex and copy-destination usage, matching how
// the renderer consumes them: CPU staging data is written through the queue
// and the buffer is bound as a vertex source.
type HALAllocator struct {
	device hal.Device
	queue  hal.Queue
}

// NewHALAllocator creates an allocator for the given device and queue.
func NewHALAllocator(device hal.Device, queue hal.Queue) (*HALAllocator, error) {
	if device == nil {
		return nil, ErrNilDevice
	}
	if queue == nil {
		return nil, ErrNilQueue
	}
	return &HALAllocator{device: device, queue: queue}, nil
}

// NewHALAllocatorFromProvider creates an allocator from a host-application
// device provider (e.g. gogpu.App.GPUContextProvider()). The provider must
// also implement HalDevice() any and HalQueue() any returning hal.Device
// and hal.Queue.
func NewHALAllocatorFromProvider(provider gpucontext.DeviceProvider) (*HALAllocator, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrNoHALAccess
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is not hal.Device", ErrNoHALAccess)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is not hal.Queue", ErrNoHALAccess)
	}
	return NewHALAllocator(device, queue)
}

// Allocate creates a GPU buffer of exactly size bytes with a matching
// CPU staging region.
func (a *HALAllocator) Allocate(size int) (*Buffer, error) {
	raw, err := a.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "canvaskit-pooled",
		Size:  uint64(size),
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("gpubuf: create buffer (%d bytes): %w", size, err)
	}
	return &Buffer{
		raw:      raw,
		queue:    a.queue,
		capacity: size,
		staging:  make([]byte, size),
	}, nil
}

// Free destroys the buffer's GPU backing.
func (a *HALAllocator) Free(b *Buffer) {
	if b == nil || b.raw == nil {
		return
	}
	a.device.DestroyBuffer(b.raw)
	b.raw = nil
	b.staging = nil
}

// Ensure HALAllocator implements Allocator.
var _ Allocator = (*HALAllocator)(nil)
