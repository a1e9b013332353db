package gpubuf

import (
	"fmt"
	"sync"
	"unsafe"
)

// Stats holds monotonically increasing pool counters plus the current idle
// buffer count. Counters are observability only; they never affect pooling
// decisions.
type Stats struct {
	// Allocations is the number of buffers created by the allocator.
	Allocations uint64

	// Reuses is the number of acquires served from an idle bucket.
	Reuses uint64

	// Releases is the number of buffers returned to a bucket. Releases
	// into a full bucket destroy the buffer and are not counted.
	Releases uint64

	// Pooled is the current number of idle buffers across all buckets.
	Pooled int
}

// String returns a human-readable summary of the pool statistics.
func (s Stats) String() string {
	return fmt.Sprintf("Pool[%d allocated, %d reused, %d released, %d pooled]",
		s.Allocations, s.Reuses, s.Releases, s.Pooled)
}

// Pool is a thread-safe cache of fixed-size GPU buffers.
//
// Buffers are grouped into power-of-two size classes from MinBufferSize to
// MaxBufferSize. Acquire serves the smallest class that fits the request,
// reusing an idle buffer when one exists and allocating otherwise. Each
// bucket retains at most MaxBuffersPerBucket idle buffers, bounding
// steady-state memory.
//
// Thread safety: all methods are safe for concurrent use. The render loop
// acquires and releases while a memory-pressure callback may Drain from
// another goroutine. Every access, including statistics reads, takes the
// pool's mutex; critical sections are bounded and never perform GPU calls.
type Pool struct {
	mu      sync.Mutex
	alloc   Allocator
	buckets [BucketCount][]*Buffer

	allocations uint64
	reuses      uint64
	releases    uint64
}

// NewPool creates an empty pool that allocates through alloc.
func NewPool(alloc Allocator) *Pool {
	return &Pool{alloc: alloc}
}

// Acquire returns a buffer with capacity of at least length bytes (the
// bucket-nominal size; requests above MaxBufferSize are capped at
// MaxBufferSize). The caller owns the buffer until it is released.
//
// Returns an error only if the underlying allocation fails. That is
// non-fatal for the caller: skip the draw call for this frame.
func (p *Pool) Acquire(length int) (*Buffer, error) {
	idx := bucketIndex(length)

	p.mu.Lock()
	if n := len(p.buckets[idx]); n > 0 {
		buf := p.buckets[idx][n-1]
		p.buckets[idx][n-1] = nil
		p.buckets[idx] = p.buckets[idx][:n-1]
		p.reuses++
		p.mu.Unlock()
		return buf, nil
	}
	p.mu.Unlock()

	// Allocate outside the lock: GPU allocation is slow and must not
	// block concurrent pool users.
	buf, err := p.alloc.Allocate(bucketSize(idx))
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.allocations++
	p.mu.Unlock()
	return buf, nil
}

// AcquireBytes acquires a buffer for len(data) bytes, copies data into its
// staging memory, and uploads it to the GPU.
func (p *Pool) AcquireBytes(data []byte) (*Buffer, error) {
	buf, err := p.Acquire(len(data))
	if err != nil {
		return nil, err
	}
	n := copy(buf.Bytes(), data)
	buf.Upload(n)
	return buf, nil
}

// AcquireSlice acquires a buffer holding the raw bytes of data, computing
// the byte length as len(data) * sizeof(T).
func AcquireSlice[T any](p *Pool, data []T) (*Buffer, error) {
	if len(data) == 0 {
		return p.Acquire(0)
	}
	n := len(data) * int(unsafe.Sizeof(data[0]))
	raw := unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), n)
	return p.AcquireBytes(raw)
}

// Release returns a buffer to its size-class bucket. If the bucket already
// holds MaxBuffersPerBucket idle buffers, the buffer is destroyed instead.
//
// The buffer must have been acquired from this pool and must not be used
// after Release. Double-release and foreign buffers are caller errors the
// pool does not defend against.
func (p *Pool) Release(buf *Buffer) {
	if buf == nil {
		return
	}
	p.mu.Lock()
	overflow := p.releaseLocked(buf)
	p.mu.Unlock()

	if overflow != nil {
		p.alloc.Free(overflow)
	}
}

// ReleaseAll returns a batch of buffers under a single lock acquisition.
// Used by [FrameArena.EndFrame].
func (p *Pool) ReleaseAll(bufs []*Buffer) {
	var overflow []*Buffer

	p.mu.Lock()
	for _, buf := range bufs {
		if buf == nil {
			continue
		}
		if o := p.releaseLocked(buf); o != nil {
			overflow = append(overflow, o)
		}
	}
	p.mu.Unlock()

	for _, buf := range overflow {
		p.alloc.Free(buf)
	}
}

// releaseLocked pushes buf back to its bucket, or returns it when the
// bucket is full so the caller can destroy it outside the lock.
// Caller must hold mu.
func (p *Pool) releaseLocked(buf *Buffer) *Buffer {
	idx := bucketIndex(buf.capacity)
	if len(p.buckets[idx]) >= MaxBuffersPerBucket {
		return buf
	}
	p.buckets[idx] = append(p.buckets[idx], buf)
	p.releases++
	return nil
}

// Drain destroys all idle buffers. Invoke on system memory-pressure
// signals. Buffers currently checked out are unaffected and may still be
// released back afterwards.
func (p *Pool) Drain() {
	var idle []*Buffer

	p.mu.Lock()
	for i := range p.buckets {
		idle = append(idle, p.buckets[i]...)
		for j := range p.buckets[i] {
			p.buckets[i][j] = nil
		}
		p.buckets[i] = p.buckets[i][:0]
	}
	p.mu.Unlock()

	for _, buf := range idle {
		p.alloc.Free(buf)
	}
}

// Stats returns a snapshot of the pool counters.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	pooled := 0
	for i := range p.buckets {
		pooled += len(p.buckets[i])
	}
	return Stats{
		Allocations: p.allocations,
		Reuses:      p.reuses,
		Releases:    p.releases,
		Pooled:      pooled,
	}
}

// EstimatedMemoryUsage returns the bytes held by idle buffers: the sum of
// bucket-nominal size times idle count over all buckets. Checked-out
// buffers are not counted.
func (p *Pool) EstimatedMemoryUsage() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	total := 0
	for i := range p.buckets {
		total += bucketSize(i) * len(p.buckets[i])
	}
	return total
}
