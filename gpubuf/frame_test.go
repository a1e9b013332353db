package gpubuf

import "testing"

func TestFrameArena_EndFrameReturnsAll(t *testing.T) {
	pool := NewPool(&mockAllocator{})
	frame := NewFrameArena(pool)

	lengths := []int{64, 128, 128, 1024, 65536}
	for _, length := range lengths {
		if _, err := frame.Acquire(length); err != nil {
			t.Fatalf("Acquire(%d) failed: %v", length, err)
		}
	}
	if got := frame.BufferCount(); got != len(lengths) {
		t.Fatalf("BufferCount = %d, want %d", got, len(lengths))
	}

	frame.EndFrame()

	if got := frame.BufferCount(); got != 0 {
		t.Errorf("BufferCount = %d after EndFrame, want 0", got)
	}
	if stats := pool.Stats(); stats.Pooled != len(lengths) {
		t.Errorf("Pooled = %d after EndFrame, want %d", stats.Pooled, len(lengths))
	}

	// Next frame's acquires of the same sizes hit the pool.
	for _, length := range lengths {
		if _, err := frame.Acquire(length); err != nil {
			t.Fatalf("second-frame Acquire(%d) failed: %v", length, err)
		}
	}
	stats := pool.Stats()
	if stats.Reuses != uint64(len(lengths)) {
		t.Errorf("Reuses = %d, want %d", stats.Reuses, len(lengths))
	}
	if stats.Allocations != uint64(len(lengths)) {
		t.Errorf("Allocations = %d, want %d (no new allocations on reuse)", stats.Allocations, len(lengths))
	}
}

func TestFrameArena_EmptyEndFrame(t *testing.T) {
	pool := NewPool(&mockAllocator{})
	frame := NewFrameArena(pool)

	// Should not panic and should leave the pool untouched.
	frame.EndFrame()
	frame.EndFrame()

	if stats := pool.Stats(); stats.Releases != 0 {
		t.Errorf("Releases = %d after empty EndFrame, want 0", stats.Releases)
	}
}

func TestFrameArena_AcquireBytes(t *testing.T) {
	pool := NewPool(&mockAllocator{})
	frame := NewFrameArena(pool)

	data := []byte{1, 2, 3, 4, 5}
	buf, err := frame.AcquireBytes(data)
	if err != nil {
		t.Fatalf("AcquireBytes failed: %v", err)
	}
	if frame.BufferCount() != 1 {
		t.Errorf("BufferCount = %d, want 1", frame.BufferCount())
	}
	for i, want := range data {
		if buf.Bytes()[i] != want {
			t.Fatalf("staging[%d] = %d, want %d", i, buf.Bytes()[i], want)
		}
	}
}

func TestFrameAcquireSlice(t *testing.T) {
	pool := NewPool(&mockAllocator{})
	frame := NewFrameArena(pool)

	verts := []float32{0, 1, 2, 3}
	buf, err := FrameAcquireSlice(frame, verts)
	if err != nil {
		t.Fatalf("FrameAcquireSlice failed: %v", err)
	}
	if buf.Capacity() != MinBufferSize {
		t.Errorf("capacity = %d, want %d", buf.Capacity(), MinBufferSize)
	}
	if frame.BufferCount() != 1 {
		t.Errorf("BufferCount = %d, want 1", frame.BufferCount())
	}
}

func TestFrameArena_AllocationFailureNotTracked(t *testing.T) {
	alloc := &mockAllocator{fail: true}
	frame := NewFrameArena(NewPool(alloc))

	if _, err := frame.Acquire(256); err == nil {
		t.Fatal("Acquire succeeded with failing allocator")
	}
	if got := frame.BufferCount(); got != 0 {
		t.Errorf("BufferCount = %d after failed acquire, want 0", got)
	}
}

func TestFrameArena_RetainsTrackingCapacity(t *testing.T) {
	pool := NewPool(&mockAllocator{})
	frame := NewFrameArena(pool)

	for i := 0; i < 10; i++ {
		if _, err := frame.Acquire(64); err != nil {
			t.Fatalf("Acquire failed: %v", err)
		}
	}
	frame.EndFrame()

	if got := cap(frame.held); got < typicalFrameBuffers {
		t.Errorf("tracking capacity = %d after EndFrame, want >= %d", got, typicalFrameBuffers)
	}
}

func BenchmarkFrameArena_Frame(b *testing.B) {
	pool := NewPool(&mockAllocator{})
	frame := NewFrameArena(pool)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for j := 0; j < 32; j++ {
			buf, _ := frame.Acquire(2048)
			_ = buf
		}
		frame.EndFrame()
	}
}
