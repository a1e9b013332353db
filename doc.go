// Package canvaskit provides the infrastructure layer for GPU-accelerated
// spatial canvas applications: buffer pooling for the render loop and
// debounced persistence for high-frequency direct-manipulation edits.
//
// # Overview
//
// A zoomable block canvas redraws at up to 120 Hz while the user drags,
// resizes, and connects blocks. Two costs dominate at that rate: GPU buffer
// allocation on every frame, and storage writes on every mutation event.
// canvaskit addresses both:
//
//   - [github.com/gogpu/canvaskit/gpubuf] caches GPU-visible buffers in
//     power-of-two size classes and leases them out one frame at a time,
//     so steady-state frames allocate nothing.
//   - [github.com/gogpu/canvaskit/persist] coalesces bursts of position,
//     size, and content updates into batched, rate-limited store writes,
//     keeping the final value without blocking the UI.
//
// # Quick Start
//
//	alloc, err := gpubuf.NewHALAllocatorFromProvider(app.GPUContextProvider())
//	if err != nil {
//	    // CPU-only host; skip GPU pooling
//	}
//	pool := gpubuf.NewPool(alloc)
//	frame := gpubuf.NewFrameArena(pool)
//
//	// Render loop:
//	buf, err := frame.AcquireBytes(vertexData)
//	if err == nil {
//	    // encode a draw call referencing buf.Raw()
//	}
//	frame.EndFrame() // all buffers return to the pool
//
//	// UI handlers:
//	saver := persist.NewSaver(store, persist.Options{})
//	saver.QueuePositionUpdate("block-1", canvaskit.Pt(120, 340))
//
// The root package holds the shared geometry value types and the logging
// configuration used by the sub-packages.
package canvaskit
