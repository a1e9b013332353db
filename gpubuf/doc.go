// Package gpubuf provides a size-bucketed pool of GPU-visible buffers with
// per-frame lease scoping.
//
// Allocating a GPU buffer costs on the order of 0.5-2 ms; at 120 Hz that is
// most of the frame budget. [Pool] amortizes the cost by caching buffers in
// power-of-two size classes and handing them back out on subsequent frames.
// [FrameArena] tracks every buffer checked out during one frame and returns
// them all to the pool in a single batch at EndFrame, so render code never
// releases buffers manually.
//
// The pool allocates through the [Allocator] interface. [HALAllocator] backs
// it with a gogpu/wgpu HAL device; tests inject a CPU-only double.
package gpubuf
