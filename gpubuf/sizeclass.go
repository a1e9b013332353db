package gpubuf

import "math/bits"

// Pool size-class parameters.
const (
	// MinBufferSize is the capacity of the smallest size class in bytes.
	MinBufferSize = 64

	// MaxBufferSize is the capacity of the largest size class in bytes.
	// Requests above this are capped at the top bucket.
	MaxBufferSize = 65536

	// BucketCount is the number of power-of-two size classes
	// (64 << 0 through 64 << 10).
	BucketCount = 11

	// MaxBuffersPerBucket bounds how many idle buffers each bucket retains.
	// Releases into a full bucket destroy the buffer instead.
	MaxBuffersPerBucket = 32
)

// minBufferSizeLog2 is log2(MinBufferSize), used to derive bucket indices.
const minBufferSizeLog2 = 6

// NextPowerOfTwo returns the smallest power of two greater than or equal
// to n. For n <= 1 it returns 1.
func NextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}

// Log2 returns floor(log2(n)) for n > 0. For n <= 0 it returns 0.
func Log2(n int) int {
	if n <= 0 {
		return 0
	}
	return bits.Len(uint(n)) - 1
}

// bucketIndex maps a requested byte size to its size class. Sizes of
// MinBufferSize or less map to bucket 0; larger sizes round up to the next
// power of two. The index is clamped to the top bucket, so requests above
// MaxBufferSize yield a MaxBufferSize buffer.
func bucketIndex(size int) int {
	if size <= MinBufferSize {
		return 0
	}
	idx := Log2(NextPowerOfTwo(size)) - minBufferSizeLog2
	if idx >= BucketCount {
		idx = BucketCount - 1
	}
	return idx
}

// bucketSize returns the nominal capacity of bucket i.
func bucketSize(i int) int {
	return MinBufferSize << i
}
