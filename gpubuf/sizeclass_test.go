package gpubuf

import "testing"

func TestNextPowerOfTwo(t *testing.T) {
	tests := []struct {
		n    int
		want int
	}{
		{-5, 1},
		{0, 1},
		{1, 1},
		{2, 2},
		{3, 4},
		{4, 4},
		{5, 8},
		{63, 64},
		{64, 64},
		{65, 128},
		{1000, 1024},
		{65536, 65536},
		{65537, 131072},
	}

	for _, tt := range tests {
		if got := NextPowerOfTwo(tt.n); got != tt.want {
			t.Errorf("NextPowerOfTwo(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}
}

func TestLog2(t *testing.T) {
	tests := []struct {
		n    int
		want int
	}{
		{-1, 0},
		{0, 0},
		{1, 0},
		{2, 1},
		{3, 1},
		{4, 2},
		{64, 6},
		{65, 6},
		{65536, 16},
	}

	for _, tt := range tests {
		if got := Log2(tt.n); got != tt.want {
			t.Errorf("Log2(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}
}

func TestBucketIndex(t *testing.T) {
	tests := []struct {
		size int
		want int
	}{
		{0, 0},
		{1, 0},
		{64, 0},
		{65, 1},
		{128, 1},
		{129, 2},
		{256, 2},
		{1000, 4},
		{1024, 4},
		{65536, 10},
		// Requests above the top bucket are capped, not grown.
		{65537, 10},
		{1 << 20, 10},
	}

	for _, tt := range tests {
		if got := bucketIndex(tt.size); got != tt.want {
			t.Errorf("bucketIndex(%d) = %d, want %d", tt.size, got, tt.want)
		}
	}
}

func TestBucketSize(t *testing.T) {
	if got := bucketSize(0); got != MinBufferSize {
		t.Errorf("bucketSize(0) = %d, want %d", got, MinBufferSize)
	}
	if got := bucketSize(BucketCount - 1); got != MaxBufferSize {
		t.Errorf("bucketSize(%d) = %d, want %d", BucketCount-1, got, MaxBufferSize)
	}

	// Every bucket's capacity is the size its own index maps back to.
	for i := 0; i < BucketCount; i++ {
		if got := bucketIndex(bucketSize(i)); got != i {
			t.Errorf("bucketIndex(bucketSize(%d)) = %d, want %d", i, got, i)
		}
	}
}
