package pool

import "sync"

// Slice pools for efficient reuse of typed decode scratch. The rANS inverse
// lookup tables reach a mebibyte per stream and are rebuilt for every
// entropy-coded section.
var uint32SlicePool = sync.Pool{
	New: func() any { return &[]uint32{} },
}

// GetUint32Slice retrieves and resizes a uint32 slice from the pool.
//
// The returned slice will have the exact length specified by the size
// parameter; contents are unspecified. If the pooled slice has insufficient
// capacity, a new slice is allocated. The caller must call the returned
// cleanup function to return the slice to the pool.
//
// Example:
//
//	lut, cleanup := pool.GetUint32Slice(1 << precisionBits)
//	defer cleanup()
func GetUint32Slice(size int) ([]uint32, func()) {
	ptr, _ := uint32SlicePool.Get().(*[]uint32)
	slice := (*ptr)[:0]

	if cap(slice) < size {
		slice = make([]uint32, size)
		*ptr = slice
	} else {
		slice = slice[:size]
		*ptr = slice
	}

	return slice, func() { uint32SlicePool.Put(ptr) }
}
