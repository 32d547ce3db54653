// Package bitmap provides the fixed-size bit array primitive that the
// allocator and fsck's bitmap builder are built on. It adds no policy of its
// own beyond test/set/test-and-set; callers provide all ordering, since this
// layer carries no concurrency guarantees.
package bitmap

import (
	bitmaplib "github.com/boljen/go-bitmap"
)

// Bitmap is a densely packed bit array over N bits, one bit per allocation
// unit.
type Bitmap struct {
	raw bitmaplib.Bitmap
	n   int
}

// New creates a zeroed Bitmap with room for n bits.
func New(n int) *Bitmap {
	return &Bitmap{raw: bitmaplib.New(n), n: n}
}

// Len returns the number of bits in the bitmap.
func (b *Bitmap) Len() int {
	return b.n
}

// Test reports whether bit i is set.
func (b *Bitmap) Test(i int) bool {
	return b.raw.Get(i)
}

// Set sets bit i.
func (b *Bitmap) Set(i int) {
	b.raw.Set(i, true)
}

// Clear clears bit i.
func (b *Bitmap) Clear(i int) {
	b.raw.Set(i, false)
}

// TestAndSet sets bit i and reports whether it was already set beforehand.
// There is no atomicity guarantee here: the caller is the sole writer by
// contract (see package famfs/alloc), matching the single-threaded scanning
// loop that builds this bitmap from the log.
func (b *Bitmap) TestAndSet(i int) (wasSet bool) {
	wasSet = b.raw.Get(i)
	b.raw.Set(i, true)
	return wasSet
}

// Data returns the underlying packed byte representation, one bit per
// allocation unit, least significant bit first within each byte — the same layout
// go-bitmap.Bitmap.Data exposes.
func (b *Bitmap) Data() []byte {
	return b.raw.Data(false)
}
