// Package indexmeta defines the concrete shape of the opaque metadata
// blob NumericIndex treats as a flush-and-forward payload.
package indexmeta

import "encoding/binary"

// Handle is the fixed-size record NumericIndex publishes into its
// delegate B-tree: a pointer to a byte range inside a numbered file. It
// is owned by the caller for the lifetime of the process; the index
// layer never allocates or frees one, only flushes and forwards it.
type Handle struct {
	FileNumber uint32
	Offset     int64
	Size       uint32
}

// ByteSize is the flush extent NumericIndex uses for a Handle: the number
// of bytes occupied by its fields, matching the source's
// `sizeof(IndexMeta)`.
const ByteSize = 4 + 8 + 4

// Encode serializes h into its flushable byte representation.
func (h Handle) Encode() []byte {
	b := make([]byte, ByteSize)
	binary.LittleEndian.PutUint32(b[0:4], h.FileNumber)
	binary.LittleEndian.PutUint64(b[4:12], uint64(h.Offset))
	binary.LittleEndian.PutUint32(b[12:16], h.Size)
	return b
}
