package games

import "encoding/binary"

// unknownCard is the sentinel byte for a card slot that has not been
// revealed yet. Valid table cards are 0..51.
const unknownCard uint8 = 0xFF

// blobWriter builds a state blob. Amounts are 64-bit big-endian, matching
// the documented wire layouts.
type blobWriter struct {
	b []byte
}

func newBlobWriter(version uint8) *blobWriter {
	return &blobWriter{b: []byte{version}}
}

func (w *blobWriter) u8(v uint8) *blobWriter {
	w.b = append(w.b, v)
	return w
}

func (w *blobWriter) u64(v uint64) *blobWriter {
	w.b = binary.BigEndian.AppendUint64(w.b, v)
	return w
}

func (w *blobWriter) bytes(v []byte) *blobWriter {
	w.b = append(w.b, v...)
	return w
}

func (w *blobWriter) done() []byte {
	return w.b
}

// blobReader consumes a state blob. Every read past the end flips a sticky
// error; callers check err() once after all fields, so a truncated blob is
// rejected instead of yielding zero values.
type blobReader struct {
	b   []byte
	off int
	bad bool
}

func newBlobReader(b []byte) *blobReader {
	return &blobReader{b: b}
}

func (r *blobReader) u8() uint8 {
	if r.off+1 > len(r.b) {
		r.bad = true
		return 0
	}
	v := r.b[r.off]
	r.off++
	return v
}

func (r *blobReader) u64() uint64 {
	if r.off+8 > len(r.b) {
		r.bad = true
		return 0
	}
	v := binary.BigEndian.Uint64(r.b[r.off:])
	r.off += 8
	return v
}

func (r *blobReader) take(n int) []byte {
	if n < 0 || r.off+n > len(r.b) {
		r.bad = true
		return nil
	}
	v := r.b[r.off : r.off+n]
	r.off += n
	return v
}

// err returns ErrMalformedState when the blob was truncated or carries
// trailing garbage.
func (r *blobReader) err() error {
	if r.bad {
		return ErrMalformedState.Wrap("truncated state blob")
	}
	if r.off != len(r.b) {
		return ErrMalformedState.Wrapf("trailing %d bytes in state blob", len(r.b)-r.off)
	}
	return nil
}
