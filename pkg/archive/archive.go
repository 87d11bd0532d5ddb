// Package archive supplies the binary reader/writer pair the object
// serialization hooks target. Values are little-endian; strings and byte
// slices carry a length prefix. The archive does no per-object framing —
// that responsibility belongs to whoever nests objects into a file
// format. Errors are sticky: after the first failure every further
// operation is a no-op and Err reports the original cause.
package archive

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/google/uuid"
)

// ErrStringTooLong guards the length prefix of serialized strings.
var ErrStringTooLong = errors.New("archive: string exceeds length prefix")

const maxPrefixedLen = 1 << 28 // 256 MiB, sanity bound for prefixed data

// Writer serializes primitives to an io.Writer.
type Writer struct {
	w   io.Writer
	err error
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer { return &Writer{w: w} }

// Err returns the first error encountered, or nil.
func (w *Writer) Err() error { return w.err }

// Ok reports whether every operation so far succeeded.
func (w *Writer) Ok() bool { return w.err == nil }

func (w *Writer) write(v any) {
	if w.err != nil {
		return
	}
	w.err = binary.Write(w.w, binary.LittleEndian, v)
}

// WriteBool writes a bool as a single byte.
func (w *Writer) WriteBool(v bool) {
	var b uint8
	if v {
		b = 1
	}
	w.write(b)
}

// WriteUint32 writes a little-endian uint32.
func (w *Writer) WriteUint32(v uint32) { w.write(v) }

// WriteInt32 writes a little-endian int32.
func (w *Writer) WriteInt32(v int32) { w.write(v) }

// WriteUint64 writes a little-endian uint64.
func (w *Writer) WriteUint64(v uint64) { w.write(v) }

// WriteFloat64 writes an IEEE-754 double.
func (w *Writer) WriteFloat64(v float64) { w.write(math.Float64bits(v)) }

// WriteBytes writes a uint32 length prefix followed by the raw bytes.
func (w *Writer) WriteBytes(b []byte) {
	if w.err != nil {
		return
	}
	if len(b) > maxPrefixedLen {
		w.err = ErrStringTooLong
		return
	}
	w.WriteUint32(uint32(len(b)))
	if w.err != nil || len(b) == 0 {
		return
	}
	_, w.err = w.w.Write(b)
}

// WriteString writes a length-prefixed UTF-8 string.
func (w *Writer) WriteString(s string) { w.WriteBytes([]byte(s)) }

// WriteUUID writes the 16 raw bytes of id.
func (w *Writer) WriteUUID(id uuid.UUID) {
	if w.err != nil {
		return
	}
	_, w.err = w.w.Write(id[:])
}

// Reader deserializes primitives written by Writer.
type Reader struct {
	r   io.Reader
	err error
}

// NewReader wraps r.
func NewReader(r io.Reader) *Reader { return &Reader{r: r} }

// Err returns the first error encountered, or nil. A caller must abandon
// the read once Err is non-nil; the stream position is unspecified.
func (r *Reader) Err() error { return r.err }

// Ok reports whether every operation so far succeeded.
func (r *Reader) Ok() bool { return r.err == nil }

func (r *Reader) read(v any) {
	if r.err != nil {
		return
	}
	r.err = binary.Read(r.r, binary.LittleEndian, v)
}

// ReadBool reads a single-byte bool.
func (r *Reader) ReadBool() bool {
	var b uint8
	r.read(&b)
	return r.err == nil && b != 0
}

// ReadUint32 reads a little-endian uint32.
func (r *Reader) ReadUint32() uint32 {
	var v uint32
	r.read(&v)
	return v
}

// ReadInt32 reads a little-endian int32.
func (r *Reader) ReadInt32() int32 {
	var v int32
	r.read(&v)
	return v
}

// ReadUint64 reads a little-endian uint64.
func (r *Reader) ReadUint64() uint64 {
	var v uint64
	r.read(&v)
	return v
}

// ReadFloat64 reads an IEEE-754 double.
func (r *Reader) ReadFloat64() float64 {
	var bits uint64
	r.read(&bits)
	return math.Float64frombits(bits)
}

// ReadBytes reads a length-prefixed byte slice.
func (r *Reader) ReadBytes() []byte {
	n := r.ReadUint32()
	if r.err != nil {
		return nil
	}
	if n > maxPrefixedLen {
		r.err = fmt.Errorf("%w: %d bytes", ErrStringTooLong, n)
		return nil
	}
	if n == 0 {
		return nil
	}
	b := make([]byte, n)
	_, r.err = io.ReadFull(r.r, b)
	if r.err != nil {
		return nil
	}
	return b
}

// ReadString reads a length-prefixed UTF-8 string.
func (r *Reader) ReadString() string { return string(r.ReadBytes()) }

// ReadUUID reads 16 raw bytes into a uuid.
func (r *Reader) ReadUUID() uuid.UUID {
	var id uuid.UUID
	if r.err != nil {
		return id
	}
	_, r.err = io.ReadFull(r.r, id[:])
	if r.err != nil {
		return uuid.Nil
	}
	return id
}
