// Package chunked implements a chunked point stream: fixed-size point
// records grouped into independently compressed chunks, followed by a chunk
// table that allows random access by point index.
//
// Layout, all integers little-endian:
//
//	header   HeaderSize bytes
//	chunk 0  ByteCount[0] bytes
//	...
//	chunk n  ByteCount[n] bytes
//	table    uint32 entry count, then n entries of (uint64 points, uint64 bytes)
package chunked

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/discochess/lazio/internal/codec"
)

const (
	// Magic opens every stream.
	Magic = "LZCK"

	// Version is the current format version.
	Version = 1

	// HeaderSize is the encoded size of Header.
	HeaderSize = 32

	tableEntrySize = 16
)

var (
	ErrBadMagic           = errors.New("chunked: bad magic")
	ErrUnsupportedVersion = errors.New("chunked: unsupported version")
	ErrCorruptTable       = errors.New("chunked: corrupt chunk table")
	ErrPointSize          = errors.New("chunked: data is not a whole number of points")
	ErrClosed             = errors.New("chunked: closed")
	ErrPointRange         = errors.New("chunked: point index out of range")
)

// Header is the fixed-size record at the start of a stream.
type Header struct {
	Version     uint8
	Codec       codec.ID
	PointSize   uint32
	ChunkSize   uint32 // points per chunk
	TableOffset uint64 // relative to the start of the header
	TotalPoints uint64
}

// MarshalBinary encodes the header.
func (h Header) MarshalBinary() ([]byte, error) {
	buf := make([]byte, HeaderSize)
	copy(buf, Magic)
	buf[4] = h.Version
	buf[5] = byte(h.Codec)
	binary.LittleEndian.PutUint32(buf[8:], h.PointSize)
	binary.LittleEndian.PutUint32(buf[12:], h.ChunkSize)
	binary.LittleEndian.PutUint64(buf[16:], h.TableOffset)
	binary.LittleEndian.PutUint64(buf[24:], h.TotalPoints)
	return buf, nil
}

// UnmarshalBinary decodes and validates a header.
func (h *Header) UnmarshalBinary(buf []byte) error {
	if len(buf) < HeaderSize {
		return fmt.Errorf("%w: header is %d bytes", ErrBadMagic, len(buf))
	}
	if string(buf[:4]) != Magic {
		return fmt.Errorf("%w: %q", ErrBadMagic, buf[:4])
	}
	h.Version = buf[4]
	if h.Version != Version {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, h.Version)
	}
	h.Codec = codec.ID(buf[5])
	h.PointSize = binary.LittleEndian.Uint32(buf[8:])
	h.ChunkSize = binary.LittleEndian.Uint32(buf[12:])
	h.TableOffset = binary.LittleEndian.Uint64(buf[16:])
	h.TotalPoints = binary.LittleEndian.Uint64(buf[24:])
	if h.PointSize == 0 || h.ChunkSize == 0 {
		return fmt.Errorf("%w: point size %d, chunk size %d", ErrCorruptTable, h.PointSize, h.ChunkSize)
	}
	return nil
}

// ChunkTableEntry describes one compressed chunk.
type ChunkTableEntry struct {
	PointCount uint64
	ByteCount  uint64
}

// ChunkTable lists the chunks of a stream in order.
type ChunkTable []ChunkTableEntry

// Points returns the total number of points in the table.
func (t ChunkTable) Points() uint64 {
	var n uint64
	for _, e := range t {
		n += e.PointCount
	}
	return n
}

// Bytes returns the total compressed size of all chunks.
func (t ChunkTable) Bytes() uint64 {
	var n uint64
	for _, e := range t {
		n += e.ByteCount
	}
	return n
}

// WriteTo writes the encoded table to w.
func (t ChunkTable) WriteTo(w io.Writer) (int64, error) {
	buf := make([]byte, 4+len(t)*tableEntrySize)
	binary.LittleEndian.PutUint32(buf, uint32(len(t)))
	for i, e := range t {
		off := 4 + i*tableEntrySize
		binary.LittleEndian.PutUint64(buf[off:], e.PointCount)
		binary.LittleEndian.PutUint64(buf[off+8:], e.ByteCount)
	}
	n, err := w.Write(buf)
	return int64(n), err
}

// ReadChunkTable reads an encoded table from r.
func ReadChunkTable(r io.Reader) (ChunkTable, error) {
	var countBuf [4]byte
	if _, err := io.ReadFull(r, countBuf[:]); err != nil {
		return nil, fmt.Errorf("%w: reading entry count: %v", ErrCorruptTable, err)
	}
	count := binary.LittleEndian.Uint32(countBuf[:])
	if count > maxTableEntries {
		return nil, fmt.Errorf("%w: %d entries", ErrCorruptTable, count)
	}

	buf := make([]byte, int(count)*tableEntrySize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("%w: reading %d entries: %v", ErrCorruptTable, count, err)
	}
	t := make(ChunkTable, count)
	for i := range t {
		off := i * tableEntrySize
		t[i].PointCount = binary.LittleEndian.Uint64(buf[off:])
		t[i].ByteCount = binary.LittleEndian.Uint64(buf[off+8:])
	}
	return t, nil
}

// readHeaderAndTable reads the header at base and the table it points to,
// and checks that the two agree.
func readHeaderAndTable(r io.ReadSeeker, base int64) (Header, ChunkTable, error) {
	var h Header
	if _, err := r.Seek(base, io.SeekStart); err != nil {
		return h, nil, fmt.Errorf("seeking to header: %w", err)
	}
	buf := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return h, nil, fmt.Errorf("reading header: %w", err)
	}
	if err := h.UnmarshalBinary(buf); err != nil {
		return h, nil, err
	}
	if uint64(h.ChunkSize)*uint64(h.PointSize) > maxChunkBytes {
		return h, nil, fmt.Errorf("%w: %d points of %d bytes per chunk", ErrCorruptTable, h.ChunkSize, h.PointSize)
	}
	if h.TotalPoints > math.MaxInt64/uint64(h.PointSize) {
		return h, nil, fmt.Errorf("%w: %d points of %d bytes", ErrCorruptTable, h.TotalPoints, h.PointSize)
	}
	if h.TableOffset < HeaderSize || h.TableOffset > math.MaxInt64-uint64(base) {
		return h, nil, fmt.Errorf("%w: table offset %d", ErrCorruptTable, h.TableOffset)
	}

	if _, err := r.Seek(base+int64(h.TableOffset), io.SeekStart); err != nil {
		return h, nil, fmt.Errorf("seeking to chunk table: %w", err)
	}
	table, err := ReadChunkTable(r)
	if err != nil {
		return h, nil, err
	}
	end := uint64(HeaderSize)
	for i, e := range table {
		if e.PointCount == 0 || e.PointCount > uint64(h.ChunkSize) {
			return h, nil, fmt.Errorf("%w: chunk %d holds %d points, chunk size %d", ErrCorruptTable, i, e.PointCount, h.ChunkSize)
		}
		if e.ByteCount > h.TableOffset-end {
			return h, nil, fmt.Errorf("%w: chunk %d runs past the table", ErrCorruptTable, i)
		}
		end += e.ByteCount
	}
	if got := table.Points(); got != h.TotalPoints {
		return h, nil, fmt.Errorf("%w: table holds %d points, header says %d", ErrCorruptTable, got, h.TotalPoints)
	}
	if end != h.TableOffset {
		return h, nil, fmt.Errorf("%w: chunks end at %d, table at %d", ErrCorruptTable, end, h.TableOffset)
	}
	return h, table, nil
}
