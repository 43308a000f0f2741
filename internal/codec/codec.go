// Package codec provides block compression for chunk payloads.
package codec

import (
	"errors"
	"fmt"
	"io"
)

// ID identifies a codec in a stream header.
type ID uint8

// Known codec IDs. The values are persisted and must not change.
const (
	IDNone ID = 0
	IDGzip ID = 1
	IDZstd ID = 2
)

// ErrUnknownCodec is returned when a codec ID or name is not registered.
var ErrUnknownCodec = errors.New("codec: unknown codec")

// Codec provides compression and decompression functionality.
type Codec interface {
	// ID returns the identifier written into stream headers.
	ID() ID
	// Name returns the codec's flag name (e.g., "zstd", "gzip", "none").
	Name() string
	// Compress appends the compressed form of src to dst.
	Compress(dst, src []byte) ([]byte, error)
	// Decompress appends the decompressed form of src to dst.
	Decompress(dst, src []byte) ([]byte, error)
	// Reader wraps r to decompress data read from it.
	Reader(r io.Reader) (io.ReadCloser, error)
	// Writer wraps w to compress data written to it.
	Writer(w io.Writer) (io.WriteCloser, error)
	// Extension returns the file extension without dot (e.g., "zst", "gz").
	// Returns empty string for no compression.
	Extension() string
}

// Registry resolves codecs by ID and by name.
type Registry struct {
	byID   map[ID]Codec
	byName map[string]Codec
}

// NewRegistry returns a registry holding codecs.
func NewRegistry(codecs ...Codec) *Registry {
	r := &Registry{
		byID:   make(map[ID]Codec),
		byName: make(map[string]Codec),
	}
	for _, c := range codecs {
		r.byID[c.ID()] = c
		r.byName[c.Name()] = c
	}
	return r
}

// ByID returns the codec registered under id.
func (r *Registry) ByID(id ID) (Codec, error) {
	c, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: id %d", ErrUnknownCodec, id)
	}
	return c, nil
}

// ByName returns the codec registered under name.
func (r *Registry) ByName(name string) (Codec, error) {
	c, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
	}
	return c, nil
}
