// Package remote provides read-only, seekable files over cloud objects.
// A File can be handed to foreign.Wrap like any local file.
package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
)

var (
	// ErrNotFound is returned when the object does not exist.
	ErrNotFound = errors.New("remote: object not found")

	// ErrUnsupportedScheme is returned by ParseURL for schemes other than
	// s3 and gs.
	ErrUnsupportedScheme = errors.New("remote: unsupported scheme")
)

// RangeReader fetches byte ranges of one object.
type RangeReader interface {
	// Size returns the object size in bytes.
	Size(ctx context.Context) (int64, error)
	// ReadRange returns a reader over length bytes starting at off.
	ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error)
	// Close releases resources.
	Close() error
}

// Location identifies an object by scheme, bucket and key.
type Location struct {
	Scheme string // "s3" or "gs"
	Bucket string
	Key    string
}

// ParseURL parses s3://bucket/key and gs://bucket/key.
func ParseURL(raw string) (Location, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Location{}, fmt.Errorf("parsing %q: %w", raw, err)
	}
	if u.Scheme != "s3" && u.Scheme != "gs" {
		return Location{}, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
	key := strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return Location{}, fmt.Errorf("remote: %q needs a bucket and a key", raw)
	}
	return Location{Scheme: u.Scheme, Bucket: u.Host, Key: key}, nil
}

// IsURL reports whether name looks like a remote object URL.
func IsURL(name string) bool {
	return strings.HasPrefix(name, "s3://") || strings.HasPrefix(name, "gs://")
}

var (
	_ io.ReadSeekCloser = (*File)(nil)
	_ io.ReaderAt       = (*File)(nil)
)

// File is a read-only io.ReadSeeker over a remote object. Every Read
// issues one ranged request for exactly the bytes asked for; buffering is
// left to the caller.
type File struct {
	ctx  context.Context
	rr   RangeReader
	size int64
	pos  int64
}

// NewFile opens rr. ctx bounds every request the file makes.
func NewFile(ctx context.Context, rr RangeReader) (*File, error) {
	size, err := rr.Size(ctx)
	if err != nil {
		return nil, err
	}
	return &File{ctx: ctx, rr: rr, size: size}, nil
}

// Size returns the object size.
func (f *File) Size() int64 {
	return f.size
}

// ReadAt reads len(p) bytes at off.
func (f *File) ReadAt(p []byte, off int64) (int, error) {
	// Check for cancellation before starting.
	select {
	case <-f.ctx.Done():
		return 0, f.ctx.Err()
	default:
	}

	if off >= f.size {
		return 0, io.EOF
	}
	length := min(int64(len(p)), f.size-off)
	if length == 0 {
		return 0, nil
	}

	body, err := f.rr.ReadRange(f.ctx, off, length)
	if err != nil {
		return 0, err
	}
	defer body.Close()

	n, err := io.ReadFull(body, p[:length])
	if err != nil {
		return n, fmt.Errorf("reading range %d+%d: %w", off, length, err)
	}
	if int64(n) < int64(len(p)) {
		return n, io.EOF
	}
	return n, nil
}

// Read reads from the current position.
func (f *File) Read(p []byte) (int, error) {
	n, err := f.ReadAt(p, f.pos)
	f.pos += int64(n)
	if err == io.EOF && n > 0 {
		err = nil
	}
	return n, err
}

// Seek sets the position for the next Read.
func (f *File) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = f.pos + offset
	case io.SeekEnd:
		abs = f.size + offset
	default:
		return 0, fmt.Errorf("remote: invalid whence %d", whence)
	}
	if abs < 0 {
		return 0, fmt.Errorf("remote: negative position %d", abs)
	}
	f.pos = abs
	return abs, nil
}

// Close releases the underlying client.
func (f *File) Close() error {
	return f.rr.Close()
}
