// Package gcsfile reads Google Cloud Storage objects with ranged reads.
package gcsfile

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"

	"github.com/discochess/lazio/internal/remote"
)

// Compile-time check that Object implements remote.RangeReader.
var _ remote.RangeReader = (*Object)(nil)

// ObjectAPI is the subset of *storage.ObjectHandle used by Object.
type ObjectAPI interface {
	Attrs(ctx context.Context) (*storage.ObjectAttrs, error)
	NewRangeReader(ctx context.Context, offset, length int64) (*storage.Reader, error)
}

// Object is one GCS object.
type Object struct {
	client *storage.Client
	obj    ObjectAPI
	name   string

	// rangeReader is swapped out in tests; *storage.Reader cannot be
	// constructed outside the storage package.
	rangeReader func(ctx context.Context, off, length int64) (io.ReadCloser, error)
}

// New opens bucket/name with a default storage client.
func New(ctx context.Context, bucket, name string) (*Object, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating GCS client: %w", err)
	}
	o := NewFromHandle(client.Bucket(bucket).Object(name))
	o.client = client
	return o, nil
}

// NewFromHandle wraps an existing object handle. The caller keeps
// ownership of the client.
func NewFromHandle(obj ObjectAPI) *Object {
	o := &Object{obj: obj}
	if h, ok := obj.(*storage.ObjectHandle); ok {
		o.name = "gs://" + h.BucketName() + "/" + h.ObjectName()
	}
	o.rangeReader = func(ctx context.Context, off, length int64) (io.ReadCloser, error) {
		return o.obj.NewRangeReader(ctx, off, length)
	}
	return o
}

// Size returns the object size.
func (o *Object) Size(ctx context.Context) (int64, error) {
	attrs, err := o.obj.Attrs(ctx)
	if err != nil {
		return 0, o.mapErr("reading attributes", err)
	}
	return attrs.Size, nil
}

// ReadRange reads length bytes at off.
func (o *Object) ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error) {
	r, err := o.rangeReader(ctx, off, length)
	if err != nil {
		return nil, o.mapErr("creating reader", err)
	}
	return r, nil
}

// Close releases the client if New created it.
func (o *Object) Close() error {
	if o.client == nil {
		return nil
	}
	return o.client.Close()
}

func (o *Object) mapErr(op string, err error) error {
	if errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("%w: %s", remote.ErrNotFound, o.name)
	}
	return fmt.Errorf("%s: %w", op, err)
}
