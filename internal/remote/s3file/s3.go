// Package s3file reads AWS S3 objects with ranged GETs.
package s3file

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/discochess/lazio/internal/remote"
)

// Compile-time check that Object implements remote.RangeReader.
var _ remote.RangeReader = (*Object)(nil)

// API is the subset of the S3 client used by Object.
type API interface {
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Object is one S3 object.
type Object struct {
	client API
	bucket string
	key    string
}

// New opens bucket/key using the default AWS configuration.
func New(ctx context.Context, bucket, key string, opts ...Option) (*Object, error) {
	o := &Object{bucket: bucket, key: key}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	if o.client == nil {
		cfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading AWS config: %w", err)
		}
		o.client = s3.NewFromConfig(cfg)
	}
	return o, nil
}

// Option configures an Object.
type Option func(*Object) error

// WithClient uses client instead of one built from the default config.
func WithClient(client API) Option {
	return func(o *Object) error {
		o.client = client
		return nil
	}
}

// WithRegion sets the AWS region.
func WithRegion(region string) Option {
	return func(o *Object) error {
		cfg, err := config.LoadDefaultConfig(context.Background(), config.WithRegion(region))
		if err != nil {
			return fmt.Errorf("loading AWS config with region: %w", err)
		}
		o.client = s3.NewFromConfig(cfg)
		return nil
	}
}

// WithEndpoint sets a custom endpoint (for S3-compatible services like MinIO).
func WithEndpoint(endpoint string) Option {
	return func(o *Object) error {
		cfg, err := config.LoadDefaultConfig(context.Background())
		if err != nil {
			return fmt.Errorf("loading AWS config for endpoint: %w", err)
		}
		o.client = s3.NewFromConfig(cfg, func(so *s3.Options) {
			so.BaseEndpoint = aws.String(endpoint)
			so.UsePathStyle = true
		})
		return nil
	}
}

// Size returns the object's content length.
func (o *Object) Size(ctx context.Context) (int64, error) {
	out, err := o.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(o.bucket),
		Key:    aws.String(o.key),
	})
	if err != nil {
		return 0, o.mapErr("heading object", err)
	}
	return aws.ToInt64(out.ContentLength), nil
}

// ReadRange fetches length bytes at off.
func (o *Object) ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error) {
	out, err := o.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(o.bucket),
		Key:    aws.String(o.key),
		Range:  aws.String(rangeHeader(off, length)),
	})
	if err != nil {
		return nil, o.mapErr("reading object", err)
	}
	return out.Body, nil
}

// Close releases resources.
func (o *Object) Close() error {
	// S3 client doesn't need explicit closing.
	return nil
}

func (o *Object) mapErr(op string, err error) error {
	var nsk *types.NoSuchKey
	var nf *types.NotFound
	if errors.As(err, &nsk) || errors.As(err, &nf) {
		return fmt.Errorf("%w: s3://%s/%s", remote.ErrNotFound, o.bucket, o.key)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// rangeHeader formats an inclusive HTTP byte range.
func rangeHeader(off, length int64) string {
	return fmt.Sprintf("bytes=%d-%d", off, off+length-1)
}
