package s3file

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/discochess/lazio/internal/remote"
)

// fakeS3 serves objects from memory and honours Range headers.
type fakeS3 struct {
	objects map[string][]byte
	ranges  []string
}

func (f *fakeS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{ContentLength: aws.Int64(int64(len(data)))}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	r := aws.ToString(in.Range)
	f.ranges = append(f.ranges, r)
	var start, end int64
	if _, err := fmt.Sscanf(r, "bytes=%d-%d", &start, &end); err != nil {
		return nil, err
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data[start : end+1]))}, nil
}

func TestRangeHeader(t *testing.T) {
	tests := []struct {
		off, length int64
		want        string
	}{
		{0, 1, "bytes=0-0"},
		{0, 100, "bytes=0-99"},
		{4096, 512, "bytes=4096-4607"},
	}
	for _, tt := range tests {
		if got := rangeHeader(tt.off, tt.length); got != tt.want {
			t.Errorf("rangeHeader(%d, %d) = %q, want %q", tt.off, tt.length, got, tt.want)
		}
	}
}

func TestObject_ThroughFile(t *testing.T) {
	fake := &fakeS3{objects: map[string][]byte{"points/a.lzck": []byte("hello remote world")}}
	obj, err := New(context.Background(), "bucket", "points/a.lzck", WithClient(fake))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	f, err := remote.NewFile(context.Background(), obj)
	if err != nil {
		t.Fatalf("NewFile() error = %v", err)
	}
	f.Seek(6, io.SeekStart)
	buf := make([]byte, 6)
	if _, err := io.ReadFull(f, buf); err != nil || string(buf) != "remote" {
		t.Errorf("Read() = (%q, %v), want remote", buf, err)
	}
	if len(fake.ranges) != 1 || fake.ranges[0] != "bytes=6-11" {
		t.Errorf("ranges = %v, want [bytes=6-11]", fake.ranges)
	}
}

func TestObject_NotFound(t *testing.T) {
	obj, err := New(context.Background(), "bucket", "missing", WithClient(&fakeS3{}))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := obj.Size(context.Background()); !errors.Is(err, remote.ErrNotFound) {
		t.Errorf("Size() error = %v, want ErrNotFound", err)
	}
	if _, err := obj.ReadRange(context.Background(), 0, 1); !errors.Is(err, remote.ErrNotFound) {
		t.Errorf("ReadRange() error = %v, want ErrNotFound", err)
	}
}
