package codec_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/discochess/lazio/internal/codec"
	"github.com/discochess/lazio/internal/codec/gzipcodec"
	"github.com/discochess/lazio/internal/codec/noopcodec"
)

func TestRegistry(t *testing.T) {
	r := codec.NewRegistry(noopcodec.New(), gzipcodec.New())

	c, err := r.ByID(codec.IDGzip)
	if err != nil || c.Name() != "gzip" {
		t.Errorf("ByID(gzip) = (%v, %v)", c, err)
	}
	c, err = r.ByName("none")
	if err != nil || c.ID() != codec.IDNone {
		t.Errorf("ByName(none) = (%v, %v)", c, err)
	}

	if _, err := r.ByID(codec.IDZstd); !errors.Is(err, codec.ErrUnknownCodec) {
		t.Errorf("ByID(zstd) error = %v, want ErrUnknownCodec", err)
	}
	if _, err := r.ByName("lz4"); !errors.Is(err, codec.ErrUnknownCodec) {
		t.Errorf("ByName(lz4) error = %v, want ErrUnknownCodec", err)
	}
}

func TestNoopCodec(t *testing.T) {
	c := noopcodec.New()
	src := []byte{1, 2, 3}
	out, err := c.Compress([]byte{0}, src)
	if err != nil || !bytes.Equal(out, []byte{0, 1, 2, 3}) {
		t.Errorf("Compress() = (%v, %v)", out, err)
	}
	back, err := c.Decompress(nil, src)
	if err != nil || !bytes.Equal(back, src) {
		t.Errorf("Decompress() = (%v, %v)", back, err)
	}
	if c.Extension() != "" {
		t.Errorf("Extension() = %q, want empty", c.Extension())
	}
}
