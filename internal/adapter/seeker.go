package adapter

import (
	"io"

	"github.com/discochess/lazio/foreign"
	"github.com/discochess/lazio/internal/stats"
)

var (
	_ io.Seeker = (*Seeker)(nil)
)

// Seeker translates io.Seeker requests into calls to the foreign "seek"
// method. The foreign origin constants are resolved once, at construction.
type Seeker struct {
	base
	seek    *foreign.Binding
	origins [3]foreign.Value
}

// NewSeeker builds a seek adapter. The object must define "seek". It takes
// ownership of h and releases it on failure.
func NewSeeker(h *foreign.Handle, cfg Config) (*Seeker, error) {
	caps, err := Probe(h, ModeSeek)
	if err != nil {
		h.Release()
		return nil, err
	}
	s, err := newSeeker(newBase(h, cfg, "seeker"), caps.Seek)
	if err != nil {
		h.Release()
		return nil, err
	}
	return s, nil
}

func newSeeker(b base, seek *foreign.Binding) (*Seeker, error) {
	s := &Seeker{base: b, seek: seek}
	rt := b.h.Runtime()
	for whence, name := range [3]string{foreign.SeekSet, foreign.SeekCur, foreign.SeekEnd} {
		v, err := rt.Constant(name)
		if err != nil {
			return nil, missingCapability(MethodSeek, err)
		}
		s.origins[whence] = v
	}
	return s, nil
}

// Seek moves the foreign cursor and returns the resulting absolute position.
func (s *Seeker) Seek(offset int64, whence int) (int64, error) {
	if whence < io.SeekStart || whence > io.SeekEnd {
		return 0, invalidWhence(whence)
	}

	v, err := s.call(s.seek, offset, s.origins[whence])
	if err != nil {
		return 0, err
	}
	s.stats.IncCounter(stats.MetricSeeks, 1)

	pos, ok := foreign.ToInt64(v)
	if !ok {
		return 0, unexpectedReturn(MethodSeek, "expected an integer position, got %T", v)
	}
	if pos < 0 {
		return 0, unexpectedReturn(MethodSeek, "negative position %d", pos)
	}
	return pos, nil
}

// seekable is embedded by the read and write adapters, whose objects may
// or may not define "seek".
type seekable struct {
	seeker *Seeker
}

// CanSeek reports whether the foreign object defines "seek".
func (s *seekable) CanSeek() bool {
	return s.seeker != nil
}

// Seek implements io.Seeker. It fails with ErrMissingCapability when the
// object cannot seek.
func (s *seekable) Seek(offset int64, whence int) (int64, error) {
	if s.seeker == nil {
		return 0, missingCapability(MethodSeek, nil)
	}
	return s.seeker.Seek(offset, whence)
}

func optionalSeeker(b base, seek *foreign.Binding) (seekable, error) {
	if seek == nil {
		return seekable{}, nil
	}
	s, err := newSeeker(b, seek)
	if err != nil {
		return seekable{}, err
	}
	return seekable{seeker: s}, nil
}
