package foreign

import (
	"errors"
	"fmt"
	"io"
)

type flusher interface {
	Flush() error
}

type syncer interface {
	Sync() error
}

// WrapOption configures Wrap.
type WrapOption func(*wrapConfig)

type wrapConfig struct {
	rt     *Runtime
	hidden map[string]bool
}

// WithHidden hides the named methods, as if the wrapped value did not
// define them.
func WithHidden(names ...string) WrapOption {
	return func(c *wrapConfig) {
		for _, name := range names {
			c.hidden[name] = true
		}
	}
}

// WithSeekConstants interprets seek origins using rt's constants instead of
// the default runtime's.
func WithSeekConstants(rt *Runtime) WrapOption {
	return func(c *wrapConfig) {
		c.rt = rt
	}
}

// Wrap exposes a Go file-like value as a foreign object. Methods are
// derived from the interfaces v implements:
//
//	io.Reader          read, readinto
//	io.Writer          write, and a no-op flush unless v has Flush or Sync
//	io.Seeker          seek
//	Flush() / Sync()   flush
//	io.Closer          close
func Wrap(v any, opts ...WrapOption) Methods {
	cfg := wrapConfig{
		rt:     Default(),
		hidden: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	m := make(Methods)
	if r, ok := v.(io.Reader); ok {
		m["read"] = readMethod(r)
		m["readinto"] = readIntoMethod(r)
	}
	if w, ok := v.(io.Writer); ok {
		m["write"] = writeMethod(w)
		m["flush"] = func(args ...Value) (Value, error) { return nil, nil }
	}
	if s, ok := v.(io.Seeker); ok {
		m["seek"] = seekMethod(s, cfg.rt)
	}
	if f, ok := v.(flusher); ok {
		m["flush"] = func(args ...Value) (Value, error) { return nil, f.Flush() }
	} else if s, ok := v.(syncer); ok {
		m["flush"] = func(args ...Value) (Value, error) { return nil, s.Sync() }
	}
	if c, ok := v.(io.Closer); ok {
		m["close"] = func(args ...Value) (Value, error) { return nil, c.Close() }
	}

	for name := range cfg.hidden {
		delete(m, name)
	}
	return m
}

func readMethod(r io.Reader) Callable {
	return func(args ...Value) (Value, error) {
		size := int64(-1)
		if len(args) > 0 && args[0] != nil {
			n, ok := ToInt64(args[0])
			if !ok {
				return nil, fmt.Errorf("read: size must be an integer, got %T", args[0])
			}
			size = n
		}
		if size < 0 {
			return io.ReadAll(r)
		}
		buf := make([]byte, size)
		n, err := io.ReadFull(r, buf)
		if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, err
		}
		return buf[:n], nil
	}
}

func readIntoMethod(r io.Reader) Callable {
	return func(args ...Value) (Value, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("readinto: expected 1 argument, got %d", len(args))
		}
		view, ok := args[0].(*MemoryView)
		if !ok {
			return nil, fmt.Errorf("readinto: expected a memory view, got %T", args[0])
		}
		buf, err := view.Mutable()
		if err != nil {
			return nil, err
		}
		n, err := io.ReadFull(r, buf)
		if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, err
		}
		return n, nil
	}
}

func writeMethod(w io.Writer) Callable {
	return func(args ...Value) (Value, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("write: expected 1 argument, got %d", len(args))
		}
		var data []byte
		switch b := args[0].(type) {
		case *MemoryView:
			var err error
			data, err = b.Bytes()
			if err != nil {
				return nil, err
			}
		case []byte:
			data = b
		case string:
			data = []byte(b)
		default:
			return nil, fmt.Errorf("write: expected bytes, got %T", args[0])
		}
		return w.Write(data)
	}
}

func seekMethod(s io.Seeker, rt *Runtime) Callable {
	return func(args ...Value) (Value, error) {
		if len(args) == 0 || len(args) > 2 {
			return nil, fmt.Errorf("seek: expected 1 or 2 arguments, got %d", len(args))
		}
		offset, ok := ToInt64(args[0])
		if !ok {
			return nil, fmt.Errorf("seek: offset must be an integer, got %T", args[0])
		}
		whence := io.SeekStart
		if len(args) == 2 {
			var err error
			whence, err = goWhence(rt, args[1])
			if err != nil {
				return nil, err
			}
		}
		return s.Seek(offset, whence)
	}
}

// goWhence maps a foreign seek origin onto io.Seek* values.
func goWhence(rt *Runtime, v Value) (int, error) {
	got, ok := ToInt64(v)
	if !ok {
		return 0, fmt.Errorf("seek: whence must be an integer, got %T", v)
	}
	for name, whence := range map[string]int{
		SeekSet: io.SeekStart,
		SeekCur: io.SeekCurrent,
		SeekEnd: io.SeekEnd,
	} {
		c, err := rt.Constant(name)
		if err != nil {
			return 0, err
		}
		if n, ok := ToInt64(c); ok && n == got {
			return whence, nil
		}
	}
	return 0, fmt.Errorf("seek: invalid whence %d", got)
}
