package foreign

import (
	"bytes"
	"errors"
	"io"
	"math"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
)

func TestMethods_GetAttr(t *testing.T) {
	m := Methods{
		"read": func(args ...Value) (Value, error) { return []byte("x"), nil },
	}

	if _, err := m.GetAttr("read"); err != nil {
		t.Errorf("GetAttr(read) error = %v", err)
	}
	if _, err := m.GetAttr("write"); !errors.Is(err, ErrNoAttribute) {
		t.Errorf("GetAttr(write) error = %v, want ErrNoAttribute", err)
	}
}

func TestHandle_CloneAndRelease(t *testing.T) {
	released := 0
	h := NewHandle(nil, Methods{}, OnRelease(func() error {
		released++
		return nil
	}))

	c1 := h.Clone()
	c2 := c1.Clone()
	if got := h.Refs(); got != 3 {
		t.Fatalf("Refs() = %d, want 3", got)
	}
	if c1.Object() == nil || c2.Runtime() != Default() {
		t.Error("clones should share object and runtime")
	}

	if err := c1.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	// Releasing the same clone twice must not drop another reference.
	if err := c1.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	if got := h.Refs(); got != 2 {
		t.Errorf("Refs() = %d, want 2", got)
	}

	h.Release()
	if released != 0 {
		t.Errorf("release hook ran with live references")
	}
	c2.Release()
	if released != 1 {
		t.Errorf("release hook ran %d times, want 1", released)
	}
}

func TestHandle_ReleaseHookError(t *testing.T) {
	want := errors.New("close failed")
	h := NewHandle(nil, Methods{}, OnRelease(func() error { return want }))
	if err := h.Release(); !errors.Is(err, want) {
		t.Errorf("Release() error = %v, want %v", err, want)
	}
}

func TestHandle_Bind(t *testing.T) {
	calls := 0
	h := NewHandle(NewRuntime(), Methods{
		"flush": func(args ...Value) (Value, error) {
			calls++
			return len(args), nil
		},
	})

	b, err := h.Bind("flush")
	if err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
	if calls != 0 {
		t.Fatalf("Bind() invoked the method")
	}
	if b.Name() != "flush" {
		t.Errorf("Name() = %q, want flush", b.Name())
	}

	v, err := b.Call(1, 2)
	if err != nil || v != 2 {
		t.Errorf("Call() = (%v, %v), want (2, nil)", v, err)
	}

	if _, err := h.Bind("seek"); !errors.Is(err, ErrNoAttribute) {
		t.Errorf("Bind(seek) error = %v, want ErrNoAttribute", err)
	}
}

func TestRuntime_Constants(t *testing.T) {
	rt := NewRuntime()
	v, err := rt.Constant(SeekEnd)
	if err != nil || v != 2 {
		t.Errorf("Constant(SEEK_END) = (%v, %v), want (2, nil)", v, err)
	}

	rt.SetConstant(SeekEnd, 7)
	if v, _ := rt.Constant(SeekEnd); v != 7 {
		t.Errorf("Constant(SEEK_END) = %v, want 7", v)
	}

	if _, err := rt.Constant("SEEK_DATA"); !errors.Is(err, ErrUnknownConstant) {
		t.Errorf("Constant(SEEK_DATA) error = %v, want ErrUnknownConstant", err)
	}
}

func TestMemoryView(t *testing.T) {
	buf := []byte{1, 2, 3}

	ro := NewReadView(buf)
	if _, err := ro.Mutable(); !errors.Is(err, ErrReadOnlyView) {
		t.Errorf("Mutable() on read view error = %v, want ErrReadOnlyView", err)
	}
	b, err := ro.Bytes()
	if err != nil || &b[0] != &buf[0] {
		t.Errorf("Bytes() should alias the native buffer")
	}

	rw := NewWriteView(buf)
	m, err := rw.Mutable()
	if err != nil {
		t.Fatalf("Mutable() error = %v", err)
	}
	m[0] = 9
	if buf[0] != 9 {
		t.Errorf("write through view not visible in native buffer")
	}

	rw.Release()
	if rw.Len() != 0 {
		t.Errorf("Len() after Release = %d, want 0", rw.Len())
	}
	if _, err := rw.Mutable(); !errors.Is(err, ErrReleasedView) {
		t.Errorf("Mutable() after Release error = %v, want ErrReleasedView", err)
	}
}

func TestToInt64(t *testing.T) {
	tests := []struct {
		name string
		in   Value
		want int64
		ok   bool
	}{
		{"int", 5, 5, true},
		{"int32", int32(-3), -3, true},
		{"int64", int64(1 << 40), 1 << 40, true},
		{"uint8", uint8(255), 255, true},
		{"uint64", uint64(10), 10, true},
		{"uint64 overflow", uint64(math.MaxUint64), 0, false},
		{"float", 1.5, 0, false},
		{"bytes", []byte("1"), 0, false},
		{"nil", nil, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ToInt64(tt.in)
			if got != tt.want || ok != tt.ok {
				t.Errorf("ToInt64(%v) = (%d, %v), want (%d, %v)", tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestWrap_Capabilities(t *testing.T) {
	fs := memfs.New()
	f, err := fs.Create("points.bin")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	defer f.Close()

	m := Wrap(f)
	for _, name := range []string{"read", "readinto", "write", "seek", "flush", "close"} {
		if _, err := m.GetAttr(name); err != nil {
			t.Errorf("GetAttr(%q) error = %v", name, err)
		}
	}

	hidden := Wrap(f, WithHidden("readinto", "flush"))
	if _, err := hidden.GetAttr("readinto"); !errors.Is(err, ErrNoAttribute) {
		t.Errorf("hidden readinto still present")
	}
	if _, err := hidden.GetAttr("flush"); !errors.Is(err, ErrNoAttribute) {
		t.Errorf("hidden flush still present")
	}

	ro := Wrap(bytes.NewReader(nil))
	if _, err := ro.GetAttr("write"); !errors.Is(err, ErrNoAttribute) {
		t.Errorf("read-only value exposes write")
	}
	if _, err := ro.GetAttr("flush"); !errors.Is(err, ErrNoAttribute) {
		t.Errorf("read-only value exposes flush")
	}
}

func TestWrap_ReadWriteSeek(t *testing.T) {
	fs := memfs.New()
	f, err := fs.Create("data")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	m := Wrap(f)

	n, err := m["write"](NewReadView([]byte("hello world")))
	if err != nil || n != 11 {
		t.Fatalf("write = (%v, %v), want (11, nil)", n, err)
	}

	pos, err := m["seek"](int64(-5), 2)
	if err != nil || pos != int64(6) {
		t.Fatalf("seek(-5, END) = (%v, %v), want (6, nil)", pos, err)
	}

	got, err := m["read"](3)
	if err != nil || string(got.([]byte)) != "wor" {
		t.Errorf("read(3) = (%q, %v), want (wor, nil)", got, err)
	}

	buf := make([]byte, 10)
	view := NewWriteView(buf)
	n, err = m["readinto"](view)
	if err != nil || n != 2 || string(buf[:2]) != "ld" {
		t.Errorf("readinto = (%v, %v) %q, want (2, nil) ld", n, err, buf[:2])
	}

	// At EOF read returns an empty byte string, not an error.
	got, err = m["read"](4)
	if err != nil || len(got.([]byte)) != 0 {
		t.Errorf("read at EOF = (%q, %v), want empty", got, err)
	}

	m["seek"](0, 0)
	all, err := m["read"](-1)
	if err != nil || string(all.([]byte)) != "hello world" {
		t.Errorf("read(-1) = (%q, %v), want whole content", all, err)
	}
}

func TestWrap_ReadIntoRejectsReadOnlyView(t *testing.T) {
	m := Wrap(bytes.NewReader([]byte("abc")))
	_, err := m["readinto"](NewReadView(make([]byte, 3)))
	if !errors.Is(err, ErrReadOnlyView) {
		t.Errorf("readinto(read-only view) error = %v, want ErrReadOnlyView", err)
	}
}

func TestWrap_SeekConstants(t *testing.T) {
	rt := NewRuntime()
	rt.SetConstant(SeekSet, 10)
	rt.SetConstant(SeekCur, 11)
	rt.SetConstant(SeekEnd, 12)

	m := Wrap(bytes.NewReader(make([]byte, 100)), WithSeekConstants(rt))
	pos, err := m["seek"](-1, 12)
	if err != nil || pos != int64(99) {
		t.Errorf("seek(-1, END) = (%v, %v), want (99, nil)", pos, err)
	}
	if _, err := m["seek"](0, 2); err == nil {
		t.Error("seek with unmapped whence should fail")
	}
}

func TestWrap_Flush(t *testing.T) {
	var fw flushWriter
	m := Wrap(&fw)
	if _, err := m["flush"](); err != nil {
		t.Fatalf("flush error = %v", err)
	}
	if fw.flushes != 1 {
		t.Errorf("flushes = %d, want 1", fw.flushes)
	}

	// A plain writer gets a no-op flush.
	plain := Wrap(io.Discard)
	if _, err := plain["flush"](); err != nil {
		t.Errorf("no-op flush error = %v", err)
	}
}

type flushWriter struct {
	bytes.Buffer
	flushes int
}

func (w *flushWriter) Flush() error {
	w.flushes++
	return nil
}
