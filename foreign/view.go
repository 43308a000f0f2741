package foreign

// MemoryView lends native memory to a foreign call without copying it.
//
// A view is only valid for the duration of the call it is passed to; the
// caller releases it afterwards, and any later access fails.
type MemoryView struct {
	buf      []byte
	writable bool
	released bool
}

// NewReadView returns a read-only view over b.
func NewReadView(b []byte) *MemoryView {
	return &MemoryView{buf: b}
}

// NewWriteView returns a writable view over b.
func NewWriteView(b []byte) *MemoryView {
	return &MemoryView{buf: b, writable: true}
}

// Len returns the size of the viewed region, or 0 once released.
func (v *MemoryView) Len() int {
	if v.released {
		return 0
	}
	return len(v.buf)
}

// Writable reports whether Mutable may be used.
func (v *MemoryView) Writable() bool {
	return v.writable
}

// Bytes returns the viewed memory for reading. The slice aliases native
// memory and must not be retained past the call.
func (v *MemoryView) Bytes() ([]byte, error) {
	if v.released {
		return nil, ErrReleasedView
	}
	return v.buf, nil
}

// Mutable returns the viewed memory for writing.
func (v *MemoryView) Mutable() ([]byte, error) {
	if v.released {
		return nil, ErrReleasedView
	}
	if !v.writable {
		return nil, ErrReadOnlyView
	}
	return v.buf, nil
}

// Release detaches the view from native memory.
func (v *MemoryView) Release() {
	v.released = true
	v.buf = nil
}
