package foreign

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Handle is a shared reference to one foreign object.
//
// Exactly one Handle is created per logical file. Clone shares the same
// object (and therefore the same cursor); it never duplicates the resource.
// The object is released when the last clone is released.
type Handle struct {
	shared   *sharedObject
	released atomic.Bool
}

type sharedObject struct {
	rt   *Runtime
	obj  Object
	refs atomic.Int64

	onRelease   func() error
	releaseOnce sync.Once
	releaseErr  error
}

// HandleOption configures a Handle.
type HandleOption func(*sharedObject)

// OnRelease registers fn to run when the last reference is released.
func OnRelease(fn func() error) HandleOption {
	return func(s *sharedObject) {
		s.onRelease = fn
	}
}

// NewHandle creates the single owning handle for obj.
// If rt is nil, the default runtime is used.
func NewHandle(rt *Runtime, obj Object, opts ...HandleOption) *Handle {
	if rt == nil {
		rt = Default()
	}
	s := &sharedObject{
		rt:  rt,
		obj: obj,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.refs.Store(1)
	return &Handle{shared: s}
}

// Clone returns a new reference to the same object.
func (h *Handle) Clone() *Handle {
	h.shared.refs.Add(1)
	return &Handle{shared: h.shared}
}

// Release drops this reference. Releasing the same Handle twice is a no-op.
// The release hook, if any, runs once when the reference count reaches zero.
func (h *Handle) Release() error {
	if !h.released.CompareAndSwap(false, true) {
		return nil
	}
	s := h.shared
	if s.refs.Add(-1) > 0 {
		return nil
	}
	s.releaseOnce.Do(func() {
		if s.onRelease != nil {
			s.releaseErr = s.onRelease()
		}
	})
	return s.releaseErr
}

// Refs returns the number of live references to the object.
func (h *Handle) Refs() int64 {
	return h.shared.refs.Load()
}

// Runtime returns the runtime the object belongs to.
func (h *Handle) Runtime() *Runtime {
	return h.shared.rt
}

// Object returns the underlying foreign object.
func (h *Handle) Object() Object {
	return h.shared.obj
}

// Bind resolves the named method once. The returned Binding can be called
// for as long as the handle is alive.
func (h *Handle) Bind(name string) (*Binding, error) {
	fn, err := h.shared.rt.getAttr(h.shared.obj, name)
	if err != nil {
		return nil, err
	}
	if fn == nil {
		return nil, fmt.Errorf("%w: %q", ErrNoAttribute, name)
	}
	return &Binding{name: name, fn: fn, rt: h.shared.rt}, nil
}

// Binding is a resolved, cached reference to one method of a foreign object.
type Binding struct {
	name string
	fn   Callable
	rt   *Runtime
}

// Name returns the method name the binding was resolved from.
func (b *Binding) Name() string {
	return b.name
}

// Call invokes the method, holding the runtime lock only for this call.
func (b *Binding) Call(args ...Value) (Value, error) {
	return b.rt.Call(b.fn, args...)
}
