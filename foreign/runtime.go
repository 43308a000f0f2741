// Package foreign models a caller-supplied, duck-typed file object that lives
// outside of native code.
//
// A foreign object only exposes named methods ("read", "readinto", "write",
// "seek", "flush"). Every call into an object goes through a Runtime, which
// holds an exclusivity lock for the duration of that single call and nothing
// longer.
package foreign

import (
	"errors"
	"fmt"
	"sync"
)

// Sentinel errors for the foreign object model.
var (
	// ErrNoAttribute indicates the object has no attribute with the given name.
	ErrNoAttribute = errors.New("foreign: no such attribute")

	// ErrUnknownConstant indicates the runtime has no constant with the given name.
	ErrUnknownConstant = errors.New("foreign: unknown constant")

	// ErrReadOnlyView indicates an attempt to mutate a read-only MemoryView.
	ErrReadOnlyView = errors.New("foreign: memory view is read-only")

	// ErrReleasedView indicates the view was used after the call it was lent to returned.
	ErrReleasedView = errors.New("foreign: memory view released")
)

// Names of the seek origin constants every runtime defines.
const (
	SeekSet = "SEEK_SET"
	SeekCur = "SEEK_CUR"
	SeekEnd = "SEEK_END"
)

// Value is any value passed into or returned from a foreign call.
type Value = any

// Callable is a foreign method.
type Callable func(args ...Value) (Value, error)

// Runtime owns the exclusivity lock and the named constants of one foreign
// runtime. The zero value is not usable; use NewRuntime.
type Runtime struct {
	lock sync.Mutex

	constMu   sync.RWMutex
	constants map[string]Value
}

var defaultRuntime = NewRuntime()

// Default returns the process-wide runtime.
func Default() *Runtime {
	return defaultRuntime
}

// NewRuntime creates a runtime whose seek constants follow the usual
// 0 (start), 1 (current), 2 (end) convention.
func NewRuntime() *Runtime {
	return &Runtime{
		constants: map[string]Value{
			SeekSet: 0,
			SeekCur: 1,
			SeekEnd: 2,
		},
	}
}

// SetConstant defines or replaces a named constant.
func (r *Runtime) SetConstant(name string, v Value) {
	r.constMu.Lock()
	defer r.constMu.Unlock()
	r.constants[name] = v
}

// Constant looks up a named constant.
func (r *Runtime) Constant(name string) (Value, error) {
	r.constMu.RLock()
	defer r.constMu.RUnlock()

	v, ok := r.constants[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownConstant, name)
	}
	return v, nil
}

// Call invokes fn while holding the runtime lock. The lock is released as
// soon as fn returns.
func (r *Runtime) Call(fn Callable, args ...Value) (Value, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	return fn(args...)
}

// getAttr resolves an attribute under the runtime lock.
func (r *Runtime) getAttr(obj Object, name string) (Callable, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	return obj.GetAttr(name)
}
