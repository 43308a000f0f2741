package foreign

import (
	"fmt"
	"math"
	"sort"
)

// Object is a foreign value whose methods are looked up by name.
//
// GetAttr must not invoke the method it resolves. It returns an error
// wrapping ErrNoAttribute when the name is not defined.
type Object interface {
	GetAttr(name string) (Callable, error)
}

// Methods is an Object backed by a plain method table.
type Methods map[string]Callable

// Compile-time check that Methods implements Object.
var _ Object = Methods(nil)

// GetAttr returns the method registered under name.
func (m Methods) GetAttr(name string) (Callable, error) {
	fn, ok := m[name]
	if !ok || fn == nil {
		return nil, fmt.Errorf("%w: %q", ErrNoAttribute, name)
	}
	return fn, nil
}

// Names returns the sorted method names.
func (m Methods) Names() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ToInt64 converts a foreign integer to int64. It reports false for
// non-integer values and for unsigned values that overflow int64.
func ToInt64(v Value) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return uintToInt64(uint64(n))
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return uintToInt64(n)
	default:
		return 0, false
	}
}

func uintToInt64(n uint64) (int64, bool) {
	if n > math.MaxInt64 {
		return 0, false
	}
	return int64(n), true
}
