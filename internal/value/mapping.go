package value

import "sort"

// Mapping is an insertion-ordered map with unique string keys. Order is kept
// for display only; Equal ignores it.
type Mapping struct {
	keys []string
	vals map[string]Value
}

// NewMapping returns an empty mapping with room for n keys.
func NewMapping(n int) *Mapping {
	return &Mapping{
		keys: make([]string, 0, n),
		vals: make(map[string]Value, n),
	}
}

// Kind implements Value.
func (m *Mapping) Kind() Kind { return KindMapping }

func (*Mapping) sealed() {}

// Len returns the number of keys.
func (m *Mapping) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns the keys in insertion order. The slice must not be modified.
func (m *Mapping) Keys() []string {
	if m == nil {
		return nil
	}
	return m.keys
}

// Get returns the value stored under key.
func (m *Mapping) Get(key string) (Value, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.vals[key]
	return v, ok
}

// Has reports whether key is present.
func (m *Mapping) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Set stores v under key. An existing key keeps its position and takes the
// new value.
func (m *Mapping) Set(key string, v Value) {
	if _, ok := m.vals[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.vals[key] = v
}

// Delete removes key if present.
func (m *Mapping) Delete(key string) {
	if _, ok := m.vals[key]; !ok {
		return
	}
	delete(m.vals, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// SortKeys reorders keys lexicographically in place.
func (m *Mapping) SortKeys() {
	sort.Strings(m.keys)
}

// MappingOf builds a mapping from alternating key/value arguments. It is a
// convenience for tests and fixtures; it panics on a non-string key.
func MappingOf(kv ...any) *Mapping {
	m := NewMapping(len(kv) / 2)
	for i := 0; i+1 < len(kv); i += 2 {
		m.Set(kv[i].(string), From(kv[i+1]))
	}
	return m
}

// From converts plain Go values into a Value. nil and unsupported types map
// to Null. Go maps carry no order, so their keys are inserted sorted.
func From(x any) Value {
	switch v := x.(type) {
	case nil:
		return Null{}
	case Value:
		return v
	case bool:
		return Bool(v)
	case int:
		return Number(float64(v))
	case int64:
		return Number(float64(v))
	case int32:
		return Number(float64(v))
	case uint64:
		return Number(float64(v))
	case float32:
		return Number(float64(v))
	case float64:
		return Number(v)
	case string:
		return String(v)
	case []any:
		seq := make(Sequence, len(v))
		for i, e := range v {
			seq[i] = From(e)
		}
		return seq
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		m := NewMapping(len(keys))
		for _, k := range keys {
			m.Set(k, From(v[k]))
		}
		return m
	}
	return Null{}
}
