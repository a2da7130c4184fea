package types

// IDField is the column holding a record's primary key.
const IDField = "id"

// Fields is an ordered mapping of column name to Value. Iteration follows
// declaration order, which keeps resolution and insert SQL deterministic.
// The zero value is ready to use.
type Fields struct {
	keys   []string
	values map[string]Value
}

// NewFields returns an empty field mapping.
func NewFields() *Fields {
	return &Fields{values: make(map[string]Value)}
}

// Len returns the number of fields.
func (f *Fields) Len() int { return len(f.keys) }

// Keys returns the field names in order. The slice is a copy.
func (f *Fields) Keys() []string {
	out := make([]string, len(f.keys))
	copy(out, f.keys)
	return out
}

// Get returns the value stored under key.
func (f *Fields) Get(key string) (Value, bool) {
	v, ok := f.values[key]
	return v, ok
}

// Set stores v under key. A new key is appended; an existing key keeps its
// position.
func (f *Fields) Set(key string, v Value) {
	if f.values == nil {
		f.values = make(map[string]Value)
	}
	if _, ok := f.values[key]; !ok {
		f.keys = append(f.keys, key)
	}
	f.values[key] = v
}

// Delete removes key. It returns false if the key was absent.
func (f *Fields) Delete(key string) bool {
	if _, ok := f.values[key]; !ok {
		return false
	}
	delete(f.values, key)
	f.keys = removeKey(f.keys, key)
	return true
}

// Replace removes oldKey and stores v under newKey. When newKey is not yet
// present it takes the position oldKey had; otherwise its value is
// overwritten in place. Replace returns false if oldKey was absent.
func (f *Fields) Replace(oldKey, newKey string, v Value) bool {
	if _, ok := f.values[oldKey]; !ok {
		return false
	}
	if oldKey == newKey {
		f.values[oldKey] = v
		return true
	}
	if _, exists := f.values[newKey]; exists {
		f.values[newKey] = v
		f.Delete(oldKey)
		return true
	}
	for i, k := range f.keys {
		if k == oldKey {
			f.keys[i] = newKey
			break
		}
	}
	delete(f.values, oldKey)
	f.values[newKey] = v
	return true
}

// Each calls fn for every field in order until fn returns false.
func (f *Fields) Each(fn func(key string, v Value) bool) {
	for _, k := range f.keys {
		if !fn(k, f.values[k]) {
			return
		}
	}
}

func removeKey(keys []string, key string) []string {
	for i, k := range keys {
		if k == key {
			return append(keys[:i], keys[i+1:]...)
		}
	}
	return keys
}

// Record is a named fixture row destined for Table.
type Record struct {
	Table  string  // Owning table name.
	Name   string  // Unique within Table; the target of symbolic references.
	Fields *Fields // Column values in declaration order.
}

// NewRecord creates a record with an empty field mapping.
func NewRecord(table, name string) *Record {
	return &Record{Table: table, Name: name, Fields: NewFields()}
}

// Set stores a field value and returns the record for chaining.
func (r *Record) Set(key string, v Value) *Record {
	r.Fields.Set(key, v)
	return r
}

// ID returns the record's scalar primary key. It returns false when the id
// field is missing, null, or a symbolic reference.
func (r *Record) ID() (any, bool) {
	v, ok := r.Fields.Get(IDField)
	if !ok || v.IsRef() || v.IsNull() {
		return nil, false
	}
	return v.Raw(), true
}

// HasRefs returns true if any field is still a symbolic reference.
func (r *Record) HasRefs() bool {
	found := false
	r.Fields.Each(func(_ string, v Value) bool {
		found = v.IsRef()
		return !found
	})
	return found
}
