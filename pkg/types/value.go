package types

import "fmt"

// ValueKind distinguishes literal field values from symbolic references.
type ValueKind int

// Value kinds. The kind is fixed when a fixture file is parsed and never
// inferred later from the payload.
const (
	KindScalar ValueKind = iota
	KindRef
)

// String returns the kind name used in diagnostics.
func (k ValueKind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindRef:
		return "ref"
	default:
		return fmt.Sprintf("ValueKind(%d)", int(k))
	}
}

// Value is a fixture field value: either a Scalar (string, number, bool,
// time or nil) or a SymbolicRef naming another fixture record.
type Value struct {
	kind   ValueKind
	scalar any
	ref    string
}

// Scalar wraps a literal value.
func Scalar(v any) Value {
	return Value{kind: KindScalar, scalar: v}
}

// SymbolicRef returns a reference to the record called name in some other
// table. The target table is derived by the resolver.
func SymbolicRef(name string) Value {
	return Value{kind: KindRef, ref: name}
}

// Kind reports whether the value is a scalar or a reference.
func (v Value) Kind() ValueKind { return v.kind }

// IsRef returns true if the value is a symbolic reference.
func (v Value) IsRef() bool { return v.kind == KindRef }

// RefName returns the referenced record name, or "" for scalars.
func (v Value) RefName() string { return v.ref }

// Raw returns the scalar payload. It returns nil for references.
func (v Value) Raw() any {
	if v.kind != KindScalar {
		return nil
	}
	return v.scalar
}

// IsNull returns true for a scalar holding nil.
func (v Value) IsNull() bool {
	return v.kind == KindScalar && v.scalar == nil
}

// String renders the value the way fixture files write it.
func (v Value) String() string {
	if v.kind == KindRef {
		return ":" + v.ref
	}
	if v.scalar == nil {
		return "null"
	}
	return fmt.Sprint(v.scalar)
}
