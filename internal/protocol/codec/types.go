// Package codec turns typed field values into wire bytes and back.
//
// Field types form a closed set of kinds. Each operation (write, read,
// length) is one recursive function that switches on the kind, and length is
// computed by running the write routine against a cursor.Counter, so the two
// cannot disagree.
package codec

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidType reports a malformed type descriptor.
var ErrInvalidType = errors.New("codec: invalid type descriptor")

// Kind is the closed set of field type variants.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindBool
	KindInt8
	KindUint8
	KindInt16
	KindUint16
	KindInt32
	KindUint32
	KindInt64
	KindUint64
	KindFloat32
	KindFloat64
	KindText
	KindTimestamp
	KindDuration
	KindSequence
	KindArray
	KindComposite
)

var kindNames = [...]string{
	KindInvalid:   "invalid",
	KindBool:      "bool",
	KindInt8:      "int8",
	KindUint8:     "uint8",
	KindInt16:     "int16",
	KindUint16:    "uint16",
	KindInt32:     "int32",
	KindUint32:    "uint32",
	KindInt64:     "int64",
	KindUint64:    "uint64",
	KindFloat32:   "float32",
	KindFloat64:   "float64",
	KindText:      "text",
	KindTimestamp: "timestamp",
	KindDuration:  "duration",
	KindSequence:  "sequence",
	KindArray:     "array",
	KindComposite: "composite",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Width is the encoded size of a scalar kind, 0 for everything else.
func (k Kind) Width() int {
	switch k {
	case KindBool, KindInt8, KindUint8:
		return 1
	case KindInt16, KindUint16:
		return 2
	case KindInt32, KindUint32, KindFloat32:
		return 4
	case KindInt64, KindUint64, KindFloat64:
		return 8
	default:
		return 0
	}
}

// Scalar reports whether k is a boolean or fixed-width number.
func (k Kind) Scalar() bool { return k.Width() > 0 }

// Field is one named member of a composite.
type Field struct {
	Name string
	Type *Type
}

// Named builds a composite field.
func Named(name string, t *Type) Field {
	return Field{Name: name, Type: t}
}

// Type describes the shape of a field. Elem is set for sequences and arrays,
// Len for arrays, Fields for composites.
type Type struct {
	Kind   Kind
	Elem   *Type
	Len    int
	Fields []Field
}

var (
	BoolType      = &Type{Kind: KindBool}
	Int8Type      = &Type{Kind: KindInt8}
	Uint8Type     = &Type{Kind: KindUint8}
	Int16Type     = &Type{Kind: KindInt16}
	Uint16Type    = &Type{Kind: KindUint16}
	Int32Type     = &Type{Kind: KindInt32}
	Uint32Type    = &Type{Kind: KindUint32}
	Int64Type     = &Type{Kind: KindInt64}
	Uint64Type    = &Type{Kind: KindUint64}
	Float32Type   = &Type{Kind: KindFloat32}
	Float64Type   = &Type{Kind: KindFloat64}
	TextType      = &Type{Kind: KindText}
	TimestampType = &Type{Kind: KindTimestamp}
	DurationType  = &Type{Kind: KindDuration}
)

// SequenceOf is a variable-length list with a 32-bit count prefix.
func SequenceOf(elem *Type) *Type {
	return &Type{Kind: KindSequence, Elem: elem}
}

// ArrayOf is a list of exactly n elements with no prefix.
func ArrayOf(elem *Type, n int) *Type {
	return &Type{Kind: KindArray, Elem: elem, Len: n}
}

// CompositeOf encodes fields in declared order with no prefix.
func CompositeOf(fields ...Field) *Type {
	return &Type{Kind: KindComposite, Fields: fields}
}

// Validate checks the descriptor tree.
func (t *Type) Validate() error {
	if t == nil {
		return fmt.Errorf("%w: nil type", ErrInvalidType)
	}
	switch t.Kind {
	case KindSequence:
		if err := t.Elem.Validate(); err != nil {
			return fmt.Errorf("sequence element: %w", err)
		}
	case KindArray:
		if t.Len < 0 {
			return fmt.Errorf("%w: negative array arity %d", ErrInvalidType, t.Len)
		}
		if err := t.Elem.Validate(); err != nil {
			return fmt.Errorf("array element: %w", err)
		}
	case KindComposite:
		for _, f := range t.Fields {
			if err := f.Type.Validate(); err != nil {
				return fmt.Errorf("field %s: %w", f.Name, err)
			}
		}
	case KindInvalid:
		return fmt.Errorf("%w: kind %s", ErrInvalidType, t.Kind)
	default:
		if t.Kind > KindComposite {
			return fmt.Errorf("%w: kind %s", ErrInvalidType, t.Kind)
		}
	}
	return nil
}

// FixedSize returns the encoded length shared by every value of t, or false
// when t is variable-size.
func FixedSize(t *Type) (int, bool) {
	if t == nil {
		return 0, false
	}
	switch t.Kind {
	case KindTimestamp, KindDuration:
		return 8, true
	case KindText, KindSequence:
		return 0, false
	case KindArray:
		if t.Len == 0 {
			return 0, true
		}
		n, ok := FixedSize(t.Elem)
		return n * t.Len, ok
	case KindComposite:
		total := 0
		for _, f := range t.Fields {
			n, ok := FixedSize(f.Type)
			if !ok {
				return 0, false
			}
			total += n
		}
		return total, true
	default:
		w := t.Kind.Width()
		return w, w > 0
	}
}

// BulkEligible reports whether a list of t may be copied as a flat block of
// fixed-width numbers. Booleans are excluded since any non-zero byte reads
// as true.
func BulkEligible(t *Type) bool {
	return t != nil && t.Kind.Scalar() && t.Kind != KindBool
}

// minSize is the smallest encoding any value of t can have.
func minSize(t *Type) int {
	if t == nil {
		return 0
	}
	switch t.Kind {
	case KindText, KindSequence:
		return 4
	case KindTimestamp, KindDuration:
		return 8
	case KindArray:
		return minSize(t.Elem) * t.Len
	case KindComposite:
		total := 0
		for _, f := range t.Fields {
			total += minSize(f.Type)
		}
		return total
	default:
		return t.Kind.Width()
	}
}

func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind {
	case KindSequence:
		return "sequence<" + t.Elem.String() + ">"
	case KindArray:
		return fmt.Sprintf("array<%s,%d>", t.Elem, t.Len)
	case KindComposite:
		parts := make([]string, 0, len(t.Fields))
		for _, f := range t.Fields {
			parts = append(parts, f.Name+":"+f.Type.String())
		}
		return "composite{" + strings.Join(parts, ",") + "}"
	default:
		return t.Kind.String()
	}
}
