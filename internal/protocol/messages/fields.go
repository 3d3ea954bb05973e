package messages

import (
	"fmt"

	"github.com/danmuck/edgewire/internal/protocol/codec"
)

// unpacker walks a decoded composite and keeps the first error so message
// setters can read every field and check once.
type unpacker struct {
	name string
	fs   []codec.Value
	i    int
	err  error
}

func unpack(name string, v codec.Value, n int) *unpacker {
	fs, err := codec.Fields(v, n)
	if err != nil {
		err = fmt.Errorf("%s: %w", name, err)
	}
	return &unpacker{name: name, fs: fs, err: err}
}

func next[T any](u *unpacker) T {
	var zero T
	if u.err != nil {
		return zero
	}
	if u.i >= len(u.fs) {
		u.err = fmt.Errorf("%s: field %d out of range", u.name, u.i)
		return zero
	}
	out, err := codec.As[T](u.fs[u.i])
	if err != nil {
		u.err = fmt.Errorf("%s field %d: %w", u.name, u.i, err)
		return zero
	}
	u.i++
	return out
}

// nested hands the next field to a decoder for an embedded composite.
func nested[T any](u *unpacker, from func(codec.Value) (T, error)) T {
	var zero T
	if u.err != nil {
		return zero
	}
	if u.i >= len(u.fs) {
		u.err = fmt.Errorf("%s: field %d out of range", u.name, u.i)
		return zero
	}
	out, err := from(u.fs[u.i])
	if err != nil {
		u.err = fmt.Errorf("%s field %d: %w", u.name, u.i, err)
		return zero
	}
	u.i++
	return out
}
