package frame

import "github.com/danmuck/edgewire/internal/protocol/codec"

// Message is anything that can be framed: a tag plus a typed value.
type Message interface {
	Tag() Tag
	WireType() *codec.Type
	WireValue() codec.Value
}

// Unmarshaler is a Message that can be populated from a decoded value.
// SetWireValue must leave the receiver untouched when it returns an error.
type Unmarshaler interface {
	Message
	SetWireValue(codec.Value) error
}

// Record is a schema-less message for callers that work with codec values
// directly.
type Record struct {
	ID     Tag
	Schema *codec.Type
	Value  codec.Value
}

func (r *Record) Tag() Tag               { return r.ID }
func (r *Record) WireType() *codec.Type  { return r.Schema }
func (r *Record) WireValue() codec.Value { return r.Value }

func (r *Record) SetWireValue(v codec.Value) error {
	r.Value = v
	return nil
}
