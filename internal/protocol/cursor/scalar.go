package cursor

import "math"

func PutUint8(s Sink, v uint8) error {
	b, err := s.Reserve(1)
	if err == nil && b != nil {
		b[0] = v
	}
	return err
}

func PutUint16(s Sink, v uint16) error {
	b, err := s.Reserve(2)
	if err == nil && b != nil {
		Order.PutUint16(b, v)
	}
	return err
}

func PutUint32(s Sink, v uint32) error {
	b, err := s.Reserve(4)
	if err == nil && b != nil {
		Order.PutUint32(b, v)
	}
	return err
}

func PutUint64(s Sink, v uint64) error {
	b, err := s.Reserve(8)
	if err == nil && b != nil {
		Order.PutUint64(b, v)
	}
	return err
}

func PutFloat32(s Sink, v float32) error { return PutUint32(s, math.Float32bits(v)) }

func PutFloat64(s Sink, v float64) error { return PutUint64(s, math.Float64bits(v)) }

// PutBytes copies p into the sink.
func PutBytes(s Sink, p []byte) error {
	b, err := s.Reserve(len(p))
	if err == nil && b != nil {
		copy(b, p)
	}
	return err
}

func (r *Reader) Uint8() (uint8, error) {
	b, err := r.Next(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) Uint16() (uint16, error) {
	b, err := r.Next(2)
	if err != nil {
		return 0, err
	}
	return Order.Uint16(b), nil
}

func (r *Reader) Uint32() (uint32, error) {
	b, err := r.Next(4)
	if err != nil {
		return 0, err
	}
	return Order.Uint32(b), nil
}

func (r *Reader) Uint64() (uint64, error) {
	b, err := r.Next(8)
	if err != nil {
		return 0, err
	}
	return Order.Uint64(b), nil
}

func (r *Reader) Float32() (float32, error) {
	v, err := r.Uint32()
	return math.Float32frombits(v), err
}

func (r *Reader) Float64() (float64, error) {
	v, err := r.Uint64()
	return math.Float64frombits(v), err
}
