package core

import "fmt"

// Tuple is the flat, ordered representation of an item's state. Values are
// primitives or nested []any, so a tuple survives any of the object codecs.
type Tuple []any

// ExpectLen fails with ErrMalformedData unless the tuple has exactly n fields.
func (t Tuple) ExpectLen(n int) error {
	if len(t) != n {
		return WrapError(ErrMalformedData, fmt.Errorf("expected %d fields, got %d", n, len(t)))
	}
	return nil
}

func (t Tuple) field(i int) (any, error) {
	if i < 0 || i >= len(t) {
		return nil, WrapError(ErrMalformedData, fmt.Errorf("field %d out of range (len %d)", i, len(t)))
	}
	return t[i], nil
}

func malformed(i int, err error) error {
	return WrapError(ErrMalformedData, fmt.Errorf("field %d: %w", i, err))
}

// Int returns field i as an int. Any integer width is accepted, as is a
// float holding a whole number.
func (t Tuple) Int(i int) (int, error) {
	v, err := t.field(i)
	if err != nil {
		return 0, err
	}
	n, err := WholeInt(v)
	if err != nil {
		return 0, malformed(i, err)
	}
	return n, nil
}

// Float returns field i as a float64.
func (t Tuple) Float(i int) (float64, error) {
	v, err := t.field(i)
	if err != nil {
		return 0, err
	}
	f, err := Number(v)
	if err != nil {
		return 0, malformed(i, err)
	}
	return f, nil
}

// String returns field i as a string.
func (t Tuple) String(i int) (string, error) {
	v, err := t.field(i)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", malformed(i, fmt.Errorf("expected string, got %T", v))
	}
	return s, nil
}

// Bool returns field i as a bool.
func (t Tuple) Bool(i int) (bool, error) {
	v, err := t.field(i)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, malformed(i, fmt.Errorf("expected bool, got %T", v))
	}
	return b, nil
}

// Sub returns field i as a nested tuple of exactly n values.
func (t Tuple) Sub(i, n int) (Tuple, error) {
	v, err := t.field(i)
	if err != nil {
		return nil, err
	}
	var sub Tuple
	switch s := v.(type) {
	case []any:
		sub = s
	case Tuple:
		sub = s
	case []float64:
		sub = make(Tuple, len(s))
		for j, f := range s {
			sub[j] = f
		}
	case []int:
		sub = make(Tuple, len(s))
		for j, v := range s {
			sub[j] = v
		}
	default:
		return nil, malformed(i, fmt.Errorf("expected sequence, got %T", v))
	}
	if len(sub) != n {
		return nil, malformed(i, fmt.Errorf("expected %d values, got %d", n, len(sub)))
	}
	return sub, nil
}

// Floats returns field i as n float64 values.
func (t Tuple) Floats(i, n int) ([]float64, error) {
	sub, err := t.Sub(i, n)
	if err != nil {
		return nil, err
	}
	out := make([]float64, n)
	for j := range sub {
		if out[j], err = sub.Float(j); err != nil {
			return nil, malformed(i, err)
		}
	}
	return out, nil
}

// Ints returns field i as n int values.
func (t Tuple) Ints(i, n int) ([]int, error) {
	sub, err := t.Sub(i, n)
	if err != nil {
		return nil, err
	}
	out := make([]int, n)
	for j := range sub {
		if out[j], err = sub.Int(j); err != nil {
			return nil, malformed(i, err)
		}
	}
	return out, nil
}
