package juliabridge

import "fmt"

// Value is the closed tagged union of everything that can cross the
// process boundary. Exactly one payload field is meaningful, selected
// by Kind:
//
//	Num   - double, single, currency, decimal, date (day serial)
//	Int   - int16, int32, int64, error-code
//	Bool  - bool
//	Str   - string
//	Elems - array elements, Dims the shape
//
// Array elements are stored in column-major order (first index varies
// fastest), matching the wire format. A Value graph is owned exclusively
// by the call that built it; there is no sharing across calls.
type Value struct {
	Num   float64
	Int   int64
	Str   string
	Elems []Value
	Dims  []int
	Kind  Kind
	Bool  bool
}

func Double(f float64) Value   { return Value{Kind: KindDouble, Num: f} }
func Single(f float32) Value   { return Value{Kind: KindSingle, Num: float64(f)} }
func Int16(i int16) Value      { return Value{Kind: KindInt16, Int: int64(i)} }
func Int32(i int32) Value      { return Value{Kind: KindInt32, Int: int64(i)} }
func Int64(i int64) Value      { return Value{Kind: KindInt64, Int: i} }
func Currency(f float64) Value { return Value{Kind: KindCurrency, Num: f} }
func Decimal(f float64) Value  { return Value{Kind: KindDecimal, Num: f} }
func Bool(b bool) Value        { return Value{Kind: KindBool, Bool: b} }
func String(s string) Value    { return Value{Kind: KindString, Str: s} }
func Empty() Value             { return Value{Kind: KindEmpty} }
func Null() Value              { return Value{Kind: KindNull} }

// Date holds a numeric day serial against the 1899-12-30 epoch, never a
// formatted calendar string. Fractional part is time of day.
func Date(serial float64) Value { return Value{Kind: KindDate, Num: serial} }

// ErrorCode tags an integer as an error sentinel. It is a value, not a
// raised failure.
func ErrorCode(code int64) Value { return Value{Kind: KindErrorCode, Int: code} }

// Vector builds a 1-D array. Zero length is rejected: the wire format
// has no representation for an empty dimension.
func Vector(elems []Value) (Value, error) {
	if len(elems) == 0 {
		return Value{}, fmt.Errorf("vector must have at least one element")
	}
	return Value{Kind: KindArray, Elems: elems, Dims: []int{len(elems)}}, nil
}

// Matrix builds a 2-D array from elements already in column-major order.
func Matrix(rows, cols int, elems []Value) (Value, error) {
	if rows <= 0 || cols <= 0 {
		return Value{}, fmt.Errorf("matrix dimensions must be positive, got %dx%d", rows, cols)
	}
	if rows*cols != len(elems) {
		return Value{}, fmt.Errorf("matrix %dx%d needs %d elements, got %d", rows, cols, rows*cols, len(elems))
	}
	return Value{Kind: KindArray, Elems: elems, Dims: []int{rows, cols}}, nil
}

// FromRows builds a 2-D array from row-major Go slices, transposing into
// the internal column-major layout. All rows must have equal length.
func FromRows(rows [][]Value) (Value, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return Value{}, fmt.Errorf("rows must be non-empty")
	}
	nr, nc := len(rows), len(rows[0])
	elems := make([]Value, nr*nc)
	for r, row := range rows {
		if len(row) != nc {
			return Value{}, fmt.Errorf("row %d has %d elements, want %d", r, len(row), nc)
		}
		for c, v := range row {
			elems[c*nr+r] = v
		}
	}
	return Matrix(nr, nc, elems)
}

// Rows materializes a 2-D array as row-major Go slices, the inverse of
// FromRows. Fails for scalars and 1-D arrays.
func (v Value) Rows() ([][]Value, error) {
	if v.Kind != KindArray || len(v.Dims) != 2 {
		return nil, fmt.Errorf("Rows requires a 2-D array, got %s with %d dims", v.Kind, len(v.Dims))
	}
	nr, nc := v.Dims[0], v.Dims[1]
	rows := make([][]Value, nr)
	for r := 0; r < nr; r++ {
		rows[r] = make([]Value, nc)
		for c := 0; c < nc; c++ {
			rows[r][c] = v.Elems[c*nr+r]
		}
	}
	return rows, nil
}

// Len returns the element count of an array, or 1 for scalars.
func (v Value) Len() int {
	if v.Kind != KindArray {
		return 1
	}
	return len(v.Elems)
}

// Equal reports deep equality: same kind, same payload, and for arrays
// the same shape with pairwise equal elements.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindDouble, KindSingle, KindCurrency, KindDecimal, KindDate:
		return v.Num == o.Num
	case KindInt16, KindInt32, KindInt64, KindErrorCode:
		return v.Int == o.Int
	case KindBool:
		return v.Bool == o.Bool
	case KindString:
		return v.Str == o.Str
	case KindEmpty, KindNull:
		return true
	case KindArray:
		if len(v.Dims) != len(o.Dims) || len(v.Elems) != len(o.Elems) {
			return false
		}
		for i, d := range v.Dims {
			if o.Dims[i] != d {
				return false
			}
		}
		for i, e := range v.Elems {
			if !e.Equal(o.Elems[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// String renders a debugging form. It is not the wire encoding and not
// a Julia literal; use the codec and literal packages for those.
func (v Value) String() string {
	switch v.Kind {
	case KindDouble, KindSingle, KindCurrency, KindDecimal, KindDate:
		return fmt.Sprintf("%s(%v)", v.Kind, v.Num)
	case KindInt16, KindInt32, KindInt64, KindErrorCode:
		return fmt.Sprintf("%s(%d)", v.Kind, v.Int)
	case KindBool:
		return fmt.Sprintf("bool(%t)", v.Bool)
	case KindString:
		return fmt.Sprintf("string(%q)", v.Str)
	case KindEmpty:
		return "empty"
	case KindNull:
		return "null"
	case KindArray:
		return fmt.Sprintf("array%v(%d elems)", v.Dims, len(v.Elems))
	}
	return "unknown"
}
