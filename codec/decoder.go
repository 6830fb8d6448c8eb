package codec

import (
	"math"
	"strconv"

	"github.com/pgs62/juliabridge"
	"github.com/pgs62/juliabridge/errors"
)

// tagString is the string marker. A non-ASCII character, chosen so it
// cannot collide with printable payload text.
const tagString = '£'

// DecodeOptions mirror the capabilities of whatever container the
// decoded Value must ultimately populate. None of them are properties
// of the wire format itself.
type DecodeOptions struct {
	// AllowNesting permits arrays whose elements are themselves arrays.
	// Without it a nested array is a reported error, because a flat host
	// grid cannot hold one.
	AllowNesting bool

	// StringLengthLimit rejects string scalars of this many characters
	// or more. Zero disables the check. It models an external capability
	// ceiling (a host cell's capacity), injected by the caller.
	StringLengthLimit int

	// VectorAsColumn materializes 1-D arrays as N x 1 two-dimensional
	// values, a presentation choice for grid-shaped hosts.
	VectorAsColumn bool
}

type Decoder struct {
	opts DecodeOptions
}

func NewDecoder() *Decoder {
	return &Decoder{}
}

func NewDecoderWithOptions(opts DecodeOptions) *Decoder {
	return &Decoder{opts: opts}
}

// Decode parses wire text back into a Value in a single recursive-descent
// pass keyed on the leading tag character.
func (d *Decoder) Decode(text string) (juliabridge.Value, error) {
	v, err := d.decodeValue([]rune(text), 0)
	if err != nil {
		return juliabridge.Value{}, errors.Annotate(err, errors.PhaseDecode, "Decode")
	}
	return v, nil
}

// Decode parses wire text with default options.
func Decode(text string) (juliabridge.Value, error) {
	return NewDecoder().Decode(text)
}

// decodeValue consumes exactly one element's encoding. depth counts how
// many arrays enclose it: 0 at top level, 1 inside the outermost array.
func (d *Decoder) decodeValue(r []rune, depth int) (juliabridge.Value, error) {
	if len(r) == 0 {
		return juliabridge.Value{}, errors.InvalidData(errors.PhaseDecode, "decodeValue",
			"empty encoding", "")
	}
	tag, payload := r[0], r[1:]
	switch tag {
	case '#':
		f, err := parseFloat(payload, "decodeDouble", r)
		return juliabridge.Double(f), err
	case 'S':
		f, err := parseFloat(payload, "decodeSingle", r)
		return juliabridge.Single(float32(f)), err
	case 'C':
		f, err := parseFloat(payload, "decodeCurrency", r)
		return juliabridge.Currency(f), err
	case '@':
		f, err := parseFloat(payload, "decodeDecimal", r)
		return juliabridge.Decimal(f), err
	case 'D':
		f, err := parseFloat(payload, "decodeDate", r)
		return juliabridge.Date(f), err
	case '%':
		i, err := parseInt(payload, "decodeInt16", r)
		if err != nil {
			return juliabridge.Value{}, err
		}
		if i < math.MinInt16 || i > math.MaxInt16 {
			return juliabridge.Value{}, errors.InvalidData(errors.PhaseDecode, "decodeInt16",
				"value "+strconv.FormatInt(i, 10)+" overflows int16", string(r))
		}
		return juliabridge.Int16(int16(i)), nil
	case '&':
		i, err := parseInt(payload, "decodeInt32", r)
		if err != nil {
			return juliabridge.Value{}, err
		}
		if i < math.MinInt32 || i > math.MaxInt32 {
			return juliabridge.Value{}, errors.InvalidData(errors.PhaseDecode, "decodeInt32",
				"value "+strconv.FormatInt(i, 10)+" overflows int32", string(r))
		}
		return juliabridge.Int32(int32(i)), nil
	case 'L':
		i, err := parseInt(payload, "decodeInt64", r)
		return juliabridge.Int64(i), err
	case '!':
		i, err := parseInt(payload, "decodeErrorCode", r)
		return juliabridge.ErrorCode(i), err
	case 'T', 'F', 'E', 'N':
		if len(payload) != 0 {
			return juliabridge.Value{}, errors.InvalidData(errors.PhaseDecode, "decodeValue",
				"tag "+string(tag)+" takes no payload", string(r))
		}
		switch tag {
		case 'T':
			return juliabridge.Bool(true), nil
		case 'F':
			return juliabridge.Bool(false), nil
		case 'E':
			return juliabridge.Empty(), nil
		default:
			return juliabridge.Null(), nil
		}
	case tagString:
		if lim := d.opts.StringLengthLimit; lim > 0 && len(payload) >= lim {
			return juliabridge.Value{}, errors.StringTooLong("decodeString", len(payload), lim)
		}
		return juliabridge.String(string(payload)), nil
	case '*':
		return d.decodeArray(r, depth)
	}
	return juliabridge.Value{}, errors.BadTag(errors.PhaseDecode, "decodeValue", tag, string(r))
}

func (d *Decoder) decodeArray(r []rune, depth int) (juliabridge.Value, error) {
	const op = "decodeArray"
	if depth+1 > 1 && !d.opts.AllowNesting {
		return juliabridge.Value{}, errors.NestingNotAllowed(op)
	}

	// Locate the two section separators.
	semi1 := indexRune(r, ';', 1)
	if semi1 < 0 {
		return juliabridge.Value{}, errors.InvalidData(errors.PhaseDecode, op,
			"missing dimension separator ';'", string(r))
	}

	// Dimension section: NDIMS followed by that many extents.
	dimNums, err := splitInts(r[1:semi1], op, r)
	if err != nil {
		return juliabridge.Value{}, err
	}
	if len(dimNums) < 1 {
		return juliabridge.Value{}, errors.InvalidData(errors.PhaseDecode, op,
			"empty dimension section", string(r))
	}
	ndims := dimNums[0]
	if ndims != 1 && ndims != 2 {
		return juliabridge.Value{}, errors.BadDims(errors.PhaseDecode, op, ndims)
	}
	if len(dimNums) != 1+ndims {
		return juliabridge.Value{}, errors.InvalidData(errors.PhaseDecode, op,
			"dimension section declares "+strconv.Itoa(ndims)+" dims but lists "+
				strconv.Itoa(len(dimNums)-1), string(r))
	}
	dims := dimNums[1:]
	total := 1
	for _, dim := range dims {
		if dim <= 0 {
			return juliabridge.Value{}, errors.ZeroDim(errors.PhaseDecode, op, dims)
		}
		total *= dim
	}

	// Length section: total comma-terminated character counts, then ';'.
	pos := semi1 + 1
	lengths := make([]int, total)
	for i := 0; i < total; i++ {
		comma := indexRune(r, ',', pos)
		if comma < 0 {
			return juliabridge.Value{}, errors.InvalidData(errors.PhaseDecode, op,
				"length section has "+strconv.Itoa(i)+" entries, want "+strconv.Itoa(total), string(r))
		}
		n, err := parseInt(r[pos:comma], op, r)
		if err != nil {
			return juliabridge.Value{}, err
		}
		lengths[i] = int(n)
		pos = comma + 1
	}
	if pos >= len(r) || r[pos] != ';' {
		return juliabridge.Value{}, errors.InvalidData(errors.PhaseDecode, op,
			"missing content separator ';' after length section", string(r))
	}
	pos++

	// Content section: recover element boundaries purely from lengths.
	elems := make([]juliabridge.Value, total)
	for i, n := range lengths {
		if n < 0 || pos+n > len(r) {
			return juliabridge.Value{}, errors.New(errors.PhaseDecode, errors.KindInvalidData).
				Op(op).
				Input(string(r)).
				Detail("element %d declares length %d but only %d characters remain", i, n, len(r)-pos).
				Build()
		}
		el, err := d.decodeValue(r[pos:pos+n], depth+1)
		if err != nil {
			return juliabridge.Value{}, err
		}
		elems[i] = el
		pos += n
	}
	if pos != len(r) {
		return juliabridge.Value{}, errors.InvalidData(errors.PhaseDecode, op,
			strconv.Itoa(len(r)-pos)+" trailing characters after last element", string(r))
	}

	if ndims == 1 {
		if d.opts.VectorAsColumn {
			return juliabridge.Matrix(total, 1, elems)
		}
		return juliabridge.Vector(elems)
	}
	// 2-D: wire order is column-major and so is Value storage; no
	// transposition happens here. Rows()/FromRows() own that step.
	return juliabridge.Matrix(dims[0], dims[1], elems)
}

func parseFloat(payload []rune, op string, whole []rune) (float64, error) {
	f, err := strconv.ParseFloat(string(payload), 64)
	if err != nil {
		return 0, errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Op(op).
			Input(string(whole)).
			Detail("malformed number %q", string(payload)).
			Cause(err).
			Build()
	}
	return f, nil
}

func parseInt(payload []rune, op string, whole []rune) (int64, error) {
	i, err := strconv.ParseInt(string(payload), 10, 64)
	if err != nil {
		return 0, errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Op(op).
			Input(string(whole)).
			Detail("malformed integer %q", string(payload)).
			Cause(err).
			Build()
	}
	return i, nil
}

// splitInts parses a comma-separated run of integers.
func splitInts(r []rune, op string, whole []rune) ([]int, error) {
	var out []int
	start := 0
	for i := 0; i <= len(r); i++ {
		if i == len(r) || r[i] == ',' {
			n, err := parseInt(r[start:i], op, whole)
			if err != nil {
				return nil, err
			}
			out = append(out, int(n))
			start = i + 1
		}
	}
	return out, nil
}

// indexRune returns the index of the first occurrence of c at or after
// from, or -1.
func indexRune(r []rune, c rune, from int) int {
	for i := from; i < len(r); i++ {
		if r[i] == c {
			return i
		}
	}
	return -1
}
