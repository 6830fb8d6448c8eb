package codec

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/pgs62/juliabridge"
	"github.com/pgs62/juliabridge/errors"
)

// EncodeOptions controls capability-driven encoding concessions.
type EncodeOptions struct {
	// Int64AsDouble down-casts int64 scalars to doubles for consumers
	// that cannot hold 64-bit integers. Lossy above 2^53.
	Int64AsDouble bool
}

type Encoder struct {
	opts EncodeOptions
}

func NewEncoder() *Encoder {
	return &Encoder{}
}

func NewEncoderWithOptions(opts EncodeOptions) *Encoder {
	return &Encoder{opts: opts}
}

// Encode serializes v into the wire text form.
func (e *Encoder) Encode(v juliabridge.Value) (string, error) {
	var b strings.Builder
	if err := e.encodeValue(v, &b); err != nil {
		return "", errors.Annotate(err, errors.PhaseEncode, "Encode")
	}
	return b.String(), nil
}

// Encode serializes v with default options.
func Encode(v juliabridge.Value) (string, error) {
	return NewEncoder().Encode(v)
}

func (e *Encoder) encodeValue(v juliabridge.Value, b *strings.Builder) error {
	switch v.Kind {
	case juliabridge.KindDouble:
		b.WriteByte('#')
		b.WriteString(formatFloat(v.Num, 64))
	case juliabridge.KindSingle:
		b.WriteByte('S')
		b.WriteString(formatFloat(v.Num, 32))
	case juliabridge.KindInt16:
		b.WriteByte('%')
		b.WriteString(strconv.FormatInt(v.Int, 10))
	case juliabridge.KindInt32:
		b.WriteByte('&')
		b.WriteString(strconv.FormatInt(v.Int, 10))
	case juliabridge.KindInt64:
		if e.opts.Int64AsDouble {
			b.WriteByte('#')
			b.WriteString(formatFloat(float64(v.Int), 64))
		} else {
			b.WriteByte('L')
			b.WriteString(strconv.FormatInt(v.Int, 10))
		}
	case juliabridge.KindCurrency:
		b.WriteByte('C')
		b.WriteString(formatFloat(v.Num, 64))
	case juliabridge.KindDecimal:
		b.WriteByte('@')
		b.WriteString(formatFloat(v.Num, 64))
	case juliabridge.KindBool:
		if v.Bool {
			b.WriteByte('T')
		} else {
			b.WriteByte('F')
		}
	case juliabridge.KindDate:
		b.WriteByte('D')
		b.WriteString(formatFloat(v.Num, 64))
	case juliabridge.KindString:
		b.WriteRune(tagString)
		b.WriteString(v.Str)
	case juliabridge.KindEmpty:
		b.WriteByte('E')
	case juliabridge.KindNull:
		b.WriteByte('N')
	case juliabridge.KindErrorCode:
		b.WriteByte('!')
		b.WriteString(strconv.FormatInt(v.Int, 10))
	case juliabridge.KindArray:
		return e.encodeArray(v, b)
	default:
		return errors.Unsupported(errors.PhaseEncode, "encodeValue",
			"cannot encode kind "+v.Kind.String())
	}
	return nil
}

func (e *Encoder) encodeArray(v juliabridge.Value, b *strings.Builder) error {
	ndims := len(v.Dims)
	if ndims != 1 && ndims != 2 {
		return errors.BadDims(errors.PhaseEncode, "encodeArray", ndims)
	}
	total := 1
	for _, d := range v.Dims {
		if d <= 0 {
			return errors.ZeroDim(errors.PhaseEncode, "encodeArray", v.Dims)
		}
		total *= d
	}
	if total != len(v.Elems) {
		return errors.New(errors.PhaseEncode, errors.KindInvalidData).
			Op("encodeArray").
			Detail("dims %v declare %d elements but %d are present", v.Dims, total, len(v.Elems)).
			Build()
	}

	// Elems are already in column-major order; encode each element on
	// its own so the length section can frame the concatenation.
	encs := make([]string, len(v.Elems))
	for i, el := range v.Elems {
		var eb strings.Builder
		if err := e.encodeValue(el, &eb); err != nil {
			return err
		}
		encs[i] = eb.String()
	}

	b.WriteByte('*')
	b.WriteString(strconv.Itoa(ndims))
	for _, d := range v.Dims {
		b.WriteByte(',')
		b.WriteString(strconv.Itoa(d))
	}
	b.WriteByte(';')
	for _, enc := range encs {
		b.WriteString(strconv.Itoa(utf8.RuneCountInString(enc)))
		b.WriteByte(',')
	}
	b.WriteByte(';')
	for _, enc := range encs {
		b.WriteString(enc)
	}
	return nil
}

// formatFloat renders the shortest decimal text that parses back to the
// same value: locale-invariant, '.' radix, no grouping separators.
func formatFloat(f float64, bits int) string {
	if bits == 32 {
		return strconv.FormatFloat(f, 'g', -1, 32)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
