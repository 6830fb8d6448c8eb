// Package literal converts Values into Julia source text: strings that
// the worker's own parser will turn back into equal values. It exists to
// build call expressions like f(arg1,arg2) for arbitrary remote function
// invocation and is independent of the file-based result codec.
package literal

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/pgs62/juliabridge"
	"github.com/pgs62/juliabridge/errors"
)

// serialEpoch anchors the numeric day serial: serial 0 is 1899-12-30,
// so serial 1 is 1899-12-31 and serial 2 is 1900-01-01.
var serialEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// Encode renders v as a Julia literal.
func Encode(v juliabridge.Value) (string, error) {
	var b strings.Builder
	if err := encodeValue(v, &b); err != nil {
		return "", errors.Annotate(err, errors.PhaseLiteral, "Encode")
	}
	return b.String(), nil
}

// CallExpression builds fn(arg1,arg2,...) with each argument rendered as
// a Julia literal.
func CallExpression(fn string, args ...juliabridge.Value) (string, error) {
	if fn == "" {
		return "", errors.InvalidData(errors.PhaseLiteral, "CallExpression",
			"empty function name", "")
	}
	var b strings.Builder
	b.WriteString(fn)
	b.WriteByte('(')
	for i, a := range args {
		if i > 0 {
			b.WriteByte(',')
		}
		if err := encodeValue(a, &b); err != nil {
			return "", errors.Annotate(err, errors.PhaseLiteral, "CallExpression")
		}
	}
	b.WriteByte(')')
	return b.String(), nil
}

func encodeValue(v juliabridge.Value, b *strings.Builder) error {
	switch v.Kind {
	case juliabridge.KindDouble, juliabridge.KindSingle,
		juliabridge.KindCurrency, juliabridge.KindDecimal:
		b.WriteString(floatLiteral(v.Num))
	case juliabridge.KindInt16, juliabridge.KindInt32, juliabridge.KindInt64:
		b.WriteString(strconv.FormatInt(v.Int, 10))
	case juliabridge.KindBool:
		if v.Bool {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case juliabridge.KindString:
		b.WriteString(stringLiteral(v.Str))
	case juliabridge.KindEmpty:
		b.WriteString("missing")
	case juliabridge.KindNull:
		b.WriteString("nothing")
	case juliabridge.KindDate:
		b.WriteString(dateLiteral(v.Num))
	case juliabridge.KindErrorCode:
		return errors.Unsupported(errors.PhaseLiteral, "encodeValue",
			"error-code values have no Julia literal form")
	case juliabridge.KindArray:
		return encodeArray(v, b)
	default:
		return errors.Unsupported(errors.PhaseLiteral, "encodeValue",
			"cannot render kind "+v.Kind.String())
	}
	return nil
}

func encodeArray(v juliabridge.Value, b *strings.Builder) error {
	switch len(v.Dims) {
	case 1:
		return encodeVector(v.Elems, b)
	case 2:
		rows, cols := v.Dims[0], v.Dims[1]
		if cols == 1 {
			// Julia's literal grammar collapses a single-column 2-D
			// literal into a 1-D value; reshape keeps the shape alive.
			b.WriteString("reshape(")
			if err := encodeVector(v.Elems, b); err != nil {
				return err
			}
			b.WriteByte(',')
			b.WriteString(strconv.Itoa(rows))
			b.WriteString(",1)")
			return nil
		}
		b.WriteByte('[')
		for r := 0; r < rows; r++ {
			if r > 0 {
				b.WriteString("; ")
			}
			for c := 0; c < cols; c++ {
				if c > 0 {
					b.WriteByte(' ')
				}
				if err := encodeValue(v.Elems[c*rows+r], b); err != nil {
					return err
				}
			}
		}
		b.WriteByte(']')
		return nil
	}
	return errors.BadDims(errors.PhaseLiteral, "encodeArray", len(v.Dims))
}

// encodeVector writes a bracketed comma-separated 1-D literal. A
// homogeneous sequence gets Julia's typed-array prefix; a mixed one gets
// the Any container. Homogeneity is decided by comparing every element's
// kind to the first's, never assumed.
func encodeVector(elems []juliabridge.Value, b *strings.Builder) error {
	if len(elems) == 0 {
		return errors.ZeroDim(errors.PhaseLiteral, "encodeVector", []int{0})
	}
	homogeneous := true
	for _, e := range elems[1:] {
		if e.Kind != elems[0].Kind {
			homogeneous = false
			break
		}
	}
	if homogeneous {
		b.WriteString(juliaTypeName(elems[0].Kind))
	} else {
		b.WriteString("Any")
	}
	b.WriteByte('[')
	for i, e := range elems {
		if i > 0 {
			b.WriteByte(',')
		}
		if err := encodeValue(e, b); err != nil {
			return err
		}
	}
	b.WriteByte(']')
	return nil
}

func juliaTypeName(k juliabridge.Kind) string {
	switch k {
	case juliabridge.KindDouble, juliabridge.KindCurrency, juliabridge.KindDecimal:
		return "Float64"
	case juliabridge.KindSingle:
		return "Float32"
	case juliabridge.KindInt16:
		return "Int16"
	case juliabridge.KindInt32:
		return "Int32"
	case juliabridge.KindInt64:
		return "Int64"
	case juliabridge.KindBool:
		return "Bool"
	case juliabridge.KindString:
		return "String"
	case juliabridge.KindDate:
		return "Date"
	case juliabridge.KindEmpty:
		return "Missing"
	case juliabridge.KindNull:
		return "Nothing"
	}
	// Arrays of arrays and anything else fall back to the Any container.
	return "Any"
}

var stringEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\r", `\r`,
	"\n", `\n`,
	"$", `\$`,
)

func stringLiteral(s string) string {
	return `"` + stringEscaper.Replace(s) + `"`
}

// floatLiteral forces a decimal point or exponent marker so the Julia
// parser infers a floating type rather than an integer.
func floatLiteral(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Inf"
	case math.IsInf(f, -1):
		return "-Inf"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// dateLiteral chooses Date for whole-day serials and DateTime when the
// serial carries a time-of-day fraction, each spelled with explicit
// numeric constructor arguments so no locale can misread it.
func dateLiteral(serial float64) string {
	t := serialToTime(serial)
	y, mo, d := t.Date()
	if serial == math.Trunc(serial) {
		return "Date(" + strconv.Itoa(y) + "," + strconv.Itoa(int(mo)) + "," + strconv.Itoa(d) + ")"
	}
	h, mi, s := t.Clock()
	ms := t.Nanosecond() / int(time.Millisecond)
	return "DateTime(" + strconv.Itoa(y) + "," + strconv.Itoa(int(mo)) + "," + strconv.Itoa(d) + "," +
		strconv.Itoa(h) + "," + strconv.Itoa(mi) + "," + strconv.Itoa(s) + "," + strconv.Itoa(ms) + ")"
}

// serialToTime converts a day serial to UTC time, rounding to the
// nearest millisecond to absorb float error in the fraction.
func serialToTime(serial float64) time.Time {
	ms := math.Round(serial * 24 * 60 * 60 * 1000)
	return serialEpoch.Add(time.Duration(ms) * time.Millisecond)
}

// TimeToSerial is the inverse of the conversion dateLiteral performs,
// exposed for hosts that hold calendar times natively.
func TimeToSerial(t time.Time) float64 {
	return t.Sub(serialEpoch).Hours() / 24
}
