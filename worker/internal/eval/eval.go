// Package eval interprets the subset of Julia that the literal encoder
// produces: numeric and string scalars, true/false/missing/nothing,
// Date and DateTime constructors, typed and untyped vector and matrix
// literals, reshape, arithmetic, and a handful of builtin functions.
// It exists so the call protocol can be exercised end to end without a
// Julia installation.
package eval

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/pgs62/juliabridge"
	"github.com/pgs62/juliabridge/literal"
)

// Evaluator is stateless; one instance serves any number of calls.
type Evaluator struct{}

func New() *Evaluator { return &Evaluator{} }

func (*Evaluator) Eval(expr string) (juliabridge.Value, error) {
	toks, err := tokenize(expr)
	if err != nil {
		return juliabridge.Value{}, err
	}
	p := &parser{toks: toks}
	v, err := p.parseExpression(0)
	if err != nil {
		return juliabridge.Value{}, err
	}
	if p.peek().typ != tokEOF {
		return juliabridge.Value{}, fmt.Errorf("unexpected %s after expression", p.peek())
	}
	return v, nil
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.typ != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) expect(typ tokenType, what string) (token, error) {
	t := p.next()
	if t.typ != typ {
		return t, fmt.Errorf("expected %s, found %s", what, t)
	}
	return t, nil
}

// Binary operator precedence; ^ binds tightest and associates right.
func precedence(op string) int {
	switch op {
	case "+", "-":
		return 1
	case "*", "/":
		return 2
	case "^":
		return 3
	}
	return 0
}

func (p *parser) parseExpression(minPrec int) (juliabridge.Value, error) {
	left, err := p.parseUnary()
	if err != nil {
		return left, err
	}
	for {
		t := p.peek()
		if t.typ != tokOperator {
			return left, nil
		}
		prec := precedence(t.text)
		if prec < minPrec || prec == 0 {
			return left, nil
		}
		p.next()
		nextMin := prec + 1
		if t.text == "^" {
			nextMin = prec
		}
		right, err := p.parseExpression(nextMin)
		if err != nil {
			return right, err
		}
		left, err = applyBinary(t.text, left, right)
		if err != nil {
			return left, err
		}
	}
}

func (p *parser) parseUnary() (juliabridge.Value, error) {
	t := p.peek()
	if t.typ == tokOperator && (t.text == "-" || t.text == "+") {
		p.next()
		v, err := p.parseUnary()
		if err != nil {
			return v, err
		}
		if t.text == "-" {
			return negate(v)
		}
		return v, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (juliabridge.Value, error) {
	t := p.next()
	switch t.typ {
	case tokNumber:
		return numberValue(t.text)
	case tokString:
		return juliabridge.String(t.text), nil
	case tokLParen:
		v, err := p.parseExpression(0)
		if err != nil {
			return v, err
		}
		if _, err := p.expect(tokRParen, `")"`); err != nil {
			return v, err
		}
		return v, nil
	case tokLBracket:
		return p.parseBracket("")
	case tokIdent:
		switch t.text {
		case "true":
			return juliabridge.Bool(true), nil
		case "false":
			return juliabridge.Bool(false), nil
		case "missing":
			return juliabridge.Empty(), nil
		case "nothing":
			return juliabridge.Null(), nil
		case "NaN":
			return juliabridge.Double(math.NaN()), nil
		case "Inf":
			return juliabridge.Double(math.Inf(1)), nil
		}
		switch p.peek().typ {
		case tokLParen:
			p.next()
			return p.parseCall(t.text)
		case tokLBracket:
			p.next()
			return p.parseBracket(t.text)
		}
		return juliabridge.Value{}, fmt.Errorf("undefined variable %q", t.text)
	default:
		return juliabridge.Value{}, fmt.Errorf("unexpected %s", t)
	}
}

func (p *parser) parseCall(fn string) (juliabridge.Value, error) {
	var args []juliabridge.Value
	if p.peek().typ != tokRParen {
		for {
			arg, err := p.parseExpression(0)
			if err != nil {
				return arg, err
			}
			args = append(args, arg)
			if p.peek().typ != tokComma {
				break
			}
			p.next()
		}
	}
	if _, err := p.expect(tokRParen, `")"`); err != nil {
		return juliabridge.Value{}, err
	}
	return call(fn, args)
}

// parseBracket parses the remainder of a bracket literal: comma
// separated elements form a vector, while adjacency and semicolons form
// a matrix. elemType is the optional type prefix, as in Float64[...].
func (p *parser) parseBracket(elemType string) (juliabridge.Value, error) {
	if p.peek().typ == tokRBracket {
		return juliabridge.Value{}, fmt.Errorf("empty array literal not supported")
	}
	rows := [][]juliabridge.Value{nil}
	vector := true
	for {
		elem, err := p.parseUnary()
		if err != nil {
			return elem, err
		}
		rows[len(rows)-1] = append(rows[len(rows)-1], elem)
		switch t := p.peek(); t.typ {
		case tokComma:
			if !vector {
				return juliabridge.Value{}, fmt.Errorf("unexpected %q in matrix literal", ",")
			}
			p.next()
		case tokSemicolon:
			vector = false
			p.next()
			rows = append(rows, nil)
		case tokRBracket:
			p.next()
			return buildArray(rows, vector, elemType)
		case tokNumber, tokString, tokIdent, tokLBracket, tokLParen:
			// Space separated elements continue the current row.
			vector = false
		case tokOperator:
			if t.text != "-" && t.text != "+" {
				return juliabridge.Value{}, fmt.Errorf("unexpected %s in array literal", t)
			}
			vector = false
		default:
			return juliabridge.Value{}, fmt.Errorf("unexpected %s in array literal", t)
		}
	}
}

func buildArray(rows [][]juliabridge.Value, vector bool, elemType string) (juliabridge.Value, error) {
	if elemType != "" && elemType != "Any" {
		for _, row := range rows {
			for i, e := range row {
				conv, err := convert(e, elemType)
				if err != nil {
					return juliabridge.Value{}, err
				}
				row[i] = conv
			}
		}
	}
	if vector && len(rows) == 1 {
		return juliabridge.Vector(rows[0])
	}
	return juliabridge.FromRows(rows)
}

// convert coerces an element to the named Julia element type.
func convert(v juliabridge.Value, typeName string) (juliabridge.Value, error) {
	switch typeName {
	case "Float64":
		f, err := asFloat(v)
		if err != nil {
			return v, err
		}
		return juliabridge.Double(f), nil
	case "Float32":
		f, err := asFloat(v)
		if err != nil {
			return v, err
		}
		return juliabridge.Single(float32(f)), nil
	case "Int16", "Int32", "Int64":
		f, err := asFloat(v)
		if err != nil {
			return v, err
		}
		if f != math.Trunc(f) {
			return v, fmt.Errorf("cannot convert %v to %s", f, typeName)
		}
		switch typeName {
		case "Int16":
			return juliabridge.Int16(int16(f)), nil
		case "Int32":
			return juliabridge.Int32(int32(f)), nil
		default:
			return juliabridge.Int64(int64(f)), nil
		}
	case "Bool":
		if v.Kind == juliabridge.KindBool {
			return v, nil
		}
		return v, fmt.Errorf("cannot convert %s to Bool", v.Kind)
	case "String":
		if v.Kind == juliabridge.KindString {
			return v, nil
		}
		return v, fmt.Errorf("cannot convert %s to String", v.Kind)
	case "Date", "DateTime":
		if v.Kind == juliabridge.KindDate {
			return v, nil
		}
		return v, fmt.Errorf("cannot convert %s to %s", v.Kind, typeName)
	case "Missing":
		if v.Kind == juliabridge.KindEmpty {
			return v, nil
		}
		return v, fmt.Errorf("cannot convert %s to Missing", v.Kind)
	case "Nothing":
		if v.Kind == juliabridge.KindNull {
			return v, nil
		}
		return v, fmt.Errorf("cannot convert %s to Nothing", v.Kind)
	default:
		return v, fmt.Errorf("unknown element type %q", typeName)
	}
}

func numberValue(text string) (juliabridge.Value, error) {
	if !strings.ContainsAny(text, ".eE") {
		i, err := strconv.ParseInt(text, 10, 64)
		if err == nil {
			return juliabridge.Int64(i), nil
		}
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return juliabridge.Value{}, fmt.Errorf("malformed number %q", text)
	}
	return juliabridge.Double(f), nil
}

func isIntKind(k juliabridge.Kind) bool {
	return k == juliabridge.KindInt16 || k == juliabridge.KindInt32 || k == juliabridge.KindInt64
}

func asFloat(v juliabridge.Value) (float64, error) {
	switch v.Kind {
	case juliabridge.KindDouble, juliabridge.KindSingle,
		juliabridge.KindCurrency, juliabridge.KindDecimal, juliabridge.KindDate:
		return v.Num, nil
	case juliabridge.KindInt16, juliabridge.KindInt32, juliabridge.KindInt64:
		return float64(v.Int), nil
	}
	return 0, fmt.Errorf("%s is not numeric", v.Kind)
}

func negate(v juliabridge.Value) (juliabridge.Value, error) {
	if isIntKind(v.Kind) {
		return juliabridge.Value{Kind: v.Kind, Int: -v.Int}, nil
	}
	f, err := asFloat(v)
	if err != nil {
		return v, err
	}
	return juliabridge.Double(-f), nil
}

func applyBinary(op string, a, b juliabridge.Value) (juliabridge.Value, error) {
	// Julia spells string concatenation with *.
	if op == "*" && a.Kind == juliabridge.KindString && b.Kind == juliabridge.KindString {
		return juliabridge.String(a.Str + b.Str), nil
	}
	fa, err := asFloat(a)
	if err != nil {
		return a, fmt.Errorf("operator %s: %v", op, err)
	}
	fb, err := asFloat(b)
	if err != nil {
		return a, fmt.Errorf("operator %s: %v", op, err)
	}
	ints := isIntKind(a.Kind) && isIntKind(b.Kind)
	switch op {
	case "+":
		if ints {
			return juliabridge.Int64(a.Int + b.Int), nil
		}
		return juliabridge.Double(fa + fb), nil
	case "-":
		if ints {
			return juliabridge.Int64(a.Int - b.Int), nil
		}
		return juliabridge.Double(fa - fb), nil
	case "*":
		if ints {
			return juliabridge.Int64(a.Int * b.Int), nil
		}
		return juliabridge.Double(fa * fb), nil
	case "/":
		if fb == 0 {
			return juliabridge.Double(math.Inf(sign(fa))), nil
		}
		return juliabridge.Double(fa / fb), nil
	case "^":
		if ints && b.Int >= 0 {
			r := int64(1)
			for n := int64(0); n < b.Int; n++ {
				r *= a.Int
			}
			return juliabridge.Int64(r), nil
		}
		return juliabridge.Double(math.Pow(fa, fb)), nil
	}
	return a, fmt.Errorf("unknown operator %q", op)
}

func sign(f float64) int {
	if math.Signbit(f) {
		return -1
	}
	return 1
}

func call(fn string, args []juliabridge.Value) (juliabridge.Value, error) {
	switch fn {
	case "identity":
		if len(args) != 1 {
			return arityError(fn, 1, len(args))
		}
		return args[0], nil
	case "Date":
		return dateValue(fn, args, 3)
	case "DateTime":
		return dateValue(fn, args, 7)
	case "sum":
		return builtinSum(args)
	case "length":
		if len(args) != 1 {
			return arityError(fn, 1, len(args))
		}
		return juliabridge.Int64(int64(args[0].Len())), nil
	case "transpose":
		if len(args) != 1 {
			return arityError(fn, 1, len(args))
		}
		return builtinTranspose(args[0])
	case "reshape":
		return builtinReshape(args)
	case "uppercase", "lowercase":
		if len(args) != 1 {
			return arityError(fn, 1, len(args))
		}
		if args[0].Kind != juliabridge.KindString {
			return juliabridge.Value{}, fmt.Errorf("%s expects a String, got %s", fn, args[0].Kind)
		}
		if fn == "uppercase" {
			return juliabridge.String(strings.ToUpper(args[0].Str)), nil
		}
		return juliabridge.String(strings.ToLower(args[0].Str)), nil
	case "sqrt":
		if len(args) != 1 {
			return arityError(fn, 1, len(args))
		}
		f, err := asFloat(args[0])
		if err != nil {
			return juliabridge.Value{}, err
		}
		return juliabridge.Double(math.Sqrt(f)), nil
	case "abs":
		if len(args) != 1 {
			return arityError(fn, 1, len(args))
		}
		if isIntKind(args[0].Kind) && args[0].Int >= 0 {
			return args[0], nil
		}
		return negateIfNegative(args[0])
	case "string":
		return builtinString(args)
	}
	return juliabridge.Value{}, fmt.Errorf("undefined function %q", fn)
}

func arityError(fn string, want, got int) (juliabridge.Value, error) {
	return juliabridge.Value{}, fmt.Errorf("%s expects %d argument(s), got %d", fn, want, got)
}

// dateValue handles Date(y, m, d) and DateTime(y, m, d[, h, mi, s, ms]).
// maxArgs is 3 for Date and 7 for DateTime; trailing components default
// to zero.
func dateValue(fn string, args []juliabridge.Value, maxArgs int) (juliabridge.Value, error) {
	if len(args) < 3 || len(args) > maxArgs {
		return juliabridge.Value{}, fmt.Errorf("%s takes 3 to %d integer arguments, got %d", fn, maxArgs, len(args))
	}
	parts := make([]int, 7)
	for i, a := range args {
		if !isIntKind(a.Kind) {
			return juliabridge.Value{}, fmt.Errorf("%s argument %d must be an integer, got %s", fn, i+1, a.Kind)
		}
		parts[i] = int(a.Int)
	}
	t := time.Date(parts[0], time.Month(parts[1]), parts[2],
		parts[3], parts[4], parts[5], parts[6]*int(time.Millisecond), time.UTC)
	return juliabridge.Date(literal.TimeToSerial(t)), nil
}

func builtinSum(args []juliabridge.Value) (juliabridge.Value, error) {
	elems := args
	if len(args) == 1 && args[0].Kind == juliabridge.KindArray {
		elems = args[0].Elems
	}
	if len(elems) == 0 {
		return arityError("sum", 1, 0)
	}
	ints := true
	var fsum float64
	var isum int64
	for _, e := range elems {
		f, err := asFloat(e)
		if err != nil {
			return juliabridge.Value{}, fmt.Errorf("sum: %v", err)
		}
		fsum += f
		isum += e.Int
		if !isIntKind(e.Kind) {
			ints = false
		}
	}
	if ints {
		return juliabridge.Int64(isum), nil
	}
	return juliabridge.Double(fsum), nil
}

func builtinTranspose(v juliabridge.Value) (juliabridge.Value, error) {
	if v.Kind != juliabridge.KindArray {
		return v, nil
	}
	switch len(v.Dims) {
	case 1:
		// A transposed vector is a single-row matrix.
		return juliabridge.Matrix(1, len(v.Elems), v.Elems)
	case 2:
		rows, err := v.Rows()
		if err != nil {
			return juliabridge.Value{}, err
		}
		cols := make([][]juliabridge.Value, v.Dims[1])
		for c := range cols {
			cols[c] = make([]juliabridge.Value, v.Dims[0])
			for r := range cols[c] {
				cols[c][r] = rows[r][c]
			}
		}
		return juliabridge.FromRows(cols)
	}
	return juliabridge.Value{}, fmt.Errorf("transpose: %d dimensions not handled", len(v.Dims))
}

func builtinReshape(args []juliabridge.Value) (juliabridge.Value, error) {
	if len(args) != 3 {
		return arityError("reshape", 3, len(args))
	}
	src := args[0]
	if src.Kind != juliabridge.KindArray {
		return juliabridge.Value{}, fmt.Errorf("reshape expects an array, got %s", src.Kind)
	}
	if !isIntKind(args[1].Kind) || !isIntKind(args[2].Kind) {
		return juliabridge.Value{}, fmt.Errorf("reshape dimensions must be integers")
	}
	r, c := int(args[1].Int), int(args[2].Int)
	if r*c != len(src.Elems) {
		return juliabridge.Value{}, fmt.Errorf("reshape: %d elements cannot fill %dx%d", len(src.Elems), r, c)
	}
	// Elements are already in column-major order, so the fill is direct.
	return juliabridge.Matrix(r, c, src.Elems)
}

func builtinString(args []juliabridge.Value) (juliabridge.Value, error) {
	var b strings.Builder
	for _, a := range args {
		switch a.Kind {
		case juliabridge.KindString:
			b.WriteString(a.Str)
		case juliabridge.KindInt16, juliabridge.KindInt32, juliabridge.KindInt64:
			b.WriteString(strconv.FormatInt(a.Int, 10))
		case juliabridge.KindBool:
			b.WriteString(strconv.FormatBool(a.Bool))
		case juliabridge.KindDouble, juliabridge.KindSingle,
			juliabridge.KindCurrency, juliabridge.KindDecimal:
			b.WriteString(strconv.FormatFloat(a.Num, 'g', -1, 64))
		default:
			return juliabridge.Value{}, fmt.Errorf("string: cannot print %s", a.Kind)
		}
	}
	return juliabridge.String(b.String()), nil
}

func negateIfNegative(v juliabridge.Value) (juliabridge.Value, error) {
	f, err := asFloat(v)
	if err != nil {
		return v, err
	}
	if f < 0 {
		return negate(v)
	}
	return v, nil
}
