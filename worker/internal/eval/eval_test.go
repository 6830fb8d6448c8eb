package eval

import (
	"strings"
	"testing"
	"time"

	"github.com/pgs62/juliabridge"
	"github.com/pgs62/juliabridge/literal"
)

func mustEval(t *testing.T, expr string) juliabridge.Value {
	t.Helper()
	v, err := New().Eval(expr)
	if err != nil {
		t.Fatalf("Eval(%q): %v", expr, err)
	}
	return v
}

func TestEval_Scalars(t *testing.T) {
	tests := []struct {
		expr string
		want juliabridge.Value
	}{
		{"42", juliabridge.Int64(42)},
		{"-7", juliabridge.Int64(-7)},
		{"1.5", juliabridge.Double(1.5)},
		{"2.0", juliabridge.Double(2)},
		{"1e3", juliabridge.Double(1000)},
		{"2.5e-2", juliabridge.Double(0.025)},
		{"true", juliabridge.Bool(true)},
		{"false", juliabridge.Bool(false)},
		{"missing", juliabridge.Empty()},
		{"nothing", juliabridge.Null()},
		{`"Hello"`, juliabridge.String("Hello")},
		{`""`, juliabridge.String("")},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got := mustEval(t, tt.expr)
			if !got.Equal(tt.want) {
				t.Fatalf("Eval(%q) = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestEval_StringEscapes(t *testing.T) {
	got := mustEval(t, `"a\\b\"c\nd\re\$f"`)
	want := "a\\b\"c\nd\re$f"
	if got.Str != want {
		t.Fatalf("got %q, want %q", got.Str, want)
	}
}

func TestEval_Arithmetic(t *testing.T) {
	tests := []struct {
		expr string
		want juliabridge.Value
	}{
		{"1+2", juliabridge.Int64(3)},
		{"10-4*2", juliabridge.Int64(2)},
		{"(10-4)*2", juliabridge.Int64(12)},
		{"7/2", juliabridge.Double(3.5)},
		{"2^10", juliabridge.Int64(1024)},
		{"2^3^2", juliabridge.Int64(512)}, // right associative
		{"1.5+1", juliabridge.Double(2.5)},
		{"-2^2", juliabridge.Int64(4)}, // unary minus binds the operand before ^
		{`"foo"*"bar"`, juliabridge.String("foobar")},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got := mustEval(t, tt.expr)
			if !got.Equal(tt.want) {
				t.Fatalf("Eval(%q) = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestEval_Dates(t *testing.T) {
	got := mustEval(t, "Date(2021,3,1)")
	want := juliabridge.Date(literal.TimeToSerial(
		time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)))
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}

	got = mustEval(t, "DateTime(2021,3,1,10,30,15,250)")
	want = juliabridge.Date(literal.TimeToSerial(
		time.Date(2021, 3, 1, 10, 30, 15, 250*int(time.Millisecond), time.UTC)))
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestEval_Vectors(t *testing.T) {
	t.Run("typed", func(t *testing.T) {
		got := mustEval(t, "Float64[1.0,2.0,3.0]")
		want, _ := juliabridge.Vector([]juliabridge.Value{
			juliabridge.Double(1), juliabridge.Double(2), juliabridge.Double(3),
		})
		if !got.Equal(want) {
			t.Fatalf("got %v, want %v", got, want)
		}
	})
	t.Run("int32 conversion", func(t *testing.T) {
		got := mustEval(t, "Int32[1,2,3]")
		if got.Elems[0].Kind != juliabridge.KindInt32 {
			t.Fatalf("element kind = %v, want int32", got.Elems[0].Kind)
		}
	})
	t.Run("any", func(t *testing.T) {
		got := mustEval(t, `Any[1,"two",3.0]`)
		want, _ := juliabridge.Vector([]juliabridge.Value{
			juliabridge.Int64(1), juliabridge.String("two"), juliabridge.Double(3),
		})
		if !got.Equal(want) {
			t.Fatalf("got %v, want %v", got, want)
		}
	})
	t.Run("untyped", func(t *testing.T) {
		got := mustEval(t, "[1,2,3]")
		if len(got.Dims) != 1 || got.Dims[0] != 3 {
			t.Fatalf("dims = %v, want [3]", got.Dims)
		}
	})
	t.Run("negative elements", func(t *testing.T) {
		got := mustEval(t, "Int64[-1,-2]")
		if got.Elems[0].Int != -1 || got.Elems[1].Int != -2 {
			t.Fatalf("got %v", got)
		}
	})
}

func TestEval_Matrices(t *testing.T) {
	got := mustEval(t, "[1 2 3; 4 5 6]")
	want, _ := juliabridge.FromRows([][]juliabridge.Value{
		{juliabridge.Int64(1), juliabridge.Int64(2), juliabridge.Int64(3)},
		{juliabridge.Int64(4), juliabridge.Int64(5), juliabridge.Int64(6)},
	})
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if got.Dims[0] != 2 || got.Dims[1] != 3 {
		t.Fatalf("dims = %v, want [2 3]", got.Dims)
	}
}

func TestEval_Reshape(t *testing.T) {
	got := mustEval(t, "reshape(Int32[1,2,3],3,1)")
	if len(got.Dims) != 2 || got.Dims[0] != 3 || got.Dims[1] != 1 {
		t.Fatalf("dims = %v, want [3 1]", got.Dims)
	}
	if _, err := New().Eval("reshape(Int32[1,2,3],2,2)"); err == nil {
		t.Fatal("expected element-count mismatch error")
	}
}

func TestEval_Builtins(t *testing.T) {
	tests := []struct {
		expr string
		want juliabridge.Value
	}{
		{"identity(42)", juliabridge.Int64(42)},
		{"sum(Int64[1,2,3])", juliabridge.Int64(6)},
		{"sum(Float64[1.5,2.5])", juliabridge.Double(4)},
		{"sum(1,2,3)", juliabridge.Int64(6)},
		{"length(Int64[1,2,3])", juliabridge.Int64(3)},
		{`length("Hello")`, juliabridge.Int64(1)},
		{`uppercase("hello")`, juliabridge.String("HELLO")},
		{`lowercase("HELLO")`, juliabridge.String("hello")},
		{"sqrt(9)", juliabridge.Double(3)},
		{"abs(-5)", juliabridge.Int64(5)},
		{"abs(-1.5)", juliabridge.Double(1.5)},
		{`string("n=",7)`, juliabridge.String("n=7")},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got := mustEval(t, tt.expr)
			if !got.Equal(tt.want) {
				t.Fatalf("Eval(%q) = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestEval_Transpose(t *testing.T) {
	got := mustEval(t, "transpose([1 2 3; 4 5 6])")
	if got.Dims[0] != 3 || got.Dims[1] != 2 {
		t.Fatalf("dims = %v, want [3 2]", got.Dims)
	}
	rows, err := got.Rows()
	if err != nil {
		t.Fatal(err)
	}
	if rows[0][1].Int != 4 || rows[2][0].Int != 3 {
		t.Fatalf("unexpected layout: %v", got)
	}

	got = mustEval(t, "transpose(Int64[1,2,3])")
	if got.Dims[0] != 1 || got.Dims[1] != 3 {
		t.Fatalf("vector transpose dims = %v, want [1 3]", got.Dims)
	}
}

func TestEval_Errors(t *testing.T) {
	tests := []struct {
		expr    string
		wantSub string
	}{
		{"", "unexpected end of input"},
		{"frobnicate(1)", `undefined function "frobnicate"`},
		{"x", `undefined variable "x"`},
		{"1+", "unexpected end of input"},
		{"(1", `expected ")"`},
		{`"oops`, "unterminated string"},
		{"[]", "empty array literal"},
		{"[1 2; 3]", "has 1 elements, want 2"},
		{`1+"x"`, "not numeric"},
		{"Int32[1.5]", "cannot convert"},
		{"1 2", "after expression"},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			_, err := New().Eval(tt.expr)
			if err == nil {
				t.Fatalf("Eval(%q) succeeded, want error containing %q", tt.expr, tt.wantSub)
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Fatalf("error %q does not contain %q", err, tt.wantSub)
			}
		})
	}
}

// Every shape the literal encoder emits must evaluate back to the value
// it came from.
func TestEval_LiteralRoundTrip(t *testing.T) {
	vec := func(elems ...juliabridge.Value) juliabridge.Value {
		v, err := juliabridge.Vector(elems)
		if err != nil {
			t.Fatal(err)
		}
		return v
	}
	values := []juliabridge.Value{
		juliabridge.Double(1.5),
		juliabridge.Int64(-3),
		juliabridge.Bool(true),
		juliabridge.String("line1\nline2 \"quoted\" $x"),
		juliabridge.Empty(),
		juliabridge.Null(),
		juliabridge.Date(44256), // 2021-03-01
		vec(juliabridge.Double(1), juliabridge.Double(2), juliabridge.Double(3)),
		vec(juliabridge.Int64(1), juliabridge.String("two"), juliabridge.Bool(false)),
	}
	m, err := juliabridge.FromRows([][]juliabridge.Value{
		{juliabridge.Int64(1), juliabridge.Int64(2)},
		{juliabridge.Int64(3), juliabridge.Int64(4)},
		{juliabridge.Int64(5), juliabridge.Int64(6)},
	})
	if err != nil {
		t.Fatal(err)
	}
	col, err := juliabridge.Matrix(3, 1, []juliabridge.Value{
		juliabridge.Double(1), juliabridge.Double(2), juliabridge.Double(3),
	})
	if err != nil {
		t.Fatal(err)
	}
	values = append(values, m, col)

	for _, want := range values {
		src, err := literal.Encode(want)
		if err != nil {
			t.Fatalf("literal.Encode(%v): %v", want, err)
		}
		got, err := New().Eval(src)
		if err != nil {
			t.Fatalf("Eval(%q): %v", src, err)
		}
		if !got.Equal(want) {
			t.Fatalf("round trip through %q: got %v, want %v", src, got, want)
		}
	}
}
