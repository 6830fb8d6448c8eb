package literal

import (
	"strings"
	"testing"
	"time"

	"github.com/pgs62/juliabridge"
)

func TestEncode_Scalars(t *testing.T) {
	tests := []struct {
		name string
		v    juliabridge.Value
		want string
	}{
		{"double carries point", juliabridge.Double(2), "2.0"},
		{"double fractional", juliabridge.Double(2.5), "2.5"},
		{"double exponent kept", juliabridge.Double(1e21), "1e+21"},
		{"single", juliabridge.Single(1.5), "1.5"},
		{"currency as float", juliabridge.Currency(3), "3.0"},
		{"int32", juliabridge.Int32(42), "42"},
		{"int64", juliabridge.Int64(-7), "-7"},
		{"true", juliabridge.Bool(true), "true"},
		{"false", juliabridge.Bool(false), "false"},
		{"empty is missing", juliabridge.Empty(), "missing"},
		{"null is nothing", juliabridge.Null(), "nothing"},
		{"plain string", juliabridge.String("hi"), `"hi"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Encode(tt.v)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Encode(%s) = %q, want %q", tt.v, got, tt.want)
			}
		})
	}
}

func TestEncode_StringEscapes(t *testing.T) {
	got, err := Encode(juliabridge.String("a\\b\"c\nd\re$f"))
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	want := `"a\\b\"c\nd\re\$f"`
	if got != want {
		t.Errorf("Encode = %q, want %q", got, want)
	}
}

func TestEncode_Dates(t *testing.T) {
	wholeDay := TimeToSerial(time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC))
	got, err := Encode(juliabridge.Date(wholeDay))
	if err != nil {
		t.Fatal(err)
	}
	if got != "Date(2021,3,1)" {
		t.Errorf("whole-day serial = %q, want Date(2021,3,1)", got)
	}

	withTime := TimeToSerial(time.Date(2021, 3, 1, 10, 30, 15, 0, time.UTC))
	got, err = Encode(juliabridge.Date(withTime))
	if err != nil {
		t.Fatal(err)
	}
	if got != "DateTime(2021,3,1,10,30,15,0)" {
		t.Errorf("fractional serial = %q, want DateTime(2021,3,1,10,30,15,0)", got)
	}
}

func TestEncode_Vectors(t *testing.T) {
	t.Run("homogeneous numeric uses typed literal", func(t *testing.T) {
		v, _ := juliabridge.Vector([]juliabridge.Value{
			juliabridge.Double(1), juliabridge.Double(2), juliabridge.Double(3),
		})
		got, err := Encode(v)
		if err != nil {
			t.Fatal(err)
		}
		if got != "Float64[1.0,2.0,3.0]" {
			t.Errorf("Encode = %q, want Float64[1.0,2.0,3.0]", got)
		}
	})

	t.Run("mixed uses Any", func(t *testing.T) {
		v, _ := juliabridge.Vector([]juliabridge.Value{
			juliabridge.Double(1), juliabridge.String("x"), juliabridge.Bool(true),
		})
		got, err := Encode(v)
		if err != nil {
			t.Fatal(err)
		}
		if got != `Any[1.0,"x",true]` {
			t.Errorf("Encode = %q, want Any[1.0,\"x\",true]", got)
		}
	})

	t.Run("homogeneity checks every element", func(t *testing.T) {
		// Same kind first and last, different in the middle.
		v, _ := juliabridge.Vector([]juliabridge.Value{
			juliabridge.Int32(1), juliabridge.Double(2), juliabridge.Int32(3),
		})
		got, err := Encode(v)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.HasPrefix(got, "Any[") {
			t.Errorf("Encode = %q, want Any prefix", got)
		}
	})
}

func TestEncode_Matrix(t *testing.T) {
	v, _ := juliabridge.FromRows([][]juliabridge.Value{
		{juliabridge.Int32(1), juliabridge.Int32(2), juliabridge.Int32(3)},
		{juliabridge.Int32(4), juliabridge.Int32(5), juliabridge.Int32(6)},
	})
	got, err := Encode(v)
	if err != nil {
		t.Fatal(err)
	}
	if got != "[1 2 3; 4 5 6]" {
		t.Errorf("Encode = %q, want [1 2 3; 4 5 6]", got)
	}
}

func TestEncode_SingleColumnReshape(t *testing.T) {
	v, _ := juliabridge.Matrix(3, 1, []juliabridge.Value{
		juliabridge.Int32(1), juliabridge.Int32(2), juliabridge.Int32(3),
	})
	got, err := Encode(v)
	if err != nil {
		t.Fatal(err)
	}
	if got != "reshape(Int32[1,2,3],3,1)" {
		t.Errorf("Encode = %q, want reshape(Int32[1,2,3],3,1)", got)
	}
}

func TestEncode_Rejects(t *testing.T) {
	t.Run("three dims", func(t *testing.T) {
		v := juliabridge.Value{
			Kind:  juliabridge.KindArray,
			Dims:  []int{1, 1, 1},
			Elems: []juliabridge.Value{juliabridge.Double(1)},
		}
		_, err := Encode(v)
		if err == nil {
			t.Fatal("expected error")
		}
		if !strings.Contains(err.Error(), "not handled") {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("error code", func(t *testing.T) {
		if _, err := Encode(juliabridge.ErrorCode(2042)); err == nil {
			t.Error("expected error")
		}
	})
}

func TestCallExpression(t *testing.T) {
	v, _ := juliabridge.Vector([]juliabridge.Value{
		juliabridge.Double(1), juliabridge.Double(2),
	})
	got, err := CallExpression("sum", v)
	if err != nil {
		t.Fatal(err)
	}
	if got != "sum(Float64[1.0,2.0])" {
		t.Errorf("CallExpression = %q", got)
	}

	got, err = CallExpression("string", juliabridge.String("a"), juliabridge.Int32(2))
	if err != nil {
		t.Fatal(err)
	}
	if got != `string("a",2)` {
		t.Errorf("CallExpression = %q", got)
	}

	if _, err := CallExpression(""); err == nil {
		t.Error("empty function name should fail")
	}
}

func TestSerialConversion(t *testing.T) {
	// Serial 2 is 1900-01-01 against the 1899-12-30 epoch.
	if got := TimeToSerial(time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)); got != 2 {
		t.Errorf("TimeToSerial(1900-01-01) = %v, want 2", got)
	}
}
