package juliabridge

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	KindDouble Kind = iota
	KindSingle
	KindInt16
	KindInt32
	KindInt64
	KindCurrency
	KindDecimal
	KindBool
	KindDate
	KindString
	KindEmpty
	KindNull
	KindErrorCode
	KindArray
)

var kindNames = [...]string{
	KindDouble:    "double",
	KindSingle:    "single",
	KindInt16:     "int16",
	KindInt32:     "int32",
	KindInt64:     "int64",
	KindCurrency:  "currency",
	KindDecimal:   "decimal",
	KindBool:      "bool",
	KindDate:      "date",
	KindString:    "string",
	KindEmpty:     "empty",
	KindNull:      "null",
	KindErrorCode: "error-code",
	KindArray:     "array",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// IsScalar reports whether the kind is a scalar (everything except array).
func (k Kind) IsScalar() bool {
	return k != KindArray
}

// IsNumeric reports whether the kind carries a numeric payload.
func (k Kind) IsNumeric() bool {
	switch k {
	case KindDouble, KindSingle, KindInt16, KindInt32, KindInt64,
		KindCurrency, KindDecimal, KindDate:
		return true
	}
	return false
}
