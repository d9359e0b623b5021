package ir

// NumberRepr is the machine representation of a numeric type.
type NumberRepr int

const (
	Int8 NumberRepr = iota
	Uint8
	Int16
	Uint16
	Int32
	Uint32
	Int64
	Uint64
	Int128
	Uint128
	Float32
	Float64
	LongDouble
)

var numberReprNames = [...]string{
	Int8:       "int8",
	Uint8:      "uint8",
	Int16:      "int16",
	Uint16:     "uint16",
	Int32:      "int32",
	Uint32:     "uint32",
	Int64:      "int64",
	Uint64:     "uint64",
	Int128:     "int128",
	Uint128:    "uint128",
	Float32:    "float32",
	Float64:    "float64",
	LongDouble: "longdouble",
}

func (r NumberRepr) String() string {
	if r < 0 || int(r) >= len(numberReprNames) {
		return "unknown"
	}
	return numberReprNames[r]
}

// ParseNumberRepr is the inverse of String.
func ParseNumberRepr(s string) (NumberRepr, bool) {
	for i, name := range numberReprNames {
		if name == s {
			return NumberRepr(i), true
		}
	}
	return 0, false
}

// Bits returns the storage width in bits. Long double reports 128, the
// widest layout in common ABIs.
func (r NumberRepr) Bits() int {
	switch r {
	case Int8, Uint8:
		return 8
	case Int16, Uint16:
		return 16
	case Int32, Uint32, Float32:
		return 32
	case Int64, Uint64, Float64:
		return 64
	default:
		return 128
	}
}

// Float reports whether r is a floating point representation.
func (r NumberRepr) Float() bool {
	return r == Float32 || r == Float64 || r == LongDouble
}

// Signed reports whether r can hold negative values.
func (r NumberRepr) Signed() bool {
	switch r {
	case Uint8, Uint16, Uint32, Uint64, Uint128:
		return false
	}
	return true
}

// IntRepr returns the integer representation with the given byte size.
func IntRepr(size int, signed bool) (NumberRepr, bool) {
	var r NumberRepr
	switch size {
	case 1:
		r = Int8
	case 2:
		r = Int16
	case 4:
		r = Int32
	case 8:
		r = Int64
	case 16:
		r = Int128
	default:
		return 0, false
	}
	if !signed {
		r++
	}
	return r, true
}
