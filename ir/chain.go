package ir

// PointerChain dereferences nested pointers down to the first non-pointer
// type. depth is 0 when t is not a pointer, 1 for int*, 2 for int**.
func PointerChain(t Type) (final Type, depth int) {
	for {
		p, ok := t.(*PointerType)
		if !ok {
			return t, depth
		}
		t = p.Elem
		depth++
	}
}

// ArrayChain unwraps nested arrays down to the first non-array type. length
// is the product of the dimensions, or 0 if any dimension is incomplete.
func ArrayChain(t Type) (final Type, depth, length int) {
	length = 1
	for {
		a, ok := t.(*ArrayType)
		if !ok {
			if depth == 0 {
				length = 0
			}
			return t, depth, length
		}
		length *= a.Size
		t = a.Elem
		depth++
	}
}

// Indirection unwraps one pointer or array level, whichever t is.
// ok is false for every other kind.
func Indirection(t Type) (elem Type, ok bool) {
	switch t := t.(type) {
	case *PointerType:
		return t.Elem, true
	case *ArrayType:
		return t.Elem, true
	}
	return nil, false
}

// Terminal unwraps any mix of pointers and arrays and reports how many
// levels were removed.
func Terminal(t Type) (final Type, depth int) {
	for {
		elem, ok := Indirection(t)
		if !ok {
			return t, depth
		}
		t = elem
		depth++
	}
}
