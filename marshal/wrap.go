package marshal

import (
	"github.com/broady/bindgen/ir"
)

// Wrap converts the native value from into the script value dest, which the
// caller has declared. Unsupported types leave dest undefined and record a
// warning on ctx.
func (s *Synthesizer) Wrap(t ir.Type, from, dest string, ctx *Context) []Op {
	switch t := t.(type) {
	case *ir.VoidType:
		return []Op{WrapUndefined{Dest: dest}}
	case *ir.BoolType:
		return []Op{WrapBool{Dest: dest, From: from}}
	case *ir.CharType:
		return []Op{WrapChar{Dest: dest, From: from}}
	case *ir.NumberType, *ir.EnumType:
		return []Op{WrapNumber{Dest: dest, From: from, Type: t}}

	case *ir.RecordType:
		rec := s.Module.Record(t.Ref)
		if rec == nil {
			break
		}
		if rec.IsClass() {
			return []Op{WrapNative{Dest: dest, From: from, Record: rec}}
		}
		if ctx.converting(rec) {
			break
		}
		return s.wrapRecord(rec, from, dest, ctx)

	case *ir.PointerType, *ir.ArrayType:
		_, isArray := t.(*ir.ArrayType)
		switch shapeOf(s.Module, t) {
		case shapeString:
			return []Op{WrapString{Dest: dest, From: from, Array: isArray}}
		case shapeBuffer:
			elem, count := bufferElem(t)
			if count == 0 {
				count = 1
			}
			return []Op{WrapBuffer{Dest: dest, From: from, Elem: elem, Count: count, Array: isArray}}
		case shapeRecordPtr:
			rec := s.Module.Record(t.(*ir.PointerType).Elem.(*ir.RecordType).Ref)
			if rec.IsClass() {
				return []Op{WrapNative{Dest: dest, From: from, Record: rec, Pointer: true}}
			}
			if ctx.converting(rec) {
				break
			}
			return []Op{WrapNullable{Dest: dest, From: from, Body: s.wrapRecord(rec, "(*"+from+")", dest, ctx)}}
		}
	}

	ctx.unsupported(t)
	return []Op{Placeholder{Dest: dest, Type: t, Wrap: true}}
}

// wrapRecord builds a plain object with one property per field. Unions wrap
// every member; the reader picks the one that is meaningful.
func (s *Synthesizer) wrapRecord(rec *ir.RecordDecl, from, dest string, ctx *Context) []Op {
	ctx, _ = ctx.enter(rec)
	ops := []Op{WrapRecord{Dest: dest, Record: rec}}
	for i, f := range rec.Fields {
		if TagOf(s.Module, f.Type) == TagAny || s.recursive(f.Type, ctx) {
			ctx.At(f.Name).unsupported(f.Type)
			continue
		}
		js := ctx.Scope.Reserve(fieldLocal(dest, i, f.Name) + "_js")
		ops = append(ops, Declare{Name: js})
		ops = append(ops, s.Wrap(f.Type, from+"."+f.Name, js, ctx.At(f.Name))...)
		ops = append(ops,
			SetProperty{Object: dest, Name: s.property(f.Name), Value: js},
			Release{Name: js},
		)
	}
	return ops
}
