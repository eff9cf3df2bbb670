package layout

import "golang.org/x/exp/slices"

// Oracle answers the auxiliary size/offset queries the layout algorithm
// needs from the debugger: field offsets and sizes are computed from
// per-field size queries rather than re-deriving a struct's layout from
// first principles. Session implements this by issuing
// -data-evaluate-expression sizeof(...) and pointer-subtraction
// evaluations; tests implement it with a canned table.
type Oracle interface {
	// SizeOf returns sizeof(expr) as reported by the debugger.
	SizeOf(expr string) (int64, error)
	// OffsetOf returns the byte offset of fieldExpr (e.g. "parent.field")
	// from the start of parentExpr, via pointer subtraction.
	OffsetOf(parentExpr, fieldExpr string) (int64, error)
	// FieldNames returns the declared field names of a struct/union type,
	// in declaration order.
	FieldNames(typeStr string) ([]string, error)
	// FieldType returns the type string of one field of parentExpr.
	FieldType(parentExpr, fieldName string) (string, error)
}

// BuildShape resolves a full, size-annotated TypeShape for an expression
// of the given debugger-reported type string, recursing into struct fields
// and array elements as needed.
func BuildShape(o Oracle, expr, typeStr string) (TypeShape, error) {
	shape, err := ParseTypeString(typeStr)
	if err != nil {
		return TypeShape{}, err
	}
	return buildShape(o, expr, typeStr, shape)
}

func buildShape(o Oracle, expr, typeStr string, shape TypeShape) (TypeShape, error) {
	switch shape.Kind {
	case Pointer:
		size, err := o.SizeOf(expr)
		if err != nil {
			return TypeShape{}, err
		}
		shape.Size = size
		shape.Name = typeStr
		return shape, nil

	case Array:
		total, err := o.SizeOf(expr)
		if err != nil {
			return TypeShape{}, err
		}
		shape.Size = total
		if shape.Count > 0 {
			elemSize := total / shape.Count
			elemShape, err := buildShape(o, expr+"[0]", elementTypeString(typeStr), *shape.Element)
			if err != nil {
				return TypeShape{}, err
			}
			elemShape.Size = elemSize
			shape.Element = &elemShape
		}
		return shape, nil

	case Scalar:
		if IsStructOrUnion(shape.Name) {
			return buildStruct(o, expr, shape)
		}
		size, err := o.SizeOf(expr)
		if err != nil {
			return TypeShape{}, err
		}
		shape.Size = size
		return shape, nil

	default:
		size, err := o.SizeOf(expr)
		if err != nil {
			return TypeShape{}, err
		}
		shape.Size = size
		return shape, nil
	}
}

func buildStruct(o Oracle, expr string, shape TypeShape) (TypeShape, error) {
	total, err := o.SizeOf(expr)
	if err != nil {
		return TypeShape{}, err
	}
	shape.Kind = Struct
	shape.Size = total

	names, err := o.FieldNames(shape.Name)
	if err != nil {
		return TypeShape{}, err
	}
	fields := make([]Field, 0, len(names))
	for _, name := range names {
		fieldExpr := expr + "." + name
		offset, err := o.OffsetOf(expr, fieldExpr)
		if err != nil {
			return TypeShape{}, err
		}
		fieldType, err := o.FieldType(expr, name)
		if err != nil {
			return TypeShape{}, err
		}
		size, err := o.SizeOf(fieldExpr)
		if err != nil {
			return TypeShape{}, err
		}
		fieldShapeVal, err := BuildShape(o, fieldExpr, fieldType)
		var fieldShape *TypeShape
		if err == nil {
			fieldShape = &fieldShapeVal
		}
		fields = append(fields, Field{
			Offset: offset,
			Size:   size,
			Name:   name,
			Type:   fieldType,
			Shape:  fieldShape,
		})
	}
	slices.SortFunc(fields, func(a, b Field) int {
		switch {
		case a.Offset < b.Offset:
			return -1
		case a.Offset > b.Offset:
			return 1
		default:
			return 0
		}
	})
	shape.Fields = fields

	if err := validateStructLayout(shape); err != nil {
		return TypeShape{}, err
	}
	return shape, nil
}

// validateStructLayout checks the struct-view invariants: fields sorted by
// offset (guaranteed by construction above, rechecked here), no two fields
// overlap, and no field ends past the struct's declared size.
func validateStructLayout(shape TypeShape) error {
	for i, f := range shape.Fields {
		if f.Offset+f.Size > shape.Size {
			return &InconsistentLayout{Reason: "field " + f.Name + " ends past struct size"}
		}
		if i > 0 {
			prev := shape.Fields[i-1]
			if f.Offset < prev.Offset+prev.Size {
				return &InconsistentLayout{Reason: "fields " + prev.Name + " and " + f.Name + " overlap"}
			}
		}
	}
	return nil
}

// elementTypeString strips one trailing array suffix from a debugger type
// string, e.g. "int [5]" -> "int".
func elementTypeString(typeStr string) string {
	s := typeStr
	for len(s) > 0 && s[len(s)-1] == ' ' {
		s = s[:len(s)-1]
	}
	if len(s) == 0 || s[len(s)-1] != ']' {
		return typeStr
	}
	open := -1
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '[' {
			open = i
			break
		}
	}
	if open < 0 {
		return typeStr
	}
	result := s[:open]
	for len(result) > 0 && result[len(result)-1] == ' ' {
		result = result[:len(result)-1]
	}
	return result
}
