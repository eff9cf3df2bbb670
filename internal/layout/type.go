// Package layout turns debugger-reported type strings plus raw byte reads
// into structured memory views: field/element offsets and sizes,
// endianness-aware decoding, and pointer-chain traversal. It has no
// knowledge of the machine interface or the debugger subprocess; callers
// supply an Oracle that answers the handful of auxiliary queries (sizeof,
// address-of-field) the layout algorithm needs, keeping the decoders
// independent of how the bytes were obtained.
package layout

import (
	"fmt"
	"strconv"
	"strings"
)

// ShapeKind discriminates the TypeShape sum type.
type ShapeKind int

const (
	Scalar ShapeKind = iota
	Array
	Pointer
	Struct
	Opaque
)

func (k ShapeKind) String() string {
	switch k {
	case Scalar:
		return "scalar"
	case Array:
		return "array"
	case Pointer:
		return "pointer"
	case Struct:
		return "struct"
	case Opaque:
		return "opaque"
	default:
		return "unknown"
	}
}

// Field describes one member of a Struct shape.
type Field struct {
	Offset int64
	Size   int64
	Name   string
	Type   string // the field's own type string, as reported by the debugger
	Shape  *TypeShape
}

// TypeShape is the parsed, size-annotated shape of a debugger type string.
type TypeShape struct {
	Kind ShapeKind

	// Scalar / Opaque
	Name string
	Size int64

	// Array
	Element *TypeShape
	Count   int64

	// Pointer
	PointeeType string

	// Struct
	Fields []Field
}

// UnparseableType is returned when a type string does not match the
// minimal C-ish grammar this package understands.
type UnparseableType struct {
	TypeString string
	Reason     string
}

func (e *UnparseableType) Error() string {
	return fmt.Sprintf("unparseable-type: %q: %s", e.TypeString, e.Reason)
}

// InconsistentLayout is returned when a struct's computed fields violate
// the struct-layout invariants (overlap, or field end past the struct's
// reported total size).
type InconsistentLayout struct {
	Reason string
}

func (e *InconsistentLayout) Error() string { return fmt.Sprintf("inconsistent-layout: %s", e.Reason) }

// qualifiers that may prefix a base type and carry no layout meaning of
// their own (their effect, e.g. "unsigned", is folded into the debugger's
// own rendering of the base type name).
var qualifiers = map[string]bool{
	"const": true, "volatile": true, "static": true,
	"unsigned": true, "signed": true, "short": true, "long": true,
}

// ParseTypeString parses the minimal grammar this package understands:
//
//	type    := qualifier* base suffix*
//	base    := ident | "struct" ident | "union" ident | "enum" ident
//	suffix  := "*" | "[" int "]"
//
// It returns the shape's outermost structural kind (Pointer/Array/Scalar)
// without sizes; BuildShape fills in sizes via an Oracle. Pointer suffixes bind right; array suffixes apply in postfix
// order, matching the debugger's own rendering rather than attempting to
// second-guess it.
func ParseTypeString(s string) (TypeShape, error) {
	orig := s
	s = strings.TrimSpace(s)
	if s == "" {
		return TypeShape{}, &UnparseableType{TypeString: orig, Reason: "empty type string"}
	}

	// Peel off trailing suffixes first: pointer/array markers are at the
	// end of the debugger's rendering ("struct Node *", "int [5]").
	var suffixes []typeSuffix
	for {
		t := strings.TrimSpace(s)
		if strings.HasSuffix(t, "*") {
			suffixes = append(suffixes, typeSuffix{isPointer: true})
			s = strings.TrimSpace(strings.TrimSuffix(t, "*"))
			continue
		}
		if strings.HasSuffix(t, "]") {
			open := strings.LastIndex(t, "[")
			if open < 0 {
				return TypeShape{}, &UnparseableType{TypeString: orig, Reason: "unbalanced array suffix"}
			}
			countStr := strings.TrimSpace(t[open+1 : len(t)-1])
			var count int64
			if countStr != "" {
				n, err := strconv.ParseInt(countStr, 10, 64)
				if err != nil {
					return TypeShape{}, &UnparseableType{TypeString: orig, Reason: "non-numeric array length"}
				}
				count = n
			}
			suffixes = append(suffixes, typeSuffix{count: count})
			s = strings.TrimSpace(t[:open])
			continue
		}
		break
	}

	base := parseBase(s)
	if base == "" {
		return TypeShape{}, &UnparseableType{TypeString: orig, Reason: "empty base type"}
	}

	// Build from the innermost (base) outward; suffixes were collected
	// outermost-first, so apply in reverse.
	shape := TypeShape{Kind: Scalar, Name: base}
	for i := len(suffixes) - 1; i >= 0; i-- {
		suf := suffixes[i]
		if suf.isPointer {
			shape = TypeShape{Kind: Pointer, PointeeType: renderType(base, suffixes[i+1:])}
		} else {
			inner := shape
			shape = TypeShape{Kind: Array, Element: &inner, Count: suf.count}
		}
	}
	return shape, nil
}

// typeSuffix is one trailing pointer or array marker peeled off a
// debugger-rendered type string, outermost first.
type typeSuffix struct {
	isPointer bool
	count     int64 // valid when !isPointer
}

// renderType reconstructs a type string for the pointee of a pointer
// suffix, used so PointeeType stays a debugger-shaped string that a
// follow-up evaluate/sizeof query can reuse. remaining holds the suffixes
// inside that pointer, outermost first, and is rendered innermost first.
func renderType(base string, remaining []typeSuffix) string {
	var b strings.Builder
	b.WriteString(base)
	for j := len(remaining) - 1; j >= 0; j-- {
		s := remaining[j]
		if s.isPointer {
			b.WriteString(" *")
		} else {
			fmt.Fprintf(&b, "[%d]", s.count)
		}
	}
	return b.String()
}

func parseBase(s string) string {
	fields := strings.Fields(s)
	i := 0
	for i < len(fields) && qualifiers[fields[i]] {
		i++
	}
	if i == len(fields) {
		// Every word was a qualifier (e.g. "unsigned long", "long long");
		// those words are themselves the base type name in C, so keep the
		// whole thing rather than stripping it to nothing.
		return strings.Join(fields, " ")
	}
	return strings.Join(fields[i:], " ")
}

// IsStructOrUnion reports whether a base type name names an aggregate
// (as opposed to a scalar/enum).
func IsStructOrUnion(base string) bool {
	return strings.HasPrefix(base, "struct ") || strings.HasPrefix(base, "union ")
}
