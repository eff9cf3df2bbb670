// Package mi implements the wire grammar of the debugger's line-oriented
// machine interface: record framing, the nested tuple/list value grammar,
// and C-escaped string decoding.
package mi

import "strings"

// Value is the recursive sum type for machine-interface values. Exactly one
// of the accessor-relevant fields is meaningful, selected by Kind.
type Value struct {
	Kind Kind

	str   string
	tuple []pair     // Tuple: ordered, unique names
	list  []Value    // List: homogeneous or not, no names
	named []pair     // NamedList: ordered, names may repeat
}

type pair struct {
	name string
	val  Value
}

// Kind discriminates the variant held by a Value.
type Kind int

const (
	KindConst Kind = iota
	KindTuple
	KindList
	KindNamedList
)

// Const builds a string-valued leaf.
func Const(s string) Value { return Value{Kind: KindConst, str: s} }

// Str returns the decoded string for a Const value, or "" otherwise.
func (v Value) Str() string {
	if v.Kind != KindConst {
		return ""
	}
	return v.str
}

// NewTuple builds a Tuple from an ordered set of (name, value) pairs.
// Names must be non-empty and unique; callers that violate this get
// last-value-wins, as the parser does for a repeated name among a
// record's trailing name=value pairs (a repeated name inside a braced
// tuple is a MalformedRecord instead).
func NewTuple(entries ...struct {
	Name string
	Val  Value
}) Value {
	v := Value{Kind: KindTuple}
	for _, e := range entries {
		v.tuplePut(e.Name, e.Val)
	}
	return v
}

func (v *Value) tuplePut(name string, val Value) {
	for i := range v.tuple {
		if v.tuple[i].name == name {
			v.tuple[i].val = val
			return
		}
	}
	v.tuple = append(v.tuple, pair{name, val})
}

// Field looks up a name in a Tuple. ok is false if v is not a Tuple or the
// name is absent.
func (v Value) Field(name string) (Value, bool) {
	if v.Kind != KindTuple {
		return Value{}, false
	}
	for _, p := range v.tuple {
		if p.name == name {
			return p.val, true
		}
	}
	return Value{}, false
}

// FieldStr is a convenience for Field followed by Str, returning "" if
// either lookup fails.
func (v Value) FieldStr(name string) string {
	f, ok := v.Field(name)
	if !ok {
		return ""
	}
	return f.Str()
}

// Names returns the tuple's field names in insertion order.
func (v Value) Names() []string {
	if v.Kind != KindTuple {
		return nil
	}
	names := make([]string, len(v.tuple))
	for i, p := range v.tuple {
		names[i] = p.name
	}
	return names
}

// NewList builds a List value.
func NewList(items ...Value) Value {
	return Value{Kind: KindList, list: items}
}

// Items returns a List's elements, or nil if v is not a List.
func (v Value) Items() []Value {
	if v.Kind != KindList {
		return nil
	}
	return v.list
}

// NewNamedList builds a NamedList value (a bracketed list of name=value
// pairs, as the wire uses for e.g. "locals=[{name=...},{name=...}]" already
// unwrapped one level, or for result payloads with repeated keys).
func NewNamedList(entries ...struct {
	Name string
	Val  Value
}) Value {
	v := Value{Kind: KindNamedList}
	for _, e := range entries {
		v.named = append(v.named, pair{e.Name, e.Val})
	}
	return v
}

// NamedItems returns a NamedList's (name, value) pairs in order.
func (v Value) NamedItems() []struct {
	Name string
	Val  Value
} {
	if v.Kind != KindNamedList {
		return nil
	}
	out := make([]struct {
		Name string
		Val  Value
	}, len(v.named))
	for i, p := range v.named {
		out[i] = struct {
			Name string
			Val  Value
		}{p.name, p.val}
	}
	return out
}

// Encode renders v back into MI wire syntax. It is the structural inverse
// of Parse's value grammar: encode(parse(s)) == encode(parse(encode(parse(s)))),
// a fixed point on the tree even when it is not byte-identical to s.
func (v Value) Encode() string {
	var b strings.Builder
	v.encode(&b)
	return b.String()
}

func (v Value) encode(b *strings.Builder) {
	switch v.Kind {
	case KindConst:
		b.WriteByte('"')
		b.WriteString(EscapeString(v.str))
		b.WriteByte('"')
	case KindTuple:
		b.WriteByte('{')
		for i, p := range v.tuple {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(p.name)
			b.WriteByte('=')
			p.val.encode(b)
		}
		b.WriteByte('}')
	case KindList:
		b.WriteByte('[')
		for i, it := range v.list {
			if i > 0 {
				b.WriteByte(',')
			}
			it.encode(b)
		}
		b.WriteByte(']')
	case KindNamedList:
		b.WriteByte('[')
		for i, p := range v.named {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(p.name)
			b.WriteByte('=')
			p.val.encode(b)
		}
		b.WriteByte(']')
	}
}
