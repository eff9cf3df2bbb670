package layout

import "testing"

func TestParseTypeStringScalar(t *testing.T) {
	shape, err := ParseTypeString("int")
	if err != nil {
		t.Fatalf("ParseTypeString: %v", err)
	}
	if shape.Kind != Scalar || shape.Name != "int" {
		t.Fatalf("got %+v", shape)
	}
}

func TestParseTypeStringPointer(t *testing.T) {
	shape, err := ParseTypeString("struct Node *")
	if err != nil {
		t.Fatalf("ParseTypeString: %v", err)
	}
	if shape.Kind != Pointer || shape.PointeeType != "struct Node" {
		t.Fatalf("got %+v", shape)
	}
}

func TestParseTypeStringArray(t *testing.T) {
	shape, err := ParseTypeString("char [16]")
	if err != nil {
		t.Fatalf("ParseTypeString: %v", err)
	}
	if shape.Kind != Array || shape.Count != 16 || shape.Element.Name != "char" {
		t.Fatalf("got %+v", shape)
	}
}

func TestParseTypeStringQualifiers(t *testing.T) {
	shape, err := ParseTypeString("unsigned long")
	if err != nil {
		t.Fatalf("ParseTypeString: %v", err)
	}
	if shape.Kind != Scalar || shape.Name != "unsigned long" {
		t.Fatalf("got %+v", shape)
	}
}

func TestParseTypeStringEmptyErrors(t *testing.T) {
	_, err := ParseTypeString("")
	if err == nil {
		t.Fatalf("expected UnparseableType")
	}
}
