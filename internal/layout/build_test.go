package layout

import "testing"

// fakeOracle models a typical linked-list node:
//
//	struct Node { int id; int count; char name[16]; struct Node *next; };
//
// sizeof(Node) == 32, fields at 0/4/8/0x18.
type fakeOracle struct{}

func (fakeOracle) SizeOf(expr string) (int64, error) {
	switch expr {
	case "node0":
		return 32, nil
	case "node0.id", "node0.count":
		return 4, nil
	case "node0.name":
		return 16, nil
	case "node0.next":
		return 8, nil
	}
	return 0, nil
}

func (fakeOracle) OffsetOf(parentExpr, fieldExpr string) (int64, error) {
	switch fieldExpr {
	case "node0.id":
		return 0, nil
	case "node0.count":
		return 4, nil
	case "node0.name":
		return 8, nil
	case "node0.next":
		return 0x18, nil
	}
	return 0, nil
}

func (fakeOracle) FieldNames(typeStr string) ([]string, error) {
	return []string{"id", "count", "name", "next"}, nil
}

func (fakeOracle) FieldType(parentExpr, fieldName string) (string, error) {
	switch fieldName {
	case "id", "count":
		return "int", nil
	case "name":
		return "char [16]", nil
	case "next":
		return "struct Node *", nil
	}
	return "", nil
}

func TestBuildShapeStructLayout(t *testing.T) {
	shape, err := BuildShape(fakeOracle{}, "node0", "struct Node")
	if err != nil {
		t.Fatalf("BuildShape: %v", err)
	}
	if shape.Kind != Struct || shape.Size != 32 {
		t.Fatalf("got %+v", shape)
	}
	want := []Field{
		{Offset: 0, Size: 4, Name: "id"},
		{Offset: 4, Size: 4, Name: "count"},
		{Offset: 8, Size: 16, Name: "name"},
		{Offset: 0x18, Size: 8, Name: "next"},
	}
	if len(shape.Fields) != len(want) {
		t.Fatalf("got %d fields, want %d", len(shape.Fields), len(want))
	}
	for i, f := range shape.Fields {
		if f.Offset != want[i].Offset || f.Size != want[i].Size || f.Name != want[i].Name {
			t.Errorf("field %d: got %+v, want %+v", i, f, want[i])
		}
	}
}

type overlapOracle struct{ fakeOracle }

func (overlapOracle) OffsetOf(parentExpr, fieldExpr string) (int64, error) {
	switch fieldExpr {
	case "node0.id":
		return 0, nil
	case "node0.count":
		return 2, nil // overlaps id (size 4, offset 0..4)
	case "node0.name":
		return 8, nil
	case "node0.next":
		return 0x18, nil
	}
	return 0, nil
}

func TestBuildShapeDetectsOverlap(t *testing.T) {
	_, err := BuildShape(overlapOracle{}, "node0", "struct Node")
	if err == nil {
		t.Fatalf("expected InconsistentLayout")
	}
	if _, ok := err.(*InconsistentLayout); !ok {
		t.Fatalf("got %T: %v", err, err)
	}
}
