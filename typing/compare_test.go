package typing

import "testing"

func TestPrimEquality(t *testing.T) {
	if !Equals(PrimInt, PrimInt) {
		t.Fatalf("int must equal int")
	}
	if Equals(PrimInt, PrimBool) {
		t.Fatalf("int must not equal bool")
	}
}

func TestClassEqualityIsByID(t *testing.T) {
	if !Equals(ClassType{ID: 3, Name: "A"}, ClassType{ID: 3, Name: "B"}) {
		t.Fatalf("class types with equal IDs must be equal")
	}
	if Equals(ClassType{ID: 1}, ClassType{ID: 2}) {
		t.Fatalf("class types with different IDs must differ")
	}
}

func TestFuncEqualityIsStructural(t *testing.T) {
	a := &FuncType{Params: []DataType{PrimInt, PrimBool}, ReturnType: PrimVoid}
	b := &FuncType{Params: []DataType{PrimInt, PrimBool}, ReturnType: PrimVoid}
	c := &FuncType{Params: []DataType{PrimInt}, ReturnType: PrimVoid}

	if !Equals(a, b) {
		t.Fatalf("structurally equal function types must be equal")
	}
	if Equals(a, c) {
		t.Fatalf("function types with different params must differ")
	}
}

func TestSameParams(t *testing.T) {
	a := &FuncType{Params: []DataType{PrimInt}, ReturnType: PrimVoid}
	b := &FuncType{Params: []DataType{PrimInt}, ReturnType: PrimInt}

	if !SameParams(a, b) {
		t.Fatalf("same parameter lists must match regardless of return type")
	}

	c := &FuncType{Params: []DataType{PrimFloat}, ReturnType: PrimInt}
	if SameParams(a, c) {
		t.Fatalf("different parameter lists must not match")
	}
}
