package typing

// Equals returns whether two types are exactly structurally equal.  Class
// types compare by their assigned IDs.
func Equals(a, b DataType) bool {
	if a == nil || b == nil {
		return a == b
	}

	return a.equals(b)
}

// IsVoid returns whether a type is the void type.
func IsVoid(dt DataType) bool {
	return Equals(dt, PrimVoid)
}

// SameParams returns whether two function types accept the same parameter
// lists.  It is used for the relaxed function expectation check: a slot typed
// `(params) -> void` accepts a function of any return type over the same
// parameters, which lets lambdas whose return type is not yet known be bound
// to function-typed names.
func SameParams(a, b *FuncType) bool {
	if len(a.Params) != len(b.Params) {
		return false
	}

	for i, param := range a.Params {
		if !Equals(param, b.Params[i]) {
			return false
		}
	}

	return true
}
