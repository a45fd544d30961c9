package lower

import (
	"sable/report"
	"sable/typing"

	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
)

// convType maps a resolved source type to its IR type.  Class types map to
// pointers to the class's type alias.
func (l *Lowerer) convType(tp typing.DataType) types.Type {
	switch v := tp.(type) {
	case typing.PrimType:
		switch v {
		case typing.PrimInt:
			return types.I32
		case typing.PrimBool:
			return types.I1
		case typing.PrimFloat:
			return types.Double
		default:
			// typing.PrimVoid
			return types.Void
		}
	case typing.ClassType:
		cls, ok := l.table.Get(v.ID)
		if !ok {
			report.ICE("unknown class ID: %d", v.ID)
		}

		return types.NewPointer(cls.Alias)
	case *typing.FuncType:
		params := make([]types.Type, len(v.Params))
		for i, param := range v.Params {
			params[i] = l.convType(param)
		}

		return types.NewPointer(types.NewFunc(l.convType(v.ReturnType), params...))
	}

	report.ICE("type has no IR mapping: %T", tp)
	return nil
}

// zeroValue returns the zero constant used to initialize module globals of
// the given type.
func (l *Lowerer) zeroValue(tp typing.DataType) constant.Constant {
	switch v := tp.(type) {
	case typing.PrimType:
		switch v {
		case typing.PrimInt:
			return constant.NewInt(types.I32, 0)
		case typing.PrimBool:
			return constant.False
		case typing.PrimFloat:
			return constant.NewFloat(types.Double, 0)
		}
	case typing.ClassType, *typing.FuncType:
		return constant.NewNull(l.convType(tp).(*types.PointerType))
	}

	report.ICE("type has no zero value: %s", tp.Repr())
	return nil
}
