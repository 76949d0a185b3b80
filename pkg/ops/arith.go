package ops

import (
	"fmt"
	"math"

	"github.com/parametric-labs/searchspace/pkg/graph"
	"github.com/parametric-labs/searchspace/pkg/types"
)

// registerArith registers the arithmetic operations deferred expressions are
// composed from.
func (r *Registry) registerArith() {
	r.Register("add", []string{"a", "b"}, arithAdd)
	r.Register("sub", []string{"a", "b"}, arith2("sub", func(a, b int64) int64 { return a - b },
		func(a, b float64) float64 { return a - b }))
	r.Register("mul", []string{"a", "b"}, arith2("mul", func(a, b int64) int64 { return a * b },
		func(a, b float64) float64 { return a * b }))
	r.Register("div", []string{"a", "b"}, arithDiv)
	r.Register("floordiv", []string{"a", "b"}, arithFloorDiv)
	r.Register("mod", []string{"a", "b"}, arithMod)
	r.Register("pow", []string{"a", "b"}, arithPow)
	r.Register("neg", []string{"a"}, arithNeg)
	r.Register("abs", []string{"a"}, arithAbs)
	r.Register("min", []string{"a", "b"}, arithMin)
	r.Register("max", []string{"a", "b"}, arithMax)
	r.Register("log", []string{"a"}, arithLog)
	r.Register("exp", []string{"a"}, arithExp)
	r.Register("int", []string{"a"}, convInt)
	r.Register("float", []string{"a"}, convFloat)
}

// arith2 builds a binary numeric operation that stays integer when both
// operands are integers.
func arith2(name string, intOp func(a, b int64) int64, floatOp func(a, b float64) float64) graph.Func {
	return func(pos []types.Value, kw map[string]types.Value) (types.Value, error) {
		if err := requireArgs(name, pos, kw, 2, 2); err != nil {
			return types.Null, err
		}
		a, b := pos[0], pos[1]
		if bothInt(a, b) {
			return types.NewInt(intOp(a.AsInt(), b.AsInt())), nil
		}
		fa, err := number(name, a)
		if err != nil {
			return types.Null, err
		}
		fb, err := number(name, b)
		if err != nil {
			return types.Null, err
		}
		return types.NewDouble(floatOp(fa, fb)), nil
	}
}

func arithAdd(pos []types.Value, kw map[string]types.Value) (types.Value, error) {
	if err := requireArgs("add", pos, kw, 2, 2); err != nil {
		return types.Null, err
	}
	a, b := pos[0], pos[1]
	// add doubles as string and list concatenation, as operator.add does.
	if a.Type() == types.TypeString && b.Type() == types.TypeString {
		return types.NewString(a.AsString() + b.AsString()), nil
	}
	if a.Type() == types.TypeList && b.Type() == types.TypeList {
		items := make([]types.Value, 0, len(a.AsList())+len(b.AsList()))
		items = append(items, a.AsList()...)
		items = append(items, b.AsList()...)
		return types.NewList(items), nil
	}
	return arith2("add", func(x, y int64) int64 { return x + y },
		func(x, y float64) float64 { return x + y })(pos, kw)
}

func arithDiv(pos []types.Value, kw map[string]types.Value) (types.Value, error) {
	if err := requireArgs("div", pos, kw, 2, 2); err != nil {
		return types.Null, err
	}
	a, err := number("div", pos[0])
	if err != nil {
		return types.Null, err
	}
	b, err := number("div", pos[1])
	if err != nil {
		return types.Null, err
	}
	if b == 0 {
		return types.Null, fmt.Errorf("division by zero")
	}
	return types.NewDouble(a / b), nil
}

func arithFloorDiv(pos []types.Value, kw map[string]types.Value) (types.Value, error) {
	if err := requireArgs("floordiv", pos, kw, 2, 2); err != nil {
		return types.Null, err
	}
	a, b := pos[0], pos[1]
	if bothInt(a, b) {
		if b.AsInt() == 0 {
			return types.Null, fmt.Errorf("division by zero")
		}
		return types.NewInt(floorDivInt(a.AsInt(), b.AsInt())), nil
	}
	fa, err := number("floordiv", a)
	if err != nil {
		return types.Null, err
	}
	fb, err := number("floordiv", b)
	if err != nil {
		return types.Null, err
	}
	if fb == 0 {
		return types.Null, fmt.Errorf("division by zero")
	}
	return types.NewDouble(math.Floor(fa / fb)), nil
}

// floorDivInt rounds toward negative infinity, not toward zero.
func floorDivInt(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func arithMod(pos []types.Value, kw map[string]types.Value) (types.Value, error) {
	if err := requireArgs("mod", pos, kw, 2, 2); err != nil {
		return types.Null, err
	}
	a, b := pos[0], pos[1]
	if bothInt(a, b) {
		if b.AsInt() == 0 {
			return types.Null, fmt.Errorf("division by zero")
		}
		m := a.AsInt() % b.AsInt()
		if m != 0 && (m < 0) != (b.AsInt() < 0) {
			m += b.AsInt()
		}
		return types.NewInt(m), nil
	}
	fa, err := number("mod", a)
	if err != nil {
		return types.Null, err
	}
	fb, err := number("mod", b)
	if err != nil {
		return types.Null, err
	}
	if fb == 0 {
		return types.Null, fmt.Errorf("division by zero")
	}
	m := math.Mod(fa, fb)
	if m != 0 && (m < 0) != (fb < 0) {
		m += fb
	}
	return types.NewDouble(m), nil
}

func arithPow(pos []types.Value, kw map[string]types.Value) (types.Value, error) {
	if err := requireArgs("pow", pos, kw, 2, 2); err != nil {
		return types.Null, err
	}
	a, b := pos[0], pos[1]
	if bothInt(a, b) && b.AsInt() >= 0 {
		result := int64(1)
		base, exp := a.AsInt(), b.AsInt()
		for i := int64(0); i < exp; i++ {
			result *= base
		}
		return types.NewInt(result), nil
	}
	fa, err := number("pow", a)
	if err != nil {
		return types.Null, err
	}
	fb, err := number("pow", b)
	if err != nil {
		return types.Null, err
	}
	return types.NewDouble(math.Pow(fa, fb)), nil
}

func arithNeg(pos []types.Value, kw map[string]types.Value) (types.Value, error) {
	if err := requireArgs("neg", pos, kw, 1, 1); err != nil {
		return types.Null, err
	}
	switch pos[0].Type() {
	case types.TypeInt:
		return types.NewInt(-pos[0].AsInt()), nil
	case types.TypeDouble:
		return types.NewDouble(-pos[0].AsDouble()), nil
	}
	return types.Null, fmt.Errorf("neg requires a number argument, got %s", pos[0].Type())
}

func arithAbs(pos []types.Value, kw map[string]types.Value) (types.Value, error) {
	if err := requireArgs("abs", pos, kw, 1, 1); err != nil {
		return types.Null, err
	}
	switch pos[0].Type() {
	case types.TypeInt:
		i := pos[0].AsInt()
		if i < 0 {
			i = -i
		}
		return types.NewInt(i), nil
	case types.TypeDouble:
		return types.NewDouble(math.Abs(pos[0].AsDouble())), nil
	}
	return types.Null, fmt.Errorf("abs requires a number argument, got %s", pos[0].Type())
}

func arithMin(pos []types.Value, kw map[string]types.Value) (types.Value, error) {
	if err := requireArgs("min", pos, kw, 2, 2); err != nil {
		return types.Null, err
	}
	a, err := number("min", pos[0])
	if err != nil {
		return types.Null, err
	}
	b, err := number("min", pos[1])
	if err != nil {
		return types.Null, err
	}
	if a <= b {
		return pos[0], nil
	}
	return pos[1], nil
}

func arithMax(pos []types.Value, kw map[string]types.Value) (types.Value, error) {
	if err := requireArgs("max", pos, kw, 2, 2); err != nil {
		return types.Null, err
	}
	a, err := number("max", pos[0])
	if err != nil {
		return types.Null, err
	}
	b, err := number("max", pos[1])
	if err != nil {
		return types.Null, err
	}
	if a >= b {
		return pos[0], nil
	}
	return pos[1], nil
}

func arithLog(pos []types.Value, kw map[string]types.Value) (types.Value, error) {
	if err := requireArgs("log", pos, kw, 1, 1); err != nil {
		return types.Null, err
	}
	a, err := number("log", pos[0])
	if err != nil {
		return types.Null, err
	}
	if a <= 0 {
		return types.Null, fmt.Errorf("log of non-positive number %g", a)
	}
	return types.NewDouble(math.Log(a)), nil
}

func arithExp(pos []types.Value, kw map[string]types.Value) (types.Value, error) {
	if err := requireArgs("exp", pos, kw, 1, 1); err != nil {
		return types.Null, err
	}
	a, err := number("exp", pos[0])
	if err != nil {
		return types.Null, err
	}
	return types.NewDouble(math.Exp(a)), nil
}

func convInt(pos []types.Value, kw map[string]types.Value) (types.Value, error) {
	if err := requireArgs("int", pos, kw, 1, 1); err != nil {
		return types.Null, err
	}
	switch pos[0].Type() {
	case types.TypeInt:
		return pos[0], nil
	case types.TypeDouble:
		return types.NewInt(int64(math.Trunc(pos[0].AsDouble()))), nil
	case types.TypeBool:
		if pos[0].AsBool() {
			return types.NewInt(1), nil
		}
		return types.NewInt(0), nil
	}
	return types.Null, fmt.Errorf("cannot convert %s to int", pos[0].Type())
}

func convFloat(pos []types.Value, kw map[string]types.Value) (types.Value, error) {
	if err := requireArgs("float", pos, kw, 1, 1); err != nil {
		return types.Null, err
	}
	f, ok := pos[0].AsNumber()
	if !ok {
		return types.Null, fmt.Errorf("cannot convert %s to float", pos[0].Type())
	}
	return types.NewDouble(f), nil
}
