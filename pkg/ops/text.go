package ops

import (
	"fmt"
	"strings"

	"github.com/parametric-labs/searchspace/pkg/types"
)

// registerText registers string operations.
func (r *Registry) registerText() {
	r.Register("concat", nil, textConcat)
	r.Register("join", []string{"parts", "sep"}, textJoin)
	r.Register("str", []string{"a"}, textStr)
}

// textConcat concatenates any number of string arguments.
func textConcat(pos []types.Value, kw map[string]types.Value) (types.Value, error) {
	if len(kw) > 0 {
		return types.Null, fmt.Errorf("concat does not accept keyword arguments")
	}
	var b strings.Builder
	for i, v := range pos {
		if v.Type() != types.TypeString {
			return types.Null, fmt.Errorf("concat argument %d is %s, not string", i, v.Type())
		}
		b.WriteString(v.AsString())
	}
	return types.NewString(b.String()), nil
}

func textJoin(pos []types.Value, kw map[string]types.Value) (types.Value, error) {
	if err := requireArgs("join", pos, kw, 2, 2); err != nil {
		return types.Null, err
	}
	if pos[0].Type() != types.TypeList || pos[1].Type() != types.TypeString {
		return types.Null, fmt.Errorf("join expects (list, string), got (%s, %s)", pos[0].Type(), pos[1].Type())
	}
	parts := make([]string, 0, len(pos[0].AsList()))
	for i, v := range pos[0].AsList() {
		if v.Type() != types.TypeString {
			return types.Null, fmt.Errorf("join element %d is %s, not string", i, v.Type())
		}
		parts = append(parts, v.AsString())
	}
	return types.NewString(strings.Join(parts, pos[1].AsString())), nil
}

func textStr(pos []types.Value, kw map[string]types.Value) (types.Value, error) {
	if err := requireArgs("str", pos, kw, 1, 1); err != nil {
		return types.Null, err
	}
	return types.NewString(pos[0].String()), nil
}
