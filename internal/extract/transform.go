package extract

import (
	"fmt"

	"github.com/dop251/goja"
)

// transformVM evaluates per-field transform expressions. Compiled programs
// are cached so a transform is only parsed once per run.
type transformVM struct {
	runtime  *goja.Runtime
	programs map[string]*goja.Program
}

func newTransformVM() *transformVM {
	return &transformVM{
		runtime:  goja.New(),
		programs: make(map[string]*goja.Program),
	}
}

// apply evaluates expr with the raw extracted string bound as `value` and
// returns the expression result as a string
func (vm *transformVM) apply(expr, value string) (string, error) {
	prog, ok := vm.programs[expr]
	if !ok {
		var err error
		prog, err = goja.Compile("transform", expr, true)
		if err != nil {
			return "", fmt.Errorf("invalid transform expression: %w", err)
		}
		vm.programs[expr] = prog
	}

	if err := vm.runtime.Set("value", value); err != nil {
		return "", err
	}
	result, err := vm.runtime.RunProgram(prog)
	if err != nil {
		return "", fmt.Errorf("transform failed: %w", err)
	}
	if result == nil || goja.IsUndefined(result) || goja.IsNull(result) {
		return "", fmt.Errorf("transform returned no value")
	}
	return result.String(), nil
}
