package vm

import (
	"reflect"
	"strings"
	"testing"

	"ward/internal/bytecode"
	"ward/internal/compiler"
	"ward/internal/interp"
	"ward/internal/lexer"
	"ward/internal/object"
	"ward/internal/parser"
	"ward/internal/resolver"
)

func compileSource(t *testing.T, src string) *bytecode.Program {
	t.Helper()
	tokens, err := lexer.Scan(src)
	if err != nil {
		t.Fatalf("lexing failed: %v", err)
	}
	program, err := parser.Parse(tokens)
	if err != nil {
		t.Fatalf("parsing failed: %v", err)
	}
	compiled, err := compiler.Compile(program)
	if err != nil {
		t.Fatalf("compiling %q failed: %v", src, err)
	}
	return compiled
}

func runVM(t *testing.T, src string) map[string]object.Object {
	t.Helper()
	machine := New()
	registerSharedBuiltins(t, machine)
	globals, err := machine.Run(compileSource(t, src))
	if err != nil {
		t.Fatalf("vm run of %q failed: %v", src, err)
	}
	return globals
}

// registerSharedBuiltins exposes the same callables to the VM that the
// interpreter carries, so compiled calls behave identically.
func registerSharedBuiltins(t *testing.T, machine *VM) {
	t.Helper()
	in, err := interp.New(resolver.New())
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"len", "str", "abs", "min", "max", "sum", "sorted", "upper"} {
		value, ok := in.Builtin(name)
		if !ok {
			t.Fatalf("builtin %q missing", name)
		}
		machine.RegisterBuiltin(name, value)
	}
}

func interpret(t *testing.T, src string) map[string]interface{} {
	t.Helper()
	tokens, err := lexer.Scan(src)
	if err != nil {
		t.Fatal(err)
	}
	program, err := parser.Parse(tokens)
	if err != nil {
		t.Fatal(err)
	}
	in, err := interp.New(resolver.New())
	if err != nil {
		t.Fatal(err)
	}
	result, runErr := in.Execute(program)
	if runErr != nil {
		t.Fatalf("interpreting %q failed: %v", src, runErr)
	}
	return result.Variables
}

// Both engines must agree on every program inside the compilable subset.
func TestVMMatchesInterpreter(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want map[string]interface{}
	}{
		{
			"arithmetic",
			"SET a = 7 + 3 * 2\nSET b = 7 / 2\nSET c = 7 // 2\nSET d = -7 % 3\nSET e = 2 ** 10\n",
			map[string]interface{}{"a": int64(13), "b": 3.5, "c": int64(3), "d": int64(2), "e": int64(1024)},
		},
		{
			"comparisons and logic",
			"SET a = 1 < 2\nSET b = 2 >= 3\nSET c = TRUE AND FALSE\nSET d = FALSE OR TRUE\nSET e = NOT FALSE\nSET f = 2 IN [1, 2]\n",
			map[string]interface{}{"a": true, "b": false, "c": false, "d": true, "e": true, "f": true},
		},
		{
			"string concatenation",
			"SET host = \"db\" + \"1\"\n",
			map[string]interface{}{"host": "db1"},
		},
		{
			"conditional expression",
			"SET x = \"yes\" IF 2 > 1 ELSE \"no\"\nSET y = \"yes\" IF 1 > 2 ELSE \"no\"\n",
			map[string]interface{}{"x": "yes", "y": "no"},
		},
		{
			"if elif else",
			"SET n = 5\nIF n < 3\n    SET bucket = \"low\"\nELIF n < 10\n    SET bucket = \"mid\"\nELSE\n    SET bucket = \"high\"\n",
			map[string]interface{}{"n": int64(5), "bucket": "mid"},
		},
		{
			"while countdown",
			"SET n = 3\nSET total = 0\nWHILE n > 0\n    total = total + n\n    n = n - 1\n",
			map[string]interface{}{"n": int64(0), "total": int64(6)},
		},
		{
			"while break and continue",
			"SET n = 0\nSET odd = 0\nWHILE n < 10\n    n = n + 1\n    IF n % 2 == 0\n        CONTINUE\n    IF n > 6\n        BREAK\n    odd = odd + 1\n",
			map[string]interface{}{"n": int64(7), "odd": int64(3)},
		},
		{
			"while else",
			"SET n = 0\nWHILE n < 2\n    n = n + 1\nELSE\n    SET done = TRUE\n",
			map[string]interface{}{"n": int64(2), "done": true},
		},
		{
			"while else skipped on break",
			"SET n = 0\nWHILE TRUE\n    n = n + 1\n    BREAK\nELSE\n    SET done = TRUE\n",
			map[string]interface{}{"n": int64(1)},
		},
		{
			"collections and indexing",
			"SET xs = [10, 20, 30]\nSET first = xs[0]\nSET last = xs[-1]\nSET d = {\"k\": 1}\nSET v = d[\"k\"]\nSET c = \"abc\"[1]\n",
			map[string]interface{}{
				"xs": []interface{}{int64(10), int64(20), int64(30)},
				"first": int64(10), "last": int64(30),
				"d": map[string]interface{}{"k": int64(1)},
				"v": int64(1), "c": "b",
			},
		},
		{
			"builtin calls",
			"SET n = len([1, 2, 3])\nSET m = max([4, 9, 2])\nSET s = upper(\"abc\")\nSET o = sorted([3, 1, 2])\n",
			map[string]interface{}{
				"n": int64(3), "m": int64(9), "s": "ABC",
				"o": []interface{}{int64(1), int64(2), int64(3)},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			interpreted := interpret(t, tt.src)
			if !reflect.DeepEqual(interpreted, tt.want) {
				t.Errorf("interpreter result wrong.\ngot=%#v\nwant=%#v", interpreted, tt.want)
			}
			globals := runVM(t, tt.src)
			plain := map[string]interface{}{}
			for name, value := range globals {
				plain[name] = interp.Plain(value)
			}
			if !reflect.DeepEqual(plain, tt.want) {
				t.Errorf("vm result wrong.\ngot=%#v\nwant=%#v", plain, tt.want)
			}
		})
	}
}

func TestVMUndefinedName(t *testing.T) {
	machine := New()
	_, err := machine.Run(compileSource(t, "SET x = nowhere\n"))
	if err == nil {
		t.Fatal("expected an error for an undefined name")
	}
	errObj, ok := err.(*object.Error)
	if !ok {
		t.Fatalf("expected *object.Error, got %T (%v)", err, err)
	}
	if errObj.Kind != object.NameErrorKind {
		t.Errorf("error kind wrong. got=%s", errObj.Kind)
	}
}

func TestVMDivisionByZero(t *testing.T) {
	machine := New()
	_, err := machine.Run(compileSource(t, "SET x = 1 / 0\n"))
	errObj, ok := err.(*object.Error)
	if !ok {
		t.Fatalf("expected *object.Error, got %T (%v)", err, err)
	}
	if errObj.Kind != object.ZeroDivisionErrorKind {
		t.Errorf("error kind wrong. got=%s", errObj.Kind)
	}
}

func TestVMIndexErrors(t *testing.T) {
	tests := []struct {
		src  string
		kind string
	}{
		{"SET x = [1][5]\n", object.IndexErrorKind},
		{"SET x = {\"a\": 1}[\"b\"]\n", object.KeyErrorKind},
		{"SET x = [1][\"a\"]\n", object.TypeErrorKind},
	}
	for _, tt := range tests {
		machine := New()
		_, err := machine.Run(compileSource(t, tt.src))
		errObj, ok := err.(*object.Error)
		if !ok {
			t.Fatalf("%q: expected *object.Error, got %T (%v)", tt.src, err, err)
		}
		if errObj.Kind != tt.kind {
			t.Errorf("%q: error kind wrong. got=%s, want=%s", tt.src, errObj.Kind, tt.kind)
		}
	}
}

func TestVMCallRequiresBuiltin(t *testing.T) {
	machine := New()
	_, err := machine.Run(compileSource(t, "SET f = 1\nf()\n"))
	if err == nil || !strings.Contains(err.Error(), "not callable in compiled code") {
		t.Errorf("error wrong. got=%v", err)
	}
}

func TestVMGlobalsShadowBuiltins(t *testing.T) {
	machine := New()
	registerSharedBuiltins(t, machine)
	globals, err := machine.Run(compileSource(t, "SET len = 99\nSET x = len\n"))
	if err != nil {
		t.Fatal(err)
	}
	if interp.Plain(globals["x"]) != int64(99) {
		t.Errorf("global did not shadow builtin. got=%v", globals["x"])
	}
}

func TestVMGlobalsResetPerRun(t *testing.T) {
	machine := New()
	if _, err := machine.Run(compileSource(t, "SET x = 1\n")); err != nil {
		t.Fatal(err)
	}
	globals, err := machine.Run(compileSource(t, "SET y = 2\n"))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := globals["x"]; ok {
		t.Error("globals leaked across runs")
	}
}

func TestVMReturnStopsExecution(t *testing.T) {
	machine := New()
	globals, err := machine.Run(compileSource(t, "SET x = 1\nRETURN 0\nSET y = 2\n"))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := globals["y"]; ok {
		t.Error("statements after RETURN executed")
	}
}

func TestVMRunsDeserializedProgram(t *testing.T) {
	compiled := compileSource(t, "SET x = 2 + 3\n")
	raw, err := compiled.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	var decoded bytecode.Program
	if err := decoded.UnmarshalBinary(raw); err != nil {
		t.Fatal(err)
	}
	globals, err := New().Run(&decoded)
	if err != nil {
		t.Fatal(err)
	}
	if interp.Plain(globals["x"]) != int64(5) {
		t.Errorf("result wrong. got=%v", globals["x"])
	}
}
