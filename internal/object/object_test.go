package object

import (
	"testing"

	"ward/internal/token"
)

func intVal(v int64) *Integer   { return &Integer{Value: v} }
func floatVal(v float64) *Float { return &Float{Value: v} }
func strVal(v string) *String   { return &String{Value: v} }

func applyOK(t *testing.T, op token.TokenType, left, right Object) Object {
	t.Helper()
	result, err := ApplyBinary(op, left, right)
	if err != nil {
		t.Fatalf("ApplyBinary(%s) failed: %v", op, err)
	}
	return result
}

func TestDivisionAlwaysFloat(t *testing.T) {
	result := applyOK(t, token.SLASH, intVal(7), intVal(2))
	f, ok := result.(*Float)
	if !ok {
		t.Fatalf("expected float, got %T", result)
	}
	if f.Value != 3.5 {
		t.Errorf("7 / 2 wrong. got=%v", f.Value)
	}
}

func TestFloorDivisionFloorsTowardNegativeInfinity(t *testing.T) {
	tests := []struct {
		left, right int64
		want        int64
	}{
		{7, 2, 3},
		{-7, 2, -4},
		{7, -2, -4},
		{-7, -2, 3},
	}
	for _, tt := range tests {
		result := applyOK(t, token.DBLSLASH, intVal(tt.left), intVal(tt.right))
		i, ok := result.(*Integer)
		if !ok {
			t.Fatalf("expected integer, got %T", result)
		}
		if i.Value != tt.want {
			t.Errorf("%d // %d wrong. got=%d, want=%d", tt.left, tt.right, i.Value, tt.want)
		}
	}
}

func TestModuloTakesSignOfDivisor(t *testing.T) {
	tests := []struct {
		left, right int64
		want        int64
	}{
		{7, 3, 1},
		{-7, 3, 2},
		{7, -3, -2},
		{-7, -3, -1},
	}
	for _, tt := range tests {
		result := applyOK(t, token.PERCENT, intVal(tt.left), intVal(tt.right))
		i := result.(*Integer)
		if i.Value != tt.want {
			t.Errorf("%d %% %d wrong. got=%d, want=%d", tt.left, tt.right, i.Value, tt.want)
		}
	}
}

func TestDivisionByZero(t *testing.T) {
	for _, op := range []token.TokenType{token.SLASH, token.DBLSLASH, token.PERCENT} {
		_, err := ApplyBinary(op, intVal(1), intVal(0))
		if err == nil {
			t.Errorf("%s by zero: expected error", op)
			continue
		}
		if err.Kind != ZeroDivisionErrorKind {
			t.Errorf("%s by zero: kind wrong. got=%s", op, err.Kind)
		}
	}
}

func TestPower(t *testing.T) {
	if got := applyOK(t, token.POWER, intVal(2), intVal(10)).(*Integer).Value; got != 1024 {
		t.Errorf("2 ** 10 wrong. got=%d", got)
	}
	// negative exponent promotes to float
	result := applyOK(t, token.POWER, intVal(2), intVal(-1))
	f, ok := result.(*Float)
	if !ok || f.Value != 0.5 {
		t.Errorf("2 ** -1 wrong. got=%v", result.Inspect())
	}
}

func TestIntFloatPromotion(t *testing.T) {
	result := applyOK(t, token.PLUS, intVal(1), floatVal(2.5))
	f, ok := result.(*Float)
	if !ok || f.Value != 3.5 {
		t.Errorf("1 + 2.5 wrong. got=%v", result.Inspect())
	}
}

func TestBooleanActsAsInteger(t *testing.T) {
	result := applyOK(t, token.PLUS, TRUE, intVal(1))
	if result.(*Integer).Value != 2 {
		t.Errorf("TRUE + 1 wrong. got=%s", result.Inspect())
	}
	if !Equals(TRUE, intVal(1)) {
		t.Error("TRUE should equal 1")
	}
}

func TestSequenceOperations(t *testing.T) {
	concat := applyOK(t, token.PLUS, strVal("ab"), strVal("cd"))
	if concat.(*String).Value != "abcd" {
		t.Errorf("string concat wrong. got=%s", concat.Inspect())
	}
	repeat := applyOK(t, token.STAR, strVal("ab"), intVal(3))
	if repeat.(*String).Value != "ababab" {
		t.Errorf("string repeat wrong. got=%s", repeat.Inspect())
	}
	list := applyOK(t, token.PLUS,
		&List{Elements: []Object{intVal(1)}},
		&List{Elements: []Object{intVal(2)}})
	if len(list.(*List).Elements) != 2 {
		t.Errorf("list concat wrong. got=%s", list.Inspect())
	}
}

func TestMixedTypeOperationFails(t *testing.T) {
	_, err := ApplyBinary(token.PLUS, strVal("a"), intVal(1))
	if err == nil || err.Kind != TypeErrorKind {
		t.Fatalf("expected TypeError, got %v", err)
	}
}

func TestEqualityDeep(t *testing.T) {
	left := &List{Elements: []Object{intVal(1), strVal("a")}}
	right := &List{Elements: []Object{intVal(1), strVal("a")}}
	if !Equals(left, right) {
		t.Error("equal lists compared unequal")
	}
	if Equals(left, &Tuple{Elements: left.Elements}) {
		t.Error("list should not equal tuple")
	}
	if !Equals(intVal(1), floatVal(1.0)) {
		t.Error("1 should equal 1.0")
	}
}

func TestMembership(t *testing.T) {
	found, err := Contains(strVal("ell"), strVal("hello"))
	if err != nil || !found {
		t.Error("substring membership failed")
	}
	dict := NewDict()
	if err := dict.Set(strVal("k"), intVal(1)); err != nil {
		t.Fatal(err)
	}
	found, err = Contains(strVal("k"), dict)
	if err != nil || !found {
		t.Error("dict key membership failed")
	}
}

func TestComparisonOfUnrelatedTypesFails(t *testing.T) {
	_, err := Compare(strVal("a"), intVal(1))
	if err == nil || err.Kind != TypeErrorKind {
		t.Fatalf("expected TypeError, got %v", err)
	}
}

func TestNumericHashKeysCoincide(t *testing.T) {
	intKey, _ := HashOf(intVal(1))
	floatKey, _ := HashOf(floatVal(1.0))
	boolKey, _ := HashOf(TRUE)
	if intKey != floatKey || intKey != boolKey {
		t.Error("1, 1.0 and TRUE should share a hash key")
	}
}

func TestUnhashable(t *testing.T) {
	_, err := HashOf(&List{})
	if err == nil || err.Kind != TypeErrorKind {
		t.Fatalf("expected TypeError for unhashable list, got %v", err)
	}
}

func TestDictKeepsInsertionOrder(t *testing.T) {
	dict := NewDict()
	for _, k := range []string{"c", "a", "b"} {
		if err := dict.Set(strVal(k), intVal(0)); err != nil {
			t.Fatal(err)
		}
	}
	pairs := dict.Pairs()
	got := []string{}
	for _, pair := range pairs {
		got = append(got, pair.Key.(*String).Value)
	}
	want := []string{"c", "a", "b"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order wrong. got=%v, want=%v", got, want)
		}
	}
	// overwriting a key keeps its slot
	if err := dict.Set(strVal("a"), intVal(9)); err != nil {
		t.Fatal(err)
	}
	if dict.Pairs()[1].Value.(*Integer).Value != 9 {
		t.Error("overwrite moved the key")
	}
}

func TestSetDeduplicatesAndSubtracts(t *testing.T) {
	set := NewSet()
	for _, v := range []int64{1, 2, 2, 3} {
		if err := set.Add(intVal(v)); err != nil {
			t.Fatal(err)
		}
	}
	if set.Len() != 3 {
		t.Errorf("set length wrong. got=%d", set.Len())
	}
	other := NewSet()
	_ = other.Add(intVal(2))
	diff, err := ApplyBinary(token.MINUS, set, other)
	if err != nil {
		t.Fatal(err)
	}
	if diff.(*Set).Len() != 2 {
		t.Errorf("set difference wrong. got=%s", diff.Inspect())
	}
}

func TestTruthiness(t *testing.T) {
	truthy := []Object{intVal(1), strVal("x"), &List{Elements: []Object{NONE}}, floatVal(0.1)}
	falsy := []Object{intVal(0), strVal(""), &List{}, NONE, FALSE, NewDict(), NewSet()}
	for _, v := range truthy {
		if !Truthy(v) {
			t.Errorf("%s should be truthy", v.Inspect())
		}
	}
	for _, v := range falsy {
		if Truthy(v) {
			t.Errorf("%s should be falsy", v.Inspect())
		}
	}
}

func TestUnaryOperators(t *testing.T) {
	neg, err := ApplyUnary("NEGATE", intVal(5))
	if err != nil || neg.(*Integer).Value != -5 {
		t.Error("negation wrong")
	}
	not, err := ApplyUnary("NOT", strVal(""))
	if err != nil || not != TRUE {
		t.Error("NOT of empty string should be TRUE")
	}
	if _, err := ApplyUnary("NEGATE", strVal("x")); err == nil {
		t.Error("negating a string should fail")
	}
}

func TestEnvironmentScoping(t *testing.T) {
	globals := NewEnvironment()
	globals.SetLocal("x", intVal(1))
	inner := NewEnclosedEnvironment(globals)

	// plain assignment shadows
	if err := inner.Set("x", intVal(2)); err != nil {
		t.Fatal(err)
	}
	if v, _ := globals.Get("x"); v.(*Integer).Value != 1 {
		t.Error("inner assignment leaked to globals")
	}

	// GLOBAL declaration routes assignment to module scope
	declared := NewEnclosedEnvironment(globals)
	declared.DeclareGlobal([]string{"x"})
	if err := declared.Set("x", intVal(7)); err != nil {
		t.Fatal(err)
	}
	if v, _ := globals.Get("x"); v.(*Integer).Value != 7 {
		t.Error("GLOBAL assignment missed module scope")
	}
}

func TestEnvironmentNonlocal(t *testing.T) {
	globals := NewEnvironment()
	outer := NewEnclosedEnvironment(globals)
	outer.SetLocal("counter", intVal(0))
	inner := NewEnclosedEnvironment(outer)
	if err := inner.DeclareNonlocal([]string{"counter"}); err != nil {
		t.Fatal(err)
	}
	if err := inner.Set("counter", intVal(5)); err != nil {
		t.Fatal(err)
	}
	if v, _ := outer.GetLocal("counter"); v.(*Integer).Value != 5 {
		t.Error("NONLOCAL assignment missed enclosing frame")
	}
	// a nonlocal with no enclosing binding fails at assignment time
	orphan := NewEnclosedEnvironment(outer)
	if err := orphan.DeclareNonlocal([]string{"ghost"}); err != nil {
		t.Fatal(err)
	}
	if err := orphan.Set("ghost", intVal(1)); err == nil {
		t.Error("expected error assigning unbound nonlocal")
	}
}

func TestDeferredResolvesOnce(t *testing.T) {
	runs := 0
	d := NewDeferred("probe", func() (Object, *Error) {
		runs++
		return intVal(42), nil
	})
	if d.Resolved() {
		t.Fatal("deferred should start unresolved")
	}
	first, err := d.Resolve()
	if err != nil || first.(*Integer).Value != 42 {
		t.Fatal("first resolve wrong")
	}
	second, _ := d.Resolve()
	if second != first {
		t.Error("second resolve returned a different value")
	}
	if runs != 1 {
		t.Errorf("thunk ran %d times, want 1", runs)
	}
}

func TestErrorClassMatching(t *testing.T) {
	typeErr := Errorf(TypeErrorKind, "boom")
	if !(&ErrorClass{Name: TypeErrorKind}).Matches(typeErr.Kind) {
		t.Error("exact kind should match")
	}
	if !(&ErrorClass{Name: "Error"}).Matches(typeErr.Kind) {
		t.Error("base Error class should match every kind")
	}
	if (&ErrorClass{Name: ValueErrorKind}).Matches(typeErr.Kind) {
		t.Error("unrelated kind should not match")
	}
}
