package object

import (
	"math"
	"strings"

	"ward/internal/token"
)

// numeric extracts a numeric view of a value. Booleans count as 0 and 1,
// matching their behavior in arithmetic and comparisons.
func numeric(value Object) (i int64, f float64, isFloat bool, ok bool) {
	switch v := value.(type) {
	case *Integer:
		return v.Value, float64(v.Value), false, true
	case *Float:
		return int64(v.Value), v.Value, true, true
	case *Boolean:
		if v.Value {
			return 1, 1, false, true
		}
		return 0, 0, false, true
	}
	return 0, 0, false, false
}

// Truthy follows the usual emptiness rules: zero, empty containers, empty
// strings and NONE are false, everything else is true.
func Truthy(value Object) bool {
	switch v := value.(type) {
	case *Boolean:
		return v.Value
	case *None:
		return false
	case *Integer:
		return v.Value != 0
	case *Float:
		return v.Value != 0
	case *String:
		return v.Value != ""
	case *Bytes:
		return len(v.Value) != 0
	case *List:
		return len(v.Elements) != 0
	case *Tuple:
		return len(v.Elements) != 0
	case *Set:
		return v.Len() != 0
	case *Dict:
		return v.Len() != 0
	}
	return true
}

// Equals is deep structural equality. Numbers compare across int, float and
// bool. Values of unrelated kinds are unequal, never an error.
func Equals(left, right Object) bool {
	li, lf, lFloat, lNum := numeric(left)
	ri, rf, rFloat, rNum := numeric(right)
	if lNum && rNum {
		if lFloat || rFloat {
			return lf == rf
		}
		return li == ri
	}
	switch l := left.(type) {
	case *String:
		r, ok := right.(*String)
		return ok && l.Value == r.Value
	case *Bytes:
		r, ok := right.(*Bytes)
		return ok && string(l.Value) == string(r.Value)
	case *None:
		_, ok := right.(*None)
		return ok
	case *List:
		r, ok := right.(*List)
		return ok && elementsEqual(l.Elements, r.Elements)
	case *Tuple:
		r, ok := right.(*Tuple)
		return ok && elementsEqual(l.Elements, r.Elements)
	case *Set:
		r, ok := right.(*Set)
		if !ok || l.Len() != r.Len() {
			return false
		}
		for _, el := range l.Elements() {
			has, err := r.Has(el)
			if err != nil || !has {
				return false
			}
		}
		return true
	case *Dict:
		r, ok := right.(*Dict)
		if !ok || l.Len() != r.Len() {
			return false
		}
		for _, pair := range l.Pairs() {
			other, found, err := r.Get(pair.Key)
			if err != nil || !found || !Equals(pair.Value, other) {
				return false
			}
		}
		return true
	}
	return left == right
}

func elementsEqual(left, right []Object) bool {
	if len(left) != len(right) {
		return false
	}
	for i := range left {
		if !Equals(left[i], right[i]) {
			return false
		}
	}
	return true
}

// Compare orders two values: -1, 0 or 1. Sequences order lexicographically.
// Values of unrelated kinds do not order.
func Compare(left, right Object) (int, *Error) {
	li, lf, lFloat, lNum := numeric(left)
	ri, rf, rFloat, rNum := numeric(right)
	if lNum && rNum {
		if lFloat || rFloat {
			switch {
			case lf < rf:
				return -1, nil
			case lf > rf:
				return 1, nil
			}
			return 0, nil
		}
		switch {
		case li < ri:
			return -1, nil
		case li > ri:
			return 1, nil
		}
		return 0, nil
	}
	switch l := left.(type) {
	case *String:
		if r, ok := right.(*String); ok {
			return strings.Compare(l.Value, r.Value), nil
		}
	case *Bytes:
		if r, ok := right.(*Bytes); ok {
			return strings.Compare(string(l.Value), string(r.Value)), nil
		}
	case *List:
		if r, ok := right.(*List); ok {
			return compareElements(l.Elements, r.Elements)
		}
	case *Tuple:
		if r, ok := right.(*Tuple); ok {
			return compareElements(l.Elements, r.Elements)
		}
	}
	return 0, Errorf(TypeErrorKind, "'%s' and '%s' are not orderable", TypeName(left), TypeName(right))
}

func compareElements(left, right []Object) (int, *Error) {
	n := len(left)
	if len(right) < n {
		n = len(right)
	}
	for i := 0; i < n; i++ {
		if Equals(left[i], right[i]) {
			continue
		}
		return Compare(left[i], right[i])
	}
	switch {
	case len(left) < len(right):
		return -1, nil
	case len(left) > len(right):
		return 1, nil
	}
	return 0, nil
}

// Contains implements the IN operator: substring for strings, element
// membership for sequences and sets, key membership for dicts.
func Contains(item, container Object) (bool, *Error) {
	switch c := container.(type) {
	case *String:
		s, ok := item.(*String)
		if !ok {
			return false, Errorf(TypeErrorKind, "'in <str>' requires str, not %s", TypeName(item))
		}
		return strings.Contains(c.Value, s.Value), nil
	case *Bytes:
		b, ok := item.(*Bytes)
		if !ok {
			return false, Errorf(TypeErrorKind, "'in <bytes>' requires bytes, not %s", TypeName(item))
		}
		return strings.Contains(string(c.Value), string(b.Value)), nil
	case *List:
		return elementsContain(c.Elements, item), nil
	case *Tuple:
		return elementsContain(c.Elements, item), nil
	case *Set:
		return c.Has(item)
	case *Dict:
		_, found, err := c.Get(item)
		return found, err
	}
	return false, Errorf(TypeErrorKind, "'%s' is not a container", TypeName(container))
}

func elementsContain(elements []Object, item Object) bool {
	for _, el := range elements {
		if Equals(el, item) {
			return true
		}
	}
	return false
}

// ApplyBinary evaluates a binary operator over two already-evaluated
// operands. AND/OR are included for completeness; neither operand is
// short-circuited at this level.
func ApplyBinary(op token.TokenType, left, right Object) (Object, *Error) {
	switch op {
	case token.AND:
		return BooleanFor(Truthy(left) && Truthy(right)), nil
	case token.OR:
		return BooleanFor(Truthy(left) || Truthy(right)), nil
	case token.EQ:
		return BooleanFor(Equals(left, right)), nil
	case token.NEQ:
		return BooleanFor(!Equals(left, right)), nil
	case token.LT, token.LTE, token.GT, token.GTE:
		cmp, err := Compare(left, right)
		if err != nil {
			return nil, err
		}
		switch op {
		case token.LT:
			return BooleanFor(cmp < 0), nil
		case token.LTE:
			return BooleanFor(cmp <= 0), nil
		case token.GT:
			return BooleanFor(cmp > 0), nil
		default:
			return BooleanFor(cmp >= 0), nil
		}
	case token.IN:
		found, err := Contains(left, right)
		if err != nil {
			return nil, err
		}
		return BooleanFor(found), nil
	case token.PLUS:
		return applyPlus(left, right)
	case token.MINUS:
		return applyMinus(left, right)
	case token.STAR:
		return applyStar(left, right)
	case token.SLASH:
		return applySlash(left, right)
	case token.DBLSLASH:
		return applyFloorDiv(left, right)
	case token.PERCENT:
		return applyModulo(left, right)
	case token.POWER:
		return applyPower(left, right)
	}
	return nil, Errorf(RuntimeErrorKind, "unsupported binary operator %s", op)
}

// ApplyUnary evaluates a prefix operator.
func ApplyUnary(op string, operand Object) (Object, *Error) {
	switch op {
	case "NOT":
		return BooleanFor(!Truthy(operand)), nil
	case "NEGATE":
		i, f, isFloat, ok := numeric(operand)
		if !ok {
			return nil, Errorf(TypeErrorKind, "bad operand type for unary -: '%s'", TypeName(operand))
		}
		if isFloat {
			return &Float{Value: -f}, nil
		}
		return &Integer{Value: -i}, nil
	case "POSITIVE":
		i, f, isFloat, ok := numeric(operand)
		if !ok {
			return nil, Errorf(TypeErrorKind, "bad operand type for unary +: '%s'", TypeName(operand))
		}
		if isFloat {
			return &Float{Value: f}, nil
		}
		return &Integer{Value: i}, nil
	}
	return nil, Errorf(RuntimeErrorKind, "unsupported unary operator %s", op)
}

func binaryTypeError(op string, left, right Object) *Error {
	return Errorf(TypeErrorKind, "unsupported operand type(s) for %s: '%s' and '%s'",
		op, TypeName(left), TypeName(right))
}

func applyPlus(left, right Object) (Object, *Error) {
	li, lf, lFloat, lNum := numeric(left)
	ri, rf, rFloat, rNum := numeric(right)
	if lNum && rNum {
		if lFloat || rFloat {
			return &Float{Value: lf + rf}, nil
		}
		return &Integer{Value: li + ri}, nil
	}
	switch l := left.(type) {
	case *String:
		if r, ok := right.(*String); ok {
			return &String{Value: l.Value + r.Value}, nil
		}
	case *Bytes:
		if r, ok := right.(*Bytes); ok {
			joined := make([]byte, 0, len(l.Value)+len(r.Value))
			joined = append(joined, l.Value...)
			joined = append(joined, r.Value...)
			return &Bytes{Value: joined}, nil
		}
	case *List:
		if r, ok := right.(*List); ok {
			joined := make([]Object, 0, len(l.Elements)+len(r.Elements))
			joined = append(joined, l.Elements...)
			joined = append(joined, r.Elements...)
			return &List{Elements: joined}, nil
		}
	case *Tuple:
		if r, ok := right.(*Tuple); ok {
			joined := make([]Object, 0, len(l.Elements)+len(r.Elements))
			joined = append(joined, l.Elements...)
			joined = append(joined, r.Elements...)
			return &Tuple{Elements: joined}, nil
		}
	}
	return nil, binaryTypeError("+", left, right)
}

func applyMinus(left, right Object) (Object, *Error) {
	li, lf, lFloat, lNum := numeric(left)
	ri, rf, rFloat, rNum := numeric(right)
	if lNum && rNum {
		if lFloat || rFloat {
			return &Float{Value: lf - rf}, nil
		}
		return &Integer{Value: li - ri}, nil
	}
	if l, ok := left.(*Set); ok {
		if r, ok := right.(*Set); ok {
			diff := NewSet()
			for _, el := range l.Elements() {
				has, err := r.Has(el)
				if err != nil {
					return nil, err
				}
				if !has {
					if err := diff.Add(el); err != nil {
						return nil, err
					}
				}
			}
			return diff, nil
		}
	}
	return nil, binaryTypeError("-", left, right)
}

func applyStar(left, right Object) (Object, *Error) {
	li, lf, lFloat, lNum := numeric(left)
	ri, rf, rFloat, rNum := numeric(right)
	if lNum && rNum {
		if lFloat || rFloat {
			return &Float{Value: lf * rf}, nil
		}
		return &Integer{Value: li * ri}, nil
	}
	// sequence repetition works in either operand order
	if lNum && !lFloat {
		return repeatSequence(right, li, left)
	}
	if rNum && !rFloat {
		return repeatSequence(left, ri, right)
	}
	return nil, binaryTypeError("*", left, right)
}

func repeatSequence(seq Object, count int64, other Object) (Object, *Error) {
	if count < 0 {
		count = 0
	}
	switch s := seq.(type) {
	case *String:
		return &String{Value: strings.Repeat(s.Value, int(count))}, nil
	case *Bytes:
		return &Bytes{Value: []byte(strings.Repeat(string(s.Value), int(count)))}, nil
	case *List:
		out := make([]Object, 0, len(s.Elements)*int(count))
		for i := int64(0); i < count; i++ {
			out = append(out, s.Elements...)
		}
		return &List{Elements: out}, nil
	case *Tuple:
		out := make([]Object, 0, len(s.Elements)*int(count))
		for i := int64(0); i < count; i++ {
			out = append(out, s.Elements...)
		}
		return &Tuple{Elements: out}, nil
	}
	return nil, binaryTypeError("*", seq, other)
}

// applySlash always yields a float, even for two integer operands.
func applySlash(left, right Object) (Object, *Error) {
	_, lf, _, lNum := numeric(left)
	_, rf, _, rNum := numeric(right)
	if !lNum || !rNum {
		return nil, binaryTypeError("/", left, right)
	}
	if rf == 0 {
		return nil, Errorf(ZeroDivisionErrorKind, "division by zero")
	}
	return &Float{Value: lf / rf}, nil
}

// applyFloorDiv floors toward negative infinity.
func applyFloorDiv(left, right Object) (Object, *Error) {
	li, lf, lFloat, lNum := numeric(left)
	ri, rf, rFloat, rNum := numeric(right)
	if !lNum || !rNum {
		return nil, binaryTypeError("//", left, right)
	}
	if lFloat || rFloat {
		if rf == 0 {
			return nil, Errorf(ZeroDivisionErrorKind, "float floor division by zero")
		}
		return &Float{Value: math.Floor(lf / rf)}, nil
	}
	if ri == 0 {
		return nil, Errorf(ZeroDivisionErrorKind, "integer division by zero")
	}
	q := li / ri
	if (li%ri != 0) && ((li < 0) != (ri < 0)) {
		q--
	}
	return &Integer{Value: q}, nil
}

// applyModulo gives the remainder the sign of the divisor.
func applyModulo(left, right Object) (Object, *Error) {
	li, lf, lFloat, lNum := numeric(left)
	ri, rf, rFloat, rNum := numeric(right)
	if !lNum || !rNum {
		return nil, binaryTypeError("%", left, right)
	}
	if lFloat || rFloat {
		if rf == 0 {
			return nil, Errorf(ZeroDivisionErrorKind, "float modulo by zero")
		}
		r := math.Mod(lf, rf)
		if r != 0 && (r < 0) != (rf < 0) {
			r += rf
		}
		return &Float{Value: r}, nil
	}
	if ri == 0 {
		return nil, Errorf(ZeroDivisionErrorKind, "integer modulo by zero")
	}
	r := li % ri
	if r != 0 && (r < 0) != (ri < 0) {
		r += ri
	}
	return &Integer{Value: r}, nil
}

func applyPower(left, right Object) (Object, *Error) {
	li, lf, lFloat, lNum := numeric(left)
	ri, rf, rFloat, rNum := numeric(right)
	if !lNum || !rNum {
		return nil, binaryTypeError("**", left, right)
	}
	if lFloat || rFloat || ri < 0 {
		return &Float{Value: math.Pow(lf, rf)}, nil
	}
	result := int64(1)
	base := li
	exp := ri
	for exp > 0 {
		if exp&1 == 1 {
			result *= base
		}
		base *= base
		exp >>= 1
	}
	return &Integer{Value: result}, nil
}
