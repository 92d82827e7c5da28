package interp

import (
	"ward/internal/object"
)

// Plain converts a runtime value into JSON-compatible Go data for result
// snapshots and action details. Callables render as their display strings
// rather than leaking into serialized output.
func Plain(value object.Object) interface{} {
	switch v := value.(type) {
	case *object.Integer:
		return v.Value
	case *object.Float:
		return v.Value
	case *object.Boolean:
		return v.Value
	case *object.String:
		return v.Value
	case *object.Bytes:
		return string(v.Value)
	case *object.None, nil:
		return nil
	case *object.List:
		return plainElements(v.Elements)
	case *object.Tuple:
		return plainElements(v.Elements)
	case *object.Set:
		return plainElements(v.Elements())
	case *object.Dict:
		out := map[string]interface{}{}
		for _, pair := range v.Pairs() {
			out[pair.Key.Inspect()] = Plain(pair.Value)
		}
		return out
	case *object.Instance:
		out := map[string]interface{}{}
		for name, field := range v.Fields {
			switch field.(type) {
			case *object.Function, *object.Lambda, *object.Builtin:
				continue
			}
			out[name] = Plain(field)
		}
		return out
	case *object.Error:
		return v.Inspect()
	}
	return value.Inspect()
}

func plainElements(elements []object.Object) []interface{} {
	out := make([]interface{}, len(elements))
	for n, el := range elements {
		out[n] = Plain(el)
	}
	return out
}
