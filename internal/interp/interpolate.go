package interp

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"ward/internal/object"
)

var interpolationPattern = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// interpolate replaces {name} markers against module-scope variables first
// and the context-derived keys (targets, scope, target, payload_<name>,
// embed_<name>, embed_<name>_meta) second. Unresolvable markers stay
// verbatim.
func (i *Interpreter) interpolate(value string) string {
	return interpolationPattern.ReplaceAllStringFunc(value, func(marker string) string {
		name := marker[1 : len(marker)-1]
		if bound, ok := i.globals.GetLocal(name); ok {
			switch bound.(type) {
			case *object.Function, *object.Lambda, *object.Builtin, *object.Class,
				*object.Module, *object.ErrorClass:
			default:
				return bound.Inspect()
			}
		}
		if resolved, ok := i.ctx.FormatValue(name); ok {
			return renderInterpolated(resolved)
		}
		return marker
	})
}

// renderInterpolated formats a context value the way scripts expect to see
// it inside a string.
func renderInterpolated(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case []string:
		parts := make([]string, len(v))
		for n, item := range v {
			parts[n] = fmt.Sprintf("%q", item)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case map[string]interface{}:
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for n, key := range keys {
			parts[n] = fmt.Sprintf("%q: %s", key, renderScalar(v[key]))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
	return renderScalar(value)
}

func renderScalar(value interface{}) string {
	switch v := value.(type) {
	case string:
		return fmt.Sprintf("%q", v)
	case nil:
		return "NONE"
	case bool:
		if v {
			return "TRUE"
		}
		return "FALSE"
	}
	return fmt.Sprintf("%v", value)
}
