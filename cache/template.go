package cache

import (
	"strconv"
	"strings"
)

// Template expands a cache key template for one call.
//
// Supported placeholders are {type}, {method} and {N}, where N is a zero-based
// argument index rendered with the serializer. When the template references no
// argument, every argument is serialized and appended after the expanded
// template. An empty template expands to "type.method".
func Template(tmpl, typ, method string, args []any, serializer KeySerializer) string {
	if tmpl == "" {
		if typ != "" {
			tmpl = typ + "." + method
		} else {
			tmpl = method
		}
	}

	var (
		out     strings.Builder
		usedArg bool
	)
	for i := 0; i < len(tmpl); i++ {
		if tmpl[i] != '{' {
			out.WriteByte(tmpl[i])
			continue
		}
		end := strings.IndexByte(tmpl[i:], '}')
		if end < 0 {
			out.WriteString(tmpl[i:])
			break
		}
		name := tmpl[i+1 : i+end]
		switch name {
		case "type":
			out.WriteString(typ)
		case "method":
			out.WriteString(method)
		default:
			idx, err := strconv.Atoi(name)
			if err != nil || idx < 0 || idx >= len(args) {
				out.WriteString(tmpl[i : i+end+1])
				break
			}
			out.WriteString(serializer.SerializeValue(args[idx]))
			usedArg = true
		}
		i += end
	}

	if usedArg {
		return out.String()
	}
	return serializer.SerializeKey(out.String(), args...)
}
