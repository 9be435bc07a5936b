package mapping

import (
	"strconv"
	"strings"
)

// keyPath is a compiled dotted path such as "attributes.owner.id" or
// "tags.0". Numeric segments index into arrays.
type keyPath []string

func compileKeyPath(raw string) (keyPath, bool) {
	if raw == "" {
		return nil, false
	}
	segments := strings.Split(raw, ".")
	for _, s := range segments {
		if s == "" {
			return nil, false
		}
	}
	return segments, true
}

// resolve walks doc along p. present is false when any segment is missing;
// a JSON null at the end of the path is present with a nil value.
func (p keyPath) resolve(doc any) (value any, present bool) {
	current := doc
	for _, segment := range p {
		switch node := current.(type) {
		case map[string]any:
			next, ok := node[segment]
			if !ok {
				return nil, false
			}
			current = next
		case []any:
			idx, err := strconv.Atoi(segment)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			current = node[idx]
		default:
			return nil, false
		}
	}
	return current, true
}

// assign stores value at p inside obj, creating intermediate objects.
// Numeric segments are treated as object keys when building documents.
func (p keyPath) assign(obj map[string]any, value any) {
	node := obj
	for i, segment := range p {
		if i == len(p)-1 {
			node[segment] = value
			return
		}
		next, ok := node[segment].(map[string]any)
		if !ok {
			next = make(map[string]any)
			node[segment] = next
		}
		node = next
	}
}

func (p keyPath) String() string {
	return strings.Join(p, ".")
}

// Lookup resolves the dotted path raw against doc. It reports false when the
// path is malformed or any segment is missing.
func Lookup(doc any, raw string) (any, bool) {
	p, ok := compileKeyPath(raw)
	if !ok {
		return nil, false
	}
	return p.resolve(doc)
}
