package normalize

import (
	jsonx "menulens/internal/shared/json"
)

// ShapeMatcher recognizes one envelope layout of a successful upstream reply
// and returns its raw item list. A matcher never mutates or partially
// consumes body; ok is false when the layout does not apply.
type ShapeMatcher struct {
	Name  string
	Match func(body jsonx.RawMessage) (items []jsonx.RawMessage, ok bool)
}

// DefaultMatchers returns the known envelopes in priority order.
func DefaultMatchers() []ShapeMatcher {
	return []ShapeMatcher{
		{Name: "data", Match: MatchData},
		{Name: "output", Match: MatchOutput},
		{Name: "nested_menu_items", Match: MatchNestedMenuItems},
	}
}

// MatchData matches {"data": [...]}.
func MatchData(body jsonx.RawMessage) ([]jsonx.RawMessage, bool) {
	return arrayField(body, "data")
}

// MatchOutput matches {"output": [...]}.
func MatchOutput(body jsonx.RawMessage) ([]jsonx.RawMessage, bool) {
	return arrayField(body, "output")
}

// MatchNestedMenuItems matches [{"output": {"data": {"menuItems": [...]}}}],
// reading only the first element of the top-level array.
func MatchNestedMenuItems(body jsonx.RawMessage) ([]jsonx.RawMessage, bool) {
	var top []jsonx.RawMessage
	if err := jsonx.Unmarshal(body, &top); err != nil || len(top) == 0 {
		return nil, false
	}
	output, ok := objectField(top[0], "output")
	if !ok {
		return nil, false
	}
	data, ok := objectField(output, "data")
	if !ok {
		return nil, false
	}
	return arrayField(data, "menuItems")
}

func objectFields(body jsonx.RawMessage) (map[string]jsonx.RawMessage, bool) {
	var fields map[string]jsonx.RawMessage
	if err := jsonx.Unmarshal(body, &fields); err != nil || fields == nil {
		return nil, false
	}
	return fields, true
}

func objectField(body jsonx.RawMessage, key string) (jsonx.RawMessage, bool) {
	fields, ok := objectFields(body)
	if !ok {
		return nil, false
	}
	value, ok := fields[key]
	if !ok || jsonx.IsNull(value) {
		return nil, false
	}
	return value, true
}

func arrayField(body jsonx.RawMessage, key string) ([]jsonx.RawMessage, bool) {
	value, ok := objectField(body, key)
	if !ok {
		return nil, false
	}
	var items []jsonx.RawMessage
	if err := jsonx.Unmarshal(value, &items); err != nil {
		return nil, false
	}
	if items == nil {
		items = []jsonx.RawMessage{}
	}
	return items, true
}
