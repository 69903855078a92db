package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"

	jsonx "menulens/internal/shared/json"
)

func TestMatchers(t *testing.T) {
	tests := []struct {
		name    string
		matcher func(jsonx.RawMessage) ([]jsonx.RawMessage, bool)
		body    string
		wantOK  bool
		wantLen int
	}{
		{"data array", MatchData, `{"data":[1,2]}`, true, 2},
		{"data empty", MatchData, `{"data":[]}`, true, 0},
		{"data null", MatchData, `{"data":null}`, false, 0},
		{"data object", MatchData, `{"data":{}}`, false, 0},
		{"data on array body", MatchData, `[{"data":[1]}]`, false, 0},
		{"output array", MatchOutput, `{"output":[1]}`, true, 1},
		{"output missing", MatchOutput, `{"data":[1]}`, false, 0},
		{"nested", MatchNestedMenuItems, `[{"output":{"data":{"menuItems":[1,2,3]}}}]`, true, 3},
		{"nested uses first element only", MatchNestedMenuItems, `[{"other":1},{"output":{"data":{"menuItems":[1]}}}]`, false, 0},
		{"nested empty array", MatchNestedMenuItems, `[]`, false, 0},
		{"nested on object", MatchNestedMenuItems, `{"output":{"data":{"menuItems":[1]}}}`, false, 0},
		{"nested menuItems not array", MatchNestedMenuItems, `[{"output":{"data":{"menuItems":"x"}}}]`, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, ok := tt.matcher(jsonx.RawMessage(tt.body))
			assert.Equal(t, tt.wantOK, ok)
			assert.Len(t, items, tt.wantLen)
		})
	}
}

func TestDefaultMatchersOrder(t *testing.T) {
	names := make([]string, 0, 3)
	for _, m := range DefaultMatchers() {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{"data", "output", "nested_menu_items"}, names)
}
