package adapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseQueueWeights(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want map[string]int
	}{
		{"standard", "critical=6,default=3,low=1", map[string]int{"critical": 6, "default": 3, "low": 1}},
		{"spaces and empties", " default = 2 , , messaging=1 ", map[string]int{"default": 2, "messaging": 1}},
		{"missing weight defaults to one", "default,messaging=4", map[string]int{"default": 1, "messaging": 4}},
		{"bad weight defaults to one", "default=zero", map[string]int{"default": 1}},
		{"empty input", "", map[string]int{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, parseQueueWeights(tc.in))
		})
	}
}
