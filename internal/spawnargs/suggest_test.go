package spawnargs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSuggest(t *testing.T) {
	names := []string{"none", "cutoff", "power", "root", "linear", "func"}

	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"linaer", "linear", true},
		{"cutof", "cutoff", true},
		{"POWER", "power", true},
		{"gaussian", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := Suggest(tt.in, names)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHint(t *testing.T) {
	assert.Equal(t, "did you mean linear?", Hint("linaer", []string{"linear"}))
	assert.Equal(t, "", Hint("linear", []string{"linear"}))
	assert.Equal(t, "", Hint("zzz", []string{"linear"}))
}
