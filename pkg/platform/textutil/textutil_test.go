package textutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeFold(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{"nil stays nil", nil, nil},
		{"empty stays empty", []string{}, []string{}},
		{"folds and keeps first", []string{" View_Dashboard", "view_dashboard", "EXPORT_DATA"}, []string{"view_dashboard", "export_data"}},
		{"drops blanks", []string{"", "  ", "a"}, []string{"a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DedupeFold(tt.input))
		})
	}
}

func TestMatchAny(t *testing.T) {
	assert.True(t, MatchAny("", "anything"))
	assert.True(t, MatchAny("  JANE ", "Bob", "Jane Doe"))
	assert.True(t, MatchAny("ver", "verification-123"))
	assert.False(t, MatchAny("zed", "Jane Doe", "verification-123"))
	assert.False(t, MatchAny("x"))
}

func TestEqualFold(t *testing.T) {
	assert.True(t, EqualFold(" Jane Doe", "jane doe "))
	assert.False(t, EqualFold("Jane", "Jane Doe"))
}
