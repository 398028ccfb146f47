package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Bolão da Copa", "bolao-da-copa"},
		{"Champions League 2026", "champions-league-2026"},
		{"  spaced   out  ", "spaced-out"},
		{"UPPER CASE!!", "upper-case"},
		{"série-a_2026", "serie-a-2026"},
		{"---", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Slugify(tt.in), "Slugify(%q)", tt.in)
	}
}
