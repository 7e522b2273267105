package github

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidLogin(t *testing.T) {
	tests := []struct {
		login string
		want  bool
	}{
		{"octocat", true},
		{"a", true},
		{"mona-lisa", true},
		{"A1-b2-C3", true},
		{strings.Repeat("a", 39), true},
		{strings.Repeat("a", 40), false},
		{"", false},
		{"-octocat", false},
		{"octocat-", false},
		{"octo--cat", false},
		{"octo_cat", false},
		{"octo/cat", false},
		{"../etc", false},
	}
	for _, tt := range tests {
		t.Run(tt.login, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidLogin(tt.login))
		})
	}
}
