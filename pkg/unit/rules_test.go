package unit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRules(t *testing.T) {
	cases := []struct {
		rule  Rule
		input string
		want  string
	}{
		{Uppercase(), "ab", "AB"},
		{Lowercase(), "AbC", "abc"},
		{TitleCase(), "hello wide world", "Hello Wide World"},
		{TitleCase(), "MIXED case INPUT", "Mixed Case Input"},
		{SentenceCase(), "first line. second LINE? third", "First line. Second line? Third"},
		{TrimWhitespace(), "  hello \n  world  ", "hello\nworld"},
		{Reverse(), "AB", "BA"},
		{Reverse(), "héllo", "olléh"},
		{RemoveLineBreaks(), "one\ntwo\r\nthree", "one two three"},
	}

	for _, tc := range cases {
		t.Run(tc.rule.ID(), func(t *testing.T) {
			got, err := tc.rule.Transform(context.Background(), tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestBuiltinRuleIDsUnique(t *testing.T) {
	seen := make(map[string]bool)
	for _, rule := range BuiltinRules() {
		require.NotEmpty(t, rule.ID())
		require.NotEmpty(t, rule.Name())
		assert.False(t, seen[rule.ID()], "duplicate rule id %s", rule.ID())
		seen[rule.ID()] = true
	}
}
