package textutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeName(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"  Jane   Doe ", "jane doe"},
		{"JANE\tDOE", "jane doe"},
		{"\njane doe\n", "jane doe"},
		{"", ""},
	}
	for _, c := range testCases {
		require.Equal(t, c.expected, NormalizeName(c.input))
	}
}

func TestMatchName(t *testing.T) {
	matchers := []string{"jane doe", "shelter.org"}

	require.True(t, MatchName("Jane  Doe", matchers))
	require.True(t, MatchName("staff@shelter.org", matchers))
	require.False(t, MatchName("John Doe", matchers))
}

func TestCollapseLines(t *testing.T) {
	input := "  first line\r\n\r\n\n   second line  \n\n"
	require.Equal(t, "first line\nsecond line", CollapseLines(input))
}
