package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/turbocop/internal/cop"
	"github.com/standardbeagle/turbocop/internal/source"
)

func TestTrailingWhitespaceFlagsAndCorrectsSpaces(t *testing.T) {
	file := source.New("f.rb", []byte("x = 1  \ny = 2\n"))
	ctx := &cop.Context{File: file}

	offenses := collectOffenses(t, ctx, TrailingWhitespace{}.CheckLines)

	require.Len(t, offenses, 1)
	require.NotNil(t, offenses[0].Correction)
	assert.True(t, offenses[0].Correction.Safe)
	assert.Equal(t, "", offenses[0].Correction.Replacement)
}

func TestTrailingWhitespaceIgnoresCleanLines(t *testing.T) {
	file := source.New("f.rb", []byte("x = 1\ny = 2\n"))
	ctx := &cop.Context{File: file}

	offenses := collectOffenses(t, ctx, TrailingWhitespace{}.CheckLines)
	assert.Empty(t, offenses)
}

func TestTrailingWhitespaceFlagsTabs(t *testing.T) {
	file := source.New("f.rb", []byte("x = 1\t\t\n"))
	ctx := &cop.Context{File: file}

	offenses := collectOffenses(t, ctx, TrailingWhitespace{}.CheckLines)
	require.Len(t, offenses, 1)
}
