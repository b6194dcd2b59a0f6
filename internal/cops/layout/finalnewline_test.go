package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/turbocop/internal/cop"
	"github.com/standardbeagle/turbocop/internal/source"
)

func TestFinalNewlineFlagsMissingTerminator(t *testing.T) {
	file := source.New("f.rb", []byte("x = 1"))
	ctx := &cop.Context{File: file}

	offenses := collectOffenses(t, ctx, FinalNewline{}.CheckLines)

	require.Len(t, offenses, 1)
	require.NotNil(t, offenses[0].Correction)
	assert.Equal(t, "\n", offenses[0].Correction.Replacement)
	assert.Equal(t, 5, offenses[0].Correction.Start)
}

func TestFinalNewlineSilentWhenPresent(t *testing.T) {
	file := source.New("f.rb", []byte("x = 1\n"))
	ctx := &cop.Context{File: file}

	offenses := collectOffenses(t, ctx, FinalNewline{}.CheckLines)
	assert.Empty(t, offenses)
}

func TestFinalNewlineSilentOnEmptyFile(t *testing.T) {
	file := source.New("f.rb", []byte(""))
	ctx := &cop.Context{File: file}

	offenses := collectOffenses(t, ctx, FinalNewline{}.CheckLines)
	assert.Empty(t, offenses)
}
