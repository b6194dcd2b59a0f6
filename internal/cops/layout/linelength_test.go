package layout

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/turbocop/internal/cop"
	"github.com/standardbeagle/turbocop/internal/source"
)

func collectOffenses(t *testing.T, ctx *cop.Context, run func(*cop.Context)) []cop.Offense {
	t.Helper()
	var offenses []cop.Offense
	ctx.Report = func(o cop.Offense) { offenses = append(offenses, o) }
	run(ctx)
	return offenses
}

func TestLineLengthFlagsOverlongLine(t *testing.T) {
	long := strings.Repeat("x", 130)
	file := source.New("f.rb", []byte(long+"\nshort\n"))
	ctx := &cop.Context{File: file}

	offenses := collectOffenses(t, ctx, LineLength{}.CheckLines)

	require.Len(t, offenses, 1)
	assert.Contains(t, offenses[0].Message, "130/120")
}

func TestLineLengthHonorsMaxOption(t *testing.T) {
	file := source.New("f.rb", []byte("0123456789\n"))
	ctx := &cop.Context{File: file, Config: map[string]interface{}{"Max": 5}}

	offenses := collectOffenses(t, ctx, LineLength{}.CheckLines)

	require.Len(t, offenses, 1)
	assert.Contains(t, offenses[0].Message, "10/5")
}

func TestLineLengthSilentWhenWithinBounds(t *testing.T) {
	file := source.New("f.rb", []byte("short line\n"))
	ctx := &cop.Context{File: file}

	offenses := collectOffenses(t, ctx, LineLength{}.CheckLines)
	assert.Empty(t, offenses)
}

func TestLineLengthMetadata(t *testing.T) {
	m := LineLength{}.Metadata()
	assert.Equal(t, "Layout/LineLength", m.FullName())
}
