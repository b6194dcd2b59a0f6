package style

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/turbocop/internal/cop"
	"github.com/standardbeagle/turbocop/internal/rubyparse"
)

func TestRedundantSelfFlagsExplicitReceiver(t *testing.T) {
	offenses := checkNodeOffenses(t, []byte("self.foo\n"), rubyparse.Send, nil, RedundantSelf{}.CheckNode)

	require.Len(t, offenses, 1)
	assert.Equal(t, "", offenses[0].Correction.Replacement)
}

func TestRedundantSelfSilentOnSetter(t *testing.T) {
	// The parser folds `self.foo = 1` into a plain LVAsgn (spec's parser
	// is a minimal stand-in, see internal/rubyparse doc comment), so
	// there is no Send node to walk to for this shape; exercise the
	// setter guard directly against a hand-built node instead.
	self := &rubyparse.Node{Type: rubyparse.Self, Start: 0, End: 4}
	send := &rubyparse.Node{Type: rubyparse.Send, Start: 0, End: 8, Name: "foo=", Receiver: self}

	var offenses []cop.Offense
	ctx := &cop.Context{Report: func(o cop.Offense) { offenses = append(offenses, o) }}
	RedundantSelf{}.CheckNode(ctx, send)

	assert.Empty(t, offenses)
}

func TestRedundantSelfSilentOnSelfClass(t *testing.T) {
	offenses := checkNodeOffenses(t, []byte("self.class\n"), rubyparse.Send, nil, RedundantSelf{}.CheckNode)
	assert.Empty(t, offenses)
}

func TestRedundantSelfSilentWithoutReceiver(t *testing.T) {
	offenses := checkNodeOffenses(t, []byte("foo(1)\n"), rubyparse.Send, nil, RedundantSelf{}.CheckNode)
	assert.Empty(t, offenses)
}

func TestRedundantSelfMetadataIsAutocorrectable(t *testing.T) {
	m := RedundantSelf{}.Metadata()
	assert.True(t, m.SupportsAutocorrect)
}
