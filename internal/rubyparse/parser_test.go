package rubyparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSimpleSend(t *testing.T) {
	res, err := Parse("a.rb", []byte("foo.bar(1, 2)\n"))
	require.NoError(t, err)
	require.Len(t, res.Root.Children, 1)

	send, ok := AsSend(res.Root.Children[0])
	require.True(t, ok)
	assert.Equal(t, "bar", send.MethodName())
	require.NotNil(t, send.Receiver())
	assert.Equal(t, Ident, send.Receiver().Type)
	require.Len(t, send.Args(), 2)
}

func TestParseAssignment(t *testing.T) {
	res, err := Parse("a.rb", []byte("x = 1\n"))
	require.NoError(t, err)
	require.Len(t, res.Root.Children, 1)
	assert.Equal(t, LVAsgn, res.Root.Children[0].Type)
	assert.Equal(t, "x", res.Root.Children[0].Name)
}

func TestParseIvarAssignment(t *testing.T) {
	res, err := Parse("a.rb", []byte("@count = 0\n"))
	require.NoError(t, err)
	assert.Equal(t, IVAsgn, res.Root.Children[0].Type)
}

func TestParseDef(t *testing.T) {
	res, err := Parse("a.rb", []byte("def greet(name)\n  puts name\nend\n"))
	require.NoError(t, err)
	require.Len(t, res.Root.Children, 1)

	def, ok := AsDef(res.Root.Children[0])
	require.True(t, ok)
	assert.Equal(t, "greet", def.Name())
	assert.False(t, def.IsSingleton())
	require.Len(t, def.Params(), 1)
	assert.Equal(t, "name", def.Params()[0].Name)
	require.NotNil(t, def.Body())
}

func TestParseDefSelf(t *testing.T) {
	res, err := Parse("a.rb", []byte("def self.build\nend\n"))
	require.NoError(t, err)
	def, ok := AsDef(res.Root.Children[0])
	require.True(t, ok)
	assert.True(t, def.IsSingleton())
	assert.Equal(t, "build", def.Name())
}

func TestParseClassWithSuperclass(t *testing.T) {
	res, err := Parse("a.rb", []byte("class Dog < Animal\nend\n"))
	require.NoError(t, err)
	cls, ok := AsClass(res.Root.Children[0])
	require.True(t, ok)
	assert.Equal(t, "Dog", cls.Name())
	assert.False(t, cls.IsModule())
	require.NotNil(t, cls.Superclass())
	assert.Equal(t, "Animal", cls.Superclass().Name)
}

func TestParseModule(t *testing.T) {
	res, err := Parse("a.rb", []byte("module Helpers\nend\n"))
	require.NoError(t, err)
	cls, ok := AsClass(res.Root.Children[0])
	require.True(t, ok)
	assert.True(t, cls.IsModule())
	assert.Equal(t, "Helpers", cls.Name())
}

func TestParseIfElse(t *testing.T) {
	res, err := Parse("a.rb", []byte("if x\n  a\nelse\n  b\nend\n"))
	require.NoError(t, err)
	iv, ok := AsIf(res.Root.Children[0])
	require.True(t, ok)
	assert.False(t, iv.IsUnless())
	require.NotNil(t, iv.Condition())
	require.NotNil(t, iv.Then())
	require.NotNil(t, iv.Else())
}

func TestParseUnlessModifier(t *testing.T) {
	res, err := Parse("a.rb", []byte("puts x unless y\n"))
	require.NoError(t, err)
	iv, ok := AsIf(res.Root.Children[0])
	require.True(t, ok)
	assert.True(t, iv.IsUnless())
}

func TestParseStringLiteral(t *testing.T) {
	res, err := Parse("a.rb", []byte(`x = "hello"` + "\n"))
	require.NoError(t, err)
	asgn := res.Root.Children[0]
	require.Len(t, asgn.Children, 1)
	str, ok := AsStr(asgn.Children[0])
	require.True(t, ok)
	assert.False(t, str.IsInterpolated())
}

func TestParseInterpolatedStringLiteral(t *testing.T) {
	res, err := Parse("a.rb", []byte(`x = "hi #{name}"`+"\n"))
	require.NoError(t, err)
	asgn := res.Root.Children[0]
	str, ok := AsStr(asgn.Children[0])
	require.True(t, ok)
	assert.True(t, str.IsInterpolated())
}

func TestWalkVisitsEveryNodeOnce(t *testing.T) {
	res, err := Parse("a.rb", []byte("class Foo\n  def bar(x)\n    x + 1 if x > 0\n  end\nend\n"))
	require.NoError(t, err)

	seen := map[*Node]int{}
	res.Walk(func(n *Node) {
		seen[n]++
	})
	for n, count := range seen {
		assert.Equal(t, 1, count, "node of type %s visited %d times", n.Type, count)
	}
	assert.Greater(t, len(seen), 3)
}

func TestParseArrayAndHashLiterals(t *testing.T) {
	res, err := Parse("a.rb", []byte("x = [1, 2, 3]\ny = { :a => 1, :b => 2 }\n"))
	require.NoError(t, err)
	require.Len(t, res.Root.Children, 2)

	arr := res.Root.Children[0].Children[0]
	assert.Equal(t, Array, arr.Type)
	assert.Len(t, arr.Children, 3)

	h := res.Root.Children[1].Children[0]
	assert.Equal(t, Hash, h.Type)
	assert.Len(t, h.Children, 2)
	assert.Equal(t, Pair, h.Children[0].Type)
}

func TestParseRecoversFromUnknownConstruct(t *testing.T) {
	// Even a construct the grammar doesn't model explicitly should not
	// panic; the parser should make forward progress.
	_, err := Parse("a.rb", []byte("BEGIN { x = 1 }\n"))
	assert.NoError(t, err)
}

func TestParentLinks(t *testing.T) {
	res, err := Parse("a.rb", []byte("class Foo\n  def bar\n  end\nend\n"))
	require.NoError(t, err)
	cls := res.Root.Children[0]
	def := cls.Body.Children[0]
	assert.Equal(t, cls.Body, def.Parent())
}
