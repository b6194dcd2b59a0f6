package directive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/turbocop/internal/cop"
	"github.com/standardbeagle/turbocop/internal/source"
)

func TestSingleLineDirectiveSuppressesOnlyItsOwnLine(t *testing.T) {
	src := []byte("x = 1  # rubocop:disable Layout/LineLength\ny = 2\n")
	file := source.New("t.rb", src)

	comments := []CommentText{{Text: "# rubocop:disable Layout/LineLength", Start: 7}}
	set := Parse(file, comments)

	assert.True(t, set.Disabled("Layout/LineLength", 1))
	assert.False(t, set.Disabled("Layout/LineLength", 2))
}

func TestBlockDirectiveSpansUntilMatchingEnable(t *testing.T) {
	src := []byte("# rubocop:disable Style/Foo\na\nb\n# rubocop:enable Style/Foo\nc\n")
	file := source.New("t.rb", src)

	comments := []CommentText{
		{Text: "# rubocop:disable Style/Foo", Start: 0},
		{Text: "# rubocop:enable Style/Foo", Start: 32},
	}
	set := Parse(file, comments)

	assert.True(t, set.Disabled("Style/Foo", 2))
	assert.True(t, set.Disabled("Style/Foo", 3))
	assert.False(t, set.Disabled("Style/Foo", 5))
}

func TestBlockDirectiveWithoutEnableRunsToEndOfFile(t *testing.T) {
	src := []byte("# rubocop:disable Style/Foo\na\nb\n")
	file := source.New("t.rb", src)

	comments := []CommentText{{Text: "# rubocop:disable Style/Foo", Start: 0}}
	set := Parse(file, comments)

	assert.True(t, set.Disabled("Style/Foo", 2))
	assert.True(t, set.Disabled("Style/Foo", 1000))
}

func TestAllKeywordDisablesEveryRule(t *testing.T) {
	src := []byte("x = 1  # rubocop:disable all\n")
	file := source.New("t.rb", src)

	comments := []CommentText{{Text: "# rubocop:disable all", Start: 7}}
	set := Parse(file, comments)

	assert.True(t, set.Disabled("Layout/LineLength", 1))
	assert.True(t, set.Disabled("Style/AnythingAtAll", 1))
}

func TestTodoIsAnAliasForDisable(t *testing.T) {
	src := []byte("# rubocop:todo Style/Foo\na\n")
	file := source.New("t.rb", src)

	comments := []CommentText{{Text: "# rubocop:todo Style/Foo", Start: 0}}
	set := Parse(file, comments)

	assert.True(t, set.Disabled("Style/Foo", 2))
}

func TestFilterDropsDisabledOffenses(t *testing.T) {
	src := []byte("x = 1  # rubocop:disable Layout/LineLength\ny = 2\n")
	file := source.New("t.rb", src)

	comments := []CommentText{{Text: "# rubocop:disable Layout/LineLength", Start: 7}}
	set := Parse(file, comments)

	offenses := []cop.Offense{
		{RuleID: "Layout/LineLength", Start: 0},
		{RuleID: "Layout/LineLength", Start: 44},
	}
	filtered := set.Filter(file, offenses)
	require.Len(t, filtered, 1)
	assert.Equal(t, 44, filtered[0].Start)
}

func TestIgnoreDisableCommentsBypassesSuppression(t *testing.T) {
	src := []byte("x = 1  # rubocop:disable Layout/LineLength\n")
	file := source.New("t.rb", src)

	comments := []CommentText{{Text: "# rubocop:disable Layout/LineLength", Start: 7}}
	set := Parse(file, comments)
	set.SetIgnoreDisableComments(true)

	assert.False(t, set.Disabled("Layout/LineLength", 1))
}

func TestRedundantDisableReportedWhenRuleNeverFired(t *testing.T) {
	src := []byte("# rubocop:disable Style/Foo\na\n")
	file := source.New("t.rb", src)

	comments := []CommentText{{Text: "# rubocop:disable Style/Foo", Start: 0}}
	set := Parse(file, comments)

	redundant := set.RedundantDisables(map[string]bool{})
	require.Len(t, redundant, 1)
	assert.Equal(t, "Style/Foo", redundant[0].Rule)
}

func TestRedundantDisableNotReportedWhenRuleFired(t *testing.T) {
	src := []byte("# rubocop:disable Style/Foo\na\n")
	file := source.New("t.rb", src)

	comments := []CommentText{{Text: "# rubocop:disable Style/Foo", Start: 0}}
	set := Parse(file, comments)

	redundant := set.RedundantDisables(map[string]bool{"Style/Foo": true})
	assert.Empty(t, redundant)
}

func TestSelfReferentialDisableNeverFlaggedRedundant(t *testing.T) {
	src := []byte("# rubocop:disable Lint/RedundantCopDisableDirective\na\n")
	file := source.New("t.rb", src)

	comments := []CommentText{{Text: "# rubocop:disable Lint/RedundantCopDisableDirective", Start: 0}}
	set := Parse(file, comments)

	redundant := set.RedundantDisables(map[string]bool{})
	assert.Empty(t, redundant)
}
