package pathutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToRelative(t *testing.T) {
	assert.Equal(t, "app/models/user.rb",
		ToRelative("/home/user/project/app/models/user.rb", "/home/user/project"))
	assert.Equal(t, "/other/location/file.rb",
		ToRelative("/other/location/file.rb", "/home/user/project"))
	assert.Equal(t, "app/models/user.rb",
		ToRelative("app/models/user.rb", "/home/user/project"))
	assert.Equal(t, "", ToRelative("", "/home/user/project"))
	assert.Equal(t, "/a/b.rb", ToRelative("/a/b.rb", ""))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "app/models/user.rb", Normalize("./app/models/user.rb"))
	assert.Equal(t, "app/models", Normalize("app/models/"))
	assert.Equal(t, "app/models/user.rb", Normalize("app/models/user.rb"))
	assert.Equal(t, ".", Normalize(""))
	assert.Equal(t, ".", Normalize("./"))
}

func TestNormalizeStableUnderEquivalentSpellings(t *testing.T) {
	assert.Equal(t, Normalize("app/models/user.rb"), Normalize("./app/models/user.rb"))
	assert.Equal(t, Normalize("app/models"), Normalize("app/models/"))
}
