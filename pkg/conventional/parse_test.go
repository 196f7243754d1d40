package conventional

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	t.Run("plain_type", func(t *testing.T) {
		msg := Parse("feat: add new feature to proj_1")
		assert.True(t, msg.Parsed)
		assert.Equal(t, "feat", msg.Kind)
		assert.False(t, msg.Breaking)
	})

	t.Run("scoped_type", func(t *testing.T) {
		msg := Parse("fix(parser): handle empty input")
		assert.True(t, msg.Parsed)
		assert.Equal(t, "fix", msg.Kind)
		assert.Equal(t, "parser", msg.Scope)
	})

	t.Run("bang_marks_breaking", func(t *testing.T) {
		msg := Parse("feat!: break lib API")
		assert.True(t, msg.Parsed)
		assert.Equal(t, "feat", msg.Kind)
		assert.True(t, msg.Breaking)
	})

	t.Run("scoped_bang", func(t *testing.T) {
		msg := Parse("refactor(core)!: drop legacy entry points")
		assert.True(t, msg.Parsed)
		assert.Equal(t, "refactor", msg.Kind)
		assert.True(t, msg.Breaking)
	})

	t.Run("breaking_change_trailer", func(t *testing.T) {
		msg := Parse("feat: new API\n\nBREAKING CHANGE: removes the old entry point")
		assert.True(t, msg.Breaking)

		msg = Parse("feat: new API\n\nBREAKING-CHANGE: removes the old entry point")
		assert.True(t, msg.Breaking)
	})

	t.Run("non_conventional", func(t *testing.T) {
		msg := Parse("random stuff")
		assert.False(t, msg.Parsed)
		assert.Equal(t, "", msg.Kind)
		assert.Equal(t, "random stuff", msg.Summary)
	})

	t.Run("colon_without_space_is_not_conventional", func(t *testing.T) {
		msg := Parse("feat:missing space")
		assert.False(t, msg.Parsed)
	})

	t.Run("type_is_lowercased", func(t *testing.T) {
		msg := Parse("Fix: normalize case")
		assert.True(t, msg.Parsed)
		assert.Equal(t, "fix", msg.Kind)
	})
}
