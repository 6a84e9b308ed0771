package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeContent_Disabled(t *testing.T) {
	content := "@alice #p42 thanks!"
	assert.Equal(t, content, NormalizeContent(content, false))
}

func TestNormalizeContent_StripsMentionWithPostReference(t *testing.T) {
	assert.Equal(t, "thanks!", NormalizeContent("@alice #p42 thanks!", true))
}

func TestNormalizeContent_StripsMentionWithDiscussionReference(t *testing.T) {
	assert.Equal(t, "agreed", NormalizeContent("@bob #17 agreed", true))
}

func TestNormalizeContent_StripsLineBreaks(t *testing.T) {
	assert.Equal(t, "line oneline two", NormalizeContent("line one\r\nline two\n", true))
}

func TestNormalizeContent_TrimsWhitespace(t *testing.T) {
	assert.Equal(t, "hello", NormalizeContent("   hello   ", true))
}

func TestNormalizeContent_NoMention(t *testing.T) {
	assert.Equal(t, "a perfectly normal reply", NormalizeContent("a perfectly normal reply", true))
}

func TestNormalizeContent_MentionWithoutReferenceKept(t *testing.T) {
	// A bare mention without a #-reference is not quote boilerplate.
	assert.Equal(t, "@alice nice point", NormalizeContent("@alice nice point", true))
}

func TestNormalizeContent_QuoteOnlyReplyCollapses(t *testing.T) {
	assert.Equal(t, "", NormalizeContent("@alice #p7\r\n", true))
}

func TestNormalizeContent_Idempotent(t *testing.T) {
	inputs := []string{
		"@alice #p42 thanks!",
		"plain text",
		"  spaced  ",
		"@a #1 and @b #p2 tail",
		"",
	}
	for _, in := range inputs {
		once := NormalizeContent(in, true)
		assert.Equal(t, once, NormalizeContent(once, true), "input %q", in)
	}
}
