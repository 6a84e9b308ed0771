package rules

import (
	"regexp"
	"strings"
)

// mentionPattern matches an @-mention followed by a discussion reference
// ("#123") or post reference ("#p123"), including everything in between.
// Short replies that are nothing but quote boilerplate collapse to almost
// nothing once these are stripped.
var mentionPattern = regexp.MustCompile(`@.*(#\d+|#p\d+)`)

var crlfReplacer = strings.NewReplacer("\r", "", "\n", "")

// NormalizeContent prepares post content for minimum-length evaluation. With
// stripMentions disabled the content is returned unchanged. Otherwise every
// mention-plus-reference substring is removed, line breaks are dropped and
// the result is trimmed. The function is pure and idempotent.
func NormalizeContent(content string, stripMentions bool) string {
	if !stripMentions {
		return content
	}
	return strings.TrimSpace(crlfReplacer.Replace(mentionPattern.ReplaceAllString(content, "")))
}
