package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PostKind distinguishes regular comments from structural event posts
// (discussion renamed, stickied, ...). Only comments earn money.
type PostKind string

const PostKindComment PostKind = "comment"

// Post is a single entry in a discussion. Number 1 is the opening post; it is
// rewarded through the discussion-level rule, not the post-level rule.
type Post struct {
	ID         uuid.UUID
	Number     int
	Kind       PostKind
	Content    string
	HiddenAt   *time.Time
	Owner      *Account
	Discussion *Discussion
}

// Visible reports whether the post is currently shown to readers.
func (p *Post) Visible() bool {
	return p.HiddenAt == nil
}

// Discussion groups posts under a starter and a set of tags.
type Discussion struct {
	ID       uuid.UUID
	Title    string
	Starter  *Account
	Tags     []Tag
	Posts    []*Post
	HiddenAt *time.Time
}

// Tag is a topical category. The only attribute this service cares about is
// the per-tag permission key that opts accounts out of earning money.
type Tag struct {
	ID   int64
	Slug string
}

// DisableMoneyPermission is the permission key whose presence vetoes earning
// for discussions carrying this tag.
func (t Tag) DisableMoneyPermission() string {
	return fmt.Sprintf("tag%d.discussion.money.disable_money", t.ID)
}
