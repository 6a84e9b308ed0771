package domain

// Event is the closed union of forum events the rule engine reacts to. Each
// event carries the entities it concerns; the engine never loads posts or
// discussions itself. Delivery is assumed exactly-once per occurrence — the
// engine does not deduplicate.
type Event interface {
	// Kind returns a stable name for logging and metrics.
	Kind() string
	forumEvent()
}

// PostPosted fires when a new post is published. Actor is the author.
type PostPosted struct {
	Post  *Post
	Actor *Account
}

// PostRestored fires when a hidden post becomes visible again.
type PostRestored struct {
	Post *Post
}

// PostHidden fires when a post is soft-hidden.
type PostHidden struct {
	Post *Post
}

// PostDeleted fires when a post is permanently removed.
type PostDeleted struct {
	Post *Post
}

// DiscussionStarted fires when a discussion is created. Actor is the starter.
type DiscussionStarted struct {
	Discussion *Discussion
	Actor      *Account
}

// DiscussionRestored fires when a hidden discussion becomes visible again.
type DiscussionRestored struct {
	Discussion *Discussion
}

// DiscussionHidden fires when a discussion is soft-hidden.
type DiscussionHidden struct {
	Discussion *Discussion
}

// DiscussionDeleted fires when a discussion is permanently removed.
type DiscussionDeleted struct {
	Discussion *Discussion
}

// PostLiked fires when someone likes a post. The post owner is rewarded.
type PostLiked struct {
	Post *Post
}

// PostUnliked fires when a like is withdrawn.
type PostUnliked struct {
	Post *Post
}

// AccountSaving fires while an account edit is being persisted. Attributes is
// the raw edit payload; the engine only reacts when it contains a "money"
// field, which requires the actor to hold the edit_money capability.
type AccountSaving struct {
	Account    *Account
	Actor      *Account
	Attributes map[string]any
}

func (PostPosted) Kind() string         { return "post_posted" }
func (PostRestored) Kind() string       { return "post_restored" }
func (PostHidden) Kind() string         { return "post_hidden" }
func (PostDeleted) Kind() string        { return "post_deleted" }
func (DiscussionStarted) Kind() string  { return "discussion_started" }
func (DiscussionRestored) Kind() string { return "discussion_restored" }
func (DiscussionHidden) Kind() string   { return "discussion_hidden" }
func (DiscussionDeleted) Kind() string  { return "discussion_deleted" }
func (PostLiked) Kind() string          { return "post_liked" }
func (PostUnliked) Kind() string        { return "post_unliked" }
func (AccountSaving) Kind() string      { return "account_saving" }

func (PostPosted) forumEvent()         {}
func (PostRestored) forumEvent()       {}
func (PostHidden) forumEvent()         {}
func (PostDeleted) forumEvent()        {}
func (DiscussionStarted) forumEvent()  {}
func (DiscussionRestored) forumEvent() {}
func (DiscussionHidden) forumEvent()   {}
func (DiscussionDeleted) forumEvent()  {}
func (PostLiked) forumEvent()          {}
func (PostUnliked) forumEvent()        {}
func (AccountSaving) forumEvent()      {}
