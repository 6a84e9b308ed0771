package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yukyra-eren/flarum-ext-money/internal/domain"
)

func TestHandleForumWebhook_PostPosted(t *testing.T) {
	var received domain.Event
	app := &mockAppService{
		handleForumEventFn: func(_ context.Context, event domain.Event) error {
			received = event
			return nil
		},
	}
	srv := newTestServer(t, app)

	ownerID := uuid.New()
	discussionID := uuid.New()
	body := fmt.Sprintf(`{
		"type": "post_posted",
		"payload": {
			"post": {
				"id": %q,
				"number": 2,
				"kind": "comment",
				"content": "a reply worth rewarding",
				"owner": {"id": %q, "username": "alice"},
				"discussion": {"id": %q, "tags": [{"id": 7, "slug": "general"}]}
			},
			"actor": {"id": %q, "username": "alice"}
		}
	}`, uuid.NewString(), ownerID, discussionID, ownerID)

	rec := serve(srv, signedWebhookRequest(body))
	require.Equal(t, http.StatusOK, rec.Code)

	posted, ok := received.(domain.PostPosted)
	require.True(t, ok, "expected PostPosted, got %T", received)
	assert.Equal(t, 2, posted.Post.Number)
	assert.Equal(t, domain.PostKindComment, posted.Post.Kind)
	assert.Equal(t, "alice", posted.Actor.Username)
	require.NotNil(t, posted.Post.Discussion)
	assert.Equal(t, discussionID, posted.Post.Discussion.ID)
	assert.Equal(t, int64(7), posted.Post.Discussion.Tags[0].ID)
}

func TestHandleForumWebhook_DiscussionHiddenLinksPosts(t *testing.T) {
	var received domain.Event
	app := &mockAppService{
		handleForumEventFn: func(_ context.Context, event domain.Event) error {
			received = event
			return nil
		},
	}
	srv := newTestServer(t, app)

	body := fmt.Sprintf(`{
		"type": "discussion_hidden",
		"payload": {
			"discussion": {
				"id": %q,
				"starter": {"id": %q, "username": "carol"},
				"posts": [
					{"id": %q, "number": 2, "kind": "comment", "content": "a long enough reply here", "owner": {"id": %q, "username": "dave"}}
				]
			}
		}
	}`, uuid.NewString(), uuid.NewString(), uuid.NewString(), uuid.NewString())

	rec := serve(srv, signedWebhookRequest(body))
	require.Equal(t, http.StatusOK, rec.Code)

	hidden, ok := received.(domain.DiscussionHidden)
	require.True(t, ok, "expected DiscussionHidden, got %T", received)
	require.Len(t, hidden.Discussion.Posts, 1)
	assert.Same(t, hidden.Discussion, hidden.Discussion.Posts[0].Discussion,
		"posts must point back at their discussion")
}

func TestHandleForumWebhook_AccountSaving(t *testing.T) {
	var received domain.Event
	app := &mockAppService{
		handleForumEventFn: func(_ context.Context, event domain.Event) error {
			received = event
			return nil
		},
	}
	srv := newTestServer(t, app)

	body := fmt.Sprintf(`{
		"type": "account_saving",
		"payload": {
			"account": {"id": %q, "username": "bob"},
			"actor": {"id": %q, "username": "admin"},
			"attributes": {"money": 12.5}
		}
	}`, uuid.NewString(), uuid.NewString())

	rec := serve(srv, signedWebhookRequest(body))
	require.Equal(t, http.StatusOK, rec.Code)

	saving, ok := received.(domain.AccountSaving)
	require.True(t, ok, "expected AccountSaving, got %T", received)
	assert.Equal(t, 12.5, saving.Attributes["money"])
}

func TestHandleForumWebhook_BadSignature(t *testing.T) {
	called := false
	app := &mockAppService{
		handleForumEventFn: func(_ context.Context, _ domain.Event) error {
			called = true
			return nil
		},
	}
	srv := newTestServer(t, app)

	body := `{"type": "post_liked", "payload": {"post": {"id": "` + uuid.NewString() + `"}}}`
	req := httptest.NewRequest(http.MethodPost, "/webhooks/forum", strings.NewReader(body))
	req.Header.Set(signatureHeader, signBody("wrong-secret", []byte(body)))
	rec := serve(srv, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, called, "event must not be processed on bad signature")
}

func TestHandleForumWebhook_MissingSignature(t *testing.T) {
	srv := newTestServer(t, &mockAppService{})

	req := httptest.NewRequest(http.MethodPost, "/webhooks/forum", strings.NewReader(`{}`))
	rec := serve(srv, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHandleForumWebhook_UnknownEventType(t *testing.T) {
	srv := newTestServer(t, &mockAppService{})

	rec := serve(srv, signedWebhookRequest(`{"type": "post_vaporized", "payload": {}}`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleForumWebhook_MalformedEnvelope(t *testing.T) {
	srv := newTestServer(t, &mockAppService{})

	rec := serve(srv, signedWebhookRequest(`not json at all`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleForumWebhook_PermissionDenied(t *testing.T) {
	app := &mockAppService{
		handleForumEventFn: func(_ context.Context, _ domain.Event) error {
			return domain.ErrPermissionDenied
		},
	}
	srv := newTestServer(t, app)

	body := fmt.Sprintf(`{
		"type": "account_saving",
		"payload": {
			"account": {"id": %q, "username": "bob"},
			"actor": {"id": %q, "username": "nobody"},
			"attributes": {"money": 12.5}
		}
	}`, uuid.NewString(), uuid.NewString())

	rec := serve(srv, signedWebhookRequest(body))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHandleForumWebhook_ProcessingError(t *testing.T) {
	app := &mockAppService{
		handleForumEventFn: func(_ context.Context, _ domain.Event) error {
			return fmt.Errorf("database exploded")
		},
	}
	srv := newTestServer(t, app)

	body := `{"type": "post_liked", "payload": {"post": {"id": "` + uuid.NewString() + `"}}}`
	rec := serve(srv, signedWebhookRequest(body))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
