package httpserver

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/yukyra-eren/flarum-ext-money/internal/adapter/metrics"
	"github.com/yukyra-eren/flarum-ext-money/internal/domain"
	apperrors "github.com/yukyra-eren/flarum-ext-money/internal/platform/errors"
)

// signatureHeader carries the hex HMAC-SHA256 of the raw request body,
// prefixed with "sha256=". The forum signs every delivery with the shared
// webhook secret.
const signatureHeader = "X-Forum-Signature"

const maxWebhookBodySize = 1 << 20 // 1 MiB

// eventEnvelope is the wire format of a forum event delivery.
type eventEnvelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type accountPayload struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
}

type tagPayload struct {
	ID   int64  `json:"id"`
	Slug string `json:"slug"`
}

type postPayload struct {
	ID         uuid.UUID          `json:"id"`
	Number     int                `json:"number"`
	Kind       string             `json:"kind"`
	Content    string             `json:"content"`
	HiddenAt   *time.Time         `json:"hidden_at"`
	Owner      *accountPayload    `json:"owner"`
	Discussion *discussionPayload `json:"discussion"`
}

type discussionPayload struct {
	ID       uuid.UUID       `json:"id"`
	Title    string          `json:"title"`
	Starter  *accountPayload `json:"starter"`
	Tags     []tagPayload    `json:"tags"`
	Posts    []*postPayload  `json:"posts"`
	HiddenAt *time.Time      `json:"hidden_at"`
}

type postEventPayload struct {
	Post  *postPayload    `json:"post"`
	Actor *accountPayload `json:"actor"`
}

type discussionEventPayload struct {
	Discussion *discussionPayload `json:"discussion"`
	Actor      *accountPayload    `json:"actor"`
}

type accountSavingPayload struct {
	Account    *accountPayload `json:"account"`
	Actor      *accountPayload `json:"actor"`
	Attributes map[string]any  `json:"attributes"`
}

func (s *Server) handleForumWebhook(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBodySize))
	if err != nil {
		metrics.WebhookEventsTotal.WithLabelValues("read_error").Inc()
		return apperrors.ValidationError("failed to read request body")
	}

	if !s.verifySignature(body, c.Request().Header.Get(signatureHeader)) {
		metrics.WebhookEventsTotal.WithLabelValues("bad_signature").Inc()
		return apperrors.ForbiddenError("invalid webhook signature")
	}

	var envelope eventEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		metrics.WebhookEventsTotal.WithLabelValues("bad_payload").Inc()
		return apperrors.ValidationError("invalid event envelope")
	}

	event, err := decodeEvent(envelope)
	if err != nil {
		metrics.WebhookEventsTotal.WithLabelValues("bad_payload").Inc()
		return apperrors.ValidationError(err.Error()).WithField("type", envelope.Type)
	}

	if err := s.app.HandleForumEvent(c.Request().Context(), event); err != nil {
		metrics.WebhookEventsTotal.WithLabelValues("error").Inc()
		if errors.Is(err, domain.ErrPermissionDenied) {
			return apperrors.ForbiddenError("event rejected").WithField("type", envelope.Type)
		}
		return apperrors.InternalError("failed to process event", err).WithField("type", envelope.Type)
	}

	metrics.WebhookEventsTotal.WithLabelValues("ok").Inc()
	if err := c.JSON(http.StatusOK, map[string]string{"status": "ok"}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) verifySignature(body []byte, header string) bool {
	signature, ok := strings.CutPrefix(header, "sha256=")
	if !ok {
		return false
	}

	provided, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(s.config.WebhookSecret))
	mac.Write(body)
	return hmac.Equal(provided, mac.Sum(nil))
}

// decodeEvent maps an envelope onto the domain event union.
func decodeEvent(envelope eventEnvelope) (domain.Event, error) {
	switch envelope.Type {
	case "post_posted":
		payload, err := unmarshalPayload[postEventPayload](envelope.Payload)
		if err != nil {
			return nil, err
		}
		return domain.PostPosted{Post: toDomainPost(payload.Post, nil), Actor: toDomainAccount(payload.Actor)}, nil
	case "post_restored":
		payload, err := unmarshalPayload[postEventPayload](envelope.Payload)
		if err != nil {
			return nil, err
		}
		return domain.PostRestored{Post: toDomainPost(payload.Post, nil)}, nil
	case "post_hidden":
		payload, err := unmarshalPayload[postEventPayload](envelope.Payload)
		if err != nil {
			return nil, err
		}
		return domain.PostHidden{Post: toDomainPost(payload.Post, nil)}, nil
	case "post_deleted":
		payload, err := unmarshalPayload[postEventPayload](envelope.Payload)
		if err != nil {
			return nil, err
		}
		return domain.PostDeleted{Post: toDomainPost(payload.Post, nil)}, nil
	case "post_liked":
		payload, err := unmarshalPayload[postEventPayload](envelope.Payload)
		if err != nil {
			return nil, err
		}
		return domain.PostLiked{Post: toDomainPost(payload.Post, nil)}, nil
	case "post_unliked":
		payload, err := unmarshalPayload[postEventPayload](envelope.Payload)
		if err != nil {
			return nil, err
		}
		return domain.PostUnliked{Post: toDomainPost(payload.Post, nil)}, nil
	case "discussion_started":
		payload, err := unmarshalPayload[discussionEventPayload](envelope.Payload)
		if err != nil {
			return nil, err
		}
		return domain.DiscussionStarted{Discussion: toDomainDiscussion(payload.Discussion), Actor: toDomainAccount(payload.Actor)}, nil
	case "discussion_restored":
		payload, err := unmarshalPayload[discussionEventPayload](envelope.Payload)
		if err != nil {
			return nil, err
		}
		return domain.DiscussionRestored{Discussion: toDomainDiscussion(payload.Discussion)}, nil
	case "discussion_hidden":
		payload, err := unmarshalPayload[discussionEventPayload](envelope.Payload)
		if err != nil {
			return nil, err
		}
		return domain.DiscussionHidden{Discussion: toDomainDiscussion(payload.Discussion)}, nil
	case "discussion_deleted":
		payload, err := unmarshalPayload[discussionEventPayload](envelope.Payload)
		if err != nil {
			return nil, err
		}
		return domain.DiscussionDeleted{Discussion: toDomainDiscussion(payload.Discussion)}, nil
	case "account_saving":
		payload, err := unmarshalPayload[accountSavingPayload](envelope.Payload)
		if err != nil {
			return nil, err
		}
		return domain.AccountSaving{
			Account:    toDomainAccount(payload.Account),
			Actor:      toDomainAccount(payload.Actor),
			Attributes: payload.Attributes,
		}, nil
	default:
		return nil, fmt.Errorf("unknown event type %q", envelope.Type)
	}
}

func unmarshalPayload[T any](raw json.RawMessage) (*T, error) {
	var payload T
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("invalid event payload: %w", err)
	}
	return &payload, nil
}

func toDomainAccount(p *accountPayload) *domain.Account {
	if p == nil {
		return nil
	}
	return &domain.Account{ID: p.ID, Username: p.Username}
}

func toDomainPost(p *postPayload, discussion *domain.Discussion) *domain.Post {
	if p == nil {
		return nil
	}
	post := &domain.Post{
		ID:       p.ID,
		Number:   p.Number,
		Kind:     domain.PostKind(p.Kind),
		Content:  p.Content,
		HiddenAt: p.HiddenAt,
		Owner:    toDomainAccount(p.Owner),
	}
	if discussion != nil {
		post.Discussion = discussion
	} else {
		post.Discussion = toDomainDiscussion(p.Discussion)
	}
	return post
}

func toDomainDiscussion(p *discussionPayload) *domain.Discussion {
	if p == nil {
		return nil
	}
	discussion := &domain.Discussion{
		ID:       p.ID,
		Title:    p.Title,
		Starter:  toDomainAccount(p.Starter),
		HiddenAt: p.HiddenAt,
	}
	for _, tag := range p.Tags {
		discussion.Tags = append(discussion.Tags, domain.Tag{ID: tag.ID, Slug: tag.Slug})
	}
	// Posts point back at their discussion so eligibility can see its tags.
	for _, post := range p.Posts {
		discussion.Posts = append(discussion.Posts, toDomainPost(post, discussion))
	}
	return discussion
}
