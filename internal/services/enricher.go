package services

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/karanveer09/unilink/backend/internal/models"
	"github.com/karanveer09/unilink/backend/pkg/cache"
)

// UserStore is the read path the enricher uses to resolve display data.
type UserStore interface {
	GetUserByID(id string) (*models.User, error)
}

// PostStore resolves post metadata for enrichment.
type PostStore interface {
	GetPostByID(ctx context.Context, id string) (*models.Post, error)
}

// MetadataCache fronts user display lookups. Satisfied by cache.Cache.
type MetadataCache interface {
	GetValue(key string) (string, error)
	SetValue(key string, val string) error
	ExpireKey(key string, ttl int)
}

// UserDisplay is the resolved display data for one user.
type UserDisplay struct {
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
}

// Enricher resolves best-effort display metadata for notifications. Every
// lookup reports (value, found, err) so callers can tell a missing record
// apart from a failed lookup; neither ever aborts notification creation.
type Enricher struct {
	users UserStore
	posts PostStore
	cache MetadataCache
	log   *logrus.Logger
}

func NewEnricher(users UserStore, posts PostStore, metaCache MetadataCache, log *logrus.Logger) *Enricher {
	return &Enricher{users: users, posts: posts, cache: metaCache, log: log}
}

// displayName resolves a user's display name: username when set, otherwise
// first and last name joined with a space, skipping blank parts.
func displayName(u *models.User) string {
	if name := strings.TrimSpace(u.Username); name != "" {
		return name
	}
	parts := make([]string, 0, 2)
	if first := strings.TrimSpace(u.FirstName); first != "" {
		parts = append(parts, first)
	}
	if last := strings.TrimSpace(u.LastName); last != "" {
		parts = append(parts, last)
	}
	return strings.Join(parts, " ")
}

const userDisplayCacheTTL = cache.Expire18HR

// UserDisplay resolves a user's display name and avatar URL. The redis cache
// is consulted first; cache failures degrade to a direct store read.
func (e *Enricher) UserDisplay(ctx context.Context, userID string) (UserDisplay, bool, error) {
	if userID == "" {
		return UserDisplay{}, false, nil
	}

	cacheKey := "user:display:" + userID
	if e.cache != nil {
		if raw, err := e.cache.GetValue(cacheKey); err == nil {
			var d UserDisplay
			if err := json.Unmarshal([]byte(raw), &d); err == nil {
				return d, true, nil
			}
		}
	}

	user, err := e.users.GetUserByID(userID)
	if err != nil {
		return UserDisplay{}, false, err
	}
	if user == nil {
		return UserDisplay{}, false, nil
	}

	d := UserDisplay{Name: displayName(user), AvatarURL: user.AvatarURL}
	if e.cache != nil {
		if raw, err := json.Marshal(d); err == nil {
			if err := e.cache.SetValue(cacheKey, string(raw)); err == nil {
				e.cache.ExpireKey(cacheKey, userDisplayCacheTTL)
			}
		}
	}
	return d, true, nil
}

// PostImage resolves the post's lead image URL verbatim.
func (e *Enricher) PostImage(ctx context.Context, postID string) (string, bool, error) {
	if postID == "" {
		return "", false, nil
	}
	post, err := e.posts.GetPostByID(ctx, postID)
	if err != nil {
		return "", false, err
	}
	if post == nil {
		return "", false, nil
	}
	return post.FirstImageURL(), true, nil
}

// Enrich fills a notification's display fields in place. Lookup errors are
// logged and leave the field absent; they never propagate.
func (e *Enricher) Enrich(ctx context.Context, n *models.Notification) {
	if n.OrganizerID != "" && (n.OrganizerName == "" || n.OrganizerAvatarURL == "") {
		if d, found := e.organizerDisplay(ctx, n); found {
			if n.OrganizerName == "" {
				n.OrganizerName = d.Name
			}
			if n.OrganizerAvatarURL == "" {
				n.OrganizerAvatarURL = d.AvatarURL
			}
		}
	}

	if n.FromUserID != "" && (n.AuthorName == "" || n.AuthorAvatarURL == "") {
		if d, found, err := e.UserDisplay(ctx, n.FromUserID); err != nil {
			e.log.WithFields(logrus.Fields{"from_user_id": n.FromUserID, "error": err}).
				Warn("author enrichment lookup failed")
		} else if found {
			if n.AuthorName == "" {
				n.AuthorName = d.Name
			}
			if n.AuthorAvatarURL == "" {
				n.AuthorAvatarURL = d.AvatarURL
			}
		}
	}

	if n.PostImageURL == "" && n.ReferenceID != "" && n.Type != models.NotificationTypeMessage {
		if img, found, err := e.PostImage(ctx, n.ReferenceID); err != nil {
			e.log.WithFields(logrus.Fields{"reference_id": n.ReferenceID, "error": err}).
				Warn("post image enrichment lookup failed")
		} else if found {
			n.PostImageURL = img
		}
	}
}

// organizerDisplay resolves the organizer's display data. When the direct
// organizer lookup misses or fails, the referenced post's owning user is
// tried instead, so stale or mistyped organizer ids still render a name.
func (e *Enricher) organizerDisplay(ctx context.Context, n *models.Notification) (UserDisplay, bool) {
	d, found, err := e.UserDisplay(ctx, n.OrganizerID)
	if err != nil {
		e.log.WithFields(logrus.Fields{"organizer_id": n.OrganizerID, "error": err}).
			Warn("organizer enrichment lookup failed")
	}
	if found {
		return d, true
	}

	if n.ReferenceID == "" || n.Type == models.NotificationTypeMessage {
		return UserDisplay{}, false
	}
	post, err := e.posts.GetPostByID(ctx, n.ReferenceID)
	if err != nil {
		e.log.WithFields(logrus.Fields{"reference_id": n.ReferenceID, "error": err}).
			Warn("organizer fallback post lookup failed")
		return UserDisplay{}, false
	}
	if post == nil || post.OrganizerID == "" || post.OrganizerID == n.OrganizerID {
		return UserDisplay{}, false
	}

	d, found, err = e.UserDisplay(ctx, post.OrganizerID)
	if err != nil {
		e.log.WithFields(logrus.Fields{"post_owner_id": post.OrganizerID, "error": err}).
			Warn("organizer fallback owner lookup failed")
		return UserDisplay{}, false
	}
	return d, found
}

// needsEnrichment reports whether a stored notification is still missing
// display data it could plausibly have.
func needsEnrichment(n *models.Notification) bool {
	return (n.OrganizerID != "" && (n.OrganizerName == "" || n.OrganizerAvatarURL == "")) ||
		(n.FromUserID != "" && (n.AuthorName == "" || n.AuthorAvatarURL == "")) ||
		(n.ReferenceID != "" && n.PostImageURL == "" && n.Type != models.NotificationTypeMessage)
}

// AbsolutizeMediaURL rewrites a relative media URL into an absolute one using
// the current request's scheme and host. Already-absolute URLs pass through.
func AbsolutizeMediaURL(raw, scheme, host string) string {
	if raw == "" || strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	if !strings.HasPrefix(raw, "/") {
		raw = "/" + raw
	}
	if scheme == "" {
		scheme = "http"
	}
	return scheme + "://" + host + raw
}
