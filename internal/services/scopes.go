package services

import "github.com/karanveer09/unilink/backend/internal/models"

// ScopeKind tags the three subscription match strategies for a new post.
type ScopeKind int

const (
	// ScopeExactPost matches subscriptions pinned to the post id.
	ScopeExactPost ScopeKind = iota
	// ScopeTitle matches title-scoped subscriptions on exact title equality.
	ScopeTitle
	// ScopeOrganizerWide matches organizer subscriptions with no post id.
	ScopeOrganizerWide
)

// Scope is one concrete match filter, always implicitly is_active = true.
type Scope struct {
	Kind        ScopeKind
	PostID      string
	Title       string
	OrganizerID string
}

// eventScopes expands a new-post event into the filters to evaluate. A blank
// title drops the title scope rather than matching other blank-titled
// subscriptions.
func eventScopes(postID, organizerID, title string) []Scope {
	scopes := []Scope{
		{Kind: ScopeExactPost, PostID: postID},
	}
	if title != "" {
		scopes = append(scopes, Scope{Kind: ScopeTitle, OrganizerID: organizerID, Title: title})
	}
	scopes = append(scopes, Scope{Kind: ScopeOrganizerWide, OrganizerID: organizerID})
	return scopes
}

// recipient is one deduplicated fan-out target. Category carries the first
// matching subscription's category; which scope produced the match is not
// surfaced to the recipient.
type recipient struct {
	UserID   string
	Category string
}

// dedupeRecipients reduces matched subscriptions to one recipient per user,
// preserving the order in which users first appeared.
func dedupeRecipients(matches []models.Subscription) []recipient {
	seen := make(map[string]struct{}, len(matches))
	out := make([]recipient, 0, len(matches))
	for _, sub := range matches {
		if _, ok := seen[sub.UserID]; ok {
			continue
		}
		seen[sub.UserID] = struct{}{}
		out = append(out, recipient{UserID: sub.UserID, Category: sub.Category})
	}
	return out
}
