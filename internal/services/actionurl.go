package services

import "github.com/karanveer09/unilink/backend/internal/models"

// BuildActionURL maps a notification type and reference id to the deep-link
// path the client navigates to. An empty type yields no link regardless of
// the reference id. Unknown types fall back to the plain post link.
func BuildActionURL(notificationType, referenceID string) string {
	if notificationType == "" {
		return ""
	}
	switch notificationType {
	case models.NotificationTypeMessage:
		return "/messages"
	case models.NotificationTypeLike:
		if referenceID == "" {
			return ""
		}
		return "/posts/" + referenceID + "?highlight=likes"
	case models.NotificationTypeComment:
		if referenceID == "" {
			return ""
		}
		return "/posts/" + referenceID + "?highlight=comments"
	default:
		if referenceID == "" {
			return ""
		}
		return "/posts/" + referenceID
	}
}
