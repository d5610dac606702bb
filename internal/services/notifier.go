package services

import "context"

// Events emitted over the real-time channel.
const (
	EventReceiveNotification  = "ReceiveNotification"
	EventNotificationRead     = "NotificationRead"
	EventAllNotificationsRead = "AllNotificationsRead"
)

// Notifier delivers a lightweight event to a user's live connection(s).
// Implementations are best-effort: the caller logs failures and never lets
// them fail the persisted operation.
type Notifier interface {
	NotifyUser(ctx context.Context, userID, event string, payload interface{}) error
}

// MultiNotifier fans a push out to several channels (websocket hub, FCM).
// Every notifier is attempted; the first error is returned after the loop so
// one dead channel does not starve the others.
type MultiNotifier []Notifier

func (m MultiNotifier) NotifyUser(ctx context.Context, userID, event string, payload interface{}) error {
	var firstErr error
	for _, n := range m {
		if err := n.NotifyUser(ctx, userID, event, payload); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// NopNotifier discards pushes. Used when no real-time channel is configured.
type NopNotifier struct{}

func (NopNotifier) NotifyUser(context.Context, string, string, interface{}) error { return nil }
