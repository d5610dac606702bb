package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/karanveer09/unilink/backend/internal/models"
)

// SubscriptionStore is the persistence surface the engine needs for
// subscription matching. The Mongo implementation lives in repositories.
type SubscriptionStore interface {
	SubscribeToOrganizer(ctx context.Context, userID, organizerID string) (*models.Subscription, error)
	SubscribeToPost(ctx context.Context, userID, postID, title, organizerID, category string) (*models.Subscription, error)
	SubscribeToTitle(ctx context.Context, userID, title, organizerID, category string) (*models.Subscription, error)
	UnsubscribeTitle(ctx context.Context, userID, title, organizerID string) (bool, error)
	IsTitleSubscribed(ctx context.Context, userID, organizerID, title string) (bool, error)
	Unsubscribe(ctx context.Context, userID, subscriptionID string) (bool, error)
	UnsubscribeAllForUser(ctx context.Context, userID string) (int64, error)
	GetSubscriptionsForOrganizer(ctx context.Context, organizerID, category string) ([]models.Subscription, error)
	GetUserSubscriptions(ctx context.Context, userID string, includeInactive bool) ([]models.Subscription, error)
	FindActiveByScope(ctx context.Context, scope Scope) ([]models.Subscription, error)
}

// NotificationStore persists notifications and read-state transitions.
type NotificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	GetByUser(ctx context.Context, userID string, limit int64, unreadOnly bool) ([]models.Notification, error)
	GetByID(ctx context.Context, id string) (*models.Notification, error)
	MarkAsRead(ctx context.Context, id string) (*models.Notification, error)
	MarkAllAsRead(ctx context.Context, userID string) (int64, error)
	SaveEnrichment(ctx context.Context, n *models.Notification) error
}

// opTimeout bounds every store and push call inside a fan-out so one slow
// dependency cannot stall the rest of the loop.
const opTimeout = 5 * time.Second

// NotificationService is the fan-out engine: it turns one triggering event
// into zero or more notification writes plus best-effort real-time pushes.
type NotificationService struct {
	subscriptions SubscriptionStore
	notifications NotificationStore
	enricher      *Enricher
	notifier      Notifier
	log           *logrus.Logger
}

func NewNotificationService(subs SubscriptionStore, notifs NotificationStore, enricher *Enricher, notifier Notifier, log *logrus.Logger) *NotificationService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &NotificationService{
		subscriptions: subs,
		notifications: notifs,
		enricher:      enricher,
		notifier:      notifier,
		log:           log,
	}
}

// receivePayload is the wire shape of a ReceiveNotification push event.
type receivePayload struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Message     string    `json:"message,omitempty"`
	Type        string    `json:"type"`
	ReferenceID string    `json:"referenceId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	ActionURL   string    `json:"actionUrl,omitempty"`
}

// SendNotificationsForNewPost fans a new post out to every user with an
// active matching subscription: exact-post, exact-title from the same
// organizer, or organizer-wide. A user matching several scopes receives
// exactly one notification. Per-recipient failures are logged and skipped;
// only a subscription query failure aborts the whole fan-out.
func (s *NotificationService) SendNotificationsForNewPost(ctx context.Context, postID, organizerID, title, message, fromUserID string) (int, error) {
	if postID == "" || organizerID == "" || title == "" {
		return 0, ErrInvalidArgument
	}

	var matches []models.Subscription
	for _, scope := range eventScopes(postID, organizerID, title) {
		subs, err := s.subscriptions.FindActiveByScope(ctx, scope)
		if err != nil {
			return 0, err
		}
		matches = append(matches, subs...)
	}

	recipients := dedupeRecipients(matches)
	sent := 0
	for _, r := range recipients {
		n := &models.Notification{
			UserID:      r.UserID,
			Title:       title,
			Message:     message,
			Type:        models.NotificationTypePost,
			Category:    r.Category,
			ReferenceID: postID,
			FromUserID:  fromUserID,
			OrganizerID: organizerID,
		}
		if err := s.deliver(ctx, n); err != nil {
			s.log.WithFields(logrus.Fields{
				"user_id": r.UserID,
				"post_id": postID,
				"error":   err,
			}).Error("fan-out delivery failed for recipient")
			continue
		}
		sent++
	}

	s.log.WithFields(logrus.Fields{
		"post_id":    postID,
		"matched":    len(matches),
		"recipients": len(recipients),
		"sent":       sent,
	}).Info("new post fan-out complete")
	return sent, nil
}

// SendLikeNotification notifies the post owner that someone liked their post.
// Delivery is direct: subscription state is not consulted.
func (s *NotificationService) SendLikeNotification(ctx context.Context, postOwnerID, likerID, postID string) error {
	if postOwnerID == "" || postID == "" {
		return ErrInvalidArgument
	}
	return s.deliver(ctx, &models.Notification{
		UserID:      postOwnerID,
		Title:       "Your post received a like",
		Type:        models.NotificationTypeLike,
		ReferenceID: postID,
		FromUserID:  likerID,
	})
}

// SendCommentNotification notifies the post owner about a new comment.
func (s *NotificationService) SendCommentNotification(ctx context.Context, postOwnerID, commenterID, postID, excerpt string) error {
	if postOwnerID == "" || postID == "" {
		return ErrInvalidArgument
	}
	return s.deliver(ctx, &models.Notification{
		UserID:      postOwnerID,
		Title:       "New comment on your post",
		Message:     excerpt,
		Type:        models.NotificationTypeComment,
		ReferenceID: postID,
		FromUserID:  commenterID,
	})
}

// SendMessageNotification notifies a user about a direct message.
func (s *NotificationService) SendMessageNotification(ctx context.Context, recipientID, senderID, messageID, preview string) error {
	if recipientID == "" {
		return ErrInvalidArgument
	}
	return s.deliver(ctx, &models.Notification{
		UserID:      recipientID,
		Title:       "New message",
		Message:     preview,
		Type:        models.NotificationTypeMessage,
		ReferenceID: messageID,
		FromUserID:  senderID,
	})
}

// CreateNotification is the generic single-notification constructor behind
// the explicit send endpoint. Type defaults to "info".
func (s *NotificationService) CreateNotification(ctx context.Context, req models.SendNotificationRequest) (*models.Notification, error) {
	if req.UserID == "" || req.Title == "" {
		return nil, ErrInvalidArgument
	}
	notificationType := req.Type
	if notificationType == "" {
		notificationType = models.NotificationTypeInfo
	}
	n := &models.Notification{
		UserID:      req.UserID,
		Title:       req.Title,
		Message:     req.Message,
		Type:        notificationType,
		Category:    req.Category,
		ReferenceID: req.ReferenceID,
		FromUserID:  req.FromUserID,
		OrganizerID: req.OrganizerID,
	}
	if err := s.deliver(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// deliver runs the build→enrich→resolve-action-url→persist→push sequence for
// one notification. Enrichment and push failures are absorbed; only the store
// write can fail the delivery.
func (s *NotificationService) deliver(ctx context.Context, n *models.Notification) error {
	enrichCtx, cancel := context.WithTimeout(ctx, opTimeout)
	s.enricher.Enrich(enrichCtx, n)
	cancel()

	n.ActionURL = BuildActionURL(n.Type, n.ReferenceID)

	writeCtx, cancel := context.WithTimeout(ctx, opTimeout)
	err := s.notifications.Create(writeCtx, n)
	cancel()
	if err != nil {
		return err
	}

	s.push(ctx, n.UserID, EventReceiveNotification, receivePayload{
		ID:          n.ID.Hex(),
		Title:       n.Title,
		Message:     n.Message,
		Type:        n.Type,
		ReferenceID: n.ReferenceID,
		CreatedAt:   n.CreatedAt,
		ActionURL:   n.ActionURL,
	})
	return nil
}

// push delivers a real-time event, logging failures. Persisted state stays
// authoritative; a missed live update is recovered on the next fetch.
func (s *NotificationService) push(ctx context.Context, userID, event string, payload interface{}) {
	pushCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	if err := s.notifier.NotifyUser(pushCtx, userID, event, payload); err != nil {
		s.log.WithFields(logrus.Fields{
			"user_id": userID,
			"event":   event,
			"error":   err,
		}).Warn("real-time push failed")
	}
}

// ListForUser returns a user's notifications newest first, lazily
// re-enriching documents that predate enrichment and rewriting relative
// media URLs against the request's scheme and host. Refreshed display
// fields are written back best-effort.
func (s *NotificationService) ListForUser(ctx context.Context, userID string, limit int64, unreadOnly bool, scheme, host string) ([]models.Notification, error) {
	if userID == "" {
		return nil, ErrInvalidArgument
	}
	notifications, err := s.notifications.GetByUser(ctx, userID, limit, unreadOnly)
	if err != nil {
		return nil, err
	}
	for i := range notifications {
		n := &notifications[i]
		if needsEnrichment(n) {
			enrichCtx, cancel := context.WithTimeout(ctx, opTimeout)
			s.enricher.Enrich(enrichCtx, n)
			cancel()
			if err := s.notifications.SaveEnrichment(ctx, n); err != nil {
				s.log.WithFields(logrus.Fields{"notification_id": n.ID.Hex(), "error": err}).
					Warn("failed to persist read-time enrichment")
			}
		}
		n.OrganizerAvatarURL = AbsolutizeMediaURL(n.OrganizerAvatarURL, scheme, host)
		n.AuthorAvatarURL = AbsolutizeMediaURL(n.AuthorAvatarURL, scheme, host)
		n.PostImageURL = AbsolutizeMediaURL(n.PostImageURL, scheme, host)
	}
	return notifications, nil
}

// GetByID returns a single notification owned by userID.
func (s *NotificationService) GetByID(ctx context.Context, userID, id string) (*models.Notification, error) {
	if userID == "" || id == "" {
		return nil, ErrInvalidArgument
	}
	n, err := s.notifications.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.UserID != userID {
		return nil, ErrNotFound
	}
	return n, nil
}

// MarkAsRead flips one notification to read and pushes a NotificationRead
// event. Returns ErrNotFound when the id matches nothing owned by userID.
func (s *NotificationService) MarkAsRead(ctx context.Context, userID, id string) error {
	if userID == "" || id == "" {
		return ErrInvalidArgument
	}
	n, err := s.notifications.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if n.UserID != userID {
		return ErrNotFound
	}
	if _, err := s.notifications.MarkAsRead(ctx, id); err != nil {
		return err
	}
	s.push(ctx, userID, EventNotificationRead, map[string]string{"id": id})
	return nil
}

// MarkAllAsRead flips every unread notification for the user and pushes an
// AllNotificationsRead event. Zero matches is a success.
func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID string) (int64, error) {
	if userID == "" {
		return 0, ErrInvalidArgument
	}
	count, err := s.notifications.MarkAllAsRead(ctx, userID)
	if err != nil {
		return 0, err
	}
	s.log.WithFields(logrus.Fields{"user_id": userID, "count": count}).Info("marked all notifications read")
	s.push(ctx, userID, EventAllNotificationsRead, map[string]int64{"count": count})
	return count, nil
}

// Subscribe dispatches to the post, title, or organizer-wide subscribe path
// depending on which optional fields are present; postId wins over title.
func (s *NotificationService) Subscribe(ctx context.Context, userID string, req models.SubscribeRequest) (*models.Subscription, error) {
	if userID == "" || req.OrganizerID == "" {
		return nil, ErrInvalidArgument
	}
	switch {
	case req.PostID != "":
		return s.subscriptions.SubscribeToPost(ctx, userID, req.PostID, req.Title, req.OrganizerID, req.Category)
	case req.Title != "":
		return s.subscriptions.SubscribeToTitle(ctx, userID, req.Title, req.OrganizerID, req.Category)
	default:
		return s.subscriptions.SubscribeToOrganizer(ctx, userID, req.OrganizerID)
	}
}
