package services

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/karanveer09/unilink/backend/internal/models"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// fakeSubscriptionStore mirrors the Mongo repository's semantics in memory,
// including soft-delete and reactivation.
type fakeSubscriptionStore struct {
	mu   sync.Mutex
	subs []*models.Subscription
}

func newFakeSubscriptionStore() *fakeSubscriptionStore {
	return &fakeSubscriptionStore{}
}

func (f *fakeSubscriptionStore) SubscribeToOrganizer(_ context.Context, userID, organizerID string) (*models.Subscription, error) {
	if userID == "" || organizerID == "" {
		return nil, ErrInvalidArgument
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.subs {
		if s.UserID == userID && s.OrganizerID == organizerID && s.PostID == "" && s.Title == "" {
			if !s.IsActive {
				s.IsActive = true
				now := time.Now()
				s.UpdatedAt = &now
			}
			return s, nil
		}
	}
	sub := &models.Subscription{
		ID:          primitive.NewObjectID(),
		UserID:      userID,
		OrganizerID: organizerID,
		IsActive:    true,
		CreatedAt:   time.Now(),
	}
	f.subs = append(f.subs, sub)
	return sub, nil
}

func (f *fakeSubscriptionStore) SubscribeToPost(_ context.Context, userID, postID, title, organizerID, category string) (*models.Subscription, error) {
	if userID == "" || postID == "" || organizerID == "" {
		return nil, ErrInvalidArgument
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.subs {
		if s.UserID == userID && s.PostID == postID {
			if !s.IsActive {
				s.IsActive = true
			}
			return s, nil
		}
	}
	sub := &models.Subscription{
		ID:          primitive.NewObjectID(),
		UserID:      userID,
		OrganizerID: organizerID,
		PostID:      postID,
		Title:       title,
		Category:    category,
		IsActive:    true,
		CreatedAt:   time.Now(),
	}
	f.subs = append(f.subs, sub)
	return sub, nil
}

func (f *fakeSubscriptionStore) SubscribeToTitle(_ context.Context, userID, title, organizerID, category string) (*models.Subscription, error) {
	if userID == "" || title == "" || organizerID == "" {
		return nil, ErrInvalidArgument
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.subs {
		if s.UserID == userID && s.OrganizerID == organizerID && s.Title == title && s.PostID == "" {
			if !s.IsActive {
				s.IsActive = true
			}
			return s, nil
		}
	}
	sub := &models.Subscription{
		ID:          primitive.NewObjectID(),
		UserID:      userID,
		OrganizerID: organizerID,
		Title:       title,
		Category:    category,
		IsActive:    true,
		CreatedAt:   time.Now(),
	}
	f.subs = append(f.subs, sub)
	return sub, nil
}

func (f *fakeSubscriptionStore) UnsubscribeTitle(_ context.Context, userID, title, organizerID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	changed := false
	for _, s := range f.subs {
		if s.UserID == userID && s.OrganizerID == organizerID && s.Title == title && s.PostID == "" && s.IsActive {
			s.IsActive = false
			changed = true
		}
	}
	return changed, nil
}

func (f *fakeSubscriptionStore) IsTitleSubscribed(_ context.Context, userID, organizerID, title string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.subs {
		if s.UserID == userID && s.OrganizerID == organizerID && s.Title == title && s.PostID == "" && s.IsActive {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeSubscriptionStore) Unsubscribe(_ context.Context, userID, subscriptionID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.subs {
		if s.ID.Hex() == subscriptionID && s.UserID == userID {
			s.IsActive = false
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeSubscriptionStore) UnsubscribeAllForUser(_ context.Context, userID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, s := range f.subs {
		if s.UserID == userID && s.IsActive {
			s.IsActive = false
			count++
		}
	}
	return count, nil
}

func (f *fakeSubscriptionStore) GetSubscriptionsForOrganizer(_ context.Context, organizerID, category string) ([]models.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Subscription
	for _, s := range f.subs {
		if s.OrganizerID == organizerID && s.IsActive && (category == "" || s.Category == category) {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeSubscriptionStore) GetUserSubscriptions(_ context.Context, userID string, includeInactive bool) ([]models.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Subscription
	for _, s := range f.subs {
		if s.UserID == userID && (includeInactive || s.IsActive) {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeSubscriptionStore) FindActiveByScope(_ context.Context, scope Scope) ([]models.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Subscription
	for _, s := range f.subs {
		if !s.IsActive {
			continue
		}
		switch scope.Kind {
		case ScopeExactPost:
			if s.PostID == scope.PostID && scope.PostID != "" {
				out = append(out, *s)
			}
		case ScopeTitle:
			if s.OrganizerID == scope.OrganizerID && s.Title == scope.Title {
				out = append(out, *s)
			}
		case ScopeOrganizerWide:
			if s.OrganizerID == scope.OrganizerID && s.PostID == "" {
				out = append(out, *s)
			}
		}
	}
	return out, nil
}

// fakeNotificationStore keeps notifications in insertion order.
type fakeNotificationStore struct {
	mu            sync.Mutex
	notifications []*models.Notification
}

func newFakeNotificationStore() *fakeNotificationStore {
	return &fakeNotificationStore{}
}

func (f *fakeNotificationStore) Create(_ context.Context, n *models.Notification) error {
	if n.UserID == "" || n.Title == "" {
		return ErrInvalidArgument
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	n.ID = primitive.NewObjectID()
	n.CreatedAt = time.Now()
	n.UpdatedAt = n.CreatedAt
	stored := *n
	f.notifications = append(f.notifications, &stored)
	return nil
}

func (f *fakeNotificationStore) GetByUser(_ context.Context, userID string, limit int64, unreadOnly bool) ([]models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Notification
	for i := len(f.notifications) - 1; i >= 0; i-- {
		n := f.notifications[i]
		if n.UserID != userID || (unreadOnly && n.IsRead) {
			continue
		}
		out = append(out, *n)
		if limit > 0 && int64(len(out)) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeNotificationStore) GetByID(_ context.Context, id string) (*models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range f.notifications {
		if n.ID.Hex() == id {
			copied := *n
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeNotificationStore) MarkAsRead(_ context.Context, id string) (*models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range f.notifications {
		if n.ID.Hex() == id {
			n.IsRead = true
			n.UpdatedAt = time.Now()
			copied := *n
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeNotificationStore) MarkAllAsRead(_ context.Context, userID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, n := range f.notifications {
		if n.UserID == userID && !n.IsRead {
			n.IsRead = true
			n.UpdatedAt = time.Now()
			count++
		}
	}
	return count, nil
}

func (f *fakeNotificationStore) SaveEnrichment(_ context.Context, updated *models.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range f.notifications {
		if n.ID == updated.ID {
			n.OrganizerName = updated.OrganizerName
			n.OrganizerAvatarURL = updated.OrganizerAvatarURL
			n.AuthorName = updated.AuthorName
			n.AuthorAvatarURL = updated.AuthorAvatarURL
			n.PostImageURL = updated.PostImageURL
			return nil
		}
	}
	return ErrNotFound
}

func (f *fakeNotificationStore) forUser(userID string) []*models.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Notification
	for _, n := range f.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

// recordedPush is one captured notifier call.
type recordedPush struct {
	UserID  string
	Event   string
	Payload interface{}
}

type fakeNotifier struct {
	mu     sync.Mutex
	pushes []recordedPush
	err    error
}

func (f *fakeNotifier) NotifyUser(_ context.Context, userID, event string, payload interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushes = append(f.pushes, recordedPush{UserID: userID, Event: event, Payload: payload})
	return f.err
}

func (f *fakeNotifier) eventsFor(userID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, p := range f.pushes {
		if p.UserID == userID {
			out = append(out, p.Event)
		}
	}
	return out
}

// fakeUserStore serves canned users; set failing to simulate an unavailable
// backing store.
type fakeUserStore struct {
	users   map[string]*models.User
	failing bool
}

func (f *fakeUserStore) GetUserByID(id string) (*models.User, error) {
	if f.failing {
		return nil, errors.New("user store unavailable")
	}
	return f.users[id], nil
}

type fakePostStore struct {
	posts   map[string]*models.Post
	failing bool
}

func (f *fakePostStore) GetPostByID(_ context.Context, id string) (*models.Post, error) {
	if f.failing {
		return nil, errors.New("post store unavailable")
	}
	return f.posts[id], nil
}
