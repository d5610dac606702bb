package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/karanveer09/unilink/backend/internal/models"
	"github.com/karanveer09/unilink/backend/internal/services"
	"github.com/karanveer09/unilink/backend/validators"
)

// memSubs is a minimal in-memory services.SubscriptionStore.
type memSubs struct {
	subs []*models.Subscription
}

func (m *memSubs) add(userID, organizerID, postID, title, category string) *models.Subscription {
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
	m.subs = append(m.subs, sub)
	return sub
}

func (m *memSubs) SubscribeToOrganizer(_ context.Context, userID, organizerID string) (*models.Subscription, error) {
	return m.add(userID, organizerID, "", "", ""), nil
}

func (m *memSubs) SubscribeToPost(_ context.Context, userID, postID, title, organizerID, category string) (*models.Subscription, error) {
	return m.add(userID, organizerID, postID, title, category), nil
}

func (m *memSubs) SubscribeToTitle(_ context.Context, userID, title, organizerID, category string) (*models.Subscription, error) {
	return m.add(userID, organizerID, "", title, category), nil
}

func (m *memSubs) UnsubscribeTitle(_ context.Context, userID, title, organizerID string) (bool, error) {
	changed := false
	for _, s := range m.subs {
		if s.UserID == userID && s.OrganizerID == organizerID && s.Title == title && s.PostID == "" && s.IsActive {
			s.IsActive = false
			changed = true
		}
	}
	return changed, nil
}

func (m *memSubs) IsTitleSubscribed(_ context.Context, userID, organizerID, title string) (bool, error) {
	for _, s := range m.subs {
		if s.UserID == userID && s.OrganizerID == organizerID && s.Title == title && s.PostID == "" && s.IsActive {
			return true, nil
		}
	}
	return false, nil
}

func (m *memSubs) Unsubscribe(_ context.Context, userID, subscriptionID string) (bool, error) {
	for _, s := range m.subs {
		if s.ID.Hex() == subscriptionID && s.UserID == userID {
			s.IsActive = false
			return true, nil
		}
	}
	return false, nil
}

func (m *memSubs) UnsubscribeAllForUser(_ context.Context, userID string) (int64, error) {
	var count int64
	for _, s := range m.subs {
		if s.UserID == userID && s.IsActive {
			s.IsActive = false
			count++
		}
	}
	return count, nil
}

func (m *memSubs) GetSubscriptionsForOrganizer(_ context.Context, organizerID, category string) ([]models.Subscription, error) {
	var out []models.Subscription
	for _, s := range m.subs {
		if s.OrganizerID == organizerID && s.IsActive && (category == "" || s.Category == category) {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *memSubs) GetUserSubscriptions(_ context.Context, userID string, includeInactive bool) ([]models.Subscription, error) {
	var out []models.Subscription
	for _, s := range m.subs {
		if s.UserID == userID && (includeInactive || s.IsActive) {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *memSubs) FindActiveByScope(_ context.Context, scope services.Scope) ([]models.Subscription, error) {
	return nil, nil
}

// memNotifs is a minimal in-memory services.NotificationStore.
type memNotifs struct {
	notifications []*models.Notification
}

func (m *memNotifs) Create(_ context.Context, n *models.Notification) error {
	n.ID = primitive.NewObjectID()
	n.CreatedAt = time.Now()
	n.UpdatedAt = n.CreatedAt
	stored := *n
	m.notifications = append(m.notifications, &stored)
	return nil
}

func (m *memNotifs) GetByUser(_ context.Context, userID string, limit int64, unreadOnly bool) ([]models.Notification, error) {
	var out []models.Notification
	for i := len(m.notifications) - 1; i >= 0; i-- {
		n := m.notifications[i]
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

func (m *memNotifs) GetByID(_ context.Context, id string) (*models.Notification, error) {
	for _, n := range m.notifications {
		if n.ID.Hex() == id {
			copied := *n
			return &copied, nil
		}
	}
	return nil, services.ErrNotFound
}

func (m *memNotifs) MarkAsRead(_ context.Context, id string) (*models.Notification, error) {
	for _, n := range m.notifications {
		if n.ID.Hex() == id {
			n.IsRead = true
			n.UpdatedAt = time.Now()
			copied := *n
			return &copied, nil
		}
	}
	return nil, services.ErrNotFound
}

func (m *memNotifs) MarkAllAsRead(_ context.Context, userID string) (int64, error) {
	var count int64
	for _, n := range m.notifications {
		if n.UserID == userID && !n.IsRead {
			n.IsRead = true
			count++
		}
	}
	return count, nil
}

func (m *memNotifs) SaveEnrichment(context.Context, *models.Notification) error { return nil }

type memUsers struct{}

func (memUsers) GetUserByID(string) (*models.User, error) { return nil, nil }

type memPosts struct{}

func (memPosts) GetPostByID(context.Context, string) (*models.Post, error) { return nil, nil }

type handlerEnv struct {
	echo    *echo.Echo
	handler *NotificationHandler
	subs    *memSubs
	notifs  *memNotifs
}

func newHandlerEnv() *handlerEnv {
	log := logrus.New()
	log.SetOutput(io.Discard)

	subs := &memSubs{}
	notifs := &memNotifs{}
	enricher := services.NewEnricher(memUsers{}, memPosts{}, nil, log)
	service := services.NewNotificationService(subs, notifs, enricher, nil, log)

	e := echo.New()
	e.Validator = validators.NewValidator()

	return &handlerEnv{
		echo:    e,
		handler: NewNotificationHandler(service, subs),
		subs:    subs,
		notifs:  notifs,
	}
}

func (env *handlerEnv) request(method, target, body, userID string) (echo.Context, *httptest.ResponseRecorder) {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := env.echo.NewContext(req, rec)
	if userID != "" {
		c.Set("userID", userID)
	}
	return c, rec
}

func TestGetNotificationsRequiresAuth(t *testing.T) {
	env := newHandlerEnv()
	c, _ := env.request(http.MethodGet, "/api/v1/notifications", "", "")

	err := env.handler.GetNotifications(c)
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestGetNotificationsEnvelope(t *testing.T) {
	env := newHandlerEnv()
	require.NoError(t, env.notifs.Create(context.Background(), &models.Notification{UserID: "u1", Title: "hello", Type: "info"}))

	c, rec := env.request(http.MethodGet, "/api/v1/notifications", "", "u1")
	require.NoError(t, env.handler.GetNotifications(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success bool                  `json:"success"`
		Message string                `json:"message"`
		Data    []models.Notification `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	require.Len(t, body.Data, 1)
	assert.Equal(t, "hello", body.Data[0].Title)
}

func TestSubscribeDispatchesOnBodyFields(t *testing.T) {
	env := newHandlerEnv()

	// postId takes priority over title
	c, rec := env.request(http.MethodPost, "/api/v1/notifications/subscribe",
		`{"organizerId":"org1","postId":"p1","title":"Workshop"}`, "u1")
	require.NoError(t, env.handler.Subscribe(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, env.subs.subs, 1)
	assert.Equal(t, "p1", env.subs.subs[0].PostID)

	// title without postId
	c, _ = env.request(http.MethodPost, "/api/v1/notifications/subscribe",
		`{"organizerId":"org1","title":"Workshop"}`, "u1")
	require.NoError(t, env.handler.Subscribe(c))
	require.Len(t, env.subs.subs, 2)
	assert.Empty(t, env.subs.subs[1].PostID)
	assert.Equal(t, "Workshop", env.subs.subs[1].Title)

	// bare organizer
	c, _ = env.request(http.MethodPost, "/api/v1/notifications/subscribe",
		`{"organizerId":"org1"}`, "u1")
	require.NoError(t, env.handler.Subscribe(c))
	require.Len(t, env.subs.subs, 3)
	assert.Empty(t, env.subs.subs[2].PostID)
	assert.Empty(t, env.subs.subs[2].Title)
}

func TestSubscribeRejectsMissingOrganizer(t *testing.T) {
	env := newHandlerEnv()
	c, _ := env.request(http.MethodPost, "/api/v1/notifications/subscribe", `{"title":"Workshop"}`, "u1")

	err := env.handler.Subscribe(c)
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
}

func TestMarkAsReadNotFound(t *testing.T) {
	env := newHandlerEnv()
	c, _ := env.request(http.MethodPost, "/api/v1/notifications/read/000000000000000000000000", "", "u1")
	c.SetParamNames("id")
	c.SetParamValues("000000000000000000000000")

	err := env.handler.MarkAsRead(c)
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, httpErr.Code)
}

func TestMarkAsReadOwnershipEnforced(t *testing.T) {
	env := newHandlerEnv()
	require.NoError(t, env.notifs.Create(context.Background(), &models.Notification{UserID: "owner", Title: "t", Type: "info"}))
	id := env.notifs.notifications[0].ID.Hex()

	c, _ := env.request(http.MethodPost, "/api/v1/notifications/read/"+id, "", "intruder")
	c.SetParamNames("id")
	c.SetParamValues(id)

	err := env.handler.MarkAsRead(c)
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, httpErr.Code)
	assert.False(t, env.notifs.notifications[0].IsRead)
}

func TestIsTitleConfigured(t *testing.T) {
	env := newHandlerEnv()
	env.subs.add("u1", "org1", "", "Workshop", "")

	c, rec := env.request(http.MethodGet, "/api/v1/notifications/is-title-configured?organizerId=org1&title=Workshop", "", "u1")
	require.NoError(t, env.handler.IsTitleConfigured(c))

	var body struct {
		IsConfigured bool `json:"isConfigured"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.IsConfigured)

	c, rec = env.request(http.MethodGet, "/api/v1/notifications/is-title-configured?organizerId=org1&title=Seminar", "", "u1")
	require.NoError(t, env.handler.IsTitleConfigured(c))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.IsConfigured)
}

func TestGetSubscribersFiltersByCategory(t *testing.T) {
	env := newHandlerEnv()
	env.subs.add("u1", "org1", "", "", "sports")
	env.subs.add("u2", "org1", "", "", "music")
	env.subs.add("u3", "org2", "", "", "sports")

	c, rec := env.request(http.MethodGet, "/api/v1/notifications/subscribers?category=sports", "", "org1")
	require.NoError(t, env.handler.GetSubscribers(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data []models.Subscription `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "u1", body.Data[0].UserID)

	c, rec = env.request(http.MethodGet, "/api/v1/notifications/subscribers", "", "org1")
	require.NoError(t, env.handler.GetSubscribers(c))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Data, 2)
}

func TestSendNotificationValidation(t *testing.T) {
	env := newHandlerEnv()

	c, rec := env.request(http.MethodPost, "/api/v1/notifications/send",
		`{"userId":"u2","title":"Exam schedule"}`, "admin")
	require.NoError(t, env.handler.SendNotification(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, env.notifs.notifications, 1)
	assert.Equal(t, "info", env.notifs.notifications[0].Type)

	c, _ = env.request(http.MethodPost, "/api/v1/notifications/send", `{"title":"no recipient"}`, "admin")
	err := env.handler.SendNotification(c)
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
}

func TestUnsubscribeRejectsForeignSubscription(t *testing.T) {
	env := newHandlerEnv()
	sub := env.subs.add("owner", "org1", "", "", "")

	c, _ := env.request(http.MethodPost, "/api/v1/notifications/unsubscribe",
		`{"subscriptionId":"`+sub.ID.Hex()+`"}`, "intruder")
	err := env.handler.Unsubscribe(c)
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, httpErr.Code)
	assert.True(t, env.subs.subs[0].IsActive)

	c, rec := env.request(http.MethodPost, "/api/v1/notifications/unsubscribe",
		`{"subscriptionId":"`+sub.ID.Hex()+`"}`, "owner")
	require.NoError(t, env.handler.Unsubscribe(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, env.subs.subs[0].IsActive)
}

func TestUnsubscribeTitleEndpoint(t *testing.T) {
	env := newHandlerEnv()
	env.subs.add("u1", "org1", "", "Workshop", "")

	c, rec := env.request(http.MethodPost, "/api/v1/notifications/unsubscribe-title",
		`{"organizerId":"org1","title":"Workshop"}`, "u1")
	require.NoError(t, env.handler.UnsubscribeTitle(c))

	var body struct {
		Success bool `json:"success"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.False(t, env.subs.subs[0].IsActive)

	// no matching record: success=false, still 200
	c, rec = env.request(http.MethodPost, "/api/v1/notifications/unsubscribe-title",
		`{"organizerId":"org1","title":"Workshop"}`, "u1")
	require.NoError(t, env.handler.UnsubscribeTitle(c))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
}
