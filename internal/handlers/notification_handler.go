package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/karanveer09/unilink/backend/internal/models"
	"github.com/karanveer09/unilink/backend/internal/services"
)

// NotificationHandler handles notification and subscription HTTP requests
type NotificationHandler struct {
	service           *services.NotificationService
	subscriptionStore services.SubscriptionStore
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(service *services.NotificationService, subs services.SubscriptionStore) *NotificationHandler {
	return &NotificationHandler{service: service, subscriptionStore: subs}
}

// RegisterNotificationRoutes registers notification routes
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	g.GET("/notifications", h.GetNotifications)
	g.GET("/notifications/subscriptions", h.GetSubscriptions)
	g.GET("/notifications/subscribers", h.GetSubscribers)
	g.GET("/notifications/is-title-configured", h.IsTitleConfigured)
	g.GET("/notifications/:id", h.GetNotification)
	g.POST("/notifications/read/:id", h.MarkAsRead)
	g.POST("/notifications/mark-all-read", h.MarkAllAsRead)
	g.POST("/notifications/subscribe", h.Subscribe)
	g.POST("/notifications/unsubscribe", h.Unsubscribe)
	g.POST("/notifications/unsubscribe-title", h.UnsubscribeTitle)
	g.POST("/notifications/unsubscribe-all", h.UnsubscribeAll)
	g.POST("/notifications/send", h.SendNotification)
}

// httpError translates service sentinels to status codes.
func httpError(err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidArgument):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Notification not found")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

// GetNotifications returns the caller's notifications, newest first.
// ?unreadOnly=true narrows to unread; ?limit=0 (default) means unbounded.
func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	unreadOnly, _ := strconv.ParseBool(c.QueryParam("unreadOnly"))
	limit, _ := strconv.ParseInt(c.QueryParam("limit"), 10, 64)
	if limit < 0 {
		limit = 0
	}

	notifications, err := h.service.ListForUser(c.Request().Context(), currentUserID, limit, unreadOnly, c.Scheme(), c.Request().Host)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Notifications retrieved",
		"data":    notifications,
	})
}

// GetNotification returns a single notification owned by the caller.
func (h *NotificationHandler) GetNotification(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	n, err := h.service.GetByID(c.Request().Context(), currentUserID, c.Param("id"))
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Notification retrieved",
		"data":    n,
	})
}

// MarkAsRead marks one notification as read and pushes a NotificationRead event.
func (h *NotificationHandler) MarkAsRead(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	if err := h.service.MarkAsRead(c.Request().Context(), currentUserID, c.Param("id")); err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Notification marked as read"})
}

// MarkAllAsRead marks every unread notification for the caller.
func (h *NotificationHandler) MarkAllAsRead(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	count, err := h.service.MarkAllAsRead(c.Request().Context(), currentUserID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "All notifications marked as read",
		"data":    echo.Map{"count": count},
	})
}

// Subscribe creates a subscription; the scope is picked from the body
// (postId over title over plain organizer).
func (h *NotificationHandler) Subscribe(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.SubscribeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	sub, err := h.service.Subscribe(c.Request().Context(), currentUserID, req)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Subscribed",
		"data":    sub,
	})
}

// Unsubscribe deactivates a subscription by id.
func (h *NotificationHandler) Unsubscribe(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.UnsubscribeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	changed, err := h.subscriptionStore.Unsubscribe(c.Request().Context(), currentUserID, req.SubscriptionID)
	if err != nil {
		return httpError(err)
	}
	if !changed {
		return echo.NewHTTPError(http.StatusNotFound, "Subscription not found")
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Unsubscribed"})
}

// UnsubscribeTitle deactivates the caller's title subscription(s).
func (h *NotificationHandler) UnsubscribeTitle(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.UnsubscribeTitleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	changed, err := h.subscriptionStore.UnsubscribeTitle(c.Request().Context(), currentUserID, req.Title, req.OrganizerID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"success": changed})
}

// UnsubscribeAll deactivates every active subscription of the caller.
func (h *NotificationHandler) UnsubscribeAll(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	count, err := h.subscriptionStore.UnsubscribeAllForUser(c.Request().Context(), currentUserID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Unsubscribed from all",
		"data":    echo.Map{"count": count},
	})
}

// GetSubscriptions lists the caller's subscriptions, newest first.
// ?includeInactive=true also returns soft-deleted records.
func (h *NotificationHandler) GetSubscriptions(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	includeInactive, _ := strconv.ParseBool(c.QueryParam("includeInactive"))
	subs, err := h.subscriptionStore.GetUserSubscriptions(c.Request().Context(), currentUserID, includeInactive)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Subscriptions retrieved",
		"data":    subs,
	})
}

// GetSubscribers lists active subscriptions targeting the caller as organizer.
// ?category= narrows to one category.
func (h *NotificationHandler) GetSubscribers(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	subs, err := h.subscriptionStore.GetSubscriptionsForOrganizer(c.Request().Context(), currentUserID, c.QueryParam("category"))
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Subscribers retrieved",
		"data":    subs,
	})
}

// IsTitleConfigured reports whether the caller holds an active title
// subscription for the given organizer and title.
func (h *NotificationHandler) IsTitleConfigured(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	organizerID := c.QueryParam("organizerId")
	title := c.QueryParam("title")
	if organizerID == "" || title == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "organizerId and title are required")
	}

	configured, err := h.subscriptionStore.IsTitleSubscribed(c.Request().Context(), currentUserID, organizerID, title)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"isConfigured": configured})
}

// SendNotification creates and pushes a single notification (administrative path).
func (h *NotificationHandler) SendNotification(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.SendNotificationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	n, err := h.service.CreateNotification(c.Request().Context(), req)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"message": "Notification sent",
		"data":    n,
	})
}
