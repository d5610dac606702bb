package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/karanveer09/unilink/backend/internal/models"
	"github.com/karanveer09/unilink/backend/internal/repositories"
	"github.com/karanveer09/unilink/backend/internal/services"
)

// PostHandler handles the post creation path that triggers notification
// fan-out, plus the organizer read path.
type PostHandler struct {
	postRepository repositories.PostRepository
	notifications  *services.NotificationService
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(postRepo repositories.PostRepository, notifications *services.NotificationService) *PostHandler {
	return &PostHandler{postRepository: postRepo, notifications: notifications}
}

// RegisterPostRoutes registers post-related routes
func (h *PostHandler) RegisterPostRoutes(g *echo.Group) {
	g.POST("/posts", h.CreatePost)
	g.GET("/posts/:id", h.GetPost)
	g.GET("/organizers/:id/posts", h.GetOrganizerPosts)
}

// CreatePost creates a post and fans notifications out to every subscriber
// matching it. The fan-out runs synchronously within this request; a fan-out
// failure is logged but does not undo the created post.
func (h *PostHandler) CreatePost(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.CreatePostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	post := &models.Post{
		OrganizerID: currentUserID,
		Title:       req.Title,
		Content:     req.Content,
		Category:    req.Category,
		ImageURLs:   req.ImageURLs,
	}
	if err := h.postRepository.CreatePost(c.Request().Context(), post); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	sent, err := h.notifications.SendNotificationsForNewPost(
		c.Request().Context(), post.ID.Hex(), currentUserID, post.Title, post.Content, currentUserID)
	if err != nil {
		c.Logger().Errorf("fan-out failed for post %s: %v", post.ID.Hex(), err)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"message": "Post created",
		"data": echo.Map{
			"post":          post,
			"notifications": sent,
		},
	})
}

// GetPost retrieves a post by ID
func (h *PostHandler) GetPost(c echo.Context) error {
	post, err := h.postRepository.GetPostByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	if post == nil {
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Post retrieved", "data": post})
}

// GetOrganizerPosts lists an organizer's posts with pagination
func (h *PostHandler) GetOrganizerPosts(c echo.Context) error {
	skip, _ := strconv.ParseInt(c.QueryParam("skip"), 10, 64)
	limit, _ := strconv.ParseInt(c.QueryParam("limit"), 10, 64)
	if limit <= 0 || limit > 50 {
		limit = 20
	}

	posts, err := h.postRepository.GetPostsByOrganizer(c.Request().Context(), c.Param("id"), skip, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Posts retrieved", "data": posts})
}
