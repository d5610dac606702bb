package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/karanveer09/unilink/backend/internal/models"
	"github.com/karanveer09/unilink/backend/internal/repositories"
)

// UserHandler handles HTTP requests related to user profiles. Profile data
// (display name, avatar) is what notification enrichment reads, so the
// update path is part of the notification surface in practice.
type UserHandler struct {
	userRepository repositories.UserRepository
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userRepo repositories.UserRepository) *UserHandler {
	return &UserHandler{userRepository: userRepo}
}

// RegisterProfileRoutes registers user profile-related routes
func (h *UserHandler) RegisterProfileRoutes(g *echo.Group) {
	g.GET("/profile", h.GetProfile)    // Get own profile
	g.PUT("/profile", h.UpdateProfile) // Update own profile
	g.GET("/users/:id", h.GetUser)     // Get other user's profile by ID
}

func (h *UserHandler) GetUser(c echo.Context) error {
	user, err := h.userRepository.GetUserByID(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if user == nil {
		return echo.NewHTTPError(http.StatusNotFound, "User profile not found")
	}
	return c.JSON(http.StatusOK, user)
}

// GetProfile retrieves the authenticated user's profile
func (h *UserHandler) GetProfile(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	user, err := h.userRepository.GetUserByID(currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if user == nil {
		return echo.NewHTTPError(http.StatusNotFound, "User profile not found")
	}
	return c.JSON(http.StatusOK, user)
}

// UpdateUserRequest is the profile update body; all fields optional.
type UpdateUserRequest struct {
	Username  string `json:"username,omitempty" validate:"omitempty,min=2,max=50"`
	FirstName string `json:"first_name,omitempty" validate:"omitempty,max=50"`
	LastName  string `json:"last_name,omitempty" validate:"omitempty,max=50"`
	AvatarURL string `json:"avatar_url,omitempty" validate:"omitempty,url"`
}

// UpdateProfile updates the authenticated user's profile
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.userRepository.GetUserByID(currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	// First profile write for this identity creates the row; the id and
	// email come from the verified token.
	created := false
	if user == nil {
		user = &models.User{ID: currentUserID}
		if claims := getClaimsFromContext(c); claims != nil {
			user.Email = claims.Email
		}
		created = true
	}

	if req.Username != "" {
		user.Username = req.Username
	}
	if req.FirstName != "" {
		user.FirstName = req.FirstName
	}
	if req.LastName != "" {
		user.LastName = req.LastName
	}
	if req.AvatarURL != "" {
		user.AvatarURL = req.AvatarURL
	}

	if created {
		err = h.userRepository.CreateUser(user)
	} else {
		err = h.userRepository.UpdateUser(user)
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	// Cached display metadata goes stale here; the TTL bounds how long
	// until notifications pick the change up.
	return c.JSON(http.StatusOK, user)
}
