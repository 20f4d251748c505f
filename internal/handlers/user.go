package handlers

import (
	"errors"
	"net/http"

	"github.com/anonto42/research-hub/backend/internal/models"
	"github.com/anonto42/research-hub/backend/internal/repositories"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
)

// UserHandler handles HTTP requests related to researcher profiles
type UserHandler struct {
	userRepository repositories.UserRepository
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userRepo repositories.UserRepository) *UserHandler {
	return &UserHandler{userRepository: userRepo}
}

// RegisterProfileRoutes registers profile-related routes
func (h *UserHandler) RegisterProfileRoutes(g *echo.Group) {
	g.GET("/profile", h.GetProfile)    // Get own profile
	g.PUT("/profile", h.UpdateProfile) // Update own profile
	g.GET("/users/:uid", h.GetUser)
	g.GET("/users/:uid/followers", h.GetFollowers)
	g.GET("/users/:uid/following", h.GetFollowing)
}

// GetProfile retrieves the authenticated user's profile
func (h *UserHandler) GetProfile(c echo.Context) error {
	uid := getUIDFromContext(c)
	if uid == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	user, err := h.userRepository.GetByUID(c.Request().Context(), uid)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "User profile not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, user)
}

// UpdateProfile updates the authenticated user's display fields
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	uid := getUIDFromContext(c)
	if uid == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	fields := bson.M{}
	if req.Name != "" {
		fields["name"] = req.Name
	}
	if req.Headline != "" {
		fields["headline"] = req.Headline
	}
	if req.Bio != "" {
		fields["bio"] = req.Bio
	}
	if req.PhotoURL != "" {
		fields["photo_url"] = req.PhotoURL
	}
	if req.Topics != nil {
		fields["topics"] = req.Topics
	}
	if len(fields) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "No fields to update")
	}

	if err := h.userRepository.UpdateProfile(c.Request().Context(), uid, fields); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "User profile not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	user, err := h.userRepository.GetByUID(c.Request().Context(), uid)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, user)
}

// GetUser retrieves another researcher's profile by UID
func (h *UserHandler) GetUser(c echo.Context) error {
	user, err := h.userRepository.GetByUID(c.Request().Context(), c.Param("uid"))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "User profile not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, user)
}

// GetFollowers lists the compact profiles of a user's followers
func (h *UserHandler) GetFollowers(c echo.Context) error {
	return h.listRelated(c, func(u *models.User) []string { return u.Followers })
}

// GetFollowing lists the compact profiles a user follows
func (h *UserHandler) GetFollowing(c echo.Context) error {
	return h.listRelated(c, func(u *models.User) []string { return u.Following })
}

func (h *UserHandler) listRelated(c echo.Context, pick func(*models.User) []string) error {
	user, err := h.userRepository.GetByUID(c.Request().Context(), c.Param("uid"))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "User profile not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	related, err := h.userRepository.GetByUIDs(c.Request().Context(), pick(user))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	compacts := make([]models.UserCompact, len(related))
	for i := range related {
		compacts[i] = related[i].ToCompact()
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": compacts})
}
