package handlers

import (
	"errors"
	"net/http"

	"github.com/anonto42/research-hub/backend/internal/follow"
	"github.com/anonto42/research-hub/backend/internal/models"
	"github.com/anonto42/research-hub/backend/internal/projection"
	"github.com/anonto42/research-hub/backend/internal/repositories"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// FollowHandler exposes the follow-request workflow over HTTP
type FollowHandler struct {
	engine            *follow.Engine
	requestRepository repositories.FollowRequestRepository
	projector         *projection.Projector
}

// NewFollowHandler creates a new FollowHandler
func NewFollowHandler(engine *follow.Engine, requestRepo repositories.FollowRequestRepository, projector *projection.Projector) *FollowHandler {
	return &FollowHandler{
		engine:            engine,
		requestRepository: requestRepo,
		projector:         projector,
	}
}

// RegisterFollowRoutes registers follow-related routes
func (h *FollowHandler) RegisterFollowRoutes(g *echo.Group) {
	g.POST("/follow-requests", h.SendRequest)
	g.DELETE("/follow-requests/to/:uid", h.CancelRequest)
	g.GET("/follow-requests/incoming", h.ListIncoming)
	g.GET("/follow-requests/outgoing", h.ListOutgoing)
	g.POST("/follow-requests/:id/accept", h.AcceptRequest)
	g.POST("/follow-requests/:id/reject", h.RejectRequest)
	g.DELETE("/following/:uid", h.Unfollow)
	g.GET("/users/:uid/relation", h.GetRelation)
	g.GET("/users/:uid/mutual-followers-count", h.GetMutualFollowersCount)
}

// SendRequest sends a follow request to another researcher
func (h *FollowHandler) SendRequest(c echo.Context) error {
	uid := getUIDFromContext(c)

	var req models.SendFollowRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	created, err := h.engine.SendRequest(c.Request().Context(), uid, req.ToUID)
	if err != nil {
		return followError(err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": created})
}

// CancelRequest withdraws a pending request the caller sent
func (h *FollowHandler) CancelRequest(c echo.Context) error {
	uid := getUIDFromContext(c)

	if err := h.engine.CancelRequest(c.Request().Context(), uid, c.Param("uid")); err != nil {
		return followError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"cancelled": true}})
}

// ListIncoming lists pending requests addressed to the caller
func (h *FollowHandler) ListIncoming(c echo.Context) error {
	uid := getUIDFromContext(c)
	if uid == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	requests, err := h.requestRepository.ListIncoming(c.Request().Context(), uid)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{
		"count": len(requests),
		"items": requests,
	}})
}

// ListOutgoing lists pending requests the caller has sent
func (h *FollowHandler) ListOutgoing(c echo.Context) error {
	uid := getUIDFromContext(c)
	if uid == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	requests, err := h.requestRepository.ListOutgoing(c.Request().Context(), uid)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{
		"count": len(requests),
		"items": requests,
	}})
}

// AcceptRequest accepts a pending request addressed to the caller
func (h *FollowHandler) AcceptRequest(c echo.Context) error {
	uid := getUIDFromContext(c)

	if err := h.engine.AcceptRequest(c.Request().Context(), uid, c.Param("id")); err != nil {
		return followError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"accepted": true}})
}

// RejectRequest declines a pending request addressed to the caller
func (h *FollowHandler) RejectRequest(c echo.Context) error {
	uid := getUIDFromContext(c)

	if err := h.engine.RejectRequest(c.Request().Context(), uid, c.Param("id")); err != nil {
		return followError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"rejected": true}})
}

// Unfollow removes an established follow edge
func (h *FollowHandler) Unfollow(c echo.Context) error {
	uid := getUIDFromContext(c)

	if err := h.engine.Unfollow(c.Request().Context(), uid, c.Param("uid")); err != nil {
		return followError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"following": false}})
}

// GetRelation resolves the follow button state for a viewed profile
func (h *FollowHandler) GetRelation(c echo.Context) error {
	uid := getUIDFromContext(c)
	if uid == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	state, err := h.projector.ButtonState(c.Request().Context(), uid, c.Param("uid"))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "User profile not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"state": state}})
}

// GetMutualFollowersCount returns the "followed by N people you follow"
// number for a viewed profile
func (h *FollowHandler) GetMutualFollowersCount(c echo.Context) error {
	uid := getUIDFromContext(c)
	if uid == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	count, err := h.projector.MutualFollowersCount(c.Request().Context(), uid, c.Param("uid"))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "User profile not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"count": count}})
}

// followError maps engine errors onto HTTP status codes
func followError(err error) error {
	switch {
	case errors.Is(err, follow.ErrUnauthenticated):
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	case errors.Is(err, follow.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Not found")
	case errors.Is(err, follow.ErrUnauthorized):
		return echo.NewHTTPError(http.StatusForbidden, "Request is not addressed to you")
	case errors.Is(err, follow.ErrSelfFollow):
		return echo.NewHTTPError(http.StatusBadRequest, "Cannot follow yourself")
	case errors.Is(err, follow.ErrDuplicateRequest):
		return echo.NewHTTPError(http.StatusConflict, "Follow request already sent")
	case errors.Is(err, follow.ErrAlreadyFollowing):
		return echo.NewHTTPError(http.StatusConflict, "Already following this user")
	case errors.Is(err, follow.ErrNotFollowing):
		return echo.NewHTTPError(http.StatusConflict, "Not following this user")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
