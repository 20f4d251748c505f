package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/anonto42/research-hub/backend/internal/events"
	"github.com/anonto42/research-hub/backend/internal/models"
	"github.com/anonto42/research-hub/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// LikeHandler handles like/unlike HTTP requests
type LikeHandler struct {
	likeRepository         repositories.LikeRepository
	postRepository         repositories.PostRepository
	userRepository         repositories.UserRepository
	notificationRepository repositories.NotificationRepository
	broker                 *events.Broker
}

// NewLikeHandler creates a new LikeHandler
func NewLikeHandler(
	likeRepo repositories.LikeRepository,
	postRepo repositories.PostRepository,
	userRepo repositories.UserRepository,
	notifRepo repositories.NotificationRepository,
	broker *events.Broker,
) *LikeHandler {
	return &LikeHandler{
		likeRepository:         likeRepo,
		postRepository:         postRepo,
		userRepository:         userRepo,
		notificationRepository: notifRepo,
		broker:                 broker,
	}
}

// RegisterLikeRoutes registers like-related routes
func (h *LikeHandler) RegisterLikeRoutes(g *echo.Group) {
	g.POST("/posts/:id/like", h.LikePost)
	g.DELETE("/posts/:id/like", h.UnlikePost)
	g.GET("/posts/:id/like", h.GetLikeStatus)
}

// LikePost likes a post. Liking twice is a conflict, not a toggle.
func (h *LikeHandler) LikePost(c echo.Context) error {
	uid := getUIDFromContext(c)
	if uid == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	postID := c.Param("id")

	post, err := h.postRepository.GetPostByID(c.Request().Context(), postID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Post not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	like := &models.Like{PostID: postID, UserUID: uid}
	if err := h.likeRepository.CreateLike(c.Request().Context(), like); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return echo.NewHTTPError(http.StatusConflict, "Already liked this post")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if err := h.postRepository.IncrementLikesCount(c.Request().Context(), postID); err != nil {
		log.Printf("likes: failed to increment count for post %s: %v", postID, err)
	}

	if post.AuthorUID != uid {
		if actor, err := h.userRepository.GetByUID(c.Request().Context(), uid); err == nil {
			notif := &models.Notification{
				Type:         models.NotificationTypeLike,
				ActorUID:     uid,
				RecipientUID: post.AuthorUID,
				PostID:       postID,
				Message:      actor.Name + " liked your post",
			}
			if err := h.notificationRepository.CreateNotification(c.Request().Context(), notif); err != nil {
				log.Printf("likes: failed to create notification: %v", err)
			} else {
				h.broker.Publish(post.AuthorUID, events.TypeNotification, notif)
			}
		}
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"liked": true}})
}

// UnlikePost removes the caller's like from a post
func (h *LikeHandler) UnlikePost(c echo.Context) error {
	uid := getUIDFromContext(c)
	if uid == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	postID := c.Param("id")

	if err := h.likeRepository.DeleteLike(c.Request().Context(), postID, uid); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Like not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if err := h.postRepository.DecrementLikesCount(c.Request().Context(), postID); err != nil {
		log.Printf("likes: failed to decrement count for post %s: %v", postID, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"liked": false}})
}

// GetLikeStatus reports whether the caller liked the post and the total count
func (h *LikeHandler) GetLikeStatus(c echo.Context) error {
	uid := getUIDFromContext(c)
	if uid == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	postID := c.Param("id")

	liked, err := h.likeRepository.HasUserLikedPost(c.Request().Context(), postID, uid)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	count, err := h.likeRepository.GetLikesCountByPostID(c.Request().Context(), postID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{
		"liked": liked,
		"count": count,
	}})
}
