package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/anonto42/research-hub/backend/internal/events"
	"github.com/anonto42/research-hub/backend/internal/models"
	"github.com/anonto42/research-hub/backend/internal/repositories"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// CommentHandler handles comment and reply HTTP requests
type CommentHandler struct {
	commentRepository      repositories.CommentRepository
	postRepository         repositories.PostRepository
	userRepository         repositories.UserRepository
	notificationRepository repositories.NotificationRepository
	broker                 *events.Broker
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(
	commentRepo repositories.CommentRepository,
	postRepo repositories.PostRepository,
	userRepo repositories.UserRepository,
	notifRepo repositories.NotificationRepository,
	broker *events.Broker,
) *CommentHandler {
	return &CommentHandler{
		commentRepository:      commentRepo,
		postRepository:         postRepo,
		userRepository:         userRepo,
		notificationRepository: notifRepo,
		broker:                 broker,
	}
}

// RegisterCommentRoutes registers comment-related routes
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group) {
	g.POST("/posts/:id/comments", h.CreateComment)
	g.GET("/posts/:id/comments", h.GetComments)
	g.GET("/comments/:id/replies", h.GetReplies)
	g.PUT("/comments/:id", h.UpdateComment)
	g.DELETE("/comments/:id", h.DeleteComment)
}

// CreateComment adds a comment or reply to a post. The post author is
// notified on comments; the parent comment's author on replies.
func (h *CommentHandler) CreateComment(c echo.Context) error {
	uid := getUIDFromContext(c)
	if uid == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	postID := c.Param("id")

	var req models.CreateCommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	post, err := h.postRepository.GetPostByID(c.Request().Context(), postID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Post not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	notifRecipient := post.AuthorUID
	notifType := models.NotificationTypeComment
	if req.ParentID != "" {
		parent, err := h.commentRepository.GetCommentByID(c.Request().Context(), req.ParentID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return echo.NewHTTPError(http.StatusNotFound, "Parent comment not found")
			}
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		if parent.PostID != postID {
			return echo.NewHTTPError(http.StatusBadRequest, "Parent comment belongs to a different post")
		}
		notifRecipient = parent.AuthorUID
		notifType = models.NotificationTypeReply
	}

	comment := &models.Comment{
		PostID:    postID,
		ParentID:  req.ParentID,
		AuthorUID: uid,
		Content:   req.Content,
	}
	if err := h.commentRepository.CreateComment(c.Request().Context(), comment); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if err := h.postRepository.IncrementCommentsCount(c.Request().Context(), postID); err != nil {
		log.Printf("comments: failed to increment count for post %s: %v", postID, err)
	}

	h.notify(c, notifType, uid, notifRecipient, postID)

	return c.JSON(http.StatusCreated, comment)
}

// GetComments lists top-level comments of a post
func (h *CommentHandler) GetComments(c echo.Context) error {
	skip, _ := strconv.ParseInt(c.QueryParam("skip"), 10, 64)
	limit, _ := strconv.ParseInt(c.QueryParam("limit"), 10, 64)
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	comments, err := h.commentRepository.GetCommentsByPostID(c.Request().Context(), c.Param("id"), skip, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, comments)
}

// GetReplies lists the replies of a comment
func (h *CommentHandler) GetReplies(c echo.Context) error {
	replies, err := h.commentRepository.GetReplies(c.Request().Context(), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, replies)
}

// UpdateComment edits a comment owned by the caller
func (h *CommentHandler) UpdateComment(c echo.Context) error {
	uid := getUIDFromContext(c)
	if uid == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	commentID := c.Param("id")

	var req models.UpdateCommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	comment, err := h.commentRepository.GetCommentByID(c.Request().Context(), commentID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Comment not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if comment.AuthorUID != uid {
		return echo.NewHTTPError(http.StatusForbidden, "You can only edit your own comments")
	}

	if err := h.commentRepository.UpdateComment(c.Request().Context(), commentID, req.Content); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	comment.Content = req.Content
	return c.JSON(http.StatusOK, comment)
}

// DeleteComment removes a comment owned by the caller
func (h *CommentHandler) DeleteComment(c echo.Context) error {
	uid := getUIDFromContext(c)
	if uid == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	commentID := c.Param("id")

	comment, err := h.commentRepository.GetCommentByID(c.Request().Context(), commentID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Comment not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if comment.AuthorUID != uid {
		return echo.NewHTTPError(http.StatusForbidden, "You can only delete your own comments")
	}

	if err := h.commentRepository.DeleteComment(c.Request().Context(), commentID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if err := h.postRepository.DecrementCommentsCount(c.Request().Context(), comment.PostID); err != nil {
		log.Printf("comments: failed to decrement count for post %s: %v", comment.PostID, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"deleted": true}})
}

func (h *CommentHandler) notify(c echo.Context, notifType, actorUID, recipientUID, postID string) {
	if recipientUID == actorUID {
		return // no self-notifications
	}

	actor, err := h.userRepository.GetByUID(c.Request().Context(), actorUID)
	if err != nil {
		log.Printf("comments: failed to load actor %s: %v", actorUID, err)
		return
	}

	message := actor.Name + " commented on your post"
	if notifType == models.NotificationTypeReply {
		message = actor.Name + " replied to your comment"
	}

	notif := &models.Notification{
		Type:         notifType,
		ActorUID:     actorUID,
		RecipientUID: recipientUID,
		PostID:       postID,
		Message:      message,
	}
	if err := h.notificationRepository.CreateNotification(c.Request().Context(), notif); err != nil {
		log.Printf("comments: failed to create notification: %v", err)
		return
	}
	h.broker.Publish(recipientUID, events.TypeNotification, notif)
}
