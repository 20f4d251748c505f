package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/anonto42/research-hub/backend/internal/models"
	"github.com/anonto42/research-hub/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// BookmarkHandler handles saved-post HTTP requests
type BookmarkHandler struct {
	bookmarkRepository repositories.BookmarkRepository
	postRepository     repositories.PostRepository
}

// NewBookmarkHandler creates a new BookmarkHandler
func NewBookmarkHandler(bookmarkRepo repositories.BookmarkRepository, postRepo repositories.PostRepository) *BookmarkHandler {
	return &BookmarkHandler{
		bookmarkRepository: bookmarkRepo,
		postRepository:     postRepo,
	}
}

// RegisterBookmarkRoutes registers bookmark-related routes
func (h *BookmarkHandler) RegisterBookmarkRoutes(g *echo.Group) {
	g.POST("/posts/:id/bookmark", h.SavePost)
	g.DELETE("/posts/:id/bookmark", h.UnsavePost)
	g.GET("/bookmarks", h.ListBookmarks)
}

// SavePost bookmarks a post for the caller
func (h *BookmarkHandler) SavePost(c echo.Context) error {
	uid := getUIDFromContext(c)
	if uid == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	postID := c.Param("id")

	if _, err := h.postRepository.GetPostByID(c.Request().Context(), postID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Post not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	bookmark := &models.Bookmark{UserUID: uid, PostID: postID}
	if err := h.bookmarkRepository.CreateBookmark(c.Request().Context(), bookmark); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return echo.NewHTTPError(http.StatusConflict, "Post already bookmarked")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"bookmarked": true}})
}

// UnsavePost removes a bookmark
func (h *BookmarkHandler) UnsavePost(c echo.Context) error {
	uid := getUIDFromContext(c)
	if uid == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	if err := h.bookmarkRepository.DeleteBookmark(c.Request().Context(), uid, c.Param("id")); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Bookmark not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"bookmarked": false}})
}

// ListBookmarks returns the caller's saved posts, resolved to full post
// documents. Bookmarks whose post was deleted are skipped.
func (h *BookmarkHandler) ListBookmarks(c echo.Context) error {
	uid := getUIDFromContext(c)
	if uid == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	skip, _ := strconv.ParseInt(c.QueryParam("skip"), 10, 64)
	limit, _ := strconv.ParseInt(c.QueryParam("limit"), 10, 64)
	if limit <= 0 || limit > 50 {
		limit = 20
	}

	bookmarks, err := h.bookmarkRepository.ListBookmarks(c.Request().Context(), uid, skip, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	posts := []models.Post{}
	for _, b := range bookmarks {
		post, err := h.postRepository.GetPostByID(c.Request().Context(), b.PostID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				continue
			}
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		posts = append(posts, *post)
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": posts})
}
