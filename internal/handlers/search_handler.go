package handlers

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/anonto42/research-hub/backend/internal/cache"
	"github.com/anonto42/research-hub/backend/internal/models"
	"github.com/anonto42/research-hub/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

const (
	searchLimit     = 20
	suggestionLimit = 5
	suggestionTTL   = 10 * time.Second
)

// SearchHandler handles search HTTP requests across people, posts and
// topics. The suggestions endpoint is rate limited at the router and its
// results are briefly cached, since it is hit on every keystroke.
type SearchHandler struct {
	userRepository repositories.UserRepository
	postRepository repositories.PostRepository
	cache          *cache.Cache
}

// NewSearchHandler creates a new SearchHandler
func NewSearchHandler(userRepo repositories.UserRepository, postRepo repositories.PostRepository, c *cache.Cache) *SearchHandler {
	return &SearchHandler{
		userRepository: userRepo,
		postRepository: postRepo,
		cache:          c,
	}
}

type suggestionResult struct {
	People []models.UserCompact `json:"people"`
	Posts  []models.Post        `json:"posts"`
	Topics []string             `json:"topics"`
}

// RegisterSearchRoutes registers search routes. suggestions gets the extra
// rate-limit middleware.
func (h *SearchHandler) RegisterSearchRoutes(g *echo.Group, suggestionLimiter echo.MiddlewareFunc) {
	g.GET("/search/people", h.SearchPeople)
	g.GET("/search/posts", h.SearchPosts)
	g.GET("/search/topics", h.SearchTopics)
	g.GET("/search/suggestions", h.Suggestions, suggestionLimiter)
}

// SearchPeople searches researchers by name, headline or topic
func (h *SearchHandler) SearchPeople(c echo.Context) error {
	query := strings.TrimSpace(c.QueryParam("q"))
	if query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Query parameter q is required")
	}

	users, err := h.userRepository.SearchUsers(c.Request().Context(), query, searchLimit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	compacts := make([]models.UserCompact, len(users))
	for i := range users {
		compacts[i] = users[i].ToCompact()
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": compacts})
}

// SearchPosts searches posts by title, content or topic
func (h *SearchHandler) SearchPosts(c echo.Context) error {
	query := strings.TrimSpace(c.QueryParam("q"))
	if query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Query parameter q is required")
	}

	posts, err := h.postRepository.SearchPosts(c.Request().Context(), query, searchLimit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": posts})
}

// SearchTopics lists distinct topics matching the query
func (h *SearchHandler) SearchTopics(c echo.Context) error {
	query := strings.TrimSpace(c.QueryParam("q"))
	if query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Query parameter q is required")
	}

	topics, err := h.postRepository.SearchTopics(c.Request().Context(), query, searchLimit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": topics})
}

// Suggestions returns a small mixed result set for typeahead
func (h *SearchHandler) Suggestions(c echo.Context) error {
	query := strings.ToLower(strings.TrimSpace(c.QueryParam("q")))
	if query == "" {
		return c.JSON(http.StatusOK, echo.Map{"success": true, "data": suggestionResult{
			People: []models.UserCompact{},
			Posts:  []models.Post{},
			Topics: []string{},
		}})
	}

	key := "suggest:" + query
	var cached suggestionResult
	if ok, _ := h.cache.GetJSON(c.Request().Context(), key, &cached); ok {
		return c.JSON(http.StatusOK, echo.Map{"success": true, "data": cached})
	}

	users, err := h.userRepository.SearchUsers(c.Request().Context(), query, suggestionLimit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	posts, err := h.postRepository.SearchPosts(c.Request().Context(), query, suggestionLimit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	topics, err := h.postRepository.SearchTopics(c.Request().Context(), query, suggestionLimit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	compacts := make([]models.UserCompact, len(users))
	for i := range users {
		compacts[i] = users[i].ToCompact()
	}
	result := suggestionResult{People: compacts, Posts: posts, Topics: topics}
	if err := h.cache.SetJSON(c.Request().Context(), key, result, suggestionTTL); err != nil {
		log.Printf("search: failed to cache suggestions: %v", err)
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": result})
}
