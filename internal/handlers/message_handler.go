package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/anonto42/research-hub/backend/internal/events"
	"github.com/anonto42/research-hub/backend/internal/models"
	"github.com/anonto42/research-hub/backend/internal/repositories"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// MessageHandler handles direct-message HTTP requests. Every conversation
// endpoint checks the caller is a participant before touching the thread.
type MessageHandler struct {
	conversationRepository repositories.ConversationRepository
	userRepository         repositories.UserRepository
	broker                 *events.Broker
}

// NewMessageHandler creates a new MessageHandler
func NewMessageHandler(convRepo repositories.ConversationRepository, userRepo repositories.UserRepository, broker *events.Broker) *MessageHandler {
	return &MessageHandler{
		conversationRepository: convRepo,
		userRepository:         userRepo,
		broker:                 broker,
	}
}

// RegisterMessageRoutes registers direct-message routes
func (h *MessageHandler) RegisterMessageRoutes(g *echo.Group) {
	g.POST("/conversations", h.OpenConversation)
	g.GET("/conversations", h.ListConversations)
	g.POST("/conversations/:id/messages", h.SendMessage)
	g.GET("/conversations/:id/messages", h.ListMessages)
	g.PUT("/conversations/:id/read", h.MarkRead)
}

// OpenConversation opens (or returns) the thread with another researcher
func (h *MessageHandler) OpenConversation(c echo.Context) error {
	uid := getUIDFromContext(c)
	if uid == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.CreateConversationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.WithUID == uid {
		return echo.NewHTTPError(http.StatusBadRequest, "Cannot message yourself")
	}

	self, err := h.userRepository.GetByUID(c.Request().Context(), uid)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "User profile not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	other, err := h.userRepository.GetByUID(c.Request().Context(), req.WithUID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "User profile not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	conv, err := h.conversationRepository.GetOrCreateConversation(c.Request().Context(), self.ToCompact(), other.ToCompact())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, conv)
}

// ListConversations lists the caller's threads, most recently active first
func (h *MessageHandler) ListConversations(c echo.Context) error {
	uid := getUIDFromContext(c)
	if uid == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	conversations, err := h.conversationRepository.ListConversations(c.Request().Context(), uid)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": conversations})
}

// SendMessage sends a message into one of the caller's threads
func (h *MessageHandler) SendMessage(c echo.Context) error {
	uid := getUIDFromContext(c)
	if uid == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.SendMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	conv, err := h.authorizedConversation(c, uid)
	if err != nil {
		return err
	}

	message := &models.Message{
		ConversationID: conv.ID.Hex(),
		SenderUID:      uid,
		Text:           req.Text,
		AttachmentURL:  req.AttachmentURL,
	}
	if err := h.conversationRepository.CreateMessage(c.Request().Context(), message); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	for _, participant := range conv.ParticipantUIDs {
		if participant != uid {
			h.broker.Publish(participant, events.TypeMessage, message)
		}
	}

	return c.JSON(http.StatusCreated, message)
}

// ListMessages lists messages of one of the caller's threads, newest first
func (h *MessageHandler) ListMessages(c echo.Context) error {
	uid := getUIDFromContext(c)
	if uid == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	conv, err := h.authorizedConversation(c, uid)
	if err != nil {
		return err
	}

	skip, _ := strconv.ParseInt(c.QueryParam("skip"), 10, 64)
	limit, _ := strconv.ParseInt(c.QueryParam("limit"), 10, 64)
	if limit <= 0 || limit > 100 {
		limit = 30
	}

	messages, err := h.conversationRepository.ListMessages(c.Request().Context(), conv.ID.Hex(), skip, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, messages)
}

// MarkRead marks every message of the thread as read by the caller
func (h *MessageHandler) MarkRead(c echo.Context) error {
	uid := getUIDFromContext(c)
	if uid == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	conv, err := h.authorizedConversation(c, uid)
	if err != nil {
		return err
	}

	if err := h.conversationRepository.MarkMessagesRead(c.Request().Context(), conv.ID.Hex(), uid); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"read": true}})
}

func (h *MessageHandler) authorizedConversation(c echo.Context, uid string) (*models.Conversation, error) {
	conv, err := h.conversationRepository.GetConversationByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, echo.NewHTTPError(http.StatusNotFound, "Conversation not found")
		}
		return nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	for _, participant := range conv.ParticipantUIDs {
		if participant == uid {
			return conv, nil
		}
	}
	return nil, echo.NewHTTPError(http.StatusForbidden, "You are not part of this conversation")
}
