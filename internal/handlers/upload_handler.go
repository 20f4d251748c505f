package handlers

import (
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/anonto42/research-hub/backend/pkg/storage"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	maxImageSize      = 5 * 1024 * 1024  // 5MB
	maxAttachmentSize = 10 * 1024 * 1024 // 10MB
)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

var allowedAttachmentTypes = map[string]bool{
	"application/pdf": true,
	"text/plain":      true,
	"application/zip": true, // docx and friends sniff as zip
}

// UploadHandler handles file uploads to object storage
type UploadHandler struct {
	uploader *storage.Uploader
}

// NewUploadHandler creates a new UploadHandler
func NewUploadHandler(uploader *storage.Uploader) *UploadHandler {
	return &UploadHandler{uploader: uploader}
}

// RegisterUploadRoutes registers upload routes
func (h *UploadHandler) RegisterUploadRoutes(g *echo.Group) {
	g.POST("/uploads/image", h.UploadImage)
	g.POST("/uploads/attachment", h.UploadAttachment)
}

// UploadImage accepts a multipart image upload (post images and profile
// photos) and returns its public URL
func (h *UploadHandler) UploadImage(c echo.Context) error {
	return h.upload(c, "images", maxImageSize, allowedImageTypes)
}

// UploadAttachment accepts a multipart document upload (e.g. preprint
// PDFs) and returns its public URL
func (h *UploadHandler) UploadAttachment(c echo.Context) error {
	return h.upload(c, "attachments", maxAttachmentSize, allowedAttachmentTypes)
}

func (h *UploadHandler) upload(c echo.Context, prefix string, maxSize int64, allowed map[string]bool) error {
	uid := getUIDFromContext(c)
	if uid == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	if h.uploader == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "File uploads are not configured")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing file field")
	}
	if fileHeader.Size > maxSize {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge,
			fmt.Sprintf("File exceeds the %dMB limit", maxSize/(1024*1024)))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, maxSize+1))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if int64(len(content)) > maxSize {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge,
			fmt.Sprintf("File exceeds the %dMB limit", maxSize/(1024*1024)))
	}

	// Sniff the content type instead of trusting the client header
	contentType := http.DetectContentType(content)
	if mediaType, _, ok := strings.Cut(contentType, ";"); ok {
		contentType = mediaType
	}
	if !allowed[contentType] {
		return echo.NewHTTPError(http.StatusUnsupportedMediaType, "File type not allowed: "+contentType)
	}

	key := fmt.Sprintf("%s/%s/%s%s", prefix, uid, uuid.New().String(), path.Ext(fileHeader.Filename))
	if err := h.uploader.Upload(c.Request().Context(), key, content, contentType); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": echo.Map{
		"url": h.uploader.PublicURL(key),
		"key": key,
	}})
}
