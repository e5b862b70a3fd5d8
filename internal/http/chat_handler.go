package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"andse-chat/internal/files"
	"andse-chat/internal/service"
)

// errFileTooLarge distingue el rechazo por tamaño del resto de los fallos
// de lectura del multipart, que se reportan como archivo faltante.
var errFileTooLarge = errors.New("file too large")

// ChatHandler mantiene dependencias para endpoints de sesiones, historia,
// transcripción y subida de archivos.
type ChatHandler struct {
	logger        *zap.Logger
	sessionServ   *service.SessionService
	transcribe    *service.TranscribeService
	store         *files.DiskStore
	uploadMaxByte int64
}

// NewChatHandler crea una instancia de ChatHandler con dependencias necesarias.
func NewChatHandler(
	logger *zap.Logger,
	sessionServ *service.SessionService,
	transcribe *service.TranscribeService,
	store *files.DiskStore,
	uploadMaxBytes int64,
) *ChatHandler {
	if uploadMaxBytes <= 0 {
		uploadMaxBytes = 64 << 20
	}
	return &ChatHandler{
		logger:        logger,
		sessionServ:   sessionServ,
		transcribe:    transcribe,
		store:         store,
		uploadMaxByte: uploadMaxBytes,
	}
}

// ListSessions maneja GET /chat/sessions.
func (h *ChatHandler) ListSessions(c *gin.Context) {
	sessions := h.sessionServ.List(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

// CreateSession maneja POST /chat/new.
func (h *ChatHandler) CreateSession(c *gin.Context) {
	session, err := h.sessionServ.Create(c.Request.Context())
	if err != nil {
		h.logger.Error("create session failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create session"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": session.ID, "title": session.Title})
}

// GetHistory maneja GET /chat/session/:id.
func (h *ChatHandler) GetHistory(c *gin.Context) {
	id := c.Param("id")
	messages, err := h.sessionServ.History(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		h.logger.Error("get history failed", zap.Error(err), zap.String("session_id", id))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// DeleteSession maneja DELETE /chat/session/:id.
func (h *ChatHandler) DeleteSession(c *gin.Context) {
	id := c.Param("id")
	if err := h.sessionServ.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		h.logger.Error("delete session failed", zap.Error(err), zap.String("session_id", id))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// Transcribe maneja POST /chat/transcribe (audio multipart).
func (h *ChatHandler) Transcribe(c *gin.Context) {
	filename, content, err := h.readUpload(c)
	if err != nil {
		reason := "no audio file received"
		if errors.Is(err, errFileTooLarge) {
			reason = "audio file too large"
		}
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": reason})
		return
	}

	text, err := h.transcribe.Transcribe(c.Request.Context(), ClientKey(c), content, filename)
	if err != nil {
		if errors.Is(err, service.ErrRateLimited) {
			c.JSON(http.StatusTooManyRequests, gin.H{"success": false, "error": "too many requests"})
			return
		}
		h.logger.Warn("transcription failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "text": text})
}

// Upload maneja POST /chat/upload (archivo multipart).
func (h *ChatHandler) Upload(c *gin.Context) {
	filename, content, err := h.readUpload(c)
	if err != nil {
		reason := "no file part"
		if errors.Is(err, errFileTooLarge) {
			reason = "file too large"
		}
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": reason})
		return
	}

	attachment, err := h.store.Save(filename, content)
	if err != nil {
		reason := "could not save file"
		switch {
		case errors.Is(err, files.ErrTypeNotAllowed):
			reason = "file type not allowed"
		case errors.Is(err, files.ErrEmptyFile):
			reason = "no file selected"
		default:
			h.logger.Error("upload save failed", zap.Error(err), zap.String("filename", filename))
		}
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": reason})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"filepath": attachment.Filepath,
		"filename": attachment.Filename,
		"type":     attachment.MediaType,
	})
}

// Status maneja GET /system/status.
func (h *ChatHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "online",
		"modules": gin.H{
			"chat":       true,
			"transcribe": h.transcribe != nil,
			"uploads":    h.store != nil,
		},
	})
}

func (h *ChatHandler) readUpload(c *gin.Context) (string, []byte, error) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return "", nil, err
	}
	if fileHeader.Size > h.uploadMaxByte {
		return "", nil, errFileTooLarge
	}
	file, err := fileHeader.Open()
	if err != nil {
		return "", nil, err
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, h.uploadMaxByte+1))
	if err != nil {
		return "", nil, err
	}
	if int64(len(content)) > h.uploadMaxByte {
		return "", nil, errFileTooLarge
	}
	return fileHeader.Filename, content, nil
}
