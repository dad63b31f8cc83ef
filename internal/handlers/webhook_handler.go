package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/jobboard/internal/apperrors"
	"github.com/justsurfingit/jobboard/internal/dtos"
	"github.com/justsurfingit/jobboard/internal/services"
	"go.uber.org/zap"
)

type WebhookHandler struct {
	Ingestion *services.IngestionService
	Log       *zap.Logger
}

func NewWebhookHandler(ingestion *services.IngestionService, log *zap.Logger) *WebhookHandler {
	return &WebhookHandler{Ingestion: ingestion, Log: log}
}

// Receive is the POST /webhook/apify endpoint
func (h *WebhookHandler) Receive(c *gin.Context) {
	defer func() {
		if r := recover(); r != nil {
			h.Log.Error("webhook handler panic", zap.Any("panic", r), zap.Stack("stack"))
			h.fail(c, fmt.Sprint(r))
		}
	}()

	if c.ContentType() != "application/json" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Content-Type must be application/json"})
		return
	}

	var ev dtos.ApifyWebhookEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid JSON format: " + err.Error()})
		return
	}

	res, err := h.Ingestion.HandleEvent(c.Request.Context(), &ev)
	if err != nil {
		switch apperrors.TypeOf(err) {
		case apperrors.ErrTypeInvalidInput, apperrors.ErrTypeUnsupported:
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": apperrors.PublicMessage(err)})
		default:
			h.Log.Error("webhook processing failed", zap.String("event_type", ev.EventType), zap.Error(err))
			h.fail(c, err.Error())
		}
		return
	}

	message := fmt.Sprintf("Apify event %s processed successfully", ev.EventType)
	if res.Ignored {
		message = "Event ignored: sender does not match the configured user"
	}
	c.JSON(http.StatusOK, dtos.WebhookResponse{
		Success:    true,
		Message:    message,
		ActorRunID: res.ActorRunID,
		DatasetID:  res.DatasetID,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *WebhookHandler) fail(c *gin.Context, message string) {
	c.JSON(http.StatusInternalServerError, gin.H{
		"success": false,
		"error":   "Failed to process Apify webhook",
		"message": message,
	})
}

// Info is the GET /webhook/apify endpoint
func (h *WebhookHandler) Info(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":         "Apify webhook endpoint",
		"method":          http.MethodPost,
		"contentType":     "application/json",
		"supportedEvents": dtos.SupportedEvents,
	})
}
