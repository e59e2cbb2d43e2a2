package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ErlanBelekov/blog-newsletter/internal/domain"
	"github.com/ErlanBelekov/blog-newsletter/internal/metrics"
	"github.com/gin-gonic/gin"
)

// Subscriber is one newsletter backend reachable at /api/{provider}.
type Subscriber interface {
	// Subscribe receives nil consent when the request body has no consent key.
	Subscribe(ctx context.Context, email string, consent *bool) error
}

// confirmer is implemented by providers that run their own double opt-in.
type confirmer interface {
	Confirm(ctx context.Context, rawToken string) (*domain.Subscriber, error)
}

type SubscribeHandler struct {
	providers map[string]Subscriber
	logger    *slog.Logger
}

func NewSubscribeHandler(providers map[string]Subscriber, logger *slog.Logger) *SubscribeHandler {
	return &SubscribeHandler{
		providers: providers,
		logger:    logger.With("component", "subscribe_handler"),
	}
}

type subscribeRequest struct {
	Email   string `json:"email" binding:"required,email"`
	Consent *bool  `json:"consent"`
}

// POST /api/:provider
// Success is 201 with an empty object; every failure carries {"error": "..."}.
func (h *SubscribeHandler) Subscribe(c *gin.Context) {
	name := c.Param("provider")
	provider, ok := h.providers[name]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": errUnknownProvider})
		return
	}

	var req subscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		metrics.SubscriptionsTotal.WithLabelValues(name, "invalid").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidEmail})
		return
	}

	ctx := c.Request.Context()
	if err := provider.Subscribe(ctx, req.Email, req.Consent); err != nil {
		switch {
		case errors.Is(err, domain.ErrConsentRequired):
			metrics.SubscriptionsTotal.WithLabelValues(name, "no_consent").Inc()
			c.JSON(http.StatusBadRequest, gin.H{"error": errConsentRequired})
		case errors.Is(err, domain.ErrAlreadySubscribed):
			metrics.SubscriptionsTotal.WithLabelValues(name, "duplicate").Inc()
			c.JSON(http.StatusBadRequest, gin.H{"error": errAlreadySubscribed})
		default:
			metrics.SubscriptionsTotal.WithLabelValues(name, "error").Inc()
			h.logger.ErrorContext(ctx, "subscribe", "provider", name, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		}
		return
	}

	metrics.SubscriptionsTotal.WithLabelValues(name, "accepted").Inc()
	h.logger.InfoContext(ctx, "subscription accepted", "provider", name)
	c.JSON(http.StatusCreated, gin.H{})
}

// GET /api/:provider/confirm?token=<jwt>
func (h *SubscribeHandler) Confirm(c *gin.Context) {
	name := c.Param("provider")
	provider, ok := h.providers[name]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": errUnknownProvider})
		return
	}
	conf, ok := provider.(confirmer)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": errUnknownProvider})
		return
	}

	rawToken := c.Query("token")
	if rawToken == "" {
		metrics.ConfirmationsTotal.WithLabelValues("invalid").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": errTokenInvalid})
		return
	}

	ctx := c.Request.Context()
	sub, err := conf.Confirm(ctx, rawToken)
	if err != nil {
		if errors.Is(err, domain.ErrTokenInvalid) {
			metrics.ConfirmationsTotal.WithLabelValues("invalid").Inc()
			c.JSON(http.StatusBadRequest, gin.H{"error": errTokenInvalid})
			return
		}
		metrics.ConfirmationsTotal.WithLabelValues("error").Inc()
		h.logger.ErrorContext(ctx, "confirm subscription", "provider", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	metrics.ConfirmationsTotal.WithLabelValues("confirmed").Inc()
	h.logger.InfoContext(ctx, "subscription confirmed", "provider", name, "subscriber_id", sub.ID)
	c.JSON(http.StatusOK, gin.H{"email": sub.Email, "status": sub.Status})
}
