package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/syaqirshaq/fasting-tracker/internal/core/domain"
	"github.com/syaqirshaq/fasting-tracker/internal/core/services"
)

type SubscriptionHandler struct {
	svc *services.SubscriptionService
}

func NewSubscriptionHandler(svc *services.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{svc: svc}
}

type subscribeRequest struct {
	Subscription *domain.Subscription `json:"subscription" binding:"required"`
}

type checkinRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
	Date     string `json:"date" binding:"required"`
	Status   string `json:"status" binding:"required"`
}

func (h *SubscriptionHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/subscribe", h.Subscribe)
	r.POST("/checkin", h.Checkin)
}

func (h *SubscriptionHandler) Subscribe(c *gin.Context) {
	var req subscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.svc.Subscribe(c.Request.Context(), req.Subscription); err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *SubscriptionHandler) Checkin(c *gin.Context) {
	var req checkinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	relay := domain.CheckinRelay{
		Endpoint: req.Endpoint,
		Date:     req.Date,
		Status:   domain.Status(req.Status),
	}
	if err := h.svc.RecordCheckin(c.Request.Context(), relay); err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "status": relay.Status, "date": relay.Date})
}
