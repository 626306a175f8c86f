package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/syaqirshaq/fasting-tracker/internal/core/services"
)

type WindowHandler struct {
	svc *services.WindowService
}

func NewWindowHandler(svc *services.WindowService) *WindowHandler {
	return &WindowHandler{svc: svc}
}

func (h *WindowHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/ramadan-window", h.Get)
}

func (h *WindowHandler) Get(c *gin.Context) {
	window, err := h.svc.Window(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, window)
}
