package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/syaqirshaq/fasting-tracker/internal/core/domain"
)

type ConfigHandler struct {
	cfg domain.RemoteConfig
}

func NewConfigHandler(cfg domain.RemoteConfig) *ConfigHandler {
	return &ConfigHandler{cfg: cfg}
}

func (h *ConfigHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/config", h.Get)
}

func (h *ConfigHandler) Get(c *gin.Context) {
	c.JSON(http.StatusOK, h.cfg)
}
