// File: internal/stats/handler.go
package stats

import (
	"wlm_backend/internal/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler holds dependencies for the stats endpoints.
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler creates a new stats handler.
func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger.Named("StatsHandler"),
	}
}

// RegisterRoutes sets up the admin stats routes.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	adminGroup := router.Group("/admin")
	{
		adminGroup.GET("/stats", h.overview)
	}
}

func (h *Handler) overview(c *gin.Context) {
	overview, err := h.service.Overview(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to compute stats overview", zap.Error(err))
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Statistics retrieved successfully.", overview)
}
