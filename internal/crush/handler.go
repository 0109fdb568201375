// File: internal/crush/handler.go
package crush

import (
	"errors"
	"net/http"

	"wlm_backend/internal/common"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler struct holds dependencies for crush handlers.
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler creates a new crush handler.
func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger.Named("CrushHandler"),
	}
}

// RegisterRoutes sets up the routes for crush operations.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	crushGroup := router.Group("/crushes")
	{
		crushGroup.POST("", h.declare)
		crushGroup.GET("/:user_id", h.listByUser)
		crushGroup.GET("/:user_id/admirers", h.listAdmirers)
	}
}

func (h *Handler) declare(c *gin.Context) {
	var req DeclareCrushRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Declare crush: invalid request body", zap.Error(err))
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(ve)))
			return
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}

	declared, isMatch, err := h.service.Declare(c.Request.Context(), req.DeclarerID, req.TargetHandle, req.Platform)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"crush":    ToCrushResponse(declared),
		"is_match": isMatch,
	})
}

func (h *Handler) listByUser(c *gin.Context) {
	userID, ok := h.parseUserID(c)
	if !ok {
		return
	}
	crushes, err := h.service.ListByUser(c.Request.Context(), userID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, ToCrushResponses(crushes))
}

func (h *Handler) listAdmirers(c *gin.Context) {
	userID, ok := h.parseUserID(c)
	if !ok {
		return
	}
	admirers, err := h.service.ListAdmirers(c.Request.Context(), userID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, ToCrushResponses(admirers))
}

func (h *Handler) parseUserID(c *gin.Context) (uuid.UUID, bool) {
	paramID := c.Param("user_id")
	userID, err := uuid.Parse(paramID)
	if err != nil {
		h.logger.Warn("Invalid user ID format in URL parameter", zap.String("paramID", paramID), zap.Error(err))
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid user ID format."))
		return uuid.Nil, false
	}
	return userID, true
}
