// File: internal/user/handler.go
package user

import (
	"net/http"
	"strconv"
	"strings"

	"wlm_backend/internal/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler struct holds dependencies for user handlers.
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler creates a new user handler.
func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger.Named("UserHandler"),
	}
}

// RegisterRoutes sets up the routes for user operations.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	userGroup := router.Group("/users")
	{
		userGroup.GET("/me", h.getMe)
		userGroup.GET("/search", h.search)
		userGroup.POST("/me/ping", h.ping)
	}
}

// getMe returns the caller's user record, looked up by the provider's
// external id. The access token is structurally absent from the response.
func (h *Handler) getMe(c *gin.Context) {
	externalID := strings.TrimSpace(c.Query("external_id"))
	if externalID == "" {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("The external_id query parameter is required."))
		return
	}

	usr, err := h.service.GetByExternalID(c.Request.Context(), externalID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, ToUserResponse(usr))
}

func (h *Handler) search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("The q query parameter is required."))
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			common.RespondWithError(c, common.ErrBadRequest.WithDetails("The limit query parameter must be a positive integer."))
			return
		}
		limit = parsed
	}

	users, err := h.service.Search(c.Request.Context(), query, limit)
	if err != nil {
		h.logger.Error("Handle search failed", zap.Error(err), zap.String("query", query))
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Users retrieved successfully.", ToUserResponses(users))
}

func (h *Handler) ping(c *gin.Context) {
	externalID := strings.TrimSpace(c.Query("external_id"))
	if externalID == "" {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("The external_id query parameter is required."))
		return
	}

	if err := h.service.Ping(c.Request.Context(), externalID); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Presence updated.", nil)
}
