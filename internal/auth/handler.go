// File: internal/auth/handler.go
package auth

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"wlm_backend/internal/common"
	"wlm_backend/internal/config"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler holds dependencies for the auth endpoints.
type Handler struct {
	service Service
	cfg     *config.Config
	logger  *zap.Logger
}

// NewHandler creates a new auth handler.
func NewHandler(service Service, cfg *config.Config, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		cfg:     cfg,
		logger:  logger.Named("AuthHandler"),
	}
}

// RegisterRoutes sets up the auth routes.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	authGroup := router.Group("/auth")
	{
		authGroup.GET("/login", h.login)
		authGroup.GET("/callback", h.callback)
	}
}

// login redirects the browser to the provider authorization page.
func (h *Handler) login(c *gin.Context) {
	c.Redirect(http.StatusFound, h.service.LoginURL())
}

// callback handles the provider redirect. On success the browser is sent
// back to the frontend with a small session blob in the query string; any
// failure renders a 500 with a detail message and never the token.
func (h *Handler) callback(c *gin.Context) {
	code := strings.TrimSpace(c.Query("code"))
	if code == "" {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("The code query parameter is required."))
		return
	}

	usr, err := h.service.HandleCallback(c.Request.Context(), code)
	if err != nil {
		detail := "Authentication failed."
		if apiErr, ok := common.IsAPIError(err); ok {
			if msg, isString := apiErr.Details.(string); isString && msg != "" {
				detail = msg
			}
		} else {
			h.logger.Error("Unexpected error during OAuth callback", zap.Error(err))
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"detail": fmt.Sprintf("Authentication error: %s", detail),
		})
		return
	}

	session, err := json.Marshal(gin.H{
		"external_id": usr.ExternalID,
		"handle":      usr.Handle,
	})
	if err != nil {
		h.logger.Error("Failed to marshal frontend session blob", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"detail": "Authentication error: could not build the session.",
		})
		return
	}

	redirectURL := fmt.Sprintf("%s?user=%s", h.cfg.FrontendCallbackURL, url.QueryEscape(string(session)))
	c.Redirect(http.StatusFound, redirectURL)
}
