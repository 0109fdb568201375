// File: internal/provider/instagram.go
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"wlm_backend/internal/common"
	"wlm_backend/internal/config"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const (
	defaultAuthBaseURL  = "https://api.instagram.com"
	defaultGraphBaseURL = "https://graph.instagram.com"

	profileFields = "id,username,name,profile_picture_url"
)

// Profile is the minimal provider profile used to upsert a local user.
type Profile struct {
	ExternalID  string
	Handle      string
	DisplayName *string
	AvatarURL   *string
}

// Gateway talks to the identity provider. AuthorizationURL is pure;
// ExchangeCode and FetchProfile are each a single round trip with no
// retries, so a failure is terminal for the callback that triggered it.
type Gateway interface {
	AuthorizationURL() string
	ExchangeCode(ctx context.Context, code string) (accessToken string, externalUserID string, err error)
	FetchProfile(ctx context.Context, accessToken string) (*Profile, error)
}

type instagramGateway struct {
	oauthCfg     *oauth2.Config
	graphBaseURL string
	httpClient   *http.Client
	logger       *zap.Logger
}

var _ Gateway = (*instagramGateway)(nil)

// NewInstagramGateway creates a Gateway against the real Instagram endpoints.
func NewInstagramGateway(cfg *config.Config, logger *zap.Logger) Gateway {
	return NewInstagramGatewayWithBaseURLs(cfg, defaultAuthBaseURL, defaultGraphBaseURL, logger)
}

// NewInstagramGatewayWithBaseURLs allows tests to point the gateway at local servers.
func NewInstagramGatewayWithBaseURLs(cfg *config.Config, authBaseURL, graphBaseURL string, logger *zap.Logger) Gateway {
	oauthCfg := &oauth2.Config{
		ClientID:     cfg.InstagramClientID,
		ClientSecret: cfg.InstagramClientSecret,
		RedirectURL:  cfg.InstagramRedirectURI,
		Scopes:       strings.Split(cfg.InstagramScopes, ","),
		Endpoint: oauth2.Endpoint{
			AuthURL:   authBaseURL + "/oauth/authorize",
			TokenURL:  authBaseURL + "/oauth/access_token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
	return &instagramGateway{
		oauthCfg:     oauthCfg,
		graphBaseURL: graphBaseURL,
		httpClient:   &http.Client{Timeout: 15 * time.Second},
		logger:       logger.Named("InstagramGateway"),
	}
}

// AuthorizationURL builds the provider authorization URL from static configuration.
func (g *instagramGateway) AuthorizationURL() string {
	return g.oauthCfg.AuthCodeURL("")
}

// ExchangeCode trades an authorization code for an access token and the
// provider's user id, which Instagram returns alongside the token. The
// response is decoded here rather than through oauth2.Config.Exchange:
// user_id is a 17+ digit integer and must never pass through a float64.
func (g *instagramGateway) ExchangeCode(ctx context.Context, code string) (string, string, error) {
	form := url.Values{
		"client_id":     {g.oauthCfg.ClientID},
		"client_secret": {g.oauthCfg.ClientSecret},
		"grant_type":    {"authorization_code"},
		"redirect_uri":  {g.oauthCfg.RedirectURL},
		"code":          {code},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.oauthCfg.Endpoint.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", "", common.ErrUpstreamAuth.WithDetails("Could not build the token request.")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		g.logger.Error("Token request failed", zap.Error(err))
		return "", "", common.ErrUpstreamAuth.WithDetails("Could not exchange the authorization code.")
	}
	defer resp.Body.Close()

	var payload struct {
		AccessToken  string      `json:"access_token"`
		UserID       interface{} `json:"user_id"`
		ErrorMessage string      `json:"error_message"`
	}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		g.logger.Error("Failed to decode token response", zap.Error(err), zap.Int("status", resp.StatusCode))
		return "", "", common.ErrUpstreamAuth.WithDetails("Could not decode the provider token response.")
	}

	if resp.StatusCode != http.StatusOK || payload.AccessToken == "" {
		g.logger.Error("Provider rejected the authorization code",
			zap.Int("status", resp.StatusCode),
			zap.String("provider_error", payload.ErrorMessage),
		)
		return "", "", common.ErrUpstreamAuth.WithDetails("Could not exchange the authorization code.")
	}

	externalID := idString(payload.UserID)
	if externalID == "" {
		g.logger.Error("Provider token response carried no user id")
		return "", "", common.ErrUpstreamAuth.WithDetails("Provider returned no user id.")
	}

	return payload.AccessToken, externalID, nil
}

// FetchProfile retrieves the minimal profile for the token's user.
func (g *instagramGateway) FetchProfile(ctx context.Context, accessToken string) (*Profile, error) {
	endpoint := fmt.Sprintf("%s/me?fields=%s&access_token=%s",
		g.graphBaseURL, profileFields, url.QueryEscape(accessToken))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, common.ErrUpstreamProfile.WithDetails("Could not build profile request.")
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		g.logger.Error("Profile request failed", zap.Error(err))
		return nil, common.ErrUpstreamProfile.WithDetails("Could not fetch the profile from the provider.")
	}
	defer resp.Body.Close()

	var payload struct {
		ID                string `json:"id"`
		Username          string `json:"username"`
		Name              string `json:"name"`
		ProfilePictureURL string `json:"profile_picture_url"`
		Error             *struct {
			Message string `json:"message"`
			Type    string `json:"type"`
			Code    int    `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		g.logger.Error("Failed to decode profile response", zap.Error(err), zap.Int("status", resp.StatusCode))
		return nil, common.ErrUpstreamProfile.WithDetails("Could not decode the provider profile response.")
	}

	if payload.Error != nil {
		// The provider error message is safe to surface; the token is not.
		g.logger.Error("Provider returned an error payload",
			zap.String("provider_error", payload.Error.Message),
			zap.Int("provider_code", payload.Error.Code),
		)
		return nil, common.ErrUpstreamProfile.WithDetails(fmt.Sprintf("Provider error: %s", payload.Error.Message))
	}
	if payload.ID == "" || payload.Username == "" {
		g.logger.Error("Provider profile response missing id or username", zap.Int("status", resp.StatusCode))
		return nil, common.ErrUpstreamProfile.WithDetails("Provider profile response was incomplete.")
	}

	profile := &Profile{
		ExternalID: payload.ID,
		Handle:     payload.Username,
	}
	if payload.Name != "" {
		name := payload.Name
		profile.DisplayName = &name
	}
	if payload.ProfilePictureURL != "" {
		pic := payload.ProfilePictureURL
		profile.AvatarURL = &pic
	}
	return profile, nil
}

// idString reads a user id the provider encodes either as a JSON string
// or a JSON number. Numbers arrive as json.Number (UseNumber above), so
// the digits are carried verbatim.
func idString(v interface{}) string {
	switch v := v.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	default:
		return ""
	}
}
