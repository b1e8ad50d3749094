package instagram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"postpilot/internal/domain"
)

const (
	defaultAuthBaseURL = "https://www.facebook.com/v21.0/dialog/oauth"

	// Long-lived user tokens last about 60 days. Used when the token
	// endpoint omits expires_in.
	longLivedTokenTTL = 60 * 24 * time.Hour
)

// oauthScopes are the permissions required to publish to a professional
// Instagram account through a linked Facebook page.
var oauthScopes = []string{
	"instagram_basic",
	"pages_show_list",
	"pages_read_engagement",
	"instagram_content_publish",
}

// OAuthOptions configures the Meta OAuth helper.
type OAuthOptions struct {
	AppID       string
	AppSecret   string
	RedirectURI string
	BaseURL     string
	AuthBaseURL string
	HTTPClient  *http.Client
}

// OAuth implements the Meta authorization-code flow and the short-lived to
// long-lived token exchange.
type OAuth struct {
	appID       string
	appSecret   string
	redirectURI string
	baseURL     string
	authBaseURL string
	httpClient  *http.Client
	now         func() time.Time
}

// TokenResponse is the parsed result of a token endpoint call.
type TokenResponse struct {
	AccessToken string
	TokenType   string
	ExpiresIn   int64
}

// ExpiresAt converts the relative lifetime into an absolute instant,
// falling back to the documented long-lived lifetime when absent.
func (t *TokenResponse) ExpiresAt(now time.Time) time.Time {
	if t.ExpiresIn > 0 {
		return now.Add(time.Duration(t.ExpiresIn) * time.Second)
	}
	return now.Add(longLivedTokenTTL)
}

// NewOAuth constructs the flow helper.
func NewOAuth(opts OAuthOptions) *OAuth {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	authBaseURL := opts.AuthBaseURL
	if authBaseURL == "" {
		authBaseURL = defaultAuthBaseURL
	}
	return &OAuth{
		appID:       opts.AppID,
		appSecret:   opts.AppSecret,
		redirectURI: opts.RedirectURI,
		baseURL:     baseURL,
		authBaseURL: authBaseURL,
		httpClient:  httpClient,
		now:         time.Now,
	}
}

// Configured reports whether app credentials are present.
func (o *OAuth) Configured() bool {
	return o.appID != "" && o.appSecret != "" && o.redirectURI != ""
}

// AuthURL builds the consent URL the browser is redirected to.
func (o *OAuth) AuthURL(state string) string {
	params := url.Values{}
	params.Set("client_id", o.appID)
	params.Set("redirect_uri", o.redirectURI)
	params.Set("scope", strings.Join(oauthScopes, ","))
	params.Set("response_type", "code")
	if state != "" {
		params.Set("state", state)
	}
	return o.authBaseURL + "?" + params.Encode()
}

// ExchangeCode swaps an authorization code for a short-lived user token.
func (o *OAuth) ExchangeCode(ctx context.Context, code string) (*TokenResponse, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: empty authorization code", domain.ErrInvalidInput)
	}
	params := url.Values{}
	params.Set("client_id", o.appID)
	params.Set("client_secret", o.appSecret)
	params.Set("redirect_uri", o.redirectURI)
	params.Set("code", code)
	return o.tokenRequest(ctx, params)
}

// LongLivedToken upgrades a short-lived token to a long-lived one.
func (o *OAuth) LongLivedToken(ctx context.Context, shortLivedToken string) (*TokenResponse, error) {
	if shortLivedToken == "" {
		return nil, fmt.Errorf("%w: empty access token", domain.ErrInvalidInput)
	}
	params := url.Values{}
	params.Set("grant_type", "fb_exchange_token")
	params.Set("client_id", o.appID)
	params.Set("client_secret", o.appSecret)
	params.Set("fb_exchange_token", shortLivedToken)
	return o.tokenRequest(ctx, params)
}

func (o *OAuth) tokenRequest(ctx context.Context, params url.Values) (*TokenResponse, error) {
	endpoint := o.baseURL + "/oauth/access_token?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", domain.ErrProviderUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, parseAPIError(resp.StatusCode, body)
	}

	token, err := parseTokenResponse(resp.Header.Get("Content-Type"), body)
	if err != nil {
		return nil, err
	}
	if token.AccessToken == "" {
		return nil, &APIError{Message: "token response missing access_token"}
	}
	return token, nil
}

// parseTokenResponse handles both response shapes the token endpoint is
// known to produce: JSON and form-encoded key=value pairs.
func parseTokenResponse(contentType string, body []byte) (*TokenResponse, error) {
	trimmed := strings.TrimSpace(string(body))
	if strings.Contains(contentType, "application/json") || strings.HasPrefix(trimmed, "{") {
		var payload struct {
			AccessToken string `json:"access_token"`
			TokenType   string `json:"token_type"`
			ExpiresIn   int64  `json:"expires_in"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			return nil, fmt.Errorf("decode token response: %w", err)
		}
		return &TokenResponse{
			AccessToken: payload.AccessToken,
			TokenType:   payload.TokenType,
			ExpiresIn:   payload.ExpiresIn,
		}, nil
	}

	values, err := url.ParseQuery(trimmed)
	if err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	token := &TokenResponse{
		AccessToken: values.Get("access_token"),
		TokenType:   values.Get("token_type"),
	}
	if raw := values.Get("expires_in"); raw == "" {
		token.ExpiresIn = 0
	} else if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		token.ExpiresIn = n
	}
	return token, nil
}
