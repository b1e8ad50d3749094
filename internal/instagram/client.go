package instagram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"postpilot/internal/domain"
	"postpilot/internal/infra"
)

// DefaultBaseURL is the Graph API root used for publish calls.
const DefaultBaseURL = "https://graph.facebook.com/v21.0"

const (
	defaultPollInterval    = 2 * time.Second
	defaultMaxPollAttempts = 30
)

// ClientOptions configures the publish client.
type ClientOptions struct {
	BaseURL         string
	HTTPClient      *http.Client
	Logger          *infra.Logger
	PollInterval    time.Duration
	MaxPollAttempts int
}

// Client wraps the Instagram content-publishing protocol: create a media
// container, wait for readiness, publish. It never refreshes tokens; an
// expired token is reported as an auth-expired failure before any call.
type Client struct {
	baseURL         string
	httpClient      *http.Client
	logger          *infra.Logger
	pollInterval    time.Duration
	maxPollAttempts int
	now             func() time.Time
}

// PublishRequest describes one post to publish.
type PublishRequest struct {
	IGUserID  string
	MediaKind domain.MediaType
	MediaURL  string
	Caption   string
}

// APIError is a structured Graph API failure. Unwrap exposes the matching
// domain sentinel so callers can classify with errors.Is.
type APIError struct {
	StatusCode int
	Code       int
	Subcode    int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("instagram: code=%d subcode=%d status=%d: %s", e.Code, e.Subcode, e.StatusCode, e.Message)
}

// Unwrap maps platform error codes onto the domain taxonomy. Permanent
// platform errors unwrap to nothing and are therefore not retryable.
func (e *APIError) Unwrap() error {
	switch {
	case e.Code == 190:
		if e.Subcode == 458 || e.Subcode == 460 {
			return domain.ErrAuthRevoked
		}
		return domain.ErrAuthExpired
	case e.Code == 102:
		return domain.ErrAuthExpired
	case e.Code == 4 || e.Code == 17 || e.Code == 32 || e.Code == 613:
		return domain.ErrRateLimited
	case e.StatusCode == http.StatusTooManyRequests:
		return domain.ErrRateLimited
	case e.StatusCode >= http.StatusInternalServerError:
		return domain.ErrProviderUnavailable
	default:
		return nil
	}
}

// NewClient constructs a publish client with sane defaults.
func NewClient(opts ClientOptions) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	maxPoll := opts.MaxPollAttempts
	if maxPoll <= 0 {
		maxPoll = defaultMaxPollAttempts
	}
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &Client{
		baseURL:         baseURL,
		httpClient:      httpClient,
		logger:          logger,
		pollInterval:    pollInterval,
		maxPollAttempts: maxPoll,
		now:             time.Now,
	}
}

// Publish runs the two-phase publish protocol and returns the platform post
// identifier. Token expiry is checked locally first: an expired token fails
// with auth-expired without touching the container endpoint.
func (c *Client) Publish(ctx context.Context, token *domain.OAuthToken, req PublishRequest) (*domain.PublishResult, error) {
	if token == nil || token.AccessToken == "" {
		return nil, fmt.Errorf("%w: no access token", domain.ErrAuthExpired)
	}
	if token.Expired(c.now()) {
		return nil, fmt.Errorf("%w: token for account %s expired at %s", domain.ErrAuthExpired, token.IGUserID, token.ExpiresAt.Format(time.RFC3339))
	}
	if req.IGUserID == "" || req.MediaURL == "" {
		return nil, fmt.Errorf("%w: ig user id and media url are required", domain.ErrInvalidInput)
	}

	containerID, err := c.createContainer(ctx, token.AccessToken, req)
	if err != nil {
		return nil, err
	}

	if req.MediaKind == domain.MediaTypeVideo {
		if err := c.waitForContainer(ctx, token.AccessToken, containerID); err != nil {
			return nil, err
		}
	}

	postID, err := c.publishContainer(ctx, token.AccessToken, req.IGUserID, containerID)
	if err != nil {
		return nil, err
	}

	c.logger.Info().
		Str("ig_user_id", req.IGUserID).
		Str("container_id", containerID).
		Str("post_id", postID).
		Msg("instagram: published post")

	return &domain.PublishResult{PostID: postID, ContainerID: containerID}, nil
}

func (c *Client) createContainer(ctx context.Context, accessToken string, req PublishRequest) (string, error) {
	form := url.Values{}
	form.Set("caption", req.Caption)
	if req.MediaKind == domain.MediaTypeVideo {
		form.Set("media_type", "VIDEO")
		form.Set("video_url", req.MediaURL)
	} else {
		form.Set("image_url", req.MediaURL)
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := c.post(ctx, accessToken, req.IGUserID+"/media", form, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", &APIError{Message: "container response missing id"}
	}
	return out.ID, nil
}

// waitForContainer polls the container until it is ready to publish. A
// container that never settles within the attempt budget is reported as a
// transient failure.
func (c *Client) waitForContainer(ctx context.Context, accessToken, containerID string) error {
	for attempt := 0; attempt < c.maxPollAttempts; attempt++ {
		var out struct {
			StatusCode string `json:"status_code"`
		}
		if err := c.get(ctx, accessToken, containerID, url.Values{"fields": {"status_code"}}, &out); err != nil {
			return err
		}
		switch out.StatusCode {
		case "FINISHED":
			return nil
		case "ERROR", "EXPIRED":
			return &APIError{Message: fmt.Sprintf("container %s entered state %s", containerID, out.StatusCode)}
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: container wait interrupted: %v", domain.ErrProviderUnavailable, ctx.Err())
		case <-time.After(c.pollInterval):
		}
	}
	return fmt.Errorf("%w: container %s not ready after %d checks", domain.ErrProviderUnavailable, containerID, c.maxPollAttempts)
}

func (c *Client) publishContainer(ctx context.Context, accessToken, igUserID, containerID string) (string, error) {
	form := url.Values{}
	form.Set("creation_id", containerID)

	var out struct {
		ID string `json:"id"`
	}
	if err := c.post(ctx, accessToken, igUserID+"/media_publish", form, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", &APIError{Message: "publish response missing id"}
	}
	return out.ID, nil
}

// UserInfo identifies the account behind an access token.
type UserInfo struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

// GetUserInfo resolves the account for an access token.
func (c *Client) GetUserInfo(ctx context.Context, accessToken string) (*UserInfo, error) {
	var out UserInfo
	if err := c.get(ctx, accessToken, "me", url.Values{"fields": {"id,name"}}, &out); err != nil {
		return nil, err
	}
	if out.ID == "" {
		return nil, &APIError{Message: "user info response missing id"}
	}
	return &out, nil
}

func (c *Client) post(ctx context.Context, accessToken, endpoint string, form url.Values, out any) error {
	form.Set("access_token", accessToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, accessToken, endpoint string, params url.Values, out any) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("access_token", accessToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: read response: %v", domain.ErrProviderUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		return parseAPIError(resp.StatusCode, body)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func parseAPIError(statusCode int, body []byte) error {
	var payload struct {
		Error struct {
			Message string `json:"message"`
			Code    int    `json:"code"`
			Subcode int    `json:"error_subcode"`
		} `json:"error"`
	}
	apiErr := &APIError{StatusCode: statusCode}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error.Message != "" {
		apiErr.Code = payload.Error.Code
		apiErr.Subcode = payload.Error.Subcode
		apiErr.Message = payload.Error.Message
	} else {
		apiErr.Message = strings.TrimSpace(string(body))
	}
	return apiErr
}
