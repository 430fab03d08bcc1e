package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrInvalidToken means the bearer token did not resolve to a user.
var ErrInvalidToken = errors.New("invalid token")

// Client resolves bearer tokens to user ids via the identity collaborator.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// CurrentUser returns the user id the token belongs to.
func (c *Client) CurrentUser(ctx context.Context, token string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/me", nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return 0, ErrInvalidToken
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("identity service returned status %d", resp.StatusCode)
	}

	var out struct {
		UserID int64 `json:"userId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, err
	}
	if out.UserID <= 0 {
		return 0, ErrInvalidToken
	}
	return out.UserID, nil
}
