package location

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"healthmall/internal/domain"
	"github.com/redis/go-redis/v9"
)

const cityCompanyKeyPrefix = "location:city:company:"
const cityCompanyTTL = time.Hour

// UserLocation is the user's registered region.
type UserLocation struct {
	Province string `json:"province"`
	City     string `json:"city"`
	District string `json:"district"`
}

// Client is a narrow HTTP client for the location collaborator. The
// city-to-company mapping changes rarely and is cached in redis.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      *redis.Client
}

func NewClient(baseURL string, timeout time.Duration, cache *redis.Client) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		cache:      cache,
	}
}

// NeedsLocation reports whether the user has no resolved region yet.
func (c *Client) NeedsLocation(ctx context.Context, userID int64) (bool, error) {
	var out struct {
		NeedSetLocation bool `json:"needSetLocation"`
	}
	if err := c.getJSON(ctx, fmt.Sprintf("/users/%d/location/status", userID), &out); err != nil {
		return false, err
	}
	return out.NeedSetLocation, nil
}

// UserLocation returns the user's registered region; ErrLocationRequired
// when none is set.
func (c *Client) UserLocation(ctx context.Context, userID int64) (*UserLocation, error) {
	var out UserLocation
	err := c.getJSON(ctx, fmt.Sprintf("/users/%d/location", userID), &out)
	if err != nil {
		return nil, err
	}
	if out.City == "" {
		return nil, domain.ErrLocationRequired
	}
	return &out, nil
}

// CompanyForCity resolves the fulfilling company for a city.
func (c *Client) CompanyForCity(ctx context.Context, city string) (int64, error) {
	cacheKey := cityCompanyKeyPrefix + city
	if c.cache != nil {
		if cached, err := c.cache.Get(ctx, cacheKey).Result(); err == nil {
			if companyID, err := strconv.ParseInt(cached, 10, 64); err == nil {
				return companyID, nil
			}
		}
	}

	var out struct {
		CompanyID int64 `json:"companyId"`
	}
	if err := c.getJSON(ctx, "/cities/"+url.PathEscape(city)+"/company", &out); err != nil {
		return 0, err
	}

	if c.cache != nil {
		c.cache.Set(ctx, cacheKey, strconv.FormatInt(out.CompanyID, 10), cityCompanyTTL)
	}
	return out.CompanyID, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domain.ErrLocationRequired
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("location service returned status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
