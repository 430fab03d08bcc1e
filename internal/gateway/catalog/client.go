package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"healthmall/internal/domain"
	"github.com/shopspring/decimal"
)

// Package is the catalog collaborator's view of a test package.
type Package struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Thumbnail string          `json:"thumbnail"`
	OnShelf   bool            `json:"onShelf"`
}

// Client is a narrow HTTP client for the package catalog.
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

// Package fetches the current catalog entry. A missing or delisted package
// maps to ErrPackageUnavailable naming the package.
func (c *Client) Package(ctx context.Context, id int64) (*Package, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/packages/%d", c.baseURL, id), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		return nil, &domain.PackageUnavailableError{PackageID: id}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog returned status %d", resp.StatusCode)
	}

	var pkg Package
	if err := json.NewDecoder(resp.Body).Decode(&pkg); err != nil {
		return nil, err
	}
	if !pkg.OnShelf {
		return nil, &domain.PackageUnavailableError{PackageID: id}
	}
	return &pkg, nil
}
