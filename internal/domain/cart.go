package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartLine is one (owner, package) entry with a quantity and sampling
// preference. User lines are keyed by their database row id; guest lines
// are keyed by the package id.
type CartLine struct {
	ID             string         `json:"id"`
	PackageID      int64          `json:"packageId"`
	Quantity       int            `json:"quantity"`
	SamplerID      *int64         `json:"samplerId,omitempty"`
	SamplingMethod SamplingMethod `json:"samplingMethod"`
	CreatedAt      time.Time      `json:"createdAt"`
}

// CartItem is a CartLine enriched with current catalog data. The price is
// the catalog's price at read time; only OrderLine freezes a price.
type CartItem struct {
	CartLine
	PackageName  string          `json:"packageName"`
	PackagePrice decimal.Decimal `json:"packagePrice"`
	Thumbnail    string          `json:"thumbnail,omitempty"`
	OnShelf      bool            `json:"onShelf"`
}

// CartStatus summarizes what the client should do before checkout.
type CartStatus struct {
	NeedLogin       bool   `json:"needLogin"`
	NeedSetLocation bool   `json:"needSetLocation"`
	ItemCount       int    `json:"itemCount"`
	Message         string `json:"message"`
	RedirectURL     string `json:"redirectUrl,omitempty"`
}
