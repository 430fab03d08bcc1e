package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is created once from a non-empty cart and only ever transitioned
// afterwards; it is never deleted. CompanyID is resolved from the user's
// location at creation and immutable from then on.
type Order struct {
	ID              int64           `json:"id"`
	OrderNo         string          `json:"orderNo"`
	UserID          int64           `json:"userId"`
	CompanyID       int64           `json:"companyId"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	PaidAmount      decimal.Decimal `json:"paidAmount"`
	Status          OrderStatus     `json:"status"`
	PayStatus       PayStatus       `json:"payStatus"`
	SamplingStatus  SamplingStatus  `json:"samplingStatus"`
	PayType         string          `json:"payType,omitempty"`
	PayTime         *time.Time      `json:"payTime,omitempty"`
	TradeNo         string          `json:"tradeNo,omitempty"`
	ShippingType    SamplingMethod  `json:"shippingType"`
	ShippingAddress string          `json:"shippingAddress,omitempty"`
	ContactName     string          `json:"contactName"`
	ContactPhone    string          `json:"contactPhone"`
	Remark          string          `json:"remark,omitempty"`
	Province        string          `json:"province"`
	City            string          `json:"city"`
	District        string          `json:"district"`
	AppointmentID   *int64          `json:"appointmentId,omitempty"`
	CancelReason    string          `json:"cancelReason,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	Lines           []OrderLine     `json:"items,omitempty"`
}

// OrderLine is an immutable snapshot of a cart line at checkout. UnitPrice
// is frozen at order creation and does not follow later catalog changes.
type OrderLine struct {
	ID             int64           `json:"id"`
	OrderID        int64           `json:"orderId"`
	PackageID      int64           `json:"packageId"`
	PackageName    string          `json:"packageName"`
	UnitPrice      decimal.Decimal `json:"unitPrice"`
	Quantity       int             `json:"quantity"`
	SamplerID      *int64          `json:"samplerId,omitempty"`
	SamplingMethod SamplingMethod  `json:"samplingMethod"`
}

// OrderStatistics counts a user's orders per status bucket.
type OrderStatistics struct {
	PendingPayment  int64 `json:"pendingPayment"`
	PendingShipment int64 `json:"pendingShipment"`
	Shipped         int64 `json:"shipped"`
	Completed       int64 `json:"completed"`
	Cancelled       int64 `json:"cancelled"`
}

// PageResult is a page of results with the total row count.
type PageResult[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Size  int   `json:"size"`
}
