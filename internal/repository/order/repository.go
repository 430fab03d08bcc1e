package order

import (
	"context"
	"time"

	"healthmall/internal/domain"
	"github.com/shopspring/decimal"
)

// CreateInput is a validated cart snapshot ready to become an order.
type CreateInput struct {
	UserID          int64
	CompanyID       int64
	TotalAmount     decimal.Decimal
	ShippingType    domain.SamplingMethod
	ShippingAddress string
	ContactName     string
	ContactPhone    string
	Remark          string
	Province        string
	City            string
	District        string
	Lines           []LineInput
}

// LineInput freezes one cart line's price and quantity.
type LineInput struct {
	PackageID      int64
	PackageName    string
	UnitPrice      decimal.Decimal
	Quantity       int
	SamplerID      *int64
	SamplingMethod domain.SamplingMethod
}

// Repository persists orders. Create writes the order, its lines, and the
// cart clear as one transaction; the rest are guarded status updates.
type Repository interface {
	Create(ctx context.Context, in CreateInput) (*domain.Order, error)
	GetByID(ctx context.Context, orderID int64) (*domain.Order, error)
	GetByOrderNo(ctx context.Context, orderNo string) (*domain.Order, error)
	List(ctx context.Context, userID int64, status *domain.OrderStatus, page, size int) (domain.PageResult[domain.Order], error)
	Statistics(ctx context.Context, userID int64) (domain.OrderStatistics, error)

	// MarkPaid settles payment exactly once: the update is guarded on the
	// order not already being paid, so a raced duplicate callback is a
	// no-op.
	MarkPaid(ctx context.Context, orderID int64, tradeNo string, payTime time.Time) error
	MarkPayFailed(ctx context.Context, orderID int64) error
	Cancel(ctx context.Context, orderID int64, reason string) error
	Complete(ctx context.Context, orderID int64, from domain.OrderStatus) error
	SetSamplingStatus(ctx context.Context, orderID int64, status domain.SamplingStatus, appointmentID *int64) error
}
