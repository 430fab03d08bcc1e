package order

import (
	"context"
	"fmt"
	"log"
	"time"

	"healthmall/internal/domain"
	"healthmall/internal/gateway/catalog"
	"healthmall/internal/gateway/location"
	cartrepo "healthmall/internal/repository/cart"
	orderrepo "healthmall/internal/repository/order"
	"github.com/shopspring/decimal"
)

type catalogGateway interface {
	Package(ctx context.Context, id int64) (*catalog.Package, error)
}

type locationGateway interface {
	NeedsLocation(ctx context.Context, userID int64) (bool, error)
	UserLocation(ctx context.Context, userID int64) (*location.UserLocation, error)
	CompanyForCity(ctx context.Context, city string) (int64, error)
}

// Service turns carts into orders and drives order status transitions.
type Service struct {
	repo     orderrepo.Repository
	carts    cartrepo.Store
	catalog  catalogGateway
	location locationGateway
	logger   *log.Logger
}

func New(repo orderrepo.Repository, userCarts cartrepo.Store, catalogGw catalogGateway, locationGw locationGateway, logger *log.Logger) *Service {
	return &Service{
		repo:     repo,
		carts:    userCarts,
		catalog:  catalogGw,
		location: locationGw,
		logger:   logger,
	}
}

// CreateInput carries the checkout request fields.
type CreateInput struct {
	ShippingType    domain.SamplingMethod
	ShippingAddress string
	ContactName     string
	ContactPhone    string
	Remark          string
}

// Create converts the user's cart into an order. Prices are fetched from
// the catalog at this instant and frozen onto the order lines; the order,
// its lines, and the cart clear commit atomically or not at all.
func (s *Service) Create(ctx context.Context, userID int64, in CreateInput) (*domain.Order, error) {
	if in.ContactName == "" {
		return nil, fmt.Errorf("contact name required")
	}
	if in.ContactPhone == "" {
		return nil, fmt.Errorf("contact phone required")
	}

	needsLocation, err := s.location.NeedsLocation(ctx, userID)
	if err != nil {
		return nil, err
	}
	if needsLocation {
		return nil, domain.ErrLocationRequired
	}

	userKey := domain.UserActor(userID).OwnerKey()
	lines, err := s.carts.Lines(ctx, userKey)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, domain.ErrEmptyCart
	}

	total := decimal.Zero
	orderLines := make([]orderrepo.LineInput, 0, len(lines))
	for _, line := range lines {
		pkg, err := s.catalog.Package(ctx, line.PackageID)
		if err != nil {
			return nil, err
		}
		total = total.Add(pkg.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
		orderLines = append(orderLines, orderrepo.LineInput{
			PackageID:      line.PackageID,
			PackageName:    pkg.Name,
			UnitPrice:      pkg.Price,
			Quantity:       line.Quantity,
			SamplerID:      line.SamplerID,
			SamplingMethod: line.SamplingMethod,
		})
	}

	loc, err := s.location.UserLocation(ctx, userID)
	if err != nil {
		return nil, err
	}
	companyID, err := s.location.CompanyForCity(ctx, loc.City)
	if err != nil {
		return nil, err
	}

	order, err := s.repo.Create(ctx, orderrepo.CreateInput{
		UserID:          userID,
		CompanyID:       companyID,
		TotalAmount:     total,
		ShippingType:    in.ShippingType,
		ShippingAddress: in.ShippingAddress,
		ContactName:     in.ContactName,
		ContactPhone:    in.ContactPhone,
		Remark:          in.Remark,
		Province:        loc.Province,
		City:            loc.City,
		District:        loc.District,
		Lines:           orderLines,
	})
	if err != nil {
		s.logger.Printf("create order for user %d failed: %v", userID, err)
		return nil, domain.ErrOrderCreationFailed
	}

	s.logger.Printf("created order %s for user %d, amount %s", order.OrderNo, userID, order.TotalAmount)
	return order, nil
}

// Get returns one of the user's orders with its lines.
func (s *Service) Get(ctx context.Context, userID, orderID int64) (*domain.Order, error) {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, domain.ErrOrderNotFound
	}
	return order, nil
}

// List pages through the user's orders, newest first, optionally filtered
// by a numeric status code.
func (s *Service) List(ctx context.Context, userID int64, statusCode *int, page, size int) (domain.PageResult[domain.Order], error) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 10
	}
	var status *domain.OrderStatus
	if statusCode != nil {
		resolved, err := domain.OrderStatusFromCode(*statusCode)
		if err != nil {
			return domain.PageResult[domain.Order]{}, err
		}
		status = &resolved
	}
	return s.repo.List(ctx, userID, status, page, size)
}

// Statistics counts the user's orders per status bucket.
func (s *Service) Statistics(ctx context.Context, userID int64) (domain.OrderStatistics, error) {
	return s.repo.Statistics(ctx, userID)
}

// PaymentSuccess settles payment for the order behind paymentNo. A repeat
// callback for an already-paid order is swallowed as success: the pay time
// and trade number of the first settlement stand.
func (s *Service) PaymentSuccess(ctx context.Context, paymentNo, tradeNo string) error {
	order, err := s.repo.GetByOrderNo(ctx, paymentNo)
	if err != nil {
		return err
	}
	if order.PayStatus == domain.PayPaid {
		return nil
	}
	if !order.Status.CanTransitionTo(domain.OrderPendingShipment) {
		return &domain.InvalidTransitionError{From: order.Status, To: domain.OrderPendingShipment}
	}
	if err := s.repo.MarkPaid(ctx, order.ID, tradeNo, time.Now().UTC()); err != nil {
		return err
	}
	s.logger.Printf("order %s paid, trade no %s", order.OrderNo, tradeNo)
	return nil
}

// PaymentFailure records a failed payment attempt. The order status is left
// untouched so the user can retry; cancelling expired orders is the payment
// window scheduler's call, not ours.
func (s *Service) PaymentFailure(ctx context.Context, paymentNo, reason string) error {
	order, err := s.repo.GetByOrderNo(ctx, paymentNo)
	if err != nil {
		return err
	}
	if order.PayStatus == domain.PayPaid {
		return nil
	}
	if err := s.repo.MarkPayFailed(ctx, order.ID); err != nil {
		return err
	}
	s.logger.Printf("order %s payment failed: %s", order.OrderNo, reason)
	return nil
}

// Cancel moves an order to CANCELLED when the transition table allows it.
func (s *Service) Cancel(ctx context.Context, userID, orderID int64, reason string) error {
	order, err := s.Get(ctx, userID, orderID)
	if err != nil {
		return err
	}
	if !order.Status.CanTransitionTo(domain.OrderCancelled) {
		return &domain.InvalidTransitionError{From: order.Status, To: domain.OrderCancelled}
	}
	return s.repo.Cancel(ctx, orderID, reason)
}

// ConfirmReceipt completes a shipped order. Pickup-flow orders complete
// once the collected sample has been sent to the lab.
func (s *Service) ConfirmReceipt(ctx context.Context, userID, orderID int64) error {
	order, err := s.Get(ctx, userID, orderID)
	if err != nil {
		return err
	}
	switch {
	case order.Status == domain.OrderShipped:
		return s.repo.Complete(ctx, orderID, domain.OrderShipped)
	case order.ShippingType == domain.SamplingPickup &&
		order.Status == domain.OrderPendingShipment &&
		order.SamplingStatus == domain.SamplingShipped:
		return s.repo.Complete(ctx, orderID, domain.OrderPendingShipment)
	default:
		return &domain.InvalidTransitionError{From: order.Status, To: domain.OrderCompleted}
	}
}

// SetAppointment books the at-home sampling visit for a paid order.
func (s *Service) SetAppointment(ctx context.Context, userID, orderID, appointmentID int64) error {
	order, err := s.Get(ctx, userID, orderID)
	if err != nil {
		return err
	}
	if order.Status.Terminal() || order.PayStatus != domain.PayPaid {
		return &domain.InvalidTransitionError{From: order.Status, To: order.Status}
	}
	if order.SamplingStatus != domain.SamplingAwaiting {
		return fmt.Errorf("sampling already %s", order.SamplingStatus)
	}
	return s.repo.SetSamplingStatus(ctx, orderID, domain.SamplingAppointmentSet, &appointmentID)
}

// AdvanceSampling moves the sampling axis one step forward; logistics
// callbacks drive it through SAMPLED and SHIPPED.
func (s *Service) AdvanceSampling(ctx context.Context, orderID int64, to domain.SamplingStatus) error {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	next, ok := order.SamplingStatus.Next()
	if !ok || next != to {
		return fmt.Errorf("sampling cannot move from %s to %s", order.SamplingStatus, to)
	}
	return s.repo.SetSamplingStatus(ctx, orderID, to, nil)
}
