package order

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"healthmall/internal/domain"
	"healthmall/internal/gateway/catalog"
	"healthmall/internal/gateway/location"
	cartrepo "healthmall/internal/repository/cart"
	orderrepo "healthmall/internal/repository/order"
	"github.com/shopspring/decimal"
)

type stubRepo struct {
	created      *orderrepo.CreateInput
	createOrder  *domain.Order
	createErr    error
	byID         *domain.Order
	byIDErr      error
	byOrderNo    *domain.Order
	byOrderNoErr error
	markedPaid   bool
	paidTradeNo  string
	payFailed    bool
	cancelled    bool
	cancelReason string
	completed    bool
	completeFrom domain.OrderStatus
	sampling     *domain.SamplingStatus
	appointment  *int64
}

func (s *stubRepo) Create(_ context.Context, in orderrepo.CreateInput) (*domain.Order, error) {
	s.created = &in
	return s.createOrder, s.createErr
}

func (s *stubRepo) GetByID(_ context.Context, _ int64) (*domain.Order, error) {
	return s.byID, s.byIDErr
}

func (s *stubRepo) GetByOrderNo(_ context.Context, _ string) (*domain.Order, error) {
	return s.byOrderNo, s.byOrderNoErr
}

func (s *stubRepo) List(_ context.Context, _ int64, _ *domain.OrderStatus, page, size int) (domain.PageResult[domain.Order], error) {
	return domain.PageResult[domain.Order]{Page: page, Size: size}, nil
}

func (s *stubRepo) Statistics(_ context.Context, _ int64) (domain.OrderStatistics, error) {
	return domain.OrderStatistics{}, nil
}

func (s *stubRepo) MarkPaid(_ context.Context, _ int64, tradeNo string, _ time.Time) error {
	s.markedPaid = true
	s.paidTradeNo = tradeNo
	return nil
}

func (s *stubRepo) MarkPayFailed(_ context.Context, _ int64) error {
	s.payFailed = true
	return nil
}

func (s *stubRepo) Cancel(_ context.Context, _ int64, reason string) error {
	s.cancelled = true
	s.cancelReason = reason
	return nil
}

func (s *stubRepo) Complete(_ context.Context, _ int64, from domain.OrderStatus) error {
	s.completed = true
	s.completeFrom = from
	return nil
}

func (s *stubRepo) SetSamplingStatus(_ context.Context, _ int64, status domain.SamplingStatus, appointmentID *int64) error {
	s.sampling = &status
	s.appointment = appointmentID
	return nil
}

type stubCartStore struct {
	lines   []domain.CartLine
	cleared bool
}

func (s *stubCartStore) Lines(_ context.Context, _ string) ([]domain.CartLine, error) {
	return s.lines, nil
}

func (s *stubCartStore) Upsert(_ context.Context, _ string, _ cartrepo.UpsertInput) error {
	return nil
}

func (s *stubCartStore) Update(_ context.Context, _, _ string, _ cartrepo.UpdateInput) error {
	return nil
}

func (s *stubCartStore) Remove(_ context.Context, _, _ string) error { return nil }

func (s *stubCartStore) RemoveMany(_ context.Context, _ string, _ []string) error { return nil }

func (s *stubCartStore) Clear(_ context.Context, _ string) error {
	s.cleared = true
	return nil
}

func (s *stubCartStore) Count(_ context.Context, _ string) (int, error) {
	return len(s.lines), nil
}

type stubCatalog struct {
	packages map[int64]*catalog.Package
}

func (s *stubCatalog) Package(_ context.Context, id int64) (*catalog.Package, error) {
	pkg, ok := s.packages[id]
	if !ok {
		return nil, &domain.PackageUnavailableError{PackageID: id}
	}
	return pkg, nil
}

type stubLocation struct {
	needsLocation bool
	loc           *location.UserLocation
	companyID     int64
	companyErr    error
}

func (s *stubLocation) NeedsLocation(_ context.Context, _ int64) (bool, error) {
	return s.needsLocation, nil
}

func (s *stubLocation) UserLocation(_ context.Context, _ int64) (*location.UserLocation, error) {
	if s.loc == nil {
		return nil, domain.ErrLocationRequired
	}
	return s.loc, nil
}

func (s *stubLocation) CompanyForCity(_ context.Context, _ string) (int64, error) {
	return s.companyID, s.companyErr
}

func logDiscard() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func checkoutFixture() (*stubRepo, *stubCartStore, *stubCatalog, *stubLocation) {
	repo := &stubRepo{
		createOrder: &domain.Order{ID: 1, OrderNo: "ORD20260830120000ABCDEF", UserID: 7},
	}
	carts := &stubCartStore{lines: []domain.CartLine{
		{ID: "1", PackageID: 1, Quantity: 1, SamplingMethod: domain.SamplingSelf},
		{ID: "2", PackageID: 2, Quantity: 3, SamplingMethod: domain.SamplingPickup},
	}}
	cat := &stubCatalog{packages: map[int64]*catalog.Package{
		1: {ID: 1, Name: "Basic Panel", Price: decimal.RequireFromString("100.00"), OnShelf: true},
		2: {ID: 2, Name: "Thyroid Panel", Price: decimal.RequireFromString("50.00"), OnShelf: true},
	}}
	loc := &stubLocation{
		loc:       &location.UserLocation{Province: "Guangdong", City: "Shenzhen", District: "Nanshan"},
		companyID: 42,
	}
	return repo, carts, cat, loc
}

func TestCreateFreezesPricesAndTotals(t *testing.T) {
	repo, carts, cat, loc := checkoutFixture()
	svc := New(repo, carts, cat, loc, logDiscard())

	order, err := svc.Create(context.Background(), 7, CreateInput{
		ShippingType: domain.SamplingSelf,
		ContactName:  "Zhang Wei",
		ContactPhone: "13800000000",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if order.OrderNo == "" {
		t.Fatal("expected an order back")
	}

	in := repo.created
	if in == nil {
		t.Fatal("repo was never called")
	}
	if !in.TotalAmount.Equal(decimal.RequireFromString("250.00")) {
		t.Fatalf("expected total 250.00, got %s", in.TotalAmount)
	}
	if in.CompanyID != 42 {
		t.Fatalf("expected company 42, got %d", in.CompanyID)
	}
	if in.City != "Shenzhen" {
		t.Fatalf("expected city snapshot, got %s", in.City)
	}
	if len(in.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(in.Lines))
	}
	if !in.Lines[1].UnitPrice.Equal(decimal.RequireFromString("50.00")) || in.Lines[1].Quantity != 3 {
		t.Fatalf("second line should freeze price and quantity, got %+v", in.Lines[1])
	}
}

func TestCreateEmptyCart(t *testing.T) {
	repo, _, cat, loc := checkoutFixture()
	svc := New(repo, &stubCartStore{}, cat, loc, logDiscard())

	_, err := svc.Create(context.Background(), 7, CreateInput{
		ShippingType: domain.SamplingSelf, ContactName: "a", ContactPhone: "b",
	})
	if !errors.Is(err, domain.ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}
}

func TestCreateLocationRequired(t *testing.T) {
	repo, carts, cat, loc := checkoutFixture()
	loc.needsLocation = true
	svc := New(repo, carts, cat, loc, logDiscard())

	_, err := svc.Create(context.Background(), 7, CreateInput{
		ShippingType: domain.SamplingSelf, ContactName: "a", ContactPhone: "b",
	})
	if !errors.Is(err, domain.ErrLocationRequired) {
		t.Fatalf("expected ErrLocationRequired, got %v", err)
	}
	if repo.created != nil {
		t.Fatal("no order should be created")
	}
}

func TestCreateAbortsOnDelistedPackage(t *testing.T) {
	repo, carts, cat, loc := checkoutFixture()
	delete(cat.packages, 2)
	svc := New(repo, carts, cat, loc, logDiscard())

	_, err := svc.Create(context.Background(), 7, CreateInput{
		ShippingType: domain.SamplingSelf, ContactName: "a", ContactPhone: "b",
	})
	if !errors.Is(err, domain.ErrPackageUnavailable) {
		t.Fatalf("expected ErrPackageUnavailable, got %v", err)
	}
	var unavailable *domain.PackageUnavailableError
	if !errors.As(err, &unavailable) || unavailable.PackageID != 2 {
		t.Fatalf("error should name the package, got %v", err)
	}
	if repo.created != nil {
		t.Fatal("no order should be created")
	}
}

func TestCreateRepoFailureMasked(t *testing.T) {
	repo, carts, cat, loc := checkoutFixture()
	repo.createOrder = nil
	repo.createErr = errors.New("pq: deadlock detected")
	svc := New(repo, carts, cat, loc, logDiscard())

	_, err := svc.Create(context.Background(), 7, CreateInput{
		ShippingType: domain.SamplingSelf, ContactName: "a", ContactPhone: "b",
	})
	if !errors.Is(err, domain.ErrOrderCreationFailed) {
		t.Fatalf("expected ErrOrderCreationFailed, got %v", err)
	}
}

func TestCreateValidatesContact(t *testing.T) {
	repo, carts, cat, loc := checkoutFixture()
	svc := New(repo, carts, cat, loc, logDiscard())

	if _, err := svc.Create(context.Background(), 7, CreateInput{ShippingType: domain.SamplingSelf, ContactPhone: "b"}); err == nil {
		t.Fatal("expected error for missing contact name")
	}
	if _, err := svc.Create(context.Background(), 7, CreateInput{ShippingType: domain.SamplingSelf, ContactName: "a"}); err == nil {
		t.Fatal("expected error for missing contact phone")
	}
}

func TestGetEnforcesOwnership(t *testing.T) {
	repo := &stubRepo{byID: &domain.Order{ID: 1, UserID: 8}}
	svc := New(repo, &stubCartStore{}, &stubCatalog{}, &stubLocation{}, logDiscard())

	_, err := svc.Get(context.Background(), 7, 1)
	if !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound for foreign order, got %v", err)
	}
}

func TestListClampsPaging(t *testing.T) {
	repo := &stubRepo{}
	svc := New(repo, &stubCartStore{}, &stubCatalog{}, &stubLocation{}, logDiscard())

	result, err := svc.List(context.Background(), 7, nil, 0, 1000)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if result.Page != 1 || result.Size != 10 {
		t.Fatalf("expected clamped paging 1/10, got %d/%d", result.Page, result.Size)
	}
}

func TestListRejectsUnknownStatusCode(t *testing.T) {
	svc := New(&stubRepo{}, &stubCartStore{}, &stubCatalog{}, &stubLocation{}, logDiscard())
	code := 99
	if _, err := svc.List(context.Background(), 7, &code, 1, 10); err == nil {
		t.Fatal("expected error for unknown status code")
	}
}

func TestPaymentSuccess(t *testing.T) {
	repo := &stubRepo{byOrderNo: &domain.Order{
		ID: 1, OrderNo: "ORD1", Status: domain.OrderPendingPayment, PayStatus: domain.PayPending,
	}}
	svc := New(repo, &stubCartStore{}, &stubCatalog{}, &stubLocation{}, logDiscard())

	if err := svc.PaymentSuccess(context.Background(), "ORD1", "TRADE123"); err != nil {
		t.Fatalf("payment success: %v", err)
	}
	if !repo.markedPaid || repo.paidTradeNo != "TRADE123" {
		t.Fatalf("expected MarkPaid with trade no, got %+v", repo)
	}
}

func TestPaymentSuccessIdempotent(t *testing.T) {
	repo := &stubRepo{byOrderNo: &domain.Order{
		ID: 1, Status: domain.OrderPendingShipment, PayStatus: domain.PayPaid,
	}}
	svc := New(repo, &stubCartStore{}, &stubCatalog{}, &stubLocation{}, logDiscard())

	if err := svc.PaymentSuccess(context.Background(), "ORD1", "TRADE999"); err != nil {
		t.Fatalf("repeat callback should succeed silently, got %v", err)
	}
	if repo.markedPaid {
		t.Fatal("already-paid order must not be marked again")
	}
}

func TestPaymentSuccessRejectsCancelledOrder(t *testing.T) {
	repo := &stubRepo{byOrderNo: &domain.Order{
		ID: 1, Status: domain.OrderCancelled, PayStatus: domain.PayPending,
	}}
	svc := New(repo, &stubCartStore{}, &stubCatalog{}, &stubLocation{}, logDiscard())

	err := svc.PaymentSuccess(context.Background(), "ORD1", "TRADE123")
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestPaymentFailure(t *testing.T) {
	repo := &stubRepo{byOrderNo: &domain.Order{
		ID: 1, Status: domain.OrderPendingPayment, PayStatus: domain.PayPending,
	}}
	svc := New(repo, &stubCartStore{}, &stubCatalog{}, &stubLocation{}, logDiscard())

	if err := svc.PaymentFailure(context.Background(), "ORD1", "insufficient funds"); err != nil {
		t.Fatalf("payment failure: %v", err)
	}
	if !repo.payFailed {
		t.Fatal("expected MarkPayFailed")
	}
}

func TestCancelMatrix(t *testing.T) {
	cases := []struct {
		status  domain.OrderStatus
		allowed bool
	}{
		{domain.OrderPendingPayment, true},
		{domain.OrderPaid, true},
		{domain.OrderPendingShipment, true},
		{domain.OrderShipped, false},
		{domain.OrderCompleted, false},
		{domain.OrderCancelled, false},
	}
	for _, tc := range cases {
		repo := &stubRepo{byID: &domain.Order{ID: 1, UserID: 7, Status: tc.status}}
		svc := New(repo, &stubCartStore{}, &stubCatalog{}, &stubLocation{}, logDiscard())

		err := svc.Cancel(context.Background(), 7, 1, "changed my mind")
		if tc.allowed {
			if err != nil {
				t.Fatalf("cancel from %s: %v", tc.status, err)
			}
			if !repo.cancelled || repo.cancelReason != "changed my mind" {
				t.Fatalf("expected repo cancel from %s", tc.status)
			}
		} else {
			if !errors.Is(err, domain.ErrInvalidTransition) {
				t.Fatalf("cancel from %s should fail, got %v", tc.status, err)
			}
		}
	}
}

func TestConfirmReceiptShipped(t *testing.T) {
	repo := &stubRepo{byID: &domain.Order{ID: 1, UserID: 7, Status: domain.OrderShipped}}
	svc := New(repo, &stubCartStore{}, &stubCatalog{}, &stubLocation{}, logDiscard())

	if err := svc.ConfirmReceipt(context.Background(), 7, 1); err != nil {
		t.Fatalf("confirm receipt: %v", err)
	}
	if !repo.completed || repo.completeFrom != domain.OrderShipped {
		t.Fatalf("expected completion from SHIPPED, got %+v", repo)
	}
}

func TestConfirmReceiptPickupFlow(t *testing.T) {
	repo := &stubRepo{byID: &domain.Order{
		ID: 1, UserID: 7,
		Status:         domain.OrderPendingShipment,
		ShippingType:   domain.SamplingPickup,
		SamplingStatus: domain.SamplingShipped,
	}}
	svc := New(repo, &stubCartStore{}, &stubCatalog{}, &stubLocation{}, logDiscard())

	if err := svc.ConfirmReceipt(context.Background(), 7, 1); err != nil {
		t.Fatalf("confirm receipt: %v", err)
	}
	if !repo.completed || repo.completeFrom != domain.OrderPendingShipment {
		t.Fatalf("expected completion from PENDING_SHIPMENT, got %+v", repo)
	}
}

func TestConfirmReceiptRejectsUnshipped(t *testing.T) {
	repo := &stubRepo{byID: &domain.Order{ID: 1, UserID: 7, Status: domain.OrderPaid}}
	svc := New(repo, &stubCartStore{}, &stubCatalog{}, &stubLocation{}, logDiscard())

	err := svc.ConfirmReceipt(context.Background(), 7, 1)
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestSetAppointment(t *testing.T) {
	repo := &stubRepo{byID: &domain.Order{
		ID: 1, UserID: 7,
		Status:         domain.OrderPendingShipment,
		PayStatus:      domain.PayPaid,
		SamplingStatus: domain.SamplingAwaiting,
	}}
	svc := New(repo, &stubCartStore{}, &stubCatalog{}, &stubLocation{}, logDiscard())

	if err := svc.SetAppointment(context.Background(), 7, 1, 99); err != nil {
		t.Fatalf("set appointment: %v", err)
	}
	if repo.sampling == nil || *repo.sampling != domain.SamplingAppointmentSet {
		t.Fatalf("expected sampling APPOINTMENT_SET, got %v", repo.sampling)
	}
	if repo.appointment == nil || *repo.appointment != 99 {
		t.Fatalf("expected appointment id 99, got %v", repo.appointment)
	}
}

func TestSetAppointmentRequiresPayment(t *testing.T) {
	repo := &stubRepo{byID: &domain.Order{
		ID: 1, UserID: 7,
		Status:         domain.OrderPendingPayment,
		PayStatus:      domain.PayPending,
		SamplingStatus: domain.SamplingAwaiting,
	}}
	svc := New(repo, &stubCartStore{}, &stubCatalog{}, &stubLocation{}, logDiscard())

	if err := svc.SetAppointment(context.Background(), 7, 1, 99); err == nil {
		t.Fatal("expected error for unpaid order")
	}
}

func TestAdvanceSamplingSingleStep(t *testing.T) {
	repo := &stubRepo{byID: &domain.Order{ID: 1, SamplingStatus: domain.SamplingAppointmentSet}}
	svc := New(repo, &stubCartStore{}, &stubCatalog{}, &stubLocation{}, logDiscard())

	if err := svc.AdvanceSampling(context.Background(), 1, domain.SamplingSampled); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if repo.sampling == nil || *repo.sampling != domain.SamplingSampled {
		t.Fatalf("expected SAMPLED, got %v", repo.sampling)
	}
}

func TestAdvanceSamplingRejectsSkips(t *testing.T) {
	repo := &stubRepo{byID: &domain.Order{ID: 1, SamplingStatus: domain.SamplingAwaiting}}
	svc := New(repo, &stubCartStore{}, &stubCatalog{}, &stubLocation{}, logDiscard())

	if err := svc.AdvanceSampling(context.Background(), 1, domain.SamplingShipped); err == nil {
		t.Fatal("expected error when skipping sampling steps")
	}
}
