package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"healthmall/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// orderNoRetries bounds regeneration after an order-number collision. The
// time-plus-random scheme is not globally unique; the unique index is.
const orderNoRetries = 3

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) Create(ctx context.Context, in CreateInput) (*domain.Order, error) {
	var lastErr error
	for attempt := 0; attempt < orderNoRetries; attempt++ {
		order, err := r.createOnce(ctx, in, NewOrderNo())
		if err == nil {
			return order, nil
		}
		if !errors.Is(err, domain.ErrDuplicateOrderNo) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

// createOnce runs the three checkout writes in one transaction: the order
// insert, the line inserts, and the cart clear. Any failure rolls all of
// them back.
func (r *postgresRepo) createOnce(ctx context.Context, in CreateInput, orderNo string) (*domain.Order, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	const insertOrder = `
INSERT INTO orders (order_no, user_id, company_id, total_amount, paid_amount,
                    status, pay_status, sampling_status, shipping_type,
                    shipping_address, contact_name, contact_phone, remark,
                    province, city, district)
VALUES ($1, $2, $3, $4, 0, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
RETURNING id, paid_amount, created_at
`
	order := &domain.Order{
		OrderNo:         orderNo,
		UserID:          in.UserID,
		CompanyID:       in.CompanyID,
		TotalAmount:     in.TotalAmount,
		Status:          domain.OrderPendingPayment,
		PayStatus:       domain.PayPending,
		SamplingStatus:  domain.SamplingAwaiting,
		ShippingType:    in.ShippingType,
		ShippingAddress: in.ShippingAddress,
		ContactName:     in.ContactName,
		ContactPhone:    in.ContactPhone,
		Remark:          in.Remark,
		Province:        in.Province,
		City:            in.City,
		District:        in.District,
	}
	err = tx.QueryRow(ctx, insertOrder,
		orderNo, in.UserID, in.CompanyID, in.TotalAmount,
		int(domain.OrderPendingPayment), int(domain.PayPending), int(domain.SamplingAwaiting),
		int(in.ShippingType), in.ShippingAddress, in.ContactName, in.ContactPhone,
		in.Remark, in.Province, in.City, in.District,
	).Scan(&order.ID, &order.PaidAmount, &order.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, fmt.Errorf("order no %s: %w", orderNo, domain.ErrDuplicateOrderNo)
		}
		return nil, err
	}

	const insertLine = `
INSERT INTO order_items (order_id, package_id, package_name, unit_price, quantity, sampler_id, sampling_method)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id
`
	for _, line := range in.Lines {
		persisted := domain.OrderLine{
			OrderID:        order.ID,
			PackageID:      line.PackageID,
			PackageName:    line.PackageName,
			UnitPrice:      line.UnitPrice,
			Quantity:       line.Quantity,
			SamplerID:      line.SamplerID,
			SamplingMethod: line.SamplingMethod,
		}
		err = tx.QueryRow(ctx, insertLine,
			order.ID, line.PackageID, line.PackageName, line.UnitPrice,
			line.Quantity, line.SamplerID, int(line.SamplingMethod),
		).Scan(&persisted.ID)
		if err != nil {
			return nil, err
		}
		order.Lines = append(order.Lines, persisted)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM shopping_cart WHERE user_id = $1`, in.UserID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return order, nil
}

const orderColumns = `
id, order_no, user_id, company_id, total_amount, paid_amount, status,
pay_status, sampling_status, COALESCE(pay_type, ''), pay_time,
COALESCE(trade_no, ''), shipping_type, COALESCE(shipping_address, ''),
contact_name, contact_phone, COALESCE(remark, ''), province, city, district,
appointment_id, COALESCE(cancel_reason, ''), created_at
`

func (r *postgresRepo) GetByID(ctx context.Context, orderID int64) (*domain.Order, error) {
	order, err := r.fetchOrder(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, orderID)
	if err != nil {
		return nil, err
	}
	if err := r.loadLines(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *postgresRepo) GetByOrderNo(ctx context.Context, orderNo string) (*domain.Order, error) {
	return r.fetchOrder(ctx, `SELECT `+orderColumns+` FROM orders WHERE order_no = $1`, orderNo)
}

func (r *postgresRepo) List(ctx context.Context, userID int64, status *domain.OrderStatus, page, size int) (domain.PageResult[domain.Order], error) {
	result := domain.PageResult[domain.Order]{Page: page, Size: size, Items: []domain.Order{}}

	var statusCode *int
	if status != nil {
		code := int(*status)
		statusCode = &code
	}

	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM orders WHERE user_id = $1 AND ($2::int IS NULL OR status = $2)`,
		userID, statusCode,
	).Scan(&result.Total)
	if err != nil {
		return result, err
	}

	q := `SELECT ` + orderColumns + `
FROM orders
WHERE user_id = $1 AND ($2::int IS NULL OR status = $2)
ORDER BY created_at DESC, id DESC
LIMIT $3 OFFSET $4
`
	rows, err := r.pool.Query(ctx, q, userID, statusCode, size, (page-1)*size)
	if err != nil {
		return result, err
	}
	defer rows.Close()

	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return result, err
		}
		result.Items = append(result.Items, *order)
	}
	return result, rows.Err()
}

func (r *postgresRepo) Statistics(ctx context.Context, userID int64) (domain.OrderStatistics, error) {
	var stats domain.OrderStatistics
	const q = `
SELECT
    COUNT(*) FILTER (WHERE status = 1),
    COUNT(*) FILTER (WHERE status IN (2, 3)),
    COUNT(*) FILTER (WHERE status = 4),
    COUNT(*) FILTER (WHERE status = 5),
    COUNT(*) FILTER (WHERE status = 6)
FROM orders
WHERE user_id = $1
`
	err := r.pool.QueryRow(ctx, q, userID).Scan(
		&stats.PendingPayment,
		&stats.PendingShipment,
		&stats.Shipped,
		&stats.Completed,
		&stats.Cancelled,
	)
	return stats, err
}

func (r *postgresRepo) MarkPaid(ctx context.Context, orderID int64, tradeNo string, payTime time.Time) error {
	const q = `
UPDATE orders
SET pay_status = $2, status = $3, trade_no = $4, pay_time = $5,
    paid_amount = total_amount, updated_at = now()
WHERE id = $1 AND pay_status <> $2
`
	_, err := r.pool.Exec(ctx, q, orderID, int(domain.PayPaid), int(domain.OrderPendingShipment), tradeNo, payTime)
	return err
}

func (r *postgresRepo) MarkPayFailed(ctx context.Context, orderID int64) error {
	const q = `
UPDATE orders
SET pay_status = $2, updated_at = now()
WHERE id = $1 AND pay_status <> $3
`
	_, err := r.pool.Exec(ctx, q, orderID, int(domain.PayFailed), int(domain.PayPaid))
	return err
}

// Cancel repeats the allowed-state guard in SQL so a transition raced by
// another writer cannot slip through after the service-level check.
func (r *postgresRepo) Cancel(ctx context.Context, orderID int64, reason string) error {
	const q = `
UPDATE orders
SET status = $2, cancel_reason = $3, updated_at = now()
WHERE id = $1 AND status IN ($4, $5, $6)
`
	cmd, err := r.pool.Exec(ctx, q, orderID, int(domain.OrderCancelled), reason,
		int(domain.OrderPendingPayment), int(domain.OrderPaid), int(domain.OrderPendingShipment))
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrInvalidTransition
	}
	return nil
}

func (r *postgresRepo) Complete(ctx context.Context, orderID int64, from domain.OrderStatus) error {
	const q = `
UPDATE orders
SET status = $2, updated_at = now()
WHERE id = $1 AND status = $3
`
	cmd, err := r.pool.Exec(ctx, q, orderID, int(domain.OrderCompleted), int(from))
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrInvalidTransition
	}
	return nil
}

func (r *postgresRepo) SetSamplingStatus(ctx context.Context, orderID int64, status domain.SamplingStatus, appointmentID *int64) error {
	const q = `
UPDATE orders
SET sampling_status = $2, appointment_id = COALESCE($3, appointment_id), updated_at = now()
WHERE id = $1
`
	cmd, err := r.pool.Exec(ctx, q, orderID, int(status), appointmentID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (r *postgresRepo) fetchOrder(ctx context.Context, q string, args ...interface{}) (*domain.Order, error) {
	order, err := scanOrder(r.pool.QueryRow(ctx, q, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

func (r *postgresRepo) loadLines(ctx context.Context, order *domain.Order) error {
	const q = `
SELECT id, order_id, package_id, package_name, unit_price, quantity, sampler_id, sampling_method
FROM order_items
WHERE order_id = $1
ORDER BY id ASC
`
	rows, err := r.pool.Query(ctx, q, order.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var line domain.OrderLine
		var method int
		if err := rows.Scan(&line.ID, &line.OrderID, &line.PackageID, &line.PackageName,
			&line.UnitPrice, &line.Quantity, &line.SamplerID, &method); err != nil {
			return err
		}
		line.SamplingMethod, err = domain.SamplingMethodFromCode(method)
		if err != nil {
			return err
		}
		order.Lines = append(order.Lines, line)
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var order domain.Order
	var status, payStatus, samplingStatus, shippingType int
	err := row.Scan(
		&order.ID, &order.OrderNo, &order.UserID, &order.CompanyID,
		&order.TotalAmount, &order.PaidAmount, &status, &payStatus,
		&samplingStatus, &order.PayType, &order.PayTime, &order.TradeNo,
		&shippingType, &order.ShippingAddress, &order.ContactName,
		&order.ContactPhone, &order.Remark, &order.Province, &order.City,
		&order.District, &order.AppointmentID, &order.CancelReason,
		&order.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if order.Status, err = domain.OrderStatusFromCode(status); err != nil {
		return nil, err
	}
	if order.PayStatus, err = domain.PayStatusFromCode(payStatus); err != nil {
		return nil, err
	}
	if order.SamplingStatus, err = domain.SamplingStatusFromCode(samplingStatus); err != nil {
		return nil, err
	}
	if order.ShippingType, err = domain.SamplingMethodFromCode(shippingType); err != nil {
		return nil, err
	}
	return &order, nil
}
