package cart

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"healthmall/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgres returns the durable cart store for logged-in users, keyed by
// user id with no expiry.
func NewPostgres(pool *pgxpool.Pool) Store {
	return &postgresStore{pool: pool}
}

func (s *postgresStore) Lines(ctx context.Context, ownerKey string) ([]domain.CartLine, error) {
	userID, err := parseUserKey(ownerKey)
	if err != nil {
		return nil, err
	}
	const q = `
SELECT id::text, package_id, quantity, sampler_id, sampling_method, created_at
FROM shopping_cart
WHERE user_id = $1
ORDER BY created_at ASC, id ASC
`
	rows, err := s.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []domain.CartLine
	for rows.Next() {
		var line domain.CartLine
		var method int
		if err := rows.Scan(&line.ID, &line.PackageID, &line.Quantity, &line.SamplerID, &method, &line.CreatedAt); err != nil {
			return nil, err
		}
		line.SamplingMethod, err = domain.SamplingMethodFromCode(method)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

// Upsert is a single conditional statement so concurrent adds for the same
// (user, package) pair serialize at the row and never lose an increment.
func (s *postgresStore) Upsert(ctx context.Context, ownerKey string, in UpsertInput) error {
	userID, err := parseUserKey(ownerKey)
	if err != nil {
		return err
	}
	if in.Quantity <= 0 {
		return domain.ErrInvalidQuantity
	}
	const q = `
INSERT INTO shopping_cart (user_id, package_id, quantity, sampler_id, sampling_method)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (user_id, package_id)
DO UPDATE SET quantity = shopping_cart.quantity + EXCLUDED.quantity,
              sampler_id = COALESCE(EXCLUDED.sampler_id, shopping_cart.sampler_id),
              sampling_method = EXCLUDED.sampling_method,
              updated_at = now()
`
	_, err = s.pool.Exec(ctx, q, userID, in.PackageID, in.Quantity, in.SamplerID, int(in.SamplingMethod))
	return err
}

func (s *postgresStore) Update(ctx context.Context, ownerKey, lineID string, in UpdateInput) error {
	userID, err := parseUserKey(ownerKey)
	if err != nil {
		return err
	}
	id, err := strconv.ParseInt(lineID, 10, 64)
	if err != nil {
		return domain.ErrCartLineNotFound
	}

	if in.Quantity != nil && *in.Quantity <= 0 {
		cmd, err := s.pool.Exec(ctx, `DELETE FROM shopping_cart WHERE id = $1 AND user_id = $2`, id, userID)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return domain.ErrCartLineNotFound
		}
		return nil
	}

	const q = `
UPDATE shopping_cart
SET quantity = COALESCE($3, quantity),
    sampler_id = COALESCE($4, sampler_id),
    sampling_method = COALESCE($5, sampling_method),
    updated_at = now()
WHERE id = $1 AND user_id = $2
`
	var methodCode *int
	if in.SamplingMethod != nil {
		code := int(*in.SamplingMethod)
		methodCode = &code
	}
	cmd, err := s.pool.Exec(ctx, q, id, userID, in.Quantity, in.SamplerID, methodCode)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrCartLineNotFound
	}
	return nil
}

func (s *postgresStore) Remove(ctx context.Context, ownerKey, lineID string) error {
	userID, err := parseUserKey(ownerKey)
	if err != nil {
		return err
	}
	id, err := strconv.ParseInt(lineID, 10, 64)
	if err != nil {
		return domain.ErrCartLineNotFound
	}
	cmd, err := s.pool.Exec(ctx, `DELETE FROM shopping_cart WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrCartLineNotFound
	}
	return nil
}

func (s *postgresStore) RemoveMany(ctx context.Context, ownerKey string, lineIDs []string) error {
	userID, err := parseUserKey(ownerKey)
	if err != nil {
		return err
	}
	if len(lineIDs) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(lineIDs))
	for _, raw := range lineIDs {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	_, err = s.pool.Exec(ctx, `DELETE FROM shopping_cart WHERE user_id = $1 AND id = ANY($2)`, userID, ids)
	return err
}

func (s *postgresStore) Clear(ctx context.Context, ownerKey string) error {
	userID, err := parseUserKey(ownerKey)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `DELETE FROM shopping_cart WHERE user_id = $1`, userID)
	return err
}

func (s *postgresStore) Count(ctx context.Context, ownerKey string) (int, error) {
	userID, err := parseUserKey(ownerKey)
	if err != nil {
		return 0, err
	}
	var count int
	err = s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM shopping_cart WHERE user_id = $1`, userID).Scan(&count)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return 0, err
	}
	return count, nil
}

func parseUserKey(ownerKey string) (int64, error) {
	userID, err := strconv.ParseInt(ownerKey, 10, 64)
	if err != nil || userID <= 0 {
		return 0, fmt.Errorf("invalid user cart key %q", ownerKey)
	}
	return userID, nil
}
