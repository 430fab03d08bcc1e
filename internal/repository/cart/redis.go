package cart

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strconv"
	"time"

	"healthmall/internal/domain"
	"github.com/redis/go-redis/v9"
)

const guestCartKeyPrefix = "cart:guest:"

// watchRetries bounds the optimistic retry loop when two writes race on the
// same guest cart.
const watchRetries = 5

type redisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis returns the ephemeral cart store for anonymous visitors. Each
// cart is one hash keyed by the session token with one field per package;
// every write re-arms the sliding TTL. An expired cart reads as empty.
func NewRedis(client *redis.Client, ttl time.Duration) Store {
	return &redisStore{client: client, ttl: ttl}
}

type guestLine struct {
	Quantity       int       `json:"quantity"`
	SamplerID      *int64    `json:"samplerId,omitempty"`
	SamplingMethod int       `json:"samplingMethod"`
	CreatedAt      time.Time `json:"createdAt"`
}

func (s *redisStore) Lines(ctx context.Context, ownerKey string) ([]domain.CartLine, error) {
	fields, err := s.client.HGetAll(ctx, guestCartKey(ownerKey)).Result()
	if err != nil {
		return nil, err
	}

	lines := make([]domain.CartLine, 0, len(fields))
	for field, raw := range fields {
		packageID, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			continue
		}
		var stored guestLine
		if err := json.Unmarshal([]byte(raw), &stored); err != nil {
			continue
		}
		method, err := domain.SamplingMethodFromCode(stored.SamplingMethod)
		if err != nil {
			method = domain.SamplingSelf
		}
		lines = append(lines, domain.CartLine{
			ID:             field,
			PackageID:      packageID,
			Quantity:       stored.Quantity,
			SamplerID:      stored.SamplerID,
			SamplingMethod: method,
			CreatedAt:      stored.CreatedAt,
		})
	}
	sort.Slice(lines, func(i, j int) bool {
		if !lines[i].CreatedAt.Equal(lines[j].CreatedAt) {
			return lines[i].CreatedAt.Before(lines[j].CreatedAt)
		}
		return lines[i].PackageID < lines[j].PackageID
	})
	return lines, nil
}

func (s *redisStore) Upsert(ctx context.Context, ownerKey string, in UpsertInput) error {
	if in.Quantity <= 0 {
		return domain.ErrInvalidQuantity
	}
	key := guestCartKey(ownerKey)
	field := strconv.FormatInt(in.PackageID, 10)

	return s.watch(ctx, key, func(tx *redis.Tx) error {
		stored := guestLine{
			SamplerID:      in.SamplerID,
			SamplingMethod: int(in.SamplingMethod),
			CreatedAt:      time.Now().UTC(),
		}
		raw, err := tx.HGet(ctx, key, field).Result()
		switch {
		case err == nil:
			var existing guestLine
			if err := json.Unmarshal([]byte(raw), &existing); err == nil {
				stored.Quantity = existing.Quantity
				stored.CreatedAt = existing.CreatedAt
				if stored.SamplerID == nil {
					stored.SamplerID = existing.SamplerID
				}
			}
		case !errors.Is(err, redis.Nil):
			return err
		}
		stored.Quantity += in.Quantity

		data, err := json.Marshal(stored)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, field, data)
			pipe.Expire(ctx, key, s.ttl)
			return nil
		})
		return err
	})
}

func (s *redisStore) Update(ctx context.Context, ownerKey, lineID string, in UpdateInput) error {
	key := guestCartKey(ownerKey)

	return s.watch(ctx, key, func(tx *redis.Tx) error {
		raw, err := tx.HGet(ctx, key, lineID).Result()
		if errors.Is(err, redis.Nil) {
			return domain.ErrCartLineNotFound
		}
		if err != nil {
			return err
		}
		var stored guestLine
		if err := json.Unmarshal([]byte(raw), &stored); err != nil {
			return domain.ErrCartLineNotFound
		}

		if in.Quantity != nil && *in.Quantity <= 0 {
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.HDel(ctx, key, lineID)
				pipe.Expire(ctx, key, s.ttl)
				return nil
			})
			return err
		}

		if in.Quantity != nil {
			stored.Quantity = *in.Quantity
		}
		if in.SamplerID != nil {
			stored.SamplerID = in.SamplerID
		}
		if in.SamplingMethod != nil {
			stored.SamplingMethod = int(*in.SamplingMethod)
		}
		data, err := json.Marshal(stored)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, lineID, data)
			pipe.Expire(ctx, key, s.ttl)
			return nil
		})
		return err
	})
}

func (s *redisStore) Remove(ctx context.Context, ownerKey, lineID string) error {
	key := guestCartKey(ownerKey)
	removed, err := s.client.HDel(ctx, key, lineID).Result()
	if err != nil {
		return err
	}
	if removed == 0 {
		return domain.ErrCartLineNotFound
	}
	s.client.Expire(ctx, key, s.ttl)
	return nil
}

func (s *redisStore) RemoveMany(ctx context.Context, ownerKey string, lineIDs []string) error {
	if len(lineIDs) == 0 {
		return nil
	}
	key := guestCartKey(ownerKey)
	if err := s.client.HDel(ctx, key, lineIDs...).Err(); err != nil {
		return err
	}
	s.client.Expire(ctx, key, s.ttl)
	return nil
}

func (s *redisStore) Clear(ctx context.Context, ownerKey string) error {
	return s.client.Del(ctx, guestCartKey(ownerKey)).Err()
}

func (s *redisStore) Count(ctx context.Context, ownerKey string) (int, error) {
	count, err := s.client.HLen(ctx, guestCartKey(ownerKey)).Result()
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

func (s *redisStore) watch(ctx context.Context, key string, fn func(tx *redis.Tx) error) error {
	var err error
	for i := 0; i < watchRetries; i++ {
		err = s.client.Watch(ctx, fn, key)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return err
}

func guestCartKey(token string) string {
	return guestCartKeyPrefix + token
}
