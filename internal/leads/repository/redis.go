package repository

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"outreach_backend/internal/leads/domain"
	"outreach_backend/platform/apperr"

	"github.com/redis/go-redis/v9"
)

const (
	opRedisGet  = "leads.repository.redis.get"
	opRedisPut  = "leads.repository.redis.put"
	opRedisList = "leads.repository.redis.list"

	leadKeyPrefix = "lead:"
)

// RedisStore persists leads as JSON values under lead:<email> keys.
// Writes are read-modify-write, last merge wins; there is no version
// token on this backend.
type RedisStore struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedisStore creates a Redis-backed lead store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, now: time.Now}
}

func (s *RedisStore) Get(ctx context.Context, email string) (*domain.Lead, error) {
	key := domain.NormalizeEmail(email)
	if key == "" {
		return nil, apperr.Validation(errEmailRequired).WithOp(opRedisGet)
	}

	payload, err := s.client.Get(ctx, leadKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, apperr.NotFound(errLeadNotFound).WithOp(opRedisGet)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, "failed to read lead", err).WithOp(opRedisGet)
	}

	return decodeLead(payload, opRedisGet)
}

func (s *RedisStore) Put(ctx context.Context, lead *domain.Lead) (*domain.Lead, error) {
	if lead == nil || domain.NormalizeEmail(lead.Email) == "" {
		return nil, apperr.Validation(errEmailRequired).WithOp(opRedisPut)
	}
	key := domain.NormalizeEmail(lead.Email)

	existing, err := s.Get(ctx, key)
	if err != nil && !apperr.Is(err, apperr.KindNotFound) {
		return nil, err
	}

	merged := domain.Merge(existing, lead, s.now())
	payload, err := json.Marshal(merged)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to encode lead", err).WithOp(opRedisPut)
	}

	if err := s.client.Set(ctx, leadKeyPrefix+key, payload, 0).Err(); err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, "failed to write lead", err).WithOp(opRedisPut)
	}

	return merged, nil
}

func (s *RedisStore) List(ctx context.Context, limit int) ([]*domain.Lead, error) {
	var leads []*domain.Lead

	iter := s.client.Scan(ctx, 0, leadKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		payload, err := s.client.Get(ctx, iter.Val()).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, apperr.Wrap(apperr.KindUnavailable, "failed to list leads", err).WithOp(opRedisList)
		}
		lead, err := decodeLead(payload, opRedisList)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	if err := iter.Err(); err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, "failed to list leads", err).WithOp(opRedisList)
	}

	sort.Slice(leads, func(i, j int) bool {
		return leads[i].UpdatedAt.After(leads[j].UpdatedAt)
	})
	if limit > 0 && len(leads) > limit {
		leads = leads[:limit]
	}

	return leads, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
