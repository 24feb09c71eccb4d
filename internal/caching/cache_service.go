package caching

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	dashboardKey      = "compliflow:dashboard"
	latestAuditIDsKey = "compliflow:audits:latest"
)

type CacheService interface {
	// Dashboard caching
	GetDashboard(ctx context.Context, dst interface{}) (bool, error)
	SetDashboard(ctx context.Context, payload interface{}, ttl time.Duration) error
	InvalidateDashboard(ctx context.Context) error

	// Latest-version audit id set, invalidated whenever a rejection changes
	// chain membership.
	GetLatestAuditIDs(ctx context.Context) ([]uuid.UUID, error)
	SetLatestAuditIDs(ctx context.Context, ids []uuid.UUID, ttl time.Duration) error
	InvalidateLatestAuditIDs(ctx context.Context) error

	// Generic string operations
	SetString(ctx context.Context, key string, value string, ttl time.Duration) error
	GetString(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

type redisCacheService struct {
	client *redis.Client
}

func NewRedisCacheService(addr, password string, db int) CacheService {
	parsedAddr := addr
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		if hostPort := strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://"); hostPort != addr {
			parsedAddr = hostPort
		}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})

	if pingErr := client.Ping(context.Background()).Err(); pingErr != nil {
		log.Printf("WARN: Redis ping failed on initialization: %v (address: %s)", pingErr, parsedAddr)
	}

	return &redisCacheService{client: client}
}

func (r *redisCacheService) GetDashboard(ctx context.Context, dst interface{}) (bool, error) {
	data, err := r.client.Get(ctx, dashboardKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return false, nil // cache miss
		}
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (r *redisCacheService) SetDashboard(ctx context.Context, payload interface{}, ttl time.Duration) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, dashboardKey, data, ttl).Err()
}

func (r *redisCacheService) InvalidateDashboard(ctx context.Context) error {
	return r.client.Del(ctx, dashboardKey).Err()
}

func (r *redisCacheService) GetLatestAuditIDs(ctx context.Context) ([]uuid.UUID, error) {
	data, err := r.client.Get(ctx, latestAuditIDsKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // cache miss
		}
		return nil, err
	}

	var ids []uuid.UUID
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *redisCacheService) SetLatestAuditIDs(ctx context.Context, ids []uuid.UUID, ttl time.Duration) error {
	data, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, latestAuditIDsKey, data, ttl).Err()
}

func (r *redisCacheService) InvalidateLatestAuditIDs(ctx context.Context) error {
	return r.client.Del(ctx, latestAuditIDsKey).Err()
}

func (r *redisCacheService) SetString(ctx context.Context, key string, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *redisCacheService) GetString(ctx context.Context, key string) (string, error) {
	value, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil
		}
		return "", err
	}
	return value, nil
}

func (r *redisCacheService) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}
