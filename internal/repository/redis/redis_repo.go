package redis

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"workorder/internal/domain/entity"
)

type RedisRepo struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisRepo(client *redis.Client, ttl time.Duration) *RedisRepo {
	return &RedisRepo{Client: client, TTL: ttl}
}

func vinKey(vin string) string {
	return "vin:" + strings.ToUpper(vin)
}

func (r *RedisRepo) SetVehicle(ctx context.Context, vin string, info entity.VehicleInfo) error {
	data, err := json.Marshal(info)
	if err != nil {
		return err
	}
	return r.Client.Set(ctx, vinKey(vin), data, r.TTL).Err()
}

func (r *RedisRepo) GetVehicle(ctx context.Context, vin string) (*entity.VehicleInfo, error) {
	data, err := r.Client.Get(ctx, vinKey(vin)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var info entity.VehicleInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, err
	}
	return &info, nil
}
