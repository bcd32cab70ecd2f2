package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/passbi/journeyplanner/internal/models"
	"github.com/redis/go-redis/v9"
)

// Redis stores the segments of each fingerprint in a sorted set scored by
// departure time in unix milliseconds.
type Redis struct {
	rdb redis.Cmdable
	ttl time.Duration
}

// NewRedis creates a Redis store. A positive ttl expires a fingerprint's
// segments ttl after its most recent write.
func NewRedis(rdb redis.Cmdable, ttl time.Duration) *Redis {
	return &Redis{rdb: rdb, ttl: ttl}
}

type redisSegment struct {
	ID          string    `json:"id"`
	DepartureAt time.Time `json:"departure_at"`
	ArrivalAt   time.Time `json:"arrival_at"`
}

// SegmentKey returns the sorted set key for a fingerprint
func SegmentKey(fingerprint string) string {
	return fmt.Sprintf("segments:%s", fingerprint)
}

func (r *Redis) Read(ctx context.Context, fingerprint string, minDeparture time.Time) (*models.RouteSegment, error) {
	members, err := r.rdb.ZRangeByScore(ctx, SegmentKey(fingerprint), &redis.ZRangeBy{
		Min:   strconv.FormatInt(minDeparture.UnixMilli(), 10),
		Max:   "+inf",
		Count: 1,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read route segment: %w", err)
	}
	if len(members) == 0 {
		return nil, nil
	}

	var rs redisSegment
	if err := json.Unmarshal([]byte(members[0]), &rs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached segment: %w", err)
	}

	return &models.RouteSegment{
		ID:          models.SegmentID(rs.ID),
		Fingerprint: fingerprint,
		DepartureAt: rs.DepartureAt,
		ArrivalAt:   rs.ArrivalAt,
	}, nil
}

func (r *Redis) Write(ctx context.Context, fingerprint string, departureAt, arrivalAt time.Time) (models.SegmentID, error) {
	if err := checkSegment(fingerprint, departureAt, arrivalAt); err != nil {
		return "", err
	}

	rs := redisSegment{
		ID:          uuid.NewString(),
		DepartureAt: departureAt,
		ArrivalAt:   arrivalAt,
	}
	data, err := json.Marshal(rs)
	if err != nil {
		return "", fmt.Errorf("failed to marshal segment: %w", err)
	}

	key := SegmentKey(fingerprint)
	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, key, redis.Z{
			Score:  float64(departureAt.UnixMilli()),
			Member: data,
		})
		if r.ttl > 0 {
			pipe.Expire(ctx, key, r.ttl)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to write route segment: %w", err)
	}

	return models.SegmentID(rs.ID), nil
}

// HealthCheck pings Redis
func (r *Redis) HealthCheck(ctx context.Context) error {
	if err := r.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("Redis ping failed: %w", err)
	}
	return nil
}
