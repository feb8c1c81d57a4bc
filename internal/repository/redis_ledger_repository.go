package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	pkgredis "github.com/spring-team-7/table-now-sub000/pkg/redis"
	"github.com/spring-team-7/table-now-sub000/pkg/telemetry"
)

// RedisLedgerRepository implements LedgerRepository on a Redis sorted
// set per event. ZADD NX gives the atomic add-if-absent primitive;
// ZRANK orders members by claim timestamp, ties broken by Redis'
// lexicographic member ordering, which is total and stable.
type RedisLedgerRepository struct {
	client *pkgredis.Client
}

// NewRedisLedgerRepository creates a new RedisLedgerRepository
func NewRedisLedgerRepository(client *pkgredis.Client) *RedisLedgerRepository {
	return &RedisLedgerRepository{client: client}
}

func ledgerKey(eventID string) string {
	return fmt.Sprintf("promo:ledger:%s", eventID)
}

// AddIfAbsent atomically adds the user with the given claim score.
// Returns false when the user is already a member.
func (r *RedisLedgerRepository) AddIfAbsent(ctx context.Context, eventID, userID string, score int64) (bool, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.redis.ledger.add_if_absent")
	defer span.End()

	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.String("user_id", userID),
		attribute.Int64("score", score),
	)

	added, err := r.client.ZAddNX(ctx, ledgerKey(eventID), redis.Z{
		Score:  float64(score),
		Member: userID,
	}).Result()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, fmt.Errorf("failed to add ledger claim: %w", err)
	}

	span.SetAttributes(attribute.Bool("added", added == 1))
	span.SetStatus(codes.Ok, "")
	return added == 1, nil
}

// Rank returns the user's 0-based claim rank; ok is false when the user
// holds no claim.
func (r *RedisLedgerRepository) Rank(ctx context.Context, eventID, userID string) (int64, bool, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.redis.ledger.rank")
	defer span.End()

	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.String("user_id", userID),
	)

	rank, err := r.client.ZRank(ctx, ledgerKey(eventID), userID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			span.SetStatus(codes.Ok, "not a member")
			return 0, false, nil
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, false, fmt.Errorf("failed to get ledger rank: %w", err)
	}

	span.SetAttributes(attribute.Int64("rank", rank))
	span.SetStatus(codes.Ok, "")
	return rank, true, nil
}

// Remove deletes the user's provisional claim
func (r *RedisLedgerRepository) Remove(ctx context.Context, eventID, userID string) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.redis.ledger.remove")
	defer span.End()

	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.String("user_id", userID),
	)

	if err := r.client.ZRem(ctx, ledgerKey(eventID), userID).Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to remove ledger claim: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// Ensure RedisLedgerRepository implements LedgerRepository
var _ LedgerRepository = (*RedisLedgerRepository)(nil)
