package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/zulandar/chargeyard/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Revoker remembers signed-out token ids until the tokens expire.
type Revoker interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// DBRevoker stores revoked token ids in the revoked_tokens table.
type DBRevoker struct {
	db *gorm.DB
}

// NewDBRevoker returns a Revoker backed by db.
func NewDBRevoker(db *gorm.DB) *DBRevoker {
	return &DBRevoker{db: db}
}

func (r *DBRevoker) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	row := models.RevokedToken{ID: tokenID, ExpiresAt: expiresAt}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
		return fmt.Errorf("auth: revoke %s: %w", tokenID, err)
	}
	return nil
}

func (r *DBRevoker) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.RevokedToken{}).Where("id = ?", tokenID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("auth: check revocation %s: %w", tokenID, err)
	}
	return count > 0, nil
}

// Purge deletes revocations whose tokens expired before now.
func (r *DBRevoker) Purge(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("expires_at < ?", now).Delete(&models.RevokedToken{})
	if result.Error != nil {
		return 0, fmt.Errorf("auth: purge revoked tokens: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// RedisRevoker stores revoked token ids as expiring redis keys, so no
// purge job is needed.
type RedisRevoker struct {
	rdb *redis.Client
}

// NewRedisRevoker connects to the redis server at addr.
func NewRedisRevoker(addr string) *RedisRevoker {
	return &RedisRevoker{rdb: redis.NewClient(&redis.Options{Addr: addr})}
}

func revokedKey(tokenID string) string {
	return "chargeyard:revoked:" + tokenID
}

func (r *RedisRevoker) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	if err := r.rdb.Set(ctx, revokedKey(tokenID), 1, ttl).Err(); err != nil {
		return fmt.Errorf("auth: revoke %s: %w", tokenID, err)
	}
	return nil
}

func (r *RedisRevoker) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.rdb.Exists(ctx, revokedKey(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("auth: check revocation %s: %w", tokenID, err)
	}
	return n > 0, nil
}

// Close releases the redis connection pool.
func (r *RedisRevoker) Close() error {
	return r.rdb.Close()
}
