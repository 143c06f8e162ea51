package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"todo_api/internal/models"

	"github.com/redis/go-redis/v9"
)

type RedisRepo struct {
	client   *redis.Client
	tokenTTL time.Duration
}

func New(ctx context.Context, addr, pass string, db int, tokenTTL time.Duration) (*RedisRepo, error) {
	const op = "storage.redis.New"

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     pass,
		DB:           db,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return NewWithClient(client, tokenTTL), nil
}

func NewWithClient(client *redis.Client, tokenTTL time.Duration) *RedisRepo {
	return &RedisRepo{
		client:   client,
		tokenTTL: tokenTTL,
	}
}

// revokedMarker occupies a revoked token's key so SetAccount cannot refill it.
const revokedMarker = "revoked"

type cachedAccount struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// * Account возвращает аккаунт, к которому ранее был привязан токен
func (r *RedisRepo) Account(ctx context.Context, token string) (models.Account, bool, error) {
	const op = "storage.redis.Account"

	data, err := r.client.Get(ctx, tokenKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.Account{}, false, nil
		}

		return models.Account{}, false, fmt.Errorf("%s: %w", op, err)
	}

	if string(data) == revokedMarker {
		return models.Account{}, false, nil
	}

	var ca cachedAccount
	if err := json.Unmarshal(data, &ca); err != nil {
		return models.Account{}, false, fmt.Errorf("%s: %w", op, err)
	}

	return models.Account{ID: ca.ID, Email: ca.Email}, true, nil
}

// * SetAccount кеширует id и email через SETNX, метку отзыва не перезаписывает
func (r *RedisRepo) SetAccount(ctx context.Context, token string, acc models.Account) error {
	const op = "storage.redis.SetAccount"

	data, err := json.Marshal(cachedAccount{ID: acc.ID, Email: acc.Email})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := r.client.SetNX(ctx, tokenKey(token), data, r.tokenTTL).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// * Revoke ставит метку отзыва на ключ токена на время TTL
func (r *RedisRepo) Revoke(ctx context.Context, token string) error {
	const op = "storage.redis.Revoke"

	if err := r.client.Set(ctx, tokenKey(token), revokedMarker, r.tokenTTL).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// * Close закрывает соединение с Redis.
func (r *RedisRepo) Close() {
	r.client.Close()
}

// Raw tokens never become keys.
func tokenKey(token string) string {
	hash := sha256.Sum256([]byte(token))
	return fmt.Sprintf("auth:token:%s", hex.EncodeToString(hash[:]))
}
