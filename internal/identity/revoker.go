package identity

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenRevoker remembers signed-out session tokens until they expire.
type TokenRevoker interface {
	Revoke(ctx context.Context, token string, ttl time.Duration) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// MemoryTokenRevoker only covers a single process.
type MemoryTokenRevoker struct {
	mu     sync.Mutex
	tokens map[string]time.Time
	now    func() time.Time
}

func NewMemoryTokenRevoker() *MemoryTokenRevoker {
	return &MemoryTokenRevoker{
		tokens: make(map[string]time.Time),
		now:    time.Now,
	}
}

func (revoker *MemoryTokenRevoker) Revoke(_ context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	revoker.mu.Lock()
	defer revoker.mu.Unlock()

	now := revoker.now()
	for key, expiry := range revoker.tokens {
		if now.After(expiry) {
			delete(revoker.tokens, key)
		}
	}
	revoker.tokens[tokenDigest(token)] = now.Add(ttl)
	return nil
}

func (revoker *MemoryTokenRevoker) IsRevoked(_ context.Context, token string) (bool, error) {
	revoker.mu.Lock()
	defer revoker.mu.Unlock()

	key := tokenDigest(token)
	expiry, ok := revoker.tokens[key]
	if !ok {
		return false, nil
	}
	if revoker.now().After(expiry) {
		delete(revoker.tokens, key)
		return false, nil
	}
	return true, nil
}

type RedisTokenRevoker struct {
	client *redis.Client
	prefix string
}

func NewRedisTokenRevoker(addr string, password string) *RedisTokenRevoker {
	return &RedisTokenRevoker{
		client: redis.NewClient(&redis.Options{
			Addr:     strings.TrimSpace(addr),
			Password: password,
		}),
		prefix: "comoestou:revoked:",
	}
}

func (revoker *RedisTokenRevoker) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return revoker.client.Set(ctx, revoker.prefix+tokenDigest(token), "1", ttl).Err()
}

func (revoker *RedisTokenRevoker) IsRevoked(ctx context.Context, token string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	count, err := revoker.client.Exists(ctx, revoker.prefix+tokenDigest(token)).Result()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (revoker *RedisTokenRevoker) Close() error {
	return revoker.client.Close()
}

// Revocation entries are keyed by the SHA-256 of the token.
func tokenDigest(token string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(token)))
	return hex.EncodeToString(sum[:])
}
