package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var errInvalidToken = errors.New("invalid token")

type sessionClaims struct {
	jwt.RegisteredClaims
}

// issueToken signs a bearer token for userID. The token carries a unique
// jti so logout can revoke it before its natural expiry.
func issueToken(userID int, secret []byte, validity time.Duration) (string, time.Time, error) {
	expiresAt := time.Now().Add(validity)
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(userID),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// parseToken validates signature and expiry and returns the user id the
// token was issued for. Every failure collapses into errInvalidToken.
func parseToken(tokenStr string, secret []byte) (int, *sessionClaims, error) {
	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return 0, nil, errInvalidToken
	}
	if claims.ExpiresAt == nil || claims.ID == "" {
		return 0, nil, errInvalidToken
	}
	userID, err := strconv.Atoi(claims.Subject)
	if err != nil {
		return 0, nil, errInvalidToken
	}
	return userID, claims, nil
}

// tokenDenylist tracks revoked token ids until the tokens would have
// expired anyway.
type tokenDenylist interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type memoryDenylist struct {
	mu      sync.RWMutex
	entries map[string]time.Time
}

func newMemoryDenylist() *memoryDenylist {
	d := &memoryDenylist{
		entries: make(map[string]time.Time),
	}
	go func(d *memoryDenylist) {
		ticker := time.NewTicker(time.Minute)
		for {
			<-ticker.C
			func() {
				d.mu.Lock()
				defer d.mu.Unlock()
				for jti, expiresAt := range d.entries {
					if time.Now().After(expiresAt) {
						delete(d.entries, jti)
					}
				}
			}()
		}
	}(d)
	return d
}

func (d *memoryDenylist) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries[jti] = time.Now().Add(ttl)
	return nil
}

func (d *memoryDenylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	expiresAt, ok := d.entries[jti]
	if !ok {
		return false, nil
	}
	return time.Now().Before(expiresAt), nil
}

// redisDenylist shares revocations across replicas and restarts.
type redisDenylist struct {
	client *redis.Client
}

func newRedisDenylist(client *redis.Client) *redisDenylist {
	return &redisDenylist{client: client}
}

func (d *redisDenylist) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return d.client.Set(ctx, "revoked:"+jti, "1", ttl).Err()
}

func (d *redisDenylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	_, err := d.client.Get(ctx, "revoked:"+jti).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
