package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/utilityops/records-service/internal/domain"
)

// ErrSessionNotFound is returned for unknown, expired, or tampered session ids.
var ErrSessionNotFound = errors.New("session not found")

const sessionKeyPrefix = "records:session:"

// SessionStore keeps server-side login sessions.
type SessionStore interface {
	Create(ctx context.Context, user *domain.User) (*domain.Session, error)
	Get(ctx context.Context, id string) (*domain.Session, error)
	Destroy(ctx context.Context, id string) error
}

// RedisSessionStore stores sessions as JSON values with a TTL.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSessionStore constructs a store.
func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisSessionStore{client: client, ttl: ttl}
}

func (s *RedisSessionStore) Create(ctx context.Context, user *domain.User) (*domain.Session, error) {
	now := time.Now().UTC()
	sess := &domain.Session{
		ID:         uuid.NewString(),
		UserID:     user.ID,
		Role:       user.Role,
		EmployeeID: user.EmployeeID,
		FullName:   user.FullName,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.ttl),
	}
	payload, err := json.Marshal(sess)
	if err != nil {
		return nil, err
	}
	if err := s.client.Set(ctx, sessionKeyPrefix+sess.ID, payload, s.ttl).Err(); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *RedisSessionStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	raw, err := s.client.Get(ctx, sessionKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	var sess domain.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// Destroy removes the session. Destroying an unknown id is not an error.
func (s *RedisSessionStore) Destroy(ctx context.Context, id string) error {
	return s.client.Del(ctx, sessionKeyPrefix+id).Err()
}

// CookieSigner binds session ids to the server secret so cookies cannot be forged.
type CookieSigner struct {
	secret []byte
}

// NewCookieSigner constructs a signer.
func NewCookieSigner(secret string) *CookieSigner {
	return &CookieSigner{secret: []byte(secret)}
}

// Sign returns "<id>.<mac>".
func (s *CookieSigner) Sign(id string) string {
	return id + "." + s.mac(id)
}

// Verify returns the session id of a signed value.
func (s *CookieSigner) Verify(value string) (string, error) {
	idx := strings.LastIndexByte(value, '.')
	if idx <= 0 {
		return "", ErrSessionNotFound
	}
	id, mac := value[:idx], value[idx+1:]
	if !hmac.Equal([]byte(mac), []byte(s.mac(id))) {
		return "", ErrSessionNotFound
	}
	return id, nil
}

func (s *CookieSigner) mac(id string) string {
	h := hmac.New(sha256.New, s.secret)
	h.Write([]byte(id))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}
