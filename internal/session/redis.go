package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "watchlist:session:"

// RedisStore keeps session data server side, so logging out invalidates the
// session everywhere instead of only dropping the browser cookie.
type RedisStore struct {
	rdb *redis.Client
	sc  *securecookie.SecureCookie
	cookieOpts
}

func NewRedisStore(rdb *redis.Client, hashKey, blockKey []byte, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	sc := securecookie.New(hashKey, blockKey)
	sc.MaxAge(int(ttl.Seconds()))
	return &RedisStore{rdb: rdb, sc: sc, cookieOpts: cookieOpts{ttl: ttl}}
}

// SetSecure marks the session cookie Secure even on plain HTTP requests.
func (s *RedisStore) SetSecure(on bool) { s.secure = on }

// OpenRedis connects to the server in a redis:// or rediss:// URL and pings it.
func OpenRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis url: %w", err)
	}
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func (s *RedisStore) sessionID(r *http.Request) (string, bool) {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return "", false
	}
	var id string
	if err := s.sc.Decode(CookieName, c.Value, &id); err != nil || id == "" {
		return "", false
	}
	return id, true
}

func (s *RedisStore) Load(r *http.Request) (Data, error) {
	id, ok := s.sessionID(r)
	if !ok {
		return Data{}, nil
	}
	b, err := s.rdb.Get(r.Context(), redisKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return Data{}, nil
	}
	if err != nil {
		return Data{}, fmt.Errorf("session load: %w", err)
	}
	var d Data
	if err := json.Unmarshal(b, &d); err != nil {
		return Data{}, nil
	}
	return d, nil
}

func (s *RedisStore) Save(w http.ResponseWriter, r *http.Request, d Data) error {
	id, ok := s.sessionID(r)
	if !ok {
		id = uuid.NewString()
	}
	return s.save(w, r, id, d)
}

// Renew deletes the presented session and stores d under a new id, so an id
// handed out before login never becomes authenticated.
func (s *RedisStore) Renew(w http.ResponseWriter, r *http.Request, d Data) error {
	if old, ok := s.sessionID(r); ok {
		if err := s.rdb.Del(r.Context(), redisKeyPrefix+old).Err(); err != nil {
			return fmt.Errorf("session renew: %w", err)
		}
	}
	return s.save(w, r, uuid.NewString(), d)
}

func (s *RedisStore) save(w http.ResponseWriter, r *http.Request, id string, d Data) error {
	b, err := json.Marshal(d)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(r.Context(), redisKeyPrefix+id, b, s.ttl).Err(); err != nil {
		return fmt.Errorf("session save: %w", err)
	}
	encoded, err := s.sc.Encode(CookieName, id)
	if err != nil {
		return err
	}
	setCookie(w, r, encoded, s.cookieOpts)
	return nil
}

func (s *RedisStore) Clear(w http.ResponseWriter, r *http.Request) error {
	expireCookie(w)
	id, ok := s.sessionID(r)
	if !ok {
		return nil
	}
	if err := s.rdb.Del(r.Context(), redisKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("session clear: %w", err)
	}
	return nil
}
