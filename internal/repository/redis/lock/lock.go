// Package lock is a Redis backed mutual exclusion for attendance slots
// shared by every API instance.
package lock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// release deletes the key only while it still holds our token.
var release = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type Config struct {
	// TTL bounds how long a crashed holder can block a slot.
	TTL time.Duration `conf:"default:10s"`
	// Wait bounds how long Lock waits for a busy slot.
	Wait  time.Duration `conf:"default:5s"`
	Retry time.Duration `conf:"default:25ms"`
}

type Locker struct {
	client *redis.Client
	log    *log.Logger
	prefix string
	cfg    Config
}

func NewLocker(client *redis.Client, log *log.Logger, prefix string, cfg Config) *Locker {
	return &Locker{client: client, log: log, prefix: prefix, cfg: cfg}
}

// ErrBusy is returned when the slot stays locked for longer than Config.Wait.
var ErrBusy = errors.New("lock busy")

func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	token, err := newToken()
	if err != nil {
		return nil, err
	}
	key = l.prefix + "lock:" + key

	ctx, cancel := context.WithTimeout(ctx, l.cfg.Wait)
	defer cancel()

	ticker := time.NewTicker(l.cfg.Retry)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.cfg.TTL).Result()
		if err != nil {
			return nil, errors.Wrapf(err, "acquiring %s", key)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, errors.Wrapf(ErrBusy, "%s: %v", key, ctx.Err())
		case <-ticker.C:
		}
	}

	return func() {
		// The caller's context may already be done; release regardless.
		rctx, rcancel := context.WithTimeout(context.Background(), l.cfg.Retry*40)
		defer rcancel()
		if err := release.Run(rctx, l.client, []string{key}, token).Err(); err != nil {
			l.log.Printf("releasing %s: %v", key, err)
		}
	}, nil
}

func newToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Wrap(err, "lock token")
	}
	return hex.EncodeToString(b), nil
}
