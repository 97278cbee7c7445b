package rdx

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

var Conn *redis.Client

func init() {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	Conn = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
	})
}

// AcquireLock tries to take a short-lived distributed lock for a key.
// Used to serialize payment verification per (order, phase).
func AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := Conn.SetNX(ctx, "lock:"+key, "1", ttl).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}

// ReleaseLock releases the lock
func ReleaseLock(ctx context.Context, key string) {
	if err := Conn.Del(ctx, "lock:"+key).Err(); err != nil {
		log.Printf("ReleaseLock: failed for key %s, err=%v\n", key, err)
	}
}
