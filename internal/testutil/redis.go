package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisURL is used when OPINWORK_TEST_REDIS_URL is unset.
const DefaultRedisURL = "redis://localhost:6379/15"

// SetupTestRedis returns a client for the test Redis server, closed when
// the test finishes. The test is skipped if no server is reachable.
func SetupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	url := os.Getenv("OPINWORK_TEST_REDIS_URL")
	if url == "" {
		url = DefaultRedisURL
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		t.Fatalf("invalid redis url %q: %v", url, err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		t.Skipf("redis unavailable: %v", err)
	}

	t.Cleanup(func() { _ = client.Close() })
	return client
}
