package valkey

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	valkeylib "github.com/valkey-io/valkey-go"
)

const DefaultConnectTimeout = 5 * time.Second

type Config struct {
	Address        string
	Password       string
	DB             int
	KeyPrefix      string
	ConnectTimeout time.Duration
}

// Client wraps the valkey-go client with key prefixing and the SET NX
// lock helper the dispatcher uses to keep overlapping runs off the same
// tweet. The client is optional: dispatch stays correct without it.
type Client struct {
	inner     valkeylib.Client
	keyPrefix string
}

func NewClient(cfg Config) (*Client, error) {
	opts := valkeylib.ClientOption{
		InitAddress: []string{cfg.Address},
		SelectDB:    cfg.DB,
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	inner, err := valkeylib.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create valkey client: %w", err)
	}

	timeout := cfg.ConnectTimeout
	if timeout == 0 {
		timeout = DefaultConnectTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := inner.Do(ctx, inner.B().Ping().Build()).Error(); err != nil {
		inner.Close()
		return nil, fmt.Errorf("failed to ping valkey (timeout: %v): %w", timeout, err)
	}

	prefix := cfg.KeyPrefix
	if prefix != "" && !strings.HasSuffix(prefix, ":") {
		prefix += ":"
	}

	return &Client{inner: inner, keyPrefix: prefix}, nil
}

func (c *Client) Close() {
	if c.inner != nil {
		c.inner.Close()
	}
}

// Key constructs a prefixed key, e.g. Key("lock", "dispatch", id).
func (c *Client) Key(parts ...string) string {
	if len(parts) == 0 {
		return strings.TrimSuffix(c.keyPrefix, ":")
	}
	return c.keyPrefix + strings.Join(parts, ":")
}

// AcquireLock takes a best-effort SET NX lock with an expiry. Returns
// false when another holder won the key. Infrastructure errors report
// the lock as acquired: the Mongo claim is the correctness guard, the
// lock only saves wasted round trips.
func (c *Client) AcquireLock(ctx context.Context, key string, expiration time.Duration) bool {
	res := c.inner.Do(ctx, c.inner.B().Set().Key(key).Value("1").Nx().Ex(expiration).Build())
	if err := res.Error(); err != nil {
		if valkeylib.IsValkeyNil(err) {
			return false
		}
		logrus.WithError(err).Warn("[VALKEY] Lock attempt failed, proceeding without lock")
	}
	return true
}

// ReleaseLock drops a lock early; expiry covers the crash case.
func (c *Client) ReleaseLock(ctx context.Context, key string) {
	_ = c.inner.Do(ctx, c.inner.B().Del().Key(key).Build())
}

func (c *Client) Ping(ctx context.Context) error {
	return c.inner.Do(ctx, c.inner.B().Ping().Build()).Error()
}
