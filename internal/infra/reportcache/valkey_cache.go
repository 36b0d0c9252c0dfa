package reportcache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/smart-irrigation/internal/domain/report"
)

// ValkeyCache stores computed report responses in a Valkey-compatible database.
type ValkeyCache struct {
	client valkey.Client
	prefix string
}

// NewValkeyCache constructs a cache backed by Valkey.
func NewValkeyCache(client valkey.Client, prefix string) *ValkeyCache {
	if prefix == "" {
		prefix = "irrigation"
	}
	return &ValkeyCache{client: client, prefix: prefix}
}

func (c *ValkeyCache) Get(ctx context.Context, userID int64) (report.Response, bool, error) {
	if userID <= 0 {
		return report.Response{}, false, nil
	}
	payload, err := c.client.Do(ctx, c.client.B().Get().Key(c.key(userID)).Build()).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return report.Response{}, false, nil
		}
		return report.Response{}, false, err
	}
	var resp report.Response
	if err := json.Unmarshal([]byte(payload), &resp); err != nil {
		return report.Response{}, false, err
	}
	return resp, true, nil
}

func (c *ValkeyCache) Set(ctx context.Context, userID int64, resp report.Response, ttl time.Duration) error {
	payload, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	builder := c.client.B().Set().Key(c.key(userID)).Value(string(payload))
	var cmd valkey.Completed
	if ttl > 0 {
		if ttl < time.Second {
			ttl = time.Second
		}
		cmd = builder.Ex(ttl).Build()
	} else {
		cmd = builder.Build()
	}
	return c.client.Do(ctx, cmd).Error()
}

func (c *ValkeyCache) Delete(ctx context.Context, userID int64) error {
	return c.client.Do(ctx, c.client.B().Del().Key(c.key(userID)).Build()).Error()
}

func (c *ValkeyCache) key(userID int64) string {
	return fmt.Sprintf("%s:report:%d", c.prefix, userID)
}

var _ report.Cache = (*ValkeyCache)(nil)
