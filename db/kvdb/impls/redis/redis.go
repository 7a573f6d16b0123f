package redis

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/zeptools/gw-pdfedit/db/kvdb"
)

type Client struct {
	Conf *kvdb.Conf
	rdb  *goredis.Client
}

// Ensure redis.Client implements kvdb.Client
var _ kvdb.Client = (*Client)(nil)

func (c *Client) Init() error {
	timeout := c.Conf.Timeout()
	c.rdb = goredis.NewClient(&goredis.Options{
		Addr:         net.JoinHostPort(c.Conf.Host, strconv.Itoa(c.Conf.Port)),
		Password:     c.Conf.PW,
		DB:           c.Conf.DB,
		PoolSize:     c.Conf.PoolSize,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	})
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping %s: %w", c.rdb.Options().Addr, err)
	}
	log.Printf("[INFO][Redis] connected to %s db=%d", c.rdb.Options().Addr, c.Conf.DB)
	return nil
}

func (c *Client) Close() error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

func (c *Client) GetConf() *kvdb.Conf {
	return c.Conf
}

func (c *Client) Delete(ctx context.Context, keys ...string) (int64, error) {
	return c.rdb.Del(ctx, keys...).Result()
}

func (c *Client) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return c.rdb.Expire(ctx, key, ttl).Result()
}

// ScanKeys takes and returns a uint64 cursor. Redis ends a scan with cursor 0.
func (c *Client) ScanKeys(ctx context.Context, cursor any, match string, batch int) ([]string, any, error) {
	var cur uint64
	if cursor != nil {
		var ok bool
		if cur, ok = cursor.(uint64); !ok {
			return nil, nil, fmt.Errorf("redis scan: bad cursor %T", cursor)
		}
	}
	keys, next, err := c.rdb.Scan(ctx, cur, match, int64(batch)).Result()
	if err != nil || next == 0 {
		return keys, nil, err
	}
	return keys, next, nil
}

// PutHash runs HSET and EXPIRE in a MULTI block so a record never lives without a ttl
func (c *Client) PutHash(ctx context.Context, key string, fields map[string]any, ttl time.Duration) error {
	_, err := c.rdb.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.HSet(ctx, key, fields)
		p.Expire(ctx, key, ttl)
		return nil
	})
	return err
}

func (c *Client) GetHashField(ctx context.Context, key string, field string) (string, bool, error) {
	val, err := c.rdb.HGet(ctx, key, field).Result()
	switch {
	case errors.Is(err, goredis.Nil):
		return "", false, nil
	case err != nil:
		return "", false, err
	}
	return val, true, nil
}

func (c *Client) GetHash(ctx context.Context, key string) (map[string]string, error) {
	return c.rdb.HGetAll(ctx, key).Result()
}
