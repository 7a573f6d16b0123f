package pgsql

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zeptools/gw-pdfedit/db/sqldb"
)

const (
	DBType                   = "pgsql"
	DefaultPlaceholderPrefix = '$'
)

func init() {
	sqldb.RegisterFactory(DBType, func(conf *sqldb.Conf) (sqldb.Client, error) {
		return &Client{Conf: conf}, nil
	})
}

type Client struct {
	Handle   // [Embedded] for Promoted Methods
	Conf     *sqldb.Conf
	rawStore *sqldb.RawSQLStore
	dsn      string
}

// Ensure pgsql.Client implements sqldb.Client interface
var _ sqldb.Client = (*Client)(nil)

func (c *Client) Init() error {
	c.dsn = c.Conf.DSN
	if c.dsn == "" {
		q := url.Values{"sslmode": {"disable"}}
		if c.Conf.TZ != "" {
			q.Set("timezone", c.Conf.TZ)
		}
		c.dsn = (&url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(c.Conf.User, c.Conf.PW),
			Host:     net.JoinHostPort(c.Conf.Host, strconv.Itoa(c.Conf.Port)),
			Path:     "/" + c.Conf.DB,
			RawQuery: q.Encode(),
		}).String()
	}
	var err error
	if c.rawStore, err = sqldb.LoadRawStmts(DBType, DefaultPlaceholderPrefix); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	cfg, err := pgxpool.ParseConfig(c.dsn)
	if err != nil {
		return fmt.Errorf("pgsql dsn: %w", err)
	}
	cfg.MaxConns = int32(max(c.Conf.MaxConns, 2))
	cfg.MinConns = 1
	cfg.MaxConnLifetime = 3 * time.Minute
	if c.Pool, err = pgxpool.NewWithConfig(ctx, cfg); err != nil {
		return fmt.Errorf("pgsql pool: %w", err)
	}
	if err = c.Ping(ctx); err != nil {
		return fmt.Errorf("pgsql ping %s: %w", cfg.ConnConfig.Host, err)
	}
	log.Printf("[INFO][PGSQL] connected to %s/%s, max %d conns", cfg.ConnConfig.Host, cfg.ConnConfig.Database, cfg.MaxConns)
	return nil
}

func (c *Client) GetConf() *sqldb.Conf {
	return c.Conf
}

func (c *Client) RawStmt(key string) (string, error) {
	return c.rawStore.Get(key)
}

func (c *Client) Ping(ctx context.Context) error {
	return c.Pool.Ping(ctx)
}

func (c *Client) Close() error {
	if c.Pool == nil {
		return nil
	}
	c.Pool.Close()
	log.Println("[INFO][PGSQL] client closed")
	return nil
}
