package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net"
	"strconv"
	"time"

	mysqldrv "github.com/go-sql-driver/mysql"

	"github.com/zeptools/gw-pdfedit/db/sqldb"
)

const (
	DBType                   = "mysql"
	DefaultPlaceholderPrefix = '?'
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

// Ensure mysql.Client implements sqldb.Client interface
var _ sqldb.Client = (*Client)(nil)

func (c *Client) Init() error {
	c.dsn = c.Conf.DSN
	if c.dsn == "" {
		loc := time.UTC
		if c.Conf.TZ != "" {
			l, err := time.LoadLocation(c.Conf.TZ)
			if err != nil {
				return fmt.Errorf("mysql tz: %w", err)
			}
			loc = l
		}
		cfg := mysqldrv.NewConfig()
		cfg.User = c.Conf.User
		cfg.Passwd = c.Conf.PW
		cfg.Net = "tcp"
		cfg.Addr = net.JoinHostPort(c.Conf.Host, strconv.Itoa(c.Conf.Port))
		cfg.DBName = c.Conf.DB
		cfg.ParseTime = true
		cfg.Loc = loc
		cfg.Params = map[string]string{"sql_mode": "ANSI_QUOTES"}
		c.dsn = cfg.FormatDSN()
	}
	var err error
	if c.rawStore, err = sqldb.LoadRawStmts(DBType, DefaultPlaceholderPrefix); err != nil {
		return err
	}
	if c.DB, err = sql.Open("mysql", c.dsn); err != nil {
		return err
	}
	conns := max(c.Conf.MaxConns, 2)
	c.DB.SetMaxOpenConns(conns)
	c.DB.SetMaxIdleConns(conns)
	c.DB.SetConnMaxLifetime(3 * time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err = c.Ping(ctx); err != nil {
		return fmt.Errorf("mysql ping: %w", err)
	}
	log.Printf("[INFO][MYSQL] connected, max %d conns", conns)
	return nil
}

func (c *Client) GetConf() *sqldb.Conf {
	return c.Conf
}

func (c *Client) RawStmt(key string) (string, error) {
	return c.rawStore.Get(key)
}

func (c *Client) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

func (c *Client) Close() error {
	if c.DB == nil {
		return nil
	}
	if err := c.DB.Close(); err != nil {
		return err
	}
	log.Println("[INFO][MYSQL] client closed")
	return nil
}
