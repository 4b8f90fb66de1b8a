package memoize

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// SQLCache memoizes into a relational table so results are shared and
// durable. Supported drivers: "sqlite", "mysql" and "pgx"/"postgres".
// Expired rows are reaped lazily on lookup.
type SQLCache struct {
	db         *sql.DB
	table      string
	driverName string
	prefix     string
	ttl        time.Duration
	codec      Codec
	getStmt    *sql.Stmt
	upsertStmt *sql.Stmt
	deleteStmt *sql.Stmt
	flushStmt  *sql.Stmt
}

var sqlIdentPartRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// NewSQLCache opens dsn with driverName and prepares the memo table.
//
// Example: durable memoization in sqlite
//
//	c, err := memoize.NewSQLCache("sqlite", "file:memo.db?mode=memory&cache=shared", "memo_entries")
//	fmt.Println(err == nil, c.Driver()) // true sql
func NewSQLCache(driverName, dsn, table string, opts ...CacheOption) (*SQLCache, error) {
	if driverName == "" || dsn == "" {
		return nil, errors.New("memoize: sql cache requires driver name and dsn")
	}
	if table == "" {
		table = "memo_entries"
	}
	if err := validateSQLTableName(table); err != nil {
		return nil, err
	}
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	cfg := resolveCacheConfig(opts)
	c := &SQLCache{
		db:         db,
		table:      table,
		driverName: driverName,
		prefix:     cfg.Prefix,
		ttl:        cfg.TTL,
		codec:      cfg.Codec,
	}
	if err := c.ensureSchema(); err != nil {
		return nil, err
	}
	if err := c.prepareStatements(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *SQLCache) Driver() Driver { return DriverSQL }

func (c *SQLCache) Lookup(ctx context.Context, key string) (any, bool) {
	var body []byte
	var exp int64
	err := c.getStmt.QueryRowContext(ctx, c.cacheKey(key)).Scan(&body, &exp)
	if err != nil {
		return nil, false
	}
	if time.Now().UnixMilli() > exp {
		_, _ = c.deleteStmt.ExecContext(ctx, c.cacheKey(key))
		return nil, false
	}
	value, err := c.codec.Decode(body)
	if err != nil {
		return nil, false
	}
	return value, true
}

func (c *SQLCache) Store(ctx context.Context, key string, value any) bool {
	body, err := c.codec.Encode(value)
	if err != nil {
		return false
	}
	exp := time.Now().Add(c.ttl).UnixMilli()
	_, err = c.upsertStmt.ExecContext(ctx, c.cacheKey(key), body, exp, body, exp)
	return err == nil
}

// Flush removes every row from the memo table.
func (c *SQLCache) Flush(ctx context.Context) error {
	_, err := c.flushStmt.ExecContext(ctx)
	return err
}

// Close releases the underlying database handle.
func (c *SQLCache) Close() error {
	return c.db.Close()
}

func (c *SQLCache) ensureSchema() error {
	var stmt string
	switch c.driverName {
	case "postgres", "pgx":
		stmt = fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			k TEXT PRIMARY KEY,
			v BYTEA NOT NULL,
			ea BIGINT NOT NULL
		);`, c.table)
	case "mysql":
		stmt = fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			k VARBINARY(255) PRIMARY KEY,
			v LONGBLOB NOT NULL,
			ea BIGINT NOT NULL
		) ENGINE=InnoDB;`, c.table)
	default: // sqlite
		stmt = fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			k TEXT PRIMARY KEY,
			v BLOB NOT NULL,
			ea INTEGER NOT NULL
		);`, c.table)
	}
	_, err := c.db.Exec(stmt)
	return err
}

func (c *SQLCache) prepareStatements() error {
	var err error
	if c.getStmt, err = c.db.Prepare(fmt.Sprintf("SELECT v, ea FROM %s WHERE k = %s", c.table, c.ph(1))); err != nil {
		return err
	}
	if c.upsertStmt, err = c.db.Prepare(c.upsertSQL()); err != nil {
		return err
	}
	if c.deleteStmt, err = c.db.Prepare(fmt.Sprintf("DELETE FROM %s WHERE k = %s", c.table, c.ph(1))); err != nil {
		return err
	}
	if c.flushStmt, err = c.db.Prepare(fmt.Sprintf("DELETE FROM %s", c.table)); err != nil {
		return err
	}
	return nil
}

func (c *SQLCache) upsertSQL() string {
	// Placeholders must be positional for postgres/pgx.
	p1, p2, p3, p4, p5 := c.ph(1), c.ph(2), c.ph(3), c.ph(4), c.ph(5)
	switch c.driverName {
	case "postgres", "pgx":
		return fmt.Sprintf("INSERT INTO %s (k, v, ea) VALUES (%s, %s, %s) ON CONFLICT (k) DO UPDATE SET v = %s, ea = %s", c.table, p1, p2, p3, p4, p5)
	case "mysql":
		return fmt.Sprintf("INSERT INTO %s (k, v, ea) VALUES (%s, %s, %s) ON DUPLICATE KEY UPDATE v = %s, ea = %s", c.table, p1, p2, p3, p4, p5)
	default: // sqlite
		return fmt.Sprintf("INSERT INTO %s (k, v, ea) VALUES (%s, %s, %s) ON CONFLICT(k) DO UPDATE SET v = %s, ea = %s", c.table, p1, p2, p3, p4, p5)
	}
}

func (c *SQLCache) ph(i int) string {
	if c.driverName == "postgres" || c.driverName == "pgx" {
		return fmt.Sprintf("$%d", i)
	}
	return "?"
}

func (c *SQLCache) cacheKey(key string) string {
	if c.prefix == "" {
		return key
	}
	return c.prefix + ":" + key
}

func validateSQLTableName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("memoize: sql table name is required")
	}
	for _, part := range strings.Split(name, ".") {
		if !sqlIdentPartRE.MatchString(part) {
			return fmt.Errorf("memoize: invalid sql table name %q", name)
		}
	}
	return nil
}

var _ Cache = (*SQLCache)(nil)
