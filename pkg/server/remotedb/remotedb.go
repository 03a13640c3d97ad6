/* Copyright 2025 Dnote Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package remotedb connects to the MySQL and PostgreSQL servers used as
// synchronization targets
package remotedb

import (
	"context"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/dnote/scriptorium/pkg/server/database"
	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrUnrecognizedType is returned when a remote server has a database type
// with no driver
var ErrUnrecognizedType = errors.New("Unrecognized database type")

// minConnectTimeout is the lower bound of the connect timeout
const minConnectTimeout = time.Second

// ConnectTimeout returns how long to wait for a remote connection given the
// auto-sync interval in seconds. It is one second shorter than the interval
// so that an attempt gives up before the next tick.
func ConnectTimeout(intervalSeconds int) time.Duration {
	d := time.Duration(intervalSeconds)*time.Second - time.Second
	if d < minConnectTimeout {
		return minConnectTimeout
	}

	return d
}

func hostPort(s database.RemoteServer) string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// MySQLDSN builds the go-sql-driver connection string for the server
func MySQLDSN(s database.RemoteServer, timeout time.Duration) string {
	cfg := mysql.NewConfig()
	cfg.User = s.User
	cfg.Passwd = s.Password
	cfg.Net = "tcp"
	cfg.Addr = hostPort(s)
	cfg.DBName = s.DB
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	cfg.Timeout = timeout

	return cfg.FormatDSN()
}

// PostgresDSN builds the connection URL for the server
func PostgresDSN(s database.RemoteServer, timeout time.Duration) string {
	q := url.Values{}
	q.Set("sslmode", "prefer")
	q.Set("connect_timeout", strconv.Itoa(int(timeout/time.Second)))

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(s.User, s.Password),
		Host:     hostPort(s),
		Path:     "/" + s.DB,
		RawQuery: q.Encode(),
	}

	return u.String()
}

// Dialect returns the migration dialect for the database type
func Dialect(dbType string) (string, error) {
	switch dbType {
	case database.DBTypeMySQL:
		return DialectMySQL, nil
	case database.DBTypePostgreSQL:
		return DialectPostgres, nil
	}

	return "", ErrUnrecognizedType
}

func dialector(s database.RemoteServer, timeout time.Duration) (gorm.Dialector, error) {
	switch s.DBType {
	case database.DBTypeMySQL:
		return gormmysql.Open(MySQLDSN(s, timeout)), nil
	case database.DBTypePostgreSQL:
		return postgres.Open(PostgresDSN(s, timeout)), nil
	}

	return nil, ErrUnrecognizedType
}

// Open connects to the remote server, waits at most timeout for it to answer,
// and brings its schema up to date
func Open(ctx context.Context, s database.RemoteServer, timeout time.Duration) (*gorm.DB, error) {
	d, err := dialector(s, timeout)
	if err != nil {
		return nil, err
	}
	dialect, err := Dialect(s.DBType)
	if err != nil {
		return nil, err
	}

	return OpenDialector(ctx, d, dialect, timeout)
}

// OpenDialector opens a connection with the given gorm dialector and runs the
// migrations for the dialect
func OpenDialector(ctx context.Context, d gorm.Dialector, dialect string, timeout time.Duration) (*gorm.DB, error) {
	db, err := gorm.Open(d, &gorm.Config{
		Logger:               logger.Default.LogMode(logger.Silent),
		DisableAutomaticPing: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "opening remote connection")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "getting the underlying connection pool")
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := sqlDB.PingContext(pingCtx); err != nil {
		sqlDB.Close()
		return nil, err
	}

	if _, err := Migrate(ctx, sqlDB, dialect); err != nil {
		sqlDB.Close()
		return nil, err
	}

	return db, nil
}
