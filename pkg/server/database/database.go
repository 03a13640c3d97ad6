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

// Package database provides the local embedded store and its schema
package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dnote/scriptorium/pkg/server/log"
	"github.com/pkg/errors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// getDBLogLevel maps the application log level to the gorm log level. Queries
// are only printed in debug mode.
func getDBLogLevel(level string) logger.LogLevel {
	switch level {
	case log.LevelDebug:
		return logger.Info
	case log.LevelWarn:
		return logger.Warn
	case log.LevelError:
		return logger.Error
	default:
		return logger.Silent
	}
}

// DSN returns the sqlite connection string for the database file at the given path
func DSN(dbPath string) string {
	return fmt.Sprintf("file:%s?_foreign_keys=1&_busy_timeout=5000&_journal_mode=WAL", dbPath)
}

// OpenDSN opens a connection with the given sqlite connection string. The
// pool is limited to a single connection so that writers never contend.
func OpenDSN(dsn, logLevel string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(getDBLogLevel(logLevel)),
	})
	if err != nil {
		return nil, errors.Wrap(err, "opening database connection")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "getting the underlying connection pool")
	}
	sqlDB.SetMaxOpenConns(1)

	return db, nil
}

// Open initializes the database connection, creating the parent directory
// of the database file if it does not exist
func Open(dbPath, logLevel string) (*gorm.DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrapf(err, "creating database directory at %s", dir)
	}

	return OpenDSN(DSN(dbPath), logLevel)
}

// Init opens the database at the given path and brings its schema up to date
func Init(dbPath, logLevel string) (*gorm.DB, error) {
	db, err := Open(dbPath, logLevel)
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		Close(db)
		return nil, errors.Wrap(err, "running migrations")
	}

	return db, nil
}

// Close closes the underlying connection pool
func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.ErrorWrap(err, "closing database")
	}
}
