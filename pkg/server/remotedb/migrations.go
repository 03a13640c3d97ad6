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

package remotedb

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	migrate "github.com/rubenv/sql-migrate"
)

// Migration dialects understood by sql-migrate
const (
	DialectMySQL    = "mysql"
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite3"
)

// MigrationTableName is the table that records applied remote migrations
const MigrationTableName = "scriptorium_migrations"

var mysqlMigrations = []*migrate.Migration{
	{
		Id: "1-books",
		Up: []string{`CREATE TABLE IF NOT EXISTS books (
	id VARCHAR(64) NOT NULL PRIMARY KEY,
	name VARCHAR(255) NOT NULL DEFAULT '',
	modified DATETIME(6) NOT NULL,
	icon VARCHAR(255) NOT NULL DEFAULT '',
	icon_color VARCHAR(32) NOT NULL DEFAULT '',
	trash TINYINT(1) NOT NULL DEFAULT 0
)`},
		Down: []string{"DROP TABLE books"},
	},
	{
		Id: "2-documents",
		Up: []string{`CREATE TABLE IF NOT EXISTS documents (
	id VARCHAR(64) NOT NULL PRIMARY KEY,
	book VARCHAR(64) NOT NULL,
	name VARCHAR(255) NOT NULL DEFAULT '',
	content LONGTEXT NOT NULL,
	syntax VARCHAR(16) NOT NULL DEFAULT 'md',
	modified DATETIME(6) NOT NULL,
	icon VARCHAR(255) NOT NULL DEFAULT '',
	icon_color VARCHAR(32) NOT NULL DEFAULT '',
	CONSTRAINT fk_documents_book FOREIGN KEY (book) REFERENCES books (id) ON DELETE CASCADE
)`},
		Down: []string{"DROP TABLE documents"},
	},
	{
		Id:   "3-deleted",
		Up:   []string{"CREATE TABLE IF NOT EXISTS deleted (id VARCHAR(64) NOT NULL PRIMARY KEY)"},
		Down: []string{"DROP TABLE deleted"},
	},
}

var postgresMigrations = []*migrate.Migration{
	{
		Id: "1-books",
		Up: []string{`CREATE TABLE IF NOT EXISTS books (
	id VARCHAR(64) NOT NULL PRIMARY KEY,
	name TEXT NOT NULL DEFAULT '',
	modified TIMESTAMPTZ NOT NULL,
	icon TEXT NOT NULL DEFAULT '',
	icon_color TEXT NOT NULL DEFAULT '',
	trash BOOLEAN NOT NULL DEFAULT FALSE
)`},
		Down: []string{"DROP TABLE books"},
	},
	{
		Id: "2-documents",
		Up: []string{`CREATE TABLE IF NOT EXISTS documents (
	id VARCHAR(64) NOT NULL PRIMARY KEY,
	book VARCHAR(64) NOT NULL REFERENCES books (id) ON DELETE CASCADE,
	name TEXT NOT NULL DEFAULT '',
	content TEXT NOT NULL DEFAULT '',
	syntax TEXT NOT NULL DEFAULT 'md',
	modified TIMESTAMPTZ NOT NULL,
	icon TEXT NOT NULL DEFAULT '',
	icon_color TEXT NOT NULL DEFAULT ''
)`},
		Down: []string{"DROP TABLE documents"},
	},
	{
		Id:   "3-deleted",
		Up:   []string{"CREATE TABLE IF NOT EXISTS deleted (id VARCHAR(64) NOT NULL PRIMARY KEY)"},
		Down: []string{"DROP TABLE deleted"},
	},
}

var sqliteMigrations = []*migrate.Migration{
	{
		Id: "1-books",
		Up: []string{`CREATE TABLE IF NOT EXISTS books (
	id VARCHAR(64) NOT NULL PRIMARY KEY,
	name TEXT NOT NULL DEFAULT '',
	modified DATETIME NOT NULL,
	icon TEXT NOT NULL DEFAULT '',
	icon_color TEXT NOT NULL DEFAULT '',
	trash BOOLEAN NOT NULL DEFAULT 0
)`},
		Down: []string{"DROP TABLE books"},
	},
	{
		Id: "2-documents",
		Up: []string{`CREATE TABLE IF NOT EXISTS documents (
	id VARCHAR(64) NOT NULL PRIMARY KEY,
	book VARCHAR(64) NOT NULL REFERENCES books (id) ON DELETE CASCADE,
	name TEXT NOT NULL DEFAULT '',
	content TEXT NOT NULL DEFAULT '',
	syntax TEXT NOT NULL DEFAULT 'md',
	modified DATETIME NOT NULL,
	icon TEXT NOT NULL DEFAULT '',
	icon_color TEXT NOT NULL DEFAULT ''
)`},
		Down: []string{"DROP TABLE documents"},
	},
	{
		Id:   "3-deleted",
		Up:   []string{"CREATE TABLE IF NOT EXISTS deleted (id VARCHAR(64) NOT NULL PRIMARY KEY)"},
		Down: []string{"DROP TABLE deleted"},
	},
}

var sources = map[string]migrate.MigrationSource{
	DialectMySQL:    migrate.MemoryMigrationSource{Migrations: mysqlMigrations},
	DialectPostgres: migrate.MemoryMigrationSource{Migrations: postgresMigrations},
	DialectSQLite:   migrate.MemoryMigrationSource{Migrations: sqliteMigrations},
}

// Migrate applies pending remote migrations for the dialect and returns how
// many were applied
func Migrate(ctx context.Context, db *sql.DB, dialect string) (int, error) {
	src, ok := sources[dialect]
	if !ok {
		return 0, ErrUnrecognizedType
	}

	ms := migrate.MigrationSet{TableName: MigrationTableName}
	n, err := ms.ExecContext(ctx, db, dialect, src, migrate.Up)
	if err != nil {
		return n, errors.Wrap(err, "running remote migrations")
	}

	return n, nil
}
