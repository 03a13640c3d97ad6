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

// Package remotes provides the registry of remote database servers used as
// synchronization targets
package remotes

import (
	"strings"

	"github.com/dnote/scriptorium/pkg/server/database"
	"github.com/dnote/scriptorium/pkg/server/helpers"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

var (
	// ErrDuplicate is an error for a descriptor whose host, port and database
	// are already registered
	ErrDuplicate = errors.New("a remote server with the same host, port and database already exists")
	// ErrInvalidType is an error for an unsupported database type
	ErrInvalidType = errors.New("Unrecognized database type")
	// ErrInvalidHost is an error for an empty host
	ErrInvalidHost = errors.New("host is required")
	// ErrInvalidPort is an error for a port outside of the valid range
	ErrInvalidPort = errors.New("port must be between 1 and 65535")
	// ErrInvalidDB is an error for an empty database name
	ErrInvalidDB = errors.New("database is required")
	// ErrInvalidUser is an error for an empty user
	ErrInvalidUser = errors.New("user is required")
)

// Params are the user-editable fields of a remote server descriptor
type Params struct {
	DBType   string `json:"db_type" schema:"db_type"`
	Host     string `json:"host" schema:"host"`
	Port     int    `json:"port" schema:"port"`
	DB       string `json:"db" schema:"db"`
	User     string `json:"user" schema:"user"`
	Password string `json:"password" schema:"password"`
}

// FromServer returns the params of the given descriptor
func FromServer(s database.RemoteServer) Params {
	return Params{
		DBType:   s.DBType,
		Host:     s.Host,
		Port:     s.Port,
		DB:       s.DB,
		User:     s.User,
		Password: s.Password,
	}
}

// DefaultPort returns the default port of the given database type
func DefaultPort(dbType string) int {
	if dbType == database.DBTypePostgreSQL {
		return 5432
	}

	return 3306
}

// DefaultParams returns the template used when a new remote server is added
func DefaultParams() Params {
	return Params{
		DBType:   database.DBTypeMySQL,
		Host:     "localhost",
		Port:     DefaultPort(database.DBTypeMySQL),
		DB:       "mysql",
		User:     "mysql",
		Password: "",
	}
}

// Validate checks that the params describe a connectable server
func Validate(p Params) error {
	if p.DBType != database.DBTypeMySQL && p.DBType != database.DBTypePostgreSQL {
		return errors.Wrapf(ErrInvalidType, "'%s'", p.DBType)
	}
	if strings.TrimSpace(p.Host) == "" {
		return ErrInvalidHost
	}
	if p.Port < 1 || p.Port > 65535 {
		return ErrInvalidPort
	}
	if strings.TrimSpace(p.DB) == "" {
		return ErrInvalidDB
	}
	if strings.TrimSpace(p.User) == "" {
		return ErrInvalidUser
	}

	return nil
}

// IsValidationError reports whether the error was returned by Validate
func IsValidationError(err error) bool {
	switch errors.Cause(err) {
	case ErrInvalidType, ErrInvalidHost, ErrInvalidPort, ErrInvalidDB, ErrInvalidUser:
		return true
	}

	return false
}

// Registry stores remote server descriptors in the local database
type Registry struct {
	db *gorm.DB
}

// NewRegistry returns a registry backed by the given database
func NewRegistry(db *gorm.DB) *Registry {
	return &Registry{db: db}
}

// List returns every registered remote server
func (r *Registry) List() ([]database.RemoteServer, error) {
	var ret []database.RemoteServer
	if err := r.db.Order("host, port, db").Find(&ret).Error; err != nil {
		return nil, database.NewStorageError("listing remote servers", err)
	}

	return ret, nil
}

// Get returns the remote server with the given id
func (r *Registry) Get(id string) (database.RemoteServer, error) {
	var ret []database.RemoteServer
	if err := r.db.Where("id = ?", id).Limit(1).Find(&ret).Error; err != nil {
		return database.RemoteServer{}, database.NewStorageError("finding remote server", err)
	}
	if len(ret) == 0 {
		return database.RemoteServer{}, errors.Wrapf(database.ErrNotFound, "remote server %s", id)
	}

	return ret[0], nil
}

// IsDuplicate reports whether another descriptor than the excluded one has the
// same host, port and database. It is advisory. Create and Update enforce the
// same rule atomically.
func (r *Registry) IsDuplicate(p Params, excludeID string) (bool, error) {
	var count int64

	q := r.db.Model(&database.RemoteServer{}).Where("host = ? AND port = ? AND db = ?", strings.TrimSpace(p.Host), p.Port, strings.TrimSpace(p.DB))
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, database.NewStorageError("checking duplicate remote server", err)
	}

	return count > 0, nil
}

// Create registers a new remote server under a fresh id and returns the id
func (r *Registry) Create(p Params) (string, error) {
	if err := Validate(p); err != nil {
		return "", err
	}

	id, err := helpers.GenUUID()
	if err != nil {
		return "", err
	}

	s := database.RemoteServer{ID: id}
	apply(&s, p)

	if err := r.db.Create(&s).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return "", ErrDuplicate
		}

		return "", database.NewStorageError("inserting remote server", err)
	}

	return id, nil
}

// Update replaces every field of the remote server but its id
func (r *Registry) Update(id string, p Params) error {
	if err := Validate(p); err != nil {
		return err
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&database.RemoteServer{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return database.NewStorageError("finding remote server", err)
		}
		if count == 0 {
			return errors.Wrapf(database.ErrNotFound, "remote server %s", id)
		}

		s := database.RemoteServer{ID: id}
		apply(&s, p)

		if err := tx.Save(&s).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return ErrDuplicate
			}

			return database.NewStorageError("updating remote server", err)
		}

		return nil
	})
}

// Delete removes the remote server. Deleting an absent server is not an error.
func (r *Registry) Delete(id string) error {
	if err := r.db.Where("id = ?", id).Delete(&database.RemoteServer{}).Error; err != nil {
		return database.NewStorageError("deleting remote server", err)
	}

	return nil
}

func apply(s *database.RemoteServer, p Params) {
	s.DBType = p.DBType
	s.Host = strings.TrimSpace(p.Host)
	s.Port = p.Port
	s.DB = strings.TrimSpace(p.DB)
	s.User = strings.TrimSpace(p.User)
	s.Password = p.Password
}
