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

// Package settings provides the persisted key-value configuration of the
// application and typed accessors over it
package settings

import (
	"strconv"

	"github.com/dnote/scriptorium/pkg/server/database"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	// DefaultAutoSyncTime is the auto-sync interval in seconds used when none is stored
	DefaultAutoSyncTime = 5
	// DefaultColorScheme is the color scheme used when none is stored
	DefaultColorScheme = ColorSchemeAuto
	// DefaultSyntax is the syntax of new documents used when none is stored
	DefaultSyntax = SyntaxMarkdown
)

const (
	// ColorSchemeAuto follows the system color scheme
	ColorSchemeAuto = "auto"
	// ColorSchemeDark is the dark color scheme
	ColorSchemeDark = "dark"
	// ColorSchemeLight is the light color scheme
	ColorSchemeLight = "light"
)

const (
	// SyntaxMarkdown is the Markdown syntax
	SyntaxMarkdown = "md"
	// SyntaxAsciiDoc is the AsciiDoc syntax
	SyntaxAsciiDoc = "adoc"
	// SyntaxHTML is the HTML syntax
	SyntaxHTML = "html"
)

var (
	// ErrUnknownKey is an error for a setting key that does not exist
	ErrUnknownKey = errors.New("unknown setting")
	// ErrInvalidValue is an error for a value that is not valid for its setting
	ErrInvalidValue = errors.New("invalid setting value")
)

// AutoSyncConfig is the auto-sync configuration derived from the settings
type AutoSyncConfig struct {
	Enabled         bool
	IntervalSeconds int
}

// Settings is the typed view over every known setting
type Settings struct {
	ColorScheme   string `json:"color_scheme"`
	AutoSync      bool   `json:"auto_sync"`
	AutoSyncTime  int    `json:"auto_sync_time"`
	EditAndView   bool   `json:"edit_and_view"`
	DefaultSyntax string `json:"default_syntax"`
}

// Keys lists the known setting keys
var Keys = []string{
	database.SettingColorScheme,
	database.SettingAutoSync,
	database.SettingAutoSyncTime,
	database.SettingEditAndView,
	database.SettingDefaultSyntax,
}

// Store persists settings in the local database. Every key is written
// independently of the others.
type Store struct {
	db *gorm.DB
}

// NewStore returns a new store backed by the given database
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Get returns the value stored under the key and whether it was found
func (s *Store) Get(key string) (string, bool, error) {
	var rows []database.Setting
	if err := s.db.Where("key = ?", key).Limit(1).Find(&rows).Error; err != nil {
		return "", false, database.NewStorageError("reading setting "+key, err)
	}
	if len(rows) == 0 {
		return "", false, nil
	}

	return rows[0].Value, true, nil
}

// Set inserts or replaces the value stored under the key
func (s *Store) Set(key, value string) error {
	row := database.Setting{Key: key, Value: value}

	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&row).Error
	if err != nil {
		return database.NewStorageError("writing setting "+key, err)
	}

	return nil
}

// All returns every stored setting
func (s *Store) All() (map[string]string, error) {
	var rows []database.Setting
	if err := s.db.Find(&rows).Error; err != nil {
		return nil, database.NewStorageError("reading settings", err)
	}

	ret := make(map[string]string, len(rows))
	for _, r := range rows {
		ret[r.Key] = r.Value
	}

	return ret, nil
}

// Load returns the typed settings, falling back to defaults for absent or
// malformed values
func (s *Store) Load() (Settings, error) {
	all, err := s.All()
	if err != nil {
		return Settings{}, err
	}

	ret := Settings{
		ColorScheme:   DefaultColorScheme,
		AutoSyncTime:  DefaultAutoSyncTime,
		DefaultSyntax: DefaultSyntax,
	}

	if v, err := Normalize(database.SettingColorScheme, all[database.SettingColorScheme]); err == nil {
		ret.ColorScheme = v
	}
	if v, err := Normalize(database.SettingDefaultSyntax, all[database.SettingDefaultSyntax]); err == nil {
		ret.DefaultSyntax = v
	}
	if v, err := Normalize(database.SettingAutoSyncTime, all[database.SettingAutoSyncTime]); err == nil {
		ret.AutoSyncTime, _ = strconv.Atoi(v)
	}
	ret.AutoSync = all[database.SettingAutoSync] == "true"
	ret.EditAndView = all[database.SettingEditAndView] == "true"

	return ret, nil
}

// AutoSync returns the current auto-sync configuration
func (s *Store) AutoSync() (AutoSyncConfig, error) {
	st, err := s.Load()
	if err != nil {
		return AutoSyncConfig{}, err
	}

	return AutoSyncConfig{
		Enabled:         st.AutoSync,
		IntervalSeconds: st.AutoSyncTime,
	}, nil
}

// SetAutoSync persists whether auto-sync is enabled
func (s *Store) SetAutoSync(enabled bool) error {
	return s.Set(database.SettingAutoSync, strconv.FormatBool(enabled))
}

// SetAutoSyncTime persists the auto-sync interval in seconds
func (s *Store) SetAutoSyncTime(seconds int) error {
	v, err := Normalize(database.SettingAutoSyncTime, strconv.Itoa(seconds))
	if err != nil {
		return err
	}

	return s.Set(database.SettingAutoSyncTime, v)
}

// SetValidated validates and normalizes the value for the known key and persists it
func (s *Store) SetValidated(key, value string) (string, error) {
	v, err := Normalize(key, value)
	if err != nil {
		return "", err
	}

	if err := s.Set(key, v); err != nil {
		return "", err
	}

	return v, nil
}
