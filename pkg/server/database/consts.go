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

package database

const (
	// DBTypeMySQL is the type of a MySQL remote server
	DBTypeMySQL = "mysql"
	// DBTypePostgreSQL is the type of a PostgreSQL remote server
	DBTypePostgreSQL = "postgresql"
)

const (
	// BookIDDefault is the id of the book created with every new database
	BookIDDefault = "default"
	// BookIDTrash is the id of the book holding trashed documents
	BookIDTrash = "trash"
)

const (
	// SettingColorScheme is the key for the color scheme
	SettingColorScheme = "color_scheme"
	// SettingAutoSync is the key for the auto-sync toggle
	SettingAutoSync = "auto_sync"
	// SettingAutoSyncTime is the key for the auto-sync interval in seconds
	SettingAutoSyncTime = "auto_sync_time"
	// SettingEditAndView is the key for the side-by-side edit and view mode
	SettingEditAndView = "edit_and_view"
	// SettingDefaultSyntax is the key for the syntax of new documents
	SettingDefaultSyntax = "default_syntax"
)
