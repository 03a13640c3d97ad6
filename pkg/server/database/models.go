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

import (
	"time"
)

// Book is a named collection of documents
type Book struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Name      string    `gorm:"not null;default:''" json:"name"`
	Modified  time.Time `gorm:"not null" json:"modified"`
	Icon      string    `gorm:"not null;default:''" json:"icon"`
	IconColor string    `gorm:"not null;default:''" json:"icon_color"`
	Trash     bool      `gorm:"not null;default:false" json:"trash"`
}

// Document is a single unit of note content
type Document struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	BookID    string    `gorm:"column:book;type:varchar(64);not null" json:"book"`
	Name      string    `gorm:"not null;default:''" json:"name"`
	Content   string    `gorm:"not null;default:''" json:"content"`
	Syntax    string    `gorm:"not null;default:'md'" json:"syntax"`
	Modified  time.Time `gorm:"not null" json:"modified"`
	Icon      string    `gorm:"not null;default:''" json:"icon"`
	IconColor string    `gorm:"not null;default:''" json:"icon_color"`
}

// Deleted is a tombstone for a permanently deleted book or document
type Deleted struct {
	ID string `gorm:"primaryKey;type:varchar(64)"`
}

// TableName overrides the pluralized table name
func (Deleted) TableName() string {
	return "deleted"
}

// RemoteServer is the connection descriptor of a remote database used as
// a synchronization target
type RemoteServer struct {
	ID       string `gorm:"primaryKey" json:"id"`
	DBType   string `gorm:"column:db_type;not null" json:"db_type"`
	Host     string `gorm:"not null" json:"host"`
	Port     int    `gorm:"not null" json:"port"`
	DB       string `gorm:"column:db;not null" json:"db"`
	User     string `gorm:"not null" json:"user"`
	Password string `gorm:"not null" json:"password"`
}

// Setting is a persisted key-value configuration entry
type Setting struct {
	Key   string `gorm:"primaryKey"`
	Value string `gorm:"not null"`
}
