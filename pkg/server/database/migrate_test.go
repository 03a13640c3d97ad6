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
	"io/fs"
	"testing"
	"testing/fstest"
	"time"

	"github.com/dnote/scriptorium/pkg/assert"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// unsortedFS wraps fstest.MapFS to return entries in reverse order
type unsortedFS struct {
	fstest.MapFS
}

func (u unsortedFS) ReadDir(name string) ([]fs.DirEntry, error) {
	entries, err := u.MapFS.ReadDir(name)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

// errorFS returns an error on ReadDir
type errorFS struct{}

func (e errorFS) Open(name string) (fs.File, error) {
	return nil, fs.ErrNotExist
}

func (e errorFS) ReadDir(name string) ([]fs.DirEntry, error) {
	return nil, fs.ErrPermission
}

func openMemoryDB(t *testing.T) *gorm.DB {
	db, err := OpenDSN("file::memory:?_foreign_keys=1", "")
	if err != nil {
		t.Fatal(errors.Wrap(err, "opening database"))
	}
	t.Cleanup(func() { Close(db) })

	return db
}

func TestMigrate_ordering(t *testing.T) {
	db := openMemoryDB(t)

	if err := db.Exec("CREATE TABLE log (value INTEGER)").Error; err != nil {
		t.Fatalf("failed to create table: %v", err)
	}

	migrationsFs := unsortedFS{
		MapFS: fstest.MapFS{
			"010-tenth.sql":  &fstest.MapFile{Data: []byte("INSERT INTO log (value) VALUES (3);")},
			"001-first.sql":  &fstest.MapFile{Data: []byte("INSERT INTO log (value) VALUES (1);")},
			"002-second.sql": &fstest.MapFile{Data: []byte("INSERT INTO log (value) VALUES (2);")},
		},
	}

	if err := migrate(db, migrationsFs); err != nil {
		t.Fatalf("migration failed: %v", err)
	}
	// Running again is a no-op
	if err := migrate(db, migrationsFs); err != nil {
		t.Fatalf("second migration failed: %v", err)
	}

	var values []int
	if err := db.Raw("SELECT value FROM log ORDER BY rowid").Scan(&values).Error; err != nil {
		t.Fatalf("failed to query log: %v", err)
	}

	assert.DeepEqual(t, values, []int{1, 2, 3}, "applied order mismatch")
}

func TestMigrate_failedMigrationIsRolledBack(t *testing.T) {
	db := openMemoryDB(t)

	if err := db.Exec("CREATE TABLE counter (value INTEGER)").Error; err != nil {
		t.Fatalf("failed to create table: %v", err)
	}

	migrationsFs := fstest.MapFS{
		"001-good.sql": &fstest.MapFile{Data: []byte("INSERT INTO counter (value) VALUES (1);")},
		"002-bad.sql":  &fstest.MapFile{Data: []byte("INSERT INTO counter (value) VALUES (2); INVALID SQL;")},
	}

	if err := migrate(db, migrationsFs); err == nil {
		t.Fatal("expected error for invalid SQL, got nil")
	}

	var version int
	if err := db.Raw("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version).Error; err != nil {
		t.Fatalf("failed to read version: %v", err)
	}
	var count int64
	if err := db.Raw("SELECT COUNT(*) FROM counter").Scan(&count).Error; err != nil {
		t.Fatalf("failed to count rows: %v", err)
	}

	assert.Equal(t, version, 1, "version mismatch")
	assert.Equal(t, count, int64(1), "row count mismatch")
}

func TestMigrate_errors(t *testing.T) {
	testCases := []struct {
		name string
		fsys fs.FS
	}{
		{
			name: "duplicate version",
			fsys: fstest.MapFS{
				"001-first.sql":  &fstest.MapFile{Data: []byte("SELECT 1;")},
				"001-second.sql": &fstest.MapFile{Data: []byte("SELECT 2;")},
			},
		},
		{
			name: "read dir failure",
			fsys: errorFS{},
		},
		{
			name: "empty file",
			fsys: fstest.MapFS{
				"001-empty.sql": &fstest.MapFile{Data: []byte("   \n\t  ")},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			db := openMemoryDB(t)

			if err := migrate(db, tc.fsys); err == nil {
				t.Fatal("expected an error, got nil")
			}
		})
	}
}

func TestParseMigrationFilename(t *testing.T) {
	testCases := []struct {
		filename string
		version  int
		wantErr  bool
	}{
		{"001-init.sql", 1, false},
		{"042-add-feature-v2.sql", 42, false},
		{"1-init.sql", 0, true},
		{"01-init.sql", 0, true},
		{"001init.sql", 0, true},
		{"001-.sql", 0, true},
		{"001-init.txt", 0, true},
		{"0a1-init.sql", 0, true},
		{"001_init.sql", 0, true},
	}

	for _, tc := range testCases {
		t.Run(tc.filename, func(t *testing.T) {
			v, err := parseMigrationFilename(tc.filename)

			assert.Equal(t, err != nil, tc.wantErr, "error mismatch")
			assert.Equal(t, v, tc.version, "version mismatch")
		})
	}
}

func TestMigrate_schema(t *testing.T) {
	db := openMemoryDB(t)

	if err := Migrate(db); err != nil {
		t.Fatal(errors.Wrap(err, "migrating"))
	}

	t.Run("modified is stamped unless supplied", func(t *testing.T) {
		supplied := time.Date(2020, time.March, 1, 12, 0, 0, 0, time.UTC)
		b := Book{ID: "b1", Name: "js", Modified: supplied}
		if err := db.Create(&b).Error; err != nil {
			t.Fatal(errors.Wrap(err, "creating book"))
		}

		later := supplied.Add(time.Hour)
		if err := db.Model(&Book{}).Where("id = ?", "b1").Updates(map[string]interface{}{"name": "go", "modified": later}).Error; err != nil {
			t.Fatal(errors.Wrap(err, "updating book with modified"))
		}
		var got Book
		if err := db.First(&got, "id = ?", "b1").Error; err != nil {
			t.Fatal(errors.Wrap(err, "finding book"))
		}
		assert.Equal(t, got.Modified.Equal(later), true, "supplied modified should be kept")

		if err := db.Model(&Book{}).Where("id = ?", "b1").Update("name", "rust").Error; err != nil {
			t.Fatal(errors.Wrap(err, "updating book"))
		}
		if err := db.First(&got, "id = ?", "b1").Error; err != nil {
			t.Fatal(errors.Wrap(err, "finding book"))
		}
		assert.Equal(t, got.Modified.After(later), true, "modified should be stamped")
	})

	t.Run("deleting records a tombstone and cascades", func(t *testing.T) {
		d := Document{ID: "d1", BookID: BookIDDefault, Name: "note", Modified: time.Now().UTC()}
		if err := db.Create(&d).Error; err != nil {
			t.Fatal(errors.Wrap(err, "creating document"))
		}

		if err := db.Delete(&Book{}, "id = ?", BookIDDefault).Error; err != nil {
			t.Fatal(errors.Wrap(err, "deleting book"))
		}

		var docCount int64
		if err := db.Model(&Document{}).Count(&docCount).Error; err != nil {
			t.Fatal(errors.Wrap(err, "counting documents"))
		}
		var tombstones []string
		if err := db.Model(&Deleted{}).Order("id").Pluck("id", &tombstones).Error; err != nil {
			t.Fatal(errors.Wrap(err, "plucking tombstones"))
		}

		assert.Equal(t, docCount, int64(0), "document should cascade")
		assert.DeepEqual(t, tombstones, []string{"d1", BookIDDefault}, "tombstones mismatch")
	})

	t.Run("remote servers are unique by host port and db", func(t *testing.T) {
		s1 := RemoteServer{ID: "r1", DBType: DBTypeMySQL, Host: "localhost", Port: 3306, DB: "notes", User: "u"}
		s2 := RemoteServer{ID: "r2", DBType: DBTypeMySQL, Host: "localhost", Port: 3306, DB: "notes", User: "v"}
		if err := db.Create(&s1).Error; err != nil {
			t.Fatal(errors.Wrap(err, "creating s1"))
		}

		err := db.Create(&s2).Error
		assert.Equal(t, IsUniqueViolation(err), true, "duplicate should violate the unique index")
	})
}
