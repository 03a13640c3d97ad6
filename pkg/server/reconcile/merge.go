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

package reconcile

import (
	"time"

	"github.com/dnote/scriptorium/pkg/server/database"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const batchSize = 200

func tombstoneIDs(db *gorm.DB) (map[string]bool, error) {
	var ids []string
	if err := db.Model(&database.Deleted{}).Pluck("id", &ids).Error; err != nil {
		return nil, errors.Wrap(err, "reading tombstones")
	}

	ret := make(map[string]bool, len(ids))
	for _, id := range ids {
		ret[id] = true
	}

	return ret, nil
}

// missing returns the ids in a that are absent from b
func missing(a, b map[string]bool) []string {
	var ret []string
	for id := range a {
		if !b[id] {
			ret = append(ret, id)
		}
	}

	return ret
}

func chunks(ids []string) [][]string {
	var ret [][]string
	for len(ids) > batchSize {
		ret = append(ret, ids[:batchSize])
		ids = ids[batchSize:]
	}
	if len(ids) > 0 {
		ret = append(ret, ids)
	}

	return ret
}

// applyDeletions records the tombstones and removes the rows they name
func applyDeletions(db *gorm.DB, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		for _, chunk := range chunks(ids) {
			rows := make([]database.Deleted, 0, len(chunk))
			for _, id := range chunk {
				rows = append(rows, database.Deleted{ID: id})
			}

			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error; err != nil {
				return errors.Wrap(err, "inserting tombstones")
			}
			if err := tx.Where("id IN ?", chunk).Delete(&database.Document{}).Error; err != nil {
				return errors.Wrap(err, "deleting documents")
			}
			if err := tx.Where("id IN ?", chunk).Delete(&database.Book{}).Error; err != nil {
				return errors.Wrap(err, "deleting books")
			}
		}

		return nil
	})
}

func syncDeletions(local, remote *gorm.DB) (bool, error) {
	localIDs, err := tombstoneIDs(local)
	if err != nil {
		return false, errors.Wrap(err, "local")
	}
	remoteIDs, err := tombstoneIDs(remote)
	if err != nil {
		return false, errors.Wrap(err, "remote")
	}

	toLocal := missing(remoteIDs, localIDs)
	toRemote := missing(localIDs, remoteIDs)

	if err := applyDeletions(local, toLocal); err != nil {
		return false, errors.Wrap(err, "local")
	}
	if err := applyDeletions(remote, toRemote); err != nil {
		return false, errors.Wrap(err, "remote")
	}

	return len(toLocal) > 0 || len(toRemote) > 0, nil
}

// newer reports whether a was modified after b. Times are compared at second
// precision since the databases keep different fractions of a second.
func newer(a, b time.Time) bool {
	return a.Truncate(time.Second).After(b.Truncate(time.Second))
}

func upsert(db *gorm.DB, rows interface{}) error {
	return db.Clauses(clause.OnConflict{UpdateAll: true}).CreateInBatches(rows, batchSize).Error
}

// outdatedBooks returns the books of src that dst is missing or has an older
// version of
func outdatedBooks(src, dst map[string]database.Book) []database.Book {
	var ret []database.Book
	for id, b := range src {
		if d, ok := dst[id]; !ok || newer(b.Modified, d.Modified) {
			b.Modified = b.Modified.UTC()
			ret = append(ret, b)
		}
	}

	return ret
}

func loadBooks(db *gorm.DB) (map[string]database.Book, error) {
	var books []database.Book
	if err := db.Find(&books).Error; err != nil {
		return nil, errors.Wrap(err, "reading books")
	}

	ret := make(map[string]database.Book, len(books))
	for _, b := range books {
		ret[b.ID] = b
	}

	return ret, nil
}

func syncBooks(local, remote *gorm.DB) (bool, error) {
	localBooks, err := loadBooks(local)
	if err != nil {
		return false, errors.Wrap(err, "local")
	}
	remoteBooks, err := loadBooks(remote)
	if err != nil {
		return false, errors.Wrap(err, "remote")
	}

	toLocal := outdatedBooks(remoteBooks, localBooks)
	toRemote := outdatedBooks(localBooks, remoteBooks)

	if len(toLocal) > 0 {
		if err := upsert(local, &toLocal); err != nil {
			return false, errors.Wrap(err, "upserting local books")
		}
	}
	if len(toRemote) > 0 {
		if err := upsert(remote, &toRemote); err != nil {
			return false, errors.Wrap(err, "upserting remote books")
		}
	}

	return len(toLocal) > 0 || len(toRemote) > 0, nil
}

func loadDocuments(db *gorm.DB) (map[string]database.Document, error) {
	var docs []database.Document
	if err := db.Find(&docs).Error; err != nil {
		return nil, errors.Wrap(err, "reading documents")
	}

	ret := make(map[string]database.Document, len(docs))
	for _, d := range docs {
		ret[d.ID] = d
	}

	return ret, nil
}

func bookIDs(db *gorm.DB) (map[string]bool, error) {
	var ids []string
	if err := db.Model(&database.Book{}).Pluck("id", &ids).Error; err != nil {
		return nil, errors.Wrap(err, "reading book ids")
	}

	ret := make(map[string]bool, len(ids))
	for _, id := range ids {
		ret[id] = true
	}

	return ret, nil
}

// outdatedDocuments returns the documents of src that dst is missing or has
// an older version of. Documents whose book dst lacks are left out.
func outdatedDocuments(src, dst map[string]database.Document, dstBooks map[string]bool) []database.Document {
	var ret []database.Document
	for id, doc := range src {
		if !dstBooks[doc.BookID] {
			continue
		}

		if d, ok := dst[id]; !ok || newer(doc.Modified, d.Modified) {
			doc.Modified = doc.Modified.UTC()
			ret = append(ret, doc)
		}
	}

	return ret
}

func syncDocuments(local, remote *gorm.DB) (bool, error) {
	localDocs, err := loadDocuments(local)
	if err != nil {
		return false, errors.Wrap(err, "local")
	}
	remoteDocs, err := loadDocuments(remote)
	if err != nil {
		return false, errors.Wrap(err, "remote")
	}
	localBooks, err := bookIDs(local)
	if err != nil {
		return false, errors.Wrap(err, "local")
	}
	remoteBooks, err := bookIDs(remote)
	if err != nil {
		return false, errors.Wrap(err, "remote")
	}

	toLocal := outdatedDocuments(remoteDocs, localDocs, localBooks)
	toRemote := outdatedDocuments(localDocs, remoteDocs, remoteBooks)

	if len(toLocal) > 0 {
		if err := upsert(local, &toLocal); err != nil {
			return false, errors.Wrap(err, "upserting local documents")
		}
	}
	if len(toRemote) > 0 {
		if err := upsert(remote, &toRemote); err != nil {
			return false, errors.Wrap(err, "upserting remote documents")
		}
	}

	return len(toLocal) > 0 || len(toRemote) > 0, nil
}
