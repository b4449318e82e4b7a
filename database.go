// Copyright 2018 Fabian Wenzelmann
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package histmosaic

import (
	"fmt"
	"image"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// FSImageDB is the list of sample candidates in a directory. Paths are
// relative to Root and sorted lexicographically, the index of a path is its
// ImageID.
//
// Directory listings come in no particular order on some systems, sorting
// makes the selection of samples (and thus ties between equally good
// samples) reproducible.
type FSImageDB struct {
	Root  string
	Paths []string
}

// NewFSImageDB returns an empty database with the given root.
func NewFSImageDB(root string) *FSImageDB {
	return &FSImageDB{Root: root}
}

// GetPath returns the full path of the image with the given id.
func (db *FSImageDB) GetPath(id ImageID) string {
	return filepath.Join(db.Root, db.Paths[id])
}

// NumImages returns the number of images in the database.
func (db *FSImageDB) NumImages() ImageID {
	return ImageID(len(db.Paths))
}

// LoadImage decodes the image with the given id.
func (db *FSImageDB) LoadImage(id ImageID) (image.Image, error) {
	if id < 0 || id >= db.NumImages() {
		return nil, fmt.Errorf("No image with id %d in %s", id, db.Root)
	}
	return LoadImage(db.GetPath(id))
}

// GenFSDatabase lists the files in root accepted by filter (JPGAndPNG if
// nil), with recursive set sub directories are listed as well.
//
// If root can't be read an InputError is returned.
func GenFSDatabase(root string, recursive bool, filter FileFilter) (*FSImageDB, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, &InputError{Op: "resolve", Path: root, Err: err}
	}
	if filter == nil {
		filter = JPGAndPNG
	}
	db := NewFSImageDB(absRoot)
	if recursive {
		err = db.walk(filter)
	} else {
		err = db.readDir(filter)
	}
	if err != nil {
		return nil, &InputError{Op: "list", Path: root, Err: err}
	}
	sort.Strings(db.Paths)
	return db, nil
}

func (db *FSImageDB) walk(filter FileFilter) error {
	return filepath.WalkDir(db.Root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() || !filter(entry.Name()) {
			return nil
		}
		rel, err := filepath.Rel(db.Root, path)
		if err != nil {
			return err
		}
		db.Paths = append(db.Paths, rel)
		return nil
	})
}

func (db *FSImageDB) readDir(filter FileFilter) error {
	entries, err := os.ReadDir(db.Root)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if !entry.IsDir() && filter(entry.Name()) {
			db.Paths = append(db.Paths, entry.Name())
		}
	}
	return nil
}
